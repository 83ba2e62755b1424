package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

// placeholderPattern is the SQL LIKE pattern matching placeholder line items.
const placeholderPattern = "%" + constants.PlaceholderMarker + "%"

// MaterializeStage turns a gated extraction into a priced quote, atomically.
// The whole stage runs inside one transaction under a row lock on the intake,
// which is what makes the idempotency check correct under concurrent calls.
type MaterializeStage struct {
	quotes  repository.QuoteStore
	pricing repository.PricingProfileRepository
	logger  *slog.Logger
}

func NewMaterializeStage(quotes repository.QuoteStore, pricing repository.PricingProfileRepository, logger *slog.Logger) *MaterializeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaterializeStage{quotes: quotes, pricing: pricing, logger: logger}
}

// MaterializeResult is the stage's success payload.
type MaterializeResult struct {
	IntakeID         uuid.UUID              `json:"intake_id"`
	QuoteID          uuid.UUID              `json:"quote_id"`
	Status           constants.IntakeStatus `json:"status"`
	LineItemCount    int                    `json:"line_item_count"`
	IdempotentReplay bool                   `json:"idempotent_replay"`
	UsedPlaceholders bool                   `json:"used_placeholders"`
}

func (s *MaterializeStage) Run(ctx context.Context, intakeID, userID uuid.UUID) (*MaterializeResult, error) {
	profile, err := s.pricing.GetEffective(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *MaterializeResult
	err = s.quotes.WithinTx(ctx, func(tx repository.QuoteTx) error {
		r, err := s.runLocked(ctx, tx, intakeID, userID, profile)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MaterializeStage) runLocked(ctx context.Context, tx repository.QuoteTx, intakeID, userID uuid.UUID, profile *entity.PricingProfile) (*MaterializeResult, error) {
	intake, err := tx.LockIntakeForQuoteCreation(ctx, intakeID, userID)
	if err != nil {
		return nil, err
	}

	// Idempotent replay: an existing quote with real line items is the final
	// answer, no matter how many times the client retries. Placeholder-only
	// quotes are not final: the extraction may have been corrected since, so
	// they are rebuilt in place like an empty shell.
	var (
		quote      *entity.Quote
		evictStale bool
	)
	if intake.CreatedQuoteID != nil {
		quote, err = tx.GetQuote(ctx, *intake.CreatedQuoteID)
		if err != nil {
			return nil, err
		}
		count, err := tx.CountLineItems(ctx, quote.ID)
		if err != nil {
			return nil, err
		}
		real, err := tx.CountLineItemsExcluding(ctx, quote.ID, placeholderPattern)
		if err != nil {
			return nil, err
		}
		if real > 0 {
			s.logger.Info("materialize.replay", "intake_id", intakeID, "quote_id", quote.ID)
			return &MaterializeResult{
				IntakeID:         intakeID,
				QuoteID:          quote.ID,
				Status:           intake.Status,
				LineItemCount:    count,
				IdempotentReplay: true,
			}, nil
		}
		if count > 0 {
			s.logger.Info("materialize.requote_over_placeholders",
				"intake_id", intakeID, "quote_id", quote.ID, "placeholders", count)
			evictStale = true
		} else {
			// Empty shell: fill it in place rather than creating a duplicate.
			s.logger.Warn("materialize.refill_empty_shell", "intake_id", intakeID, "quote_id", quote.ID)
		}
	}

	if intake.Extraction == nil {
		return nil, common.NewAppError(common.CodeInvalidState, "intake has no extraction", nil)
	}
	switch intake.Status {
	case constants.IntakeStatusExtracted, constants.IntakeStatusNeedsUserReview:
	default:
		return nil, common.NewAppError(common.CodeInvalidState,
			fmt.Sprintf("intake is %q, quote creation requires extracted or needs_user_review", intake.Status), nil)
	}
	rec := intake.Extraction

	if quote == nil {
		customer, err := s.resolveCustomer(ctx, tx, intake, rec)
		if err != nil {
			return nil, err
		}
		quote = &entity.Quote{
			ID:         uuid.New(),
			UserID:     userID,
			CustomerID: customer.ID,
			IntakeID:   &intake.ID,
			Title:      quoteTitle(rec),
			Status:     "draft",
			Currency:   profile.DefaultCurrency,
		}
		if err := tx.CreateQuoteShell(ctx, quote); err != nil {
			return nil, err
		}
	}

	items := BuildLineItems(rec, profile, s.logger)
	for i := range items {
		items[i].QuoteID = quote.ID
	}

	// Real items and placeholders never coexist: evict old placeholders the
	// moment a real batch lands, and when rebuilding over a placeholder-only
	// quote so a still-sparse retry replaces the pair instead of stacking it.
	hasReal := ContainsNonPlaceholder(items)
	if hasReal || evictStale {
		evicted, err := tx.DeleteLineItemsMatching(ctx, quote.ID, placeholderPattern)
		if err != nil {
			return nil, err
		}
		if evicted > 0 {
			s.logger.Info("materialize.placeholders_evicted", "quote_id", quote.ID, "count", evicted)
		}
	}
	if err := tx.InsertLineItems(ctx, items); err != nil {
		return nil, err
	}

	// Readability diagnostic only: the insert result is authoritative, a
	// mismatch points at the persistence layer.
	count, err := tx.CountLineItems(ctx, quote.ID)
	if err != nil {
		s.logger.Warn("materialize.count_check_failed", "quote_id", quote.ID, "error", err)
	} else if count != len(items) {
		s.logger.Warn("materialize.count_mismatch",
			"quote_id", quote.ID, "inserted", len(items), "readable", count)
	}

	rec.PricingUsed = profile.Snapshot(time.Now())
	finalStatus := constants.IntakeStatusQuoteCreated
	if rec.Quality.RequiresUserConfirmation && !rec.Quality.UserConfirmed {
		finalStatus = constants.IntakeStatusNeedsUserReview
	}
	if err := tx.FinishIntake(ctx, intake.ID, quote.ID, rec, finalStatus); err != nil {
		return nil, err
	}

	s.logger.Info("materialize.ok",
		"intake_id", intakeID,
		"quote_id", quote.ID,
		"line_items", len(items),
		"status", finalStatus,
	)
	return &MaterializeResult{
		IntakeID:         intakeID,
		QuoteID:          quote.ID,
		Status:           finalStatus,
		LineItemCount:    len(items),
		UsedPlaceholders: !hasReal,
	}, nil
}

// resolveCustomer never blocks materialization on identity: bound id wins,
// then extracted identity, then a placeholder customer.
func (s *MaterializeStage) resolveCustomer(ctx context.Context, tx repository.QuoteTx, intake *entity.VoiceIntake, rec *entity.ExtractionRecord) (*entity.Customer, error) {
	if intake.CustomerID != nil {
		return &entity.Customer{ID: *intake.CustomerID, UserID: intake.UserID}, nil
	}
	return tx.MatchOrCreateCustomer(ctx, intake.UserID,
		rec.Customer.Name.ValueOr(""),
		rec.Customer.Email.ValueOr(""),
		rec.Customer.Phone.ValueOr(""),
	)
}

func quoteTitle(rec *entity.ExtractionRecord) string {
	if rec.Job.Title.Present() {
		return rec.Job.Title.ValueOr("")
	}
	if rec.Job.Summary != "" {
		return rec.Job.Summary
	}
	return "Quote"
}
