package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/extraction"
	"github.com/quotevox/quotevox-backend/internal/llm"
	"github.com/quotevox/quotevox-backend/internal/ratelimit"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

// ExtractStage turns a transcript into a gated ExtractionRecord. Two distinct
// paths share the stage: the provider path (fresh extraction) and the
// correction-merge path, which never contacts the provider.
type ExtractStage struct {
	intakes   repository.IntakeRepository
	customers repository.CustomerRepository
	pricing   repository.PricingProfileRepository
	catalog   repository.CatalogRepository
	extractor *llm.Extractor
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

func NewExtractStage(
	intakes repository.IntakeRepository,
	customers repository.CustomerRepository,
	pricing repository.PricingProfileRepository,
	catalog repository.CatalogRepository,
	extractor *llm.Extractor,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{
		intakes:   intakes,
		customers: customers,
		pricing:   pricing,
		catalog:   catalog,
		extractor: extractor,
		limiter:   limiter,
		logger:    logger,
	}
}

// ExtractInput is everything a single extraction invocation carries.
type ExtractInput struct {
	IntakeID             uuid.UUID
	UserID               uuid.UUID
	Corrections          map[string]any
	ConfirmedAssumptions []string
}

// ExtractResult is the stage's success payload.
type ExtractResult struct {
	IntakeID          uuid.UUID                `json:"intake_id"`
	Status            constants.IntakeStatus   `json:"status"`
	NeedsReview       bool                     `json:"needs_review"`
	GateReasons       []string                 `json:"gate_reasons,omitempty"`
	OverallConfidence float64                  `json:"overall_confidence"`
	MissingFields     []entity.MissingField    `json:"missing_fields"`
	Record            *entity.ExtractionRecord `json:"record"`
	CorrectionsMerged bool                     `json:"corrections_merged"`
}

func (s *ExtractStage) Run(ctx context.Context, in ExtractInput) (*ExtractResult, error) {
	intake, err := s.intakes.GetByID(ctx, in.IntakeID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !intake.Status.CanExtract() {
		return nil, common.NewAppError(common.CodeInvalidState,
			fmt.Sprintf("intake is %q, extraction requires transcribed or needs_user_review", intake.Status), nil)
	}
	if !intake.HasTranscript() {
		return nil, common.NewAppError(common.CodeInvalidState, "intake has no transcript", nil)
	}

	profile, err := s.pricing.GetEffective(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	hasCorrections := len(in.Corrections) > 0 || len(in.ConfirmedAssumptions) > 0
	if hasCorrections {
		// Corrections are edits to an existing extraction; quietly running a
		// fresh provider extraction instead would discard them.
		if intake.Extraction == nil {
			return nil, common.NewAppError(common.CodeInvalidState,
				"corrections supplied but intake has no extraction to correct", nil)
		}
		return s.mergeCorrections(ctx, intake, profile, in)
	}
	return s.extractFresh(ctx, intake, profile, in)
}

// extractFresh is the provider path: rate-limited, prompt → parse-or-repair →
// normalize → deterministic scoring → catalog pricing → gate → persist.
func (s *ExtractStage) extractFresh(ctx context.Context, intake *entity.VoiceIntake, profile *entity.PricingProfile, in ExtractInput) (*ExtractResult, error) {
	if err := s.limiter.Allow(ctx, "extract", in.UserID); err != nil {
		return nil, err
	}

	var bound *entity.Customer
	if intake.CustomerID != nil {
		c, err := s.customers.GetByID(ctx, *intake.CustomerID, in.UserID)
		if err != nil {
			return nil, err
		}
		bound = c
	}

	start := time.Now()
	raw, _, err := s.extractor.ExtractRaw(ctx, llm.ExtractRequest{
		Transcript: *intake.TranscriptText,
		Pricing: llm.PricingContext{
			HourlyRateCents: profile.HourlyRateCents,
			MarkupPercent:   profile.MaterialsMarkupPercent,
			TaxRate:         profile.DefaultTaxRate,
			Currency:        profile.DefaultCurrency,
			Region:          profile.Region,
		},
		CustomerBound: bound != nil,
	})
	if err != nil {
		// Intake stays at its current status; retry is the caller's call.
		return nil, err
	}

	rec := extraction.Normalize(raw, bound)
	rec.Quality.OverallConfidence = extraction.ComputeOverallConfidence(*intake.TranscriptText, &rec)
	rec.MissingFields = extraction.DeriveMissingFields(&rec)

	PriceMaterials(ctx, s.catalog, profile.OrgID, profile, &rec, s.logger)

	gate := extraction.EvaluateGate(&rec, false, s.logger)
	rec.Quality.RequiresUserConfirmation = gate.NeedsReview()

	status := constants.IntakeStatusExtracted
	if gate.NeedsReview() {
		status = constants.IntakeStatusNeedsUserReview
	}
	if err := s.intakes.SaveExtraction(ctx, intake.ID, &rec, nil, status); err != nil {
		return nil, err
	}

	s.logger.Info("extract.ok",
		"intake_id", intake.ID,
		"status", status,
		"overall_confidence", rec.Quality.OverallConfidence,
		"gate_reasons", gate.Reasons,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &ExtractResult{
		IntakeID:          intake.ID,
		Status:            status,
		NeedsReview:       gate.NeedsReview(),
		GateReasons:       gate.Reasons,
		OverallConfidence: rec.Quality.OverallConfidence,
		MissingFields:     rec.MissingFields,
		Record:            &rec,
	}, nil
}

// mergeCorrections is the deterministic local path: apply overrides, bump
// confirmed assumptions, recompute the mean, force the gate open.
func (s *ExtractStage) mergeCorrections(ctx context.Context, intake *entity.VoiceIntake, profile *entity.PricingProfile, in ExtractInput) (*ExtractResult, error) {
	rec := *intake.Extraction

	merged := extraction.ApplyCorrections(&rec, in.Corrections, in.ConfirmedAssumptions, s.logger)
	s.logger.Info("extract.corrections_merged",
		"intake_id", intake.ID,
		"applied", len(merged.Applied),
		"skipped", len(merged.Skipped),
	)

	// Material prices may have been supplied by hand; run catalog pricing for
	// whatever still lacks one.
	PriceMaterials(ctx, s.catalog, profile.OrgID, profile, &rec, s.logger)

	gate := extraction.EvaluateGate(&rec, true, s.logger)
	rec.Quality.RequiresUserConfirmation = false
	rec.Quality.UserConfirmed = true
	now := time.Now().UTC()
	rec.Quality.UserConfirmedAt = &now

	correctionsJSON, err := json.Marshal(in.Corrections)
	if err != nil {
		return nil, fmt.Errorf("marshal corrections: %w", err)
	}
	if err := s.intakes.SaveExtraction(ctx, intake.ID, &rec, correctionsJSON, constants.IntakeStatusExtracted); err != nil {
		return nil, err
	}

	return &ExtractResult{
		IntakeID:          intake.ID,
		Status:            constants.IntakeStatusExtracted,
		NeedsReview:       false,
		GateReasons:       gate.Reasons,
		OverallConfidence: rec.Quality.OverallConfidence,
		MissingFields:     rec.MissingFields,
		Record:            &rec,
		CorrectionsMerged: true,
	}, nil
}
