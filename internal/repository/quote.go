package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
)

// QuoteStore runs materialization inside a single database transaction and
// serves the read side for quote endpoints.
type QuoteStore interface {
	WithinTx(ctx context.Context, fn func(tx QuoteTx) error) error
	GetQuoteWithItems(ctx context.Context, quoteID, userID uuid.UUID) (*entity.Quote, []entity.QuoteLineItem, error)
}

// QuoteTx is the set of writes materialization performs. All methods operate
// on the same transaction; the intake row lock taken by
// LockIntakeForQuoteCreation serializes concurrent quote attempts.
type QuoteTx interface {
	LockIntakeForQuoteCreation(ctx context.Context, intakeID, userID uuid.UUID) (*entity.VoiceIntake, error)
	GetQuote(ctx context.Context, quoteID uuid.UUID) (*entity.Quote, error)
	CreateQuoteShell(ctx context.Context, q *entity.Quote) error
	CountLineItems(ctx context.Context, quoteID uuid.UUID) (int, error)
	CountLineItemsExcluding(ctx context.Context, quoteID uuid.UUID, notesPattern string) (int, error)
	InsertLineItems(ctx context.Context, items []entity.QuoteLineItem) error
	DeleteLineItemsMatching(ctx context.Context, quoteID uuid.UUID, notesPattern string) (int64, error)
	MatchOrCreateCustomer(ctx context.Context, userID uuid.UUID, name, email, phone string) (*entity.Customer, error)
	FinishIntake(ctx context.Context, intakeID, quoteID uuid.UUID, rec *entity.ExtractionRecord, status constants.IntakeStatus) error
}

type quoteStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewQuoteStore(pool *pgxpool.Pool, log *slog.Logger) QuoteStore {
	if log == nil {
		log = slog.Default()
	}
	return &quoteStore{pool: pool, log: log}
}

func (s *quoteStore) WithinTx(ctx context.Context, fn func(tx QuoteTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.log.Error("quote tx begin failed", "error", err)
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&quoteTx{tx: tx, log: s.log}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		s.log.Error("quote tx commit failed", "error", err)
		return err
	}
	return nil
}

func (s *quoteStore) GetQuoteWithItems(ctx context.Context, quoteID, userID uuid.UUID) (*entity.Quote, []entity.QuoteLineItem, error) {
	var q entity.Quote
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, customer_id, intake_id, title, status, currency, created_at, updated_at
		 FROM quotes WHERE id = $1 AND user_id = $2`,
		quoteID, userID).Scan(
		&q.ID, &q.UserID, &q.CustomerID, &q.IntakeID, &q.Title, &q.Status,
		&q.Currency, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, common.NewAppError(common.CodeNotFound, "quote not found", common.ErrNotFound)
		}
		s.log.Error("quote get failed", "quote_id", quoteID, "error", err)
		return nil, nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, quote_id, item_type, description, quantity, unit,
		        unit_price_cents, line_total_cents, position, notes, catalog_item_id
		 FROM quote_line_items WHERE quote_id = $1 ORDER BY position ASC`,
		quoteID)
	if err != nil {
		s.log.Error("quote items query failed", "quote_id", quoteID, "error", err)
		return nil, nil, err
	}
	defer rows.Close()

	var items []entity.QuoteLineItem
	for rows.Next() {
		var (
			li       entity.QuoteLineItem
			itemType string
		)
		if err := rows.Scan(
			&li.ID, &li.QuoteID, &itemType, &li.Description, &li.Quantity, &li.Unit,
			&li.UnitPriceCents, &li.LineTotalCents, &li.Position, &li.Notes, &li.CatalogItemID,
		); err != nil {
			return nil, nil, err
		}
		li.ItemType = constants.LineItemType(itemType)
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &q, items, nil
}

type quoteTx struct {
	tx  pgx.Tx
	log *slog.Logger
}

// LockIntakeForQuoteCreation takes a row lock on the intake so only one
// materialization can proceed at a time. The caller re-checks state after the
// lock is granted.
func (t *quoteTx) LockIntakeForQuoteCreation(ctx context.Context, intakeID, userID uuid.UUID) (*entity.VoiceIntake, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT`+intakeColumns+` FROM voice_intakes WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		intakeID, userID)
	intake, err := scanIntake(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.CodeNotFound, "intake not found", common.ErrNotFound)
		}
		t.log.Error("intake lock failed", "intake_id", intakeID, "error", err)
		return nil, err
	}
	return intake, nil
}

func (t *quoteTx) GetQuote(ctx context.Context, quoteID uuid.UUID) (*entity.Quote, error) {
	var q entity.Quote
	err := t.tx.QueryRow(ctx,
		`SELECT id, user_id, customer_id, intake_id, title, status, currency, created_at, updated_at
		 FROM quotes WHERE id = $1`,
		quoteID).Scan(
		&q.ID, &q.UserID, &q.CustomerID, &q.IntakeID, &q.Title, &q.Status,
		&q.Currency, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.CodeNotFound, "quote not found", common.ErrNotFound)
		}
		return nil, err
	}
	return &q, nil
}

func (t *quoteTx) CreateQuoteShell(ctx context.Context, q *entity.Quote) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO quotes (id, user_id, customer_id, intake_id, title, status, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		q.ID, q.UserID, q.CustomerID, q.IntakeID, q.Title, q.Status, q.Currency,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		t.log.Error("quote insert failed", "quote_id", q.ID, "error", err)
		return err
	}
	return nil
}

func (t *quoteTx) CountLineItems(ctx context.Context, quoteID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT count(*) FROM quote_line_items WHERE quote_id = $1`, quoteID).Scan(&n)
	return n, err
}

// CountLineItemsExcluding counts rows whose notes do not match the SQL LIKE
// pattern. The materializer uses it to tell real items from placeholders.
func (t *quoteTx) CountLineItemsExcluding(ctx context.Context, quoteID uuid.UUID, notesPattern string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT count(*) FROM quote_line_items WHERE quote_id = $1 AND notes NOT LIKE $2`,
		quoteID, notesPattern).Scan(&n)
	return n, err
}

func (t *quoteTx) InsertLineItems(ctx context.Context, items []entity.QuoteLineItem) error {
	for i := range items {
		li := &items[i]
		if li.ID == uuid.Nil {
			li.ID = uuid.New()
		}
		_, err := t.tx.Exec(ctx,
			`INSERT INTO quote_line_items
			   (id, quote_id, item_type, description, quantity, unit,
			    unit_price_cents, line_total_cents, position, notes, catalog_item_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			li.ID, li.QuoteID, string(li.ItemType), li.Description, li.Quantity, li.Unit,
			li.UnitPriceCents, li.LineTotalCents, li.Position, li.Notes, li.CatalogItemID)
		if err != nil {
			t.log.Error("line item insert failed", "quote_id", li.QuoteID, "position", li.Position, "error", err)
			return err
		}
	}
	return nil
}

// DeleteLineItemsMatching removes rows whose notes match the SQL LIKE pattern.
// Used to evict placeholder rows once real items exist.
func (t *quoteTx) DeleteLineItemsMatching(ctx context.Context, quoteID uuid.UUID, notesPattern string) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM quote_line_items WHERE quote_id = $1 AND notes LIKE $2`,
		quoteID, notesPattern)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MatchOrCreateCustomer finds a customer by email, falling back to
// case-insensitive name, or creates one. No name at all produces the per-user
// placeholder customer so quote creation never blocks on identity.
func (t *quoteTx) MatchOrCreateCustomer(ctx context.Context, userID uuid.UUID, name, email, phone string) (*entity.Customer, error) {
	var c entity.Customer

	find := func(where, arg string) (bool, error) {
		err := t.tx.QueryRow(ctx,
			`SELECT id, user_id, name, email, phone, is_placeholder, created_at
			 FROM customers WHERE user_id = $1 AND `+where+`
			 ORDER BY created_at ASC LIMIT 1`,
			userID, arg).Scan(
			&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.IsPlaceholder, &c.CreatedAt)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if email != "" {
		if ok, err := find(`lower(email) = lower($2)`, email); err != nil {
			return nil, err
		} else if ok {
			return &c, nil
		}
	}
	if name != "" {
		if ok, err := find(`lower(name) = lower($2)`, name); err != nil {
			return nil, err
		} else if ok {
			return &c, nil
		}
	}
	if name == "" && email == "" {
		if ok, err := find(`is_placeholder AND $2 = ''`, ""); err != nil {
			return nil, err
		} else if ok {
			return &c, nil
		}
	}

	c = entity.Customer{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		IsPlaceholder: name == "",
	}
	if c.IsPlaceholder {
		c.Name = "Unknown customer"
	}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO customers (id, user_id, name, email, phone, is_placeholder)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.IsPlaceholder).Scan(&c.CreatedAt)
	if err != nil {
		t.log.Error("customer insert failed", "user_id", userID, "error", err)
		return nil, err
	}
	t.log.Info("customer created", "customer_id", c.ID, "placeholder", c.IsPlaceholder)
	return &c, nil
}

// FinishIntake records the created quote on the intake and stamps the final
// status, persisting the extraction record with its pricing snapshot.
func (t *quoteTx) FinishIntake(ctx context.Context, intakeID, quoteID uuid.UUID, rec *entity.ExtractionRecord, status constants.IntakeStatus) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE voice_intakes
		 SET created_quote_id = $2, extraction_json = $3, status = $4, updated_at = now()
		 WHERE id = $1`,
		intakeID, quoteID, recJSON, string(status))
	if err != nil {
		t.log.Error("intake finish failed", "intake_id", intakeID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewAppError(common.CodeNotFound, "intake vanished during quote creation", nil)
	}
	return nil
}
