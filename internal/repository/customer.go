package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
)

// CustomerRepository is the read side for customers; creation happens inside
// the quote transaction.
type CustomerRepository interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*entity.Customer, error)
}

type customerRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCustomerRepository(pool *pgxpool.Pool, log *slog.Logger) CustomerRepository {
	if log == nil {
		log = slog.Default()
	}
	return &customerRepo{pool: pool, log: log}
}

func (r *customerRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*entity.Customer, error) {
	var c entity.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, email, phone, is_placeholder, created_at
		 FROM customers WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.IsPlaceholder, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.CodeNotFound, "customer not found", common.ErrNotFound)
		}
		r.log.Error("customer get failed", "customer_id", id, "error", err)
		return nil, err
	}
	return &c, nil
}
