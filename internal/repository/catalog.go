package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotevox/quotevox-backend/internal/entity"
)

// CatalogRepository is the catalog-matching collaborator: given material
// descriptions, return typical price ranges keyed by org and region.
type CatalogRepository interface {
	MatchItems(ctx context.Context, orgID uuid.UUID, region string, queries []string) ([]entity.CatalogMatch, error)
}

type catalogRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCatalogRepository(pool *pgxpool.Pool, log *slog.Logger) CatalogRepository {
	if log == nil {
		log = slog.Default()
	}
	return &catalogRepo{pool: pool, log: log}
}

// MatchItems looks each description up against catalog_items. One result per
// query, in query order; a query with no hit yields an empty match so callers
// can line results up with their inputs by index.
func (r *catalogRepo) MatchItems(ctx context.Context, orgID uuid.UUID, region string, queries []string) ([]entity.CatalogMatch, error) {
	out := make([]entity.CatalogMatch, 0, len(queries))
	for _, q := range queries {
		m := entity.CatalogMatch{Query: q}
		needle := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"

		err := r.pool.QueryRow(ctx,
			`SELECT id, unit, typical_low_price_cents, typical_high_price_cents, match_confidence
			 FROM catalog_items
			 WHERE org_id = $1 AND region = $2 AND lower(name) LIKE $3
			 ORDER BY char_length(name) ASC
			 LIMIT 1`,
			orgID, region, needle).Scan(
			&m.CatalogItemID, &m.Unit, &m.TypicalLowPriceCents,
			&m.TypicalHighPriceCents, &m.MatchConfidence,
		)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error("catalog match query failed", "org_id", orgID, "query", q, "error", err)
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
