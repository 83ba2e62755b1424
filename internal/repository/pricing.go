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

// PricingProfileRepository resolves the effective billing configuration for a
// user. Pure read; every downstream stage consumes the result.
type PricingProfileRepository interface {
	GetEffective(ctx context.Context, userID uuid.UUID) (*entity.PricingProfile, error)
}

type pricingRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPricingProfileRepository(pool *pgxpool.Pool, log *slog.Logger) PricingProfileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pricingRepo{pool: pool, log: log}
}

func (r *pricingRepo) GetEffective(ctx context.Context, userID uuid.UUID) (*entity.PricingProfile, error) {
	var p entity.PricingProfile
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, org_id, region, hourly_rate_cents, callout_fee_cents,
		        travel_rate_cents, travel_is_time, materials_markup_percent,
		        default_tax_rate, default_currency, workday_hours_default,
		        pickup_run_enabled, pickup_run_minutes_default, org_tax_inclusive
		 FROM pricing_profiles WHERE user_id = $1`,
		userID).Scan(
		&p.ID, &p.UserID, &p.OrgID, &p.Region, &p.HourlyRateCents, &p.CalloutFeeCents,
		&p.TravelRateCents, &p.TravelIsTime, &p.MaterialsMarkupPercent,
		&p.DefaultTaxRate, &p.DefaultCurrency, &p.WorkdayHoursDefault,
		&p.PickupRunEnabled, &p.PickupRunMinutesDefault, &p.OrgTaxInclusive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absent profile is an operator problem, not something a retry fixes.
			return nil, common.NewAppError(common.CodeConfigError,
				"no pricing profile configured for user", common.ErrNotFound)
		}
		r.log.Error("pricing profile lookup failed", "user_id", userID, "error", err)
		return nil, err
	}

	if p.HourlyRateCents <= 0 {
		return nil, common.NewAppError(common.CodeConfigError,
			"pricing profile has no hourly rate; set one before quoting", nil)
	}
	return &p, nil
}
