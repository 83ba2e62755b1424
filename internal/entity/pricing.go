package entity

import (
	"time"

	"github.com/google/uuid"
)

// PricingProfile is the effective billing configuration for a user/org.
// It is read-only from the pipeline's point of view.
type PricingProfile struct {
	ID                      uuid.UUID `json:"id"`
	UserID                  uuid.UUID `json:"user_id"`
	OrgID                   uuid.UUID `json:"org_id"`
	Region                  string    `json:"region"`
	HourlyRateCents         int64     `json:"hourly_rate_cents"`
	CalloutFeeCents         int64     `json:"callout_fee_cents"`
	TravelRateCents         int64     `json:"travel_rate_cents"`
	TravelIsTime            bool      `json:"travel_is_time"`
	MaterialsMarkupPercent  float64   `json:"materials_markup_percent"`
	DefaultTaxRate          float64   `json:"default_tax_rate"`
	DefaultCurrency         string    `json:"default_currency"`
	WorkdayHoursDefault     float64   `json:"workday_hours_default"`
	PickupRunEnabled        bool      `json:"pickup_run_enabled"`
	PickupRunMinutesDefault int       `json:"pickup_run_minutes_default"`
	OrgTaxInclusive         bool      `json:"org_tax_inclusive"`
}

// WorkdayHours returns the workday-hours default, falling back to 8.
func (p *PricingProfile) WorkdayHours() float64 {
	if p.WorkdayHoursDefault > 0 {
		return p.WorkdayHoursDefault
	}
	return 8
}

// PricingSnapshot is the audit copy written into the extraction record at
// materialization time.
type PricingSnapshot struct {
	ProfileID              uuid.UUID `json:"profile_id"`
	HourlyRateCents        int64     `json:"hourly_rate_cents"`
	CalloutFeeCents        int64     `json:"callout_fee_cents"`
	TravelRateCents        int64     `json:"travel_rate_cents"`
	TravelIsTime           bool      `json:"travel_is_time"`
	MaterialsMarkupPercent float64   `json:"materials_markup_percent"`
	DefaultTaxRate         float64   `json:"default_tax_rate"`
	DefaultCurrency        string    `json:"default_currency"`
	WorkdayHoursDefault    float64   `json:"workday_hours_default"`
	TakenAt                time.Time `json:"taken_at"`
}

// Snapshot freezes the profile for audit.
func (p *PricingProfile) Snapshot(now time.Time) *PricingSnapshot {
	return &PricingSnapshot{
		ProfileID:              p.ID,
		HourlyRateCents:        p.HourlyRateCents,
		CalloutFeeCents:        p.CalloutFeeCents,
		TravelRateCents:        p.TravelRateCents,
		TravelIsTime:           p.TravelIsTime,
		MaterialsMarkupPercent: p.MaterialsMarkupPercent,
		DefaultTaxRate:         p.DefaultTaxRate,
		DefaultCurrency:        p.DefaultCurrency,
		WorkdayHoursDefault:    p.WorkdayHours(),
		TakenAt:                now.UTC(),
	}
}
