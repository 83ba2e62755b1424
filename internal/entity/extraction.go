package entity

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels for missing-field entries.
const (
	SeverityRequired = "required"
	SeverityWarning  = "warning"
)

// ExtractionRecord is the canonical, confidence-annotated structure derived
// from a transcript. It is what lives in voice_intakes.extraction_json.
type ExtractionRecord struct {
	Customer      CustomerInfo     `json:"customer"`
	Job           JobInfo          `json:"job"`
	Time          TimeInfo         `json:"time"`
	Materials     MaterialsInfo    `json:"materials"`
	Fees          FeesInfo         `json:"fees"`
	Quality       QualityInfo      `json:"quality"`
	MissingFields []MissingField   `json:"missing_fields"`
	Assumptions   []Assumption     `json:"assumptions"`
	PricingUsed   *PricingSnapshot `json:"pricing_used,omitempty"` // write-once at materialization
}

// CustomerInfo is the extracted (or user-selected) customer identity.
type CustomerInfo struct {
	Name   Confident[string] `json:"name"`
	Email  Confident[string] `json:"email"`
	Phone  Confident[string] `json:"phone"`
	Source string            `json:"source,omitempty"` // e.g. "transcript", "user_selection"
}

// JobInfo describes the job itself.
type JobInfo struct {
	Title            Confident[string] `json:"title"`
	Summary          string            `json:"summary,omitempty"`
	SiteAddress      Confident[string] `json:"site_address"`
	ScopeOfWork      []string          `json:"scope_of_work"`
	EstimatedDaysMin *float64          `json:"estimated_days_min,omitempty"`
	EstimatedDaysMax *float64          `json:"estimated_days_max,omitempty"`
	JobDate          *string           `json:"job_date,omitempty"` // YYYY-MM-DD
}

// TimeInfo carries the ordered labour entries.
type TimeInfo struct {
	LabourEntries []LabourEntry `json:"labour_entries"`
}

// LabourEntry is one unit of extracted labour.
type LabourEntry struct {
	Description string             `json:"description"`
	Hours       Confident[float64] `json:"hours"`
	Days        Confident[float64] `json:"days"`
	People      Confident[float64] `json:"people"`
	Note        string             `json:"note,omitempty"`
}

// MaterialsInfo carries the ordered material items.
type MaterialsInfo struct {
	Items []MaterialItem `json:"items"`
}

// MaterialItem is one extracted material line, enriched by catalog matching.
type MaterialItem struct {
	Description            string             `json:"description"`
	Quantity               Confident[float64] `json:"quantity"`
	Unit                   Confident[string]  `json:"unit"`
	UnitPriceCents         *int64             `json:"unit_price_cents,omitempty"`
	EstimatedCostCents     *int64             `json:"estimated_cost_cents,omitempty"`
	NeedsPricing           bool               `json:"needs_pricing"`
	CatalogItemID          *uuid.UUID         `json:"catalog_item_id,omitempty"`
	CatalogMatchConfidence *float64           `json:"catalog_match_confidence,omitempty"`
	Notes                  string             `json:"notes,omitempty"`
}

// FeesInfo groups extracted fees.
type FeesInfo struct {
	Travel          TravelFee `json:"travel"`
	MaterialsPickup PickupFee `json:"materials_pickup"`
	CalloutFeeCents *int64    `json:"callout_fee_cents,omitempty"`
}

// TravelFee is either time-based (hours billed at a rate) or a fixed amount.
type TravelFee struct {
	IsTime   *bool              `json:"is_time,omitempty"`
	Hours    Confident[float64] `json:"hours"`
	FeeCents *int64             `json:"fee_cents,omitempty"`
}

// PickupFee is the materials-pickup ("run") fee.
type PickupFee struct {
	Enabled bool `json:"enabled"`
	Minutes *int `json:"minutes,omitempty"`
}

// QualityInfo is computed locally, never trusted from the provider.
type QualityInfo struct {
	OverallConfidence        float64    `json:"overall_confidence"`
	RequiresUserConfirmation bool       `json:"requires_user_confirmation"`
	UserConfirmed            bool       `json:"user_confirmed"`
	UserConfirmedAt          *time.Time `json:"user_confirmed_at,omitempty"`
}

// MissingField flags a gap the user may need to fill.
type MissingField struct {
	Field    string `json:"field"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"` // required | warning
}

// Assumption records a guess the extractor made, with provenance.
type Assumption struct {
	Field      string  `json:"field"`
	Assumption string  `json:"assumption"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// HasRequiredMissing reports whether any missing field is required-severity.
func (r *ExtractionRecord) HasRequiredMissing() bool {
	for _, mf := range r.MissingFields {
		if mf.Severity == SeverityRequired {
			return true
		}
	}
	return false
}

// HasStructuredData reports whether any labour, material or fee data exists.
func (r *ExtractionRecord) HasStructuredData() bool {
	if len(r.Time.LabourEntries) > 0 || len(r.Materials.Items) > 0 {
		return true
	}
	if r.Fees.CalloutFeeCents != nil || r.Fees.Travel.FeeCents != nil ||
		r.Fees.Travel.Hours.Present() || r.Fees.MaterialsPickup.Enabled {
		return true
	}
	return false
}
