package llm

import "context"

// PricingContext is the minimal billing context included in the prompt.
// Nothing here lets the model invent prices; it only grounds vague language
// ("half a day", "the usual callout").
type PricingContext struct {
	HourlyRateCents int64   `json:"hourly_rate_cents"`
	MarkupPercent   float64 `json:"markup_percent"`
	TaxRate         float64 `json:"tax_rate"`
	Currency        string  `json:"currency"`
	Region          string  `json:"region,omitempty"`
}

// ExtractRequest carries everything the extraction prompt needs.
type ExtractRequest struct {
	Transcript    string
	Pricing       PricingContext
	CustomerBound bool // a customer is already selected; forbid identity inference
}

// RawExtraction is the unconfidenced wire shape the model returns. Pointers
// keep "absent" distinct from zero values; normalization wraps these into
// Confident fields downstream.
type RawExtraction struct {
	Customer    RawCustomer     `json:"customer"`
	Job         RawJob          `json:"job"`
	Time        RawTime         `json:"time"`
	Materials   RawMaterials    `json:"materials"`
	Fees        RawFees         `json:"fees"`
	Assumptions []RawAssumption `json:"assumptions,omitempty"`
}

type RawCustomer struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type RawJob struct {
	Title            *string  `json:"title"`
	Summary          *string  `json:"summary"`
	SiteAddress      *string  `json:"site_address"`
	ScopeOfWork      []string `json:"scope_of_work"`
	EstimatedDaysMin *float64 `json:"estimated_days_min"`
	EstimatedDaysMax *float64 `json:"estimated_days_max"`
	JobDate          *string  `json:"job_date"`
}

type RawTime struct {
	LabourEntries []RawLabourEntry `json:"labour_entries"`
}

type RawLabourEntry struct {
	Description string   `json:"description"`
	Hours       *float64 `json:"hours"`
	Days        *float64 `json:"days"`
	People      *float64 `json:"people"`
	Note        string   `json:"note,omitempty"`
}

type RawMaterials struct {
	Items []RawMaterialItem `json:"items"`
}

type RawMaterialItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Notes       string   `json:"notes,omitempty"`
}

type RawFees struct {
	Travel          RawTravel `json:"travel"`
	MaterialsPickup RawPickup `json:"materials_pickup"`
	CalloutFeeCents *int64    `json:"callout_fee_cents"`
}

type RawTravel struct {
	IsTime   *bool    `json:"is_time"`
	Hours    *float64 `json:"hours"`
	FeeCents *int64   `json:"fee_cents"`
}

type RawPickup struct {
	Enabled *bool `json:"enabled"`
	Minutes *int  `json:"minutes"`
}

type RawAssumption struct {
	Field      string `json:"field"`
	Assumption string `json:"assumption"`
	Source     string `json:"source,omitempty"`
}

// JSONCompleter is the text-generation collaborator. It is callable twice per
// extraction: once for the extract, once for a repair-on-failure pass.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
