package entity

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/constants"
)

// Quote is the shell a materialization run fills with line items.
type Quote struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	IntakeID   *uuid.UUID `json:"intake_id,omitempty"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	Currency   string     `json:"currency"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// QuoteLineItem is one priced row of a quote. Position determines the order
// on the rendered document.
type QuoteLineItem struct {
	ID             uuid.UUID              `json:"id"`
	QuoteID        uuid.UUID              `json:"quote_id"`
	ItemType       constants.LineItemType `json:"item_type"`
	Description    string                 `json:"description"`
	Quantity       float64                `json:"quantity"`
	Unit           string                 `json:"unit"`
	UnitPriceCents int64                  `json:"unit_price_cents"`
	LineTotalCents int64                  `json:"line_total_cents"`
	Position       int                    `json:"position"`
	Notes          string                 `json:"notes,omitempty"`
	CatalogItemID  *uuid.UUID             `json:"catalog_item_id,omitempty"`
}

// IsPlaceholder reports whether this is a synthetic keep-the-quote-non-empty row.
func (li *QuoteLineItem) IsPlaceholder() bool {
	return strings.Contains(li.Notes, constants.PlaceholderMarker)
}

// LineTotal computes round(quantity * unitPriceCents).
func LineTotal(quantity float64, unitPriceCents int64) int64 {
	return int64(math.Round(quantity * float64(unitPriceCents)))
}

// Customer is the quote recipient. A placeholder customer (no name, no email)
// exists so materialization is never blocked on identity.
type Customer struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	IsPlaceholder bool      `json:"is_placeholder"`
	CreatedAt     time.Time `json:"created_at"`
}

// CatalogMatch is one result of the catalog matching collaborator.
type CatalogMatch struct {
	Query                 string     `json:"query"` // the material description matched against
	CatalogItemID         *uuid.UUID `json:"catalog_item_id,omitempty"`
	Unit                  string     `json:"unit,omitempty"`
	TypicalLowPriceCents  *int64     `json:"typical_low_price_cents,omitempty"`
	TypicalHighPriceCents *int64     `json:"typical_high_price_cents,omitempty"`
	MatchConfidence       *float64   `json:"match_confidence,omitempty"`
}
