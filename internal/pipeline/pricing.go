package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

// PriceMaterials runs the catalog matching sub-stage over the record's
// material items. Catalog being down is never fatal: the items simply stay
// needs_pricing and become a manual follow-up.
func PriceMaterials(ctx context.Context, catalog repository.CatalogRepository, orgID uuid.UUID, profile *entity.PricingProfile, rec *entity.ExtractionRecord, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	var queries []string
	var indexes []int
	for i, m := range rec.Materials.Items {
		if m.NeedsPricing && m.UnitPriceCents == nil {
			queries = append(queries, m.Description)
			indexes = append(indexes, i)
		}
	}
	if len(queries) == 0 {
		return
	}

	matches, err := catalog.MatchItems(ctx, orgID, profile.Region, queries)
	if err != nil {
		logger.Warn("pricing.catalog_unavailable", "items", len(queries), "error", err)
		return
	}

	priced := 0
	for n, match := range matches {
		if n >= len(indexes) {
			break
		}
		m := &rec.Materials.Items[indexes[n]]

		if match.CatalogItemID == nil {
			continue
		}
		m.CatalogItemID = match.CatalogItemID
		m.CatalogMatchConfidence = match.MatchConfidence
		if !m.Unit.Present() && match.Unit != "" {
			m.Unit.Set(match.Unit, DefaultCatalogUnitConfidence)
		}
		if match.MatchConfidence != nil {
			m.Notes = appendNote(m.Notes,
				fmt.Sprintf("catalog match: %s", describeMatchConfidence(*match.MatchConfidence)))
		}

		if match.TypicalLowPriceCents == nil || match.TypicalHighPriceCents == nil {
			continue
		}
		midpoint := (*match.TypicalLowPriceCents + *match.TypicalHighPriceCents) / 2
		m.UnitPriceCents = &midpoint

		qty := m.Quantity.ValueOr(1)
		est := int64(math.Round(applyMarkup(midpoint, profile.MaterialsMarkupPercent) * qty))
		m.EstimatedCostCents = &est
		m.NeedsPricing = false
		priced++
	}

	logger.Info("pricing.catalog_done", "queried", len(queries), "priced", priced)
}

// DefaultCatalogUnitConfidence is assigned to units inferred from a catalog
// match rather than the transcript.
const DefaultCatalogUnitConfidence = 0.7

// applyMarkup returns the marked-up unit price as a float so callers control
// rounding.
func applyMarkup(cents int64, markupPercent float64) float64 {
	return float64(cents) * (1 + markupPercent/100)
}

// describeMatchConfidence turns a raw score into provenance wording; users see
// this, not the number.
func describeMatchConfidence(c float64) string {
	switch {
	case c >= 0.85:
		return "strong"
	case c >= 0.6:
		return "likely"
	default:
		return "weak"
	}
}

func appendNote(notes, extra string) string {
	if notes == "" {
		return extra
	}
	return notes + "; " + extra
}
