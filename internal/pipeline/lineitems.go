package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/entity"
)

const (
	defaultTravelHours = 0.5
	daysPerWeek        = 5
)

// BuildLineItems synthesizes quote line items from a gated extraction record.
// The order is fixed (labour, materials, travel, pickup, callout) because
// position determines on-document order. The builder is pure: persistence and
// placeholder eviction happen in the materializer.
func BuildLineItems(rec *entity.ExtractionRecord, profile *entity.PricingProfile, logger *slog.Logger) []entity.QuoteLineItem {
	if logger == nil {
		logger = slog.Default()
	}
	var items []entity.QuoteLineItem

	items = append(items, buildLabourItems(rec, profile, logger)...)
	items = append(items, buildMaterialItems(rec, profile, logger)...)
	if li := buildTravelItem(rec, profile, logger); li != nil {
		items = append(items, *li)
	}
	if li := buildPickupItem(rec, profile); li != nil {
		items = append(items, *li)
	}
	if li := buildCalloutItem(rec, profile); li != nil {
		items = append(items, *li)
	}

	if len(items) == 0 {
		items = buildFromScopeOfWork(rec, profile, logger)
	}
	if len(items) == 0 {
		logger.Warn("lineitems.placeholder_fallback", "reason", "no billable data extracted")
		items = placeholderPair()
	}

	for i := range items {
		items[i].Position = i
	}
	return items
}

func buildLabourItems(rec *entity.ExtractionRecord, profile *entity.PricingProfile, logger *slog.Logger) []entity.QuoteLineItem {
	var items []entity.QuoteLineItem
	for i, e := range rec.Time.LabourEntries {
		hours := e.Hours.ValueOr(0)
		if !e.Hours.Present() {
			if !e.Days.Present() {
				logger.Warn("lineitems.labour_skipped", "index", i, "reason", "no hours or days")
				continue
			}
			hours = e.Days.ValueOr(0) * profile.WorkdayHours()
			logger.Info("lineitems.days_converted",
				"index", i, "days", e.Days.ValueOr(0), "hours", hours)
		}

		people := e.People.ValueOr(1)
		if people <= 0 {
			people = 1
		}
		qty := hours * people

		desc := e.Description
		if desc == "" {
			desc = "Labour"
		}
		items = append(items, entity.QuoteLineItem{
			ItemType:       constants.LineItemLabour,
			Description:    desc,
			Quantity:       qty,
			Unit:           "hours",
			UnitPriceCents: profile.HourlyRateCents,
			LineTotalCents: entity.LineTotal(qty, profile.HourlyRateCents),
			Notes:          e.Note,
		})
	}
	return items
}

func buildMaterialItems(rec *entity.ExtractionRecord, profile *entity.PricingProfile, logger *slog.Logger) []entity.QuoteLineItem {
	var items []entity.QuoteLineItem
	for i, m := range rec.Materials.Items {
		qty := m.Quantity.ValueOr(1)
		if !m.Quantity.Present() {
			logger.Warn("lineitems.material_quantity_defaulted", "index", i, "description", m.Description)
		}

		var unitPrice int64
		notes := m.Notes
		switch {
		case m.UnitPriceCents != nil:
			unitPrice = int64(math.Round(applyMarkup(*m.UnitPriceCents, profile.MaterialsMarkupPercent)))
		case m.EstimatedCostCents != nil:
			// Estimated cost is a whole-line basis; derive the per-unit price.
			total := math.Round(applyMarkup(*m.EstimatedCostCents, profile.MaterialsMarkupPercent))
			if qty > 0 {
				unitPrice = int64(math.Round(total / qty))
			} else {
				unitPrice = int64(total)
			}
		default:
			notes = appendNote(notes, constants.NeedsPricingNote)
		}

		items = append(items, entity.QuoteLineItem{
			ItemType:       constants.LineItemMaterials,
			Description:    m.Description,
			Quantity:       qty,
			Unit:           m.Unit.ValueOr("each"),
			UnitPriceCents: unitPrice,
			LineTotalCents: entity.LineTotal(qty, unitPrice),
			Notes:          notes,
			CatalogItemID:  m.CatalogItemID,
		})
	}
	return items
}

func buildTravelItem(rec *entity.ExtractionRecord, profile *entity.PricingProfile, logger *slog.Logger) *entity.QuoteLineItem {
	t := rec.Fees.Travel
	if !t.Hours.Present() && t.FeeCents == nil && t.IsTime == nil {
		return nil
	}

	isTime := profile.TravelIsTime
	if t.IsTime != nil {
		isTime = *t.IsTime
	}

	if isTime {
		hours := t.Hours.ValueOr(defaultTravelHours)
		if !t.Hours.Present() {
			logger.Warn("lineitems.travel_hours_defaulted", "hours", defaultTravelHours)
		}
		rate := profile.TravelRateCents
		if rate <= 0 {
			rate = profile.HourlyRateCents
		}
		return &entity.QuoteLineItem{
			ItemType:       constants.LineItemFee,
			Description:    "Travel",
			Quantity:       hours,
			Unit:           "hours",
			UnitPriceCents: rate,
			LineTotalCents: entity.LineTotal(hours, rate),
		}
	}

	fee := profile.TravelRateCents
	if fee <= 0 && t.FeeCents != nil {
		fee = *t.FeeCents
	}
	if fee <= 0 {
		return nil
	}
	return &entity.QuoteLineItem{
		ItemType:       constants.LineItemFee,
		Description:    "Travel fee",
		Quantity:       1,
		Unit:           "each",
		UnitPriceCents: fee,
		LineTotalCents: fee,
	}
}

func buildPickupItem(rec *entity.ExtractionRecord, profile *entity.PricingProfile) *entity.QuoteLineItem {
	if !profile.PickupRunEnabled || !rec.Fees.MaterialsPickup.Enabled {
		return nil
	}
	minutes := profile.PickupRunMinutesDefault
	if rec.Fees.MaterialsPickup.Minutes != nil && *rec.Fees.MaterialsPickup.Minutes > 0 {
		minutes = *rec.Fees.MaterialsPickup.Minutes
	}
	if minutes <= 0 {
		return nil
	}
	hours := float64(minutes) / 60
	return &entity.QuoteLineItem{
		ItemType:       constants.LineItemFee,
		Description:    "Materials pickup",
		Quantity:       hours,
		Unit:           "hours",
		UnitPriceCents: profile.HourlyRateCents,
		LineTotalCents: entity.LineTotal(hours, profile.HourlyRateCents),
	}
}

func buildCalloutItem(rec *entity.ExtractionRecord, profile *entity.PricingProfile) *entity.QuoteLineItem {
	amount := profile.CalloutFeeCents
	if rec.Fees.CalloutFeeCents != nil && *rec.Fees.CalloutFeeCents > 0 {
		amount = *rec.Fees.CalloutFeeCents
	}
	if amount <= 0 {
		return nil
	}
	return &entity.QuoteLineItem{
		ItemType:       constants.LineItemFee,
		Description:    "Callout fee",
		Quantity:       1,
		Unit:           "each",
		UnitPriceCents: amount,
		LineTotalCents: amount,
	}
}

// durationPhrase matches "3 hours", "2.5 hrs", "2 days". Digits only;
// spelled-out numbers are not attempted.
var durationPhrase = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(hours?|hrs?|days?|weeks?)`)

// buildFromScopeOfWork derives best-effort lines from free-text scope entries
// when structured extraction produced nothing billable. Everything here is
// flagged for review.
func buildFromScopeOfWork(rec *entity.ExtractionRecord, profile *entity.PricingProfile, logger *slog.Logger) []entity.QuoteLineItem {
	var items []entity.QuoteLineItem
	for _, task := range rec.Job.ScopeOfWork {
		match := durationPhrase.FindStringSubmatch(task)
		if match == nil {
			items = append(items, entity.QuoteLineItem{
				ItemType:    constants.LineItemMaterials,
				Description: task,
				Quantity:    1,
				Unit:        "each",
				Notes:       constants.NeedsPricingNote,
			})
			continue
		}

		n, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		var hours float64
		switch strings.ToLower(match[2])[0] {
		case 'h':
			hours = n
		case 'd':
			hours = n * profile.WorkdayHours()
		case 'w':
			hours = n * daysPerWeek * profile.WorkdayHours()
		}
		items = append(items, entity.QuoteLineItem{
			ItemType:       constants.LineItemLabour,
			Description:    task,
			Quantity:       hours,
			Unit:           "hours",
			UnitPriceCents: profile.HourlyRateCents,
			LineTotalCents: entity.LineTotal(hours, profile.HourlyRateCents),
			Notes:          constants.NeedsReviewNote,
		})
	}
	if len(items) > 0 {
		logger.Warn("lineitems.derived_from_scope", "count", len(items))
	}
	return items
}

// placeholderPair is the last resort: a quote is never left with zero lines.
func placeholderPair() []entity.QuoteLineItem {
	note := fmt.Sprintf("%s: replace before sending", constants.PlaceholderMarker)
	return []entity.QuoteLineItem{
		{
			ItemType:    constants.LineItemLabour,
			Description: "Labour (to be confirmed)",
			Quantity:    1,
			Unit:        "hours",
			Notes:       note,
		},
		{
			ItemType:    constants.LineItemMaterials,
			Description: "Materials (to be confirmed)",
			Quantity:    1,
			Unit:        "each",
			Notes:       note,
		},
	}
}

// ContainsNonPlaceholder reports whether the batch has at least one real item.
func ContainsNonPlaceholder(items []entity.QuoteLineItem) bool {
	for i := range items {
		if !items[i].IsPlaceholder() {
			return true
		}
	}
	return false
}
