package extraction

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/quotevox/quotevox-backend/internal/entity"
)

// Correction keys follow the {entity}_{index}_{field} convention the review
// UI submits: labour_2_hours, material_0_quantity. travel_hours is the one
// flat key without an index.
type CorrectionEntity string

const (
	CorrectionLabour   CorrectionEntity = "labour"
	CorrectionMaterial CorrectionEntity = "material"
	CorrectionTravel   CorrectionEntity = "travel"
)

// CorrectionKey is the typed form of a correction field reference.
type CorrectionKey struct {
	Entity CorrectionEntity
	Index  int
	Field  string
}

// ParseCorrectionKey parses a correction key or fails with a caller error.
func ParseCorrectionKey(key string) (CorrectionKey, error) {
	if key == "travel_hours" {
		return CorrectionKey{Entity: CorrectionTravel, Field: "hours"}, nil
	}

	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 {
		return CorrectionKey{}, fmt.Errorf("correction key %q is not {entity}_{index}_{field}", key)
	}

	var ent CorrectionEntity
	switch parts[0] {
	case "labour", "labor":
		ent = CorrectionLabour
	case "material":
		ent = CorrectionMaterial
	default:
		return CorrectionKey{}, fmt.Errorf("unknown correction entity %q", parts[0])
	}

	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 {
		return CorrectionKey{}, fmt.Errorf("correction key %q has invalid index %q", key, parts[1])
	}

	field := parts[2]
	if field == "" {
		return CorrectionKey{}, fmt.Errorf("correction key %q has empty field", key)
	}
	return CorrectionKey{Entity: ent, Index: idx, Field: field}, nil
}

// MergeResult reports what a correction merge did.
type MergeResult struct {
	Applied []string
	Skipped []string
}

// ApplyCorrections merges user-supplied overrides onto the record. An
// explicit human correction is always maximal confidence (1.0). Unknown keys
// and out-of-range indexes are skipped, not fatal: the UI may be ahead of the
// stored extraction. The text-generation provider is never re-contacted here.
func ApplyCorrections(rec *entity.ExtractionRecord, corrections map[string]any, confirmedAssumptions []string, logger *slog.Logger) MergeResult {
	if logger == nil {
		logger = slog.Default()
	}
	res := MergeResult{Applied: []string{}, Skipped: []string{}}

	for key, value := range corrections {
		ck, err := ParseCorrectionKey(key)
		if err != nil {
			logger.Warn("corrections.key_rejected", "key", key, "error", err)
			res.Skipped = append(res.Skipped, key)
			continue
		}
		if applyOne(rec, ck, value) {
			res.Applied = append(res.Applied, key)
		} else {
			logger.Warn("corrections.not_applicable", "key", key)
			res.Skipped = append(res.Skipped, key)
		}
	}

	for _, field := range confirmedAssumptions {
		for i := range rec.Assumptions {
			if rec.Assumptions[i].Field == field {
				rec.Assumptions[i].Confidence = 1.0
				res.Applied = append(res.Applied, "assumption:"+field)
			}
		}
	}

	rec.Quality.OverallConfidence = RecomputeOverallConfidence(rec)
	return res
}

func applyOne(rec *entity.ExtractionRecord, ck CorrectionKey, value any) bool {
	switch ck.Entity {
	case CorrectionTravel:
		if f, ok := asFloat(value); ok {
			rec.Fees.Travel.Hours.Set(f, 1.0)
			return true
		}
		return false

	case CorrectionLabour:
		if ck.Index >= len(rec.Time.LabourEntries) {
			return false
		}
		e := &rec.Time.LabourEntries[ck.Index]
		switch ck.Field {
		case "hours":
			if f, ok := asFloat(value); ok {
				e.Hours.Set(f, 1.0)
				return true
			}
		case "days":
			if f, ok := asFloat(value); ok {
				e.Days.Set(f, 1.0)
				return true
			}
		case "people":
			if f, ok := asFloat(value); ok {
				e.People.Set(f, 1.0)
				return true
			}
		case "description":
			if s, ok := asString(value); ok {
				e.Description = s
				return true
			}
		}
		return false

	case CorrectionMaterial:
		if ck.Index >= len(rec.Materials.Items) {
			return false
		}
		m := &rec.Materials.Items[ck.Index]
		switch ck.Field {
		case "quantity":
			if f, ok := asFloat(value); ok {
				m.Quantity.Set(f, 1.0)
				return true
			}
		case "unit":
			if s, ok := asString(value); ok {
				m.Unit.Set(s, 1.0)
				return true
			}
		case "unit_price_cents":
			if f, ok := asFloat(value); ok {
				cents := int64(f)
				m.UnitPriceCents = &cents
				m.NeedsPricing = false
				return true
			}
		case "description":
			if s, ok := asString(value); ok {
				m.Description = s
				return true
			}
		}
		return false
	}
	return false
}

// RecomputeOverallConfidence is the post-merge score: the simple mean of
// every present wrapped-field confidence plus every assumption confidence.
// All signals count equally; this is deliberately not a weighted average.
func RecomputeOverallConfidence(rec *entity.ExtractionRecord) float64 {
	var sum float64
	var n int

	add := func(c float64, present bool) {
		if present {
			sum += c
			n++
		}
	}

	add(rec.Customer.Name.Confidence, rec.Customer.Name.Present())
	add(rec.Customer.Email.Confidence, rec.Customer.Email.Present())
	add(rec.Customer.Phone.Confidence, rec.Customer.Phone.Present())
	add(rec.Job.Title.Confidence, rec.Job.Title.Present())
	add(rec.Job.SiteAddress.Confidence, rec.Job.SiteAddress.Present())

	for _, e := range rec.Time.LabourEntries {
		add(e.Hours.Confidence, e.Hours.Present())
		add(e.Days.Confidence, e.Days.Present())
		add(e.People.Confidence, e.People.Present())
	}
	for _, m := range rec.Materials.Items {
		add(m.Quantity.Confidence, m.Quantity.Present())
		add(m.Unit.Confidence, m.Unit.Present())
	}
	add(rec.Fees.Travel.Hours.Confidence, rec.Fees.Travel.Hours.Present())

	for _, a := range rec.Assumptions {
		sum += a.Confidence
		n++
	}

	if n == 0 {
		// Nothing to average over; a neutral score keeps the gate meaningful.
		return 0.5
	}
	mean, _ := SanitizeConfidence(sum / float64(n))
	return mean
}

func labourFieldName(index int, field string) string {
	return fmt.Sprintf("labour_%d_%s", index, field)
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
