package extraction

import (
	"math"
	"strings"

	"github.com/quotevox/quotevox-backend/internal/entity"
)

// Deterministic confidence scoring. The provider's self-reported confidence
// is ignored entirely; the score is derived by comparing transcript content
// against the extracted structure, so an over-optimistic model cannot push a
// weak extraction past the gate.
const (
	baseConfidence         = 0.85
	penaltyMissingTitle    = 0.15
	penaltyEmptyScope      = 0.10
	penaltyTimeNotCaptured = 0.10
	penaltyMatsNotCaptured = 0.10
	penaltyMissingAddress  = 0.05
)

var timeWords = []string{
	"hour", "hours", "hr", "hrs", "day", "days", "week", "weeks",
	"morning", "afternoon", "arvo", "half a day", "full day",
}

var materialWords = []string{
	"material", "materials", "supplies", "timber", "wood", "paint", "pipe",
	"piping", "cable", "wire", "fitting", "fittings", "concrete", "cement",
	"plasterboard", "gyprock", "tile", "tiles", "screws", "nails", "brackets",
	"bunnings",
}

// ComputeOverallConfidence scores the extraction against the transcript and
// clamps the result to [0,1].
func ComputeOverallConfidence(transcript string, rec *entity.ExtractionRecord) float64 {
	score := baseConfidence
	lower := strings.ToLower(transcript)

	if !rec.Job.Title.Present() {
		score -= penaltyMissingTitle
	}
	if len(rec.Job.ScopeOfWork) == 0 {
		score -= penaltyEmptyScope
	}
	if mentionsAny(lower, timeWords) && len(rec.Time.LabourEntries) == 0 {
		score -= penaltyTimeNotCaptured
	}
	if mentionsAny(lower, materialWords) && len(rec.Materials.Items) == 0 {
		score -= penaltyMatsNotCaptured
	}
	if !rec.Job.SiteAddress.Present() {
		score -= penaltyMissingAddress
	}

	score, _ = SanitizeConfidence(score)
	return score
}

// SanitizeConfidence clamps a confidence to [0,1]. NaN (or anything else that
// is not an ordinary number) becomes 0.5; the second return reports whether a
// repair happened so callers can log it.
func SanitizeConfidence(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.5, true
	}
	if v < 0 {
		return 0, true
	}
	if v > 1 {
		return 1, true
	}
	return v, false
}

func mentionsAny(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}

// DeriveMissingFields applies the rule-based missing-field policy: a single
// required-severity entry only when there is no work description of any kind,
// warnings for gaps the user probably wants to fill before sending the quote.
func DeriveMissingFields(rec *entity.ExtractionRecord) []entity.MissingField {
	missing := []entity.MissingField{}

	noDescription := len(rec.Job.ScopeOfWork) == 0 && rec.Job.Summary == ""
	if noDescription && !rec.Job.Title.Present() && !rec.HasStructuredData() {
		missing = append(missing, entity.MissingField{
			Field:    "job",
			Reason:   "no work description, title, or structured time/materials/fees data was captured",
			Severity: entity.SeverityRequired,
		})
	}

	if !rec.Customer.Name.Present() {
		missing = append(missing, entity.MissingField{
			Field:    "customer.name",
			Reason:   "customer name not mentioned",
			Severity: entity.SeverityWarning,
		})
	}
	if !rec.Job.SiteAddress.Present() {
		missing = append(missing, entity.MissingField{
			Field:    "job.site_address",
			Reason:   "site address not mentioned",
			Severity: entity.SeverityWarning,
		})
	}
	for i, e := range rec.Time.LabourEntries {
		if !e.Hours.Present() && !e.Days.Present() {
			missing = append(missing, entity.MissingField{
				Field:    labourFieldName(i, "hours"),
				Reason:   "labour entry has neither hours nor days",
				Severity: entity.SeverityWarning,
			})
		}
	}

	return missing
}
