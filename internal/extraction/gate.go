package extraction

import (
	"fmt"
	"log/slog"

	"github.com/quotevox/quotevox-backend/internal/entity"
)

// Gate thresholds.
const (
	labourConfidenceFloor  = 0.6
	overallConfidenceFloor = 0.7
)

// GateOutcome is the quality gate's decision.
type GateOutcome string

const (
	GateProceed     GateOutcome = "extracted"
	GateNeedsReview GateOutcome = "needs_user_review"
)

// GateResult carries the decision and why it was made.
type GateResult struct {
	Outcome GateOutcome
	Reasons []string
}

// NeedsReview reports whether human input is required before materialization.
func (g GateResult) NeedsReview() bool { return g.Outcome == GateNeedsReview }

// EvaluateGate decides whether the extraction may proceed automatically.
// The checks are a strict priority order; the first match wins:
//
//  1. corrections supplied in this call — explicit human confirmation beats
//     every automated signal
//  2. any required-severity missing field
//  3. critical fields below threshold (reserved hook, never populated)
//  4. a labour hours/days confidence that is present but weak: (0, 0.6)
//  5. overall confidence below 0.7
//
// A malformed overall confidence is repaired to 0.5 and logged; the gate
// itself never fails.
func EvaluateGate(rec *entity.ExtractionRecord, hasCorrections bool, logger *slog.Logger) GateResult {
	if logger == nil {
		logger = slog.Default()
	}

	if hasCorrections {
		return GateResult{Outcome: GateProceed, Reasons: []string{"user corrections applied"}}
	}

	if rec.HasRequiredMissing() {
		return GateResult{
			Outcome: GateNeedsReview,
			Reasons: []string{"required fields are missing"},
		}
	}

	if criticalFieldsBelowThreshold(rec) {
		return GateResult{
			Outcome: GateNeedsReview,
			Reasons: []string{"critical field confidence below threshold"},
		}
	}

	for i, e := range rec.Time.LabourEntries {
		for _, c := range []struct {
			field string
			conf  float64
		}{
			{"hours", e.Hours.Confidence},
			{"days", e.Days.Confidence},
		} {
			// Exactly 0 means "absent", which is handled by missing-field
			// warnings, not the gate. Only a present-but-weak signal blocks.
			if c.conf > 0 && c.conf < labourConfidenceFloor {
				return GateResult{
					Outcome: GateNeedsReview,
					Reasons: []string{fmt.Sprintf("labour entry %d has weak %s confidence (%.2f)", i, c.field, c.conf)},
				}
			}
		}
	}

	overall, repaired := SanitizeConfidence(rec.Quality.OverallConfidence)
	if repaired {
		logger.Warn("gate.confidence_repaired",
			"raw", rec.Quality.OverallConfidence, "used", overall)
	}
	if overall < overallConfidenceFloor {
		return GateResult{
			Outcome: GateNeedsReview,
			Reasons: []string{fmt.Sprintf("overall confidence %.2f below %.2f", overall, overallConfidenceFloor)},
		}
	}

	return GateResult{Outcome: GateProceed}
}

// criticalFieldsBelowThreshold is a reserved extension point: the critical
// field set is currently empty. Kept so the decision order above is stable
// when a deployment defines one.
func criticalFieldsBelowThreshold(_ *entity.ExtractionRecord) bool {
	return false
}
