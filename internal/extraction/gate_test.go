package extraction

import (
	"math"
	"testing"

	"github.com/quotevox/quotevox-backend/internal/entity"
)

func passingRecord() *entity.ExtractionRecord {
	rec := fullRecord()
	rec.Quality.OverallConfidence = 0.85
	return rec
}

func TestGateCorrectionsOverrideEverything(t *testing.T) {
	rec := passingRecord()
	rec.MissingFields = []entity.MissingField{
		{Field: "job", Severity: entity.SeverityRequired},
	}
	rec.Quality.OverallConfidence = 0.1

	got := EvaluateGate(rec, true, nil)
	if got.NeedsReview() {
		t.Fatalf("gate = %+v, want proceed: explicit corrections beat every signal", got)
	}
}

func TestGateRequiredMissingBlocks(t *testing.T) {
	rec := passingRecord()
	rec.MissingFields = []entity.MissingField{
		{Field: "job", Severity: entity.SeverityRequired},
	}

	got := EvaluateGate(rec, false, nil)
	if !got.NeedsReview() {
		t.Fatalf("gate = %+v, want needs review on required missing field", got)
	}
}

func TestGateWeakLabourConfidenceBlocks(t *testing.T) {
	rec := passingRecord()
	rec.Time.LabourEntries[0].Hours = entity.NewConfident(6.0, 0.4)

	got := EvaluateGate(rec, false, nil)
	if !got.NeedsReview() {
		t.Fatalf("gate = %+v, want needs review on labour confidence 0.4", got)
	}
}

func TestGateAbsentLabourConfidenceDoesNotBlock(t *testing.T) {
	// Confidence exactly 0 means "absent", which is a missing-field warning,
	// not a gate trigger.
	rec := passingRecord()
	rec.Time.LabourEntries[0].Hours = entity.Absent[float64]()
	rec.Time.LabourEntries[0].Days = entity.NewConfident(1.0, 0.85)

	got := EvaluateGate(rec, false, nil)
	if got.NeedsReview() {
		t.Fatalf("gate = %+v, want proceed: zero confidence is absence, not weakness", got)
	}
}

func TestGateLowOverallConfidenceBlocks(t *testing.T) {
	rec := passingRecord()
	rec.Quality.OverallConfidence = 0.65

	got := EvaluateGate(rec, false, nil)
	if !got.NeedsReview() {
		t.Fatalf("gate = %+v, want needs review below 0.7 overall", got)
	}
}

func TestGateRepairsMalformedConfidence(t *testing.T) {
	rec := passingRecord()
	rec.Quality.OverallConfidence = math.NaN()

	// NaN is repaired to 0.5, which is below the floor, so review — but never
	// a panic or error.
	got := EvaluateGate(rec, false, nil)
	if !got.NeedsReview() {
		t.Fatalf("gate = %+v, want needs review for repaired NaN confidence", got)
	}
}

func TestGateProceedsWhenAllSignalsPass(t *testing.T) {
	got := EvaluateGate(passingRecord(), false, nil)
	if got.Outcome != GateProceed {
		t.Fatalf("gate = %+v, want proceed", got)
	}
}
