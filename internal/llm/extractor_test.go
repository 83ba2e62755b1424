package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/quotevox/quotevox-backend/internal/common"
)

// scriptedCompleter returns canned responses in order, recording prompts.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedCompleter) CompleteJSON(_ context.Context, systemPrompt, _ string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, systemPrompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i >= len(s.responses) {
		return "", err
	}
	return s.responses[i], err
}

const validExtraction = `{
	"customer": {"name": "Dave", "email": null, "phone": null},
	"job": {"title": "Fence repair", "summary": null, "site_address": null,
	        "scope_of_work": ["replace palings"], "estimated_days_min": null,
	        "estimated_days_max": null, "job_date": null},
	"time": {"labour_entries": [{"description": "fence work", "hours": 6, "days": null, "people": null}]},
	"materials": {"items": []},
	"fees": {"travel": {"is_time": null, "hours": null, "fee_cents": null},
	         "materials_pickup": {"enabled": null, "minutes": null},
	         "callout_fee_cents": null},
	"assumptions": []
}`

func TestExtractRawHappyPath(t *testing.T) {
	c := &scriptedCompleter{responses: []string{validExtraction}}
	e := NewExtractor(c, nil)

	raw, _, err := e.ExtractRaw(context.Background(), ExtractRequest{Transcript: "fix the fence"})
	if err != nil {
		t.Fatalf("ExtractRaw: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no repair needed)", c.calls)
	}
	if len(raw.Time.LabourEntries) != 1 || *raw.Time.LabourEntries[0].Hours != 6 {
		t.Fatalf("labour entries = %+v", raw.Time.LabourEntries)
	}
}

func TestExtractRawRepairsOnce(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`this is not even close to json [`,
		validExtraction,
	}}
	e := NewExtractor(c, nil)

	raw, _, err := e.ExtractRaw(context.Background(), ExtractRequest{Transcript: "fix the fence"})
	if err != nil {
		t.Fatalf("ExtractRaw after repair: %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("calls = %d, want exactly 2 (extract + one repair)", c.calls)
	}
	if raw.Customer.Name == nil || *raw.Customer.Name != "Dave" {
		t.Fatalf("customer = %+v", raw.Customer)
	}
}

func TestExtractRawUnrepairable(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`still not json {{{`,
		`and neither is this ]]]`,
	}}
	e := NewExtractor(c, nil)

	_, _, err := e.ExtractRaw(context.Background(), ExtractRequest{Transcript: "fix the fence"})
	if err == nil {
		t.Fatal("want error after failed repair")
	}
	if common.ErrorCode(err) != common.CodeUnrepairableExtraction {
		t.Fatalf("code = %q, want %q", common.ErrorCode(err), common.CodeUnrepairableExtraction)
	}
	if c.calls != 2 {
		t.Fatalf("calls = %d, want exactly 2: never more than one repair", c.calls)
	}
}

func TestExtractRawProviderError(t *testing.T) {
	c := &scriptedCompleter{
		responses: []string{""},
		errs:      []error{errors.New("status 500")},
	}
	e := NewExtractor(c, nil)

	_, _, err := e.ExtractRaw(context.Background(), ExtractRequest{Transcript: "fix the fence"})
	if common.ErrorCode(err) != common.CodeProviderError {
		t.Fatalf("code = %q, want %q", common.ErrorCode(err), common.CodeProviderError)
	}
	if c.calls != 1 {
		t.Fatalf("calls = %d, want 1: transport failures are not repaired", c.calls)
	}
}

func TestExtractRawLenientCleanupAvoidsRepair(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"```json\n" + validExtraction + "\n```"}}
	e := NewExtractor(c, nil)

	_, _, err := e.ExtractRaw(context.Background(), ExtractRequest{Transcript: "fix the fence"})
	if err != nil {
		t.Fatalf("ExtractRaw: %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("calls = %d, want 1: local cleanup should handle fenced output", c.calls)
	}
}
