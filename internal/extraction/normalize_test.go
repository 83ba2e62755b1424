package extraction

import (
	"testing"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/entity"
	"github.com/quotevox/quotevox-backend/internal/llm"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeWrapsPresentFieldsAtDefaultConfidence(t *testing.T) {
	raw := &llm.RawExtraction{
		Customer: llm.RawCustomer{Name: strPtr("Dave Smith")},
		Job:      llm.RawJob{Title: strPtr("Fence repair"), ScopeOfWork: []string{"replace palings", "  "}},
		Time: llm.RawTime{LabourEntries: []llm.RawLabourEntry{
			{Description: "fence work", Hours: floatPtr(6)},
		}},
	}

	rec := Normalize(raw, nil)

	if !rec.Customer.Name.Present() || rec.Customer.Name.Confidence != DefaultFieldConfidence {
		t.Fatalf("customer name = %+v, want present at %v", rec.Customer.Name, DefaultFieldConfidence)
	}
	if rec.Customer.Source != SourceTranscript {
		t.Fatalf("customer source = %q, want %q", rec.Customer.Source, SourceTranscript)
	}
	if rec.Customer.Email.Present() || rec.Customer.Email.Confidence != 0 {
		t.Fatalf("absent email should be {nil, 0}, got %+v", rec.Customer.Email)
	}
	if got := rec.Time.LabourEntries[0].Hours; !got.Present() || got.ValueOr(0) != 6 {
		t.Fatalf("labour hours = %+v, want 6", got)
	}
	if len(rec.Job.ScopeOfWork) != 1 {
		t.Fatalf("scope of work = %v, want blank entries dropped", rec.Job.ScopeOfWork)
	}
}

func TestNormalizeBoundCustomerOverridesModel(t *testing.T) {
	raw := &llm.RawExtraction{
		Customer: llm.RawCustomer{Name: strPtr("wrong guess"), Email: strPtr("wrong@example.com")},
	}
	bound := &entity.Customer{
		ID:    uuid.New(),
		Name:  "Actual Customer",
		Email: "actual@example.com",
	}

	rec := Normalize(raw, bound)

	if rec.Customer.Source != SourceUserSelection {
		t.Fatalf("source = %q, want %q", rec.Customer.Source, SourceUserSelection)
	}
	if got := rec.Customer.Name; got.ValueOr("") != "Actual Customer" || got.Confidence != 1.0 {
		t.Fatalf("bound name = %+v, want Actual Customer at 1.0", got)
	}
	if got := rec.Customer.Email; got.ValueOr("") != "actual@example.com" || got.Confidence != 1.0 {
		t.Fatalf("bound email = %+v, want actual@example.com at 1.0", got)
	}
}

func TestNormalizeMaterialsDefaultNeedsPricing(t *testing.T) {
	raw := &llm.RawExtraction{
		Materials: llm.RawMaterials{Items: []llm.RawMaterialItem{
			{Description: "treated pine palings", Quantity: floatPtr(40)},
			{Description: "   "},
		}},
	}

	rec := Normalize(raw, nil)

	if len(rec.Materials.Items) != 1 {
		t.Fatalf("materials = %d items, want descriptionless item dropped", len(rec.Materials.Items))
	}
	if !rec.Materials.Items[0].NeedsPricing {
		t.Fatal("material should start needs_pricing until the catalog or the user prices it")
	}
}

func TestNormalizeSkipsEmptyLabourEntries(t *testing.T) {
	raw := &llm.RawExtraction{
		Time: llm.RawTime{LabourEntries: []llm.RawLabourEntry{
			{Description: ""},
			{Description: "", Days: floatPtr(2)},
		}},
	}

	rec := Normalize(raw, nil)

	if len(rec.Time.LabourEntries) != 1 {
		t.Fatalf("labour entries = %d, want only the one with data", len(rec.Time.LabourEntries))
	}
	if rec.Time.LabourEntries[0].Days.ValueOr(0) != 2 {
		t.Fatalf("kept entry = %+v, want days=2", rec.Time.LabourEntries[0])
	}
}
