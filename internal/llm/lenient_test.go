package llm

import (
	"encoding/json"
	"testing"
)

func TestCleanModelJSONFences(t *testing.T) {
	raw := "Sure, here is the JSON:\n```json\n{\"a\": 1}\n```\nLet me know if you need more."
	got := CleanModelJSON(raw)
	if string(got) != `{"a": 1}` {
		t.Fatalf("cleaned = %q", got)
	}
}

func TestCleanModelJSONSurroundingProse(t *testing.T) {
	raw := `The extraction is {"a": {"b": 2}} as requested.`
	got := CleanModelJSON(raw)
	if string(got) != `{"a": {"b": 2}}` {
		t.Fatalf("cleaned = %q", got)
	}
}

func TestCleanModelJSONNonFiniteNumbers(t *testing.T) {
	raw := `{"x": NaN, "y": Infinity, "z": -Infinity}`
	got := CleanModelJSON(raw)

	var out map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("cleaned output is not valid JSON: %v (%q)", err, got)
	}
	for k, v := range out {
		if v != nil {
			t.Fatalf("%s = %v, want null", k, v)
		}
	}
}

func TestCleanModelJSONTrailingCommas(t *testing.T) {
	raw := `{"items": [1, 2, 3,], "name": "x",}`
	got := CleanModelJSON(raw)

	var out map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("cleaned output is not valid JSON: %v (%q)", err, got)
	}
}

func TestCleanModelJSONLeavesValidInputAlone(t *testing.T) {
	raw := "{\"description\": \"weird transcript with } in it\"}"
	got := CleanModelJSON(raw)

	var out map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("valid JSON got corrupted: %v (%q)", err, got)
	}
}
