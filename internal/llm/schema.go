package llm

// BuildExtractionJSONSchema returns the extraction response contract as a
// JSON-Schema (draft 2020-12 subset) generic map. We pass it to the provider
// as a structured-output hint and also use it locally to validate.
func BuildExtractionJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableNumber := map[string]any{"type": []string{"number", "null"}}
	nullableInt := map[string]any{"type": []string{"integer", "null"}}
	nullableBool := map[string]any{"type": []string{"boolean", "null"}}

	labourEntry := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"hours":       nullableNumber,
			"days":        nullableNumber,
			"people":      nullableNumber,
			"note":        map[string]any{"type": "string"},
		},
		"required": []string{"description"},
	}

	materialItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    nullableNumber,
			"unit":        nullableString,
			"notes":       map[string]any{"type": "string"},
		},
		"required": []string{"description"},
	}

	assumption := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"field":      map[string]any{"type": "string"},
			"assumption": map[string]any{"type": "string"},
			"source":     map[string]any{"type": "string"},
		},
		"required": []string{"field", "assumption"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"customer": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":  nullableString,
					"email": nullableString,
					"phone": nullableString,
				},
			},
			"job": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"title":              nullableString,
					"summary":            nullableString,
					"site_address":       nullableString,
					"scope_of_work":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"estimated_days_min": nullableNumber,
					"estimated_days_max": nullableNumber,
					"job_date":           nullableString,
				},
			},
			"time": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"labour_entries": map[string]any{"type": "array", "items": labourEntry},
				},
			},
			"materials": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"items": map[string]any{"type": "array", "items": materialItem},
				},
			},
			"fees": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"travel": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"properties": map[string]any{
							"is_time":   nullableBool,
							"hours":     nullableNumber,
							"fee_cents": nullableInt,
						},
					},
					"materials_pickup": map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"properties": map[string]any{
							"enabled": nullableBool,
							"minutes": nullableInt,
						},
					},
					"callout_fee_cents": nullableInt,
				},
			},
			"assumptions": map[string]any{"type": "array", "items": assumption},
		},
	}
}
