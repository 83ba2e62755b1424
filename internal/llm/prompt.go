package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTranscriptChars bounds the prompt; voice notes are short, anything past
// this is almost certainly a capture error.
const maxTranscriptChars = 12000

// BuildExtractionSystemPrompt composes the strict JSON-only extraction contract.
// Derived fields (prices, catalog ids, severities, confidences) are computed
// locally and explicitly forbidden here so the model cannot smuggle them in.
func BuildExtractionSystemPrompt(req ExtractRequest) string {
	parts := []string{
		"You are a quoting assistant for a trade-services business. Extract structured data from a voice-note transcript describing a job.",
		"Return ONLY a JSON object that matches the provided JSON Schema. No prose, no markdown fences.",
		"Permitted top-level keys: customer, job, time, materials, fees, assumptions. Do not add any other key.",
		"Never invent prices, catalog item ids, confidence scores, severity levels, or quality metadata; those are computed by the caller.",
		"Omit nothing you heard; if a value is not stated, use null rather than guessing.",
		"Express labour as labour_entries with hours and/or days and people when mentioned.",
		"Express each distinct task in job.scope_of_work as its own short string, in the order spoken.",
		"Record every guess you do make (e.g. interpreting 'a couple of hours' as 2) in assumptions with the field it affects.",
		"Use ISO-8601 dates (YYYY-MM-DD) for job_date.",
	}

	parts = append(parts, fmt.Sprintf(
		"Billing context for interpreting vague language only: hourly rate %d cents, materials markup %.1f%%, tax rate %.1f%%, currency %s.",
		req.Pricing.HourlyRateCents, req.Pricing.MarkupPercent, req.Pricing.TaxRate, req.Pricing.Currency,
	))
	if req.Pricing.Region != "" {
		parts = append(parts, "Region: "+req.Pricing.Region+".")
	}

	if req.CustomerBound {
		parts = append(parts,
			"A customer is already selected for this job. Set customer.name, customer.email and customer.phone to null and do not infer customer identity from the transcript.")
	}

	return strings.Join(parts, " ")
}

// BuildExtractionUserPrompt packages the transcript, truncated to the bound.
func BuildExtractionUserPrompt(req ExtractRequest) string {
	transcript := strings.TrimSpace(req.Transcript)
	var b strings.Builder
	b.WriteString("Transcript:\n")
	if len(transcript) > maxTranscriptChars {
		b.WriteString(cutAtRuneBoundary(transcript, maxTranscriptChars))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(transcript)
	}
	return b.String()
}

// cutAtRuneBoundary truncates s to at most n bytes without splitting a rune,
// so the provider never receives a dangling partial byte sequence.
func cutAtRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}

// BuildRepairSystemPrompt is the second, constrained call: same content,
// valid JSON. It must not re-extract or reinterpret anything.
func BuildRepairSystemPrompt() string {
	return strings.Join([]string{
		"You are a JSON repair tool.",
		"The user gives you a malformed JSON document. Reformat it into strictly valid JSON.",
		"Preserve every key and value exactly; do not add, remove, or reinterpret content.",
		"Replace NaN, Infinity and -Infinity with null. Remove trailing commas. Quote unquoted keys.",
		"Return ONLY the repaired JSON object.",
	}, " ")
}

// BuildRepairUserPrompt wraps the broken payload.
func BuildRepairUserPrompt(broken string) string {
	return "Malformed JSON:\n" + broken
}
