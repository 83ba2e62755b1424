package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/common"
)

// Extractor runs the extract → parse-or-repair protocol against a
// JSONCompleter. It owns no state transitions; callers decide what a failed
// extraction means for the intake.
type Extractor struct {
	completer JSONCompleter
	logger    *slog.Logger
}

func NewExtractor(completer JSONCompleter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: completer, logger: logger}
}

// ExtractRaw performs the extraction call and returns the parsed raw record
// plus the JSON bytes it was decoded from. On parse failure it issues exactly
// one constrained repair call; if that also fails to parse, the whole stage
// fails with UNREPAIRABLE_EXTRACTION and no state has changed.
func (e *Extractor) ExtractRaw(ctx context.Context, req ExtractRequest) (*RawExtraction, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	sys := BuildExtractionSystemPrompt(req)
	user := BuildExtractionUserPrompt(req)

	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"transcript_len", len(req.Transcript),
		"customer_bound", req.CustomerBound,
	)

	content, err := e.completer.CompleteJSON(ctx, sys, user)
	if err != nil {
		e.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, common.NewAppError(common.CodeProviderError, "text-generation call failed", err)
	}

	raw, parseErr := e.parse(content)
	if parseErr == nil {
		e.logSchemaDrift(rid, CleanModelJSON(content))
		e.logger.Info("llm.extract.ok",
			"req_id", rid,
			"labour_entries", len(raw.Time.LabourEntries),
			"material_items", len(raw.Materials.Items),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return raw, CleanModelJSON(content), nil
	}

	e.logger.Warn("llm.extract.parse_failed",
		"req_id", rid, "error", parseErr, "content_len", len(content))

	repaired, err := e.completer.CompleteJSON(ctx, BuildRepairSystemPrompt(), BuildRepairUserPrompt(content))
	if err != nil {
		e.logger.Error("llm.extract.repair_http_error", "req_id", rid, "error", err)
		return nil, nil, common.NewAppError(common.CodeProviderError, "repair call failed", err)
	}

	raw, parseErr = e.parse(repaired)
	if parseErr != nil {
		e.logger.Error("llm.extract.unrepairable",
			"req_id", rid, "error", parseErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, common.NewAppError(common.CodeUnrepairableExtraction,
			"model output is not valid JSON after repair", parseErr)
	}

	e.logger.Info("llm.extract.repaired_ok",
		"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return raw, CleanModelJSON(repaired), nil
}

func (e *Extractor) parse(content string) (*RawExtraction, error) {
	cleaned := CleanModelJSON(content)
	var raw RawExtraction
	if err := json.Unmarshal(cleaned, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// logSchemaDrift validates against the response contract. Unknown keys are
// dropped by struct decoding anyway, so drift is a diagnostic, not a failure.
func (e *Extractor) logSchemaDrift(rid string, data []byte) {
	if err := ValidateJSONAgainstSchema(BuildExtractionJSONSchema(), data); err != nil {
		e.logger.Warn("llm.extract.schema_drift", "req_id", rid, "error", err)
	}
}
