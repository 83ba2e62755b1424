package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Processor bundles the three pipeline stages behind one facade. Each stage is
// independently invokable; nothing here retries or chains stages on its own.
type Processor struct {
	Transcribe  *TranscribeStage
	Extract     *ExtractStage
	Materialize *MaterializeStage
	logger      *slog.Logger
}

func NewProcessor(transcribe *TranscribeStage, extract *ExtractStage, materialize *MaterializeStage, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Transcribe:  transcribe,
		Extract:     extract,
		Materialize: materialize,
		logger:      logger,
	}
}

// RunAllResult reports how far a full run got.
type RunAllResult struct {
	Extract         *ExtractResult     `json:"extract"`
	Materialize     *MaterializeResult `json:"materialize,omitempty"`
	PausedForReview bool               `json:"paused_for_review"`
}

// RunAll drives an intake from captured to quote in one call, pausing when the
// gate demands review. Stage failures stop the chain; whatever the last stage
// persisted stands and the client can resume from there.
func (p *Processor) RunAll(ctx context.Context, intakeID, userID uuid.UUID) (*RunAllResult, error) {
	if _, err := p.Transcribe.Run(ctx, intakeID, userID); err != nil {
		return nil, err
	}
	ext, err := p.Extract.Run(ctx, ExtractInput{IntakeID: intakeID, UserID: userID})
	if err != nil {
		return nil, err
	}
	if ext.NeedsReview {
		p.logger.Info("processor.paused_for_review", "intake_id", intakeID, "reasons", ext.GateReasons)
		return &RunAllResult{Extract: ext, PausedForReview: true}, nil
	}
	mat, err := p.Materialize.Run(ctx, intakeID, userID)
	if err != nil {
		return nil, err
	}
	return &RunAllResult{Extract: ext, Materialize: mat}, nil
}
