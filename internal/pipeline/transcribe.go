package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/repository"
	"github.com/quotevox/quotevox-backend/internal/storage"
	"github.com/quotevox/quotevox-backend/internal/stt"
)

// Transcript validation thresholds.
const (
	shortTranscriptChars  = 10
	shortTranscriptAudioS = 3.0
	thinTranscriptChars   = 30
	thinTranscriptAudioS  = 10.0
)

// TranscribeStage downloads the intake's audio, runs speech-to-text, validates
// the result and persists it. No state is changed on any failure, so the
// caller may retry the same intake.
type TranscribeStage struct {
	intakes     repository.IntakeRepository
	assets      storage.AssetStore
	transcriber stt.Transcriber
	logger      *slog.Logger
}

func NewTranscribeStage(intakes repository.IntakeRepository, assets storage.AssetStore, transcriber stt.Transcriber, logger *slog.Logger) *TranscribeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscribeStage{intakes: intakes, assets: assets, transcriber: transcriber, logger: logger}
}

// TranscribeResult is the stage's success payload.
type TranscribeResult struct {
	IntakeID        uuid.UUID `json:"intake_id"`
	TranscriptChars int       `json:"transcript_chars"`
	Language        string    `json:"language,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
}

func (s *TranscribeStage) Run(ctx context.Context, intakeID, userID uuid.UUID) (*TranscribeResult, error) {
	start := time.Now()

	intake, err := s.intakes.GetByID(ctx, intakeID, userID)
	if err != nil {
		return nil, err
	}
	if !intake.Status.CanTranscribe() {
		return nil, common.NewAppError(common.CodeInvalidState,
			fmt.Sprintf("intake is %q, transcription requires captured", intake.Status), nil)
	}

	audio, err := s.assets.Fetch(ctx, intake.AudioPath)
	if err != nil {
		return nil, err
	}

	tr, err := s.transcriber.Transcribe(ctx, audio, path.Base(intake.AudioPath))
	if err != nil {
		return nil, err
	}

	duration := tr.DurationSeconds
	if duration <= 0 {
		duration = intake.AudioDurationSeconds
	}

	// Thresholds count characters, not bytes, so non-ASCII transcripts are
	// judged by the same yardstick.
	chars := utf8.RuneCountInString(tr.Text)
	if chars == 0 {
		s.logger.Warn("transcribe.empty", "intake_id", intakeID, "audio_s", duration)
		return nil, common.NewAppError(common.CodeEmptyTranscript,
			"speech-to-text returned an empty transcript", nil)
	}
	if duration > shortTranscriptAudioS && chars < shortTranscriptChars {
		s.logger.Warn("transcribe.suspiciously_short",
			"intake_id", intakeID, "chars", chars, "audio_s", duration)
		return nil, common.NewAppError(common.CodeShortTranscript,
			fmt.Sprintf("transcript is %d chars for %.1fs of audio; likely capture failure", chars, duration), nil)
	}
	if duration > thinTranscriptAudioS && chars < thinTranscriptChars {
		// Thin but plausible; proceed and let extraction judge.
		s.logger.Warn("transcribe.thin_transcript",
			"intake_id", intakeID, "chars", chars, "audio_s", duration)
	}

	if err := s.intakes.SetTranscript(ctx, intakeID, tr.Text, tr.Language, duration); err != nil {
		return nil, err
	}

	s.logger.Info("transcribe.ok",
		"intake_id", intakeID,
		"chars", chars,
		"language", tr.Language,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &TranscribeResult{
		IntakeID:        intakeID,
		TranscriptChars: chars,
		Language:        tr.Language,
		DurationSeconds: duration,
	}, nil
}
