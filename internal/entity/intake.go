package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/constants"
)

// VoiceIntake is one end-to-end attempt to turn a recording into a quote.
type VoiceIntake struct {
	ID                   uuid.UUID              `json:"id"`
	UserID               uuid.UUID              `json:"user_id"`
	CustomerID           *uuid.UUID             `json:"customer_id,omitempty"` // pre-selected by the user
	Status               constants.IntakeStatus `json:"status"`
	AudioPath            string                 `json:"audio_path"`
	AudioDurationSeconds float64                `json:"audio_duration_seconds"`
	TranscriptText       *string                `json:"transcript_text,omitempty"` // immutable once set
	TranscriptLanguage   *string                `json:"transcript_language,omitempty"`
	Extraction           *ExtractionRecord      `json:"extraction,omitempty"`
	UserCorrections      json.RawMessage        `json:"user_corrections,omitempty"` // last-applied override set
	MissingFields        []string               `json:"missing_fields"`             // denormalized from extraction
	Assumptions          []string               `json:"assumptions"`                // denormalized from extraction
	CreatedQuoteID       *uuid.UUID             `json:"created_quote_id,omitempty"` // idempotency anchor
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// HasTranscript reports whether a non-empty transcript is persisted.
func (v *VoiceIntake) HasTranscript() bool {
	return v.TranscriptText != nil && *v.TranscriptText != ""
}
