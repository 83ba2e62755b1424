package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotevox/quotevox-backend/constants"
	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/entity"
)

// IntakeRepository reads and advances voice_intakes rows.
type IntakeRepository interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*entity.VoiceIntake, error)
	SetTranscript(ctx context.Context, id uuid.UUID, text, language string, durationSeconds float64) error
	SaveExtraction(ctx context.Context, id uuid.UUID, rec *entity.ExtractionRecord, corrections json.RawMessage, status constants.IntakeStatus) error
}

type intakeRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewIntakeRepository(pool *pgxpool.Pool, log *slog.Logger) IntakeRepository {
	if log == nil {
		log = slog.Default()
	}
	return &intakeRepo{pool: pool, log: log}
}

const intakeColumns = `
	id, user_id, customer_id, status, audio_path, audio_duration_seconds,
	transcript_text, transcript_language, extraction_json, user_corrections_json,
	missing_fields, assumptions, created_quote_id, created_at, updated_at`

func (r *intakeRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*entity.VoiceIntake, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+intakeColumns+` FROM voice_intakes WHERE id = $1 AND user_id = $2`,
		id, userID)
	intake, err := scanIntake(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError(common.CodeNotFound, "intake not found", common.ErrNotFound)
		}
		r.log.Error("intake get failed", "intake_id", id, "error", err)
		return nil, err
	}
	return intake, nil
}

func (r *intakeRepo) SetTranscript(ctx context.Context, id uuid.UUID, text, language string, durationSeconds float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE voice_intakes
		 SET transcript_text = $2, transcript_language = $3, audio_duration_seconds = $4,
		     status = $5, updated_at = now()
		 WHERE id = $1 AND transcript_text IS NULL`,
		id, text, language, durationSeconds, string(constants.IntakeStatusTranscribed))
	if err != nil {
		r.log.Error("intake transcript persist failed", "intake_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		// transcript_text is immutable once set
		return common.NewAppError(common.CodeInvalidState, "transcript already persisted", nil)
	}
	r.log.Info("intake transcribed", "intake_id", id, "transcript_len", len(text))
	return nil
}

func (r *intakeRepo) SaveExtraction(ctx context.Context, id uuid.UUID, rec *entity.ExtractionRecord, corrections json.RawMessage, status constants.IntakeStatus) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal extraction: %w", err)
	}

	missing := make([]string, 0, len(rec.MissingFields))
	for _, mf := range rec.MissingFields {
		missing = append(missing, mf.Field)
	}
	assumptions := make([]string, 0, len(rec.Assumptions))
	for _, a := range rec.Assumptions {
		assumptions = append(assumptions, a.Field)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE voice_intakes
		 SET extraction_json = $2, user_corrections_json = $3,
		     missing_fields = $4, assumptions = $5, status = $6, updated_at = now()
		 WHERE id = $1`,
		id, recJSON, corrections, missing, assumptions, string(status))
	if err != nil {
		r.log.Error("intake extraction persist failed", "intake_id", id, "error", err)
		return err
	}
	r.log.Info("intake extraction saved", "intake_id", id, "status", status,
		"missing_fields", len(missing))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntake(row rowScanner) (*entity.VoiceIntake, error) {
	var (
		intake         entity.VoiceIntake
		status         string
		extractionJSON []byte
		corrections    []byte
	)
	err := row.Scan(
		&intake.ID, &intake.UserID, &intake.CustomerID, &status,
		&intake.AudioPath, &intake.AudioDurationSeconds,
		&intake.TranscriptText, &intake.TranscriptLanguage,
		&extractionJSON, &corrections,
		&intake.MissingFields, &intake.Assumptions,
		&intake.CreatedQuoteID, &intake.CreatedAt, &intake.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	intake.Status = constants.IntakeStatus(status)
	if len(extractionJSON) > 0 {
		var rec entity.ExtractionRecord
		if err := json.Unmarshal(extractionJSON, &rec); err != nil {
			return nil, fmt.Errorf("decode extraction_json: %w", err)
		}
		intake.Extraction = &rec
	}
	if len(corrections) > 0 {
		intake.UserCorrections = json.RawMessage(corrections)
	}
	return &intake, nil
}
