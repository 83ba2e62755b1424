package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/stt"
)

// Config for the whisper-style transcription client.
type Config struct {
	APIKey  string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL string        // default https://api.openai.com/v1
	Model   string        // e.g. "whisper-1"
	Timeout time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Transcribe implements stt.Transcriber against an OpenAI-compatible
// audio/transcriptions endpoint. verbose_json gives us language and duration
// alongside the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (stt.Transcription, error) {
	rid := uuid.New().String()
	start := time.Now()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return stt.Transcription{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return stt.Transcription{}, fmt.Errorf("write form file: %w", err)
	}
	_ = w.WriteField("model", c.cfg.Model)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return stt.Transcription{}, fmt.Errorf("close multipart writer: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return stt.Transcription{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.logger.Info("stt.transcribe.request",
		"req_id", rid, "audio_bytes", len(audio), "model", c.cfg.Model)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("stt.transcribe.http_error", "req_id", rid, "error", err)
		return stt.Transcription{}, common.NewAppError(common.CodeProviderError, "speech-to-text call failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("stt response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("stt.transcribe.bad_status",
			"req_id", rid, "status", resp.StatusCode, "body_bytes", len(raw))
		return stt.Transcription{}, common.NewAppError(common.CodeProviderError,
			fmt.Sprintf("speech-to-text status %d", resp.StatusCode), nil)
	}

	var out struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("stt.transcribe.decode_error", "req_id", rid, "error", err)
		return stt.Transcription{}, common.NewAppError(common.CodeProviderError, "decode transcription response", err)
	}

	c.logger.Info("stt.transcribe.ok",
		"req_id", rid,
		"text_len", len(out.Text),
		"language", out.Language,
		"duration_s", out.Duration,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stt.Transcription{
		Text:            strings.TrimSpace(out.Text),
		Language:        out.Language,
		DurationSeconds: out.Duration,
	}, nil
}
