package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quotevox/quotevox-backend/internal/common"
)

// AssetStore fetches stored audio assets by path.
type AssetStore interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPAssetStore fetches assets from an object-storage HTTP endpoint
// (the managed platform's bucket API) with a bearer token.
type HTTPAssetStore struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewHTTPAssetStore(baseURL, token string, timeout time.Duration, logger *slog.Logger) *HTTPAssetStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAssetStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (s *HTTPAssetStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, common.NewAppError(common.CodeAssetUnavailable, "intake has no audio asset", nil)
	}

	url := s.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, common.NewAppError(common.CodeAssetUnavailable, "audio asset fetch failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.logger.Warn("asset response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.NewAppError(common.CodeAssetUnavailable, "audio asset not found: "+path, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, common.NewAppError(common.CodeAssetUnavailable,
			fmt.Sprintf("audio asset fetch status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewAppError(common.CodeAssetUnavailable, "read audio asset body", err)
	}
	if len(data) == 0 {
		return nil, common.NewAppError(common.CodeAssetUnavailable, "audio asset is empty: "+path, nil)
	}

	s.logger.Debug("storage.asset.fetched", "path", path, "bytes", len(data))
	return data, nil
}
