package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/export"
	"github.com/quotevox/quotevox-backend/internal/pipeline"
	"github.com/quotevox/quotevox-backend/internal/ratelimit"
	"github.com/quotevox/quotevox-backend/internal/repository"
)

// Server is the HTTP surface: one route per pipeline stage plus reads.
type Server struct {
	cfg       common.ServerConfig
	processor *pipeline.Processor
	intakes   repository.IntakeRepository
	quotes    repository.QuoteStore
	exporter  *export.Service
	limiter   *ratelimit.Limiter
	pool      *pgxpool.Pool
	logger    *slog.Logger
	http      *http.Server
}

func New(
	cfg common.ServerConfig,
	processor *pipeline.Processor,
	intakes repository.IntakeRepository,
	quotes repository.QuoteStore,
	exporter *export.Service,
	limiter *ratelimit.Limiter,
	pool *pgxpool.Pool,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		processor: processor,
		intakes:   intakes,
		quotes:    quotes,
		exporter:  exporter,
		limiter:   limiter,
		pool:      pool,
		logger:    logger,
	}
	s.http = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLog(s.logger))

	r.GET("/healthz", s.handleHealthz)

	v1 := r.Group("/v1", Auth(s.cfg.JWTSecret, s.logger))
	{
		v1.POST("/intakes/:id/transcribe",
			RateLimit(s.limiter, "transcribe", s.logger), s.handleTranscribe)
		v1.POST("/intakes/:id/extract", s.handleExtract)
		v1.POST("/intakes/:id/quote", s.handleCreateQuote)
		v1.GET("/intakes/:id", s.handleGetIntake)

		v1.GET("/quotes/:id", s.handleGetQuote)
		v1.GET("/quotes/:id/export", s.handleExportQuote)
	}
	return r
}

func (s *Server) handleHealthz(c *gin.Context) {
	if err := repository.HealthCheck(c.Request.Context(), s.pool, 2*time.Second, s.logger); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "database unreachable"})
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
