package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quotevox/quotevox-backend/internal/common"
	"github.com/quotevox/quotevox-backend/internal/pipeline"
)

func (s *Server) handleTranscribe(c *gin.Context) {
	intakeID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	res, err := s.processor.Transcribe.Run(c.Request.Context(), intakeID, userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"result": res})
}

// extractRequest is the extraction/correction request body. All fields are
// optional: an empty body is a plain re-extraction.
type extractRequest struct {
	Corrections          map[string]any `json:"corrections"`
	ConfirmedAssumptions []string       `json:"confirmed_assumptions"`
}

func (s *Server) handleExtract(c *gin.Context) {
	intakeID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	var req extractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.logger, common.NewAppError(common.CodeInvalidInput, "request body is not valid JSON", err))
			return
		}
	}

	res, err := s.processor.Extract.Run(c.Request.Context(), pipeline.ExtractInput{
		IntakeID:             intakeID,
		UserID:               userID,
		Corrections:          req.Corrections,
		ConfirmedAssumptions: req.ConfirmedAssumptions,
	})
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleCreateQuote(c *gin.Context) {
	intakeID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	res, err := s.processor.Materialize.Run(c.Request.Context(), intakeID, userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	status := http.StatusCreated
	if res.IdempotentReplay {
		status = http.StatusOK
	}
	respondOK(c, status, gin.H{"result": res})
}

func (s *Server) handleGetIntake(c *gin.Context) {
	intakeID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	intake, err := s.intakes.GetByID(c.Request.Context(), intakeID, userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"intake": intake})
}

// pathID parses the :id path segment, rejecting non-UUIDs up front.
func (s *Server) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, s.logger, common.NewAppError(common.CodeInvalidInput, "path id is not a valid uuid", err))
		return uuid.Nil, false
	}
	return id, true
}
