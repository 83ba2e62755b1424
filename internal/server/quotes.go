package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotevox/quotevox-backend/internal/common"
)

func (s *Server) handleGetQuote(c *gin.Context) {
	quoteID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	quote, items, err := s.quotes.GetQuoteWithItems(c.Request.Context(), quoteID, userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	var totalCents int64
	for _, li := range items {
		totalCents += li.LineTotalCents
	}
	respondOK(c, http.StatusOK, gin.H{
		"quote":       quote,
		"line_items":  items,
		"total_cents": totalCents,
	})
}

func (s *Server) handleExportQuote(c *gin.Context) {
	quoteID, ok := s.pathID(c, "id")
	if !ok {
		return
	}
	userID := common.UserIDFromContext(c.Request.Context())

	data, err := s.exporter.ExportQuoteXLSX(c.Request.Context(), quoteID, userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}

	filename := fmt.Sprintf("quote-%s.xlsx", quoteID)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
