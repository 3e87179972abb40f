package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expenses/internal/services"
)

func (s *Server) handleSummary(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	summary, err := s.summary.Get(c.Request.Context(), ownerID, services.SummaryQuery{
		From:      c.Query("from"),
		To:        c.Query("to"),
		AccountID: c.Query("accountId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

func (s *Server) handleSummaryPeriods(c *gin.Context) {
	if _, ok := owner(c); !ok {
		return
	}
	respond(c, http.StatusOK, s.summary.Periods())
}
