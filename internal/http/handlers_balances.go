package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expenses/internal/services"
)

func (s *Server) handleListBalanceChecks(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}
	checks, err := s.ledger.ListBalanceChecks(c.Request.Context(), ownerID, c.Query("accountId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, checks)
}

func (s *Server) handleGetBalanceCheck(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	check, err := s.ledger.GetBalanceCheck(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, check)
}

// handleLatestBalanceCheck answers {"data": null} for a never-checked account.
func (s *Server) handleLatestBalanceCheck(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	check, err := s.ledger.LatestBalanceCheck(c.Request.Context(), ownerID, c.Param("accountId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, check)
}

func (s *Server) handleExpectedBalance(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	rec, err := s.reconcile.ExpectedBalance(c.Request.Context(), ownerID, c.Param("accountId"), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rec)
}

func (s *Server) handleCreateBalanceCheck(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.BalanceCheckInput
	if !bindJSON(c, &in) {
		return
	}
	check, err := s.ledger.CreateBalanceCheck(c.Request.Context(), ownerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, check)
}

func (s *Server) handleUpdateBalanceCheck(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.BalanceCheckInput
	if !bindJSON(c, &in) {
		return
	}
	check, err := s.ledger.UpdateBalanceCheck(c.Request.Context(), ownerID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, check)
}

func (s *Server) handleDeleteBalanceCheck(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	check, err := s.ledger.DeleteBalanceCheck(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, check)
}
