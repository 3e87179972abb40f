package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expenses/internal/services"
)

// handleListAccounts returns every account enriched with its balances.
func (s *Server) handleListAccounts(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	overviews, err := s.reconcile.AccountOverviews(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, overviews)
}

func (s *Server) handleGetAccount(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	account, err := s.ledger.GetAccount(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (s *Server) handleCreateAccount(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	account, err := s.ledger.CreateAccount(c.Request.Context(), ownerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, account)
}

func (s *Server) handleUpdateAccount(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	account, err := s.ledger.UpdateAccount(c.Request.Context(), ownerID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	account, err := s.ledger.DeleteAccount(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (s *Server) handleBulkDeleteAccounts(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := s.ledger.DeleteAccounts(c.Request.Context(), ownerID, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"ids": ids})
}
