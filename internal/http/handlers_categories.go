package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expenses/internal/services"
)

func (s *Server) handleListCategories(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	categories, err := s.ledger.ListCategories(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	category, err := s.ledger.GetCategory(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := s.ledger.CreateCategory(c.Request.Context(), ownerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := s.ledger.UpdateCategory(c.Request.Context(), ownerID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

// handleDeleteCategory leaves the category's transactions uncategorized.
func (s *Server) handleDeleteCategory(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	category, err := s.ledger.DeleteCategory(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, category)
}

func (s *Server) handleBulkDeleteCategories(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := s.ledger.DeleteCategories(c.Request.Context(), ownerID, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"ids": ids})
}
