package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"expenses/internal/core"
	"expenses/internal/services"
)

// maxImportBytes caps uploaded statements.
const maxImportBytes = 5 << 20

func (s *Server) handleListTransactions(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	txs, err := s.ledger.ListTransactions(c.Request.Context(), ownerID, services.TransactionQuery{
		From:      c.Query("from"),
		To:        c.Query("to"),
		AccountID: c.Query("accountId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	tx, err := s.ledger.GetTransaction(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.TransactionInput
	if !bindJSON(c, &in) {
		return
	}
	tx, err := s.ledger.CreateTransaction(c.Request.Context(), ownerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, tx)
}

func (s *Server) handleBulkCreateTransactions(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in []services.TransactionInput
	if !bindJSON(c, &in) {
		return
	}
	txs, err := s.ledger.CreateTransactions(c.Request.Context(), ownerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, txs)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var in services.TransactionInput
	if !bindJSON(c, &in) {
		return
	}
	tx, err := s.ledger.UpdateTransaction(c.Request.Context(), ownerID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	tx, err := s.ledger.DeleteTransaction(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tx)
}

func (s *Server) handleBulkDeleteTransactions(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := s.ledger.DeleteTransactions(c.Request.Context(), ownerID, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"ids": ids})
}

// handleImportTransactions accepts either a JSON ImportRequest or a raw
// text/csv body whose mapping travels in the query string:
//
//	?accountId=...&hasHeader=true&dateFormat=dd/MM/yyyy&columns=0:date,1:payee,2:amount
func (s *Server) handleImportTransactions(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var (
		txs []core.Transaction
		err error
	)
	if c.ContentType() == "text/csv" {
		var mapping core.ImportMapping
		mapping, err = mappingFromQuery(c)
		if err == nil {
			txs, err = s.importer.ImportCSV(c.Request.Context(), ownerID, c.Query("accountId"), c.Request.Body, mapping)
		}
	} else {
		var req services.ImportRequest
		if !bindJSON(c, &req) {
			return
		}
		txs, err = s.importer.Import(c.Request.Context(), ownerID, req)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, txs)
}

func mappingFromQuery(c *gin.Context) (core.ImportMapping, error) {
	hasHeader, err := queryBool(c, "hasHeader")
	if err != nil {
		return core.ImportMapping{}, err
	}
	columns, err := parseColumns(c.Query("columns"))
	if err != nil {
		return core.ImportMapping{}, err
	}
	return core.ImportMapping{
		Columns:    columns,
		DateFormat: c.Query("dateFormat"),
		HasHeader:  hasHeader,
	}, nil
}

// parseColumns reads "index:role" pairs separated by commas.
func parseColumns(raw string) (map[int]core.ColumnRole, error) {
	columns := make(map[int]core.ColumnRole)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx, role, found := strings.Cut(pair, ":")
		if !found {
			return nil, core.Invalid("column mapping %q must look like index:role", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, core.Invalid("column index %q is not a number", idx)
		}
		columns[n] = core.ColumnRole(strings.ToLower(strings.TrimSpace(role)))
	}
	return columns, nil
}
