package services

import (
	"context"
	"io"
	"strings"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
)

// ImportRequest is a statement already split into rows and cells.
type ImportRequest struct {
	AccountID  string             `json:"accountId"`
	CategoryID *string            `json:"categoryId"`
	Rows       [][]string         `json:"rows"`
	Mapping    core.ImportMapping `json:"mapping"`
}

// ImportService turns bank statements into transactions of one account.
type ImportService struct {
	ledger *LedgerService
	logger *log.Logger
}

func NewImportService(ledger *LedgerService, logger *log.Logger) *ImportService {
	return &ImportService{ledger: ledger, logger: logger.WithComponent(log.ComponentImport)}
}

// Import validates every row before inserting any. The whole batch is
// written in one transaction.
func (s *ImportService) Import(ctx context.Context, ownerID string, req ImportRequest) ([]core.Transaction, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, core.Invalid("accountId is required")
	}

	rows, err := core.NormalizeRows(req.Rows, req.Mapping)
	if err != nil {
		s.logger.InfoContext(ctx, "Rejected statement import",
			log.FieldOwnerID, ownerID,
			log.FieldAccountID, accountID,
			log.FieldError, err.Error())
		return nil, err
	}

	categoryID := trimmedOrNil(req.CategoryID)
	txs := make([]core.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = core.Transaction{
			Amount:     r.Amount,
			Payee:      r.Payee,
			Date:       r.Date,
			Notes:      r.Notes,
			AccountID:  accountID,
			CategoryID: categoryID,
		}
	}

	created, err := s.ledger.insertTransactions(ctx, ownerID, txs, amqp.ActionImported)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Imported statement",
		log.FieldOwnerID, ownerID,
		log.FieldAccountID, accountID,
		log.FieldCount, len(created))
	return created, nil
}

// ImportCSV reads an uploaded CSV body and imports it with mapping.
func (s *ImportService) ImportCSV(ctx context.Context, ownerID, accountID string, body io.Reader, mapping core.ImportMapping) ([]core.Transaction, error) {
	rows, err := core.ParseCSV(body)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, ownerID, ImportRequest{AccountID: accountID, Rows: rows, Mapping: mapping})
}
