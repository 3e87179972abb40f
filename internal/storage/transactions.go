package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"expenses/internal/core"
)

const (
	transactionColumns = "id, amount, payee, date, notes, account_id, category_id"
	ownedAccounts      = "account_id IN (SELECT id FROM accounts WHERE owner_id = ?)"

	// rows per INSERT when bulk creating; keeps well under SQLite's
	// bound-variable limit
	insertChunk = 500
)

// TransactionFilter narrows ListTransactions. Zero fields are ignored.
type TransactionFilter struct {
	From      *core.Date
	To        *core.Date
	AccountID string
}

func scanTransaction(row rowScanner, extra ...any) (core.Transaction, error) {
	var t core.Transaction
	var notes, categoryID sql.NullString
	dest := append([]any{&t.ID, &t.Amount, &t.Payee, day{dst: &t.Date}, &notes, &t.AccountID, &categoryID}, extra...)
	if err := row.Scan(dest...); err != nil {
		return core.Transaction{}, err
	}
	t.Notes = stringPtr(notes)
	t.CategoryID = stringPtr(categoryID)
	return t, nil
}

// ListTransactions returns the owner's transactions joined with account and
// category names, newest first.
func (s *Store) ListTransactions(ctx context.Context, ownerID string, f TransactionFilter) ([]core.TransactionView, error) {
	w := NewWhere().
		And("a.owner_id = ?", ownerID).
		AndIf(f.From != nil, "t.date >= ?", dateArg(f.From)).
		AndIf(f.To != nil, "t.date <= ?", dateArg(f.To)).
		AndIf(f.AccountID != "", "t.account_id = ?", f.AccountID)

	rows, err := s.db.QueryContext(ctx,
		"SELECT t.id, t.amount, t.payee, t.date, t.notes, t.account_id, t.category_id, a.name, c.name"+
			" FROM transactions t"+
			" JOIN accounts a ON a.id = t.account_id"+
			" LEFT JOIN categories c ON c.id = t.category_id"+
			w.String()+
			" ORDER BY t.date DESC, t.id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	views := []core.TransactionView{}
	for rows.Next() {
		var v core.TransactionView
		var category sql.NullString
		t, err := scanTransaction(rows, &v.Account, &category)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		v.Transaction = t
		v.Category = stringPtr(category)
		views = append(views, v)
	}
	return views, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	w := NewWhere().And("id = ?", id).And(ownedAccounts, ownerID)
	t, err := scanTransaction(s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions"+w.String(), w.Args()...))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", notFound(err, "transaction", id))
	}
	return t, nil
}

// CreateTransaction inserts t. The caller has checked that t.AccountID and
// t.CategoryID belong to ownerID.
func (s *Store) CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error) {
	t.ID = s.newID()
	created, err := scanTransaction(s.db.QueryRowContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+transactionColumns,
		t.ID, t.Amount, t.Payee, t.Date.String(), nullString(t.Notes), t.AccountID, nullString(t.CategoryID)))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.logMutation(ctx, ownerID, "transaction", "create", 1)
	return created, nil
}

// CreateTransactions inserts every transaction or none.
func (s *Store) CreateTransactions(ctx context.Context, ownerID string, txs []core.Transaction) ([]core.Transaction, error) {
	if len(txs) == 0 {
		return []core.Transaction{}, nil
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer dbtx.Rollback()

	created := make([]core.Transaction, 0, len(txs))
	for start := 0; start < len(txs); start += insertChunk {
		end := min(start+insertChunk, len(txs))
		chunk, err := s.insertTransactions(ctx, dbtx, txs[start:end])
		if err != nil {
			return nil, fmt.Errorf("bulk insert transactions: %w", err)
		}
		created = append(created, chunk...)
	}

	if err := dbtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	s.logMutation(ctx, ownerID, "transaction", "bulk_create", len(created))
	return created, nil
}

func (s *Store) insertTransactions(ctx context.Context, dbtx *sql.Tx, txs []core.Transaction) ([]core.Transaction, error) {
	w := NewWhere()
	values := make([]string, len(txs))
	for i, t := range txs {
		values[i] = "(" + strings.Join([]string{
			w.Arg(s.newID()), w.Arg(t.Amount), w.Arg(t.Payee), w.Arg(t.Date.String()),
			w.Arg(nullString(t.Notes)), w.Arg(t.AccountID), w.Arg(nullString(t.CategoryID)),
		}, ", ") + ")"
	}

	rows, err := dbtx.QueryContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES "+strings.Join(values, ", ")+" RETURNING "+transactionColumns,
		w.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.Transaction, 0, len(txs))
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTransaction overwrites t when it belongs to one of the owner's accounts.
func (s *Store) UpdateTransaction(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error) {
	w := NewWhere()
	set := strings.Join([]string{
		"amount = " + w.Arg(t.Amount),
		"payee = " + w.Arg(t.Payee),
		"date = " + w.Arg(t.Date.String()),
		"notes = " + w.Arg(nullString(t.Notes)),
		"account_id = " + w.Arg(t.AccountID),
		"category_id = " + w.Arg(nullString(t.CategoryID)),
	}, ", ")
	w.And("id = ?", t.ID).And(ownedAccounts, ownerID)

	updated, err := scanTransaction(s.db.QueryRowContext(ctx,
		"UPDATE transactions SET "+set+w.String()+" RETURNING "+transactionColumns, w.Args()...))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", notFound(err, "transaction", t.ID))
	}
	s.logMutation(ctx, ownerID, "transaction", "update", 1)
	return updated, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	w := NewWhere().And("id = ?", id).And(ownedAccounts, ownerID)
	deleted, err := scanTransaction(s.db.QueryRowContext(ctx,
		"DELETE FROM transactions"+w.String()+" RETURNING "+transactionColumns, w.Args()...))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", notFound(err, "transaction", id))
	}
	s.logMutation(ctx, ownerID, "transaction", "delete", 1)
	return deleted, nil
}

// DeleteTransactions removes the listed transactions of the owner in one statement.
func (s *Store) DeleteTransactions(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	w := NewWhere().In("id", ids).And(ownedAccounts, ownerID)
	deleted, err := s.deleteReturningIDs(ctx, "DELETE FROM transactions"+w.String()+" RETURNING id", w.Args())
	if err != nil {
		return nil, fmt.Errorf("bulk delete transactions: %w", err)
	}
	s.logMutation(ctx, ownerID, "transaction", "bulk_delete", len(deleted))
	return deleted, nil
}

func dateArg(d *core.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
