package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

const accountColumns = "id, name, type, owner_id"

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var typ string
	if err := row.Scan(&a.ID, &a.Name, &typ, &a.OwnerID); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	return a, nil
}

// ListAccounts returns the owner's accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	w := NewWhere().And("owner_id = ?", ownerID)
	rows, err := s.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts"+w.String()+" ORDER BY name, id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount returns one account of the owner.
func (s *Store) GetAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	w := NewWhere().And("owner_id = ?", ownerID).And("id = ?", id)
	a, err := scanAccount(s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts"+w.String(), w.Args()...))
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", notFound(err, "account", id))
	}
	return a, nil
}

// CreateAccount inserts a new account and returns it with its ID.
func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = s.newID()
	created, err := scanAccount(s.db.QueryRowContext(ctx,
		"INSERT INTO accounts (id, name, type, owner_id) VALUES ($1, $2, $3, $4) RETURNING "+accountColumns,
		a.ID, a.Name, string(a.Type), a.OwnerID))
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logMutation(ctx, a.OwnerID, "account", "create", 1)
	return created, nil
}

// UpdateAccount renames or retypes an account of the owner.
func (s *Store) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	updated, err := scanAccount(s.db.QueryRowContext(ctx,
		"UPDATE accounts SET name = $1, type = $2 WHERE id = $3 AND owner_id = $4 RETURNING "+accountColumns,
		a.Name, string(a.Type), a.ID, a.OwnerID))
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", notFound(err, "account", a.ID))
	}
	s.logMutation(ctx, a.OwnerID, "account", "update", 1)
	return updated, nil
}

// DeleteAccount removes an account; its transactions and balance checks
// go with it through ON DELETE CASCADE.
func (s *Store) DeleteAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	deleted, err := scanAccount(s.db.QueryRowContext(ctx,
		"DELETE FROM accounts WHERE id = $1 AND owner_id = $2 RETURNING "+accountColumns,
		id, ownerID))
	if err != nil {
		return core.Account{}, fmt.Errorf("delete account: %w", notFound(err, "account", id))
	}
	s.logMutation(ctx, ownerID, "account", "delete", 1)
	return deleted, nil
}

// DeleteAccounts removes every listed account of the owner in one statement
// and returns the IDs actually deleted. IDs of other owners are ignored.
func (s *Store) DeleteAccounts(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	w := NewWhere().And("owner_id = ?", ownerID).In("id", ids)
	deleted, err := s.deleteReturningIDs(ctx, "DELETE FROM accounts"+w.String()+" RETURNING id", w.Args())
	if err != nil {
		return nil, fmt.Errorf("bulk delete accounts: %w", err)
	}
	s.logMutation(ctx, ownerID, "account", "bulk_delete", len(deleted))
	return deleted, nil
}

// AccountTotals returns Σ amount of every transaction per account of the
// owner. Accounts without transactions are absent from the map.
func (s *Store) AccountTotals(ctx context.Context, ownerID string) (map[string]int64, error) {
	w := NewWhere().And("a.owner_id = ?", ownerID)
	rows, err := s.db.QueryContext(ctx,
		"SELECT t.account_id, CAST(COALESCE(SUM(t.amount), 0) AS BIGINT)"+
			" FROM transactions t JOIN accounts a ON a.id = t.account_id"+w.String()+
			" GROUP BY t.account_id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	defer rows.Close()

	totals := map[string]int64{}
	for rows.Next() {
		var id string
		var sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scan account total: %w", err)
		}
		totals[id] = sum
	}
	return totals, rows.Err()
}

func (s *Store) deleteReturningIDs(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
