package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expenses/internal/core"
)

const balanceColumns = "id, date, account_id, balance, note, created_at, updated_at, owner_id"

// BalanceCheckFilter narrows ListBalanceChecks. Zero fields are ignored.
type BalanceCheckFilter struct {
	AccountID string
	Limit     int
}

func scanBalanceCheck(row rowScanner) (core.BalanceCheck, error) {
	var b core.BalanceCheck
	var note sql.NullString
	if err := row.Scan(&b.ID, day{dst: &b.Date}, &b.AccountID, &b.Balance, &note, &b.CreatedAt, &b.UpdatedAt, &b.OwnerID); err != nil {
		return core.BalanceCheck{}, err
	}
	b.Note = stringPtr(note)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

// ListBalanceChecks returns the owner's checks, most recent date first.
func (s *Store) ListBalanceChecks(ctx context.Context, ownerID string, f BalanceCheckFilter) ([]core.BalanceCheck, error) {
	w := NewWhere().
		And("owner_id = ?", ownerID).
		AndIf(f.AccountID != "", "account_id = ?", f.AccountID)
	query := "SELECT " + balanceColumns + " FROM account_balances" + w.String() + " ORDER BY date DESC, created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT " + w.Arg(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list balance checks: %w", err)
	}
	defer rows.Close()

	checks := []core.BalanceCheck{}
	for rows.Next() {
		b, err := scanBalanceCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance check: %w", err)
		}
		checks = append(checks, b)
	}
	return checks, rows.Err()
}

func (s *Store) GetBalanceCheck(ctx context.Context, ownerID, id string) (core.BalanceCheck, error) {
	b, err := scanBalanceCheck(s.db.QueryRowContext(ctx,
		"SELECT "+balanceColumns+" FROM account_balances WHERE owner_id = $1 AND id = $2", ownerID, id))
	if err != nil {
		return core.BalanceCheck{}, fmt.Errorf("get balance check: %w", notFound(err, "balance check", id))
	}
	return b, nil
}

// LatestBalanceCheck returns the most recent check of an account, limited to
// checks dated on or before asOf when asOf is set. It returns nil, nil when
// the account has no matching check.
func (s *Store) LatestBalanceCheck(ctx context.Context, ownerID, accountID string, asOf *core.Date) (*core.BalanceCheck, error) {
	w := NewWhere().
		And("owner_id = ?", ownerID).
		And("account_id = ?", accountID).
		AndIf(asOf != nil, "date <= ?", dateArg(asOf))
	b, err := scanBalanceCheck(s.db.QueryRowContext(ctx,
		"SELECT "+balanceColumns+" FROM account_balances"+w.String()+" ORDER BY date DESC, created_at DESC, id DESC LIMIT 1",
		w.Args()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest balance check: %w", err)
	}
	return &b, nil
}

// CreateBalanceCheck inserts b. The caller has checked that b.AccountID belongs to b.OwnerID.
func (s *Store) CreateBalanceCheck(ctx context.Context, b core.BalanceCheck) (core.BalanceCheck, error) {
	now := s.now()
	created, err := scanBalanceCheck(s.db.QueryRowContext(ctx,
		"INSERT INTO account_balances ("+balanceColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+balanceColumns,
		s.newID(), b.Date.String(), b.AccountID, b.Balance, nullString(b.Note), now, now, b.OwnerID))
	if err != nil {
		return core.BalanceCheck{}, fmt.Errorf("create balance check: %w", err)
	}
	s.logMutation(ctx, b.OwnerID, "balance_check", "create", 1)
	return created, nil
}

// UpdateBalanceCheck overwrites date, account, balance and note and bumps updated_at.
func (s *Store) UpdateBalanceCheck(ctx context.Context, b core.BalanceCheck) (core.BalanceCheck, error) {
	updated, err := scanBalanceCheck(s.db.QueryRowContext(ctx,
		"UPDATE account_balances SET date = $1, account_id = $2, balance = $3, note = $4, updated_at = $5"+
			" WHERE id = $6 AND owner_id = $7 RETURNING "+balanceColumns,
		b.Date.String(), b.AccountID, b.Balance, nullString(b.Note), s.now(), b.ID, b.OwnerID))
	if err != nil {
		return core.BalanceCheck{}, fmt.Errorf("update balance check: %w", notFound(err, "balance check", b.ID))
	}
	s.logMutation(ctx, b.OwnerID, "balance_check", "update", 1)
	return updated, nil
}

func (s *Store) DeleteBalanceCheck(ctx context.Context, ownerID, id string) (core.BalanceCheck, error) {
	deleted, err := scanBalanceCheck(s.db.QueryRowContext(ctx,
		"DELETE FROM account_balances WHERE id = $1 AND owner_id = $2 RETURNING "+balanceColumns, id, ownerID))
	if err != nil {
		return core.BalanceCheck{}, fmt.Errorf("delete balance check: %w", notFound(err, "balance check", id))
	}
	s.logMutation(ctx, ownerID, "balance_check", "delete", 1)
	return deleted, nil
}
