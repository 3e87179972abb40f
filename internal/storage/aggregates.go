package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

// SumTransactions returns Σ amount of one account of the owner, restricted
// to transactions dated strictly after `after` when it is set.
func (s *Store) SumTransactions(ctx context.Context, ownerID, accountID string, after *core.Date) (int64, error) {
	w := NewWhere().
		And("account_id = ?", accountID).
		And(ownedAccounts, ownerID).
		AndIf(after != nil, "date > ?", dateArg(after))

	var sum int64
	err := s.db.QueryRowContext(ctx,
		"SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT) FROM transactions"+w.String(), w.Args()...).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

// periodWhere scopes transactions t (joined with accounts a) to the owner,
// the window p and optionally one account.
func periodWhere(ownerID string, p core.Period, accountID string) *Where {
	return NewWhere().
		And("a.owner_id = ?", ownerID).
		And("t.date >= ?", p.From.String()).
		And("t.date <= ?", p.To.String()).
		AndIf(accountID != "", "t.account_id = ?", accountID)
}

// PeriodTotals returns income, expenses and remaining for the window.
func (s *Store) PeriodTotals(ctx context.Context, ownerID string, p core.Period, accountID string) (core.PeriodTotals, error) {
	w := periodWhere(ownerID, p, accountID)

	var totals core.PeriodTotals
	err := s.db.QueryRowContext(ctx,
		"SELECT"+
			" CAST(COALESCE(SUM(CASE WHEN t.amount >= 0 THEN t.amount ELSE 0 END), 0) AS BIGINT),"+
			" CAST(COALESCE(SUM(CASE WHEN t.amount <= 0 THEN t.amount ELSE 0 END), 0) AS BIGINT),"+
			" CAST(COALESCE(SUM(t.amount), 0) AS BIGINT)"+
			" FROM transactions t JOIN accounts a ON a.id = t.account_id"+w.String(),
		w.Args()...).Scan(&totals.Income, &totals.Expenses, &totals.Remaining)
	if err != nil {
		return core.PeriodTotals{}, fmt.Errorf("period totals: %w", err)
	}
	return totals, nil
}

// TotalBalance sums, over the owner's accounts (or just accountID), the
// balance of each account's latest check dated on or before asOf. Accounts
// without such a check contribute nothing.
func (s *Store) TotalBalance(ctx context.Context, ownerID string, asOf core.Date, accountID string) (int64, error) {
	w := NewWhere().
		And("b.owner_id = ?", ownerID).
		And("b.date <= ?", asOf.String()).
		AndIf(accountID != "", "b.account_id = ?", accountID).
		And("b.id = (SELECT b2.id FROM account_balances b2"+
			" WHERE b2.account_id = b.account_id AND b2.owner_id = b.owner_id AND b2.date <= ?"+
			" ORDER BY b2.date DESC, b2.created_at DESC, b2.id DESC LIMIT 1)", asOf.String())

	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT CAST(COALESCE(SUM(b.balance), 0) AS BIGINT) FROM account_balances b"+w.String(),
		w.Args()...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total balance: %w", err)
	}
	return total, nil
}

// ExpenseCategories returns Σ|amount| of expenses per category name in the
// window, ordered by name. Uncategorized expenses are grouped under one label.
func (s *Store) ExpenseCategories(ctx context.Context, ownerID string, p core.Period, accountID string) ([]core.CategoryTotal, error) {
	w := periodWhere(ownerID, p, accountID).And("t.amount < 0")

	rows, err := s.db.QueryContext(ctx,
		"SELECT COALESCE(c.name, '"+core.UncategorizedName+"'), CAST(SUM(ABS(t.amount)) AS BIGINT)"+
			" FROM transactions t"+
			" JOIN accounts a ON a.id = t.account_id"+
			" LEFT JOIN categories c ON c.id = t.category_id"+
			w.String()+
			" GROUP BY 1 ORDER BY 1", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("expense categories: %w", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var c core.CategoryTotal
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, c)
	}
	return totals, rows.Err()
}

// DailyTotals returns absolute income and expenses per day that has
// transactions in the window.
func (s *Store) DailyTotals(ctx context.Context, ownerID string, p core.Period, accountID string) ([]core.DayTotals, error) {
	w := periodWhere(ownerID, p, accountID)

	rows, err := s.db.QueryContext(ctx,
		"SELECT t.date,"+
			" CAST(COALESCE(SUM(CASE WHEN t.amount >= 0 THEN t.amount ELSE 0 END), 0) AS BIGINT),"+
			" CAST(COALESCE(SUM(CASE WHEN t.amount < 0 THEN ABS(t.amount) ELSE 0 END), 0) AS BIGINT)"+
			" FROM transactions t JOIN accounts a ON a.id = t.account_id"+
			w.String()+
			" GROUP BY t.date ORDER BY t.date", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	days := []core.DayTotals{}
	for rows.Next() {
		var d core.DayTotals
		if err := rows.Scan(day{dst: &d.Date}, &d.Income, &d.Expenses); err != nil {
			return nil, fmt.Errorf("scan daily totals: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
