package core

// BalancedTolerance is the gap, in milli-units, between the expected and the
// last checked balance at which an account stops counting as reconciled (0.01).
const BalancedTolerance int64 = 10

// Reconciliation is the expected balance of one account.
type Reconciliation struct {
	AccountID          string `json:"accountId"`
	ExpectedBalance    int64  `json:"expectedBalance"`
	LastCheckedBalance *int64 `json:"lastCheckedBalance"`
	LastCheckedDate    *Date  `json:"lastCheckedDate"`
	Balanced           bool   `json:"balanced"`
}

// Reconcile derives the expected balance of an account.
//
// latest is the most recent balance check or nil. delta is the sum of the
// account's transactions dated strictly after latest.Date, or of its whole
// history when latest is nil.
func Reconcile(accountID string, latest *BalanceCheck, delta int64) Reconciliation {
	r := Reconciliation{AccountID: accountID, ExpectedBalance: delta}
	if latest == nil {
		return r
	}
	balance := latest.Balance
	date := latest.Date
	r.ExpectedBalance = latest.Balance + delta
	r.LastCheckedBalance = &balance
	r.LastCheckedDate = &date
	r.Balanced = IsBalanced(r.ExpectedBalance, balance)
	return r
}

// IsBalanced reports whether expected is less than BalancedTolerance away from checked.
func IsBalanced(expected, checked int64) bool {
	diff := expected - checked
	if diff < 0 {
		diff = -diff
	}
	return diff < BalancedTolerance
}
