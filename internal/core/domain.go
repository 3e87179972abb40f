package core

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// Name and text limits.
const (
	MaxNameLength  = 200
	MaxNotesLength = 1000
)

const (
	AccountBank          AccountType = "bank"
	AccountCash          AccountType = "cash"
	AccountCrypto        AccountType = "crypto"
	AccountCreditCard    AccountType = "credit_card"
	AccountDebitCard     AccountType = "debit_card"
	AccountInvestment    AccountType = "investment"
	AccountSavings       AccountType = "savings"
	AccountDigitalWallet AccountType = "digital_wallet"
	AccountLoan          AccountType = "loan"
	AccountOther         AccountType = "other"
)

// AccountTypes lists every accepted account type in display order.
var AccountTypes = []AccountType{
	AccountBank, AccountCash, AccountCrypto, AccountCreditCard, AccountDebitCard,
	AccountInvestment, AccountSavings, AccountDigitalWallet, AccountLoan, AccountOther,
}

type (
	AccountType string

	// Date is a calendar day, always held at UTC midnight.
	Date struct {
		time.Time
	}

	Account struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Type    AccountType `json:"type"`
		OwnerID string      `json:"-"`
	}

	// AccountOverview is an account enriched with its reconciliation state.
	AccountOverview struct {
		Account
		Balance            int64  `json:"balance"`
		LastCheckedBalance *int64 `json:"lastCheckedBalance"`
		LastCheckedDate    *Date  `json:"lastCheckedDate"`
		ExpectedBalance    int64  `json:"expectedBalance"`
		Balanced           bool   `json:"balanced"`
	}

	Category struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		OwnerID string `json:"-"`
	}

	Transaction struct {
		ID         string  `json:"id"`
		Amount     int64   `json:"amount"` // milli-units, negative for expenses
		Payee      string  `json:"payee"`
		Date       Date    `json:"date"`
		Notes      *string `json:"notes"`
		AccountID  string  `json:"accountId"`
		CategoryID *string `json:"categoryId"`
	}

	// TransactionView is a transaction joined with its account and category names.
	TransactionView struct {
		Transaction
		Account  string  `json:"account"`
		Category *string `json:"category"`
	}

	BalanceCheck struct {
		ID        string    `json:"id"`
		Date      Date      `json:"date"`
		AccountID string    `json:"accountId"`
		Balance   int64     `json:"balance"` // milli-units
		Note      *string   `json:"note"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
		OwnerID   string    `json:"-"`
	}
)

// ParseAccountType returns the account type for s. Empty means bank.
func ParseAccountType(s string) (AccountType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AccountBank, nil
	}
	for _, t := range AccountTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", Invalid("unknown account type %q", s)
}

// Valid reports whether t is one of AccountTypes.
func (t AccountType) Valid() bool {
	_, err := ParseAccountType(string(t))
	return err == nil && t != ""
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts yyyy-MM-dd or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, Invalid("invalid date %q, expected yyyy-MM-dd", s)
}

// AddDays returns the day n days after d (before, when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int((other.Unix() - d.Unix()) / secondsPerDay)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Invalid("date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (a Account) Validate() error {
	if err := validateName("account name", a.Name); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return Invalid("unknown account type %q", a.Type)
	}
	return nil
}

func (c Category) Validate() error {
	return validateName("category name", c.Name)
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return Invalid("transaction date is required")
	}
	if err := validateName("payee", t.Payee); err != nil {
		return err
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return Invalid("accountId is required")
	}
	if t.Notes != nil && len(*t.Notes) > MaxNotesLength {
		return Invalid("notes too long (max %d characters)", MaxNotesLength)
	}
	return nil
}

func (b BalanceCheck) Validate() error {
	if b.Date.IsZero() {
		return Invalid("balance check date is required")
	}
	if strings.TrimSpace(b.AccountID) == "" {
		return Invalid("accountId is required")
	}
	if b.Note != nil && len(*b.Note) > MaxNotesLength {
		return Invalid("note too long (max %d characters)", MaxNotesLength)
	}
	return nil
}

func validateName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Invalid("%s cannot be empty", field)
	}
	if len(v) > MaxNameLength {
		return Invalid("%s too long (max %d characters)", field, MaxNameLength)
	}
	return nil
}
