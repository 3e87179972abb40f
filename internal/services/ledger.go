package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// DefaultTransactionWindow is how far back ListTransactions looks when no
// start date is given.
const DefaultTransactionWindow = 30

// AccountInput creates or updates an account. An empty Type means bank on
// create and "unchanged" on update.
type AccountInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

// TransactionInput carries a full transaction. Amount is in milli-units.
type TransactionInput struct {
	Amount     int64   `json:"amount"`
	Payee      string  `json:"payee"`
	Date       string  `json:"date"`
	Notes      *string `json:"notes"`
	AccountID  string  `json:"accountId"`
	CategoryID *string `json:"categoryId"`
}

// BalanceCheckInput records the balance an owner observed on a day.
type BalanceCheckInput struct {
	Date      string  `json:"date"`
	AccountID string  `json:"accountId"`
	Balance   int64   `json:"balance"`
	Note      *string `json:"note"`
}

// TransactionQuery filters ListTransactions. Dates are yyyy-MM-dd.
type TransactionQuery struct {
	From      string
	To        string
	AccountID string
}

// LedgerService owns every owner-scoped mutation of the ledger.
type LedgerService struct {
	store    *storage.Store
	notifier *changeNotifier
	logger   *log.Logger
	now      func() time.Time
}

func NewLedgerService(store *storage.Store, events EventPublisher, summaries cache.Store, logger *log.Logger) *LedgerService {
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:    store,
		notifier: newChangeNotifier(events, summaries, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Accounts

func (s *LedgerService) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, ownerID)
}

func (s *LedgerService) GetAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, ownerID, id)
}

func (s *LedgerService) CreateAccount(ctx context.Context, ownerID string, in AccountInput) (core.Account, error) {
	typ, err := core.ParseAccountType(in.Type)
	if err != nil {
		return core.Account{}, err
	}
	a := core.Account{Name: strings.TrimSpace(in.Name), Type: typ, OwnerID: ownerID}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityAccount, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, ownerID, id string, in AccountInput) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, err
	}
	a.Name = strings.TrimSpace(in.Name)
	if in.Type != "" {
		if a.Type, err = core.ParseAccountType(in.Type); err != nil {
			return core.Account{}, err
		}
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	updated, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityAccount, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, ownerID, id string) (core.Account, error) {
	deleted, err := s.store.DeleteAccount(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityAccount, amqp.ActionDeleted, id)
	return deleted, nil
}

// DeleteAccounts removes the listed accounts. Conflict when none matched.
func (s *LedgerService) DeleteAccounts(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	return s.bulkDelete(ctx, ownerID, amqp.EntityAccount, "accounts", ids, s.store.DeleteAccounts)
}

// Categories

func (s *LedgerService) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

func (s *LedgerService) GetCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, ownerID, id)
}

func (s *LedgerService) CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(in.Name), OwnerID: ownerID}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityCategory, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, ownerID, id string, in CategoryInput) (core.Category, error) {
	c := core.Category{ID: id, Name: strings.TrimSpace(in.Name), OwnerID: ownerID}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityCategory, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	deleted, err := s.store.DeleteCategory(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityCategory, amqp.ActionDeleted, id)
	return deleted, nil
}

func (s *LedgerService) DeleteCategories(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	return s.bulkDelete(ctx, ownerID, amqp.EntityCategory, "categories", ids, s.store.DeleteCategories)
}

// Transactions

// ListTransactions defaults to the DefaultTransactionWindow days ending today.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID string, q TransactionQuery) ([]core.TransactionView, error) {
	to := core.DateOf(s.now())
	if q.To != "" {
		d, err := core.ParseDate(q.To)
		if err != nil {
			return nil, err
		}
		to = d
	}
	from := to.AddDays(-DefaultTransactionWindow)
	if q.From != "" {
		d, err := core.ParseDate(q.From)
		if err != nil {
			return nil, err
		}
		from = d
	}
	if from.After(to.Time) {
		return nil, core.Invalid("from %s is after to %s", from, to)
	}

	if q.AccountID != "" {
		if _, err := s.store.GetAccount(ctx, ownerID, q.AccountID); err != nil {
			return nil, err
		}
	}

	return s.store.ListTransactions(ctx, ownerID, storage.TransactionFilter{
		From:      &from,
		To:        &to,
		AccountID: q.AccountID,
	})
}

func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, ownerID string, in TransactionInput) (core.Transaction, error) {
	t, err := s.buildTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, ownerID, []core.Transaction{t}); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, ownerID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityTransaction, amqp.ActionCreated, created.ID)
	return created, nil
}

// CreateTransactions inserts every input or none. Errors name the failing
// item by its 1-based position.
func (s *LedgerService) CreateTransactions(ctx context.Context, ownerID string, in []TransactionInput) ([]core.Transaction, error) {
	if len(in) == 0 {
		return nil, core.Invalid("no transactions given")
	}
	txs := make([]core.Transaction, len(in))
	for i, item := range in {
		t, err := s.buildTransaction(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		txs[i] = t
	}
	return s.insertTransactions(ctx, ownerID, txs, amqp.ActionCreated)
}

func (s *LedgerService) insertTransactions(ctx context.Context, ownerID string, txs []core.Transaction, action string) ([]core.Transaction, error) {
	if err := s.checkReferences(ctx, ownerID, txs); err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransactions(ctx, ownerID, txs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(created))
	for i, t := range created {
		ids[i] = t.ID
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityTransaction, action, ids...)
	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, id string, in TransactionInput) (core.Transaction, error) {
	if _, err := s.store.GetTransaction(ctx, ownerID, id); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.buildTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id
	if err := s.checkReferences(ctx, ownerID, []core.Transaction{t}); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, ownerID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityTransaction, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	deleted, err := s.store.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return deleted, nil
}

func (s *LedgerService) DeleteTransactions(ctx context.Context, ownerID string, ids []string) ([]string, error) {
	return s.bulkDelete(ctx, ownerID, amqp.EntityTransaction, "transactions", ids, s.store.DeleteTransactions)
}

func (s *LedgerService) buildTransaction(in TransactionInput) (core.Transaction, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Amount:     in.Amount,
		Payee:      strings.TrimSpace(in.Payee),
		Date:       date,
		Notes:      trimmedOrNil(in.Notes),
		AccountID:  strings.TrimSpace(in.AccountID),
		CategoryID: trimmedOrNil(in.CategoryID),
	}
	return t, t.Validate()
}

// checkReferences verifies that every account and category named by txs
// belongs to the owner.
func (s *LedgerService) checkReferences(ctx context.Context, ownerID string, txs []core.Transaction) error {
	accounts := map[string]bool{}
	categories := map[string]bool{}
	for _, t := range txs {
		accounts[t.AccountID] = true
		if t.CategoryID != nil {
			categories[*t.CategoryID] = true
		}
	}

	for id := range accounts {
		if _, err := s.store.GetAccount(ctx, ownerID, id); err != nil {
			return err
		}
	}
	for id := range categories {
		if _, err := s.store.GetCategory(ctx, ownerID, id); err != nil {
			return err
		}
	}
	return nil
}

// Balance checks

func (s *LedgerService) ListBalanceChecks(ctx context.Context, ownerID, accountID string, limit int) ([]core.BalanceCheck, error) {
	if limit < 0 {
		return nil, core.Invalid("limit must not be negative")
	}
	return s.store.ListBalanceChecks(ctx, ownerID, storage.BalanceCheckFilter{AccountID: accountID, Limit: limit})
}

func (s *LedgerService) GetBalanceCheck(ctx context.Context, ownerID, id string) (core.BalanceCheck, error) {
	return s.store.GetBalanceCheck(ctx, ownerID, id)
}

// LatestBalanceCheck returns nil when the account has never been checked.
func (s *LedgerService) LatestBalanceCheck(ctx context.Context, ownerID, accountID string) (*core.BalanceCheck, error) {
	if _, err := s.store.GetAccount(ctx, ownerID, accountID); err != nil {
		return nil, err
	}
	return s.store.LatestBalanceCheck(ctx, ownerID, accountID, nil)
}

func (s *LedgerService) CreateBalanceCheck(ctx context.Context, ownerID string, in BalanceCheckInput) (core.BalanceCheck, error) {
	b, err := s.buildBalanceCheck(ctx, ownerID, in)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	created, err := s.store.CreateBalanceCheck(ctx, b)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityBalanceCheck, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) UpdateBalanceCheck(ctx context.Context, ownerID, id string, in BalanceCheckInput) (core.BalanceCheck, error) {
	if _, err := s.store.GetBalanceCheck(ctx, ownerID, id); err != nil {
		return core.BalanceCheck{}, err
	}
	b, err := s.buildBalanceCheck(ctx, ownerID, in)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	b.ID = id

	updated, err := s.store.UpdateBalanceCheck(ctx, b)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityBalanceCheck, amqp.ActionUpdated, id)
	return updated, nil
}

func (s *LedgerService) DeleteBalanceCheck(ctx context.Context, ownerID, id string) (core.BalanceCheck, error) {
	deleted, err := s.store.DeleteBalanceCheck(ctx, ownerID, id)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	s.notifier.changed(ctx, ownerID, amqp.EntityBalanceCheck, amqp.ActionDeleted, id)
	return deleted, nil
}

func (s *LedgerService) buildBalanceCheck(ctx context.Context, ownerID string, in BalanceCheckInput) (core.BalanceCheck, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.BalanceCheck{}, err
	}
	b := core.BalanceCheck{
		Date:      date,
		AccountID: strings.TrimSpace(in.AccountID),
		Balance:   in.Balance,
		Note:      trimmedOrNil(in.Note),
		OwnerID:   ownerID,
	}
	if err := b.Validate(); err != nil {
		return core.BalanceCheck{}, err
	}
	if _, err := s.store.GetAccount(ctx, ownerID, b.AccountID); err != nil {
		return core.BalanceCheck{}, err
	}
	return b, nil
}

type bulkDeleter func(ctx context.Context, ownerID string, ids []string) ([]string, error)

func (s *LedgerService) bulkDelete(ctx context.Context, ownerID, entity, plural string, ids []string, del bulkDeleter) ([]string, error) {
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return nil, core.Invalid("ids must not be empty")
	}

	deleted, err := del(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, core.NoRowsAffected(plural)
	}

	s.logger.InfoContext(ctx, "Bulk delete",
		log.FieldOwnerID, ownerID,
		log.FieldEntity, entity,
		log.FieldCount, len(deleted))
	s.notifier.changed(ctx, ownerID, entity, amqp.ActionDeleted, deleted...)
	return deleted, nil
}

func compactIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
