package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

const (
	alice = "user_alice"
	bob   = "user_bob"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) last() *amqp.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type fixture struct {
	ctx       context.Context
	store     *storage.Store
	cache     *cache.MemoryStore
	events    *recordingPublisher
	ledger    *LedgerService
	reconcile *ReconciliationService
	summary   *SummaryService
	importer  *ImportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{Dialect: storage.DialectSQLite, SQLitePath: ":memory:"}, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mem := cache.NewMemoryStore(100, time.Minute)
	events := &recordingPublisher{}
	ledger := NewLedgerService(store, events, mem, log.Discard())

	return &fixture{
		ctx:       ctx,
		store:     store,
		cache:     mem,
		events:    events,
		ledger:    ledger,
		reconcile: NewReconciliationService(store, 2, log.Discard()),
		summary:   NewSummaryService(store, mem, time.Minute, log.Discard()),
		importer:  NewImportService(ledger, log.Discard()),
	}
}

func (f *fixture) account(t *testing.T, owner, name string) core.Account {
	t.Helper()
	a, err := f.ledger.CreateAccount(f.ctx, owner, AccountInput{Name: name})
	require.NoError(t, err)
	return a
}

func (f *fixture) category(t *testing.T, owner, name string) core.Category {
	t.Helper()
	c, err := f.ledger.CreateCategory(f.ctx, owner, CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) tx(t *testing.T, owner, accountID string, amount int64, date string, categoryID *string) core.Transaction {
	t.Helper()
	tx, err := f.ledger.CreateTransaction(f.ctx, owner, TransactionInput{
		Amount: amount, Payee: "payee", Date: date, AccountID: accountID, CategoryID: categoryID,
	})
	require.NoError(t, err)
	return tx
}

func (f *fixture) check(t *testing.T, owner, accountID string, balance int64, date string) core.BalanceCheck {
	t.Helper()
	b, err := f.ledger.CreateBalanceCheck(f.ctx, owner, BalanceCheckInput{Date: date, AccountID: accountID, Balance: balance})
	require.NoError(t, err)
	return b
}

func fixedNow(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

var errBroker = errors.New("broker down")
