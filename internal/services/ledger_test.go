package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/amqp"
	"expenses/internal/core"
)

func TestLedger_AccountLifecycle(t *testing.T) {
	f := newFixture(t)

	a, err := f.ledger.CreateAccount(f.ctx, alice, AccountInput{Name: "  Checking  "})
	require.NoError(t, err)
	assert.Equal(t, "Checking", a.Name)
	assert.Equal(t, core.AccountBank, a.Type)

	evt := f.events.last()
	require.NotNil(t, evt)
	assert.Equal(t, alice, evt.OwnerID)
	assert.Equal(t, amqp.EntityAccount, evt.Entity)
	assert.Equal(t, amqp.ActionCreated, evt.Action)
	assert.Equal(t, []string{a.ID}, evt.IDs)

	updated, err := f.ledger.UpdateAccount(f.ctx, alice, a.ID, AccountInput{Name: "Wallet", Type: "cash"})
	require.NoError(t, err)
	assert.Equal(t, core.AccountCash, updated.Type)

	renamed, err := f.ledger.UpdateAccount(f.ctx, alice, a.ID, AccountInput{Name: "Pocket"})
	require.NoError(t, err)
	assert.Equal(t, core.AccountCash, renamed.Type, "empty type keeps the current one")

	_, err = f.ledger.UpdateAccount(f.ctx, bob, a.ID, AccountInput{Name: "Stolen"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.CreateAccount(f.ctx, alice, AccountInput{Name: "x", Type: "piggy"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.ledger.CreateAccount(f.ctx, alice, AccountInput{Name: "   "})
	assert.ErrorIs(t, err, core.ErrValidation)

	deleted, err := f.ledger.DeleteAccount(f.ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)
	assert.Equal(t, amqp.ActionDeleted, f.events.last().Action)
}

func TestLedger_BulkDelete(t *testing.T) {
	f := newFixture(t)
	a1 := f.account(t, alice, "One")
	a2 := f.account(t, alice, "Two")

	_, err := f.ledger.DeleteAccounts(f.ctx, bob, []string{a1.ID, a2.ID})
	assert.ErrorIs(t, err, core.ErrConflict, "cross-owner bulk delete matches nothing")

	_, err = f.ledger.DeleteAccounts(f.ctx, alice, []string{" ", ""})
	assert.ErrorIs(t, err, core.ErrValidation)

	deleted, err := f.ledger.DeleteAccounts(f.ctx, alice, []string{a1.ID, a1.ID, a2.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, deleted)

	c := f.category(t, alice, "Food")
	_, err = f.ledger.DeleteCategories(f.ctx, bob, []string{c.ID})
	assert.ErrorIs(t, err, core.ErrConflict)
	ids, err := f.ledger.DeleteCategories(f.ctx, alice, []string{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, ids)
}

func TestLedger_TransactionsRequireOwnedReferences(t *testing.T) {
	f := newFixture(t)
	mine := f.account(t, alice, "Mine")
	theirs := f.account(t, bob, "Theirs")
	theirCategory := f.category(t, bob, "Secret")

	_, err := f.ledger.CreateTransaction(f.ctx, alice, TransactionInput{
		Amount: -1000, Payee: "Shop", Date: "2024-03-01", AccountID: theirs.ID,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.CreateTransaction(f.ctx, alice, TransactionInput{
		Amount: -1000, Payee: "Shop", Date: "2024-03-01", AccountID: mine.ID, CategoryID: &theirCategory.ID,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.CreateTransaction(f.ctx, alice, TransactionInput{
		Amount: -1000, Payee: "Shop", Date: "01/03/2024", AccountID: mine.ID,
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	tx := f.tx(t, alice, mine.ID, -1000, "2024-03-01T18:30:00Z", nil)
	assert.Equal(t, "2024-03-01", tx.Date.String())

	_, err = f.ledger.GetTransaction(f.ctx, bob, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.ledger.DeleteTransaction(f.ctx, bob, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_UpdateTransaction(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")
	food := f.category(t, alice, "Food")
	tx := f.tx(t, alice, a.ID, -1000, "2024-03-01", nil)

	notes := "  lunch  "
	updated, err := f.ledger.UpdateTransaction(f.ctx, alice, tx.ID, TransactionInput{
		Amount: -2500, Payee: "Cafe", Date: "2024-03-02", AccountID: a.ID, CategoryID: &food.ID, Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-2500), updated.Amount)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "lunch", *updated.Notes)
	require.NotNil(t, updated.CategoryID)
	assert.Equal(t, food.ID, *updated.CategoryID)

	_, err = f.ledger.UpdateTransaction(f.ctx, bob, tx.ID, TransactionInput{
		Amount: 1, Payee: "x", Date: "2024-03-02", AccountID: a.ID,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_ListTransactionsDefaultsToLastThirtyDays(t *testing.T) {
	f := newFixture(t)
	f.ledger.now = fixedNow("2024-03-31T10:00:00Z")
	a := f.account(t, alice, "Main")

	f.tx(t, alice, a.ID, -100, "2024-03-31", nil)
	f.tx(t, alice, a.ID, -200, "2024-03-01", nil)
	f.tx(t, alice, a.ID, -300, "2024-02-15", nil)

	views, err := f.ledger.ListTransactions(f.ctx, alice, TransactionQuery{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "2024-03-31", views[0].Date.String())
	assert.Equal(t, "Main", views[0].Account)

	all, err := f.ledger.ListTransactions(f.ctx, alice, TransactionQuery{From: "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.ledger.ListTransactions(f.ctx, alice, TransactionQuery{From: "2024-04-01", To: "2024-03-01"})
	assert.ErrorIs(t, err, core.ErrValidation)

	other := f.account(t, bob, "Other")
	_, err = f.ledger.ListTransactions(f.ctx, alice, TransactionQuery{AccountID: other.ID})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_CreateTransactionsIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")

	_, err := f.ledger.CreateTransactions(f.ctx, alice, nil)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.ledger.CreateTransactions(f.ctx, alice, []TransactionInput{
		{Amount: 100, Payee: "ok", Date: "2024-03-01", AccountID: a.ID},
		{Amount: 100, Payee: "", Date: "2024-03-01", AccountID: a.ID},
	})
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "item 2")

	views, err := f.ledger.ListTransactions(f.ctx, alice, TransactionQuery{From: "2000-01-01", To: "2100-01-01"})
	require.NoError(t, err)
	assert.Empty(t, views)

	created, err := f.ledger.CreateTransactions(f.ctx, alice, []TransactionInput{
		{Amount: 100, Payee: "a", Date: "2024-03-01", AccountID: a.ID},
		{Amount: -50, Payee: "b", Date: "2024-03-02", AccountID: a.ID},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Len(t, f.events.last().IDs, 2)

	ids := []string{created[0].ID, created[1].ID}
	_, err = f.ledger.DeleteTransactions(f.ctx, bob, ids)
	assert.ErrorIs(t, err, core.ErrConflict)
	deleted, err := f.ledger.DeleteTransactions(f.ctx, alice, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, deleted)
}

func TestLedger_BalanceChecks(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")

	latest, err := f.ledger.LatestBalanceCheck(f.ctx, alice, a.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = f.ledger.LatestBalanceCheck(f.ctx, bob, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.CreateBalanceCheck(f.ctx, bob, BalanceCheckInput{Date: "2024-03-01", AccountID: a.ID, Balance: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)

	first := f.check(t, alice, a.ID, 5000, "2024-03-01")
	second := f.check(t, alice, a.ID, 6000, "2024-03-10")

	latest, err = f.ledger.LatestBalanceCheck(f.ctx, alice, a.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	note := "recount"
	updated, err := f.ledger.UpdateBalanceCheck(f.ctx, alice, first.ID, BalanceCheckInput{
		Date: "2024-03-20", AccountID: a.ID, Balance: 7000, Note: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), updated.Balance)
	assert.Equal(t, amqp.EntityBalanceCheck, f.events.last().Entity)

	list, err := f.ledger.ListBalanceChecks(f.ctx, alice, a.ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = f.ledger.ListBalanceChecks(f.ctx, alice, "", -1)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.ledger.DeleteBalanceCheck(f.ctx, bob, first.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.ledger.DeleteBalanceCheck(f.ctx, alice, first.ID)
	require.NoError(t, err)
}

func TestLedger_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.events.err = errBroker

	a, err := f.ledger.CreateAccount(f.ctx, alice, AccountInput{Name: "Main"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
}

func TestLedger_WithoutPublisher(t *testing.T) {
	f := newFixture(t)
	ledger := NewLedgerService(f.store, nil, nil, f.ledger.logger)

	_, err := ledger.CreateCategory(f.ctx, alice, CategoryInput{Name: "Food"})
	require.NoError(t, err)
}
