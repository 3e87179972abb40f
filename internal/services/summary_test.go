package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
)

func seedSummary(t *testing.T, f *fixture) core.Account {
	t.Helper()
	a := f.account(t, alice, "Main")
	food := f.category(t, alice, "Food")

	f.tx(t, alice, a.ID, 5000, "2024-02-10", nil)
	f.check(t, alice, a.ID, 4000, "2024-02-01")

	f.tx(t, alice, a.ID, 10000, "2024-03-05", nil)
	f.tx(t, alice, a.ID, -3000, "2024-03-06", &food.ID)
	f.tx(t, alice, a.ID, -1000, "2024-03-06", nil)
	f.check(t, alice, a.ID, 8000, "2024-03-20")
	return a
}

func TestSummary_CurrentMonthAgainstPrevious(t *testing.T) {
	f := newFixture(t)
	f.summary.now = fixedNow("2024-03-15T09:00:00Z")
	seedSummary(t, f)

	s, err := f.summary.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), s.IncomeAmount)
	assert.InDelta(t, 100.0, s.IncomeChange, 1e-9)
	assert.Equal(t, int64(-4000), s.ExpensesAmount)
	assert.InDelta(t, 100.0, s.ExpensesChange, 1e-9)
	assert.Equal(t, int64(6000), s.RemainingAmount)
	assert.InDelta(t, 20.0, s.RemainingChange, 1e-9)
	assert.Equal(t, int64(8000), s.TotalBalanceAmount)
	assert.InDelta(t, 100.0, s.TotalBalanceChange, 1e-9)

	assert.Equal(t, []core.CategoryTotal{
		{Name: "Food", Value: 3000},
		{Name: core.UncategorizedName, Value: 1000},
	}, s.Categories)

	require.Len(t, s.Days, 31)
	assert.Equal(t, "2024-03-01", s.Days[0].Date.String())
	assert.Equal(t, int64(10000), s.Days[4].Income)
	assert.Equal(t, int64(4000), s.Days[5].Expenses)
	assert.Equal(t, int64(0), s.Days[6].Income)
}

func TestSummary_Validation(t *testing.T) {
	f := newFixture(t)
	a := seedSummary(t, f)

	_, err := f.summary.Get(f.ctx, alice, SummaryQuery{From: "2024-03-10", To: "2024-03-01"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.summary.Get(f.ctx, alice, SummaryQuery{From: "yesterday"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.summary.Get(f.ctx, bob, SummaryQuery{AccountID: a.ID})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSummary_AccountFilter(t *testing.T) {
	f := newFixture(t)
	seedSummary(t, f)
	other := f.account(t, alice, "Other")
	f.tx(t, alice, other.ID, 999, "2024-03-07", nil)

	s, err := f.summary.Get(f.ctx, alice, SummaryQuery{From: "2024-03-01", To: "2024-03-31", AccountID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(999), s.IncomeAmount)
	assert.Equal(t, int64(0), s.TotalBalanceAmount)
	assert.Empty(t, s.Categories)
}

func TestSummary_CacheAndInvalidation(t *testing.T) {
	f := newFixture(t)
	f.summary.now = fixedNow("2024-03-15T09:00:00Z")
	a := seedSummary(t, f)

	first, err := f.summary.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)

	// written behind the services' back, so the cached copy is still served
	_, err = f.store.CreateTransaction(f.ctx, alice, core.Transaction{
		Amount: 1, Payee: "direct", Date: core.NewDate(2024, 3, 7), AccountID: a.ID,
	})
	require.NoError(t, err)

	cached, err := f.summary.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, first.IncomeAmount, cached.IncomeAmount)

	f.tx(t, alice, a.ID, 1, "2024-03-08", nil)

	fresh, err := f.summary.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, first.IncomeAmount+2, fresh.IncomeAmount)
}

func TestSummary_Warm(t *testing.T) {
	f := newFixture(t)
	f.summary.now = fixedNow("2024-03-15T09:00:00Z")
	seedSummary(t, f)

	require.NoError(t, f.summary.Warm(f.ctx, alice))

	gen, ok := f.summary.generation(f.ctx, alice)
	require.True(t, ok)
	key := summaryKey(alice, gen, core.MonthOf(f.summary.now()), "")
	_, ok, err := f.cache.Get(f.ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSummary_Periods(t *testing.T) {
	f := newFixture(t)
	f.summary.now = fixedNow("2024-01-15T09:00:00Z")

	presets := f.summary.Periods()
	require.Len(t, presets, 4)
	assert.Equal(t, "This Month", presets[0].Label)
	assert.Equal(t, "2023-12-01", presets[1].From.String())
	assert.Equal(t, "2023-10-31", presets[3].To.String())
}

// interleavingStore runs beforeFirstSummary right before the first summary
// entry is written, standing in for a mutation that commits mid-compute.
type interleavingStore struct {
	cache.Store
	once               sync.Once
	beforeFirstSummary func()
}

func (s *interleavingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if strings.HasPrefix(key, "summary:") {
		s.once.Do(s.beforeFirstSummary)
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func TestSummary_MutationDuringComputeIsNotServedStale(t *testing.T) {
	f := newFixture(t)
	a := seedSummary(t, f)

	store := &interleavingStore{Store: f.cache, beforeFirstSummary: func() {
		f.tx(t, alice, a.ID, 5000, "2024-03-09", nil)
	}}
	summaries := NewSummaryService(f.store, store, time.Minute, log.Discard())
	summaries.now = fixedNow("2024-03-15T09:00:00Z")

	first, err := summaries.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), first.IncomeAmount)

	second, err := summaries.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), second.IncomeAmount)
}

func TestSummary_WarmRacingMutationIsNotServedStale(t *testing.T) {
	f := newFixture(t)
	a := seedSummary(t, f)

	store := &interleavingStore{Store: f.cache, beforeFirstSummary: func() {
		f.tx(t, alice, a.ID, 5000, "2024-03-09", nil)
	}}
	summaries := NewSummaryService(f.store, store, time.Minute, log.Discard())
	summaries.now = fixedNow("2024-03-15T09:00:00Z")

	require.NoError(t, summaries.Warm(f.ctx, alice))

	s, err := summaries.Get(f.ctx, alice, SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), s.IncomeAmount)
}

func TestSummary_MutationMovesGeneration(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")

	before, ok := f.summary.generation(f.ctx, alice)
	require.True(t, ok)
	again, _ := f.summary.generation(f.ctx, alice)
	assert.Equal(t, before, again)

	f.tx(t, alice, a.ID, 1, "2024-03-01", nil)

	after, ok := f.summary.generation(f.ctx, alice)
	require.True(t, ok)
	assert.NotEqual(t, before, after)
}
