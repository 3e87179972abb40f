package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestExpectedBalance_WithCheck(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")

	f.tx(t, alice, a.ID, 999, "2024-02-20", nil)
	f.tx(t, alice, a.ID, 111, "2024-03-01", nil)
	f.check(t, alice, a.ID, 5000, "2024-03-01")
	f.tx(t, alice, a.ID, 3000, "2024-03-05", nil)
	f.tx(t, alice, a.ID, -500, "2024-03-06", nil)

	r, err := f.reconcile.ExpectedBalance(f.ctx, alice, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), r.ExpectedBalance)
	require.NotNil(t, r.LastCheckedBalance)
	assert.Equal(t, int64(5000), *r.LastCheckedBalance)
	require.NotNil(t, r.LastCheckedDate)
	assert.Equal(t, "2024-03-01", r.LastCheckedDate.String())
	assert.False(t, r.Balanced)
}

func TestExpectedBalance_WithoutCheck(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")
	f.tx(t, alice, a.ID, 5000, "2024-03-01", nil)
	f.tx(t, alice, a.ID, -1000, "2024-03-02", nil)

	r, err := f.reconcile.ExpectedBalance(f.ctx, alice, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), r.ExpectedBalance)
	assert.Nil(t, r.LastCheckedBalance)
	assert.Nil(t, r.LastCheckedDate)
	assert.False(t, r.Balanced)
}

func TestExpectedBalance_EdgeCases(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, alice, "Main")

	r, err := f.reconcile.ExpectedBalance(f.ctx, alice, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.ExpectedBalance)

	f.tx(t, alice, a.ID, 1200, "2024-03-01", nil)
	f.check(t, alice, a.ID, 1205, "2024-03-02")

	r, err = f.reconcile.ExpectedBalance(f.ctx, alice, a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1205), r.ExpectedBalance, "a check after every transaction is the expected balance")
	assert.True(t, r.Balanced)

	asOf := core.NewDate(2024, 3, 1)
	r, err = f.reconcile.ExpectedBalance(f.ctx, alice, a.ID, &asOf)
	require.NoError(t, err)
	assert.Nil(t, r.LastCheckedBalance, "checks after asOf are ignored")
	assert.Equal(t, int64(1200), r.ExpectedBalance)

	_, err = f.reconcile.ExpectedBalance(f.ctx, bob, a.ID, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAccountOverviews(t *testing.T) {
	f := newFixture(t)
	checked := f.account(t, alice, "A checked")
	plain := f.account(t, alice, "B plain")
	empty := f.account(t, alice, "C empty")
	f.account(t, bob, "Not mine")

	f.tx(t, alice, checked.ID, 2000, "2024-03-01", nil)
	f.check(t, alice, checked.ID, 2000, "2024-03-02")
	f.tx(t, alice, checked.ID, -500, "2024-03-03", nil)
	f.tx(t, alice, plain.ID, 700, "2024-03-01", nil)

	overviews, err := f.reconcile.AccountOverviews(f.ctx, alice)
	require.NoError(t, err)
	require.Len(t, overviews, 3)

	byID := map[string]core.AccountOverview{}
	for _, o := range overviews {
		byID[o.ID] = o
	}

	assert.Equal(t, int64(1500), byID[checked.ID].Balance)
	assert.Equal(t, int64(1500), byID[checked.ID].ExpectedBalance)
	assert.False(t, byID[checked.ID].Balanced)
	require.NotNil(t, byID[checked.ID].LastCheckedBalance)
	assert.Equal(t, int64(2000), *byID[checked.ID].LastCheckedBalance)

	assert.Equal(t, int64(700), byID[plain.ID].Balance)
	assert.Nil(t, byID[plain.ID].LastCheckedBalance)

	assert.Equal(t, int64(0), byID[empty.ID].Balance)
	assert.Equal(t, "A checked", overviews[0].Name)
}
