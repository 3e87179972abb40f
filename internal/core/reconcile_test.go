package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileWithoutCheck(t *testing.T) {
	r := Reconcile("acc", nil, 10000-3000+500)

	assert.Equal(t, int64(7500), r.ExpectedBalance)
	assert.Nil(t, r.LastCheckedBalance)
	assert.Nil(t, r.LastCheckedDate)
	assert.False(t, r.Balanced)
}

func TestReconcileWithCheck(t *testing.T) {
	check := &BalanceCheck{Balance: 5000, Date: NewDate(2024, 3, 1)}
	r := Reconcile("acc", check, -1000)

	assert.Equal(t, int64(4000), r.ExpectedBalance)
	require.NotNil(t, r.LastCheckedBalance)
	assert.Equal(t, int64(5000), *r.LastCheckedBalance)
	assert.Equal(t, "2024-03-01", r.LastCheckedDate.String())
	assert.False(t, r.Balanced)
}

func TestReconcileEmptyAccount(t *testing.T) {
	assert.Equal(t, int64(0), Reconcile("acc", nil, 0).ExpectedBalance)
}

func TestReconcileCheckAfterAllTransactions(t *testing.T) {
	r := Reconcile("acc", &BalanceCheck{Balance: 4200, Date: NewDate(2024, 5, 1)}, 0)
	assert.Equal(t, int64(4200), r.ExpectedBalance)
	assert.True(t, r.Balanced)
}

func TestIsBalanced(t *testing.T) {
	assert.True(t, IsBalanced(1000, 1000))
	assert.True(t, IsBalanced(1009, 1000))
	assert.True(t, IsBalanced(991, 1000))
	assert.False(t, IsBalanced(1010, 1000))
	assert.False(t, IsBalanced(990, 1000))
}
