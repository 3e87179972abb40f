package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereSkipsAbsentFilters(t *testing.T) {
	accountID := ""
	w := NewWhere().
		And("owner_id = ?", "u1").
		AndIf(accountID != "", "account_id = ?", accountID).
		AndIf(true, "date >= ?", "2024-01-01")

	assert.Equal(t, " WHERE owner_id = $1 AND date >= $2", w.String())
	assert.Equal(t, []any{"u1", "2024-01-01"}, w.Args())
}

func TestWhereIn(t *testing.T) {
	w := NewWhere().And("owner_id = ?", "u1").In("id", []string{"a", "b"})
	assert.Equal(t, " WHERE owner_id = $1 AND id IN ($2, $3)", w.String())
	assert.Len(t, w.Args(), 3)

	empty := NewWhere().In("id", nil)
	assert.Equal(t, " WHERE 1 = 0", empty.String())
	assert.Empty(t, empty.Args())
}

func TestWhereArgNumbering(t *testing.T) {
	w := NewWhere()
	set := "name = " + w.Arg("x")
	w.And("id = ?", "1")
	limit := w.Arg(10)

	assert.Equal(t, "name = $1", set)
	assert.Equal(t, " WHERE id = $2", w.String())
	assert.Equal(t, "$3", limit)
}

func TestWhereEmpty(t *testing.T) {
	assert.Equal(t, "", NewWhere().String())
}
