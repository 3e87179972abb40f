//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expenses/internal/log"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags=integration ./internal/storage
func TestStoreSuite_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	suite.Run(t, &StoreSuite{open: func(t *testing.T) *Store {
		t.Helper()
		ctx := context.Background()
		store, err := Open(ctx, Options{
			Dialect:     DialectPostgres,
			DatabaseURL: url,
			MaxRetries:  3,
			RetryDelay:  time.Second,
		}, log.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		_, err = store.db.ExecContext(ctx, "TRUNCATE account_balances, transactions, categories, accounts")
		require.NoError(t, err)
		require.Equal(t, DialectPostgres, store.Dialect())
		return store
	}})
}
