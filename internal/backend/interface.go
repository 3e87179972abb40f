package backend

import (
	"context"
	"fmt"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/services"
	"expenses/internal/storage"
)

// Backend bundles the store, cache, event client and the services built on
// top of them.
type Backend struct {
	Store          *storage.Store
	Summaries      cache.Store
	Events         *amqp.Client // nil when AMQP is not configured
	Ledger         *services.LedgerService
	Reconciliation *services.ReconciliationService
	Summary        *services.SummaryService
	Importer       *services.ImportService

	closers []closer
}

type closer struct {
	name  string
	close func() error
}

func (b *Backend) onClose(name string, fn func() error) {
	b.closers = append(b.closers, closer{name: name, close: fn})
}

// Close releases every resource in reverse order of creation and reports all
// failures together.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		c := b.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	b.closers = nil

	if len(errs) > 0 {
		return fmt.Errorf("close backend: %v", errs)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	Cache           CacheType
	RedisURL        string
	SummaryCacheTTL time.Duration
	CacheMaxEntries int

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	FanOut int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// CacheType selects where summaries are cached
type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
	NoCache     CacheType = "none"
)

// IsValid returns true if the cache type is valid
func (ct CacheType) IsValid() bool {
	switch ct {
	case MemoryCache, RedisCache, NoCache:
		return true
	default:
		return false
	}
}
