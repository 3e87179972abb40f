package backend

import (
	"context"
	"fmt"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
)

const (
	cacheCleanupInterval = time.Minute
	redisNamespace       = "expenses"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. The database is mandatory;
// Redis and AMQP failures degrade to the in-process cache and no events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}
	b.Store = store
	b.onClose("storage", store.Close)

	b.Summaries = f.createCache(ctx, config, b)

	// A nil *amqp.Client must not reach the services as a non-nil interface.
	var events services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			b.Events = client
			b.onClose("amqp", client.Close)
			events = client
		}
	}

	b.Ledger = services.NewLedgerService(store, events, b.Summaries, f.logger)
	b.Reconciliation = services.NewReconciliationService(store, config.FanOut, f.logger)
	b.Summary = services.NewSummaryService(store, b.Summaries, config.SummaryCacheTTL, f.logger)
	b.Importer = services.NewImportService(b.Ledger, f.logger)

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"cache", string(config.Cache),
		"amqp_enabled", b.Events != nil)

	return b, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (*storage.Store, error) {
	opts := storage.Options{
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
	}
	switch config.Type {
	case SQLiteBackend:
		opts.Dialect = storage.DialectSQLite
		opts.SQLitePath = config.SQLiteDBPath
	case PostgresBackend:
		opts.Dialect = storage.DialectPostgres
		opts.DatabaseURL = config.DatabaseURL
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	store, err := storage.Open(ctx, opts, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", config.Type, err)
	}
	return store, nil
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config, b *Backend) cache.Store {
	switch config.Cache {
	case NoCache:
		return cache.Noop{}
	case RedisCache:
		client, err := cache.NewRedisClient(ctx, config.RedisURL)
		if err == nil {
			store := cache.NewRedisStore(client, redisNamespace)
			b.onClose("redis", store.Close)
			f.logger.Info("Initialized Redis summary cache")
			return store
		}
		f.logger.Warn("Failed to connect to Redis, falling back to in-process cache", log.FieldError, err.Error())
	}

	size := config.CacheMaxEntries
	if size <= 0 {
		size = defaultCacheEntries
	}
	mem := cache.NewMemoryStore(size, config.SummaryCacheTTL)
	manager := cache.NewManager(func(removed int) {
		f.logger.Debug("Cleaned expired summaries", log.FieldCount, removed)
	})
	manager.Register(mem)
	manager.StartCleanup(cacheCleanupInterval)
	b.onClose("cache", func() error {
		manager.Stop()
		return nil
	})
	return mem
}
