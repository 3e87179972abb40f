package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/log"
)

// Store is the owner-scoped ledger repository. Every query filters on the
// caller's owner ID, directly or through the owning account.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	now     func() time.Time
	newID   func() string
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, dialect Dialect, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage)
	}
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity, used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Dialect reports the backend in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

type rowScanner interface {
	Scan(dest ...any) error
}

// day scans DATE columns that arrive as time.Time or as text.
type day struct {
	dst *core.Date
}

func (d day) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.dst = core.DateOf(v)
		return nil
	case string:
		parsed, err := core.ParseDate(v)
		if err != nil {
			return err
		}
		*d.dst = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound(entity, id)
	}
	return err
}

func (s *Store) logMutation(ctx context.Context, ownerID, entity, op string, count int) {
	s.logger.DebugContext(ctx, "Ledger rows written",
		log.FieldOwnerID, ownerID,
		log.FieldEntity, entity,
		log.FieldOperation, op,
		log.FieldCount, count)
}
