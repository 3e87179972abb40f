// Package worker consumes ledger events and keeps the summary cache warm.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/log"
)

// Warmer recomputes and caches an owner's current summary.
// *services.SummaryService implements it.
type Warmer interface {
	Warm(ctx context.Context, ownerID string) error
}

// SummaryWarmer handles ledger events by re-warming the owner's
// current-month summary. Events older than the owner's last warm-up are
// skipped since that warm-up already saw their effect.
type SummaryWarmer struct {
	warmer Warmer
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	lastWarmed map[string]time.Time
}

func NewSummaryWarmer(warmer Warmer, logger *log.Logger) *SummaryWarmer {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryWarmer{
		warmer:     warmer,
		logger:     logger.WithComponent(log.ComponentWorker),
		now:        time.Now,
		lastWarmed: make(map[string]time.Time),
	}
}

// HandleLedgerEvent is an amqp.Handler.
func (w *SummaryWarmer) HandleLedgerEvent(ctx context.Context, evt *amqp.LedgerEvent) error {
	if w.alreadyWarm(evt) {
		w.logger.DebugContext(ctx, "Skipping ledger event, summary already warm",
			log.FieldOwnerID, evt.OwnerID,
			log.FieldOperation, log.OpWarm,
			"event_id", evt.ID)
		return nil
	}

	started := w.now()
	if err := w.warmer.Warm(ctx, evt.OwnerID); err != nil {
		return fmt.Errorf("warm summary for %s: %w", evt.OwnerID, err)
	}
	w.markWarm(evt.OwnerID, started)

	w.logger.InfoContext(ctx, "Processed ledger event",
		log.FieldOwnerID, evt.OwnerID,
		log.FieldEntity, evt.Entity,
		log.FieldOperation, evt.Action,
		log.FieldCount, len(evt.IDs))
	return nil
}

func (w *SummaryWarmer) alreadyWarm(evt *amqp.LedgerEvent) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.lastWarmed[evt.OwnerID]
	return ok && evt.Timestamp.Before(last)
}

func (w *SummaryWarmer) markWarm(ownerID string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if at.After(w.lastWarmed[ownerID]) {
		w.lastWarmed[ownerID] = at
	}
}
