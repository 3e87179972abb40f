package services

import (
	"context"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/log"
)

// EventPublisher sends ledger events to the broker. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, evt *amqp.LedgerEvent) error
}

// changeNotifier fans a committed mutation out to the summary cache and the
// event bus. Neither side can fail the request that caused it.
type changeNotifier struct {
	events EventPublisher
	cache  cache.Store
	logger *log.Logger
}

func newChangeNotifier(events EventPublisher, store cache.Store, logger *log.Logger) *changeNotifier {
	if store == nil {
		store = cache.Noop{}
	}
	return &changeNotifier{events: events, cache: store, logger: logger}
}

func (n *changeNotifier) changed(ctx context.Context, ownerID, entity, action string, ids ...string) {
	if err := bumpGeneration(ctx, n.cache, ownerID); err != nil {
		n.logger.WarnContext(ctx, "Failed to advance summary generation",
			log.FieldOwnerID, ownerID,
			log.FieldError, err.Error())
	}
	if err := n.cache.DeletePrefix(ctx, summaryKeyPrefix(ownerID)); err != nil {
		n.logger.WarnContext(ctx, "Failed to invalidate summary cache",
			log.FieldOwnerID, ownerID,
			log.FieldError, err.Error())
	}

	if n.events == nil {
		return
	}
	evt := amqp.NewLedgerEvent(ownerID, entity, action, ids...)
	if err := n.events.Publish(ctx, evt); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOwnerID, ownerID,
			log.FieldEntity, entity,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err.Error())
	}
}
