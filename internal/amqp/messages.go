package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventVersion is bumped whenever LedgerEvent changes shape.
const EventVersion = 1

// Entities touched by a ledger mutation.
const (
	EntityAccount      = "account"
	EntityCategory     = "category"
	EntityTransaction  = "transaction"
	EntityBalanceCheck = "balance_check"
)

// Actions carried by a LedgerEvent.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// LedgerEvent announces that an owner's ledger changed. It carries only
// identifiers; consumers reload whatever state they need.
type LedgerEvent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	IDs       []string  `json:"ids"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a fresh event id and the current time.
func NewLedgerEvent(ownerID, entity, action string, ids ...string) *LedgerEvent {
	if ids == nil {
		ids = []string{}
	}
	return &LedgerEvent{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Entity:    entity,
		Action:    action,
		IDs:       ids,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var evt LedgerEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.OwnerID == "" {
		return nil, fmt.Errorf("ledger event %q has no owner", evt.ID)
	}
	if evt.Version > EventVersion {
		return nil, fmt.Errorf("ledger event version %d is newer than supported %d", evt.Version, EventVersion)
	}
	return &evt, nil
}
