package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent is a lightweight notification that a transaction changed.
// It carries only identifiers; consumers fetch current state from the
// database, so stale or reordered deliveries are harmless.
type LedgerEvent struct {
	TransactionID int64     `json:"transaction_id"`
	OwnerID       int64     `json:"owner_id"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event for the given transaction and action
func NewLedgerEvent(transactionID, ownerID int64, action string) *LedgerEvent {
	return &LedgerEvent{
		TransactionID: transactionID,
		OwnerID:       ownerID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
