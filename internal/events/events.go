// Package events carries ledger change notifications to background workers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind names what happened to a transaction.
type Kind string

const (
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
)

// LedgerEvent tells consumers which budget windows may now be stale.
// CategoryID and Date identify the affected windows; PreviousCategoryID and
// PreviousDate are set when an update moved the transaction.
type LedgerEvent struct {
	Kind               Kind      `json:"kind"`
	TransactionID      string    `json:"transaction_id"`
	CategoryID         string    `json:"category_id,omitempty"`
	Date               time.Time `json:"date"`
	PreviousCategoryID string    `json:"previous_category_id,omitempty"`
	PreviousDate       time.Time `json:"previous_date,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Encode serializes the event as JSON.
func (e LedgerEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a JSON-encoded event.
func Decode(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher sends ledger events.
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

// Handler processes one consumed event. Returning an error requeues it.
type Handler func(ctx context.Context, event LedgerEvent) error
