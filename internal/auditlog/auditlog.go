// Package auditlog owns the durable record of every pricing decision and its
// execution outcome. Entries are append-only; only their status transitions,
// and only this package performs those transitions.
package auditlog

import (
	"context"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
)

// Entry is one audit record. ID is assigned by the store, monotonically.
type Entry struct {
	ID           int64             `json:"id"`
	ProductID    string            `json:"product_id"`
	VariantID    string            `json:"variant_id,omitempty"`
	ProductTitle string            `json:"product_title,omitempty"`
	OldPrice     *float64          `json:"old_price,omitempty"`
	NewPrice     *float64          `json:"new_price,omitempty"`
	CompetitorPr *float64          `json:"competitor_price,omitempty"`
	Cost         *float64          `json:"cost,omitempty"`
	Action       domain.SyncAction `json:"action"`
	Status       domain.SyncStatus `json:"status"`
	Reason       string            `json:"reason,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Filter selects entries for listing. Status empty or "ALL" matches
// everything.
type Filter struct {
	Limit  int
	Offset int
	Status string
}

// Store is the audit log persistence contract. Implementations must be safe
// for concurrent inserts and must assign globally unique increasing IDs.
type Store interface {
	// Insert appends an entry and returns its assigned ID.
	Insert(ctx context.Context, e Entry) (int64, error)

	// ResolvePending flips the most recent PENDING entry for a variant to a
	// terminal status, optionally replacing its reason. Reports whether an
	// entry was found.
	ResolvePending(ctx context.Context, variantID string, status domain.SyncStatus, reason string) (bool, error)

	// List returns entries newest first plus the total count for the filter.
	List(ctx context.Context, f Filter) ([]Entry, int, error)
}
