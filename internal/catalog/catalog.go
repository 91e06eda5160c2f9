// Package catalog is the boundary to the downstream product catalog. The
// engine only ever reads variant pages and pushes price mutations; product
// creation and metafields belong to other services.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinoprice/pricesync/internal/domain"
)

// ErrMissingCredentials means no catalog access is configured. Batch
// operations refuse to start on this error rather than failing item by item.
var ErrMissingCredentials = errors.New("catalog credentials not configured")

// Page is one page of sync targets plus the cursor to continue from.
type Page struct {
	Items      []domain.SyncTarget `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

// UserError is one structured rejection from the catalog mutation API.
type UserError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// MutationError carries the catalog's structured rejection of a price update.
type MutationError struct {
	Errors []UserError
}

func (e *MutationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msgs = append(msgs, ue.Message)
	}
	return fmt.Sprintf("catalog rejected mutation: %s", strings.Join(msgs, "; "))
}

// Client is what the sync pipeline needs from the catalog.
type Client interface {
	// FetchVariants returns one page of variants flattened to sync targets.
	FetchVariants(ctx context.Context, limit int, cursor string) (Page, error)

	// UpdateVariantPrice sets a variant's price. A *MutationError is
	// returned when the catalog rejects the value.
	UpdateVariantPrice(ctx context.Context, productID, variantID string, price float64) error
}
