// Package sources contains the competitor price adapters: a shopping-search
// adapter over a SERP provider, a storefront scanner over a fixed competitor
// list, and an organic-search scraper that feeds the content pipeline.
//
// Adapter contract: an empty result set is not an error. Errors are reserved
// for unrecoverable transport failure, and callers treat those as "zero
// observations from this source".
package sources

import (
	"context"
	"errors"

	"github.com/vinoprice/pricesync/internal/domain"
)

// ErrSourceUnavailable wraps timeouts, non-200 responses, and malformed
// payloads from an external provider. Non-fatal; the affected source degrades
// to empty.
var ErrSourceUnavailable = errors.New("source unavailable")

// PriceSource is one adapter capable of producing competitor price
// observations for a query.
type PriceSource interface {
	Fetch(ctx context.Context, query string) ([]domain.PriceObservation, error)
}
