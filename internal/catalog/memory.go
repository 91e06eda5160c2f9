package catalog

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/vinoprice/pricesync/internal/domain"
)

// MemoryCatalog is an in-process catalog used by tests and the memory backend
// in dev mode. Cursors are plain offsets encoded as strings.
type MemoryCatalog struct {
	mu       sync.RWMutex
	variants []domain.SyncTarget

	// Reject maps variant IDs to user errors, simulating mutation rejection.
	Reject map[string]string
}

func NewMemoryCatalog(variants []domain.SyncTarget) *MemoryCatalog {
	return &MemoryCatalog{variants: variants}
}

func (c *MemoryCatalog) FetchVariants(ctx context.Context, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 10
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page{}, fmt.Errorf("invalid cursor %q", cursor)
		}
		offset = n
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if offset >= len(c.variants) {
		return Page{}, nil
	}

	end := offset + limit
	if end > len(c.variants) {
		end = len(c.variants)
	}

	page := Page{Items: append([]domain.SyncTarget(nil), c.variants[offset:end]...)}
	if end < len(c.variants) {
		page.NextCursor = strconv.Itoa(end)
		page.HasMore = true
	}
	return page, nil
}

func (c *MemoryCatalog) UpdateVariantPrice(ctx context.Context, productID, variantID string, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := c.Reject[variantID]; ok {
		return &MutationError{Errors: []UserError{{Field: "price", Message: msg}}}
	}

	for i := range c.variants {
		if c.variants[i].VariantID == variantID {
			p := price
			c.variants[i].CurrentPrice = &p
			return nil
		}
	}
	return fmt.Errorf("variant %s not found", variantID)
}

// Price reports the current price of a variant, for test assertions.
func (c *MemoryCatalog) Price(variantID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, v := range c.variants {
		if v.VariantID == variantID && v.CurrentPrice != nil {
			return *v.CurrentPrice, true
		}
	}
	return 0, false
}
