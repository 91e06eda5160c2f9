package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/events"
	"github.com/vinoprice/pricesync/internal/syncer"
)

// countingCatalog tracks page fetches to observe sweep activity.
type countingCatalog struct {
	inner   catalog.Client
	fetches int64
}

func (c *countingCatalog) FetchVariants(ctx context.Context, limit int, cursor string) (catalog.Page, error) {
	atomic.AddInt64(&c.fetches, 1)
	return c.inner.FetchVariants(ctx, limit, cursor)
}

func (c *countingCatalog) UpdateVariantPrice(ctx context.Context, productID, variantID string, price float64) error {
	return c.inner.UpdateVariantPrice(ctx, productID, variantID, price)
}

func fptr(v float64) *float64 { return &v }

func newRunnerService(cat catalog.Client) *syncer.Service {
	return &syncer.Service{
		Catalog:     cat,
		Audit:       auditlog.NewMemoryStore(),
		Events:      events.NopPublisher{},
		FloorMargin: 1.3,
		BinSize:     5,
	}
}

func TestRunnerImmediatePassAndTicks(t *testing.T) {
	cat := &countingCatalog{inner: catalog.NewMemoryCatalog([]domain.SyncTarget{
		// floor 13 equals the live price, so every sweep skips
		{ProductID: "p1", VariantID: "v1", Title: "A", Cost: fptr(10), CurrentPrice: fptr(13)},
	})}

	r := Runner{
		Syncer:   newRunnerService(cat),
		Interval: 10 * time.Millisecond,
		PageSize: 5,
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// wait for the immediate pass plus at least one tick
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&cat.fetches) < 2 {
		select {
		case <-deadline:
			t.Fatalf("fetches = %d, want >= 2 before deadline", atomic.LoadInt64(&cat.fetches))
		case <-time.After(time.Millisecond):
		}
	}

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestRunnerPagesThroughCatalog(t *testing.T) {
	var targets []domain.SyncTarget
	for _, v := range []string{"v1", "v2", "v3"} {
		targets = append(targets, domain.SyncTarget{
			ProductID: "p-" + v, VariantID: v, Title: "T " + v,
			Cost: fptr(10), CurrentPrice: fptr(13),
		})
	}
	cat := &countingCatalog{inner: catalog.NewMemoryCatalog(targets)}

	r := Runner{
		Syncer:   newRunnerService(cat),
		Interval: time.Hour, // only the immediate pass runs
		PageSize: 2,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// 3 items at page size 2 means two fetches in the first sweep
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&cat.fetches) < 2 {
		select {
		case <-deadline:
			t.Fatalf("fetches = %d, want 2", atomic.LoadInt64(&cat.fetches))
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestRunnerRequiresSyncer(t *testing.T) {
	if err := (Runner{}).Run(context.Background()); err == nil {
		t.Fatalf("expected error for nil syncer")
	}
}
