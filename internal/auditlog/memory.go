package auditlog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Insert(ctx context.Context, e Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID
	s.nextID++

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	s.entries = append(s.entries, e)
	return e.ID, nil
}

func (s *MemoryStore) ResolvePending(ctx context.Context, variantID string, status domain.SyncStatus, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// newest first; entries are appended in insert order
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := &s.entries[i]
		if e.VariantID != variantID || e.Status != domain.StatusPending {
			continue
		}
		e.Status = status
		if reason != "" {
			e.Reason = reason
		}
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := strings.TrimSpace(f.Status)
	matchAll := status == "" || strings.EqualFold(status, "ALL")

	var matched []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if matchAll || string(e.Status) == status {
			matched = append(matched, e)
		}
	}

	total := len(matched)

	if f.Offset > 0 {
		if f.Offset >= total {
			return nil, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	return matched, total, nil
}
