package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// HTTP header used for idempotent requests
const IdempotencyHeaderKey = "Idempotency-Key"

type IdempotencyRecord struct {
	StatusCode int
	Body       []byte
	CreatedAt  time.Time
}

type IdempotencyStore interface {
	Get(key string) (IdempotencyRecord, bool)
	Set(key string, rec IdempotencyRecord)
}

type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]IdempotencyRecord
	ttl     time.Duration
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		records: make(map[string]IdempotencyRecord),
		ttl:     ttl,
	}
}

func (s *MemoryIdempotencyStore) Get(key string) (IdempotencyRecord, bool) {
	if key == "" {
		return IdempotencyRecord{}, false
	}

	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return IdempotencyRecord{}, false
	}

	// TTL enforcement
	if s.ttl > 0 && time.Since(rec.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.records, key)
		s.mu.Unlock()
		return IdempotencyRecord{}, false
	}

	return rec, true
}

func (s *MemoryIdempotencyStore) Set(key string, rec IdempotencyRecord) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()
}

// Idempotency replays the recorded response for a repeated Idempotency-Key,
// shielding the catalog from double-fired execute-update calls when the
// workflow driver retries.
type Idempotency struct {
	Store IdempotencyStore
	Next  http.Handler
}

func (m Idempotency) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil || m.Store == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		// continue
	default:
		m.Next.ServeHTTP(w, r)
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyHeaderKey))
	if idemKey == "" {
		m.Next.ServeHTTP(w, r)
		return
	}

	endpoint := strings.TrimSpace(r.URL.Path)
	if endpoint == "" {
		endpoint = "/"
	}

	key := endpoint + ":" + sha256Hex(idemKey)

	if rec, ok := m.Store.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		status := rec.StatusCode
		if status == 0 {
			status = http.StatusOK
		}

		w.WriteHeader(status)
		_, _ = w.Write(rec.Body)
		return
	}

	// Ensure downstream can read the body even if future logic consumes it.
	if r.Body != nil {
		reqBody, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	// Record downstream response
	rr := httptest.NewRecorder()
	m.Next.ServeHTTP(rr, r)

	for k, vals := range rr.Header() {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}

	status := rr.Code
	if status == 0 {
		status = http.StatusOK
	}

	w.WriteHeader(status)
	_, _ = w.Write(rr.Body.Bytes())

	// If caching fails, do not fail the request; response is already written.
	m.Store.Set(key, IdempotencyRecord{
		StatusCode: status,
		Body:       rr.Body.Bytes(),
		CreatedAt:  time.Now().UTC(),
	})
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
