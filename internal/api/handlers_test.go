package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/events"
	"github.com/vinoprice/pricesync/internal/syncer"
)

func fptr(v float64) *float64 { return &v }

func newHandlerService(cat catalog.Client) (*syncer.Service, *auditlog.MemoryStore) {
	audit := auditlog.NewMemoryStore()
	return &syncer.Service{
		Catalog:     cat,
		Audit:       audit,
		Events:      events.NopPublisher{},
		FloorMargin: 1.3,
		BinSize:     5,
	}, audit
}

func TestCandidatesHandlerDisabled(t *testing.T) {
	svc, _ := newHandlerService(nil)
	h := CandidatesHandler{Syncer: svc, Enabled: false, DefaultLimit: 10}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/price-sync/candidates", nil))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "price_sync_disabled") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestCandidatesHandlerMissingCredentials(t *testing.T) {
	svc, _ := newHandlerService(nil)
	h := CandidatesHandler{Syncer: svc, Enabled: true, DefaultLimit: 10}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/price-sync/candidates", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestCandidatesHandlerPaging(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", Title: "A"},
		{ProductID: "p2", VariantID: "v2", Title: "B"},
		{ProductID: "p3", VariantID: "v3", Title: "C"},
	})
	svc, _ := newHandlerService(cat)
	h := CandidatesHandler{Syncer: svc, Enabled: true, DefaultLimit: 2}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/price-sync/candidates", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var page catalog.Page
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 2 || !page.HasMore || page.NextCursor == "" {
		t.Fatalf("page = %+v", page)
	}
}

func TestCalculateTargetHandler(t *testing.T) {
	svc, _ := newHandlerService(nil)
	h := CalculateTargetHandler{Syncer: svc}

	body := `{"product_id": "p1", "variant_id": "v1", "competitor_price": 120, "cost": 40, "current_price": 115}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/price-sync/calculate-target", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var res struct {
		RecommendedPrice *float64 `json:"recommended_price"`
		Strategy         string   `json:"strategy"`
		Action           string   `json:"action"`
		NewPrice         *float64 `json:"new_price"`
		OldPrice         *float64 `json:"old_price"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if res.RecommendedPrice == nil || *res.RecommendedPrice != 118.8 {
		t.Fatalf("recommended = %v", res.RecommendedPrice)
	}
	if res.Strategy != "competitive" || res.Action != "UPDATE" {
		t.Fatalf("strategy/action = %q / %q", res.Strategy, res.Action)
	}
	if res.OldPrice == nil || *res.OldPrice != 115 {
		t.Fatalf("old price = %v", res.OldPrice)
	}
}

func TestCalculateTargetHandlerBadInput(t *testing.T) {
	svc, _ := newHandlerService(nil)
	h := CalculateTargetHandler{Syncer: svc}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/price-sync/calculate-target", strings.NewReader(`{"product_id": "p1"}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid_input") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestExecuteUpdateHandlerSuccess(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", CurrentPrice: fptr(115)},
	})
	svc, _ := newHandlerService(cat)
	h := ExecuteUpdateHandler{Syncer: svc}

	body := `{"product_id": "p1", "variant_id": "v1", "new_price": 118.8}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/price-sync/execute-update", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if got, _ := cat.Price("v1"); got != 118.8 {
		t.Fatalf("catalog price = %v", got)
	}
}

func TestExecuteUpdateHandlerRejection(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", CurrentPrice: fptr(115)},
	})
	cat.Reject = map[string]string{"v1": "price below minimum"}
	svc, _ := newHandlerService(cat)
	h := ExecuteUpdateHandler{Syncer: svc}

	body := `{"product_id": "p1", "variant_id": "v1", "new_price": 1}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/price-sync/execute-update", strings.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 with error payload", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "price below minimum") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestExecuteUpdateHandlerMissingCredentials(t *testing.T) {
	svc, _ := newHandlerService(nil)
	h := ExecuteUpdateHandler{Syncer: svc}

	body := `{"product_id": "p1", "variant_id": "v1", "new_price": 10}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/price-sync/execute-update", strings.NewReader(body)))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestLogsHandler(t *testing.T) {
	_, audit := newHandlerService(nil)

	for _, st := range []domain.SyncStatus{domain.StatusSuccess, domain.StatusFailed, domain.StatusSuccess} {
		if _, err := audit.Insert(context.Background(), auditlog.Entry{
			ProductID: "p", VariantID: "v", Action: domain.ActionUpdate, Status: st,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	h := LogsHandler{Store: audit}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/price-sync/logs?status=SUCCESS&limit=1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var res struct {
		Total  int             `json:"total"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
		Logs   []auditlog.Entry `json:"logs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if res.Total != 2 || res.Limit != 1 || len(res.Logs) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if res.Logs[0].Status != domain.StatusSuccess {
		t.Fatalf("status = %q", res.Logs[0].Status)
	}
}

func TestLogsHandlerEmptyIsArray(t *testing.T) {
	_, audit := newHandlerService(nil)
	h := LogsHandler{Store: audit}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/price-sync/logs", nil))

	if !strings.Contains(rr.Body.String(), `"logs":[]`) {
		t.Fatalf("empty log list must marshal as [], got %s", rr.Body.String())
	}
}
