package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/events"
)

func fptr(v float64) *float64 { return &v }

// stubSource answers every query with a fixed observation set.
type stubSource struct {
	obs []domain.PriceObservation
	err error

	gotQuery string
}

func (s *stubSource) Fetch(ctx context.Context, query string) ([]domain.PriceObservation, error) {
	s.gotQuery = query
	return s.obs, s.err
}

func shoppingObs(prices ...float64) []domain.PriceObservation {
	var obs []domain.PriceObservation
	for _, p := range prices {
		obs = append(obs, domain.PriceObservation{Source: domain.SourceShopping, Price: p})
	}
	return obs
}

func newTestService(cat catalog.Client, shopping, storefront *stubSource) (*Service, *auditlog.MemoryStore) {
	audit := auditlog.NewMemoryStore()
	svc := &Service{
		Catalog:     cat,
		Audit:       audit,
		Events:      events.NopPublisher{},
		FloorMargin: 1.3,
		BinSize:     5,
	}
	if shopping != nil {
		svc.Shopping = shopping
	}
	if storefront != nil {
		svc.Storefront = storefront
	}
	return svc, audit
}

func TestAnalyzeMergesSourcesAndFindsLowest(t *testing.T) {
	shopping := &stubSource{obs: shoppingObs(125, 122, 130)}
	storefront := &stubSource{obs: []domain.PriceObservation{
		{Source: domain.SourceStorefront, Price: 120},
	}}
	svc, _ := newTestService(nil, shopping, storefront)

	res, err := svc.Analyze(context.Background(), AnalyzeInput{
		ProductTitle: "Chateau Margaux 2018 – 750ml",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.ProductName != "Chateau Margaux" || res.Vintage != "2018" {
		t.Fatalf("extracted %q / %q", res.ProductName, res.Vintage)
	}
	if res.SearchQuery != "Chateau Margaux 2018 wine" {
		t.Fatalf("query = %q", res.SearchQuery)
	}
	if shopping.gotQuery != "Chateau Margaux 2018 wine" {
		t.Fatalf("shopping queried with %q", shopping.gotQuery)
	}
	if storefront.gotQuery != "Chateau Margaux 2018" {
		t.Fatalf("storefront queried with %q, want cleaned title", storefront.gotQuery)
	}

	if res.LowestPrice == nil || *res.LowestPrice != 120 {
		t.Fatalf("lowest = %v, want 120", res.LowestPrice)
	}
	if len(res.Sources["shopping"]) != 3 || len(res.Sources["storefront"]) != 1 {
		t.Fatalf("sources = %v", res.Sources)
	}
	if res.Signal.ModePrice == nil {
		t.Fatalf("signal mode missing")
	}
}

func TestAnalyzeDegradedSourceIsNotFatal(t *testing.T) {
	shopping := &stubSource{err: errors.New("quota exhausted")}
	storefront := &stubSource{obs: []domain.PriceObservation{
		{Source: domain.SourceStorefront, Price: 99},
	}}
	svc, _ := newTestService(nil, shopping, storefront)

	res, err := svc.Analyze(context.Background(), AnalyzeInput{ProductTitle: "Opus One 2019"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.LowestPrice == nil || *res.LowestPrice != 99 {
		t.Fatalf("lowest = %v, want 99 from the healthy source", res.LowestPrice)
	}
}

func TestAnalyzeNoPricesFound(t *testing.T) {
	svc, _ := newTestService(nil, &stubSource{}, &stubSource{})

	res, err := svc.Analyze(context.Background(), AnalyzeInput{ProductTitle: "Obscure Bottle"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.LowestPrice != nil {
		t.Fatalf("lowest = %v, want nil", *res.LowestPrice)
	}
	if res.Message == "" {
		t.Fatalf("expected a no-prices message")
	}
}

func TestCalculateTargetWritesAudit(t *testing.T) {
	svc, audit := newTestService(nil, nil, nil)

	res := svc.CalculateTarget(context.Background(), CalculateInput{
		ProductID:       "p1",
		VariantID:       "v1",
		ProductTitle:    "Chateau Margaux 2018",
		CompetitorPrice: fptr(120),
		Cost:            fptr(40),
		CurrentPrice:    fptr(115),
	})

	if res.Action != domain.ActionUpdate {
		t.Fatalf("action = %q, want UPDATE", res.Action)
	}
	if res.NewPrice == nil || *res.NewPrice != 118.8 {
		t.Fatalf("new price = %v, want 118.8", res.NewPrice)
	}
	if res.Decision.Strategy != domain.StrategyCompetitive {
		t.Fatalf("strategy = %q", res.Decision.Strategy)
	}
	if res.LogID == 0 {
		t.Fatalf("audit entry not recorded")
	}

	entries, _, err := audit.List(context.Background(), auditlog.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != domain.StatusPending || e.Action != domain.ActionUpdate {
		t.Fatalf("entry = %+v", e)
	}
	if e.NewPrice == nil || *e.NewPrice != 118.8 || e.OldPrice == nil || *e.OldPrice != 115 {
		t.Fatalf("entry prices = %v / %v", e.OldPrice, e.NewPrice)
	}
}

func TestCalculateTargetSkipRecordsSkipped(t *testing.T) {
	svc, audit := newTestService(nil, nil, nil)

	res := svc.CalculateTarget(context.Background(), CalculateInput{
		ProductID:       "p1",
		VariantID:       "v1",
		CompetitorPrice: fptr(100),
		CurrentPrice:    fptr(99),
	})

	if res.Action != domain.ActionSkip {
		t.Fatalf("action = %q, want SKIP (recommendation equals live price)", res.Action)
	}

	entries, _, _ := audit.List(context.Background(), auditlog.Filter{})
	if len(entries) != 1 || entries[0].Status != domain.StatusSkipped {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestCalculateTargetAdHocSkipsAudit(t *testing.T) {
	svc, audit := newTestService(nil, nil, nil)

	res := svc.CalculateTarget(context.Background(), CalculateInput{
		CompetitorPrice: fptr(50),
		Cost:            fptr(10),
	})

	if res.LogID != 0 {
		t.Fatalf("ad-hoc calculation (no product id) must not log, got id %d", res.LogID)
	}
	if _, total, _ := audit.List(context.Background(), auditlog.Filter{}); total != 0 {
		t.Fatalf("audit entries = %d, want 0", total)
	}
}

func TestExecuteUpdateSuccessResolvesPending(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", Title: "Chateau Margaux 2018", CurrentPrice: fptr(115)},
	})
	svc, audit := newTestService(cat, nil, nil)

	svc.CalculateTarget(context.Background(), CalculateInput{
		ProductID:       "p1",
		VariantID:       "v1",
		CompetitorPrice: fptr(120),
		Cost:            fptr(40),
		CurrentPrice:    fptr(115),
	})

	res, err := svc.ExecuteUpdate(context.Background(), "p1", "v1", 118.8)
	if err != nil {
		t.Fatalf("ExecuteUpdate: %v", err)
	}
	if res.Status != "success" {
		t.Fatalf("status = %q", res.Status)
	}

	if got, ok := cat.Price("v1"); !ok || got != 118.8 {
		t.Fatalf("catalog price = %v (%v), want 118.8", got, ok)
	}

	entries, _, _ := audit.List(context.Background(), auditlog.Filter{})
	if entries[0].Status != domain.StatusSuccess {
		t.Fatalf("audit status = %q, want SUCCESS", entries[0].Status)
	}
}

func TestExecuteUpdateMutationRejection(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", CurrentPrice: fptr(10)},
	})
	cat.Reject = map[string]string{"v1": "price below minimum"}
	svc, audit := newTestService(cat, nil, nil)

	svc.CalculateTarget(context.Background(), CalculateInput{
		ProductID:       "p1",
		VariantID:       "v1",
		CompetitorPrice: fptr(120),
		Cost:            fptr(40),
		CurrentPrice:    fptr(10),
	})

	res, err := svc.ExecuteUpdate(context.Background(), "p1", "v1", 118.8)
	if err != nil {
		t.Fatalf("rejection must report in-band, got transport error: %v", err)
	}
	if res.Status != "error" || len(res.Errors) != 1 {
		t.Fatalf("res = %+v", res)
	}

	entries, _, _ := audit.List(context.Background(), auditlog.Filter{})
	if entries[0].Status != domain.StatusFailed {
		t.Fatalf("audit status = %q, want FAILED", entries[0].Status)
	}
}

func TestExecuteUpdateWithoutCatalog(t *testing.T) {
	svc, _ := newTestService(nil, nil, nil)

	_, err := svc.ExecuteUpdate(context.Background(), "p1", "v1", 10)
	if !errors.Is(err, catalog.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestSyncPageFullPipeline(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", Title: "Chateau Margaux 2018", Cost: fptr(40), CurrentPrice: fptr(115)},
		{ProductID: "p2", VariantID: "v2", Title: "Opus One 2019", Cost: fptr(50), CurrentPrice: fptr(118.8)},
		{ProductID: "p3", VariantID: "v3", Title: "Sassicaia 2020", Cost: fptr(30), CurrentPrice: fptr(100)},
	})
	cat.Reject = map[string]string{"v3": "blocked"}

	shopping := &stubSource{obs: shoppingObs(120)}
	svc, audit := newTestService(cat, shopping, nil)

	report, err := svc.SyncPage(context.Background(), 10, "", 2)
	if err != nil {
		t.Fatalf("SyncPage: %v", err)
	}

	if report.Processed != 3 {
		t.Fatalf("processed = %d, want 3", report.Processed)
	}
	// v1 updates to 118.8, v2 already sits at 118.8 (skip), v3 is rejected
	if report.Updated != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.HasMore {
		t.Fatalf("single page should not report more")
	}
	if report.RunID == "" {
		t.Fatalf("run id missing")
	}

	if got, _ := cat.Price("v1"); got != 118.8 {
		t.Fatalf("v1 price = %v, want 118.8", got)
	}
	if got, _ := cat.Price("v2"); got != 118.8 {
		t.Fatalf("v2 price = %v, must be untouched", got)
	}

	_, total, _ := audit.List(context.Background(), auditlog.Filter{})
	if total != 3 {
		t.Fatalf("audit entries = %d, want 3", total)
	}
}

func TestSyncPagePagination(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]domain.SyncTarget{
		{ProductID: "p1", VariantID: "v1", Title: "A", Cost: fptr(10), CurrentPrice: fptr(13)},
		{ProductID: "p2", VariantID: "v2", Title: "B", Cost: fptr(10), CurrentPrice: fptr(13)},
		{ProductID: "p3", VariantID: "v3", Title: "C", Cost: fptr(10), CurrentPrice: fptr(13)},
	})
	svc, _ := newTestService(cat, nil, nil)

	first, err := svc.SyncPage(context.Background(), 2, "", 1)
	if err != nil {
		t.Fatalf("SyncPage: %v", err)
	}
	if !first.HasMore || first.NextCursor == "" {
		t.Fatalf("first page = %+v, want more", first)
	}

	second, err := svc.SyncPage(context.Background(), 2, first.NextCursor, 1)
	if err != nil {
		t.Fatalf("SyncPage second: %v", err)
	}
	if second.Processed != 1 || second.HasMore {
		t.Fatalf("second page = %+v", second)
	}
}

func TestFetchCandidatesWithoutCatalog(t *testing.T) {
	svc, _ := newTestService(nil, nil, nil)

	_, err := svc.FetchCandidates(context.Background(), 10, "")
	if !errors.Is(err, catalog.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}
