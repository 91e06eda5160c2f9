package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/vinoprice/pricesync/internal/batch"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/pricing"
	"github.com/vinoprice/pricesync/internal/sources"
)

func defaultQueryFor(name, vintage string) string {
	return sources.BuildSearchQuery(name, vintage)
}

type rawPriceSource interface {
	FetchRaw(ctx context.Context, query string) ([]domain.PriceObservation, error)
}

type contextSource interface {
	CompetitorContext(ctx context.Context, productName, vintage string) (string, error)
}

// BatchPricingHandler prices a caller-supplied list of items in one shot:
// raw shopping prices, step-up selection, no catalog round trip. Items fail
// independently under the batch concurrency ceiling.
type BatchPricingHandler struct {
	Shopping    rawPriceSource
	FloorMargin float64
	Concurrency int

	// QueryFor builds the search string; injectable for tests.
	QueryFor func(name, vintage string) string
}

type batchItemResult struct {
	Status           string                 `json:"status"`
	ProductName      string                 `json:"product_name"`
	Vintage          string                 `json:"vintage,omitempty"`
	RecommendedPrice *float64               `json:"recommended_price,omitempty"`
	Strategy         domain.PricingStrategy `json:"strategy,omitempty"`
	Message          string                 `json:"message,omitempty"`
}

func (h BatchPricingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.Shopping == nil {
		// No item could possibly succeed; refuse the whole batch.
		writeError(w, http.StatusServiceUnavailable, "missing_credentials", "shopping search is not configured")
		return
	}

	req, err := parseBatchPricingRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	results := batch.Run(r.Context(), h.Concurrency, len(req.Items), func(ctx context.Context, i int) (batchItemResult, error) {
		return h.priceItem(ctx, req.Items[i])
	})

	out := make([]batchItemResult, len(results))
	for i, res := range results {
		if res.Err != nil {
			out[i] = batchItemResult{
				Status:      "error",
				ProductName: req.Items[i].ProductName,
				Message:     res.Err.Error(),
			}
			continue
		}
		out[i] = res.Value
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"run_id":  "batch_" + uuid.NewString(),
		"total":   len(req.Items),
		"results": out,
	})
}

func (h BatchPricingHandler) priceItem(ctx context.Context, item batchPricingItem) (batchItemResult, error) {
	if item.Err != nil {
		return batchItemResult{}, item.Err
	}

	res := batchItemResult{
		Status:      "success",
		ProductName: item.ProductName,
		Vintage:     item.Vintage,
	}

	// Manual price short-circuits discovery entirely.
	if item.ManualPrice != nil {
		p := pricing.Round2(*item.ManualPrice)
		res.RecommendedPrice = &p
		res.Strategy = domain.StrategyManualInput
		return res, nil
	}

	queryFor := h.QueryFor
	if queryFor == nil {
		queryFor = defaultQueryFor
	}

	obs, err := h.Shopping.FetchRaw(ctx, queryFor(item.ProductName, item.Vintage))
	if err != nil {
		return batchItemResult{}, err
	}

	prices := make([]float64, 0, len(obs))
	for _, o := range obs {
		prices = append(prices, o.Price)
	}

	price, strategy := pricing.StepUp(prices, *item.Cost, h.FloorMargin)
	res.RecommendedPrice = &price
	res.Strategy = strategy
	return res, nil
}

// ContextHandler exposes the organic adapter's competitor description
// contexts for the external content pipeline.
type ContextHandler struct {
	Organic contextSource
}

func (h ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.Organic == nil {
		writeError(w, http.StatusServiceUnavailable, "missing_credentials", "organic search is not configured")
		return
	}

	obj, err := decodeObject(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	name := obj.pickString("product_name", "name", "product_title", "title")
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "product_name is required")
		return
	}
	vintage := obj.pickString("vintage", "Vintage")

	text, err := h.Organic.CompetitorContext(r.Context(), name, vintage)
	if err != nil {
		writeError(w, http.StatusBadGateway, "context_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product_name": name,
		"vintage":      vintage,
		"context":      text,
	})
}
