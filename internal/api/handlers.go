package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/syncer"
)

// CandidatesHandler serves stage 1: one page of catalog variants.
type CandidatesHandler struct {
	Syncer       *syncer.Service
	Enabled      bool
	DefaultLimit int
}

func (h CandidatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.Enabled {
		writeError(w, http.StatusForbidden, "price_sync_disabled", "price sync feature is disabled")
		return
	}

	limit := h.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	page, err := h.Syncer.FetchCandidates(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredentials) {
			writeError(w, http.StatusServiceUnavailable, "missing_credentials", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "fetch_candidates_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// AnalyzeHandler serves stage 2: competitor price discovery across sources.
type AnalyzeHandler struct {
	Syncer *syncer.Service
}

func (h AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseAnalyzeRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.Syncer.Analyze(r.Context(), syncer.AnalyzeInput{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		ProductTitle: req.ProductTitle,
		ProductName:  req.ProductName,
		Vintage:      req.Vintage,
		Cost:         req.Cost,
		CurrentPrice: req.CurrentPrice,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "analyze_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// CalculateTargetHandler serves stage 3: pricing policy plus audit entry.
type CalculateTargetHandler struct {
	Syncer *syncer.Service
}

type calculateTargetResponse struct {
	domain.PricingDecision
	ProductID    string            `json:"product_id,omitempty"`
	VariantID    string            `json:"variant_id,omitempty"`
	ProductTitle string            `json:"product_title,omitempty"`
	Action       domain.SyncAction `json:"action"`
	NewPrice     *float64          `json:"new_price,omitempty"`
	OldPrice     *float64          `json:"old_price,omitempty"`
}

func (h CalculateTargetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseCalculateTargetRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res := h.Syncer.CalculateTarget(r.Context(), syncer.CalculateInput{
		ProductID:       req.ProductID,
		VariantID:       req.VariantID,
		ProductTitle:    req.ProductTitle,
		CompetitorPrice: req.CompetitorPrice,
		Cost:            req.Cost,
		CurrentPrice:    req.CurrentPrice,
		ManualPrice:     req.ManualPrice,
	})

	writeJSON(w, http.StatusOK, calculateTargetResponse{
		PricingDecision: res.Decision,
		ProductID:       res.ProductID,
		VariantID:       res.VariantID,
		ProductTitle:    res.ProductTitle,
		Action:          res.Action,
		NewPrice:        res.NewPrice,
		OldPrice:        res.OldPrice,
	})
}

// ExecuteUpdateHandler serves stage 4: the catalog mutation and audit
// resolution.
type ExecuteUpdateHandler struct {
	Syncer *syncer.Service
}

func (h ExecuteUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseExecuteUpdateRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := h.Syncer.ExecuteUpdate(r.Context(), req.ProductID, req.VariantID, req.NewPrice)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredentials) {
			writeError(w, http.StatusServiceUnavailable, "missing_credentials", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "execute_update_failed", err.Error())
		return
	}

	if res.Status != "success" {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LogsHandler lists audit entries, newest first, optionally filtered by
// status.
type LogsHandler struct {
	Store auditlog.Store
}

func (h LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, total, err := h.Store.List(r.Context(), auditlog.Filter{
		Limit:  limit,
		Offset: offset,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_logs_failed", err.Error())
		return
	}
	if entries == nil {
		entries = []auditlog.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"logs":   entries,
	})
}
