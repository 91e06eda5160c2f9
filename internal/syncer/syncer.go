// Package syncer implements the four price sync pipeline stages. Each stage
// is independently invocable so an external workflow driver can checkpoint
// between them: fetch candidates, analyze competitor prices, calculate the
// target price, execute the update.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/vinoprice/pricesync/internal/auditlog"
	"github.com/vinoprice/pricesync/internal/catalog"
	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/events"
	"github.com/vinoprice/pricesync/internal/pricing"
	"github.com/vinoprice/pricesync/internal/sources"
)

type Service struct {
	Catalog    catalog.Client
	Shopping   sources.PriceSource
	Storefront sources.PriceSource
	Audit      auditlog.Store
	Events     events.Publisher
	Logger     *log.Logger

	FloorMargin float64
	BinSize     float64
}

// FetchCandidates is stage 1: one page of catalog variants.
func (s *Service) FetchCandidates(ctx context.Context, limit int, cursor string) (catalog.Page, error) {
	if s.Catalog == nil {
		return catalog.Page{}, catalog.ErrMissingCredentials
	}
	return s.Catalog.FetchVariants(ctx, limit, cursor)
}

type AnalyzeInput struct {
	ProductID    string
	VariantID    string
	ProductTitle string
	ProductName  string
	Vintage      string
	Cost         *float64
	CurrentPrice *float64
}

type AnalyzeResult struct {
	ProductID    string                       `json:"product_id,omitempty"`
	VariantID    string                       `json:"variant_id,omitempty"`
	ProductTitle string                       `json:"product_title"`
	ProductName  string                       `json:"product_name"`
	Vintage      string                       `json:"vintage,omitempty"`
	SearchQuery  string                       `json:"search_query"`
	Cost         *float64                     `json:"cost,omitempty"`
	CurrentPrice *float64                     `json:"current_price,omitempty"`
	LowestPrice  *float64                     `json:"lowest_price,omitempty"`
	AllPrices    []float64                    `json:"all_prices"`
	Sources      map[string][]float64         `json:"sources"`
	Signal       domain.AggregatedPriceSignal `json:"signal"`
	Message      string                       `json:"message,omitempty"`
}

// Analyze is stage 2: run the shopping and storefront adapters concurrently
// and return the lowest observed price with per-source breakdowns. Name and
// vintage are heuristically extracted from the title when not supplied.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeResult, error) {
	name, vintage := in.ProductName, in.Vintage
	if name == "" || vintage == "" {
		extractedName, extractedVintage := sources.ExtractNameVintage(in.ProductTitle)
		if name == "" {
			name = extractedName
		}
		if vintage == "" {
			vintage = extractedVintage
		}
	}

	query := sources.BuildSearchQuery(name, vintage)
	if name == "" {
		query = sources.CleanTitle(in.ProductTitle)
	}

	var (
		wg            sync.WaitGroup
		shoppingObs   []domain.PriceObservation
		storefrontObs []domain.PriceObservation
	)

	if s.Shopping != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := s.Shopping.Fetch(ctx, query)
			if err != nil {
				s.logf("shopping source degraded for %q: %v", query, err)
				return
			}
			shoppingObs = obs
		}()
	}

	if s.Storefront != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := s.Storefront.Fetch(ctx, sources.CleanTitle(in.ProductTitle))
			if err != nil {
				s.logf("storefront source degraded for %q: %v", in.ProductTitle, err)
				return
			}
			storefrontObs = obs
		}()
	}

	wg.Wait()

	shoppingPrices := pricing.Clean(pricesOf(shoppingObs))
	storefrontPrices := pricesOf(storefrontObs)

	allPrices := append(append([]float64{}, shoppingPrices...), storefrontPrices...)

	res := AnalyzeResult{
		ProductID:    in.ProductID,
		VariantID:    in.VariantID,
		ProductTitle: in.ProductTitle,
		ProductName:  name,
		Vintage:      vintage,
		SearchQuery:  query,
		Cost:         in.Cost,
		CurrentPrice: in.CurrentPrice,
		AllPrices:    allPrices,
		Sources: map[string][]float64{
			"shopping":   shoppingPrices,
			"storefront": storefrontPrices,
		},
		Signal: pricing.Aggregate(append(shoppingObs, storefrontObs...), s.BinSize),
	}

	if len(allPrices) == 0 {
		res.Message = fmt.Sprintf("no prices found from any source for %q", query)
		return res, nil
	}

	lowest := allPrices[0]
	for _, p := range allPrices[1:] {
		if p < lowest {
			lowest = p
		}
	}
	res.LowestPrice = &lowest
	return res, nil
}

type CalculateInput struct {
	ProductID       string
	VariantID       string
	ProductTitle    string
	CompetitorPrice *float64
	Cost            *float64
	CurrentPrice    *float64
	ManualPrice     *float64
}

type CalculateResult struct {
	ProductID    string                 `json:"product_id,omitempty"`
	VariantID    string                 `json:"variant_id,omitempty"`
	ProductTitle string                 `json:"product_title,omitempty"`
	Decision     domain.PricingDecision `json:"decision"`
	Action       domain.SyncAction      `json:"action"`
	NewPrice     *float64               `json:"new_price,omitempty"`
	OldPrice     *float64               `json:"old_price,omitempty"`
	LogID        int64                  `json:"log_id,omitempty"`
}

// CalculateTarget is stage 3: apply the pricing policy, record the decision
// in the audit log, and report the action. Audit persistence is best-effort
// and never blocks the decision itself.
func (s *Service) CalculateTarget(ctx context.Context, in CalculateInput) CalculateResult {
	decision := pricing.Decide(pricing.DecideInput{
		CompetitorPrice: in.CompetitorPrice,
		Cost:            in.Cost,
		CurrentPrice:    in.CurrentPrice,
		ManualPrice:     in.ManualPrice,
		FloorMargin:     s.FloorMargin,
	})

	res := CalculateResult{
		ProductID:    in.ProductID,
		VariantID:    in.VariantID,
		ProductTitle: in.ProductTitle,
		Decision:     decision,
		OldPrice:     in.CurrentPrice,
	}

	if decision.RecommendedPrice == nil {
		res.Action = domain.ActionSkip
	} else {
		res.NewPrice = decision.RecommendedPrice
		res.Action = pricing.DecideAction(*decision.RecommendedPrice, in.CurrentPrice)
	}

	if s.Audit != nil && in.ProductID != "" {
		status := domain.StatusPending
		if res.Action == domain.ActionSkip {
			status = domain.StatusSkipped
		}

		id, err := s.Audit.Insert(ctx, auditlog.Entry{
			ProductID:    in.ProductID,
			VariantID:    in.VariantID,
			ProductTitle: in.ProductTitle,
			OldPrice:     in.CurrentPrice,
			NewPrice:     decision.RecommendedPrice,
			CompetitorPr: in.CompetitorPrice,
			Cost:         in.Cost,
			Action:       res.Action,
			Status:       status,
			Reason:       decision.Reason,
		})
		if err != nil {
			s.logf("audit write failed for variant %s: %v", in.VariantID, err)
		} else {
			res.LogID = id
		}
	}

	return res
}

type ExecuteResult struct {
	Status    string              `json:"status"` // success | error
	ProductID string              `json:"product_id"`
	VariantID string              `json:"variant_id"`
	NewPrice  float64             `json:"new_price"`
	Errors    []catalog.UserError `json:"errors,omitempty"`
}

// ExecuteUpdate is stage 4: push the price to the catalog and resolve the
// most recent pending audit entry for the variant.
func (s *Service) ExecuteUpdate(ctx context.Context, productID, variantID string, newPrice float64) (ExecuteResult, error) {
	if s.Catalog == nil {
		return ExecuteResult{}, catalog.ErrMissingCredentials
	}

	res := ExecuteResult{
		Status:    "success",
		ProductID: productID,
		VariantID: variantID,
		NewPrice:  newPrice,
	}

	err := s.Catalog.UpdateVariantPrice(ctx, productID, variantID, newPrice)

	var mutErr *catalog.MutationError
	switch {
	case err == nil:
		s.resolvePending(ctx, variantID, domain.StatusSuccess, "")
		s.publish(ctx, events.PriceChange{
			ProductID: productID,
			VariantID: variantID,
			NewPrice:  newPrice,
		})

	case errors.As(err, &mutErr):
		res.Status = "error"
		res.Errors = mutErr.Errors
		s.resolvePending(ctx, variantID, domain.StatusFailed, mutErr.Error())

	default:
		s.resolvePending(ctx, variantID, domain.StatusFailed, fmt.Sprintf("catalog mutation failed: %v", err))
		return ExecuteResult{}, err
	}

	return res, nil
}

func (s *Service) resolvePending(ctx context.Context, variantID string, status domain.SyncStatus, reason string) {
	if s.Audit == nil {
		return
	}
	found, err := s.Audit.ResolvePending(ctx, variantID, status, reason)
	if err != nil {
		s.logf("audit resolve failed for variant %s: %v", variantID, err)
	} else if !found {
		s.logf("no pending audit entry for variant %s", variantID)
	}
}

func (s *Service) publish(ctx context.Context, ev events.PriceChange) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishPriceChange(ctx, ev); err != nil {
		s.logf("price change event publish failed for variant %s: %v", ev.VariantID, err)
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func pricesOf(obs []domain.PriceObservation) []float64 {
	out := make([]float64, 0, len(obs))
	for _, o := range obs {
		out = append(out, o.Price)
	}
	return out
}
