package pricing

import (
	"fmt"
	"sort"

	"github.com/vinoprice/pricesync/internal/domain"
)

const (
	// CompetitiveUndercut is applied to the aggregated competitor signal.
	CompetitiveUndercut = 0.99

	// ActionEpsilon is the smallest price delta worth pushing downstream.
	ActionEpsilon = 0.01

	// DefaultFloorMargin protects profitability: floor = cost * margin.
	DefaultFloorMargin = 1.3
)

// DecideInput carries everything the policy may consider. Nil pointers mean
// "not available". ManualPrice bypasses competitor discovery entirely.
type DecideInput struct {
	CompetitorPrice *float64
	Cost            *float64
	CurrentPrice    *float64
	ManualPrice     *float64
	FloorMargin     float64
}

// Decide is the pure pricing policy. Identical inputs always yield identical
// output; it reads no state and writes none.
func Decide(in DecideInput) domain.PricingDecision {
	margin := in.FloorMargin
	if margin <= 0 {
		margin = DefaultFloorMargin
	}

	if in.ManualPrice != nil {
		d := domain.PricingDecision{
			RecommendedPrice: ptr(Round2(*in.ManualPrice)),
			Strategy:         domain.StrategyManualInput,
			Reason:           "manual unit price supplied",
		}
		d.MarginPercent = marginPercent(d.RecommendedPrice, in.Cost)
		return d
	}

	var floorPrice *float64
	if in.Cost != nil {
		floorPrice = ptr(Round2(*in.Cost * margin))
	}

	if in.CompetitorPrice != nil {
		competitive := Round2(*in.CompetitorPrice * CompetitiveUndercut)

		recommended := competitive
		strategy := domain.StrategyCompetitive
		reason := fmt.Sprintf("1%% below competitor price ($%.2f)", *in.CompetitorPrice)

		if floorPrice != nil && *floorPrice > competitive {
			recommended = *floorPrice
			strategy = domain.StrategyFloor
			reason = fmt.Sprintf("protecting minimum margin of %.0f%%", (margin-1)*100)
		}

		d := domain.PricingDecision{
			RecommendedPrice: ptr(recommended),
			Strategy:         strategy,
			Reason:           reason,
			CompetitivePrice: ptr(competitive),
			FloorPrice:       floorPrice,
		}
		d.MarginPercent = marginPercent(d.RecommendedPrice, in.Cost)
		return d
	}

	if floorPrice != nil {
		d := domain.PricingDecision{
			RecommendedPrice: floorPrice,
			Strategy:         domain.StrategyFloorOnly,
			Reason:           "no competitor price found; pricing at cost floor",
			FloorPrice:       floorPrice,
		}
		d.MarginPercent = marginPercent(d.RecommendedPrice, in.Cost)
		return d
	}

	return domain.PricingDecision{
		Strategy: domain.StrategyMissingCost,
		Reason:   "no competitor price and no cost available",
	}
}

// DecideAction compares the recommended price against the live price. A nil
// current price always requires an update.
func DecideAction(newPrice float64, currentPrice *float64) domain.SyncAction {
	if currentPrice == nil {
		return domain.ActionUpdate
	}
	delta := newPrice - *currentPrice
	if delta < 0 {
		delta = -delta
	}
	if delta > ActionEpsilon {
		return domain.ActionUpdate
	}
	return domain.ActionSkip
}

// StepUp picks a batch price from raw (uncleaned) competitor prices: the
// lowest competitor above cost whose 1% undercut still clears the floor.
// Falls back to the floor when no competitor qualifies.
func StepUp(rawPrices []float64, cost float64, floorMargin float64) (float64, domain.PricingStrategy) {
	if floorMargin <= 0 {
		floorMargin = DefaultFloorMargin
	}
	floorPrice := Round2(cost * floorMargin)

	candidates := make([]float64, 0, len(rawPrices))
	for _, p := range rawPrices {
		if p > cost {
			candidates = append(candidates, p)
		}
	}
	sort.Float64s(candidates)

	for _, p := range candidates {
		suggested := Round2(p * CompetitiveUndercut)
		if suggested >= floorPrice {
			return suggested, domain.StrategyStepUp
		}
	}

	return floorPrice, domain.StrategyFloor
}

func marginPercent(recommended *float64, cost *float64) *float64 {
	if recommended == nil || cost == nil || *cost == 0 {
		return nil
	}
	return ptr(Round1(((*recommended - *cost) / *cost) * 100))
}

func ptr(v float64) *float64 { return &v }
