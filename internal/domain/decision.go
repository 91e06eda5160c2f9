package domain

// PricingStrategy names which rule produced a recommended price.
type PricingStrategy string

const (
	StrategyCompetitive PricingStrategy = "competitive"
	StrategyFloor       PricingStrategy = "floor"
	StrategyFloorOnly   PricingStrategy = "floor_only"
	StrategyManualInput PricingStrategy = "manual_input"
	StrategyMissingCost PricingStrategy = "missing_cost"

	// StrategyStepUp is used by the quick batch path: the lowest competitor
	// price above cost whose undercut still clears the floor.
	StrategyStepUp PricingStrategy = "competitive_step_up"
)

// PricingDecision is the pure output of the pricing policy. It is never
// mutated after creation.
type PricingDecision struct {
	RecommendedPrice *float64        `json:"recommended_price,omitempty"`
	Strategy         PricingStrategy `json:"strategy"`
	Reason           string          `json:"reason"`
	CompetitivePrice *float64        `json:"competitive_price,omitempty"`
	FloorPrice       *float64        `json:"floor_price,omitempty"`
	MarginPercent    *float64        `json:"margin_percent,omitempty"`
}
