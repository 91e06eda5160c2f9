package domain

// PriceSource identifies which adapter produced an observation.
type PriceSource string

const (
	SourceShopping   PriceSource = "shopping"
	SourceOrganic    PriceSource = "organic"
	SourceStorefront PriceSource = "storefront"
)

// PriceObservation is one competitor price attributed to a single external
// source for a given query. Observations are ephemeral: adapters produce them,
// the aggregator consumes them, nothing persists them.
type PriceObservation struct {
	Source PriceSource `json:"source"`
	Price  float64     `json:"price"`
	Query  string      `json:"query"`
	Link   string      `json:"link,omitempty"`
	Domain string      `json:"domain,omitempty"`
}

// AggregatedPriceSignal is the reduced view of all observations for one query.
// ModePrice is nil when nothing survives cleaning.
type AggregatedPriceSignal struct {
	RawPrices     []float64           `json:"raw_prices"`
	CleanedPrices []float64           `json:"cleaned_prices"`
	ModePrice     *float64            `json:"mode_price,omitempty"`
	MedianPrice   *float64            `json:"median_price,omitempty"`
	SourceCounts  map[PriceSource]int `json:"source_counts"`
}
