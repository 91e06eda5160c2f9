package domain

// SyncTarget is one catalog variant eligible for a price re-evaluation.
// Cost and CurrentPrice are nil when the catalog does not carry them.
type SyncTarget struct {
	ProductID    string   `json:"product_id"`
	VariantID    string   `json:"variant_id"`
	SKU          string   `json:"sku,omitempty"`
	Title        string   `json:"title"`
	Cost         *float64 `json:"cost,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`
}
