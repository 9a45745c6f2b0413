package types

import "time"

// Position is a linear long equity holding. Amount always equals the sum of
// the amounts of its backing lots.
type Position struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	// Amount is the held share count. Short selling is not modeled, so the
	// amount is never negative.
	Amount int64 `yaml:"amount" json:"amount"`
	// CostBasis is the volume-weighted average acquisition price.
	CostBasis float64 `yaml:"cost_basis" json:"cost_basis"`
	// LastPrice is the most recent mark or trade price.
	LastPrice float64 `yaml:"last_price" json:"last_price"`
	// MarketValue is Amount * LastPrice as of the latest mark.
	MarketValue float64 `yaml:"market_value" json:"market_value"`
}

// Lot records one acquisition of shares. Lots are created on every buy,
// never merged, and consumed oldest-first on sells for dividend-tax
// recomputation.
type Lot struct {
	// Date is the acquisition date.
	Date time.Time `yaml:"date" json:"date"`
	// Amount is the share count remaining in the lot.
	Amount int64 `yaml:"amount" json:"amount"`
	// Dividends holds the per-event dividend amounts credited to this lot
	// (pre-tax, lot total per event).
	Dividends []float64 `yaml:"dividends" json:"dividends"`
	// DividendsTotal is the running pre-tax dividend total for the lot.
	DividendsTotal float64 `yaml:"dividends_total" json:"dividends_total"`
}
