package types

import "time"

// Bar is one day of market data for a symbol.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// LimitStatus is the daily price-band state of a symbol. A symbol at
// limit-up cannot be bought; a symbol at limit-down cannot be sold.
type LimitStatus string

const (
	LimitStatusNone LimitStatus = "NONE"
	LimitStatusUp   LimitStatus = "LIMIT_UP"
	LimitStatusDown LimitStatus = "LIMIT_DOWN"
)

// DividendEvent is a per-share cash dividend paid on its ex-date.
// The amount is pre-tax.
type DividendEvent struct {
	Symbol   string    `yaml:"symbol" json:"symbol"`
	ExDate   time.Time `yaml:"ex_date" json:"ex_date"`
	PerShare float64   `yaml:"per_share" json:"per_share"`
}
