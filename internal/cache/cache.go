package cache

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

// Cache is the minimal contract shared by per-run caches.
type Cache interface {
	Reset()
}

// DailyCache holds values whose validity is bounded by the simulated trading
// day: the portfolio valuation, per-symbol bars, and memoized indicator
// results. Advancing the date clears everything date-scoped.
type DailyCache struct {
	date           optional.Option[time.Time]
	portfolioValue optional.Option[float64]
	indicators     map[string]float64
	otherData      map[string]any
}

func NewDailyCache() *DailyCache {
	return &DailyCache{
		date:           optional.None[time.Time](),
		portfolioValue: optional.None[float64](),
		indicators:     make(map[string]float64),
		otherData:      make(map[string]any),
	}
}

// Reset implements cache.Cache.
func (c *DailyCache) Reset() {
	c.date = optional.None[time.Time]()
	c.portfolioValue = optional.None[float64]()
	c.indicators = make(map[string]float64)
	c.otherData = make(map[string]any)
}

// SetDate advances the cache to the given simulated date. A date change
// invalidates all date-scoped entries.
func (c *DailyCache) SetDate(date time.Time) {
	if c.date.IsSome() && c.date.Unwrap().Equal(date) {
		return
	}

	c.date = optional.Some(date)
	c.portfolioValue = optional.None[float64]()
	c.indicators = make(map[string]float64)
}

// Date returns the simulated date the cache is scoped to.
func (c *DailyCache) Date() optional.Option[time.Time] {
	return c.date
}

// PortfolioValue returns the cached portfolio valuation for the current date.
func (c *DailyCache) PortfolioValue() optional.Option[float64] {
	return c.portfolioValue
}

// SetPortfolioValue stores the portfolio valuation for the current date.
func (c *DailyCache) SetPortfolioValue(value float64) {
	c.portfolioValue = optional.Some(value)
}

// InvalidatePortfolioValue drops the cached valuation. Called after any
// mutation of cash or positions.
func (c *DailyCache) InvalidatePortfolioValue() {
	c.portfolioValue = optional.None[float64]()
}

// IndicatorKey builds the memoization key for an indicator computed over a
// symbol with a window length.
func IndicatorKey(name, symbol string, window int) string {
	return fmt.Sprintf("%s:%s:%d", name, symbol, window)
}

// Indicator returns a memoized indicator value for the current date.
func (c *DailyCache) Indicator(key string) (float64, bool) {
	v, ok := c.indicators[key]
	return v, ok
}

// SetIndicator memoizes an indicator value for the current date.
func (c *DailyCache) SetIndicator(key string, value float64) {
	c.indicators[key] = value
}

// Set stores run-scoped strategy data by key. Not cleared on date change.
func (c *DailyCache) Set(key string, value any) {
	c.otherData[key] = value
}

// Get returns run-scoped strategy data by key.
func (c *DailyCache) Get(key string) (any, bool) {
	value, ok := c.otherData[key]
	return value, ok
}
