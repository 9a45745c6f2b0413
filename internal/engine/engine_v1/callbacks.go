package engine

import (
	"github.com/xwinwin/SimTradeLab/internal/marketdata"
	"github.com/xwinwin/SimTradeLab/internal/types"
)

// Callbacks are the strategy entry points. HandleData is required; the rest
// may be nil. The engine always advances the lifecycle
// phase before looking a callback up, so phase accounting stays correct even
// for phases the strategy does not implement.
type Callbacks struct {
	// Initialize runs once before the first simulated day.
	Initialize func(*Context) error

	// BeforeTradingStart runs pre-open with a market data view lagged one
	// trading day; the current day's prices are not observable yet.
	BeforeTradingStart func(*Context, *marketdata.DataView) error

	// HandleData runs during the trading day. Orders submitted here resolve
	// at the day's close.
	HandleData func(*Context, *marketdata.DataView) error

	// AfterTradingEnd runs post-close. Failures here are logged, not fatal.
	AfterTradingEnd func(*Context, *marketdata.DataView) error

	// TickData serves intraday data in live runs; the daily simulation loop
	// never invokes it.
	TickData func(*Context, *marketdata.DataView) error

	// OnOrderResponse and OnTradeResponse serve live order flow; the daily
	// simulation loop never invokes them.
	OnOrderResponse func(*Context, types.Order) error
	OnTradeResponse func(*Context, types.Order) error
}
