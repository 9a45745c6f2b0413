package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/blotter"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/lifecycle"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/marketdata"
	"github.com/xwinwin/SimTradeLab/internal/portfolio"
	"github.com/xwinwin/SimTradeLab/internal/stats"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/internal/utils"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

// Context is the strategy's handle into the running simulation. Every
// operation is validated against the current lifecycle phase and run mode
// before it executes, and every call is recorded in the audit trail.
type Context struct {
	log        *logger.Logger
	controller *lifecycle.Controller
	ledger     *portfolio.Ledger
	blotter    *blotter.Blotter
	collector  *stats.Collector
	cache      *cache.DailyCache

	// view is the market data window of the current phase; the engine swaps
	// it on every phase change.
	view *marketdata.DataView

	universe     []string
	parameters   map[string]any
	benchmark    optional.Option[string]
	previousDate optional.Option[time.Time]
}

func newContext(
	log *logger.Logger,
	controller *lifecycle.Controller,
	ledger *portfolio.Ledger,
	tradeBlotter *blotter.Blotter,
	collector *stats.Collector,
	dailyCache *cache.DailyCache,
) *Context {
	return &Context{
		log:        log,
		controller: controller,
		ledger:     ledger,
		blotter:    tradeBlotter,
		collector:  collector,
		cache:      dailyCache,
		parameters: make(map[string]any),
		benchmark:  optional.None[string](),
	}
}

// guard validates the operation against the current phase and mode. The
// returned error carries the permission code; callers return it unchanged.
func (c *Context) guard(operation string) error {
	result := c.controller.ValidateCall(operation)
	if !result.IsValid {
		err := errors.New(errors.ErrCodePermissionViolation, result.ErrorMessage)
		c.controller.RecordCall(operation, false, err)

		return err
	}

	return nil
}

// Log returns the structured logger for strategy use.
func (c *Context) Log() *logger.Logger {
	c.controller.RecordCall("log", true, nil)

	return c.log
}

// Cache returns the run-scoped strategy cache.
func (c *Context) Cache() *cache.DailyCache {
	return c.cache
}

// OrderShares submits a signed share order at the market close. A zero
// amount is a no-op returning None.
func (c *Context) OrderShares(symbol string, amount int64) (optional.Option[string], error) {
	return c.orderWithLimit("order", symbol, amount, optional.None[float64]())
}

// OrderSharesLimit submits a signed share order at a limit price.
func (c *Context) OrderSharesLimit(symbol string, amount int64, limit float64) (optional.Option[string], error) {
	return c.orderWithLimit("order", symbol, amount, optional.Some(limit))
}

// OrderTarget submits whatever order moves the position to the target share
// count. Holding the target already is a no-op returning None.
func (c *Context) OrderTarget(symbol string, target int64) (optional.Option[string], error) {
	if target < 0 {
		err := errors.New(errors.ErrCodeInvalidAmount, "target amount must be non-negative")
		c.controller.RecordCall("order_target", false, err)

		return optional.None[string](), err
	}

	held := int64(0)
	if pos := c.ledger.Position(symbol); pos.IsSome() {
		held = pos.Unwrap().Amount
	}

	return c.orderWithLimit("order_target", symbol, target-held, optional.None[float64]())
}

// OrderValue submits a buy order sized to a cash value, commission included.
// The value is capped at the free cash balance. A value too small for a
// single share is a no-op returning None.
func (c *Context) OrderValue(symbol string, value float64) (optional.Option[string], error) {
	if value <= 0 {
		err := errors.New(errors.ErrCodeInvalidAmount, "order value must be positive")
		c.controller.RecordCall("order_value", false, err)

		return optional.None[string](), err
	}

	if c.view == nil {
		err := errors.New(errors.ErrCodeDataNotFound, "no market data in this phase")
		c.controller.RecordCall("order_value", false, err)

		return optional.None[string](), err
	}

	price, err := c.view.Close(symbol)
	if err != nil {
		c.controller.RecordCall("order_value", false, err)

		return optional.None[string](), err
	}

	shares := utils.SharesForValue(c.ledger.Cash(), value, price, c.blotter.Fees())

	return c.orderWithLimit("order_value", symbol, shares, optional.None[float64]())
}

func (c *Context) orderWithLimit(operation, symbol string, amount int64, limit optional.Option[float64]) (optional.Option[string], error) {
	if err := c.guard(operation); err != nil {
		return optional.None[string](), err
	}

	id, err := c.blotter.Submit(symbol, amount, limit)
	c.controller.RecordCall(operation, err == nil, err)

	return id, err
}

// CancelOrder cancels a resting order.
func (c *Context) CancelOrder(orderID string) error {
	if err := c.guard("cancel_order"); err != nil {
		return err
	}

	err := c.blotter.CancelOrder(orderID)
	c.controller.RecordCall("cancel_order", err == nil, err)

	return err
}

// SetCommission configures the A-share fee model.
func (c *Context) SetCommission(ratio, minCommission, stampTaxRate float64) error {
	if err := c.guard("set_commission"); err != nil {
		return err
	}

	if ratio < 0 || minCommission < 0 || stampTaxRate < 0 {
		err := errors.New(errors.ErrCodeInvalidParameter, "commission parameters must be non-negative")
		c.controller.RecordCall("set_commission", false, err)

		return err
	}

	c.blotter.SetCommission(&commission_fee.ChinaAShareCommissionFee{
		Ratio:         ratio,
		MinCommission: minCommission,
		StampTaxRate:  stampTaxRate,
	})
	c.controller.RecordCall("set_commission", true, nil)

	return nil
}

// SetSlippage configures relative slippage.
func (c *Context) SetSlippage(ratio float64) error {
	if err := c.guard("set_slippage"); err != nil {
		return err
	}

	err := c.blotter.SetSlippage(ratio)
	c.controller.RecordCall("set_slippage", err == nil, err)

	return err
}

// SetFixedSlippage configures absolute per-share slippage.
func (c *Context) SetFixedSlippage(amount float64) error {
	if err := c.guard("set_fixed_slippage"); err != nil {
		return err
	}

	err := c.blotter.SetFixedSlippage(amount)
	c.controller.RecordCall("set_fixed_slippage", err == nil, err)

	return err
}

// SetVolumeRatio configures the volume cap fraction.
func (c *Context) SetVolumeRatio(ratio float64) error {
	if err := c.guard("set_volume_ratio"); err != nil {
		return err
	}

	err := c.blotter.SetVolumeRatio(ratio)
	c.controller.RecordCall("set_volume_ratio", err == nil, err)

	return err
}

// SetLimitMode configures the volume cap mode.
func (c *Context) SetLimitMode(mode blotter.LimitMode) error {
	if err := c.guard("set_limit_mode"); err != nil {
		return err
	}

	err := c.blotter.SetLimitMode(mode)
	c.controller.RecordCall("set_limit_mode", err == nil, err)

	return err
}

// SetBenchmark sets the benchmark symbol.
func (c *Context) SetBenchmark(symbol string) error {
	if err := c.guard("set_benchmark"); err != nil {
		return err
	}

	c.benchmark = optional.Some(symbol)
	c.controller.RecordCall("set_benchmark", true, nil)

	return nil
}

// Benchmark returns the configured benchmark symbol, if any.
func (c *Context) Benchmark() optional.Option[string] {
	return c.benchmark
}

// SetUniverse replaces the tradable symbol set.
func (c *Context) SetUniverse(symbols ...string) error {
	if err := c.guard("set_universe"); err != nil {
		return err
	}

	c.universe = append([]string(nil), symbols...)
	c.controller.RecordCall("set_universe", true, nil)

	return nil
}

// Universe returns the tradable symbol set.
func (c *Context) Universe() []string {
	return append([]string(nil), c.universe...)
}

// SetParameters replaces the strategy parameter map.
func (c *Context) SetParameters(parameters map[string]any) error {
	if err := c.guard("set_parameters"); err != nil {
		return err
	}

	c.parameters = make(map[string]any, len(parameters))
	for k, v := range parameters {
		c.parameters[k] = v
	}

	c.controller.RecordCall("set_parameters", true, nil)

	return nil
}

// Parameter returns a strategy parameter by key.
func (c *Context) Parameter(key string) (any, bool) {
	value, ok := c.parameters[key]

	return value, ok
}

// Position returns the position in the symbol, if any.
func (c *Context) Position(symbol string) (optional.Option[types.Position], error) {
	if err := c.guard("get_position"); err != nil {
		return optional.None[types.Position](), err
	}

	c.controller.RecordCall("get_position", true, nil)

	return c.ledger.Position(symbol), nil
}

// Positions returns every open position keyed by symbol.
func (c *Context) Positions() (map[string]types.Position, error) {
	if err := c.guard("get_positions"); err != nil {
		return nil, err
	}

	c.controller.RecordCall("get_positions", true, nil)

	return c.ledger.Positions(), nil
}

// OpenOrders returns the resting orders.
func (c *Context) OpenOrders() ([]types.Order, error) {
	if err := c.guard("get_open_orders"); err != nil {
		return nil, err
	}

	c.controller.RecordCall("get_open_orders", true, nil)

	return c.blotter.OpenOrders(), nil
}

// Order returns an order by ID, open or retired.
func (c *Context) Order(orderID string) (optional.Option[types.Order], error) {
	if err := c.guard("get_order"); err != nil {
		return optional.None[types.Order](), err
	}

	c.controller.RecordCall("get_order", true, nil)

	return c.blotter.Order(orderID), nil
}

// Cash returns the free cash balance.
func (c *Context) Cash() float64 {
	return c.ledger.Cash()
}

// CurrentDate returns the simulated date being processed.
func (c *Context) CurrentDate() time.Time {
	return c.ledger.CurrentDate()
}

// PreviousDate returns the trading day before the current one, None on the
// first day of the calendar.
func (c *Context) PreviousDate() optional.Option[time.Time] {
	return c.previousDate
}

// setPreviousDate records the calendar's previous trading day on day change.
func (c *Context) setPreviousDate(date optional.Option[time.Time]) {
	c.previousDate = date
}

// PortfolioValue returns cash plus positions marked at the current phase's
// prices.
func (c *Context) PortfolioValue() float64 {
	return c.ledger.PortfolioValue(c.priceFunc())
}

// Record stores a named series value on the current day's statistics.
func (c *Context) Record(key string, value float64) error {
	if err := c.guard("record"); err != nil {
		return err
	}

	c.collector.Record(key, value)
	c.controller.RecordCall("record", true, nil)

	return nil
}

// CheckLimit reports the price band state of the symbol at the current
// phase's anchor date.
func (c *Context) CheckLimit(symbol string) (types.LimitStatus, error) {
	if err := c.guard("check_limit"); err != nil {
		return types.LimitStatusNone, err
	}

	if c.view == nil {
		err := errors.New(errors.ErrCodeDataNotFound, "no market data in this phase")
		c.controller.RecordCall("check_limit", false, err)

		return types.LimitStatusNone, err
	}

	status, err := c.view.LimitStatus(symbol)
	c.controller.RecordCall("check_limit", err == nil, err)

	return status, err
}

// priceFunc marks symbols at the current view's close, falling back to cost
// basis inside the ledger when no view is active.
func (c *Context) priceFunc() portfolio.PriceFunc {
	view := c.view

	return func(symbol string) (float64, error) {
		if view == nil {
			return 0, errors.New(errors.ErrCodeDataNotFound, "no market data in this phase")
		}

		return view.Close(symbol)
	}
}

// setView swaps the market data window on phase change.
func (c *Context) setView(view *marketdata.DataView) {
	c.view = view
}
