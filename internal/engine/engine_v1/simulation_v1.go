package engine

import (
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/xwinwin/SimTradeLab/internal/blotter"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/lifecycle"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/marketdata"
	"github.com/xwinwin/SimTradeLab/internal/portfolio"
	"github.com/xwinwin/SimTradeLab/internal/stats"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SimulationEngineV1 drives a daily simulation: it walks the trading
// calendar, advances the lifecycle phase machine, invokes the strategy
// callbacks and resolves orders at each day's close.
type SimulationEngineV1 struct {
	config     SimulationEngineV1Config
	log        *logger.Logger
	source     marketdata.Source
	ownsSource bool

	controller *lifecycle.Controller
	ledger     *portfolio.Ledger
	blotter    *blotter.Blotter
	collector  *stats.Collector
	cache      *cache.DailyCache
	ctx        *Context

	callbacks Callbacks
}

func NewSimulationEngineV1() *SimulationEngineV1 {
	return &SimulationEngineV1{
		config: EmptyConfig(),
	}
}

// Initialize parses the YAML config and wires the run's collaborators.
func (e *SimulationEngineV1) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &e.config); err != nil {
		return errors.Wrap(errors.ErrCodeEngineConfigError, "failed to parse engine config", err)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	var loggerError error

	e.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	e.log.Debug("Simulation engine initialized",
		zap.Float64("starting_cash", e.config.StartingCash),
		zap.String("broker", string(e.config.Broker)),
	)

	e.cache = cache.NewDailyCache()
	e.controller = lifecycle.NewController(types.ModeBacktest, e.log)
	e.ledger = portfolio.NewLedger(e.config.StartingCash, e.cache, e.log)
	e.collector = stats.NewCollector(e.log)

	e.blotter = blotter.NewBlotter(e.ledger, e.log)
	e.blotter.SetCommission(commission_fee.GetCommissionFeeHandler(e.config.Broker))

	if err := e.blotter.SetSlippage(e.config.SlippageRatio); err != nil {
		return err
	}

	if err := e.blotter.SetVolumeRatio(e.config.VolumeRatio); err != nil {
		return err
	}

	if err := e.blotter.SetLimitMode(e.config.LimitMode); err != nil {
		return err
	}

	e.ctx = newContext(e.log, e.controller, e.ledger, e.blotter, e.collector, e.cache)

	if e.config.Benchmark.IsSome() {
		e.ctx.benchmark = e.config.Benchmark
	}

	return nil
}

// SetDataSource injects the market data dependency. When none is injected,
// Run opens an in-memory DuckDB source over the configured parquet paths.
func (e *SimulationEngineV1) SetDataSource(source marketdata.Source) {
	e.source = source
	e.ownsSource = false
}

// SetCallbacks installs the strategy entry points.
func (e *SimulationEngineV1) SetCallbacks(callbacks Callbacks) {
	e.callbacks = callbacks
}

// Context returns the strategy context of the run.
func (e *SimulationEngineV1) Context() *Context {
	return e.ctx
}

// Stats returns the per-day statistics collector.
func (e *SimulationEngineV1) Stats() *stats.Collector {
	return e.collector
}

// TradeLog returns every terminal order of the run, oldest first.
func (e *SimulationEngineV1) TradeLog() []types.Order {
	return e.blotter.TradeLog()
}

// Ledger returns the account state of the run.
func (e *SimulationEngineV1) Ledger() *portfolio.Ledger {
	return e.ledger
}

// LifecycleStats returns the operation audit counters.
func (e *SimulationEngineV1) LifecycleStats() lifecycle.CallStatistics {
	return e.controller.Statistics()
}

// GetConfigSchema returns the JSON schema of the engine config.
func (e *SimulationEngineV1) GetConfigSchema() (string, error) {
	return e.config.GenerateSchemaJSON()
}

// Run executes the simulation over every trading day of the configured
// period.
func (e *SimulationEngineV1) Run() error {
	if err := e.preflight(); err != nil {
		return err
	}

	defer e.closeOwnedSource()

	days, err := e.tradingDays()
	if err != nil {
		return err
	}

	if len(days) == 0 {
		return errors.New(errors.ErrCodeEngineNoTradingDays, "no trading days in the configured period")
	}

	e.log.Info("Simulation starting",
		zap.Int("trading_days", len(days)),
		zap.Time("first", days[0]),
		zap.Time("last", days[len(days)-1]),
	)

	if err := e.runPhase(lifecycle.PhaseInitialize, nil, func() error {
		if e.callbacks.Initialize == nil {
			return nil
		}

		return e.callbacks.Initialize(e.ctx)
	}); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(days)), "simulating")

	for _, day := range days {
		if err := e.runDay(day); err != nil {
			return err
		}

		if err := bar.Add(1); err != nil {
			e.log.Warn("Failed to update progress bar", zap.Error(err))
		}
	}

	e.logSummary()

	return nil
}

func (e *SimulationEngineV1) runDay(day time.Time) error {
	e.ledger.SetCurrentDate(day)

	previous, err := e.source.PreviousTradingDay(day)
	if err != nil {
		return err
	}

	e.ctx.setPreviousDate(previous)

	laggedView := marketdata.NewDataView(e.source, e.source, e.cache, day, true)
	sameDayView := marketdata.NewDataView(e.source, e.source, e.cache, day, false)

	// Pre-trade marks at the day's close.
	e.collector.BeginDay(day, e.ledger.PortfolioValue(e.closeOf(sameDayView)), e.ledger.OpenPositionCount())

	if err := e.runPhase(lifecycle.PhaseBeforeTradingStart, laggedView, func() error {
		if e.callbacks.BeforeTradingStart == nil {
			return nil
		}

		return e.callbacks.BeforeTradingStart(e.ctx, laggedView)
	}); err != nil {
		return err
	}

	if err := e.runPhase(lifecycle.PhaseHandleData, sameDayView, func() error {
		if e.callbacks.HandleData == nil {
			return nil
		}

		return e.callbacks.HandleData(e.ctx, sameDayView)
	}); err != nil {
		return err
	}

	cashBefore := e.ledger.Cash()
	e.blotter.ResolveOpenOrders(sameDayView)
	e.collector.RecordCashFlow(cashBefore, e.ledger.Cash())

	// The day boundary kills whatever still rests.
	if n := e.blotter.CancelAllOpen(types.OrderReasonEndOfDay); n > 0 {
		e.log.Debug("Cancelled unresolved orders at end of day", zap.Int("count", n))
	}

	if err := e.processDividends(day); err != nil {
		return err
	}

	// Post-close failures must not abort the run.
	if err := e.runPhase(lifecycle.PhaseAfterTradingEnd, sameDayView, func() error {
		if e.callbacks.AfterTradingEnd == nil {
			return nil
		}

		return e.callbacks.AfterTradingEnd(e.ctx, sameDayView)
	}); err != nil {
		e.log.Error("After-trading-end callback failed",
			zap.Time("day", day),
			zap.Error(err),
		)
	}

	e.collector.EndDay(
		e.ledger.PortfolioValue(e.closeOf(sameDayView)),
		e.ledger.PositionsValue(e.closeOf(sameDayView)),
	)

	return nil
}

// runPhase advances the phase machine, swaps the context's data view, and
// invokes the callback with panic recovery. The phase transition happens
// unconditionally; a nil callback still counts as an executed phase.
func (e *SimulationEngineV1) runPhase(phase lifecycle.Phase, view *marketdata.DataView, call func() error) error {
	if err := e.controller.SetPhase(phase); err != nil {
		return err
	}

	e.ctx.setView(view)

	return e.safeCall(phase, call)
}

func (e *SimulationEngineV1) safeCall(phase lifecycle.Phase, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeCallbackFailed, "callback %s panicked: %v", phase, r)
		}
	}()

	if callErr := call(); callErr != nil {
		return errors.Wrapf(errors.ErrCodeCallbackFailed, callErr, "callback %s failed", phase)
	}

	return nil
}

// processDividends credits the cash dividends going ex on the given day for
// every held position.
func (e *SimulationEngineV1) processDividends(day time.Time) error {
	events, err := e.source.DividendsOn(day)
	if err != nil {
		return err
	}

	for _, event := range events {
		if e.ledger.Position(event.Symbol).IsNone() {
			continue
		}

		net, err := e.ledger.AddDividend(event.Symbol, event.PerShare)
		if err != nil {
			return err
		}

		e.log.Info("Dividend processed",
			zap.Time("day", day),
			zap.String("symbol", event.Symbol),
			zap.Float64("per_share", event.PerShare),
			zap.Float64("credited", net),
		)
	}

	return nil
}

func (e *SimulationEngineV1) preflight() error {
	if e.ctx == nil {
		return errors.New(errors.ErrCodeNotInitialized, "engine is not initialized")
	}

	if e.callbacks.HandleData == nil {
		return errors.New(errors.ErrCodeMissingCallback, "a handle-data callback is required")
	}

	if e.source == nil {
		if e.config.MarketDataPath == "" {
			return errors.New(errors.ErrCodeEngineConfigError, "no data source injected and no market_data_path configured")
		}

		source, err := marketdata.NewDuckDBSource("", e.log)
		if err != nil {
			return err
		}

		if err := source.LoadMarketData(e.config.MarketDataPath); err != nil {
			return err
		}

		if e.config.DividendsPath.IsSome() {
			if err := source.LoadDividends(e.config.DividendsPath.Unwrap()); err != nil {
				return err
			}
		}

		e.source = source
		e.ownsSource = true
	}

	return nil
}

func (e *SimulationEngineV1) closeOwnedSource() {
	if !e.ownsSource || e.source == nil {
		return
	}

	if err := e.source.Shutdown(); err != nil {
		e.log.Warn("Failed to shut down data source", zap.Error(err))
	}
}

func (e *SimulationEngineV1) tradingDays() ([]time.Time, error) {
	start := time.Time{}
	if e.config.StartTime.IsSome() {
		start = e.config.StartTime.Unwrap()
	}

	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if e.config.EndTime.IsSome() {
		end = e.config.EndTime.Unwrap()
	}

	return e.source.TradingDays(start, end)
}

// closeOf adapts a data view into the ledger's price function.
func (e *SimulationEngineV1) closeOf(view *marketdata.DataView) portfolio.PriceFunc {
	return func(symbol string) (float64, error) {
		return view.Close(symbol)
	}
}

func (e *SimulationEngineV1) logSummary() {
	last := e.collector.LastRecord()
	if last.IsNone() {
		return
	}

	e.log.Info("Simulation summary",
		zap.Float64("final_value", last.Unwrap().PostTradeValue),
		zap.Float64("total_return", e.collector.TotalReturn()),
		zap.Int("trades", len(e.blotter.TradeLog())),
	)
}
