package blotter

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/portfolio"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
	"go.uber.org/zap"
)

// LimitMode selects whether fills are capped by traded volume.
type LimitMode string

const (
	// LimitModeLimit caps fills at a fraction of the day's volume.
	LimitModeLimit LimitMode = "LIMIT"
	// LimitModeUnlimited fills every order in full.
	LimitModeUnlimited LimitMode = "UNLIMITED"
)

// DefaultSlippageRatio is the relative slippage applied when no explicit
// model is configured.
const DefaultSlippageRatio = 0.001

// DefaultVolumeRatio caps a single fill at this fraction of daily volume.
const DefaultVolumeRatio = 0.25

// Quote serves the prices a resolution pass executes against.
type Quote interface {
	Close(symbol string) (float64, error)
	Volume(symbol string) (float64, error)
	LimitStatus(symbol string) (types.LimitStatus, error)
}

// Blotter accepts trade intents during the day and resolves them against
// closing prices, applying slippage, commission, volume caps and price band
// blocks. Every accepted order reaches a terminal status within its day.
type Blotter struct {
	log    *logger.Logger
	ledger *portfolio.Ledger
	fees   commission_fee.CommissionFee

	slippageRatio float64
	fixedSlippage optional.Option[float64]
	volumeRatio   float64
	limitMode     LimitMode

	openOrders map[string]*types.Order
	tradeLog   []types.Order
	clock      func() time.Time
}

// NewBlotter creates a blotter with default friction settings over the given
// ledger.
func NewBlotter(ledger *portfolio.Ledger, log *logger.Logger) *Blotter {
	return &Blotter{
		log:           log,
		ledger:        ledger,
		fees:          commission_fee.NewChinaAShareCommissionFee(),
		slippageRatio: DefaultSlippageRatio,
		fixedSlippage: optional.None[float64](),
		volumeRatio:   DefaultVolumeRatio,
		limitMode:     LimitModeLimit,
		openOrders:    make(map[string]*types.Order),
		clock:         time.Now,
	}
}

// SetCommission replaces the fee model.
func (b *Blotter) SetCommission(fees commission_fee.CommissionFee) {
	b.fees = fees
}

// Fees returns the active fee model.
func (b *Blotter) Fees() commission_fee.CommissionFee {
	return b.fees
}

// SetSlippage sets the relative slippage ratio. A nonzero ratio takes
// precedence over any fixed slippage.
func (b *Blotter) SetSlippage(ratio float64) error {
	if ratio < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "slippage ratio must be non-negative")
	}

	b.slippageRatio = ratio

	return nil
}

// SetFixedSlippage sets an absolute per-share slippage, used only while the
// relative ratio is zero.
func (b *Blotter) SetFixedSlippage(amount float64) error {
	if amount < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "fixed slippage must be non-negative")
	}

	b.fixedSlippage = optional.Some(amount)

	return nil
}

// SetVolumeRatio sets the fraction of daily volume a single fill may take.
func (b *Blotter) SetVolumeRatio(ratio float64) error {
	if ratio <= 0 || ratio > 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "volume ratio must be in (0, 1]")
	}

	b.volumeRatio = ratio

	return nil
}

// SetLimitMode sets the volume cap mode.
func (b *Blotter) SetLimitMode(mode LimitMode) error {
	switch mode {
	case LimitModeLimit, LimitModeUnlimited:
		b.limitMode = mode
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown limit mode %q", mode)
	}
}

// Submit accepts a trade intent for amount signed shares, optionally at a
// limit price. A zero amount is a no-op returning None. The order rests open
// until the next resolution pass.
func (b *Blotter) Submit(symbol string, amount int64, limit optional.Option[float64]) (optional.Option[string], error) {
	if amount == 0 {
		return optional.None[string](), nil
	}

	if symbol == "" {
		return optional.None[string](), errors.New(errors.ErrCodeInvalidOrder, "order symbol must not be empty")
	}

	if limit.IsSome() && limit.Unwrap() <= 0 {
		return optional.None[string](), errors.New(errors.ErrCodeInvalidPrice, "limit price must be positive")
	}

	order := &types.Order{
		OrderID:   uuid.New().String(),
		Symbol:    symbol,
		Amount:    amount,
		Limit:     limit,
		Status:    types.OrderStatusAccepted,
		Reason:    types.OrderReasonStrategy,
		CreatedAt: b.clock(),
	}

	b.openOrders[order.OrderID] = order

	b.log.Debug("Order accepted",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", symbol),
		zap.Int64("amount", amount),
	)

	return optional.Some(order.OrderID), nil
}

// CancelOrder cancels a resting order.
func (b *Blotter) CancelOrder(orderID string) error {
	order, ok := b.openOrders[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "no open order %s", orderID)
	}

	order.Status = types.OrderStatusCancelled
	order.Reason = types.OrderReasonStrategy
	b.retire(order)

	return nil
}

// CancelAllOpen cancels every resting order with the given reason. Called at
// the day boundary; orders never survive into the next day.
func (b *Blotter) CancelAllOpen(reason string) int {
	n := 0

	for _, order := range b.openOrders {
		order.Status = types.OrderStatusCancelled
		order.Reason = reason
		b.retire(order)
		n++
	}

	return n
}

// Order returns the order with the given ID, open or retired.
func (b *Blotter) Order(orderID string) optional.Option[types.Order] {
	if order, ok := b.openOrders[orderID]; ok {
		return optional.Some(*order)
	}

	for i := range b.tradeLog {
		if b.tradeLog[i].OrderID == orderID {
			return optional.Some(b.tradeLog[i])
		}
	}

	return optional.None[types.Order]()
}

// OpenOrders returns a copy of the resting orders.
func (b *Blotter) OpenOrders() []types.Order {
	out := make([]types.Order, 0, len(b.openOrders))
	for _, order := range b.openOrders {
		out = append(out, *order)
	}

	return out
}

// TradeLog returns every retired order of the run, oldest first.
func (b *Blotter) TradeLog() []types.Order {
	out := make([]types.Order, len(b.tradeLog))
	copy(out, b.tradeLog)

	return out
}

// ResolveOpenOrders executes every resting order against the quote, in
// submission order. Failures are per-order terminal states, not errors of
// the pass itself.
func (b *Blotter) ResolveOpenOrders(quote Quote) {
	orders := make([]*types.Order, 0, len(b.openOrders))
	for _, order := range b.openOrders {
		orders = append(orders, order)
	}

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderID < orders[j].OrderID
		}

		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	for _, order := range orders {
		b.resolve(order, quote)
		b.retire(order)
	}
}

func (b *Blotter) resolve(order *types.Order, quote Quote) {
	basePrice, err := quote.Close(order.Symbol)
	if err != nil {
		b.fail(order, types.OrderReasonNoPrice)
		return
	}

	if order.Limit.IsSome() {
		basePrice = order.Limit.Unwrap()
	}

	limitStatus, err := quote.LimitStatus(order.Symbol)
	if err != nil {
		limitStatus = types.LimitStatusNone
	}

	if order.IsBuy() && limitStatus == types.LimitStatusUp {
		b.fail(order, types.OrderReasonLimitUp)
		return
	}

	if !order.IsBuy() && limitStatus == types.LimitStatusDown {
		b.fail(order, types.OrderReasonLimitDown)
		return
	}

	requested := abs(order.Amount)

	fill := requested
	if b.limitMode == LimitModeLimit {
		volume, err := quote.Volume(order.Symbol)
		if err != nil {
			b.fail(order, types.OrderReasonNoPrice)
			return
		}

		maxFill := int64(volume * b.volumeRatio)
		if maxFill == 0 {
			b.fail(order, types.OrderReasonZeroVolume)
			return
		}

		fill = min(requested, maxFill)
	}

	execPrice := b.executionPrice(basePrice, order.IsBuy())

	if order.IsBuy() {
		b.fillBuy(order, fill, execPrice)
	} else {
		b.fillSell(order, fill, execPrice)
	}
}

// executionPrice applies half the configured slippage against the trade.
func (b *Blotter) executionPrice(base float64, isBuy bool) float64 {
	baseDec := decimal.NewFromFloat(base)

	var half decimal.Decimal
	switch {
	case b.slippageRatio > 0:
		half = baseDec.Mul(decimal.NewFromFloat(b.slippageRatio)).Div(decimal.NewFromInt(2))
	case b.fixedSlippage.IsSome():
		half = decimal.NewFromFloat(b.fixedSlippage.Unwrap()).Div(decimal.NewFromInt(2))
	}

	if isBuy {
		return baseDec.Add(half).InexactFloat64()
	}

	return baseDec.Sub(half).InexactFloat64()
}

func (b *Blotter) fillBuy(order *types.Order, fill int64, execPrice float64) {
	value := float64(fill) * execPrice
	commission := b.fees.Calculate(value, false)
	cost := decimal.NewFromFloat(value).Add(decimal.NewFromFloat(commission)).InexactFloat64()

	if err := b.ledger.DebitCash(cost); err != nil {
		b.fail(order, types.OrderReasonInsufficientFunds)
		return
	}

	if err := b.ledger.AddPosition(order.Symbol, fill, execPrice); err != nil {
		// Roll the debit back; the order fails terminally.
		_ = b.ledger.CreditCash(cost)
		b.fail(order, types.OrderReasonInsufficientFunds)

		return
	}

	b.complete(order, fill, execPrice, commission)
}

func (b *Blotter) fillSell(order *types.Order, fill int64, execPrice float64) {
	held := int64(0)
	if pos := b.ledger.Position(order.Symbol); pos.IsSome() {
		held = pos.Unwrap().Amount
	}

	if held == 0 {
		b.fail(order, types.OrderReasonInsufficientPosition)
		return
	}

	// Never sell more than held; the fill clamps instead of failing.
	fill = min(fill, held)

	if _, err := b.ledger.RemovePosition(order.Symbol, fill); err != nil {
		b.fail(order, types.OrderReasonInsufficientPosition)
		return
	}

	value := float64(fill) * execPrice
	commission := b.fees.Calculate(value, true)
	proceeds := decimal.NewFromFloat(value).Sub(decimal.NewFromFloat(commission)).InexactFloat64()

	if proceeds > 0 {
		_ = b.ledger.CreditCash(proceeds)
	}

	b.complete(order, -fill, execPrice, commission)
}

func (b *Blotter) complete(order *types.Order, filled int64, execPrice, commission float64) {
	order.Filled = filled
	order.Price = execPrice
	order.Commission = commission

	if abs(filled) == abs(order.Amount) {
		order.Status = types.OrderStatusFilled
	} else {
		order.Status = types.OrderStatusPartiallyFilled

		b.log.Warn("Order partially filled",
			zap.String("order_id", order.OrderID),
			zap.String("symbol", order.Symbol),
			zap.Int64("requested", order.Amount),
			zap.Int64("filled", filled),
		)
	}

	b.log.Debug("Order filled",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.Int64("filled", filled),
		zap.Float64("price", execPrice),
		zap.Float64("commission", commission),
	)
}

func (b *Blotter) fail(order *types.Order, reason string) {
	order.Status = types.OrderStatusFailed
	order.Reason = reason

	b.log.Warn("Order failed",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", order.Symbol),
		zap.String("reason", reason),
	)
}

// retire moves a terminal order from the open set to the trade log.
func (b *Blotter) retire(order *types.Order) {
	delete(b.openOrders, order.OrderID)
	b.tradeLog = append(b.tradeLog, *order)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
