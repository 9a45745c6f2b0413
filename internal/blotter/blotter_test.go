package blotter

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/portfolio"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

// stubQuote serves fixed prices for resolution passes.
type stubQuote struct {
	closes  map[string]float64
	volumes map[string]float64
	limits  map[string]types.LimitStatus
}

func newStubQuote() *stubQuote {
	return &stubQuote{
		closes:  make(map[string]float64),
		volumes: make(map[string]float64),
		limits:  make(map[string]types.LimitStatus),
	}
}

func (q *stubQuote) set(symbol string, close, volume float64) {
	q.closes[symbol] = close
	q.volumes[symbol] = volume
}

func (q *stubQuote) Close(symbol string) (float64, error) {
	close, ok := q.closes[symbol]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "no close for %s", symbol)
	}

	return close, nil
}

func (q *stubQuote) Volume(symbol string) (float64, error) {
	volume, ok := q.volumes[symbol]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeDataNotFound, "no volume for %s", symbol)
	}

	return volume, nil
}

func (q *stubQuote) LimitStatus(symbol string) (types.LimitStatus, error) {
	if status, ok := q.limits[symbol]; ok {
		return status, nil
	}

	return types.LimitStatusNone, nil
}

type BlotterTestSuite struct {
	suite.Suite
	logger  *logger.Logger
	ledger  *portfolio.Ledger
	blotter *Blotter
	quote   *stubQuote
}

func TestBlotterSuite(t *testing.T) {
	suite.Run(t, new(BlotterTestSuite))
}

func (suite *BlotterTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *BlotterTestSuite) SetupTest() {
	suite.ledger = portfolio.NewLedger(100000, cache.NewDailyCache(), suite.logger)
	suite.ledger.SetCurrentDate(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	suite.blotter = NewBlotter(suite.ledger, suite.logger)

	// Frictionless defaults; individual tests opt back in.
	suite.blotter.SetCommission(commission_fee.NewZeroCommissionFee())
	suite.Require().NoError(suite.blotter.SetSlippage(0))

	suite.quote = newStubQuote()
	suite.quote.set("STOCK_A", 10.0, 1_000_000)
}

// submit places an order and requires acceptance.
func (suite *BlotterTestSuite) submit(symbol string, amount int64) string {
	id, err := suite.blotter.Submit(symbol, amount, optional.None[float64]())
	suite.Require().NoError(err)
	suite.Require().True(id.IsSome())

	return id.Unwrap()
}

// lastTrade returns the most recently retired order.
func (suite *BlotterTestSuite) lastTrade() types.Order {
	log := suite.blotter.TradeLog()
	suite.Require().NotEmpty(log)

	return log[len(log)-1]
}

func (suite *BlotterTestSuite) TestZeroAmountIsNoop() {
	id, err := suite.blotter.Submit("STOCK_A", 0, optional.None[float64]())
	suite.Require().NoError(err)
	suite.True(id.IsNone())
	suite.Empty(suite.blotter.OpenOrders())
}

func (suite *BlotterTestSuite) TestSubmitRestsOpen() {
	id := suite.submit("STOCK_A", 100)

	open := suite.blotter.OpenOrders()
	suite.Require().Len(open, 1)
	suite.Equal(id, open[0].OrderID)
	suite.Equal(types.OrderStatusAccepted, open[0].Status)
}

func (suite *BlotterTestSuite) TestBuyFillsAtClose() {
	id := suite.submit("STOCK_A", 100)

	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFilled, order.Status)
	suite.Equal(int64(100), order.Filled)
	suite.Equal(10.0, order.Price)

	suite.InDelta(99000.0, suite.ledger.Cash(), 1e-9)
	suite.Equal(int64(100), suite.ledger.Position("STOCK_A").Unwrap().Amount)
	suite.Empty(suite.blotter.OpenOrders())
}

func (suite *BlotterTestSuite) TestSellCreditsProceeds() {
	suite.Require().NoError(suite.ledger.AddPosition("STOCK_A", 100, 8.0))
	suite.submit("STOCK_A", -100)

	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.lastTrade()
	suite.Equal(types.OrderStatusFilled, order.Status)
	suite.Equal(int64(-100), order.Filled)

	suite.InDelta(101000.0, suite.ledger.Cash(), 1e-9)
	suite.True(suite.ledger.Position("STOCK_A").IsNone())
}

func (suite *BlotterTestSuite) TestRelativeSlippageWorksAgainstTheTrade() {
	suite.Require().NoError(suite.blotter.SetSlippage(0.001))
	suite.Require().NoError(suite.ledger.AddPosition("STOCK_A", 100, 8.0))

	buyID := suite.submit("STOCK_A", 100)
	sellID := suite.submit("STOCK_A", -100)

	suite.blotter.ResolveOpenOrders(suite.quote)

	buy := suite.blotter.Order(buyID).Unwrap()
	sell := suite.blotter.Order(sellID).Unwrap()
	suite.InDelta(10.005, buy.Price, 1e-9)
	suite.InDelta(9.995, sell.Price, 1e-9)
}

func (suite *BlotterTestSuite) TestFixedSlippage() {
	suite.Require().NoError(suite.blotter.SetFixedSlippage(0.02))

	id := suite.submit("STOCK_A", 100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	suite.InDelta(10.01, suite.blotter.Order(id).Unwrap().Price, 1e-9)
}

func (suite *BlotterTestSuite) TestRelativeSlippageTakesPrecedenceOverFixed() {
	suite.Require().NoError(suite.blotter.SetSlippage(0.2))
	suite.Require().NoError(suite.blotter.SetFixedSlippage(1.0))

	id := suite.submit("STOCK_A", 100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	// 10.0 + 10.0*0.2/2; the fixed amount only applies at a zero ratio.
	suite.InDelta(11.0, suite.blotter.Order(id).Unwrap().Price, 1e-9)
}

func (suite *BlotterTestSuite) TestLimitPriceOverridesClose() {
	id, err := suite.blotter.Submit("STOCK_A", 100, optional.Some(9.5))
	suite.Require().NoError(err)

	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id.Unwrap()).Unwrap()
	suite.Equal(types.OrderStatusFilled, order.Status)
	suite.Equal(9.5, order.Price)
}

func (suite *BlotterTestSuite) TestCommissionCharged() {
	suite.blotter.SetCommission(commission_fee.NewChinaAShareCommissionFee())

	id := suite.submit("STOCK_A", 1000)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()

	// 10000 value: 3.0 commission is below the 5.0 minimum, plus transfer fee.
	expected := 5.0 + 10000*0.0000487
	suite.InDelta(expected, order.Commission, 1e-9)
	suite.InDelta(100000.0-10000.0-expected, suite.ledger.Cash(), 1e-9)
}

func (suite *BlotterTestSuite) TestVolumeCapPartialFill() {
	suite.quote.set("STOCK_A", 10.0, 1000)

	id := suite.submit("STOCK_A", 1000)
	suite.blotter.ResolveOpenOrders(suite.quote)

	// 1000 * 0.25 = 250 shares available.
	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusPartiallyFilled, order.Status)
	suite.Equal(int64(250), order.Filled)
	suite.Equal(int64(250), suite.ledger.Position("STOCK_A").Unwrap().Amount)
}

func (suite *BlotterTestSuite) TestZeroVolumeFails() {
	suite.quote.set("STOCK_A", 10.0, 0)

	id := suite.submit("STOCK_A", 100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFailed, order.Status)
	suite.Equal(types.OrderReasonZeroVolume, order.Reason)
}

func (suite *BlotterTestSuite) TestUnlimitedModeIgnoresVolume() {
	suite.Require().NoError(suite.blotter.SetLimitMode(LimitModeUnlimited))
	suite.quote.set("STOCK_A", 10.0, 0)

	id := suite.submit("STOCK_A", 1000)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFilled, order.Status)
	suite.Equal(int64(1000), order.Filled)
}

func (suite *BlotterTestSuite) TestLimitUpBlocksBuys() {
	suite.quote.limits["STOCK_A"] = types.LimitStatusUp
	suite.Require().NoError(suite.ledger.AddPosition("STOCK_A", 100, 8.0))

	buyID := suite.submit("STOCK_A", 100)
	sellID := suite.submit("STOCK_A", -100)

	suite.blotter.ResolveOpenOrders(suite.quote)

	buy := suite.blotter.Order(buyID).Unwrap()
	suite.Equal(types.OrderStatusFailed, buy.Status)
	suite.Equal(types.OrderReasonLimitUp, buy.Reason)

	// Sells remain free at limit-up.
	suite.Equal(types.OrderStatusFilled, suite.blotter.Order(sellID).Unwrap().Status)
}

func (suite *BlotterTestSuite) TestLimitDownBlocksSells() {
	suite.quote.limits["STOCK_A"] = types.LimitStatusDown
	suite.Require().NoError(suite.ledger.AddPosition("STOCK_A", 100, 8.0))

	id := suite.submit("STOCK_A", -100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFailed, order.Status)
	suite.Equal(types.OrderReasonLimitDown, order.Reason)
	suite.Equal(int64(100), suite.ledger.Position("STOCK_A").Unwrap().Amount)
}

func (suite *BlotterTestSuite) TestInsufficientFundsFails() {
	id := suite.submit("STOCK_A", 100000) // needs a million

	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFailed, order.Status)
	suite.Equal(types.OrderReasonInsufficientFunds, order.Reason)
	suite.InDelta(100000.0, suite.ledger.Cash(), 1e-9)
}

func (suite *BlotterTestSuite) TestSellClampsToHeld() {
	suite.Require().NoError(suite.ledger.AddPosition("STOCK_A", 50, 8.0))

	id := suite.submit("STOCK_A", -100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusPartiallyFilled, order.Status)
	suite.Equal(int64(-50), order.Filled)
	suite.True(suite.ledger.Position("STOCK_A").IsNone())
}

func (suite *BlotterTestSuite) TestSellWithoutPositionFails() {
	id := suite.submit("STOCK_A", -100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFailed, order.Status)
	suite.Equal(types.OrderReasonInsufficientPosition, order.Reason)
}

func (suite *BlotterTestSuite) TestMissingPriceFails() {
	id := suite.submit("STOCK_B", 100)
	suite.blotter.ResolveOpenOrders(suite.quote)

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusFailed, order.Status)
	suite.Equal(types.OrderReasonNoPrice, order.Reason)
}

func (suite *BlotterTestSuite) TestCancelOrder() {
	id := suite.submit("STOCK_A", 100)

	suite.Require().NoError(suite.blotter.CancelOrder(id))
	suite.Empty(suite.blotter.OpenOrders())

	order := suite.blotter.Order(id).Unwrap()
	suite.Equal(types.OrderStatusCancelled, order.Status)

	err := suite.blotter.CancelOrder(id)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
}

func (suite *BlotterTestSuite) TestCancelAllOpenAtEndOfDay() {
	suite.submit("STOCK_A", 100)
	suite.submit("STOCK_A", 200)

	n := suite.blotter.CancelAllOpen(types.OrderReasonEndOfDay)
	suite.Equal(2, n)
	suite.Empty(suite.blotter.OpenOrders())

	for _, order := range suite.blotter.TradeLog() {
		suite.Equal(types.OrderStatusCancelled, order.Status)
		suite.Equal(types.OrderReasonEndOfDay, order.Reason)
	}
}

func (suite *BlotterTestSuite) TestInvalidSettings() {
	suite.Error(suite.blotter.SetSlippage(-1))
	suite.Error(suite.blotter.SetFixedSlippage(-1))
	suite.Error(suite.blotter.SetVolumeRatio(0))
	suite.Error(suite.blotter.SetVolumeRatio(1.5))
	suite.Error(suite.blotter.SetLimitMode("BOGUS"))
}
