package portfolio

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
	"go.uber.org/zap"
)

// Dividend tax schedule. Dividends are credited net of the maximum rate on
// the ex-date; the difference to the actual holding-period rate settles when
// shares are sold.
const (
	withholdingRate = 0.20

	shortHoldingDays = 30  // rate 20%
	longHoldingDays  = 365 // rate 10% up to here, 0% beyond
)

// PriceFunc resolves the current mark price of a symbol.
type PriceFunc func(symbol string) (float64, error)

// Ledger is the account state of one simulation run: cash, long positions
// and the acquisition lots backing them. Lots are consumed oldest-first on
// sells to settle the dividend tax of the shares leaving the book.
//
// The ledger is not safe for concurrent use; the orchestrator is
// single-threaded by construction.
type Ledger struct {
	log   *logger.Logger
	cache *cache.DailyCache

	cash         float64
	startingCash float64
	positions    map[string]*types.Position
	lots         map[string][]types.Lot
	currentDate  time.Time
}

// NewLedger creates a ledger holding only cash.
func NewLedger(startingCash float64, dailyCache *cache.DailyCache, log *logger.Logger) *Ledger {
	return &Ledger{
		log:          log,
		cache:        dailyCache,
		cash:         startingCash,
		startingCash: startingCash,
		positions:    make(map[string]*types.Position),
		lots:         make(map[string][]types.Lot),
	}
}

// SetCurrentDate advances the ledger to the given simulated date. The cached
// portfolio valuation is scoped to the date and drops on change.
func (l *Ledger) SetCurrentDate(date time.Time) {
	l.currentDate = date
	l.cache.SetDate(date)
}

// CurrentDate returns the simulated date the ledger is at.
func (l *Ledger) CurrentDate() time.Time {
	return l.currentDate
}

// Cash returns the free cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// StartingCash returns the initial cash the ledger was created with.
func (l *Ledger) StartingCash() float64 {
	return l.startingCash
}

// CapitalUsed returns the net cash deployed since the run started.
func (l *Ledger) CapitalUsed() float64 {
	return l.startingCash - l.cash
}

// DebitCash removes cash from the account, failing when the balance would go
// negative.
func (l *Ledger) DebitCash(amount float64) error {
	if amount < 0 {
		return errors.New(errors.ErrCodeInvalidAmount, "debit amount must be non-negative")
	}

	if amount > l.cash {
		return errors.Newf(errors.ErrCodeInsufficientFunds,
			"insufficient funds: need %.2f, have %.2f", amount, l.cash)
	}

	l.cash -= amount
	l.cache.InvalidatePortfolioValue()

	return nil
}

// CreditCash adds cash to the account.
func (l *Ledger) CreditCash(amount float64) error {
	if amount < 0 {
		return errors.New(errors.ErrCodeInvalidAmount, "credit amount must be non-negative")
	}

	l.cash += amount
	l.cache.InvalidatePortfolioValue()

	return nil
}

// AddPosition books a buy of amount shares at price: the position grows, its
// cost basis re-averages, and a new lot dated at the current simulated date
// is appended. Cash settlement is the caller's concern.
func (l *Ledger) AddPosition(symbol string, amount int64, price float64) error {
	if amount <= 0 {
		return errors.New(errors.ErrCodeInvalidAmount, "position amount must be positive")
	}

	if price <= 0 {
		return errors.New(errors.ErrCodeInvalidPrice, "position price must be positive")
	}

	pos, ok := l.positions[symbol]
	if !ok {
		pos = &types.Position{Symbol: symbol}
		l.positions[symbol] = pos
	}

	oldCost := decimal.NewFromFloat(pos.CostBasis).Mul(decimal.NewFromInt(pos.Amount))
	newCost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(amount))
	total := pos.Amount + amount

	pos.CostBasis = oldCost.Add(newCost).Div(decimal.NewFromInt(total)).InexactFloat64()
	pos.Amount = total
	pos.LastPrice = price
	pos.MarketValue = float64(total) * price

	l.lots[symbol] = append(l.lots[symbol], types.Lot{
		Date:   l.currentDate,
		Amount: amount,
	})

	l.cache.InvalidatePortfolioValue()

	return nil
}

// RemovePosition books a sell of amount shares, consuming lots oldest-first,
// and settles the dividend tax of the shares leaving the book: each consumed
// lot contributes its pre-tax dividends in proportion to the fraction sold,
// taxed at the rate its holding period earned. Dividends were withheld at the
// maximum rate when credited, so the settlement is a refund; it is credited
// to cash and returned (zero or negative, in withheld-minus-actual terms).
func (l *Ledger) RemovePosition(symbol string, amount int64) (float64, error) {
	if amount <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidAmount, "sell amount must be positive")
	}

	pos, ok := l.positions[symbol]
	if !ok || pos.Amount == 0 {
		return 0, errors.Newf(errors.ErrCodePositionNotFound, "no position in %s", symbol)
	}

	if amount > pos.Amount {
		return 0, errors.Newf(errors.ErrCodeInsufficientPosition,
			"cannot sell %d shares of %s, only %d held", amount, symbol, pos.Amount)
	}

	adjustment := decimal.Zero
	remaining := amount
	lots := l.lots[symbol]

	for i := range lots {
		if remaining == 0 {
			break
		}

		lot := &lots[i]
		if lot.Amount == 0 {
			continue
		}

		sold := min(remaining, lot.Amount)
		fraction := decimal.NewFromInt(sold).Div(decimal.NewFromInt(lot.Amount))
		divPortion := decimal.NewFromFloat(lot.DividendsTotal).Mul(fraction)

		rate := l.holdingTaxRate(lot.Date)
		adjustment = adjustment.Add(divPortion.Mul(decimal.NewFromFloat(rate - withholdingRate)))

		// The sold fraction takes its dividends with it.
		lot.DividendsTotal = decimal.NewFromFloat(lot.DividendsTotal).Sub(divPortion).InexactFloat64()

		keep := decimal.NewFromInt(1).Sub(fraction)
		for j, d := range lot.Dividends {
			lot.Dividends[j] = decimal.NewFromFloat(d).Mul(keep).InexactFloat64()
		}

		lot.Amount -= sold
		remaining -= sold
	}

	// Drop exhausted lots.
	kept := lots[:0]

	for _, lot := range lots {
		if lot.Amount > 0 {
			kept = append(kept, lot)
		}
	}

	l.lots[symbol] = kept

	pos.Amount -= amount
	pos.MarketValue = float64(pos.Amount) * pos.LastPrice

	if pos.Amount == 0 {
		delete(l.positions, symbol)
		delete(l.lots, symbol)
	}

	adjustmentValue := adjustment.InexactFloat64()
	if refund := -adjustmentValue; refund > 0 {
		l.cash += refund
		l.log.Debug("Dividend tax settled on sale",
			zap.String("symbol", symbol),
			zap.Int64("amount", amount),
			zap.Float64("refund", refund),
		)
	}

	l.cache.InvalidatePortfolioValue()

	return adjustmentValue, nil
}

// AddDividend credits a cash dividend for every share held: cash grows by
// the per-share amount net of the maximum withholding rate, and each backing
// lot records its pre-tax share for later settlement. Returns the net amount
// credited.
func (l *Ledger) AddDividend(symbol string, perShare float64) (float64, error) {
	if perShare <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidAmount, "dividend per share must be positive")
	}

	pos, ok := l.positions[symbol]
	if !ok || pos.Amount == 0 {
		return 0, nil
	}

	perShareDec := decimal.NewFromFloat(perShare)
	gross := perShareDec.Mul(decimal.NewFromInt(pos.Amount))
	net := gross.Mul(decimal.NewFromFloat(1 - withholdingRate))

	lots := l.lots[symbol]
	for i := range lots {
		lotGross := perShareDec.Mul(decimal.NewFromInt(lots[i].Amount)).InexactFloat64()
		lots[i].Dividends = append(lots[i].Dividends, lotGross)
		lots[i].DividendsTotal += lotGross
	}

	netValue := net.InexactFloat64()
	l.cash += netValue
	l.cache.InvalidatePortfolioValue()

	l.log.Debug("Dividend credited",
		zap.String("symbol", symbol),
		zap.Float64("per_share", perShare),
		zap.Float64("net", netValue),
	)

	return netValue, nil
}

// holdingTaxRate returns the dividend tax rate earned by a lot bought on
// lotDate and sold at the current simulated date.
func (l *Ledger) holdingTaxRate(lotDate time.Time) float64 {
	days := int(l.currentDate.Sub(lotDate).Hours() / 24)

	switch {
	case days <= shortHoldingDays:
		return 0.20
	case days <= longHoldingDays:
		return 0.10
	default:
		return 0
	}
}

// Position returns a copy of the position in the symbol, if any.
func (l *Ledger) Position(symbol string) optional.Option[types.Position] {
	pos, ok := l.positions[symbol]
	if !ok {
		return optional.None[types.Position]()
	}

	return optional.Some(*pos)
}

// Positions returns a copy of all open positions keyed by symbol.
func (l *Ledger) Positions() map[string]types.Position {
	out := make(map[string]types.Position, len(l.positions))
	for symbol, pos := range l.positions {
		out[symbol] = *pos
	}

	return out
}

// OpenPositionCount returns the number of symbols with a nonzero holding.
func (l *Ledger) OpenPositionCount() int {
	return len(l.positions)
}

// Lots returns a copy of the acquisition lots backing the position.
func (l *Ledger) Lots(symbol string) []types.Lot {
	lots := l.lots[symbol]
	out := make([]types.Lot, len(lots))

	for i, lot := range lots {
		out[i] = lot
		out[i].Dividends = append([]float64(nil), lot.Dividends...)
	}

	return out
}

// PortfolioValue returns cash plus positions marked at the prices resolved
// by prices. A symbol whose price cannot be resolved is marked at cost
// basis. The result is cached for the current simulated date and
// invalidated by any mutation.
func (l *Ledger) PortfolioValue(prices PriceFunc) float64 {
	if cached := l.cache.PortfolioValue(); cached.IsSome() {
		return cached.Unwrap()
	}

	value := l.cash
	value += l.positionsValue(prices)

	l.cache.SetPortfolioValue(value)

	return value
}

// PositionsValue returns the marked value of the open positions alone.
func (l *Ledger) PositionsValue(prices PriceFunc) float64 {
	return l.positionsValue(prices)
}

func (l *Ledger) positionsValue(prices PriceFunc) float64 {
	total := 0.0

	for symbol, pos := range l.positions {
		price, err := prices(symbol)
		if err != nil {
			// Stale or missing data, mark at cost.
			price = pos.CostBasis

			l.log.Warn("No price for position, marking at cost basis",
				zap.String("symbol", symbol),
			)
		}

		pos.LastPrice = price
		pos.MarketValue = float64(pos.Amount) * price
		total += pos.MarketValue
	}

	return total
}

// Returns reports the cumulative simple return of the account against its
// starting cash.
func (l *Ledger) Returns(prices PriceFunc) float64 {
	if l.startingCash == 0 {
		return 0
	}

	return (l.PortfolioValue(prices) - l.startingCash) / l.startingCash
}

// PnL reports the absolute profit of the account against its starting cash.
func (l *Ledger) PnL(prices PriceFunc) float64 {
	return l.PortfolioValue(prices) - l.startingCash
}
