package marketdata

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/types"
)

// PriceSource serves daily bars. Implementations must return an error with
// code ErrCodeDataNotFound when no bar exists for the symbol and date.
type PriceSource interface {
	// Bar returns the daily bar for the symbol on the given date.
	Bar(symbol string, date time.Time) (types.Bar, error)
	// History returns up to count daily bars for the symbol ending at the
	// given date inclusive, oldest first.
	History(symbol string, end time.Time, count int) ([]types.Bar, error)
	// LimitStatus reports whether the symbol closed pinned at a price band
	// boundary on the given date.
	LimitStatus(symbol string, date time.Time) (types.LimitStatus, error)
}

// DividendCalendar serves cash dividend events by ex-date.
type DividendCalendar interface {
	DividendsOn(date time.Time) ([]types.DividendEvent, error)
}

// TradingCalendar enumerates the days on which the market traded.
type TradingCalendar interface {
	// TradingDays returns the trading days in [start, end], ascending.
	TradingDays(start, end time.Time) ([]time.Time, error)
	// PreviousTradingDay returns the last trading day strictly before date,
	// or None when date is at or before the start of the data.
	PreviousTradingDay(date time.Time) (optional.Option[time.Time], error)
}

// Source is the full market data dependency of a simulation run.
type Source interface {
	PriceSource
	DividendCalendar
	TradingCalendar

	// AllSymbols returns every distinct symbol in the data, sorted.
	AllSymbols() ([]string, error)
	// Shutdown releases the underlying storage.
	Shutdown() error
}
