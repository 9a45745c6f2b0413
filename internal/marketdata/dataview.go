package marketdata

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

// DataView is the read-only market data window handed to strategy callbacks.
// It is anchored to the simulated date; a lagged view anchors one trading day
// earlier so that pre-open code never observes the current day's prices.
type DataView struct {
	source   PriceSource
	calendar TradingCalendar
	cache    *cache.DailyCache
	date     time.Time
	lagged   bool
}

// NewDataView builds a view anchored at date. Pass lagged=true for the
// pre-open window.
func NewDataView(source PriceSource, calendar TradingCalendar, dailyCache *cache.DailyCache, date time.Time, lagged bool) *DataView {
	return &DataView{
		source:   source,
		calendar: calendar,
		cache:    dailyCache,
		date:     date,
		lagged:   lagged,
	}
}

// Date returns the simulated date the view was created for.
func (v *DataView) Date() time.Time {
	return v.date
}

// anchor resolves the effective data date, or None when a lagged view sits at
// the very start of the data.
func (v *DataView) anchor() (optional.Option[time.Time], error) {
	if !v.lagged {
		return optional.Some(v.date), nil
	}

	return v.calendar.PreviousTradingDay(v.date)
}

// Close returns the closing price of the symbol at the view's anchor date.
func (v *DataView) Close(symbol string) (float64, error) {
	anchor, err := v.anchor()
	if err != nil {
		return 0, err
	}

	if anchor.IsNone() {
		return 0, errors.Newf(errors.ErrCodeDataNotFound,
			"no trading day before %s", v.date.Format("2006-01-02"))
	}

	bar, err := v.source.Bar(symbol, anchor.Unwrap())
	if err != nil {
		return 0, err
	}

	return bar.Close, nil
}

// Volume returns the traded volume of the symbol at the view's anchor date.
func (v *DataView) Volume(symbol string) (float64, error) {
	anchor, err := v.anchor()
	if err != nil {
		return 0, err
	}

	if anchor.IsNone() {
		return 0, errors.Newf(errors.ErrCodeDataNotFound,
			"no trading day before %s", v.date.Format("2006-01-02"))
	}

	bar, err := v.source.Bar(symbol, anchor.Unwrap())
	if err != nil {
		return 0, err
	}

	return bar.Volume, nil
}

// LimitStatus reports the price band state of the symbol at the view's
// anchor date.
func (v *DataView) LimitStatus(symbol string) (types.LimitStatus, error) {
	anchor, err := v.anchor()
	if err != nil {
		return types.LimitStatusNone, err
	}

	if anchor.IsNone() {
		return types.LimitStatusNone, errors.Newf(errors.ErrCodeDataNotFound,
			"no trading day before %s", v.date.Format("2006-01-02"))
	}

	return v.source.LimitStatus(symbol, anchor.Unwrap())
}

// History returns up to count daily closes for the symbol ending at the
// view's anchor date, oldest first.
func (v *DataView) History(symbol string, count int) ([]float64, error) {
	anchor, err := v.anchor()
	if err != nil {
		return nil, err
	}

	if anchor.IsNone() {
		return nil, nil
	}

	bars, err := v.source.History(symbol, anchor.Unwrap(), count)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes, nil
}

// MovingAverage returns the simple moving average of the close over window
// days ending at the anchor date. Returns None when fewer than window bars
// exist. Results are memoized per simulated day.
func (v *DataView) MovingAverage(symbol string, window int) (optional.Option[float64], error) {
	if window <= 0 {
		return optional.None[float64](), errors.New(errors.ErrCodeInvalidParameter, "window must be positive")
	}

	key := cache.IndicatorKey(v.indicatorName("ma"), symbol, window)
	if cached, ok := v.cache.Indicator(key); ok {
		return optional.Some(cached), nil
	}

	closes, err := v.History(symbol, window)
	if err != nil {
		return optional.None[float64](), err
	}

	if len(closes) < window {
		return optional.None[float64](), nil
	}

	sum := 0.0
	for _, c := range closes {
		sum += c
	}

	ma := sum / float64(window)
	v.cache.SetIndicator(key, ma)

	return optional.Some(ma), nil
}

// VWAP returns the volume-weighted average close over window days ending at
// the anchor date. Returns None when fewer than window bars exist or total
// volume is zero. Results are memoized per simulated day.
func (v *DataView) VWAP(symbol string, window int) (optional.Option[float64], error) {
	if window <= 0 {
		return optional.None[float64](), errors.New(errors.ErrCodeInvalidParameter, "window must be positive")
	}

	key := cache.IndicatorKey(v.indicatorName("vwap"), symbol, window)
	if cached, ok := v.cache.Indicator(key); ok {
		return optional.Some(cached), nil
	}

	anchor, err := v.anchor()
	if err != nil {
		return optional.None[float64](), err
	}

	if anchor.IsNone() {
		return optional.None[float64](), nil
	}

	bars, err := v.source.History(symbol, anchor.Unwrap(), window)
	if err != nil {
		return optional.None[float64](), err
	}

	if len(bars) < window {
		return optional.None[float64](), nil
	}

	var weighted, volume float64
	for _, bar := range bars {
		weighted += bar.Close * bar.Volume
		volume += bar.Volume
	}

	if volume == 0 {
		return optional.None[float64](), nil
	}

	vwap := weighted / volume
	v.cache.SetIndicator(key, vwap)

	return optional.Some(vwap), nil
}

// indicatorName namespaces memoized values by view anchor so lagged and
// same-day views never share entries.
func (v *DataView) indicatorName(base string) string {
	if v.lagged {
		return base + "_lag"
	}

	return base
}
