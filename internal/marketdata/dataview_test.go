package marketdata

import (
	"sort"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"github.com/xwinwin/SimTradeLab/internal/cache"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

// stubSource is an in-memory PriceSource and TradingCalendar backed by a
// fixed set of daily bars.
type stubSource struct {
	bars map[string][]types.Bar // per symbol, ascending by time
}

func newStubSource() *stubSource {
	return &stubSource{bars: make(map[string][]types.Bar)}
}

func (s *stubSource) add(symbol string, day time.Time, close, volume float64) {
	s.bars[symbol] = append(s.bars[symbol], types.Bar{
		Symbol: symbol,
		Time:   day,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	})
	sort.Slice(s.bars[symbol], func(i, j int) bool {
		return s.bars[symbol][i].Time.Before(s.bars[symbol][j].Time)
	})
}

func (s *stubSource) Bar(symbol string, date time.Time) (types.Bar, error) {
	for _, bar := range s.bars[symbol] {
		if bar.Time.Equal(date) {
			return bar, nil
		}
	}

	return types.Bar{}, errors.Newf(errors.ErrCodeDataNotFound, "no bar for %s", symbol)
}

func (s *stubSource) History(symbol string, end time.Time, count int) ([]types.Bar, error) {
	var out []types.Bar

	for _, bar := range s.bars[symbol] {
		if !bar.Time.After(end) {
			out = append(out, bar)
		}
	}

	if len(out) > count {
		out = out[len(out)-count:]
	}

	return out, nil
}

func (s *stubSource) LimitStatus(symbol string, date time.Time) (types.LimitStatus, error) {
	return types.LimitStatusNone, nil
}

func (s *stubSource) TradingDays(start, end time.Time) ([]time.Time, error) {
	seen := make(map[time.Time]bool)

	var days []time.Time

	for _, bars := range s.bars {
		for _, bar := range bars {
			if !bar.Time.Before(start) && !bar.Time.After(end) && !seen[bar.Time] {
				seen[bar.Time] = true
				days = append(days, bar.Time)
			}
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	return days, nil
}

func (s *stubSource) PreviousTradingDay(date time.Time) (optional.Option[time.Time], error) {
	var prev optional.Option[time.Time]

	for _, bars := range s.bars {
		for _, bar := range bars {
			if bar.Time.Before(date) && (prev.IsNone() || bar.Time.After(prev.Unwrap())) {
				prev = optional.Some(bar.Time)
			}
		}
	}

	return prev, nil
}

type DataViewTestSuite struct {
	suite.Suite
	source *stubSource
	cache  *cache.DailyCache
	days   []time.Time
}

func TestDataViewSuite(t *testing.T) {
	suite.Run(t, new(DataViewTestSuite))
}

func (suite *DataViewTestSuite) SetupTest() {
	suite.source = newStubSource()
	suite.cache = cache.NewDailyCache()

	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.days = nil
	for i := 0; i < 5; i++ {
		day := base.AddDate(0, 0, i)
		suite.days = append(suite.days, day)
		suite.source.add("STOCK_A", day, 10.0+float64(i), 1000*float64(i+1))
	}

	suite.cache.SetDate(suite.days[len(suite.days)-1])
}

func (suite *DataViewTestSuite) view(day time.Time, lagged bool) *DataView {
	return NewDataView(suite.source, suite.source, suite.cache, day, lagged)
}

func (suite *DataViewTestSuite) TestCloseSameDay() {
	v := suite.view(suite.days[4], false)

	close, err := v.Close("STOCK_A")
	suite.Require().NoError(err)
	suite.Equal(14.0, close)
}

func (suite *DataViewTestSuite) TestCloseLaggedServesPreviousDay() {
	v := suite.view(suite.days[4], true)

	close, err := v.Close("STOCK_A")
	suite.Require().NoError(err)
	suite.Equal(13.0, close)
}

func (suite *DataViewTestSuite) TestLaggedAtStartOfData() {
	v := suite.view(suite.days[0], true)

	_, err := v.Close("STOCK_A")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DataViewTestSuite) TestUnknownSymbol() {
	v := suite.view(suite.days[4], false)

	_, err := v.Close("STOCK_B")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DataViewTestSuite) TestHistoryOldestFirst() {
	v := suite.view(suite.days[4], false)

	closes, err := v.History("STOCK_A", 3)
	suite.Require().NoError(err)
	suite.Equal([]float64{12.0, 13.0, 14.0}, closes)
}

func (suite *DataViewTestSuite) TestMovingAverage() {
	v := suite.view(suite.days[4], false)

	ma, err := v.MovingAverage("STOCK_A", 3)
	suite.Require().NoError(err)
	suite.Require().True(ma.IsSome())
	suite.InDelta(13.0, ma.Unwrap(), 1e-9)
}

func (suite *DataViewTestSuite) TestMovingAverageInsufficientHistory() {
	v := suite.view(suite.days[4], false)

	ma, err := v.MovingAverage("STOCK_A", 10)
	suite.Require().NoError(err)
	suite.True(ma.IsNone())
}

func (suite *DataViewTestSuite) TestMovingAverageInvalidWindow() {
	v := suite.view(suite.days[4], false)

	_, err := v.MovingAverage("STOCK_A", 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *DataViewTestSuite) TestMovingAverageMemoized() {
	v := suite.view(suite.days[4], false)

	_, err := v.MovingAverage("STOCK_A", 3)
	suite.Require().NoError(err)

	// Mutating the source after memoization must not change the result.
	suite.source.add("STOCK_A", suite.days[4].AddDate(0, 0, -1), 100.0, 1)

	ma, err := v.MovingAverage("STOCK_A", 3)
	suite.Require().NoError(err)
	suite.Require().True(ma.IsSome())
	suite.InDelta(13.0, ma.Unwrap(), 1e-9)
}

func (suite *DataViewTestSuite) TestLaggedAndSameDayDoNotShareMemo() {
	same := suite.view(suite.days[4], false)
	lag := suite.view(suite.days[4], true)

	maSame, err := same.MovingAverage("STOCK_A", 2)
	suite.Require().NoError(err)
	maLag, err := lag.MovingAverage("STOCK_A", 2)
	suite.Require().NoError(err)

	suite.InDelta(13.5, maSame.Unwrap(), 1e-9)
	suite.InDelta(12.5, maLag.Unwrap(), 1e-9)
}

func (suite *DataViewTestSuite) TestVWAP() {
	v := suite.view(suite.days[4], false)

	// Last two days: closes 13, 14 with volumes 4000, 5000.
	vwap, err := v.VWAP("STOCK_A", 2)
	suite.Require().NoError(err)
	suite.Require().True(vwap.IsSome())
	suite.InDelta((13.0*4000+14.0*5000)/9000.0, vwap.Unwrap(), 1e-9)
}

func (suite *DataViewTestSuite) TestVWAPZeroVolume() {
	day := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	suite.source.add("STOCK_Z", day, 5.0, 0)

	v := suite.view(day, false)

	vwap, err := v.VWAP("STOCK_Z", 1)
	suite.Require().NoError(err)
	suite.True(vwap.IsNone())
}
