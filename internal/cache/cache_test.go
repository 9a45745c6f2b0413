package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DailyCacheTestSuite struct {
	suite.Suite
	cache *DailyCache
}

func TestDailyCacheSuite(t *testing.T) {
	suite.Run(t, new(DailyCacheTestSuite))
}

func (suite *DailyCacheTestSuite) SetupTest() {
	suite.cache = NewDailyCache()
}

func (suite *DailyCacheTestSuite) TestPortfolioValueScopedToDate() {
	day1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)

	suite.cache.SetDate(day1)
	suite.cache.SetPortfolioValue(100000)

	v := suite.cache.PortfolioValue()
	suite.Require().True(v.IsSome())
	suite.Equal(100000.0, v.Unwrap())

	// Same date again must not invalidate.
	suite.cache.SetDate(day1)
	suite.True(suite.cache.PortfolioValue().IsSome())

	suite.cache.SetDate(day2)
	suite.True(suite.cache.PortfolioValue().IsNone())
}

func (suite *DailyCacheTestSuite) TestInvalidatePortfolioValue() {
	suite.cache.SetDate(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	suite.cache.SetPortfolioValue(50000)

	suite.cache.InvalidatePortfolioValue()
	suite.True(suite.cache.PortfolioValue().IsNone())
}

func (suite *DailyCacheTestSuite) TestIndicatorMemoization() {
	day1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	suite.cache.SetDate(day1)

	key := IndicatorKey("ma", "STOCK_A", 5)
	suite.Equal("ma:STOCK_A:5", key)

	_, ok := suite.cache.Indicator(key)
	suite.False(ok)

	suite.cache.SetIndicator(key, 10.5)
	v, ok := suite.cache.Indicator(key)
	suite.True(ok)
	suite.Equal(10.5, v)

	// New date drops memoized indicators.
	suite.cache.SetDate(day1.AddDate(0, 0, 1))
	_, ok = suite.cache.Indicator(key)
	suite.False(ok)
}

func (suite *DailyCacheTestSuite) TestStrategyDataSurvivesDateChange() {
	suite.cache.SetDate(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	suite.cache.Set("entry_price", 12.3)

	suite.cache.SetDate(time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC))

	v, ok := suite.cache.Get("entry_price")
	suite.True(ok)
	suite.Equal(12.3, v)
}

func (suite *DailyCacheTestSuite) TestReset() {
	suite.cache.SetDate(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC))
	suite.cache.SetPortfolioValue(1)
	suite.cache.Set("k", "v")

	suite.cache.Reset()

	suite.True(suite.cache.Date().IsNone())
	suite.True(suite.cache.PortfolioValue().IsNone())
	_, ok := suite.cache.Get("k")
	suite.False(ok)
}
