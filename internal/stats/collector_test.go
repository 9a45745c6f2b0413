package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xwinwin/SimTradeLab/internal/logger"
)

type CollectorTestSuite struct {
	suite.Suite
	logger    *logger.Logger
	collector *Collector
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorTestSuite))
}

func (suite *CollectorTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *CollectorTestSuite) SetupTest() {
	suite.collector = NewCollector(suite.logger)
}

func (suite *CollectorTestSuite) TestDayRoundTrip() {
	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	suite.collector.BeginDay(day, 100000, 2)
	suite.collector.RecordCashFlow(100000, 99000) // bought 1000
	suite.collector.RecordCashFlow(99000, 99500)  // sold 500
	suite.collector.Record("ma5", 10.5)
	suite.collector.EndDay(100200, 1200)

	records := suite.collector.Records()
	suite.Require().Len(records, 1)

	record := records[0]
	suite.True(record.Date.Equal(day))
	suite.Equal(100000.0, record.PreTradeValue)
	suite.Equal(2, record.OpenPositions)
	suite.InDelta(1000.0, record.BuyAmount, 1e-9)
	suite.InDelta(500.0, record.SellAmount, 1e-9)
	suite.Equal(100200.0, record.PostTradeValue)
	suite.Equal(1200.0, record.PositionsValue)
	suite.Equal(10.5, record.Recorded["ma5"])
}

func (suite *CollectorTestSuite) TestRecordOutsideDayIsIgnored() {
	suite.collector.Record("orphan", 1.0)
	suite.collector.RecordCashFlow(1, 2)
	suite.collector.EndDay(0, 0)

	suite.Empty(suite.collector.Records())
}

func (suite *CollectorTestSuite) TestUnclosedDayFlushedByNextBegin() {
	day1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	suite.collector.BeginDay(day1, 100000, 0)
	suite.collector.BeginDay(day2, 100000, 0)
	suite.collector.EndDay(100000, 0)

	suite.Len(suite.collector.Records(), 2)
}

func (suite *CollectorTestSuite) TestLastRecordAndTotalReturn() {
	suite.True(suite.collector.LastRecord().IsNone())
	suite.Zero(suite.collector.TotalReturn())

	day := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	suite.collector.BeginDay(day, 100000, 0)
	suite.collector.EndDay(101000, 0)

	suite.collector.BeginDay(day.AddDate(0, 0, 1), 101000, 1)
	suite.collector.EndDay(103000, 2000)

	last := suite.collector.LastRecord()
	suite.Require().True(last.IsSome())
	suite.Equal(103000.0, last.Unwrap().PostTradeValue)

	suite.InDelta(0.03, suite.collector.TotalReturn(), 1e-9)
}
