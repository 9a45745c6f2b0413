package stats

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/logger"
	"go.uber.org/zap"
)

// DailyRecord captures one simulated day of account statistics. Trade flow
// is derived from the cash movement of the day's resolution pass: cash
// leaving the account bought shares, cash arriving sold them.
type DailyRecord struct {
	Date time.Time `yaml:"date" json:"date"`

	// Captured before order resolution.
	PreTradeValue float64 `yaml:"pre_trade_value" json:"pre_trade_value"`
	OpenPositions int     `yaml:"open_positions" json:"open_positions"`

	// Cash flow of the resolution pass.
	BuyAmount  float64 `yaml:"buy_amount" json:"buy_amount"`
	SellAmount float64 `yaml:"sell_amount" json:"sell_amount"`

	// Captured after order resolution.
	PostTradeValue float64 `yaml:"post_trade_value" json:"post_trade_value"`
	PositionsValue float64 `yaml:"positions_value" json:"positions_value"`

	// Recorded holds the strategy's own record() series for the day.
	Recorded map[string]float64 `yaml:"recorded" json:"recorded"`
}

// Collector accumulates per-day account statistics over a run.
type Collector struct {
	log     *logger.Logger
	records []DailyRecord
	current optional.Option[DailyRecord]
}

func NewCollector(log *logger.Logger) *Collector {
	return &Collector{log: log}
}

// BeginDay opens the record for a simulated day. An unclosed previous day is
// flushed as-is.
func (c *Collector) BeginDay(date time.Time, preTradeValue float64, openPositions int) {
	if c.current.IsSome() {
		c.records = append(c.records, c.current.Unwrap())
	}

	c.current = optional.Some(DailyRecord{
		Date:          date,
		PreTradeValue: preTradeValue,
		OpenPositions: openPositions,
		Recorded:      make(map[string]float64),
	})
}

// RecordCashFlow attributes the cash movement of a resolution pass to buy or
// sell turnover.
func (c *Collector) RecordCashFlow(cashBefore, cashAfter float64) {
	if c.current.IsNone() {
		return
	}

	record := c.current.Unwrap()

	delta := cashAfter - cashBefore
	if delta < 0 {
		record.BuyAmount += -delta
	} else {
		record.SellAmount += delta
	}

	c.current = optional.Some(record)
}

// Record stores a named strategy series value for the current day. Later
// writes to the same key overwrite earlier ones.
func (c *Collector) Record(key string, value float64) {
	if c.current.IsNone() {
		c.log.Warn("Record called outside a simulated day", zap.String("key", key))
		return
	}

	record := c.current.Unwrap()
	record.Recorded[key] = value
	c.current = optional.Some(record)
}

// EndDay closes the current record with the post-trade marks.
func (c *Collector) EndDay(postTradeValue, positionsValue float64) {
	if c.current.IsNone() {
		return
	}

	record := c.current.Unwrap()
	record.PostTradeValue = postTradeValue
	record.PositionsValue = positionsValue

	c.records = append(c.records, record)
	c.current = optional.None[DailyRecord]()
}

// Records returns every closed day, oldest first.
func (c *Collector) Records() []DailyRecord {
	out := make([]DailyRecord, len(c.records))
	copy(out, c.records)

	return out
}

// LastRecord returns the most recently closed day.
func (c *Collector) LastRecord() optional.Option[DailyRecord] {
	if len(c.records) == 0 {
		return optional.None[DailyRecord]()
	}

	return optional.Some(c.records[len(c.records)-1])
}

// TotalReturn reports the run's simple return between the first day's
// pre-trade value and the last day's post-trade value.
func (c *Collector) TotalReturn() float64 {
	if len(c.records) == 0 {
		return 0
	}

	first := c.records[0].PreTradeValue
	if first == 0 {
		return 0
	}

	last := c.records[len(c.records)-1].PostTradeValue

	return (last - first) / first
}
