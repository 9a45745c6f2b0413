package types

// Mode is the run mode a strategy executes under.
type Mode string

const (
	ModeResearch Mode = "research"
	ModeBacktest Mode = "backtest"
	ModeTrading  Mode = "trading"
)

// AllModes lists every supported run mode.
var AllModes = []Mode{ModeResearch, ModeBacktest, ModeTrading}
