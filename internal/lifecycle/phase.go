package lifecycle

// Phase is a named stage of the simulated trading day. PhaseNone is the
// pre-initialization state; no phase has been entered yet.
type Phase string

const (
	PhaseNone               Phase = ""
	PhaseInitialize         Phase = "initialize"
	PhaseBeforeTradingStart Phase = "before_trading_start"
	PhaseHandleData         Phase = "handle_data"
	PhaseAfterTradingEnd    Phase = "after_trading_end"
	PhaseTickData           Phase = "tick_data"
	PhaseOnOrderResponse    Phase = "on_order_response"
	PhaseOnTradeResponse    Phase = "on_trade_response"
)

// AllPhases lists every phase in lifecycle order.
var AllPhases = []Phase{
	PhaseInitialize,
	PhaseBeforeTradingStart,
	PhaseHandleData,
	PhaseAfterTradingEnd,
	PhaseTickData,
	PhaseOnOrderResponse,
	PhaseOnTradeResponse,
}

// allowedTransitions is the fixed directed graph of legal phase changes.
// The graph is a contract independent of run mode; the backtest orchestrator
// only ever exercises initialize -> before_trading_start -> handle_data ->
// after_trading_end -> before_trading_start -> ...
var allowedTransitions = map[Phase][]Phase{
	PhaseNone: {PhaseInitialize},
	PhaseInitialize: {
		PhaseBeforeTradingStart,
		PhaseHandleData,
	},
	PhaseBeforeTradingStart: {
		PhaseHandleData,
		PhaseTickData,
	},
	PhaseHandleData: {
		PhaseHandleData, // repeatable
		PhaseTickData,
		PhaseAfterTradingEnd,
		PhaseOnOrderResponse,
		PhaseOnTradeResponse,
	},
	PhaseTickData: {
		PhaseTickData, // repeatable
		PhaseHandleData,
		PhaseOnOrderResponse,
		PhaseOnTradeResponse,
	},
	PhaseOnOrderResponse: {
		PhaseHandleData,
		PhaseTickData,
		PhaseOnTradeResponse,
	},
	PhaseOnTradeResponse: {
		PhaseHandleData,
		PhaseTickData,
	},
	PhaseAfterTradingEnd: {
		PhaseBeforeTradingStart, // next trading day
		PhaseInitialize,         // re-initialization
	},
}

// CanTransition reports whether the edge from -> to exists in the phase graph.
func CanTransition(from, to Phase) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// AllowedTransitions returns the legal target phases from the given phase.
func AllowedTransitions(from Phase) []Phase {
	targets := allowedTransitions[from]
	out := make([]Phase, len(targets))
	copy(out, targets)

	return out
}
