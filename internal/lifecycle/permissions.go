package lifecycle

import "github.com/xwinwin/SimTradeLab/internal/types"

// phaseAll is the sentinel meaning an operation may run in every phase.
const phaseAll Phase = "all"

// operationPhases maps operation names to the phases in which they may be
// invoked. Operations absent from the table are allowed everywhere.
// Immutable after load.
var operationPhases = map[string][]Phase{
	// Configuration setters, initialize only.
	"set_benchmark":      {PhaseInitialize},
	"set_commission":     {PhaseInitialize},
	"set_slippage":       {PhaseInitialize},
	"set_fixed_slippage": {PhaseInitialize},
	"set_volume_ratio":   {PhaseInitialize},
	"set_limit_mode":     {PhaseInitialize},

	// Setters allowed before the open as well.
	"set_universe":   {PhaseInitialize, PhaseBeforeTradingStart},
	"set_parameters": {PhaseInitialize, PhaseBeforeTradingStart},

	// Trading operations.
	"order":        {PhaseHandleData, PhaseTickData},
	"order_target": {PhaseHandleData, PhaseTickData},
	"order_value":  {PhaseHandleData, PhaseTickData},
	"cancel_order": {PhaseHandleData, PhaseTickData, PhaseOnOrderResponse},

	// Queries, allowed everywhere.
	"get_position":    {phaseAll},
	"get_positions":   {phaseAll},
	"get_open_orders": {phaseAll},
	"get_order":       {phaseAll},
	"record":          {phaseAll},
	"log":             {phaseAll},
	"check_limit":     {phaseAll},
}

// operationModes maps operation names to the run modes that support them.
// Operations absent from the table are supported in every mode.
var operationModes = map[string][]types.Mode{
	"order":        {types.ModeBacktest, types.ModeTrading},
	"order_target": {types.ModeBacktest, types.ModeTrading},
	"order_value":  {types.ModeBacktest, types.ModeTrading},
	"cancel_order": {types.ModeBacktest, types.ModeTrading},

	"set_commission":     {types.ModeBacktest, types.ModeTrading},
	"set_slippage":       {types.ModeBacktest},
	"set_fixed_slippage": {types.ModeBacktest},
	"set_volume_ratio":   {types.ModeBacktest},
	"set_limit_mode":     {types.ModeBacktest},

	"get_position":    {types.ModeBacktest, types.ModeTrading},
	"get_positions":   {types.ModeBacktest, types.ModeTrading},
	"get_open_orders": {types.ModeBacktest, types.ModeTrading},
	"get_order":       {types.ModeBacktest, types.ModeTrading},
}

// AllowedPhases returns the phases in which the operation may be invoked.
// Unknown operations are allowed in all phases.
func AllowedPhases(operation string) []Phase {
	phases, ok := operationPhases[operation]
	if !ok || (len(phases) == 1 && phases[0] == phaseAll) {
		out := make([]Phase, len(AllPhases))
		copy(out, AllPhases)

		return out
	}

	out := make([]Phase, len(phases))
	copy(out, phases)

	return out
}

// IsAllowedInPhase reports whether the operation may run in the given phase.
func IsAllowedInPhase(operation string, phase Phase) bool {
	phases, ok := operationPhases[operation]
	if !ok {
		return true
	}

	for _, p := range phases {
		if p == phaseAll || p == phase {
			return true
		}
	}

	return false
}

// SupportedModes returns the run modes that support the operation.
func SupportedModes(operation string) []types.Mode {
	modes, ok := operationModes[operation]
	if !ok {
		out := make([]types.Mode, len(types.AllModes))
		copy(out, types.AllModes)

		return out
	}

	out := make([]types.Mode, len(modes))
	copy(out, modes)

	return out
}

// IsSupportedInMode reports whether the operation is available in the mode.
func IsSupportedInMode(operation string, mode types.Mode) bool {
	modes, ok := operationModes[operation]
	if !ok {
		return true
	}

	for _, m := range modes {
		if m == mode {
			return true
		}
	}

	return false
}

// PhaseOperations returns the operations invocable in the given phase.
func PhaseOperations(phase Phase) []string {
	var ops []string

	for op := range operationPhases {
		if IsAllowedInPhase(op, phase) {
			ops = append(ops, op)
		}
	}

	return ops
}
