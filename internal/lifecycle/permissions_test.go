package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xwinwin/SimTradeLab/internal/types"
)

type PermissionsTestSuite struct {
	suite.Suite
}

func TestPermissionsSuite(t *testing.T) {
	suite.Run(t, new(PermissionsTestSuite))
}

func (suite *PermissionsTestSuite) TestConfigSettersAreInitializeOnly() {
	for _, op := range []string{
		"set_benchmark", "set_commission", "set_slippage",
		"set_fixed_slippage", "set_volume_ratio", "set_limit_mode",
	} {
		suite.True(IsAllowedInPhase(op, PhaseInitialize), op)
		suite.False(IsAllowedInPhase(op, PhaseHandleData), op)
		suite.False(IsAllowedInPhase(op, PhaseBeforeTradingStart), op)
	}
}

func (suite *PermissionsTestSuite) TestUniverseMayChangeBeforeOpen() {
	suite.True(IsAllowedInPhase("set_universe", PhaseInitialize))
	suite.True(IsAllowedInPhase("set_universe", PhaseBeforeTradingStart))
	suite.False(IsAllowedInPhase("set_universe", PhaseHandleData))
}

func (suite *PermissionsTestSuite) TestTradingOperations() {
	suite.True(IsAllowedInPhase("order", PhaseHandleData))
	suite.True(IsAllowedInPhase("order", PhaseTickData))
	suite.False(IsAllowedInPhase("order", PhaseInitialize))
	suite.False(IsAllowedInPhase("order", PhaseAfterTradingEnd))

	suite.True(IsAllowedInPhase("cancel_order", PhaseOnOrderResponse))
	suite.False(IsAllowedInPhase("cancel_order", PhaseAfterTradingEnd))
}

func (suite *PermissionsTestSuite) TestQueriesAllowedEverywhere() {
	for _, phase := range AllPhases {
		suite.True(IsAllowedInPhase("get_positions", phase), string(phase))
		suite.True(IsAllowedInPhase("log", phase), string(phase))
	}
}

func (suite *PermissionsTestSuite) TestUnknownOperationIsUnrestricted() {
	suite.True(IsAllowedInPhase("some_future_op", PhaseAfterTradingEnd))
	suite.True(IsSupportedInMode("some_future_op", types.ModeResearch))
	suite.Len(AllowedPhases("some_future_op"), len(AllPhases))
}

func (suite *PermissionsTestSuite) TestModeRestrictions() {
	suite.True(IsSupportedInMode("order", types.ModeBacktest))
	suite.True(IsSupportedInMode("order", types.ModeTrading))
	suite.False(IsSupportedInMode("order", types.ModeResearch))

	// Friction knobs are simulation-only.
	suite.True(IsSupportedInMode("set_slippage", types.ModeBacktest))
	suite.False(IsSupportedInMode("set_slippage", types.ModeTrading))

	suite.True(IsSupportedInMode("set_commission", types.ModeTrading))
}

func (suite *PermissionsTestSuite) TestAllowedPhasesReturnsCopy() {
	phases := AllowedPhases("order")
	suite.Require().NotEmpty(phases)
	phases[0] = PhaseNone

	suite.Equal(PhaseHandleData, AllowedPhases("order")[0])
}

func (suite *PermissionsTestSuite) TestPhaseOperations() {
	ops := PhaseOperations(PhaseInitialize)
	suite.Contains(ops, "set_commission")
	suite.Contains(ops, "get_positions")
	suite.NotContains(ops, "order")
}
