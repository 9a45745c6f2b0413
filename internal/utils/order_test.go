package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
)

func TestMaxAffordableSharesZeroFees(t *testing.T) {
	fees := &commission_fee.ZeroCommissionFee{}

	assert.Equal(t, int64(100), MaxAffordableShares(1000, 10, fees))
	assert.Equal(t, int64(99), MaxAffordableShares(999, 10, fees))
}

func TestMaxAffordableSharesAccountsForFees(t *testing.T) {
	fees := &commission_fee.ChinaAShareCommissionFee{
		Ratio:         0.0003,
		MinCommission: 5.0,
		StampTaxRate:  0.001,
	}

	shares := MaxAffordableShares(1000, 10, fees)

	// 100 shares cost 1000 plus the 5.0 minimum commission, so the estimate
	// must back off.
	assert.Equal(t, int64(99), shares)

	value := float64(shares) * 10
	assert.LessOrEqual(t, value+fees.Calculate(value, false), 1000.0)
}

func TestMaxAffordableSharesDegenerateInputs(t *testing.T) {
	fees := &commission_fee.ZeroCommissionFee{}

	assert.Zero(t, MaxAffordableShares(0, 10, fees))
	assert.Zero(t, MaxAffordableShares(-100, 10, fees))
	assert.Zero(t, MaxAffordableShares(1000, 0, fees))
	assert.Zero(t, MaxAffordableShares(5, 10, fees))
}

func TestSharesForValueCapsAtCash(t *testing.T) {
	fees := &commission_fee.ZeroCommissionFee{}

	assert.Equal(t, int64(50), SharesForValue(1000, 500, 10, fees))
	assert.Equal(t, int64(100), SharesForValue(1000, 5000, 10, fees))
}

func TestRoundToLot(t *testing.T) {
	assert.Equal(t, int64(200), RoundToLot(250, 100))
	assert.Equal(t, int64(0), RoundToLot(99, 100))
	assert.Equal(t, int64(250), RoundToLot(250, 1))
	assert.Equal(t, int64(250), RoundToLot(250, 0))
}
