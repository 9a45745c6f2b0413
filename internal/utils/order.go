package utils

import (
	"math"

	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
)

// MaxAffordableShares calculates the largest share count that cash can pay
// for at the given price, commission included.
func MaxAffordableShares(cash float64, price float64, fees commission_fee.CommissionFee) int64 {
	if price <= 0 || cash <= 0 {
		return 0
	}

	// Initial rough estimate ignoring fees.
	shares := math.Floor(cash / price)

	// Iteratively refine by accounting for fees. Usually converges in one
	// or two steps.
	for i := 0; i < 10 && shares > 0; i++ {
		value := shares * price

		totalCost := value + fees.Calculate(value, false)
		if totalCost <= cash {
			break
		}

		shares = math.Floor(shares * cash / totalCost)
	}

	return int64(shares)
}

// SharesForValue calculates the share count a cash value buys at the given
// price, commission included. The value is capped at the available cash.
func SharesForValue(cash float64, value float64, price float64, fees commission_fee.CommissionFee) int64 {
	if value > cash {
		value = cash
	}

	return MaxAffordableShares(value, price, fees)
}

// RoundToLot rounds a share count down to a whole number of board lots.
func RoundToLot(shares int64, lotSize int64) int64 {
	if lotSize <= 1 {
		return shares
	}

	return shares - shares%lotSize
}
