package commission_fee

import "github.com/shopspring/decimal"

// Default A-share friction parameters.
const (
	DefaultCommissionRatio = 0.0003
	DefaultMinCommission   = 5.0
	DefaultStampTaxRate    = 0.001

	// transferFeeRate is charged by the exchange on both sides.
	transferFeeRate = 0.0000487
)

// ChinaAShareCommissionFee models A-share trading costs: a brokerage
// commission with a minimum charge, a transfer fee on both sides, and a
// stamp tax on sells only. A zero commission ratio disables the charge
// entirely, minimum included.
type ChinaAShareCommissionFee struct {
	Ratio         float64
	MinCommission float64
	StampTaxRate  float64
}

func NewChinaAShareCommissionFee() *ChinaAShareCommissionFee {
	return &ChinaAShareCommissionFee{
		Ratio:         DefaultCommissionRatio,
		MinCommission: DefaultMinCommission,
		StampTaxRate:  DefaultStampTaxRate,
	}
}

// Calculate implements CommissionFee.
func (c *ChinaAShareCommissionFee) Calculate(value float64, isSell bool) float64 {
	if c.Ratio == 0 {
		return 0
	}

	valueDec := decimal.NewFromFloat(value)

	commission := valueDec.Mul(decimal.NewFromFloat(c.Ratio))

	minCommission := decimal.NewFromFloat(c.MinCommission)
	if commission.LessThan(minCommission) {
		commission = minCommission
	}

	total := commission.Add(valueDec.Mul(decimal.NewFromFloat(transferFeeRate)))

	if isSell {
		total = total.Add(valueDec.Mul(decimal.NewFromFloat(c.StampTaxRate)))
	}

	return total.InexactFloat64()
}
