package commission_fee

type ZeroCommissionFee struct {
}

func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

func (c *ZeroCommissionFee) Calculate(value float64, isSell bool) float64 {
	return 0
}
