package commission_fee

// CommissionFee computes the total fee charged on a trade of the given cash
// value. Sells may carry levies that buys do not.
type CommissionFee interface {
	Calculate(value float64, isSell bool) float64
}

type Broker string

const (
	BrokerChinaAShare Broker = "china_a_share"
	BrokerZero        Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerChinaAShare,
	BrokerZero,
}

func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerChinaAShare:
		return NewChinaAShareCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
