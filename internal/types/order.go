package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

type OrderStatus string

const (
	OrderStatusUnsubmitted     OrderStatus = "UNSUBMITTED"
	OrderStatusAccepted        OrderStatus = "ACCEPTED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFailed          OrderStatus = "FAILED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Terminal reports whether the order can no longer change state.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusPartiallyFilled, OrderStatusFailed, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

const (
	OrderReasonStrategy             string = "strategy"
	OrderReasonInsufficientFunds    string = "insufficient_funds"
	OrderReasonInsufficientPosition string = "insufficient_position"
	OrderReasonZeroVolume           string = "zero_or_insufficient_volume"
	OrderReasonLimitUp              string = "limit_up"
	OrderReasonLimitDown            string = "limit_down"
	OrderReasonNoPrice              string = "price_unavailable"
	OrderReasonEndOfDay             string = "end_of_day"
)

// Order is a trade intent. Amount is signed: positive buys, negative sells.
// An order is created by the blotter and reaches exactly one terminal status
// within the trading day it was submitted; orders never survive a day boundary.
type Order struct {
	OrderID string `yaml:"order_id" json:"order_id" validate:"required"`
	Symbol  string `yaml:"symbol" json:"symbol" validate:"required"`
	// Amount is the requested signed quantity in shares.
	Amount int64 `yaml:"amount" json:"amount"`
	// Limit is the optional limit price; market data close is used when absent.
	Limit optional.Option[float64] `yaml:"limit" json:"limit"`
	// Filled is the signed quantity actually executed.
	Filled int64       `yaml:"filled" json:"filled"`
	Status OrderStatus `yaml:"status" json:"status"`
	// Reason records why the order reached its terminal status.
	Reason string `yaml:"reason" json:"reason"`
	// Price is the execution price after slippage, set on fill.
	Price float64 `yaml:"price" json:"price"`
	// Commission is the total fee charged on fill.
	Commission float64   `yaml:"commission" json:"commission"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at" validate:"required"`
}

// IsBuy reports whether the order increases the position.
func (o *Order) IsBuy() bool {
	return o.Amount > 0
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	if o.Amount == 0 {
		return errors.New(errors.ErrCodeInvalidAmount, "order amount must be non-zero")
	}

	return nil
}
