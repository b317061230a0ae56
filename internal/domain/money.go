package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used when the backend omits the currency of a price.
var DefaultCurrency = currency.INR

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// Mul returns the line total for qty units.
func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

// Add keeps the receiver's currency; mixing currencies is not expected within one cart.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) Equal(o Money) bool {
	return m.Amount.Equal(o.Amount) && m.Currency == o.Currency
}

func (m Money) String() string {
	return m.Currency.String() + " " + m.Amount.StringFixed(2)
}
