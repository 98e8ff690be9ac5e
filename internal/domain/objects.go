package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a fixed-point decimal price with an explicit precision
// (digits after the decimal point). Two prices are only comparable
// when their precisions match; mixing precisions is a programming
// error and panics rather than silently coercing.
type Price struct {
	value     decimal.Decimal
	precision int
}

// NewPrice creates a price from a decimal value rounded to the given precision.
func NewPrice(value decimal.Decimal, precision int) Price {
	if precision < 0 {
		panic(NewContractError("price precision", fmt.Sprintf("negative precision %d", precision)))
	}
	return Price{value: value.Round(int32(precision)), precision: precision}
}

// NewPriceFromString parses a price string, inferring precision from the
// number of fractional digits (e.g. "1.00005" has precision 5).
func NewPriceFromString(value string) Price {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(NewContractError("price", fmt.Sprintf("unparsable value %q", value)))
	}
	return Price{value: d, precision: fractionalDigits(value)}
}

// Decimal returns the underlying exact decimal value.
func (p Price) Decimal() decimal.Decimal { return p.value }

// Precision returns the number of digits after the decimal point.
func (p Price) Precision() int { return p.precision }

// IsZero reports whether the price has its zero value.
func (p Price) IsZero() bool { return p.value.IsZero() }

// Add returns p + other. Panics on precision mismatch.
func (p Price) Add(other Price) Price {
	p.checkPrecision(other)
	return Price{value: p.value.Add(other.value), precision: p.precision}
}

// Sub returns p - other. Panics on precision mismatch.
func (p Price) Sub(other Price) Price {
	p.checkPrecision(other)
	return Price{value: p.value.Sub(other.value), precision: p.precision}
}

// Cmp compares two prices of equal precision (-1, 0, +1).
func (p Price) Cmp(other Price) int {
	p.checkPrecision(other)
	return p.value.Cmp(other.value)
}

// Equal reports exact structural equality: same value and same precision.
func (p Price) Equal(other Price) bool {
	return p.precision == other.precision && p.value.Equal(other.value)
}

// String renders the price with its full fixed precision (e.g. "1.00000").
func (p Price) String() string {
	return p.value.StringFixed(int32(p.precision))
}

func (p Price) checkPrecision(other Price) {
	if p.precision != other.precision {
		panic(NewContractError("price arithmetic",
			fmt.Sprintf("precision mismatch %d vs %d", p.precision, other.precision)))
	}
}

// MidPrice computes (bid + ask) / 2 at one extra digit of precision,
// so a 5-digit bid/ask pair yields an exact 6-digit mid.
func MidPrice(bid, ask Price) Price {
	sum := bid.Decimal().Add(ask.Decimal())
	return NewPrice(sum.Div(decimal.NewFromInt(2)), bid.Precision()+1)
}

// Quantity is a fixed-point decimal amount with an explicit precision.
type Quantity struct {
	value     decimal.Decimal
	precision int
}

// NewQuantity creates a quantity from a decimal value rounded to the
// given precision. Negative quantities are a contract violation.
func NewQuantity(value decimal.Decimal, precision int) Quantity {
	if value.IsNegative() {
		panic(NewContractError("quantity", fmt.Sprintf("negative amount %s", value)))
	}
	return Quantity{value: value.Round(int32(precision)), precision: precision}
}

// NewQuantityFromInt creates a whole-unit quantity.
func NewQuantityFromInt(value int64) Quantity {
	return NewQuantity(decimal.NewFromInt(value), 0)
}

// NewQuantityFromString parses a quantity string, inferring precision
// from the fractional digits.
func NewQuantityFromString(value string) Quantity {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(NewContractError("quantity", fmt.Sprintf("unparsable value %q", value)))
	}
	return NewQuantity(d, fractionalDigits(value))
}

// Decimal returns the underlying exact decimal value.
func (q Quantity) Decimal() decimal.Decimal { return q.value }

// Precision returns the number of digits after the decimal point.
func (q Quantity) Precision() int { return q.precision }

// IsZero reports whether the quantity is zero.
func (q Quantity) IsZero() bool { return q.value.IsZero() }

// Add returns q + other at q's precision.
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{value: q.value.Add(other.value), precision: q.precision}
}

// Equal reports exact structural equality: same value and same precision.
func (q Quantity) Equal(other Quantity) bool {
	return q.precision == other.precision && q.value.Equal(other.value)
}

// String renders the quantity with its full fixed precision.
func (q Quantity) String() string {
	return q.value.StringFixed(int32(q.precision))
}

// Money is a currency-tagged decimal amount.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// NewMoney creates a money amount.
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// NewMoneyFromInt creates a whole-unit money amount.
func NewMoneyFromInt(amount int64, currency Currency) Money {
	return Money{Amount: decimal.NewFromInt(amount), Currency: currency}
}

// Add returns m + other. Panics on currency mismatch.
func (m Money) Add(other Money) Money {
	m.checkCurrency(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Sub returns m - other. Panics on currency mismatch.
func (m Money) Sub(other Money) Money {
	m.checkCurrency(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Equal reports value equality in the same currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}

func (m Money) checkCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(NewContractError("money arithmetic",
			fmt.Sprintf("currency mismatch %s vs %s", m.Currency, other.Currency)))
	}
}

// fractionalDigits counts digits after the decimal point in a numeric string.
func fractionalDigits(value string) int {
	i := strings.IndexByte(value, '.')
	if i < 0 {
		return 0
	}
	return len(value) - i - 1
}
