package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// FormatMoney renders an amount with two decimals, prefixed by the currency code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}
