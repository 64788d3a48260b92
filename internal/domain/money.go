package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const CurrencySymbol = "₹"

var printer = message.NewPrinter(language.English)

// FormatAmount renders d with two decimals and thousands grouping, e.g. 1,234.50.
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatMoney is FormatAmount prefixed with the currency symbol.
func FormatMoney(d decimal.Decimal) string {
	return CurrencySymbol + FormatAmount(d)
}

// ParseAmount parses a non-negative decimal entered as text.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", raw)
	}
	return d, nil
}
