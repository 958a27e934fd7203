package utils

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	controlCharRegex  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateCurrencyCode checks that a currency code is a three-letter
// ISO 4217 style code
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid currency code: %q", code)
	}
	return nil
}

// ValidateAmount checks that a monetary amount is positive
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %s", amount)
	}
	return nil
}

// SanitizeString removes control characters from free-text input
func SanitizeString(s string) string {
	return controlCharRegex.ReplaceAllString(s, "")
}
