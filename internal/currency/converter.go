// Package currency resolves stored exchange rates and converts monetary
// amounts between currencies for bid and negotiation comparison.
package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// ErrRateUnavailable is returned when neither the requested pair nor its
// inverse has a stored rate for the requested date. Falling back to an
// earlier date is a caller policy, never applied here.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

var one = decimal.NewFromInt(1)

// minorUnits holds the decimal places of currencies that deviate from the
// common two.
var minorUnits = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// MinorUnits returns the number of decimal places amounts in the currency
// are rounded to
func MinorUnits(code string) int32 {
	if n, ok := minorUnits[code]; ok {
		return n
	}
	return 2
}

// Converter converts amounts between currencies using dated stored rates
type Converter struct {
	rates  port.RateRepository
	logger *zap.Logger
}

// NewConverter creates a new converter over the rate repository
func NewConverter(rates port.RateRepository, logger *zap.Logger) *Converter {
	return &Converter{rates: rates, logger: logger}
}

// Rate resolves the exchange rate from one currency to another on the given
// date. An identical pair resolves to 1 without a lookup; a missing direct
// rate falls back to the reciprocal of the inverse pair.
func (c *Converter) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}

	rate, err := c.rates.Rate(ctx, from, to, date)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, workflow.ErrNotFound) {
		return decimal.Zero, err
	}

	inverse, invErr := c.rates.Rate(ctx, to, from, date)
	if invErr == nil {
		if inverse.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: inverse rate %s/%s is zero", ErrRateUnavailable, to, from)
		}
		return one.Div(inverse), nil
	}
	if !errors.Is(invErr, workflow.ErrNotFound) {
		return decimal.Zero, invErr
	}

	return decimal.Zero, fmt.Errorf("%w: %s/%s on %s", ErrRateUnavailable, from, to, date.Format("2006-01-02"))
}

// Convert converts the amount from one currency to another on the given
// date, rounding the result to the target currency's minor units. A
// same-currency conversion returns the amount unchanged.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := c.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}

	converted := amount.Mul(rate).Round(MinorUnits(to))

	c.logger.Debug("Converted amount",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("converted", converted.String()))

	return converted, nil
}
