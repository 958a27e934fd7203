package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

// rateRepoMock implements port.RateRepository with function fields
type rateRepoMock struct {
	rateFn func(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}

func (m *rateRepoMock) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	return m.rateFn(ctx, from, to, date)
}

func (m *rateRepoMock) Store(ctx context.Context, from, to string, date time.Time, rate decimal.Decimal) error {
	return nil
}

// fixedRates resolves pairs from a static "FROM/TO" keyed map, missing pairs
// report workflow.ErrNotFound like the real repository
func fixedRates(rates map[string]string) *rateRepoMock {
	return &rateRepoMock{
		rateFn: func(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
			if r, ok := rates[from+"/"+to]; ok {
				return decimal.RequireFromString(r), nil
			}
			return decimal.Zero, workflow.ErrNotFound
		},
	}
}

func TestConverterRate(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rates    map[string]string
		from     string
		to       string
		expected string
		wantErr  error
	}{
		{
			name:     "same currency is unity without lookup",
			rates:    map[string]string{},
			from:     "USD",
			to:       "USD",
			expected: "1",
		},
		{
			name:     "direct rate",
			rates:    map[string]string{"EUR/USD": "1.18"},
			from:     "EUR",
			to:       "USD",
			expected: "1.18",
		},
		{
			name:     "inverse fallback",
			rates:    map[string]string{"USD/EUR": "0.8"},
			from:     "EUR",
			to:       "USD",
			expected: "1.25",
		},
		{
			name:    "no rate either way",
			rates:   map[string]string{},
			from:    "EUR",
			to:      "USD",
			wantErr: ErrRateUnavailable,
		},
		{
			name:    "zero inverse rate",
			rates:   map[string]string{"USD/EUR": "0"},
			from:    "EUR",
			to:      "USD",
			wantErr: ErrRateUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := NewConverter(fixedRates(tt.rates), zap.NewNop())

			rate, err := converter.Rate(context.Background(), tt.from, tt.to, date)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.expected)),
				"rate %s, expected %s", rate, tt.expected)
		})
	}
}

func TestConverterRatePropagatesRepositoryError(t *testing.T) {
	repoErr := errors.New("database is locked")
	repo := &rateRepoMock{
		rateFn: func(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
			return decimal.Zero, repoErr
		},
	}
	converter := NewConverter(repo, zap.NewNop())

	_, err := converter.Rate(context.Background(), "EUR", "USD", time.Now())
	assert.ErrorIs(t, err, repoErr)
	assert.NotErrorIs(t, err, ErrRateUnavailable)
}

func TestConverterConvert(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rates    map[string]string
		amount   string
		from     string
		to       string
		expected string
	}{
		{
			name:     "same currency unchanged",
			rates:    map[string]string{},
			amount:   "1000.555",
			from:     "USD",
			to:       "USD",
			expected: "1000.555",
		},
		{
			name:     "direct rate rounded to cents",
			rates:    map[string]string{"EUR/USD": "1.18"},
			amount:   "1000",
			from:     "EUR",
			to:       "USD",
			expected: "1180.00",
		},
		{
			name:     "zero decimal currency",
			rates:    map[string]string{"USD/JPY": "149.5"},
			amount:   "10.01",
			from:     "USD",
			to:       "JPY",
			expected: "1496",
		},
		{
			name:     "three decimal currency",
			rates:    map[string]string{"USD/KWD": "0.3071"},
			amount:   "100",
			from:     "USD",
			to:       "KWD",
			expected: "30.710",
		},
		{
			name:     "inverse fallback applied to amount",
			rates:    map[string]string{"USD/EUR": "0.8"},
			amount:   "100",
			from:     "EUR",
			to:       "USD",
			expected: "125.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := NewConverter(fixedRates(tt.rates), zap.NewNop())

			got, err := converter.Convert(context.Background(), decimal.RequireFromString(tt.amount), tt.from, tt.to, date)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestConverterConvertRoundTrip(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		rates  map[string]string
		amount string
		from   string
		to     string
	}{
		{
			name:   "two decimal currencies",
			rates:  map[string]string{"EUR/USD": "1.18"},
			amount: "2500.00",
			from:   "EUR",
			to:     "USD",
		},
		{
			name:   "through a zero decimal currency",
			rates:  map[string]string{"USD/JPY": "149.5"},
			amount: "100.25",
			from:   "USD",
			to:     "JPY",
		},
		{
			name:   "through a three decimal currency",
			rates:  map[string]string{"USD/KWD": "0.3071"},
			amount: "750.00",
			from:   "USD",
			to:     "KWD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := NewConverter(fixedRates(tt.rates), zap.NewNop())
			amount := decimal.RequireFromString(tt.amount)

			there, err := converter.Convert(context.Background(), amount, tt.from, tt.to, date)
			assert.NoError(t, err)

			// The return leg has no direct rate and relies on the inverse
			back, err := converter.Convert(context.Background(), there, tt.to, tt.from, date)
			assert.NoError(t, err)

			tolerance := decimal.New(1, -MinorUnits(tt.from))
			assert.True(t, back.Sub(amount).Abs().LessThanOrEqual(tolerance),
				"round trip drifted: %s -> %s -> %s", amount, there, back)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int32(2), MinorUnits("USD"))
	assert.Equal(t, int32(2), MinorUnits("EUR"))
	assert.Equal(t, int32(0), MinorUnits("JPY"))
	assert.Equal(t, int32(0), MinorUnits("KRW"))
	assert.Equal(t, int32(3), MinorUnits("BHD"))
}
