package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/rfq-procurement/internal/application/port"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
	"github.com/garyjia/rfq-procurement/pkg/database"
)

// RateRepository implements port.RateRepository over the exchange_rates
// table. Rates are keyed by (from, to, date); the date is stored at day
// granularity.
type RateRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRateRepository creates a new exchange rate repository
func NewRateRepository(db *database.DB, logger *zap.Logger) port.RateRepository {
	return &RateRepository{
		db:     db,
		logger: logger,
	}
}

// Rate looks up the stored rate for a currency pair on a date
func (r *RateRepository) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.db.GetExecutor(ctx).QueryRowContext(ctx,
		"SELECT rate FROM exchange_rates WHERE from_currency = ? AND to_currency = ? AND rate_date = ?",
		from, to, dateKey(date)).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: rate %s/%s on %s", workflow.ErrNotFound, from, to, dateKey(date))
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rate: %w", err)
	}
	return rate, nil
}

// Store upserts the rate for a currency pair on a date
func (r *RateRepository) Store(ctx context.Context, from, to string, date time.Time, rate decimal.Decimal) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, rate_date, rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_currency, to_currency, rate_date) DO UPDATE SET rate = excluded.rate
	`

	_, err := r.db.GetExecutor(ctx).ExecContext(ctx, query, from, to, dateKey(date), rate)
	if err != nil {
		r.logger.Error("Failed to store rate",
			zap.String("pair", from+"/"+to), zap.Error(err))
		return fmt.Errorf("failed to store rate: %w", err)
	}
	return nil
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Verify interface compliance
var _ port.RateRepository = (*RateRepository)(nil)
