package priceservice

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore is the production Store backed by the fact_price table,
// following the query shape of repository.PriceRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// TradingDays returns every distinct date in [start, end] for which any
// security has a fact_price row, ascending.
func (s *PostgresStore) TradingDays(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date
		FROM fact_price
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query trading days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan trading day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// PriceLookup bulk-fetches adjusted closes for assetIDs over [start, end] in
// a single query, materialising the whole range once per run.
func (s *PostgresStore) PriceLookup(ctx context.Context, assetIDs []int64, start, end time.Time) (Lookup, error) {
	if len(assetIDs) == 0 {
		return NewLookup(nil), nil
	}

	query := `
		SELECT security_id, date, close
		FROM fact_price
		WHERE security_id = ANY($1) AND date >= $2 AND date <= $3
	`
	rows, err := s.pool.Query(ctx, query, assetIDs, start, end)
	if err != nil {
		return Lookup{}, fmt.Errorf("failed to query price lookup: %w", err)
	}
	defer rows.Close()

	prices := make(map[AssetDay]decimal.Decimal)
	for rows.Next() {
		var assetID int64
		var day time.Time
		var close float64
		if err := rows.Scan(&assetID, &day, &close); err != nil {
			return Lookup{}, fmt.Errorf("failed to scan price row: %w", err)
		}
		prices[AssetDay{AssetID: assetID, Day: normalize(day)}] = decimal.NewFromFloat(close)
	}
	if err := rows.Err(); err != nil {
		return Lookup{}, err
	}
	return NewLookup(prices), nil
}

// AssetAvailability returns the earliest and latest dates assetID has a
// fact_price row for.
func (s *PostgresStore) AssetAvailability(ctx context.Context, assetID int64) (time.Time, time.Time, bool, error) {
	query := `SELECT MIN(date), MAX(date) FROM fact_price WHERE security_id = $1`
	var first, last *time.Time
	if err := s.pool.QueryRow(ctx, query, assetID).Scan(&first, &last); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to query asset availability: %w", err)
	}
	if first == nil || last == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	return *first, *last, true, nil
}
