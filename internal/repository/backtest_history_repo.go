package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BacktestHistoryRepository persists a summary of each completed backtest
// run for later retrieval. Adapted from PortfolioRepository's pgx patterns;
// unlike portfolio writes this is best-effort — callers log and swallow
// failures rather than fail the run (see simulation.BacktestOrchestrator.RunBacktest).
type BacktestHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewBacktestHistoryRepository creates a BacktestHistoryRepository.
func NewBacktestHistoryRepository(pool *pgxpool.Pool) *BacktestHistoryRepository {
	return &BacktestHistoryRepository{pool: pool}
}

// Record is one row of backtest_history.
type Record struct {
	BacktestID string
	Strategy   string
	Parameters map[string]interface{}
	StartDate  time.Time
	EndDate    time.Time
	FinalValue float64
	RanAt      time.Time
}

// Insert writes rec to backtest_history. Callers are expected to treat a
// non-nil error as non-fatal to the surrounding request.
func (r *BacktestHistoryRepository) Insert(ctx context.Context, rec Record) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest parameters: %w", err)
	}

	query := `
		INSERT INTO backtest_history (backtest_id, strategy, parameters, start_date, end_date, final_value, ran_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query, rec.BacktestID, rec.Strategy, params, rec.StartDate, rec.EndDate, rec.FinalValue, rec.RanAt)
	if err != nil {
		return fmt.Errorf("failed to insert backtest history: %w", err)
	}
	return nil
}
