package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/portfolio/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSecurityNotFound = errors.New("security not found")

// SecurityRepository reads the dim_security table, the asset dimension the
// simulation core resolves requested asset_ids against.
type SecurityRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityRepository creates a new SecurityRepository
func NewSecurityRepository(pool *pgxpool.Pool) *SecurityRepository {
	return &SecurityRepository{pool: pool}
}

// GetByID retrieves a security by ID
func (r *SecurityRepository) GetByID(ctx context.Context, id int64) (*models.Security, error) {
	query := `
		SELECT id, ticker, name, exchange, inception, url, type
		FROM dim_security
		WHERE id = $1
	`
	s := &models.Security{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Symbol, &s.Name, &s.Exchange, &s.Inception, &s.URL, &s.Type,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSecurityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	return s, nil
}

// GetMultipleByIDs retrieves multiple securities by their IDs. Satisfies
// simulation.AssetUniverse.
func (r *SecurityRepository) GetMultipleByIDs(ctx context.Context, ids []int64) (map[int64]*models.Security, error) {
	if len(ids) == 0 {
		return make(map[int64]*models.Security), nil
	}

	query := `
		SELECT id, ticker, name, exchange, inception, url, type
		FROM dim_security
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]*models.Security)
	for rows.Next() {
		s := &models.Security{}
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Name, &s.Exchange, &s.Inception, &s.URL, &s.Type); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		result[s.ID] = s
	}
	return result, rows.Err()
}
