package models

import (
	"time"
)

// Security represents a tradeable security, resolved from dim_security
// against the asset_ids a backtest or Monte Carlo request names.
type Security struct {
	ID        int64      `json:"id"`
	Symbol    string     `json:"symbol"` // maps to ticker column
	Name      string     `json:"name"`
	Exchange  int        `json:"exchange"`  // FK to dim_exchanges
	Inception *time.Time `json:"inception"` // nullable DATE
	URL       *string    `json:"url"`       // nullable VARCHAR
	Type      string     `json:"type"`      // ds_type enum value
}
