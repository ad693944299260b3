// Package simulation validates backtest and Monte Carlo requests, dispatches
// to the right strategy/engine, and translates the result to the API's JSON
// shapes. It is named simulation rather than services to avoid colliding
// with the existing package of that name while keeping the same flavor of
// request-in, sentinel-errors-out orchestration.
package simulation

import (
	"errors"
	"time"
)

var (
	ErrUnknownStrategy         = errors.New("simulation: unknown strategy")
	ErrNoAssets                = errors.New("simulation: asset_ids must be non-empty")
	ErrUnknownAsset            = errors.New("simulation: unknown asset id")
	ErrDateRangeInvalid        = errors.New("simulation: start_date must be before end_date")
	ErrDateRangeNotPast        = errors.New("simulation: start_date and end_date must be strictly in the past")
	ErrDateRangeTooShort       = errors.New("simulation: date range must be at least 7 days")
	ErrDateRangeTooLong        = errors.New("simulation: date range must be at most 10 years")
	ErrAssetDataUnavailable    = errors.New("simulation: asset has no price data covering the requested range")
	ErrMissingParameter        = errors.New("simulation: missing or invalid required strategy parameter")
	ErrUnknownSimulationMethod = errors.New("simulation: unknown simulation_method")
	ErrInvestmentMonthsTooMany = errors.New("simulation: investment_months exceeds the configured maximum")
)

const (
	minBacktestRange = 7 * 24 * time.Hour
	maxBacktestRange = 10 * 365 * 24 * time.Hour
)
