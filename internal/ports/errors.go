package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors
// so callers can branch with errors.Is without importing vendor packages.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	// ErrUnavailable covers every upstream failure mode of a market-data
	// fetch: transport error, non-success status, malformed payload, empty
	// candle list. Callers treat it as "no data now", not as fatal.
	ErrUnavailable = errors.New("market data unavailable")
	ErrRateLimited = errors.New("API rate limit exceeded")

	// Scoring Errors
	// ErrInsufficientData is the abstain signal of the hotness scorer:
	// an expected, retryable-later outcome, never logged at error severity.
	// It is distinct from a metrics value of exactly zero.
	ErrInsufficientData = errors.New("insufficient market data for scoring")

	// Text Pipeline Errors
	ErrAuthenticationFailed = errors.New("provider authentication failed (check API keys)")
	ErrEmptyCompletion      = errors.New("model returned an empty completion")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
