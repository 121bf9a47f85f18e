package domain

import "errors"

// Validation errors: malformed input, rejected before any state mutation.
var (
	ErrTitleTooLong              = errors.New("title too long")
	ErrDescriptionTooLong        = errors.New("description too long")
	ErrDeadlineInPast            = errors.New("deadline must be in the future")
	ErrInvalidResolutionDeadline = errors.New("resolution deadline must be after betting deadline")
	ErrInvalidMinBet             = errors.New("minimum bet must be greater than zero")
	ErrInvalidMaxBet             = errors.New("maximum bet must be >= minimum bet")
	ErrBetTooSmall               = errors.New("bet amount below minimum")
	ErrBetTooLarge               = errors.New("bet amount above maximum")
)

// State errors: the operation is illegal in the market's current status.
var (
	ErrMarketNotOpen        = errors.New("market is not open")
	ErrMarketNotResolved    = errors.New("market is not resolved")
	ErrMarketNotReclaimable = errors.New("market is not reclaimable")
	ErrMarketHasBets        = errors.New("market has existing bets and cannot be cancelled")
	ErrBetDidNotWin         = errors.New("bet did not win")
)

// Timing errors: the deadline / resolution-deadline window is violated.
var (
	ErrBettingClosed     = errors.New("betting deadline has passed")
	ErrMarketNotReady    = errors.New("deadline has not passed yet")
	ErrResolutionExpired = errors.New("resolution deadline has passed")
)

// Oracle errors: the resolve attempt is aborted and may be retried later.
var (
	ErrOracleMismatch    = errors.New("oracle feed does not match market")
	ErrStalePrice        = errors.New("oracle price is stale")
	ErrInvalidOracleData = errors.New("invalid oracle price data")
)

// ErrOverflow is fatal for the whole operation: a checked accumulation or
// payout computation would not fit its target width. Never wrapped silently.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrAlreadyClaimed guards the one-shot claimed flag on a Bet.
var ErrAlreadyClaimed = errors.New("bet already claimed")

// Infrastructure and authorization errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrLockHeld      = errors.New("lock already held")
)
