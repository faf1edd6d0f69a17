package plinko

import "errors"

// Settlement error set. Every rejection aborts the whole phase; callers can
// rely on no partial ledger or bankroll mutation having happened.
var (
	// Configuration errors, recoverable by retrying with corrected input.
	ErrInvalidLength      = errors.New("invalid bucket weights and payouts length")
	ErrInvalidBucketIndex = errors.New("invalid bucket index")
	ErrPlatformFeeTooHigh = errors.New("platform fee too high")
	ErrMaxBallsTooHigh    = errors.New("max balls too high")
	ErrInvalidValue       = errors.New("invalid value")

	// Authorization errors.
	ErrOnlyOwner = errors.New("only owner can call this function")

	// State errors. Do not retry blindly.
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
	ErrOddsLocked         = errors.New("odds are locked")
	ErrGamePaused         = errors.New("game is paused")
	ErrGameIDAlreadyUsed  = errors.New("game id already used")
	ErrGameNotFound       = errors.New("game not found")
	ErrGameAlreadyEnded   = errors.New("game already ended")
	ErrInvalidRequestID   = errors.New("invalid request id")
	ErrWithdrawalsPaused  = errors.New("withdrawals are paused")

	// Bet validation errors.
	ErrInvalidNumberOfBalls = errors.New("invalid number of balls")
	ErrInvalidBetAmount     = errors.New("invalid bet amount")

	// Transient error, the only one resolved purely by time plus retry.
	ErrStillProcessing = errors.New("randomness is still being fulfilled")

	// Funds errors are fatal for the current call, nothing partially applied.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
