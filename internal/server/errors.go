package server

import (
	"errors"
	"net/http"

	"PlinkoCore/internal/plinko"
)

// httpStatus maps settlement errors onto HTTP statuses. Validation failures
// are 400, authorization 403, missing records 404, state conflicts 409, and
// funds failures 422. StillProcessing is a 409 the client is expected to
// retry after the oracle fulfills.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, plinko.ErrGameNotFound):
		return http.StatusNotFound

	case errors.Is(err, plinko.ErrOnlyOwner):
		return http.StatusForbidden

	case errors.Is(err, plinko.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity

	case errors.Is(err, plinko.ErrStillProcessing),
		errors.Is(err, plinko.ErrGameAlreadyEnded),
		errors.Is(err, plinko.ErrGameIDAlreadyUsed),
		errors.Is(err, plinko.ErrGamePaused),
		errors.Is(err, plinko.ErrOddsLocked),
		errors.Is(err, plinko.ErrWithdrawalsPaused),
		errors.Is(err, plinko.ErrAlreadyInitialized),
		errors.Is(err, plinko.ErrNotInitialized):
		return http.StatusConflict

	case errors.Is(err, plinko.ErrInvalidLength),
		errors.Is(err, plinko.ErrInvalidBucketIndex),
		errors.Is(err, plinko.ErrPlatformFeeTooHigh),
		errors.Is(err, plinko.ErrMaxBallsTooHigh),
		errors.Is(err, plinko.ErrInvalidValue),
		errors.Is(err, plinko.ErrInvalidNumberOfBalls),
		errors.Is(err, plinko.ErrInvalidBetAmount),
		errors.Is(err, plinko.ErrInvalidRequestID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func retryable(err error) bool {
	return errors.Is(err, plinko.ErrStillProcessing)
}
