package currency

import "errors"

var (
	// ErrRateFetchFailure means the rate provider call failed or timed out.
	ErrRateFetchFailure = errors.New("rate fetch failure")

	// ErrRateUnavailable means a required symbol is missing from an otherwise valid snapshot.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrScaleUnavailable means a token has no registered fixed-point scale.
	ErrScaleUnavailable = errors.New("scale unavailable")
)
