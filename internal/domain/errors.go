package domain

import "errors"

// Error taxonomy. Components classify failures with these sentinels via
// errors.Is, then fold them into result values before they cross the
// scheduler boundary.
var (
	// ErrInput marks missing or invalid caller-supplied fields.
	ErrInput = errors.New("invalid input")

	// ErrService marks a quote, account, or order-gateway call failure
	// (network, auth, rate limit).
	ErrService = errors.New("service failure")

	// ErrValidation marks a trade rejected by the risk rules.
	ErrValidation = errors.New("risk validation failed")

	// ErrPartialExecution marks a filled primary order whose protective
	// order failed. The position is open and unprotected.
	ErrPartialExecution = errors.New("partial execution")
)
