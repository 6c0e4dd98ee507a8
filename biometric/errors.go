package biometric

import "errors"

var (
	// ErrUnknownPolicy is returned when a metric spec carries no known baseline policy.
	ErrUnknownPolicy = errors.New("unknown baseline policy")
)
