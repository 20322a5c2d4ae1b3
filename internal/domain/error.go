package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrAlreadyExists         = errors.New("entity already exists")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrRateLimitExceeded     = errors.New("daily message limit exceeded")
	ErrPlatformNotSupported  = errors.New("platform not supported")
	ErrPlatformNotConfigured = errors.New("platform not configured")
	ErrAdminOnly             = errors.New("operation requires admin privileges")
	ErrInvalidExecContext    = errors.New("invalid database executor context")
	ErrTxRequired            = errors.New("operation requires an open transaction")
)
