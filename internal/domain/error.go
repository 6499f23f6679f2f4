package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotActive          = errors.New("subscription is not active")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrVersionConflict    = errors.New("subscription was modified concurrently")
	ErrLockNotAcquired    = errors.New("could not acquire generation lock")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrRateUnavailable    = errors.New("fiat rate unavailable")
)
