package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Payment flow errors
	ErrAlreadyCompleted   = errors.New("transaction already completed")
	ErrRateLimited        = errors.New("too many requests from this address")
	ErrTrialAlreadySent   = errors.New("trial already requested for this email")
	ErrBlacklistedEmail   = errors.New("email domain is blacklisted")
	ErrInvalidCoupon      = errors.New("wrong coupon")
	ErrNoPlanSelected     = errors.New("you need to choose tariff plan")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique access code")
	ErrInvoiceFailed      = errors.New("invoice creation failed")
)
