package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrCodeAlreadyUsed    = errors.New("activation code already used")
	ErrCodeNotFound       = errors.New("activation code not found")
	ErrLockHeld           = errors.New("batch lock is held by another process")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)
