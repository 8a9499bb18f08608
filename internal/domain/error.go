package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrReadDatabaseRow = errors.New("failed to read database row")

	// Conversation errors, scoped to a single interaction
	ErrFormat         = errors.New("wrong add format: expected <name> <day> <month>")
	ErrInvalidDate    = errors.New("day and month do not form a valid date")
	ErrMalformedToken = errors.New("malformed action token")

	ErrLockNotAcquired = errors.New("lock is held by another owner")
)
