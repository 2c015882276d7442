package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrEntryNotFound indicates the requested entry does not exist
	ErrEntryNotFound = errors.New("entry not found")

	// ErrFeedNotFound indicates the requested feed does not exist
	ErrFeedNotFound = errors.New("feed not found")

	// ErrServerOffline indicates the feed server is unreachable
	ErrServerOffline = errors.New("feed server is unreachable")

	// ErrAuthFailed indicates the API token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")
)
