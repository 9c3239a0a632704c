package services

import "errors"

// Error taxonomy for the interview flow. Handlers map these to HTTP statuses
// with errors.Is; everything else is a 500. AI collaborator failures are
// deliberately absent: they always resolve to fallback behavior and never
// reach a caller.
var (
	// ErrValidation marks missing or malformed request fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks lookups for unknown ids.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat marks resume uploads in a format we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtraction marks resume files that failed to parse.
	ErrExtraction = errors.New("extraction failed")
)
