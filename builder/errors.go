package builder

import "errors"

var (
	// ErrServiceRequired is returned when a builder is created without an
	// extraction service.
	ErrServiceRequired = errors.New("extraction service is required")

	// ErrInvalidThreshold is returned when the connection similarity
	// threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in (0, 1]")

	// ErrInvalidMaxPairs is returned when the connection pair cap is not
	// positive.
	ErrInvalidMaxPairs = errors.New("max pairs must be positive")

	// ErrInvalidMinSectionLength is returned when the sub-logic section
	// length floor is negative.
	ErrInvalidMinSectionLength = errors.New("min section length must not be negative")
)
