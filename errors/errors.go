package errors

import (
	"errors"
	"fmt"
)

// Common error types for categorization and handling

var (
	// ErrServiceUnavailable indicates the recommendation service could not be reached
	// or answered with a server error
	ErrServiceUnavailable = errors.New("recommendation service unavailable")

	// ErrTimeout indicates the recommendation service did not answer in time
	ErrTimeout = errors.New("recommendation service timed out")

	// ErrRequestRejected indicates the recommendation service refused the request (4xx)
	ErrRequestRejected = errors.New("recommendation request rejected")

	// ErrInvalidResponse indicates a malformed or incomplete service payload
	ErrInvalidResponse = errors.New("invalid recommendation response")

	// ErrRateLimited indicates a browser session exceeded its message budget
	ErrRateLimited = errors.New("rate limit exceeded")
)

// WrapError wraps an error with context message and stack
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsServiceUnavailable checks if error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTimeout checks if error is a service timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsInvalidResponse checks if error is a malformed payload error
func IsInvalidResponse(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}
