package crawler

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every configuration error, so callers can
// tell bad input apart from runtime failures with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidRootURL     = fmt.Errorf("%w: root URL", ErrInvalidInput)
	ErrInvalidMaxURLs     = fmt.Errorf("%w: max URLs must be positive", ErrInvalidInput)
	ErrInvalidMaxWorkers  = fmt.Errorf("%w: max workers must be positive", ErrInvalidInput)
	ErrInvalidDelay       = fmt.Errorf("%w: delay must be non-negative", ErrInvalidInput)
	ErrInvalidTimeout     = fmt.Errorf("%w: timeout must be positive", ErrInvalidInput)
	ErrInvalidRequestRate = fmt.Errorf("%w: requests per second must be non-negative", ErrInvalidInput)
	ErrInvalidMaxBodySize = fmt.Errorf("%w: max body size must be non-negative", ErrInvalidInput)
)

// ErrInvalidTransition is returned when a frontier entry is moved out of order.
var ErrInvalidTransition = errors.New("invalid frontier state transition")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
