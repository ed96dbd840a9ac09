package payapi

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBaseURL = errors.New("payapi: invalid base url")
	ErrRequestFailed  = errors.New("payapi: request failed")
	ErrDecodeResponse = errors.New("payapi: failed to decode response")
	ErrMissingPageURL = errors.New("payapi: response has no page_url")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payapi: %s returned HTTP %d", e.Endpoint, e.StatusCode)
}
