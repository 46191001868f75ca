package llm

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any network call when no API key is
// configured.
var ErrMissingCredential = errors.New("llm: api key is not configured")

// ErrTimeout is returned when the completion request exceeds the client timeout.
var ErrTimeout = errors.New("llm: request timed out")

// TransportError wraps a network-level failure reaching the endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the completion endpoint.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("llm: endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// UnexpectedError covers success responses the client cannot make sense of,
// such as a body with no completion choices.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("llm: unexpected response: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
