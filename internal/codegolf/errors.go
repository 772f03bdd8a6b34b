package codegolf

import "fmt"

// AuthenticationError is returned when the session token is malformed or
// rejected by code.golf. It is never retried.
type AuthenticationError struct {
	StatusCode int // zero when the token was rejected before any request
	Reason     string
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Reason)
	}
	return "authentication failed: " + e.Reason
}

// TransportError is returned when the export could not be fetched or decoded
type TransportError struct {
	StatusCode int
	Attempts   int
	Retryable  bool
	Err        error
}

func (e *TransportError) Error() string {
	msg := "transport error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
