package remote

import (
	"errors"
	"fmt"
)

// NetworkError means the request never produced an HTTP response: DNS,
// connection, timeout or context cancellation.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the server answered with a status outside 2xx.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// DecodeError means a 2xx body could not be parsed into the expected type.
type DecodeError struct {
	Kind string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError means the request body could not be encoded as JSON. No
// request was sent.
type EncodeError struct {
	Kind string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Kind, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// IsEncode reports whether err is or wraps an *EncodeError.
func IsEncode(err error) bool {
	var target *EncodeError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsHTTP reports whether err is or wraps a *HTTPError.
func IsHTTP(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// IsDecode reports whether err is or wraps a *DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var target *HTTPError
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}

// Describe maps an adapter error to the text shown to a user. Network
// failures read "failed to fetch"; every other failure gets one generic
// notice regardless of status.
func Describe(op string, err error) string {
	switch {
	case IsNetwork(err):
		return op + ": failed to fetch"
	case IsHTTP(err), IsDecode(err), IsEncode(err):
		var he *HTTPError
		if errors.As(err, &he) && he.Status == 409 && he.Message != "" {
			return op + ": " + he.Message
		}
		return op + ": request failed"
	default:
		return op + ": " + err.Error()
	}
}
