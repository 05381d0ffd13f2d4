package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailure covers transport errors, provider errors and timeouts.
	ErrRequestFailure = errors.New("ai request failed")
	// ErrMalformedResponse means the reply did not match the expected shape.
	ErrMalformedResponse = errors.New("malformed ai response")
	// ErrContentTooLarge is returned before any call when the input exceeds a limit.
	ErrContentTooLarge = errors.New("content too large")
)

// Error records which operation failed and how. errors.Is matches both the
// kind sentinel and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func requestFailure(op string, err error) error {
	return &Error{Op: op, Kind: ErrRequestFailure, Err: err}
}

func malformed(op string, err error) error {
	return &Error{Op: op, Kind: ErrMalformedResponse, Err: err}
}
