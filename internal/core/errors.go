package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Update and Delete when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrEmptySchema is returned when a write needs the header row and there is none.
	ErrEmptySchema = errors.New("collection has no header row")

	// ErrUnknownCollection is returned for collections missing from the registry.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrNoIdentifier is returned for id lookups on collections without an identifier field.
	ErrNoIdentifier = errors.New("collection has no identifier field")

	// ErrInvalidRecord marks caller payloads rejected before reaching the store.
	ErrInvalidRecord = errors.New("invalid record")
)

// AuthError reports missing, malformed or rejected credentials.
type AuthError struct {
	Method string // How credentials were obtained, if known
	Err    error
}

func (e *AuthError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("authentication failed (%s): %v", e.Method, e.Err)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RemoteError reports a transport or API failure of the store.
// It is never retried.
type RemoteError struct {
	Primitive  string // readRange, writeRange, appendRow, deleteRow, connect
	StatusCode int    // HTTP status when the backend has one
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s failed: status=%d: %v", e.Primitive, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s failed: %v", e.Primitive, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// OpError attaches operation context to an engine failure.
type OpError struct {
	Op         string
	Collection Collection
	ID         string
	Err        error
}

func (e *OpError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s (id=%s): %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuth reports whether err carries an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRemote reports whether err carries a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// classify wraps unclassified backend failures as RemoteError so callers can
// rely on the taxonomy. Known sentinels, typed errors and context errors
// pass through unchanged.
func classify(primitive string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmptySchema),
		errors.Is(err, ErrUnknownCollection), errors.Is(err, ErrNoIdentifier),
		errors.Is(err, ErrInvalidRecord):
		return err
	case IsAuth(err), IsRemote(err):
		return err
	default:
		return &RemoteError{Primitive: primitive, Err: err}
	}
}
