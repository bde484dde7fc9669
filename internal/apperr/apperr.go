// Package apperr defines the error taxonomy shared by providers, storage and services.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrAuth       = errors.New("authentication error")
	ErrProvider   = errors.New("provider error")
	ErrNetwork    = errors.New("network error")
	ErrEncryption = errors.New("encryption error")
	ErrDatabase   = errors.New("database error")
	ErrConfig     = errors.New("invalid configuration")
)

// Error carries a kind, a message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to err. Returns nil when err is nil.
func Wrap(kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Auth reports a missing or rejected credential.
func Auth(format string, args ...any) error { return newf(ErrAuth, format, args...) }

// Provider reports a non-success or malformed upstream response.
func Provider(format string, args ...any) error { return newf(ErrProvider, format, args...) }

// Network reports a transport-level failure.
func Network(err error, msg string) error { return Wrap(ErrNetwork, err, msg) }

// Encryption reports a key or cipher failure.
func Encryption(format string, args ...any) error { return newf(ErrEncryption, format, args...) }

// Database reports a persistence failure.
func Database(err error, msg string) error { return Wrap(ErrDatabase, err, msg) }

// Config reports an unknown provider, missing account or invalid setting.
func Config(format string, args ...any) error { return newf(ErrConfig, format, args...) }

var kinds = []error{ErrAuth, ErrProvider, ErrNetwork, ErrEncryption, ErrDatabase, ErrConfig}

// KindOf returns the taxonomy kind of err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
