package service

import (
	"errors"
	"fmt"
)

// Kind classifies a Failure.
type Kind int

const (
	// KindUnknown is reported for errors that are not a *Failure.
	KindUnknown Kind = iota

	// Unauthorized means the session was rejected; the session is cleared.
	Unauthorized

	// RemoteRejected means the remote service refused the request.
	RemoteRejected

	// Unreachable means no response was obtained.
	Unreachable

	// ValidationFailed means a local precondition failed before dispatch.
	ValidationFailed

	// NoSession means an identity was required but no session exists.
	NoSession

	// Forbidden means the acting identity is not the project owner.
	Forbidden

	// NotFound means the target is not part of the local collection.
	NotFound
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	Unauthorized:     "unauthorized",
	RemoteRejected:   "remote rejected",
	Unreachable:      "unreachable",
	ValidationFailed: "validation failed",
	NoSession:        "no session",
	Forbidden:        "forbidden",
	NotFound:         "not found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Failure is the error type returned by every board operation.
type Failure struct {
	Kind    Kind
	Message string

	// Status is the HTTP status code, when one was received.
	Status int

	// Err is the underlying cause, if any.
	Err error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail builds a Failure with a formatted message.
func Fail(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindUnknown if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
