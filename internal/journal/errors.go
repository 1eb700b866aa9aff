package journal

import (
	"errors"
	"fmt"

	"github.com/AnshRaj112/mindjournal-backend/internal/store"
)

// Kind classifies journal errors.
type Kind string

const (
	KindWrite        Kind = "write"
	KindNotFound     Kind = "not_found"
	KindPermission   Kind = "permission"
	KindSubscription Kind = "subscription"
)

// Error is returned by every Client operation. Match it with errors.Is
// against the sentinels below, which compare by Kind only.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

var (
	ErrWrite        = &Error{Kind: KindWrite}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrPermission   = &Error{Kind: KindPermission}
	ErrSubscription = &Error{Kind: KindSubscription}
)

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of err, or "" when err is not a journal error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

var errNoSession = newError(KindPermission, "no active session", nil)

// mutationError maps a backend failure on a write to the caller-facing kind.
func mutationError(id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, fmt.Sprintf("entry %s", id), err)
	case errors.Is(err, store.ErrForbidden):
		return newError(KindPermission, fmt.Sprintf("entry %s belongs to another user", id), err)
	default:
		return newError(KindWrite, "store rejected the mutation", err)
	}
}

// readError maps a failed one-shot read.
func readError(err error) error {
	return newError(KindSubscription, "store read failed", err)
}
