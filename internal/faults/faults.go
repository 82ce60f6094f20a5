// Package faults defines the request-visible error taxonomy. Every failure
// that can reach an HTTP response is one of these kinds; everything else is
// a plain wrapped error and maps to 500 at the boundary.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindForbidden
	KindConflict
	KindNotFound
	KindCorruptArchive
	KindInsufficientContent
	KindDeadlineExceeded
	KindFileMissing
)

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// Validation reports a missing or malformed request field.
func Validation(message string) *Fault { return New(KindValidation, message) }

// Auth reports a missing, malformed, expired or forged credential.
func Auth(message string) *Fault { return New(KindAuth, message) }

// Forbidden reports a role mismatch for an otherwise valid credential.
func Forbidden(message string) *Fault { return New(KindForbidden, message) }

// Conflict reports a unique constraint violation.
func Conflict(message string) *Fault { return New(KindConflict, message) }

// NotFound reports an absent record. For candidates this deliberately covers
// "exists but is not yours" as well, so assignment info never leaks.
func NotFound(message string) *Fault { return New(KindNotFound, message) }

// CorruptArchive reports an archive container that cannot be parsed.
func CorruptArchive(err error) *Fault {
	return Wrap(KindCorruptArchive, "invalid or corrupted ZIP file", err)
}

// InsufficientContent reports an archive with fewer entries than required.
func InsufficientContent(required, actual int) *Fault {
	return Newf(KindInsufficientContent,
		"ZIP file must contain at least %d files, found: %d", required, actual)
}

// DeadlineExceeded reports a submission at or after the task deadline.
func DeadlineExceeded() *Fault {
	return New(KindDeadlineExceeded, "submission deadline has passed")
}

// FileMissing reports a referenced artifact absent from storage.
func FileMissing(message string) *Fault { return New(KindFileMissing, message) }

// KindOf extracts the fault kind, or ok=false for untyped errors.
func KindOf(err error) (Kind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// HTTPStatus maps a fault kind to its response status. Untyped errors get 500.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation, KindCorruptArchive, KindInsufficientContent, KindDeadlineExceeded:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindFileMissing:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
