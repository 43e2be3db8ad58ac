// Package apperror defines the upload failure taxonomy and its mapping to
// HTTP status codes and user-facing messages.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindMissingFile         Kind = "missing_file"
	KindDisallowedExtension Kind = "disallowed_extension"
	KindStorageIO           Kind = "storage_io_error"
	KindMalformedSession    Kind = "malformed_session"
	KindFileTooLarge        Kind = "file_too_large"
)

// Status returns the HTTP status reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized, KindForbidden:
		return http.StatusForbidden
	case KindMissingFile, KindDisallowedExtension, KindMalformedSession, KindFileTooLarge:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, the message shown to the uploader and the cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	Unauthorized = func(err error) *Error {
		return New(KindUnauthorized, "Security check failed.", err)
	}
	Forbidden = func(err error) *Error {
		return New(KindForbidden, "Sorry, you are not allowed to upload files.", err)
	}
	MissingFile = func(err error) *Error {
		return New(KindMissingFile, "no file to upload.", err)
	}
	DisallowedExtension = func(err error) *Error {
		return New(KindDisallowedExtension, "Sorry, you are not allowed to upload this file type.", err)
	}
	StorageIO = func(err error) *Error {
		return New(KindStorageIO, "The uploaded file could not be stored.", err)
	}
	MalformedSession = func(message string, err error) *Error {
		return New(KindMalformedSession, message, err)
	}
	FileTooLarge = func(err error) *Error {
		return New(KindFileTooLarge, "The uploaded file exceeds the maximum upload size.", err)
	}
)

// KindOf reports the kind of err. Errors outside the taxonomy count as
// storage failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageIO
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Status(err error) int {
	return KindOf(err).Status()
}

// Message returns the text safe to show to the uploader. Causes are never
// included.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return StorageIO(nil).Message
}
