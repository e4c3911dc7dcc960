package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures for logging and metrics labels.
type Kind string

const (
	// KindValidation marks input that failed boundary validation.
	KindValidation Kind = "VALIDATION"

	// KindUpstream marks a failed call to a third-party API.
	KindUpstream Kind = "UPSTREAM"

	// KindDecode marks an upstream body that could not be parsed.
	KindDecode Kind = "DECODE"

	// KindNotFound marks an empty upstream result where one was required.
	KindNotFound Kind = "NOT_FOUND"

	// KindInternal marks everything else.
	KindInternal Kind = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind
	Service string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	prefix := string(e.Kind)
	if e.Service != "" {
		prefix = fmt.Sprintf("%s(%s)", e.Kind, e.Service)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewUpstreamError(service, message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Service: service, Message: message, Err: err}
}

func NewDecodeError(service string, err error) *AppError {
	return &AppError{Kind: KindDecode, Service: service, Message: "failed to decode response", Err: err}
}

func NewNotFoundError(service, message string) *AppError {
	return &AppError{Kind: KindNotFound, Service: service, Message: message}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
