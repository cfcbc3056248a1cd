// Package apperr defines the typed errors returned across the service and
// how they map onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/multierr"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIntegrity    Code = "INTEGRITY_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is presented to clients.
type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "insufficient permissions"},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", DetailsAllowed: true},
	CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", DetailsAllowed: true},
	CodeIntegrity:    {HTTPStatus: http.StatusConflict, PublicMessage: "resource is still referenced", DetailsAllowed: true},
	CodeInternal:     {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error"},
}

// MetadataFor returns the presentation metadata of code. Unknown codes are
// treated as internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a typed application error.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches client-visible details and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// NotFound builds a NOT_FOUND error for an entity id.
func NotFound(entity string, id int64) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s %d not found", entity, id)).
		WithDetails(map[string]any{"entity": entity, "id": id})
}

// Conflict builds a CONFLICT error.
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Integrity builds an INTEGRITY_ERROR.
func Integrity(message string) *Error {
	return New(CodeIntegrity, message)
}

// FieldError is one violated field rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f *FieldError) Error() string {
	return f.Field + ": " + f.Message
}

// Field returns a single field violation, to be combined with multierr.
func Field(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// Validation folds the violations combined in err into one VALIDATION_ERROR
// listing all of them. It returns nil when err is nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	var fields []FieldError
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			fields = append(fields, *fe)
			continue
		}
		fields = append(fields, FieldError{Field: "", Message: e.Error()})
	}
	return New(CodeValidation, "validation failed").WithDetails(fields)
}

// Fields returns the field violations of a VALIDATION_ERROR.
func Fields(err error) []FieldError {
	typed := As(err)
	if typed == nil {
		return nil
	}
	fields, _ := typed.Details().([]FieldError)
	return fields
}
