package jsonapi

import (
	"fmt"
	"strconv"
)

// ErrorBuilder provides a fluent API for building Error objects.
type ErrorBuilder struct {
	err Error
}

// NewError creates a new ErrorBuilder with the given status, code, and title.
func NewError(status int, code, title string) *ErrorBuilder {
	return &ErrorBuilder{
		err: Error{
			Status: strconv.Itoa(status),
			Code:   code,
			Title:  title,
		},
	}
}

// Detail sets the error detail message.
func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

// Detailf sets the error detail message with formatting.
func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Pointer sets the JSON pointer to the source of the error.
// Example: "/selector"
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Pointer = pointer
	return b
}

// Parameter sets the parameter that caused the error.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Parameter = param
	return b
}

// Header sets the header that caused the error.
func (b *ErrorBuilder) Header(header string) *ErrorBuilder {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	b.err.Source.Header = header
	return b
}

// Meta adds metadata to the error.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

// AboutLink sets the about link for more information about the error.
func (b *ErrorBuilder) AboutLink(url string) *ErrorBuilder {
	b.err.Links = &ErrorLinks{About: url}
	return b
}

// Build returns the constructed Error.
func (b *ErrorBuilder) Build() Error {
	return b.err
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// Common error constructors

// ErrBadRequest creates a 400 Bad Request error.
func ErrBadRequest(detail string) Error {
	return NewError(400, "bad_request", "Bad Request").Detail(detail).Build()
}

// ErrUnauthorized creates a 401 Unauthorized error.
func ErrUnauthorized(detail string) Error {
	if detail == "" {
		detail = "Authentication required"
	}
	return NewError(401, "unauthorized", "Unauthorized").Detail(detail).Build()
}

// ErrNotFound creates a 404 Not Found error.
func ErrNotFound(resourceType string) Error {
	return NewError(404, "not_found", "Not Found").
		Detailf("The requested %s was not found", resourceType).
		Build()
}

// ErrNotFoundWithID creates a 404 Not Found error with resource ID.
func ErrNotFoundWithID(resourceType, id string) Error {
	return NewError(404, "not_found", "Not Found").
		Detailf("The %s with ID '%s' was not found", resourceType, id).
		Build()
}

// ErrValidation creates a 422 Unprocessable Entity error for validation failures.
func ErrValidation(field, message string) Error {
	return NewError(422, "validation_error", "Validation Failed").
		Detail(message).
		Pointer("/" + field).
		Build()
}

// ErrValidationRequired creates a validation error for a required field.
func ErrValidationRequired(field string) Error {
	return ErrValidation(field, fmt.Sprintf("%s is required", field))
}

// ErrInternal creates a 500 Internal Server Error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return NewError(500, "internal_error", "Internal Server Error").Detail(detail).Build()
}

// -----------------------------------------------------------------------------
// Resolution Errors
// -----------------------------------------------------------------------------

// ErrSelectorSyntax creates a 400 error for malformed selector text.
func ErrSelectorSyntax(detail string, pos int) Error {
	return NewError(400, "selector_syntax", "Invalid Selector").
		Detail(detail).
		Pointer("/selector").
		Meta("position", pos).
		Build()
}

// ErrUnknownComponent creates a 404 error for a name with no build rule.
func ErrUnknownComponent(name string) Error {
	return NewError(404, "unknown_component", "Unknown Converter").
		Detailf("unknown converter %q", name).
		Meta("name", name).
		Build()
}

// ErrArityMismatch creates a 422 error for a wrong parameter count.
func ErrArityMismatch(detail string, expected, actual int) Error {
	return NewError(422, "arity_mismatch", "Arity Mismatch").
		Detail(detail).
		Meta("expected", expected).
		Meta("actual", actual).
		Build()
}

// ErrParameterType creates a 422 error for a parameter of the wrong kind.
func ErrParameterType(detail string, index int) Error {
	return NewError(422, "parameter_type", "Parameter Type Mismatch").
		Detail(detail).
		Meta("index", index).
		Build()
}

// ErrConversionFailed creates a 422 error for a value the converter rejected.
func ErrConversionFailed(detail string) Error {
	return NewError(422, "conversion_failed", "Conversion Failed").
		Detail(detail).
		Pointer("/value").
		Build()
}
