// backend-go/internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an inventory table.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// UnseenCategoryError is returned when a category value was not part of the
// vocabulary learned at training time.
type UnseenCategoryError struct {
	Field string
	Value string
	Row   int
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("unseen %s %q at row %d: not present in training data", e.Field, e.Value, e.Row)
}

// NotFittedError is returned when a component is used before it was trained.
type NotFittedError struct {
	Component string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s is not fitted", e.Component)
}

// FieldError reports an absent or invalid value in one row.
type FieldError struct {
	Row    int
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: %s %s", e.Row, e.Field, e.Reason)
}

// RequestError reports a malformed request outside the inventory rows, such as
// an unusable user id or item payload.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return e.Reason
}

// IsUserError reports whether err was caused by the submitted inventory data
// rather than by the system.
func IsUserError(err error) bool {
	var (
		schemaErr *SchemaError
		unseenErr *UnseenCategoryError
		fieldErr  *FieldError
		reqErr    *RequestError
	)
	return errors.As(err, &schemaErr) || errors.As(err, &unseenErr) ||
		errors.As(err, &fieldErr) || errors.As(err, &reqErr)
}
