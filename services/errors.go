package services

import (
	"errors"
	"fmt"
	"strings"

	"buildtrack/models"
	"buildtrack/repository"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned by the access gate.
	ErrForbidden = errors.New("access denied")
	// ErrUnauthorized covers bad credentials and unusable tokens.
	ErrUnauthorized = errors.New("unauthorized")

	ErrInsufficientRole = fmt.Errorf("%w: insufficient permissions", ErrForbidden)
	ErrNotAssigned      = fmt.Errorf("%w: not assigned to this project", ErrForbidden)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account is deactivated", ErrUnauthorized)
)

// NotFoundError names the entity that was looked up.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError is one failed field in a ValidationError.
type FieldError = models.FieldError

// ValidationError carries per-field problems with a request payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// RuleError is a business-rule violation reported to the caller verbatim.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErr(format string, args ...interface{}) error {
	return &RuleError{Message: fmt.Sprintf(format, args...)}
}

// lookupErr converts a store miss into a NotFoundError for entity.
func lookupErr(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: entity}
	}
	return err
}
