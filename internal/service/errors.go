package service

import (
	"errors"
	"fmt"

	"ubinan/monitoring-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrDuplicateAssignment = errors.New("unit is already allocated")
	ErrNonPositiveWeight   = errors.New("weight must be greater than zero")
	ErrInvalidTransition   = errors.New("status change not allowed")
	ErrUnknownCommodity    = errors.New("unknown commodity")
	ErrInvalidDate         = errors.New("date must use YYYY-MM-DD")
	ErrWrongRole           = errors.New("user has the wrong role")

	ErrUserNotFound   = errors.New("user not found")
	ErrUnitNotFound   = errors.New("sampling unit not found")
	ErrSampleNotFound = errors.New("sample not found")
	ErrAccessDenied   = errors.New("access denied")
)

// ValidationError rejects a request because of one offending field. Handlers
// answer it with 400, or 409 for ErrDuplicateAssignment.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// DataAccessError is a failed read or write against the store. The caller
// may retry; nothing was partially applied by the failing call.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func dataErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{Op: op, Err: err}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   primitive.ObjectID
	Role domain.Role
}
