package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is an error that knows the HTTP status it maps to.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError is returned for unknown companies, users or keys.
	NotFoundError struct {
		Message string
	}

	// ValidationError is returned for input the caller can correct,
	// such as an unknown model identifier.
	ValidationError struct {
		Message string
	}

	// ContextIntegrityError means a conversation turn was attempted without
	// an initialized context. It indicates an upstream invariant violation.
	ContextIntegrityError struct {
		CompanyShortName string
		UserIdentifier   string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *ContextIntegrityError) Error() string {
	return fmt.Sprintf("fatal: no previous response handle for %s/%s", e.CompanyShortName, e.UserIdentifier)
}

func (e *NotFoundError) StatusCode() int         { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *ContextIntegrityError) StatusCode() int { return http.StatusInternalServerError }

// Is lets errors.Is match typed errors against the sentinels.
func (e *NotFoundError) Is(target error) bool         { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool       { return target == ErrValidation }
func (e *ContextIntegrityError) Is(target error) bool { return target == ErrContextIntegrity }

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrContextIntegrity = errors.New("context integrity violated")
	ErrUnauthorized     = errors.New("unauthorized")
)
