package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AnshRaj112/solace-backend/pkg/utils"
)

// Store-level sentinels. Stores translate driver errors into these.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrStaleVersion = errors.New("stale version")
	ErrSlotTaken    = errors.New("slot taken")
)

// DomainError is an error with a defined HTTP status and a stable code.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NotFound(what string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

func Forbidden(message string) *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", message, nil)
}

func Conflict(code, message string) *DomainError {
	return domainError(http.StatusConflict, code, message, nil)
}

func Unauthorized(message string) *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func Unprocessable(code, message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, code, message, details)
}

// Invalid reports request validation failures with one entry per field.
func Invalid(errs utils.ValidationErrors) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", errs)
}

func InvalidField(field, message string) *DomainError {
	return Invalid(utils.ValidationErrors{{Field: field, Message: message}})
}

// validationFrom converts a single *utils.ValidationError into a DomainError.
func validationFrom(err error) error {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		return InvalidField(ve.Field, ve.Message)
	}
	return err
}

// notFoundAs maps ErrNotFound to a DomainError naming the resource.
func notFoundAs(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return NotFound(what)
	}
	return err
}
