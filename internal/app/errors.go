package app

import (
	"fmt"
	"net/http"
)

// DomainError is the error type surfaced by every Service operation. Code
// carries the stable classification the HTTP layer serializes to clients;
// Status is the HTTP status it maps to.
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

func errNotFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func errAlreadyExists(message string) *DomainError {
	return domainError(http.StatusConflict, "ALREADY_EXISTS", message, nil)
}

func errInvalidName(message string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_NAME", message, nil)
}

// errIOFailure keeps filesystem detail out of the client-facing message.
// Callers log the underlying error before returning this.
func errIOFailure(message string) *DomainError {
	return domainError(http.StatusInternalServerError, "IO_FAILURE", message, nil)
}

func errUnauthorized() *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
}

func errTokenExhausted() *DomainError {
	return domainError(http.StatusInternalServerError, "TOKEN_EXHAUSTED", "could not allocate a session token", nil)
}
