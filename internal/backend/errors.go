package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	genericErrorMessage        = "Something went wrong"
	schemaMismatchErrorMessage = "Unexpected response from the server"
)

type userMessenger interface {
	UserMessage() string
}

// ValidationError is a failed precondition on user input. It is returned before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on [%s]: %s", e.Field, e.Message)
}

func (e *ValidationError) UserMessage() string { return e.Message }

// AuthError is a rejected login or registration.
type AuthError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected [%d]: %s", e.Op, e.StatusCode, e.Message)
}

func (e *AuthError) UserMessage() string { return e.Message }

// UnauthorizedError means the backend did not accept the session (HTTP 401), or there was no session at all.
type UnauthorizedError struct {
	Op      string
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: unauthorized: %s", e.Op, e.Message)
}

func (e *UnauthorizedError) UserMessage() string { return e.Message }

// FetchError is any other non-2xx response or a network failure.
type FetchError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Op, e.StatusCode, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) UserMessage() string { return e.Message }

// SchemaMismatchError is a 2xx response that does not match the configured schema version.
type SchemaMismatchError struct {
	Op     string
	Schema SchemaVersion
	Field  string
	Rule   string
	Err    error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: response does not match schema %s: field [%s] failed on [%s]", e.Op, e.Schema, e.Field, e.Rule)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

func (e *SchemaMismatchError) UserMessage() string { return schemaMismatchErrorMessage }

// Message returns the text to show the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var um userMessenger
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return genericErrorMessage
}

func IsUnauthorized(err error) bool {
	var unauthorizedErr *UnauthorizedError
	return errors.As(err, &unauthorizedErr)
}

// errorMessage extracts the message from the {"detail": {"message": "..."}} error envelope.
// A plain string detail is accepted as well. Anything else yields the fallback.
func errorMessage(body []byte, fallback string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return fallback
	}

	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail.Message != "" {
		return detail.Message
	}

	var detailStr string
	if err := json.Unmarshal(envelope.Detail, &detailStr); err == nil && detailStr != "" {
		return detailStr
	}

	return fallback
}
