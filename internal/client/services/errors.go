package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
)

var (
	// ErrInFlight rejects a second submission while the first is pending.
	ErrInFlight = errors.New("operation already in progress")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled by user")
	// ErrNoSelection is returned by UpdateItem when nothing is being edited.
	ErrNoSelection = errors.New("no item selected for editing")
	// ErrItemNotFound is returned when an id is not in the active collection.
	ErrItemNotFound = errors.New("item not found")
	// ErrUnauthenticated is returned by AuthGuard.Protect for anonymous users.
	ErrUnauthenticated = errors.New("login required")
	// ErrNoUser means a successful login response carried no usable user.
	ErrNoUser = errors.New("login response has no user")
)

// ValidationError is a local input check that failed before any request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

const (
	msgConnection   = "Could not reach the server. Check your connection and try again."
	msgUnauthorized = "Your session has expired. Please log in again."
	msgInFlight     = "Please wait, the previous request is still running."
)

// UserMessage turns err into text fit for display. Backend messages win,
// then well-known causes; fallback covers everything else.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}

	switch {
	case errors.Is(err, ErrInFlight):
		return msgInFlight
	case errors.Is(err, ErrCancelled):
		return "Cancelled."
	case errors.Is(err, ErrNoSelection):
		return "Select an item to edit first."
	case errors.Is(err, ErrItemNotFound):
		return "No such item in the current tab."
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, client.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, client.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return msgConnection
	}
	return fallback
}
