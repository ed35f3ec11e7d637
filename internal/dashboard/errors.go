package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfirmed is returned by Delete when the user has not confirmed
	ErrNotConfirmed = errors.New("delete requires confirmation")
	// ErrBusy is returned when the same entity already has a call in flight
	ErrBusy = errors.New("another request for this player is in progress")
)

// ValidationError blocks a submission before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FetchError reports a failed listing; the previous snapshot is kept
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch players: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// InsertError carries the gateway's failure text for display
type InsertError struct {
	Err error
}

func (e *InsertError) Error() string {
	return "save failed: " + e.Err.Error()
}

func (e *InsertError) Unwrap() error {
	return e.Err
}

// Reason is the gateway's own failure text
func (e *InsertError) Reason() string {
	return e.Err.Error()
}

// DeleteError is surfaced to the user with a generic message only
type DeleteError struct {
	ID  int64
	Err error
}

func (e *DeleteError) Error() string {
	return "delete failed"
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}
