package bibliography

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequiredHeader is matched by every *ParseError.
	ErrMissingRequiredHeader = errors.New("missing required headers")

	// ErrLoadInProgress is returned by Load while another load is running.
	// Callers treat it as a warning.
	ErrLoadInProgress = errors.New("data is already being loaded")

	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("entry not found")

	// ErrUnrepresentable is matched by every *FormatError.
	ErrUnrepresentable = errors.New("value cannot be written in the dataset dialect")
)

// ParseError reports a header row that lacks required columns.
type ParseError struct {
	Missing []string
}

func (e *ParseError) Error() string {
	return "invalid CSV format: missing required headers: " + strings.Join(e.Missing, ", ")
}

func (e *ParseError) Unwrap() error { return ErrMissingRequiredHeader }

// TransportError wraps a failure to fetch the raw dataset.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports an id lookup miss.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Entry with ID %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// FormatError reports a value Format cannot write without shifting the
// columns that follow it.
type FormatError struct {
	PageID string
	Column string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("entry %s: column %s: %v", e.PageID, e.Column, ErrUnrepresentable)
}

func (e *FormatError) Unwrap() error { return ErrUnrepresentable }
