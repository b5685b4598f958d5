package models

import (
	"errors"
	"fmt"
)

// Errors that fail a single filter list
var (
	ErrInvalidURL      = errors.New("invalid filter list source")
	ErrInvalidResponse = errors.New("invalid response")
	ErrInvalidEncoding = errors.New("invalid text encoding")
	ErrParseFailure    = errors.New("content is not a filter list")
)

// ListError records why a filter list produced no rules
type ListError struct {
	List     string
	Category string
	Err      error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list %s: %v", e.List, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}
