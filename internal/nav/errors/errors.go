package errors

// Package errors provides sentinel errors for navigation document generation.
// These enable consistent classification while keeping user-facing messages
// descriptive via wrapping.

import "errors"

var (
	// ErrAnnotatedReadFailed indicates the located annotated index could not be opened or read.
	ErrAnnotatedReadFailed = errors.New("annotated index read failed")

	// ErrSummaryWriteFailed indicates writing the navigation document failed.
	ErrSummaryWriteFailed = errors.New("navigation document write failed")
)
