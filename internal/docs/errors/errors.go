package errors

// Package errors provides sentinel errors for documentation descriptor operations.
// These enable consistent classification of scan failures across stages.

import "errors"

var (
	// ErrDocsRootNotFound indicates the configured docs root directory does not exist.
	ErrDocsRootNotFound = errors.New("documentation root not found")

	// ErrDocsDirWalkFailed indicates filesystem traversal of the docs root failed.
	ErrDocsDirWalkFailed = errors.New("documentation directory walk failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the docs root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
