// Package apperrors defines the sentinel errors shared across the engine.
// Services wrap them with context via fmt.Errorf("...: %w", err); handlers
// map them to HTTP status codes.
package apperrors

import "errors"

var (
	// ErrValidation covers requests rejected before the engine runs:
	// bad extension, oversize payload, empty upload.
	ErrValidation = errors.New("request validation failed")

	// ErrEncoding indicates the file bytes could not be decoded with any
	// supported text encoding.
	ErrEncoding = errors.New("unsupported text encoding")

	// ErrDialect indicates no candidate separator produced a consistent
	// column structure.
	ErrDialect = errors.New("could not detect a delimiter")

	// ErrEmptyFile indicates the file contains no data rows after the header.
	ErrEmptyFile = errors.New("no data rows found")

	// ErrClassification is reserved for internal invariant violations in the
	// type classifier. The classifier always has a free-text fallback, so
	// this error means a bug, not bad input.
	ErrClassification = errors.New("column classification invariant violated")

	// ErrAugmentation indicates the description augmenter failed. Never
	// fatal: the orchestrator records it and continues with empty or
	// fallback descriptions.
	ErrAugmentation = errors.New("description augmentation failed")

	// ErrTimeout indicates the analysis exceeded its wall-clock budget.
	ErrTimeout = errors.New("analysis timed out")
)
