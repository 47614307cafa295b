package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown archive or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrArchiveOpen indicates the top-level archive could not be opened.
	// This is fatal for an ingestion run.
	ErrArchiveOpen = errors.New("archive cannot be opened")

	// ErrStoreUnavailable indicates the decision store cannot be reached.
	// This is fatal for an ingestion run.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ArchiveReadError reports a nested archive entry that could not be read.
// The entry is skipped and counted; the run continues.
type ArchiveReadError struct {
	Path string
	Err  error
}

func (e *ArchiveReadError) Error() string {
	return fmt.Sprintf("archive entry %s: %v", e.Path, e.Err)
}

func (e *ArchiveReadError) Unwrap() error { return e.Err }

// ParseReason classifies why an XML payload could not be parsed.
type ParseReason string

// Parse failure reasons.
const (
	ParseMalformed       ParseReason = "malformed"
	ParseMissingElement  ParseReason = "missing_element"
	ParseEncoding        ParseReason = "encoding"
	ParseUnsupportedRoot ParseReason = "unsupported_root"
)

// ParseError reports an XML payload that is not a usable decision document.
type ParseError struct {
	Path   string
	Reason ParseReason
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NormalisationRejection reports a well-formed document that is missing
// mandatory content once cleaned up.
type NormalisationRejection struct {
	Path   string
	TextID string
	Field  string
	Reason string
}

func (e *NormalisationRejection) Error() string {
	if e.TextID == "" {
		return fmt.Sprintf("reject %s: %s %s", e.Path, e.Field, e.Reason)
	}
	return fmt.Sprintf("reject %s (%s): %s %s", e.Path, e.TextID, e.Field, e.Reason)
}

// StoreWriteError reports a failed upsert. Transient errors (lost
// connection, lock contention, serialisation failure) may be retried.
type StoreWriteError struct {
	TextID    string
	Transient bool
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.TextID, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a StoreWriteError worth retrying.
func IsTransient(err error) bool {
	var swe *StoreWriteError
	return errors.As(err, &swe) && swe.Transient
}

// ErrorKind names the taxonomy bucket an ingestion error belongs to.
func ErrorKind(err error) string {
	var (
		are *ArchiveReadError
		pe  *ParseError
		nr  *NormalisationRejection
		swe *StoreWriteError
	)
	switch {
	case errors.As(err, &are):
		return "archive_read"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &nr):
		return "rejection"
	case errors.As(err, &swe):
		return "store_write"
	default:
		return "other"
	}
}
