// Package errors provides the error taxonomy shared by the ingestion,
// unification, transform and persistence layers.
//
// All failures are classified by a small set of sentinel errors so callers
// can branch with errors.Is without string matching. Typed wrappers carry
// the file/row/column context needed to render an actionable diagnostic.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for all error conditions.
var (
	// ErrFormat indicates malformed CSV structure (missing time column,
	// ragged rows, truncated header block).
	ErrFormat = errors.New("malformed format")

	// ErrParse indicates a non-numeric cell where a number was expected.
	ErrParse = errors.New("parse error")

	// ErrNotFound indicates a missing column or preset.
	ErrNotFound = errors.New("not found")

	// ErrUnsortedTime indicates a source whose time column decreases.
	ErrUnsortedTime = errors.New("time column not sorted")

	// ErrDuplicateColumn indicates a column name collision across sources.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrCorruptFile indicates an unreadable persisted artifact.
	ErrCorruptFile = errors.New("corrupt file")

	// ErrRangeRejected indicates a settings value outside the absolute
	// ceiling. It is recovered locally (the prior value is retained) and
	// surfaced to the caller as a warning, never as a hard failure.
	ErrRangeRejected = errors.New("value outside absolute ceiling")

	// ErrNoDataset indicates an operation that requires a generated
	// unified table before any table has been installed.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrCancelled indicates an ingest aborted by the caller's context.
	ErrCancelled = errors.New("operation cancelled")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// FormatError describes malformed input structure.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("format: %s", e.Reason)
	}
	return fmt.Sprintf("%s: format: %s", e.File, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// NewFormat creates a FormatError for the given file.
func NewFormat(file, reason string) error {
	return &FormatError{File: file, Reason: reason}
}

// ParseError names the offending cell of a failed numeric conversion.
type ParseError struct {
	File   string
	Row    int // zero-based data row index
	Column string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d, column %q: cannot parse %q as number",
		e.File, e.Row, e.Column, e.Value)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewParse creates a ParseError with full cell context.
func NewParse(file string, row int, column, value string) error {
	return &ParseError{File: file, Row: row, Column: column, Value: value}
}

// UnsortedTimeError names the source whose time axis is not
// monotonically non-decreasing.
type UnsortedTimeError struct {
	Source string
	Row    int
}

func (e *UnsortedTimeError) Error() string {
	return fmt.Sprintf("%s: row %d: time column not monotonically non-decreasing", e.Source, e.Row)
}

func (e *UnsortedTimeError) Unwrap() error { return ErrUnsortedTime }

// NewUnsortedTime creates an UnsortedTimeError.
func NewUnsortedTime(source string, row int) error {
	return &UnsortedTimeError{Source: source, Row: row}
}

// NewDuplicateColumn creates a duplicate-column error naming the column
// and the source that re-declared it.
func NewDuplicateColumn(column, source string) error {
	return fmt.Errorf("column %q re-declared by %s: %w", column, source, ErrDuplicateColumn)
}

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s %q: %w", entityType, identifier, ErrNotFound)
}

// NewCorrupt creates a corrupt-file error for a persisted artifact.
func NewCorrupt(file, reason string) error {
	return fmt.Errorf("%s: %s: %w", file, reason, ErrCorruptFile)
}

// NewRangeRejected creates the warning reported when a settings field
// exceeds the absolute ceiling and reverts to its prior value.
func NewRangeRejected(column, field string, value float64) error {
	return fmt.Errorf("column %q: %s=%g exceeds ceiling, prior value retained: %w",
		column, field, value, ErrRangeRejected)
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIngestError returns true if err belongs to the ingestion family
// (structure, parsing, ordering or collision failures).
func IsIngestError(err error) bool {
	return errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrUnsortedTime) ||
		errors.Is(err, ErrDuplicateColumn)
}

// IsWarning returns true if err is recovered in place and only needs to
// be displayed, not propagated as a failure.
func IsWarning(err error) bool { return errors.Is(err, ErrRangeRejected) }

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
