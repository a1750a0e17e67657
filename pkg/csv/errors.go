package csv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// Syntax errors. A *ParseError wraps one of these (or the reader's own
// error) and errors.Is sees through it.
var (
	// ErrUnterminatedQuote indicates input ended inside a quoted field.
	ErrUnterminatedQuote = tokenizer.ErrUnterminatedQuote

	// ErrTrailingData indicates content between a closing quote and the next
	// delimiter or line break.
	ErrTrailingData = tokenizer.ErrTrailingData

	// ErrEscapeAtEOF indicates the input ended right after an escape character.
	ErrEscapeAtEOF = tokenizer.ErrEscapeAtEOF
)

// Header and lookup errors.
var (
	// ErrDuplicateHeader indicates a header name repeated against the
	// format's DuplicateHeaderMode.
	ErrDuplicateHeader = errors.New("duplicate header name")

	// ErrMissingColumnName indicates a blank header name while missing
	// column names are not allowed.
	ErrMissingColumnName = errors.New("missing header name")

	// ErrNoHeader indicates a by-name lookup on a record without a header.
	ErrNoHeader = errors.New("no header mapping was specified, the record values can't be accessed by name")

	// ErrColumnNotFound indicates a by-name lookup for a name the header lacks.
	ErrColumnNotFound = errors.New("column not found")

	// ErrColumnNotSet indicates a header column the record has no value for.
	ErrColumnNotSet = errors.New("column not set")
)

// ErrInvalidFormat is matched by every *ConfigError.
var ErrInvalidFormat = errors.New("invalid format")

// ParseError represents a parsing error with position information.
// It provides detailed context about where the error occurred in the CSV data.
type ParseError struct {
	// StartLine is the line where parsing started for the failing token (1-indexed).
	StartLine int64
	// Line is the current line where the error occurred (1-indexed).
	Line int64
	// Position is the number of characters consumed before the error (0-indexed).
	Position int64
	// BytePosition is the number of bytes consumed before the error (0-indexed).
	BytePosition int64
	// RecordNumber is the number the failing record would have had.
	RecordNumber int64
	// Err is the underlying error: one of the syntax sentinels or a read error.
	Err error
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	if e.StartLine == 0 || e.StartLine == e.Line {
		return fmt.Sprintf("parse error on line %d, position %d: %v", e.Line, e.Position, e.Err)
	}
	return fmt.Sprintf("parse error on line %d (started line %d), position %d: %v",
		e.Line, e.StartLine, e.Position, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid format configuration found by Builder.Build.
type ConfigError struct {
	// Option names the offending setting.
	Option string
	// With names the setting Option conflicts with, if any.
	With string
	// Message describes the problem.
	Message string
	// Err is the cause, set for header problems.
	Err error
}

// Error returns the description of the invalid configuration.
func (e *ConfigError) Error() string {
	return "csv: invalid format: " + e.Message
}

// Unwrap returns the cause, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidFormat.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// HeaderError reports a header that cannot be mapped.
type HeaderError struct {
	// Name is the offending header name.
	Name string
	// Header is the complete header record.
	Header []string
	// Err is ErrDuplicateHeader or ErrMissingColumnName.
	Err error
}

// Error describes the header problem.
func (e *HeaderError) Error() string {
	header := "[" + strings.Join(e.Header, ", ") + "]"
	if errors.Is(e.Err, ErrDuplicateHeader) {
		return fmt.Sprintf("csv: the header contains a duplicate name: %q in %s; use SetDuplicateHeaderMode if this is valid", e.Name, header)
	}
	return fmt.Sprintf("csv: a header name is missing in %s", header)
}

// Unwrap returns the underlying sentinel.
func (e *HeaderError) Unwrap() error {
	return e.Err
}

func configError(option, with, format string, args ...any) *ConfigError {
	return &ConfigError{
		Option:  option,
		With:    with,
		Message: fmt.Sprintf(format, args...),
	}
}
