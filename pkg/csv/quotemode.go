package csv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// QuoteMode selects which values the Printer encloses in quotes.
type QuoteMode int

const (
	// QuoteMinimal quotes only values that contain special characters.
	QuoteMinimal QuoteMode = iota
	// QuoteAll quotes every value. Null values print as the quoted null string.
	QuoteAll
	// QuoteAllNonNull quotes every value that is not null.
	QuoteAllNonNull
	// QuoteNonNumeric quotes every value that is not a number.
	QuoteNonNumeric
	// QuoteNone never quotes and escapes special characters instead. It
	// requires an escape character.
	QuoteNone
)

var quoteModeNames = [...]string{
	QuoteMinimal:    "MINIMAL",
	QuoteAll:        "ALL",
	QuoteAllNonNull: "ALL_NON_NULL",
	QuoteNonNumeric: "NON_NUMERIC",
	QuoteNone:       "NONE",
}

// String returns the name of the quote mode.
func (m QuoteMode) String() string {
	if m >= 0 && int(m) < len(quoteModeNames) {
		return quoteModeNames[m]
	}
	return fmt.Sprintf("QuoteMode(%d)", int(m))
}

// ParseQuoteMode returns the QuoteMode named s, ignoring case.
func ParseQuoteMode(s string) (QuoteMode, error) {
	for m, name := range quoteModeNames {
		if strings.EqualFold(name, s) {
			return QuoteMode(m), nil
		}
	}
	return QuoteMinimal, fmt.Errorf("csv: unknown quote mode %q", s)
}

// strict reports whether the mode distinguishes quoted from unquoted values
// when reading nulls.
func (m QuoteMode) strict() bool {
	return m == QuoteAllNonNull || m == QuoteNonNumeric
}

// quoteDecision reports whether a non-null value is enclosed in quotes.
// value is the original argument to Print and text its string form.
type quoteDecision func(f *Format, value any, text string, newRecord bool) bool

// quoteDecisions holds one decision per mode. QuoteNone never reaches it;
// the Printer escapes instead.
var quoteDecisions = [...]quoteDecision{
	QuoteMinimal:    quoteMinimal,
	QuoteAll:        quoteAlways,
	QuoteAllNonNull: quoteAlways,
	QuoteNonNumeric: quoteNonNumeric,
	QuoteNone:       quoteNever,
}

func quoteAlways(*Format, any, string, bool) bool { return true }

func quoteNever(*Format, any, string, bool) bool { return false }

func quoteNonNumeric(_ *Format, value any, text string, _ bool) bool {
	return !isNumber(value, text)
}

func quoteMinimal(f *Format, _ any, text string, newRecord bool) bool {
	if text == "" {
		// An empty first value would otherwise print as an empty line.
		return newRecord
	}
	first, _ := utf8.DecodeRuneInString(text)
	if f.comment != 0 && first == f.comment {
		return true
	}
	if !f.trim {
		last, _ := utf8.DecodeLastRuneInString(text)
		if first <= ' ' || last <= ' ' {
			return true
		}
	}
	if strings.Contains(text, f.delimiter) || strings.ContainsAny(text, "\r\n") {
		return true
	}
	if delimiterTail(text, f.delimiter) > 0 {
		return true
	}
	return (f.quote != 0 && strings.ContainsRune(text, f.quote)) ||
		(f.escape != 0 && strings.ContainsRune(text, f.escape))
}

// delimiterTail returns the length in bytes of the longest proper prefix
// of delim that text ends with. Printed unquoted, such a tail would merge
// with the delimiter that follows it.
func delimiterTail(text, delim string) int {
	n := 0
	for i := range delim {
		if i > 0 && strings.HasSuffix(text, delim[:i]) {
			n = i
		}
	}
	return n
}

// isNumber reports whether value is a Go number or a string that parses
// as one.
func isNumber(value any, text string) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	case string, []byte, fmt.Stringer:
		_, err := strconv.ParseFloat(text, 64)
		return err == nil
	}
	return false
}
