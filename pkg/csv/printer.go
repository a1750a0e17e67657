package csv

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape-dsv/internal/parser"
)

// Printer writes values as records in a Format.
//
//	p, _ := csv.NewPrinter(os.Stdout, csv.Default)
//	p.PrintRecord("name", "age")
//	p.PrintRecord("Alice", 30)
//	p.Flush()
//
// Values are printed with fmt semantics: strings and []byte as is, a
// fmt.Stringer through String, anything else through fmt.Sprint. A nil
// value is null. A Printer is not safe for concurrent use.
type Printer struct {
	w         io.Writer
	format    *Format
	newRecord bool
	buf       []byte
}

// NewPrinter creates a Printer writing to w in format f. A nil f means
// Default. The header comments, then the header unless SkipHeaderRecord is
// set, are printed before NewPrinter returns.
func NewPrinter(w io.Writer, f *Format) (*Printer, error) {
	if f == nil {
		f = Default
	}
	p := &Printer{w: w, format: f, newRecord: true}

	for _, line := range f.headerComments {
		if err := p.PrintComment(line); err != nil {
			return nil, err
		}
	}
	if len(f.header) > 0 && !f.skipHeaderRecord {
		if err := p.Write(f.header); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Format returns the format the Printer writes.
func (p *Printer) Format() *Format {
	return p.format
}

// Print prints one value of the current record, preceded by a delimiter
// unless it is the first.
func (p *Printer) Print(value any) error {
	f := p.format
	out := p.buf[:0]
	if !p.newRecord {
		out = append(out, f.delimiter...)
	}

	if value == nil {
		switch {
		case !f.hasNullString:
		case f.quoteMode == QuoteAll && f.quote != 0:
			out = utf8.AppendRune(out, f.quote)
			out = append(out, f.nullString...)
			out = utf8.AppendRune(out, f.quote)
		default:
			out = append(out, f.nullString...)
		}
	} else {
		text := toString(value)
		if f.trim {
			text = parser.Trim(text)
		}
		switch {
		case f.quote != 0:
			out = p.appendQuoted(out, value, text)
		case f.escape != 0:
			out = p.appendEscaped(out, text)
		default:
			out = append(out, text...)
		}
	}

	p.buf = out
	p.newRecord = false
	_, err := p.w.Write(out)
	return err
}

// Println ends the current record.
func (p *Printer) Println() error {
	out := p.buf[:0]
	if p.format.trailingDelimiter {
		out = append(out, p.format.delimiter...)
	}
	out = append(out, p.format.recordSeparator...)
	p.buf = out
	p.newRecord = true
	if _, err := p.w.Write(out); err != nil {
		return err
	}
	if p.format.autoFlush {
		return p.Flush()
	}
	return nil
}

// PrintRecord prints values as one record.
func (p *Printer) PrintRecord(values ...any) error {
	for _, v := range values {
		if err := p.Print(v); err != nil {
			return err
		}
	}
	return p.Println()
}

// Write prints record as one record. It mirrors encoding/csv.Writer.Write.
func (p *Printer) Write(record []string) error {
	for _, v := range record {
		if err := p.Print(v); err != nil {
			return err
		}
	}
	return p.Println()
}

// WriteAll prints every record and flushes.
func (p *Printer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := p.Write(record); err != nil {
			return err
		}
	}
	return p.Flush()
}

// PrintComment prints comment as comment lines, one per line of comment.
// It ends the current record first if one is in progress. Nothing is
// printed when the format has no comment marker.
func (p *Printer) PrintComment(comment string) error {
	f := p.format
	if f.comment == 0 {
		return nil
	}
	if !p.newRecord {
		if err := p.Println(); err != nil {
			return err
		}
	}

	comment = strings.ReplaceAll(comment, "\r\n", "\n")
	comment = strings.ReplaceAll(comment, "\r", "\n")
	out := p.buf[:0]
	for _, line := range strings.Split(comment, "\n") {
		out = utf8.AppendRune(out, f.comment)
		out = append(out, ' ')
		out = append(out, line...)
		out = append(out, f.recordSeparator...)
	}
	p.buf = out
	p.newRecord = true
	_, err := p.w.Write(out)
	return err
}

// Flush flushes the underlying writer when it has a Flush method.
func (p *Printer) Flush() error {
	switch w := p.w.(type) {
	case interface{ Flush() error }:
		return w.Flush()
	case interface{ Flush() }:
		w.Flush()
	}
	return nil
}

func (p *Printer) appendQuoted(out []byte, value any, text string) []byte {
	f := p.format
	if f.quoteMode == QuoteNone {
		return p.appendEscaped(out, text)
	}
	if !quoteDecisions[f.quoteMode](f, value, text, p.newRecord) {
		return append(out, text...)
	}

	out = utf8.AppendRune(out, f.quote)
	for _, r := range text {
		if r == f.quote || (f.escape != 0 && r == f.escape) {
			if f.escape != 0 {
				out = utf8.AppendRune(out, f.escape)
			} else {
				out = utf8.AppendRune(out, f.quote)
			}
		}
		out = utf8.AppendRune(out, r)
	}
	return utf8.AppendRune(out, f.quote)
}

// appendEscaped writes text unquoted, escaping line breaks, the quote and
// escape characters, and a comment marker that starts a record. Every rune
// of a delimiter occurrence is escaped, as is a trailing prefix of the
// delimiter.
func (p *Printer) appendEscaped(out []byte, text string) []byte {
	f := p.format
	tail := len(text) - delimiterTail(text, f.delimiter)
	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], f.delimiter) {
			for _, r := range f.delimiter {
				out = utf8.AppendRune(out, f.escape)
				out = utf8.AppendRune(out, r)
			}
			i += len(f.delimiter)
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case i >= tail:
			out = utf8.AppendRune(out, f.escape)
			out = utf8.AppendRune(out, r)
		case r == '\r':
			out = utf8.AppendRune(out, f.escape)
			out = append(out, 'r')
		case r == '\n':
			out = utf8.AppendRune(out, f.escape)
			out = append(out, 'n')
		case r == f.escape,
			f.quote != 0 && r == f.quote,
			i == 0 && p.newRecord && f.comment != 0 && r == f.comment:
			out = utf8.AppendRune(out, f.escape)
			out = utf8.AppendRune(out, r)
		default:
			out = append(out, text[i:i+size]...)
		}
		i += size
	}
	return out
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
