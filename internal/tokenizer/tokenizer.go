package tokenizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shapestone/shape-dsv/internal/source"
)

// Syntax errors reported by the tokenizer. They are fatal for the stream.
var (
	// ErrUnterminatedQuote is reported when input ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("EOF reached before encapsulated token finished")

	// ErrTrailingData is reported for content between a closing quote and the
	// next delimiter or line break.
	ErrTrailingData = errors.New("invalid character between encapsulated token and delimiter")

	// ErrEscapeAtEOF is reported when the escape character is the last rune.
	ErrEscapeAtEOF = errors.New("EOF whilst processing escape sequence")
)

// SyntaxError carries the position at which tokenizing failed.
type SyntaxError struct {
	// StartLine is the line on which the failing token started (1-indexed).
	StartLine int64
	// Line is the line being read when the failure was detected (1-indexed).
	Line int64
	// Position is the number of runes consumed before the failure (0-indexed).
	Position int64
	// BytePosition is the number of bytes consumed before the failure (0-indexed).
	BytePosition int64
	// Err is one of the Err* sentinels.
	Err error
}

// Error formats the syntax error with its position.
func (e *SyntaxError) Error() string {
	if e.StartLine != 0 && e.StartLine != e.Line {
		return fmt.Sprintf("(startline %d) line %d, position %d: %v", e.StartLine, e.Line, e.Position, e.Err)
	}
	return fmt.Sprintf("line %d, position %d: %v", e.Line, e.Position, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Options configures the tokenizer. A zero rune disables Quote, Escape and
// Comment. Options are expected to be validated by the caller: Delimiter is
// non-empty and the special runes are pairwise distinct.
type Options struct {
	// Delimiter separates fields. It may be more than one rune long.
	Delimiter string
	// Quote encloses fields that contain special runes.
	Quote rune
	// Escape makes the following rune literal.
	Escape rune
	// Comment marks a comment line when it starts the line.
	Comment rune
	// IgnoreSurroundingSpaces strips unquoted whitespace around fields.
	IgnoreSurroundingSpaces bool
	// IgnoreEmptyLines skips lines that contain nothing.
	IgnoreEmptyLines bool
	// LenientEOF accepts input ending inside a quoted field.
	LenientEOF bool
	// AllowTrailingData keeps content found after a closing quote.
	AllowTrailingData bool
}

// DefaultOptions returns options for RFC 4180 input with empty lines skipped.
func DefaultOptions() Options {
	return Options{
		Delimiter:        ",",
		Quote:            '"',
		IgnoreEmptyLines: true,
	}
}

// Tokenizer produces one Token per call to Next. It reads its input from a
// source.Source and is not safe for concurrent use.
type Tokenizer struct {
	src   *source.Source
	opts  Options
	delim []rune
	ahead []rune

	// lastTokenDelimiter records whether the previous token ended in a
	// delimiter, in which case EOF still yields an (empty) final field.
	lastTokenDelimiter bool
}

// New creates a Tokenizer reading from src.
func New(src *source.Source, opts Options) *Tokenizer {
	delim := []rune(opts.Delimiter)
	if len(delim) == 0 {
		delim = []rune{','}
	}
	return &Tokenizer{
		src:   src,
		opts:  opts,
		delim: delim,
		ahead: make([]rune, len(delim)),
	}
}

// NewString creates a Tokenizer over s.
func NewString(s string, opts Options) *Tokenizer {
	return New(source.NewString(s), opts)
}

// LineNumber returns the line currently being read.
func (t *Tokenizer) LineNumber() int64 {
	return t.src.LineNumber()
}

// Position returns the number of runes consumed so far.
func (t *Tokenizer) Position() int64 {
	return t.src.Position()
}

// BytesRead returns the number of bytes consumed so far.
func (t *Tokenizer) BytesRead() int64 {
	return t.src.BytesRead()
}

// AtLineStart reports whether the next rune begins a new line.
func (t *Tokenizer) AtLineStart() bool {
	return isStartOfLine(t.src.LastChar())
}

// Next reads the next token into tok. tok must have been Reset.
// Errors are either *SyntaxError or failures of the underlying reader.
func (t *Tokenizer) Next(tok *Token) error {
	err := t.next(tok)
	t.lastTokenDelimiter = err == nil && tok.Kind == TokenField
	return err
}

func (t *Tokenizer) next(tok *Token) error {
	last := t.src.LastChar()
	c, eol, err := t.advance()
	if err != nil {
		return err
	}

	if t.opts.IgnoreEmptyLines {
		for eol && isStartOfLine(last) {
			last = c
			if c, eol, err = t.advance(); err != nil {
				return err
			}
			if c == source.EOF {
				tok.Kind = TokenEOF
				return nil
			}
		}
	}

	if last == source.EOF || (!t.lastTokenDelimiter && c == source.EOF) {
		tok.Kind = TokenEOF
		return nil
	}

	if isStartOfLine(last) && t.opts.Comment != 0 {
		if t.opts.IgnoreSurroundingSpaces {
			if c, eol, err = t.skipLeadingSpace(c, eol); err != nil {
				return err
			}
		}
		if c == t.opts.Comment {
			return t.parseComment(tok)
		}
	}

	isDelim := false
	if !eol {
		if isDelim, err = t.matchDelimiter(c); err != nil {
			return err
		}
	}
	if t.opts.IgnoreSurroundingSpaces && !isDelim {
		for !eol && isSpace(c) {
			if c, eol, err = t.advance(); err != nil {
				return err
			}
			if !eol {
				if isDelim, err = t.matchDelimiter(c); err != nil {
					return err
				}
				if isDelim {
					break
				}
			}
		}
	}

	switch {
	case isDelim:
		tok.Kind = TokenField
		return t.skipDelimiter()
	case eol:
		tok.Kind = TokenEORecord
		return nil
	case t.isQuote(c):
		return t.parseQuoted(tok)
	case c == source.EOF:
		tok.Kind = TokenEOF
		tok.Ready = true
		return nil
	default:
		return t.parseSimple(tok, c)
	}
}

// parseComment reads the remainder of the line after the comment marker.
// One space after the marker and all trailing whitespace are dropped.
func (t *Tokenizer) parseComment(tok *Token) error {
	line, _, err := t.src.ReadLine()
	if err != nil {
		return err
	}
	line = strings.TrimRightFunc(line, isSpace)
	tok.appendString(strings.TrimPrefix(line, " "))
	tok.Kind = TokenComment
	return nil
}

// parseSimple reads an unquoted field starting with c. A quote rune inside
// an unquoted field is ordinary data.
func (t *Tokenizer) parseSimple(tok *Token, c rune) error {
	var eol bool
	var err error
	for {
		if t.isEscape(c) {
			if err = t.appendEscaped(tok, c); err != nil {
				return err
			}
		} else {
			tok.appendRune(c)
		}

		if c, eol, err = t.advance(); err != nil {
			return err
		}
		if eol {
			tok.Kind = TokenEORecord
			break
		}
		if c == source.EOF {
			tok.Kind = TokenEOF
			tok.Ready = true
			break
		}
		isDelim, err := t.matchDelimiter(c)
		if err != nil {
			return err
		}
		if isDelim {
			tok.Kind = TokenField
			if err := t.skipDelimiter(); err != nil {
				return err
			}
			break
		}
	}
	if t.opts.IgnoreSurroundingSpaces {
		tok.trimTrailingSpace()
	}
	return nil
}

// parseQuoted reads a quoted field; the opening quote has been consumed.
func (t *Tokenizer) parseQuoted(tok *Token) error {
	tok.Quoted = true
	startLine := t.src.LineNumber()
	for {
		c, err := t.src.Read()
		if err != nil {
			return err
		}
		switch {
		case t.isEscape(c):
			if err := t.appendEscaped(tok, c); err != nil {
				return err
			}
		case t.isQuote(c):
			next, err := t.src.Peek()
			if err != nil {
				return err
			}
			if t.isQuote(next) {
				c, err = t.src.Read()
				if err != nil {
					return err
				}
				tok.appendRune(c)
				continue
			}
			return t.afterQuoted(tok)
		case c == source.EOF:
			if t.opts.LenientEOF {
				tok.Kind = TokenEOF
				tok.Ready = true
				return nil
			}
			return t.syntaxError(startLine, ErrUnterminatedQuote)
		default:
			tok.appendRune(c)
		}
	}
}

// afterQuoted consumes what follows a closing quote up to the end of the
// field. Whitespace is skipped; anything else is trailing data.
func (t *Tokenizer) afterQuoted(tok *Token) error {
	for {
		c, eol, err := t.advance()
		if err != nil {
			return err
		}
		if !eol && c != source.EOF {
			isDelim, err := t.matchDelimiter(c)
			if err != nil {
				return err
			}
			if isDelim {
				tok.Kind = TokenField
				return t.skipDelimiter()
			}
		}
		switch {
		case c == source.EOF:
			tok.Kind = TokenEOF
			tok.Ready = true
			return nil
		case eol:
			tok.Kind = TokenEORecord
			return nil
		case t.opts.AllowTrailingData:
			tok.appendRune(c)
		case !isSpace(c):
			return t.syntaxError(0, ErrTrailingData)
		}
	}
}

// appendEscaped decodes the rune following an escape rune that has already
// been consumed. Each rune of the delimiter is escaped on its own, so an
// escaped rune is never part of a delimiter match. Unknown sequences are
// kept verbatim.
func (t *Tokenizer) appendEscaped(tok *Token, escape rune) error {
	c, err := t.src.Read()
	if err != nil {
		return err
	}
	switch c {
	case source.EOF:
		return t.syntaxError(0, ErrEscapeAtEOF)
	case 'r':
		tok.appendRune('\r')
	case 'n':
		tok.appendRune('\n')
	case 't':
		tok.appendRune('\t')
	case 'b':
		tok.appendRune('\b')
	case 'f':
		tok.appendRune('\f')
	case '\r':
		tok.appendRune('\r')
		next, err := t.src.Peek()
		if err != nil {
			return err
		}
		if next == '\n' {
			if _, err := t.src.Read(); err != nil {
				return err
			}
			tok.appendRune('\n')
		}
	case '\n', '\t', '\b', '\f':
		tok.appendRune(c)
	default:
		if t.isMeta(c) || slices.Contains(t.delim, c) {
			tok.appendRune(c)
		} else {
			tok.appendRune(escape)
			tok.appendRune(c)
		}
	}
	return nil
}

// advance reads one rune and folds CRLF into a single line break, returning
// the last rune consumed and whether it ended a line.
func (t *Tokenizer) advance() (rune, bool, error) {
	c, err := t.src.Read()
	if err != nil {
		return source.EOF, false, err
	}
	if c == '\r' {
		next, err := t.src.Peek()
		if err != nil {
			return source.EOF, false, err
		}
		if next == '\n' {
			if c, err = t.src.Read(); err != nil {
				return source.EOF, false, err
			}
		}
	}
	return c, c == '\r' || c == '\n', nil
}

// skipLeadingSpace consumes whitespace at the start of a line, stopping at
// a line break or a delimiter.
func (t *Tokenizer) skipLeadingSpace(c rune, eol bool) (rune, bool, error) {
	for !eol && isSpace(c) {
		isDelim, err := t.matchDelimiter(c)
		if err != nil || isDelim {
			return c, eol, err
		}
		if c, eol, err = t.advance(); err != nil {
			return c, eol, err
		}
	}
	return c, eol, nil
}

// matchDelimiter reports whether c, already consumed, starts a complete
// delimiter. Nothing beyond c is consumed; a partial match leaves the
// following runes in place as ordinary content.
func (t *Tokenizer) matchDelimiter(c rune) (bool, error) {
	if c != t.delim[0] {
		return false, nil
	}
	if len(t.delim) == 1 {
		return true, nil
	}
	rest := t.ahead[:len(t.delim)-1]
	n, err := t.src.LookAhead(rest)
	if err != nil {
		return false, err
	}
	return n == len(rest) && equalRunes(rest, t.delim[1:]), nil
}

// skipDelimiter consumes the remainder of a delimiter matched by matchDelimiter.
func (t *Tokenizer) skipDelimiter() error {
	for i := 1; i < len(t.delim); i++ {
		if _, err := t.src.Read(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tokenizer) isQuote(c rune) bool {
	return t.opts.Quote != 0 && c == t.opts.Quote
}

func (t *Tokenizer) isEscape(c rune) bool {
	return t.opts.Escape != 0 && c == t.opts.Escape
}

func (t *Tokenizer) isMeta(c rune) bool {
	return t.isEscape(c) || t.isQuote(c) || (t.opts.Comment != 0 && c == t.opts.Comment)
}

func (t *Tokenizer) syntaxError(startLine int64, err error) *SyntaxError {
	return &SyntaxError{
		StartLine:    startLine,
		Line:         t.src.LineNumber(),
		Position:     t.src.Position(),
		BytePosition: t.src.BytesRead(),
		Err:          err,
	}
}

func isStartOfLine(c rune) bool {
	return c == '\n' || c == '\r' || c == source.Undefined
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
