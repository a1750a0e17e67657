// Package source provides the character source consumed by the tokenizer.
//
// A Source wraps an io.Reader carrying UTF-8 text and exposes it one rune at a
// time with a single rune of lookahead. It remembers the last consumed rune,
// counts logical lines (a bare CR, a bare LF and a CRLF pair each count once)
// and tracks how many runes and bytes have been consumed so far.
package source

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// EOF is returned by Read and Peek once the input is exhausted.
	// It never collides with a valid rune, NUL included.
	EOF rune = -1

	// Undefined is reported by LastChar before anything has been read.
	Undefined rune = -2
)

const defaultBufferSize = 4096

// Source is a rune reader with one rune of lookahead and position tracking.
// It is not safe for concurrent use.
type Source struct {
	r        *bufio.Reader
	last     rune
	lines    int64
	position int64
	bytes    int64
	err      error
}

// New returns a Source reading from r.
func New(r io.Reader) *Source {
	return &Source{
		r:    bufio.NewReaderSize(r, defaultBufferSize),
		last: Undefined,
	}
}

// NewString returns a Source reading from s.
func NewString(s string) *Source {
	return New(strings.NewReader(s))
}

// Read consumes and returns the next rune, or EOF.
// Once EOF has been returned every further call returns EOF again.
// A non-nil error is returned only for failures of the underlying reader;
// the rune is EOF in that case and the error is sticky.
func (s *Source) Read() (rune, error) {
	c, size, err := s.next()
	if err != nil {
		return EOF, err
	}
	s.advance(c, size)
	return c, nil
}

// Peek returns the next rune without consuming it.
// It affects neither LastChar nor the line counter.
func (s *Source) Peek() (rune, error) {
	if s.err != nil {
		return EOF, s.err
	}
	c, _, err := s.r.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return EOF, nil
		}
		s.err = err
		return EOF, err
	}
	if err := s.r.UnreadRune(); err != nil {
		s.err = err
		return EOF, err
	}
	return c, nil
}

// LookAhead fills buf with the upcoming runes without consuming them and
// returns how many were available. Fewer than len(buf) means the input ends
// before that.
func (s *Source) LookAhead(buf []rune) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	data, err := s.r.Peek(len(buf) * utf8.UTFMax)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		s.err = err
		return 0, err
	}
	n := 0
	for n < len(buf) && len(data) > 0 {
		c, size := utf8.DecodeRune(data)
		if c == utf8.RuneError && size == 1 && !utf8.FullRune(data) {
			break
		}
		buf[n] = c
		data = data[size:]
		n++
	}
	return n, nil
}

// ReadInto reads up to len(buf) runes into buf. It returns the number of
// runes read and io.EOF when nothing could be read because the input ended.
func (s *Source) ReadInto(buf []rune) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n := 0
	for n < len(buf) {
		c, err := s.Read()
		if err != nil {
			return n, err
		}
		if c == EOF {
			break
		}
		buf[n] = c
		n++
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadLine consumes runes up to and including the next line break (CR, LF or
// CRLF) and returns the line without its terminator. ok is false when the
// input was already exhausted.
func (s *Source) ReadLine() (line string, ok bool, err error) {
	c, err := s.Peek()
	if err != nil {
		return "", false, err
	}
	if c == EOF {
		return "", false, nil
	}
	var sb strings.Builder
	for {
		c, err := s.Read()
		if err != nil {
			return sb.String(), true, err
		}
		if c == '\r' {
			next, err := s.Peek()
			if err != nil {
				return sb.String(), true, err
			}
			if next == '\n' {
				if _, err := s.Read(); err != nil {
					return sb.String(), true, err
				}
			}
		}
		if c == EOF || c == '\n' || c == '\r' {
			return sb.String(), true, nil
		}
		sb.WriteRune(c)
	}
}

// LastChar returns the most recently consumed rune, EOF once the end has
// been read, or Undefined before the first read.
func (s *Source) LastChar() rune {
	return s.last
}

// LineNumber returns the 1-based number of the line currently being read.
// Right after a line break (or at EOF) it reports the line just completed.
func (s *Source) LineNumber() int64 {
	switch s.last {
	case '\r', '\n', Undefined, EOF:
		return s.lines
	}
	return s.lines + 1
}

// Position returns the number of runes consumed so far.
func (s *Source) Position() int64 {
	return s.position
}

// BytesRead returns the number of UTF-8 bytes consumed so far.
func (s *Source) BytesRead() int64 {
	return s.bytes
}

func (s *Source) next() (rune, int, error) {
	if s.err != nil {
		return EOF, 0, s.err
	}
	c, size, err := s.r.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return EOF, 0, nil
		}
		s.err = err
		return EOF, 0, err
	}
	return c, size, nil
}

func (s *Source) advance(c rune, size int) {
	if c == '\r' || (c == '\n' && s.last != '\r') ||
		(c == EOF && s.last != '\r' && s.last != '\n' && s.last != EOF) {
		s.lines++
	}
	s.last = c
	if c != EOF {
		s.position++
		s.bytes += int64(size)
	}
}
