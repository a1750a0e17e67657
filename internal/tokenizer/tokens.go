// Package tokenizer turns a rune stream into CSV tokens.
package tokenizer

import (
	"fmt"
	"unicode/utf8"
)

// Kind identifies what a Token carries.
type Kind int

// Token kinds emitted by the tokenizer.
//
// TokenField and TokenEORecord both carry field content; they differ in what
// terminated the field. A TokenEOF may also carry content when Ready is set.
const (
	TokenInvalid  Kind = iota // not yet classified
	TokenField                // field content, more fields follow
	TokenEORecord             // field content, end of record
	TokenComment              // comment line text
	TokenEOF                  // end of input
)

// String returns the name of the token kind.
func (k Kind) String() string {
	switch k {
	case TokenInvalid:
		return "Invalid"
	case TokenField:
		return "Token"
	case TokenEORecord:
		return "EORecord"
	case TokenComment:
		return "Comment"
	case TokenEOF:
		return "EOF"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is one lexical unit. It is meant to be reused across calls to
// Tokenizer.Next; call Reset before each call.
type Token struct {
	Kind Kind
	// Quoted is set when the content came from a quoted field.
	Quoted bool
	// Ready is set on a TokenEOF that still carries a final field.
	Ready bool

	buf []byte
}

// Reset clears the token for reuse, keeping its buffer.
func (t *Token) Reset() {
	t.Kind = TokenInvalid
	t.Quoted = false
	t.Ready = false
	t.buf = t.buf[:0]
}

// Content returns the decoded text of the token.
func (t *Token) Content() string {
	return string(t.buf)
}

// String returns a debug representation of the token.
func (t *Token) String() string {
	return fmt.Sprintf("%s[%q]", t.Kind, t.buf)
}

func (t *Token) appendRune(r rune) {
	t.buf = utf8.AppendRune(t.buf, r)
}

func (t *Token) appendString(s string) {
	t.buf = append(t.buf, s...)
}

func (t *Token) trimTrailingSpace() {
	for len(t.buf) > 0 {
		r, size := utf8.DecodeLastRune(t.buf)
		if !isSpace(r) {
			return
		}
		t.buf = t.buf[:len(t.buf)-size]
	}
}

// isSpace reports whether r is ASCII white space. Other Unicode spaces,
// such as NBSP, are field content.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
