// Package parser assembles tokens into records.
//
// A Parser drives a tokenizer.Tokenizer, collecting field tokens until the end
// of a record and attaching the record's ordinal, the offsets at which it
// started, and any comment lines that preceded it.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shapestone/shape-dsv/internal/source"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// ErrInvalidSequence is reported when the tokenizer yields a token that cannot
// be classified.
var ErrInvalidSequence = errors.New("invalid parse sequence")

// Options configures record assembly.
type Options struct {
	Tokenizer tokenizer.Options

	// Trim removes leading and trailing whitespace from every value.
	Trim bool
	// TrailingDelimiter drops the empty value produced by a delimiter that
	// ends a record.
	TrailingDelimiter bool
	// NullString, when HasNullString is set, marks values that read as null.
	NullString    string
	HasNullString bool
	// StrictQuoteMode distinguishes quoted from unquoted values when mapping
	// nulls: a quoted value is never null, and without a null string an
	// unquoted empty value is.
	StrictQuoteMode bool

	// CharacterOffset and ByteOffset are added to record positions, for
	// parsers that start in the middle of a larger input.
	CharacterOffset int64
	ByteOffset      int64
	// RecordNumber is the number given to the first record. Zero means 1.
	RecordNumber int64
}

// DefaultOptions returns options for RFC 4180 input.
func DefaultOptions() Options {
	return Options{
		Tokenizer: tokenizer.DefaultOptions(),
	}
}

// Record is one assembled record.
type Record struct {
	// Values holds the field values in column order.
	Values []string
	// Nulls flags values that read as null. It is nil when none are.
	Nulls []bool
	// Number is the 1-based ordinal of the record.
	Number int64
	// Line is the line on which the record started.
	Line int64
	// CharacterPosition and BytePosition locate the record's first rune,
	// including a comment block that precedes it.
	CharacterPosition int64
	BytePosition      int64
	// Comment is the text of the comment lines preceding the record.
	Comment    string
	HasComment bool
}

// Parser turns a token stream into records. It is not safe for concurrent use.
type Parser struct {
	tok    *tokenizer.Tokenizer
	token  tokenizer.Token
	opts   Options
	number int64
	done   bool
	err    error

	values []string
	nulls  []bool

	trailer    string
	hasTrailer bool
}

// New creates a Parser reading from src.
func New(src *source.Source, opts Options) *Parser {
	number := opts.RecordNumber - 1
	if number < 0 {
		number = 0
	}
	return &Parser{
		tok:    tokenizer.New(src, opts.Tokenizer),
		opts:   opts,
		number: number,
	}
}

// NewString creates a Parser over input.
func NewString(input string, opts Options) *Parser {
	return New(source.NewString(input), opts)
}

// Next returns the next record. It returns io.EOF once the input is
// exhausted; any other error is fatal and is returned again on later calls.
func (p *Parser) Next() (*Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, io.EOF
	}

	var comment strings.Builder
	hasComment := false

	for {
		startLine := p.tok.LineNumber()
		if p.tok.AtLineStart() {
			startLine++
		}
		startChar := p.tok.Position() + p.opts.CharacterOffset
		startByte := p.tok.BytesRead() + p.opts.ByteOffset
		p.values = nil
		p.nulls = nil

		for {
			p.token.Reset()
			if err := p.tok.Next(&p.token); err != nil {
				p.err = err
				return nil, err
			}

			switch p.token.Kind {
			case tokenizer.TokenField:
				p.addValue(false)
			case tokenizer.TokenEORecord:
				p.addValue(true)
			case tokenizer.TokenEOF:
				if p.token.Ready {
					p.addValue(true)
				} else if hasComment {
					p.trailer = comment.String()
					p.hasTrailer = true
				}
			case tokenizer.TokenComment:
				if hasComment {
					comment.WriteByte('\n')
				}
				comment.WriteString(p.token.Content())
				hasComment = true
				continue
			default:
				p.err = fmt.Errorf("line %d: %w", p.tok.LineNumber(), ErrInvalidSequence)
				return nil, p.err
			}

			if p.token.Kind != tokenizer.TokenField {
				break
			}
		}

		if len(p.values) == 0 {
			if p.token.Kind == tokenizer.TokenEOF {
				p.done = true
				return nil, io.EOF
			}
			// A record made only of a dropped trailing delimiter.
			continue
		}

		p.number++
		return &Record{
			Values:            p.values,
			Nulls:             p.nulls,
			Number:            p.number,
			Line:              startLine,
			CharacterPosition: startChar,
			BytePosition:      startByte,
			Comment:           comment.String(),
			HasComment:        hasComment,
		}, nil
	}
}

// RecordNumber returns the number of the last record returned.
func (p *Parser) RecordNumber() int64 {
	return p.number
}

// LineNumber returns the line currently being read.
func (p *Parser) LineNumber() int64 {
	return p.tok.LineNumber()
}

// Position returns the number of runes consumed so far.
func (p *Parser) Position() int64 {
	return p.tok.Position() + p.opts.CharacterOffset
}

// BytePosition returns the number of bytes consumed so far.
func (p *Parser) BytePosition() int64 {
	return p.tok.BytesRead() + p.opts.ByteOffset
}

// TrailerComment returns the comment block that followed the last record.
func (p *Parser) TrailerComment() (string, bool) {
	return p.trailer, p.hasTrailer
}

func (p *Parser) addValue(last bool) {
	value := p.token.Content()
	if p.opts.Trim {
		value = Trim(value)
	}
	if last && value == "" && p.opts.TrailingDelimiter {
		return
	}
	if p.isNull(value) {
		if p.nulls == nil {
			p.nulls = make([]bool, len(p.values), len(p.values)+1)
		}
		p.nulls = append(p.nulls, true)
		p.values = append(p.values, "")
		return
	}
	if p.nulls != nil {
		p.nulls = append(p.nulls, false)
	}
	p.values = append(p.values, value)
}

func (p *Parser) isNull(value string) bool {
	quoted := p.token.Quoted
	if p.opts.HasNullString && value == p.opts.NullString {
		return !(p.opts.StrictQuoteMode && quoted)
	}
	return p.opts.StrictQuoteMode && !p.opts.HasNullString && value == "" && !quoted
}

// Trim removes leading and trailing runes at or below U+0020, control
// characters and line breaks included.
func Trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}
