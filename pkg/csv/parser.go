package csv

import (
	"errors"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/shapestone/shape-dsv/internal/parser"
	"github.com/shapestone/shape-dsv/internal/source"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// Offset positions a Parser that starts in the middle of a larger input,
// for example after seeking to a record found by an earlier pass.
type Offset struct {
	// Character and Byte are added to every reported position.
	Character int64
	Byte      int64
	// RecordNumber is the number of the first record read. Zero means 1.
	RecordNumber int64
}

// Parser reads records one at a time from an io.Reader.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	f, _ := csv.Default.Builder().HeaderFromFirstRecord().Build()
//	p, err := csv.NewParser(file, f)
//	if err != nil {
//	    // handle error
//	}
//	for p.HasNext() {
//	    rec, _ := p.Next()
//	    name, _ := rec.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := p.Err(); err != nil {
//	    // handle error
//	}
//
// A Parser is not safe for concurrent use.
type Parser struct {
	format *Format
	inner  *parser.Parser
	offset Offset

	header           *headerMap
	headerComment    string
	hasHeaderComment bool

	peeked  *Record
	peekErr error
	hasPeek bool

	rows           int64
	err            error
	onInconsistent func(*Record)
}

// NewParser creates a Parser reading r in format f. A nil f means Default.
// When f has a header, it is read or built before NewParser returns; a
// header that cannot be mapped is reported as a *HeaderError.
func NewParser(r io.Reader, f *Format) (*Parser, error) {
	return NewParserAt(r, f, Offset{})
}

// NewParserString creates a Parser reading s.
func NewParserString(s string, f *Format) (*Parser, error) {
	return NewParser(strings.NewReader(s), f)
}

// NewParserAt creates a Parser whose positions and record numbers continue
// from at.
func NewParserAt(r io.Reader, f *Format, at Offset) (*Parser, error) {
	if f == nil {
		f = Default
	}
	opts := f.parserOptions()
	opts.CharacterOffset = at.Character
	opts.ByteOffset = at.Byte
	opts.RecordNumber = at.RecordNumber

	p := &Parser{
		format: f,
		inner:  parser.New(source.New(r), opts),
		offset: at,
	}
	if err := p.createHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) createHeader() error {
	f := p.format
	if !f.hasHeader {
		return nil
	}

	var names []string
	var nulls []bool
	if len(f.header) == 0 || f.skipHeaderRecord {
		raw, err := p.inner.Next()
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			return p.wrapError(err)
		default:
			p.headerComment, p.hasHeaderComment = raw.Comment, raw.HasComment
			names, nulls = raw.Values, raw.Nulls
		}
	}
	if len(f.header) > 0 {
		names, nulls = f.header, nil
	}

	h, err := newHeaderMap(f, names, nulls)
	if err != nil {
		return err
	}
	p.header = h
	return nil
}

// OnInconsistent registers fn to be called with every record whose number
// of values differs from the number of header columns.
func (p *Parser) OnInconsistent(fn func(*Record)) {
	p.onInconsistent = fn
}

// Next returns the next record. It returns io.EOF when the input is
// exhausted or MaxRows records have been read. Any other error is a
// *ParseError and ends the stream.
func (p *Parser) Next() (*Record, error) {
	if p.hasPeek {
		rec, err := p.peeked, p.peekErr
		p.peeked, p.peekErr, p.hasPeek = nil, nil, false
		return rec, err
	}
	return p.next()
}

// HasNext reports whether Next will return a record. The record is read
// ahead and kept for Next, so HasNext may be called any number of times.
func (p *Parser) HasNext() bool {
	if !p.hasPeek {
		p.peeked, p.peekErr = p.next()
		p.hasPeek = true
	}
	return p.peekErr == nil
}

// Err returns the error that stopped the Parser, or nil at a clean end.
func (p *Parser) Err() error {
	return p.err
}

// All returns an iterator over the remaining records. Iteration stops
// after the first error, which is yielded with a nil record.
func (p *Parser) All() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Records reads all remaining records.
func (p *Parser) Records() ([]*Record, error) {
	var records []*Record
	for rec, err := range p.All() {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Parser) next() (*Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	if limit := p.format.maxRows; limit > 0 && p.rows >= limit {
		return nil, io.EOF
	}

	raw, err := p.inner.Next()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		p.err = p.wrapError(err)
		return nil, p.err
	}
	p.rows++

	rec := &Record{
		values:            raw.Values,
		nulls:             raw.Nulls,
		number:            raw.Number,
		line:              raw.Line,
		characterPosition: raw.CharacterPosition,
		bytePosition:      raw.BytePosition,
		comment:           raw.Comment,
		hasComment:        raw.HasComment,
		header:            p.header,
	}
	if p.onInconsistent != nil && !rec.IsConsistent() {
		p.onInconsistent(rec)
	}
	return rec, nil
}

func (p *Parser) wrapError(err error) error {
	pe := &ParseError{
		Line:         p.inner.LineNumber(),
		Position:     p.inner.Position(),
		BytePosition: p.inner.BytePosition(),
		RecordNumber: p.inner.RecordNumber() + 1,
		Err:          err,
	}
	var syntaxErr *tokenizer.SyntaxError
	if errors.As(err, &syntaxErr) {
		pe.StartLine = syntaxErr.StartLine
		pe.Line = syntaxErr.Line
		pe.Position = syntaxErr.Position + p.offset.Character
		pe.BytePosition = syntaxErr.BytePosition + p.offset.Byte
		pe.Err = syntaxErr.Err
	}
	return pe
}

// Format returns the format the Parser reads.
func (p *Parser) Format() *Format {
	return p.format
}

// HeaderNames returns the header names in column order. Null names are
// left out. It is nil when the format has no header.
func (p *Parser) HeaderNames() []string {
	if p.header == nil {
		return nil
	}
	return slices.Clone(p.header.names)
}

// HeaderMap returns a copy of the header mapping from name to the index of
// the last column with that name. It is nil when the format has no header.
func (p *Parser) HeaderMap() map[string]int {
	if p.header == nil {
		return nil
	}
	m := make(map[string]int, len(p.header.names))
	for _, name := range p.header.names {
		if i, ok := p.header.lookup(name); ok {
			m[name] = i
		}
	}
	return m
}

// HeaderComment returns the comment that preceded a header read from the
// input.
func (p *Parser) HeaderComment() (string, bool) {
	return p.headerComment, p.hasHeaderComment
}

// TrailerComment returns the comment that followed the last record. It is
// known once Next has returned io.EOF.
func (p *Parser) TrailerComment() (string, bool) {
	return p.inner.TrailerComment()
}

// CurrentLineNumber returns the line the Parser is reading.
func (p *Parser) CurrentLineNumber() int64 {
	return p.inner.LineNumber()
}

// RecordNumber returns the number of the last record read, including a
// record held by HasNext.
func (p *Parser) RecordNumber() int64 {
	return p.inner.RecordNumber()
}
