package csv

import (
	"fmt"
	"slices"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Record is one record read by a Parser. Its values are accessed by index
// or, when the Parser has a header, by column name.
//
//	rec, _ := p.Next()
//	name, _ := rec.Get(0)              // by index
//	age, _ := rec.GetByName("age")     // by header name
type Record struct {
	values []string
	nulls  []bool

	number            int64
	line              int64
	characterPosition int64
	bytePosition      int64

	comment    string
	hasComment bool

	header *headerMap
}

// Get returns the value at index. It returns ("", false) when the index is
// out of range.
func (r *Record) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.values) {
		return "", false
	}
	return r.values[index], true
}

// GetByName returns the value of the column called name. With duplicate
// names the last such column is used. It returns ("", false) when there is
// no header, no such column, or no value for it.
func (r *Record) GetByName(name string) (string, bool) {
	v, err := r.Lookup(name)
	return v, err == nil
}

// Lookup is like GetByName but says why a value is unavailable. The error
// wraps ErrNoHeader, ErrColumnNotFound or ErrColumnNotSet.
func (r *Record) Lookup(name string) (string, error) {
	if r.header == nil {
		return "", ErrNoHeader
	}
	i, ok := r.header.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: mapping for %s not found, expected one of %v", ErrColumnNotFound, name, r.header.names)
	}
	if i >= len(r.values) {
		return "", fmt.Errorf("%w: index for header %q is %d but the record only has %d values", ErrColumnNotSet, name, i, len(r.values))
	}
	return r.values[i], nil
}

// IsNull reports whether the value at index was read as null.
func (r *Record) IsNull(index int) bool {
	return index >= 0 && index < len(r.nulls) && r.nulls[index]
}

// IsMapped reports whether the header has a column called name.
func (r *Record) IsMapped(name string) bool {
	if r.header == nil {
		return false
	}
	_, ok := r.header.lookup(name)
	return ok
}

// IsSet reports whether the column called name is mapped and the record
// has a value for it.
func (r *Record) IsSet(name string) bool {
	if r.header == nil {
		return false
	}
	i, ok := r.header.lookup(name)
	return ok && i < len(r.values)
}

// IsConsistent reports whether the record has as many values as the header
// has columns. Records read without a header are always consistent.
func (r *Record) IsConsistent() bool {
	return r.header == nil || r.header.columns == len(r.values)
}

// Values returns a copy of the record's values.
func (r *Record) Values() []string {
	return slices.Clone(r.values)
}

// Len returns the number of values in the record.
func (r *Record) Len() int {
	return len(r.values)
}

// Number returns the 1-based number of the record in the input. A header
// read from the input counts as a record.
func (r *Record) Number() int64 {
	return r.number
}

// Line returns the line on which the record started.
func (r *Record) Line() int64 {
	return r.line
}

// CharacterPosition returns the number of characters before the record,
// its comment included.
func (r *Record) CharacterPosition() int64 {
	return r.characterPosition
}

// BytePosition returns the number of bytes before the record, its comment
// included.
func (r *Record) BytePosition() int64 {
	return r.bytePosition
}

// Comment returns the comment lines that preceded the record, joined with
// "\n". It is empty when there were none; use HasComment to tell an empty
// comment from none.
func (r *Record) Comment() string {
	return r.comment
}

// HasComment reports whether comment lines preceded the record.
func (r *Record) HasComment() bool {
	return r.hasComment
}

// ToMap returns the values keyed by header name. Columns the record has no
// value for are left out.
func (r *Record) ToMap() map[string]string {
	if r.header == nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(r.header.names))
	for _, name := range r.header.names {
		if i, ok := r.header.lookup(name); ok && i < len(r.values) {
			m[name] = r.values[i]
		}
	}
	return m
}

// Position returns the record's location as an AST position.
func (r *Record) Position() ast.Position {
	return ast.NewPosition(int(r.characterPosition), int(r.line), 1)
}

// ToAST converts the record to an ArrayDataNode of LiteralNodes. Null
// values become literals holding nil.
func (r *Record) ToAST() *ast.ArrayDataNode {
	pos := r.Position()
	fields := make([]ast.SchemaNode, len(r.values))
	for i, v := range r.values {
		if r.IsNull(i) {
			fields[i] = ast.NewLiteralNode(nil, pos)
		} else {
			fields[i] = ast.NewLiteralNode(v, pos)
		}
	}
	return ast.NewArrayDataNode(fields, pos)
}

// String returns a debug representation of the record.
func (r *Record) String() string {
	return fmt.Sprintf("Record{number=%d, comment=%q, values=%q}", r.number, r.comment, r.values)
}
