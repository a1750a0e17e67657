// Package csv reads and writes delimiter-separated values: CSV and its
// dialects (Excel, MySQL, PostgreSQL, Oracle, tab-delimited and others).
//
// A Format describes a dialect. Predefined dialects are package variables
// (Default, Excel, MySQL, ...) and Lookup finds them by name; a Builder
// derives new ones. A Parser reads records from an io.Reader one at a time
// and a Printer writes them to an io.Writer.
//
// # Thread Safety
//
// A Format is immutable and may be shared by any number of goroutines.
// Parser and Printer are not safe for concurrent use. The package-level
// functions create their own Parser or Printer on each call:
//
//	// Safe: Concurrent parsing
//	go func() { csv.Parse(input1) }()
//	go func() { csv.Parse(input2) }()
//
// # Parsing APIs
//
//   - NewParser(io.Reader, *Format) - streaming, record by record
//   - Parse(string) and ParseReader(io.Reader) - whole input as an AST, Default dialect
//   - ParseWithFormat(io.Reader, *Format) - whole input as an AST, any dialect
//
// # Example usage with Parser:
//
//	f, _ := csv.Default.Builder().HeaderFromFirstRecord().Build()
//	p, err := csv.NewParser(file, f)
//	if err != nil {
//	    // handle error
//	}
//	for rec, err := range p.All() {
//	    if err != nil {
//	        // handle error
//	    }
//	    name, _ := rec.GetByName("name")
//	}
//
// # Example usage with Parse:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	if err != nil {
//	    // handle error
//	}
//	// node is now a *ast.ArrayDataNode representing the CSV data
package csv

import (
	"errors"
	"io"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Parse parses CSV in the Default dialect into an AST.
//
// Returns an ast.ArrayDataNode representing the parsed CSV:
//   - *ast.ArrayDataNode for the file (array of records)
//   - Each record is an *ast.ArrayDataNode of fields, positioned at the
//     record's character offset and line
//   - Each field is an *ast.LiteralNode containing a string value
//
// For parsing large files or streaming data, use NewParser instead.
//
// Example:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	arrayNode := node.(*ast.ArrayDataNode)
//	records := arrayNode.Elements()
//	// records[0] is the header row
//	// records[1] is the first data row
func Parse(input string) (ast.SchemaNode, error) {
	return ParseWithFormat(strings.NewReader(input), Default)
}

// ParseReader parses CSV in the Default dialect from an io.Reader into an AST.
func ParseReader(reader io.Reader) (ast.SchemaNode, error) {
	return ParseWithFormat(reader, Default)
}

// ParseWithFormat parses the input in format f into an AST. A header read
// from the input is not part of the result; null values are literals
// holding nil.
//
// Example:
//
//	node, err := csv.ParseWithFormat(file, csv.TDF)
func ParseWithFormat(reader io.Reader, f *Format) (ast.SchemaNode, error) {
	p, err := NewParser(reader, f)
	if err != nil {
		return nil, err
	}
	records := make([]ast.SchemaNode, 0)
	for rec, err := range p.All() {
		if err != nil {
			return nil, err
		}
		records = append(records, rec.ToAST())
	}
	return ast.NewArrayDataNode(records, ast.ZeroPosition()), nil
}

// Validate checks if the input string is valid CSV in the Default dialect.
//
// Returns nil if the input is valid CSV.
// Returns a *ParseError describing where and why the CSV is invalid.
//
//	if err := csv.Validate(input); err != nil {
//	    // Invalid CSV
//	    fmt.Println("Invalid CSV:", err)
//	}
//	// Valid CSV - err is nil
func Validate(input string) error {
	return ValidateReader(strings.NewReader(input))
}

// ValidateReader checks if the input from an io.Reader is valid CSV in the
// Default dialect. Records are read and discarded one at a time.
func ValidateReader(reader io.Reader) error {
	return ValidateWithFormat(reader, Default)
}

// ValidateWithFormat checks if the input is valid in format f.
func ValidateWithFormat(reader io.Reader, f *Format) error {
	p, err := NewParser(reader, f)
	if err != nil {
		return err
	}
	for {
		_, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
