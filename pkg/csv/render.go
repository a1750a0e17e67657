package csv

import (
	"bytes"
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Render converts an AST node to CSV bytes in the Default dialect.
//
// The node should be the result of Parse() or ParseReader(): an
// ArrayDataNode of records, or a single record (an ArrayDataNode of
// LiteralNodes). Rendering follows the Default dialect:
//   - Automatic quoting of fields containing commas, quotes, or line breaks
//   - Proper escaping of quotes (doubled)
//   - Preservation of empty fields
//   - CRLF after every record
//
// Example:
//
//	node, _ := csv.Parse("name,age\nAlice,30\nBob,25\n")
//	bytes, _ := csv.Render(node)
//	// bytes: name,age\r\nAlice,30\r\nBob,25\r\n
func Render(node ast.SchemaNode) ([]byte, error) {
	return RenderWithFormat(node, Default)
}

// RenderWithFormat converts an AST node to CSV bytes in format f. A
// LiteralNode holding nil prints as null.
func RenderWithFormat(node ast.SchemaNode, f *Format) ([]byte, error) {
	if node == nil {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	p, err := NewPrinter(&buf, f)
	if err != nil {
		return nil, err
	}
	if err := renderNode(p, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderNode renders a file (array of records) or a single record.
func renderNode(p *Printer, node ast.SchemaNode) error {
	arrayNode, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return fmt.Errorf("unsupported node type for CSV rendering: %T", node)
	}
	elements := arrayNode.Elements()
	if len(elements) == 0 {
		return nil
	}

	// Check if this is a file (array of arrays) or a record (array of literals)
	switch elements[0].(type) {
	case *ast.ArrayDataNode:
		for _, elem := range elements {
			record, ok := elem.(*ast.ArrayDataNode)
			if !ok {
				return fmt.Errorf("expected record to be *ast.ArrayDataNode, got %T", elem)
			}
			if err := renderRecord(p, record); err != nil {
				return err
			}
		}
		return nil
	case *ast.LiteralNode:
		return renderRecord(p, arrayNode)
	default:
		return fmt.Errorf("unexpected element type in array: %T", elements[0])
	}
}

// renderRecord prints one ArrayDataNode of LiteralNodes as a record.
func renderRecord(p *Printer, record *ast.ArrayDataNode) error {
	for _, elem := range record.Elements() {
		literal, ok := elem.(*ast.LiteralNode)
		if !ok {
			return fmt.Errorf("expected field to be *ast.LiteralNode, got %T", elem)
		}
		if err := p.Print(literal.Value()); err != nil {
			return err
		}
	}
	return p.Println()
}
