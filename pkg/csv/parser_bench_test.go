package csv_test

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"
	"testing"

	shapecsv "github.com/shapestone/shape-dsv/pkg/csv"
)

// Benchmark data is generated once and reused across all benchmarks
var (
	benchOnce sync.Once
	smallCSV  string
	mediumCSV string
	largeCSV  string
)

// generateEmployees returns a header and rows employee records, some with
// quoted values.
func generateEmployees(rows int) string {
	var sb strings.Builder
	sb.WriteString("id,first_name,last_name,email,department,salary,active,hire_date,manager_id,notes\r\n")
	departments := []string{"Engineering", "Sales", "Support", "Finance"}
	for i := 0; i < rows; i++ {
		notes := "none"
		if i%7 == 0 {
			notes = `"Promoted, twice; says ""hi"""`
		}
		fmt.Fprintf(&sb, "%d,First%d,Last%d,user%d@example.com,%s,%d.50,%t,2024-01-%02d,%d,%s\r\n",
			i, i, i, i, departments[i%len(departments)], 40000+i*10, i%2 == 0, i%28+1, i/10, notes)
	}
	return sb.String()
}

func loadBenchmarkData() {
	benchOnce.Do(func() {
		smallCSV = generateEmployees(10)
		mediumCSV = generateEmployees(1000)
		largeCSV = generateEmployees(50000)
	})
}

// ================================
// Read to [][]string Benchmarks
// This is the apples-to-apples comparison with encoding/csv
// ================================

func benchmarkParserRecords(b *testing.B, input string) {
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := shapecsv.NewParserString(input, shapecsv.Default)
		if err != nil {
			b.Fatal(err)
		}
		var records [][]string
		for rec, err := range p.All() {
			if err != nil {
				b.Fatal(err)
			}
			records = append(records, rec.Values())
		}
		_ = records
	}
}

func benchmarkEncodingReadAll(b *testing.B, input string) {
	b.SetBytes(int64(len(input)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reader := csv.NewReader(strings.NewReader(input))
		records, err := reader.ReadAll()
		if err != nil {
			b.Fatal(err)
		}
		_ = records
	}
}

// BenchmarkShapeDSV_Parser_Small benchmarks reading a small file record by record.
func BenchmarkShapeDSV_Parser_Small(b *testing.B) {
	loadBenchmarkData()
	benchmarkParserRecords(b, smallCSV)
}

// BenchmarkShapeDSV_Parser_Medium benchmarks reading a medium file record by record.
func BenchmarkShapeDSV_Parser_Medium(b *testing.B) {
	loadBenchmarkData()
	benchmarkParserRecords(b, mediumCSV)
}

// BenchmarkShapeDSV_Parser_Large benchmarks reading a large file record by record.
func BenchmarkShapeDSV_Parser_Large(b *testing.B) {
	loadBenchmarkData()
	benchmarkParserRecords(b, largeCSV)
}

// BenchmarkEncodingCSV_ReadAll_Small benchmarks encoding/csv on a small file.
func BenchmarkEncodingCSV_ReadAll_Small(b *testing.B) {
	loadBenchmarkData()
	benchmarkEncodingReadAll(b, smallCSV)
}

// BenchmarkEncodingCSV_ReadAll_Medium benchmarks encoding/csv on a medium file.
func BenchmarkEncodingCSV_ReadAll_Medium(b *testing.B) {
	loadBenchmarkData()
	benchmarkEncodingReadAll(b, mediumCSV)
}

// BenchmarkEncodingCSV_ReadAll_Large benchmarks encoding/csv on a large file.
func BenchmarkEncodingCSV_ReadAll_Large(b *testing.B) {
	loadBenchmarkData()
	benchmarkEncodingReadAll(b, largeCSV)
}

// ================================
// AST Parse Benchmarks
// ================================

// BenchmarkShapeDSV_ASTParse_Medium benchmarks building the full AST.
func BenchmarkShapeDSV_ASTParse_Medium(b *testing.B) {
	loadBenchmarkData()
	b.SetBytes(int64(len(mediumCSV)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		node, err := shapecsv.Parse(mediumCSV)
		if err != nil {
			b.Fatal(err)
		}
		_ = node
	}
}

// ================================
// Header Lookup Benchmarks
// ================================

// BenchmarkShapeDSV_GetByName_Large benchmarks by-name access through the header map.
func BenchmarkShapeDSV_GetByName_Large(b *testing.B) {
	loadBenchmarkData()
	f, err := shapecsv.Default.Builder().HeaderFromFirstRecord().SetIgnoreHeaderCase(true).Build()
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(largeCSV)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := shapecsv.NewParserString(largeCSV, f)
		if err != nil {
			b.Fatal(err)
		}
		for p.HasNext() {
			rec, _ := p.Next()
			_, _ = rec.GetByName("Email")
		}
		if err := p.Err(); err != nil {
			b.Fatal(err)
		}
	}
}

// ================================
// Write Benchmarks
// ================================

func benchmarkRows() [][]string {
	rows := make([][]string, 1000)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("User %d", i),
			"Description with, comma and \"quotes\"",
			"Multi\nline\nnotes",
		}
	}
	return rows
}

// BenchmarkShapeDSV_Printer_Medium benchmarks writing records.
func BenchmarkShapeDSV_Printer_Medium(b *testing.B) {
	rows := benchmarkRows()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		p, err := shapecsv.NewPrinter(&buf, shapecsv.Default)
		if err != nil {
			b.Fatal(err)
		}
		if err := p.WriteAll(rows); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncodingCSV_Write_Medium benchmarks encoding/csv writing.
func BenchmarkEncodingCSV_Write_Medium(b *testing.B) {
	rows := benchmarkRows()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.UseCRLF = true
		if err := w.WriteAll(rows); err != nil {
			b.Fatal(err)
		}
	}
}

// ================================
// Quoted Fields Benchmarks
// ================================

func quotedFieldsInput() string {
	var sb strings.Builder
	sb.WriteString("name,description,notes\n")
	for i := 0; i < 100; i++ {
		sb.WriteString(fmt.Sprintf("\"User %d\",\"Description with, comma and \"\"quotes\"\"\",\"Multi\nline\nnotes\"\n", i))
	}
	return sb.String()
}

// BenchmarkShapeDSV_QuotedFields benchmarks parsing with quoted fields.
func BenchmarkShapeDSV_QuotedFields(b *testing.B) {
	benchmarkParserRecords(b, quotedFieldsInput())
}

// BenchmarkEncodingCSV_QuotedFields benchmarks encoding/csv with quoted fields.
func BenchmarkEncodingCSV_QuotedFields(b *testing.B) {
	benchmarkEncodingReadAll(b, quotedFieldsInput())
}
