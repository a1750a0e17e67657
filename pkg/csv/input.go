package csv

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewBOMReader returns a reader that drops a leading byte order mark. A
// UTF-16 BOM also switches decoding to UTF-16; otherwise the input is
// read as UTF-8, with invalid bytes replaced by U+FFFD.
//
//	file, _ := os.Open("export.csv")
//	p, err := csv.NewParser(csv.NewBOMReader(file), csv.Excel)
func NewBOMReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
