package csv_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/shapestone/shape-dsv/pkg/csv"
)

func TestNewBOMReader(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("a,b\r\nc,d\r\n")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"utf-8 with bom", "\ufeffa,b\r\nc,d\r\n"},
		{"utf-8 without bom", "a,b\r\nc,d\r\n"},
		{"utf-16 with bom", utf16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := csv.NewBOMReader(strings.NewReader(tt.input))

			decoded, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "a,b\r\nc,d\r\n", string(decoded))
		})
	}
}

func TestNewBOMReader_FirstHeaderName(t *testing.T) {
	f, err := csv.Excel.Builder().HeaderFromFirstRecord().Build()
	require.NoError(t, err)

	p, err := csv.NewParser(csv.NewBOMReader(strings.NewReader("\ufeffid,name\r\n1,Ann\r\n")), f)
	require.NoError(t, err)
	rec, err := p.Next()
	require.NoError(t, err)

	id, ok := rec.GetByName("id")
	assert.True(t, ok)
	assert.Equal(t, "1", id)
}
