package csv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapestone/shape-dsv/pkg/csv"
)

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name       string
		build      func() *csv.Builder
		wantOption string
	}{
		{
			name:       "empty delimiter",
			build:      func() *csv.Builder { return csv.NewBuilder().SetDelimiter("") },
			wantOption: "delimiter",
		},
		{
			name:       "line break delimiter",
			build:      func() *csv.Builder { return csv.NewBuilder().SetDelimiter("\n") },
			wantOption: "delimiter",
		},
		{
			name:       "line break quote",
			build:      func() *csv.Builder { return csv.NewBuilder().SetQuote('\r') },
			wantOption: "quote",
		},
		{
			name:       "line break escape",
			build:      func() *csv.Builder { return csv.NewBuilder().SetEscape('\n') },
			wantOption: "escape",
		},
		{
			name:       "line break comment marker",
			build:      func() *csv.Builder { return csv.NewBuilder().SetCommentMarker('\n') },
			wantOption: "comment marker",
		},
		{
			name:       "quote in delimiter",
			build:      func() *csv.Builder { return csv.NewBuilder().SetQuote(',') },
			wantOption: "quote",
		},
		{
			name:       "escape in multi character delimiter",
			build:      func() *csv.Builder { return csv.NewBuilder().SetDelimiter("::").SetEscape(':') },
			wantOption: "escape",
		},
		{
			name:       "comment marker is delimiter",
			build:      func() *csv.Builder { return csv.NewBuilder().SetCommentMarker(',') },
			wantOption: "comment marker",
		},
		{
			name:       "quote is escape",
			build:      func() *csv.Builder { return csv.NewBuilder().SetEscape('"') },
			wantOption: "quote",
		},
		{
			name:       "comment marker is quote",
			build:      func() *csv.Builder { return csv.NewBuilder().SetCommentMarker('"') },
			wantOption: "comment marker",
		},
		{
			name:       "comment marker is escape",
			build:      func() *csv.Builder { return csv.NewBuilder().SetEscape('\\').SetCommentMarker('\\') },
			wantOption: "comment marker",
		},
		{
			name:       "quote mode none without escape",
			build:      func() *csv.Builder { return csv.NewBuilder().SetQuoteMode(csv.QuoteNone) },
			wantOption: "quote mode",
		},
		{
			name:       "unknown quote mode",
			build:      func() *csv.Builder { return csv.NewBuilder().SetQuoteMode(csv.QuoteMode(42)) },
			wantOption: "quote mode",
		},
		{
			name:       "unknown duplicate header mode",
			build:      func() *csv.Builder { return csv.NewBuilder().SetDuplicateHeaderMode(csv.DuplicateHeaderMode(9)) },
			wantOption: "duplicate header mode",
		},
		{
			name: "duplicate explicit header",
			build: func() *csv.Builder {
				return csv.NewBuilder().SetHeader("a", "a").SetDuplicateHeaderMode(csv.DuplicateHeaderDisallow)
			},
			wantOption: "header",
		},
		{
			name:       "header from non-struct",
			build:      func() *csv.Builder { return csv.NewBuilder().HeaderFromStruct(42) },
			wantOption: "header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.build().Build()
			assert.Nil(t, f)
			require.ErrorIs(t, err, csv.ErrInvalidFormat)

			var ce *csv.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantOption, ce.Option)
		})
	}
}

func TestBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name  string
		build *csv.Builder
	}{
		{"multi character delimiter", csv.NewBuilder().SetDelimiter("||")},
		{"no quote", csv.NewBuilder().SetQuote(0)},
		{"quote mode none with escape", csv.NewBuilder().SetQuote(0).SetEscape('\\').SetQuoteMode(csv.QuoteNone)},
		{"comment marker", csv.NewBuilder().SetCommentMarker('#')},
		{"duplicate header allowed", csv.NewBuilder().SetHeader("a", "a")},
		{"blank duplicates with allow empty", csv.NewBuilder().SetHeader("", "").SetDuplicateHeaderMode(csv.DuplicateHeaderAllowEmpty)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build.Build()
			assert.NoError(t, err)
		})
	}
}

func TestBuilder_DoesNotChangeSource(t *testing.T) {
	f, err := csv.Default.Builder().SetHeader("a", "b").Build()
	require.NoError(t, err)

	derived, err := f.Builder().SetDelimiter(";").SetHeader("x").Build()
	require.NoError(t, err)

	assert.Equal(t, ",", f.Delimiter())
	assert.Equal(t, []string{"a", "b"}, f.Header())
	assert.Equal(t, ";", derived.Delimiter())

	header := f.Header()
	header[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, f.Header())
}

func TestBuilder_MaxRows(t *testing.T) {
	f, err := csv.NewBuilder().SetMaxRows(-5).Build()
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.MaxRows())
}

func TestFormat_Dialects(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		f := csv.Default
		assert.Equal(t, ",", f.Delimiter())
		assert.Equal(t, '"', f.Quote())
		assert.Equal(t, rune(0), f.Escape())
		assert.Equal(t, "\r\n", f.RecordSeparator())
		assert.True(t, f.IgnoreEmptyLines())
		assert.Equal(t, csv.DuplicateHeaderAllowAll, f.DuplicateHeaderMode())
		_, ok := f.NullString()
		assert.False(t, ok)
	})

	t.Run("excel", func(t *testing.T) {
		assert.False(t, csv.Excel.IgnoreEmptyLines())
		assert.True(t, csv.Excel.AllowMissingColumnNames())
	})

	t.Run("mysql", func(t *testing.T) {
		f := csv.MySQL
		assert.Equal(t, "\t", f.Delimiter())
		assert.Equal(t, '\\', f.Escape())
		assert.Equal(t, rune(0), f.Quote())
		assert.Equal(t, "\n", f.RecordSeparator())
		assert.Equal(t, csv.QuoteAllNonNull, f.QuoteMode())
		null, ok := f.NullString()
		assert.True(t, ok)
		assert.Equal(t, `\N`, null)
	})

	t.Run("postgresql csv", func(t *testing.T) {
		null, ok := csv.PostgreSQLCSV.NullString()
		assert.True(t, ok)
		assert.Empty(t, null)
		assert.Equal(t, rune(0), csv.PostgreSQLCSV.Escape())
	})

	t.Run("oracle trims", func(t *testing.T) {
		assert.True(t, csv.Oracle.Trim())
	})

	t.Run("tdf", func(t *testing.T) {
		assert.Equal(t, "\t", csv.TDF.Delimiter())
		assert.True(t, csv.TDF.IgnoreSurroundingSpaces())
	})
}

func TestLookup(t *testing.T) {
	f, ok := csv.Lookup("excel")
	require.True(t, ok)
	assert.Same(t, csv.Excel, f)

	_, ok = csv.Lookup("nope")
	assert.False(t, ok)

	names := csv.Dialects()
	assert.Len(t, names, 12)
	for _, name := range names {
		_, ok := csv.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestFormat_EqualAndHash(t *testing.T) {
	rebuilt, err := csv.NewBuilder().Build()
	require.NoError(t, err)
	assert.True(t, csv.Default.Equal(rebuilt))
	assert.Equal(t, csv.Default.Hash(), rebuilt.Hash())

	explicit, err := csv.NewBuilder().
		SetDelimiter(",").
		SetQuote('"').
		SetRecordSeparator("\r\n").
		SetIgnoreEmptyLines(true).
		Build()
	require.NoError(t, err)
	assert.True(t, csv.Default.Equal(explicit))
	assert.Equal(t, csv.Default.Hash(), explicit.Hash())

	assert.False(t, csv.Default.Equal(csv.RFC4180))
	assert.NotEqual(t, csv.Default.Hash(), csv.RFC4180.Hash())

	ab, err := csv.NewBuilder().SetHeader("a", "b").Build()
	require.NoError(t, err)
	ba, err := csv.NewBuilder().SetHeader("b", "a").Build()
	require.NoError(t, err)
	joined, err := csv.NewBuilder().SetHeader("ab").Build()
	require.NoError(t, err)
	assert.False(t, ab.Equal(ba))
	assert.NotEqual(t, ab.Hash(), joined.Hash())

	fromFirst, err := csv.NewBuilder().HeaderFromFirstRecord().Build()
	require.NoError(t, err)
	noNames, err := csv.NewBuilder().SetHeader().Build()
	require.NoError(t, err)
	assert.True(t, fromFirst.Equal(noNames))

	var none *csv.Format
	assert.True(t, none.Equal(nil))
	assert.False(t, csv.Default.Equal(nil))
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t,
		"Delimiter=<,> QuoteChar=<\"> RecordSeparator=<\r\n> EmptyLines:ignored SkipHeaderRecord:false",
		csv.Default.String())
	assert.Equal(t,
		"Delimiter=<\t> Escape=<\\> QuoteMode=<ALL_NON_NULL> NullString=<\\N> RecordSeparator=<\n> SkipHeaderRecord:false",
		csv.MySQL.String())

	f, err := csv.NewBuilder().SetHeader("a", "b").SetCommentMarker('#').Build()
	require.NoError(t, err)
	assert.Contains(t, f.String(), ` CommentStart=<#>`)
	assert.Contains(t, f.String(), ` Header:["a", "b"]`)
}

func TestParseFormatDescription_RoundTrip(t *testing.T) {
	for _, name := range csv.Dialects() {
		t.Run(name, func(t *testing.T) {
			f, _ := csv.Lookup(name)
			got, err := csv.ParseFormatDescription(f.String())
			require.NoError(t, err)
			assert.True(t, f.Equal(got), "got %s", got)
		})
	}

	t.Run("every setting", func(t *testing.T) {
		f, err := csv.NewBuilder().
			SetHeader("a, b", `c]`, `"q"`).
			SetHeaderComments("first", "second line").
			SetCommentMarker('#').
			SetEscape('\\').
			SetNullString("NULL").
			SetQuoteMode(csv.QuoteNonNumeric).
			SetDuplicateHeaderMode(csv.DuplicateHeaderDisallow).
			SetIgnoreSurroundingSpaces(true).
			SetIgnoreHeaderCase(true).
			SetTrim(true).
			SetTrailingDelimiter(true).
			SetSkipHeaderRecord(true).
			SetAllowMissingColumnNames(true).
			SetLenientEOF(true).
			SetAllowTrailingData(true).
			SetAutoFlush(true).
			SetMaxRows(10).
			Build()
		require.NoError(t, err)

		got, err := csv.ParseFormatDescription(f.String())
		require.NoError(t, err)
		assert.True(t, f.Equal(got), "got %s\nwant %s", got, f)
		assert.Equal(t, f.Hash(), got.Hash())
	})

	t.Run("values containing an angle bracket", func(t *testing.T) {
		f, err := csv.NewBuilder().
			SetDelimiter("|> ").
			SetNullString("a> b").
			SetRecordSeparator("x>").
			Build()
		require.NoError(t, err)

		desc := f.String()
		assert.Contains(t, desc, `NullString="a> b"`)
		assert.Contains(t, desc, "RecordSeparator=<x>>")

		got, err := csv.ParseFormatDescription(desc)
		require.NoError(t, err)
		assert.True(t, f.Equal(got), "got %s\nwant %s", got, f)
	})
}

func TestParseFormatDescription_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown setting", "Bogus:1"},
		{"missing closing bracket", "Delimiter=<,"},
		{"multi character quote", "QuoteChar=<ab>"},
		{"bad quote mode", "QuoteMode=<SOMETIMES>"},
		{"bad max rows", "MaxRows=<many>"},
		{"bad header list", "Header:[a, b]"},
		{"no separator", "Delimiter"},
		{"unterminated quoted value", `NullString="a> b`},
		{"invalid combination", "Delimiter=<,> QuoteChar=<,>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := csv.ParseFormatDescription(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFormat_FormatRecord(t *testing.T) {
	tests := []struct {
		name   string
		format *csv.Format
		values []any
		want   string
	}{
		{
			name:   "minimal quoting",
			format: csv.Default,
			values: []any{"a", "b,c", nil, 1},
			want:   `a,"b,c",,1`,
		},
		{
			name:   "empty first value",
			format: csv.Default,
			values: []any{"", "x"},
			want:   `"",x`,
		},
		{
			name:   "mysql",
			format: csv.MySQL,
			values: []any{"a\tb", nil},
			want:   "a\\\tb\t\\N",
		},
		{
			name:   "no values",
			format: csv.Default,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.format.FormatRecord(tt.values...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	f, err := csv.NewBuilder().SetTrailingDelimiter(true).SetHeader("h").Build()
	require.NoError(t, err)
	got, err := f.FormatRecord("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a,b,", got, "no header, trailing delimiter")
}

func TestQuoteMode(t *testing.T) {
	tests := []struct {
		mode csv.QuoteMode
		want string
	}{
		{csv.QuoteMinimal, "MINIMAL"},
		{csv.QuoteAll, "ALL"},
		{csv.QuoteAllNonNull, "ALL_NON_NULL"},
		{csv.QuoteNonNumeric, "NON_NUMERIC"},
		{csv.QuoteNone, "NONE"},
		{csv.QuoteMode(99), "QuoteMode(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.String())
		})
	}

	m, err := csv.ParseQuoteMode("all_non_null")
	require.NoError(t, err)
	assert.Equal(t, csv.QuoteAllNonNull, m)
	_, err = csv.ParseQuoteMode("sometimes")
	assert.Error(t, err)
}

func TestDuplicateHeaderMode(t *testing.T) {
	assert.Equal(t, "ALLOW_EMPTY", csv.DuplicateHeaderAllowEmpty.String())
	assert.Equal(t, "DuplicateHeaderMode(7)", csv.DuplicateHeaderMode(7).String())

	m, err := csv.ParseDuplicateHeaderMode("disallow")
	require.NoError(t, err)
	assert.Equal(t, csv.DuplicateHeaderDisallow, m)
	_, err = csv.ParseDuplicateHeaderMode("maybe")
	assert.Error(t, err)
}
