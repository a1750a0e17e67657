package csv

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/shapestone/shape-dsv/internal/parser"
	"github.com/shapestone/shape-dsv/internal/tokenizer"
)

// Format describes a CSV dialect: how fields are separated, quoted and
// escaped, and how records, headers, comments and nulls are treated.
//
// A Format is immutable once built and safe for concurrent use. Create one
// with a Builder, usually starting from a predefined dialect:
//
//	f, err := csv.Default.Builder().
//		SetDelimiter(";").
//		SetCommentMarker('#').
//		HeaderFromFirstRecord().
//		Build()
type Format struct {
	delimiter       string
	quote           rune
	escape          rune
	comment         rune
	recordSeparator string
	nullString      string
	hasNullString   bool
	quoteMode       QuoteMode

	header         []string
	hasHeader      bool
	headerComments []string

	duplicateHeaderMode     DuplicateHeaderMode
	ignoreSurroundingSpaces bool
	ignoreEmptyLines        bool
	ignoreHeaderCase        bool
	trim                    bool
	trailingDelimiter       bool
	skipHeaderRecord        bool
	allowMissingColumnNames bool
	lenientEOF              bool
	allowTrailingData       bool
	autoFlush               bool
	maxRows                 int64
}

// Delimiter returns the field delimiter.
func (f *Format) Delimiter() string { return f.delimiter }

// Quote returns the quote character, or 0 when quoting is disabled.
func (f *Format) Quote() rune { return f.quote }

// Escape returns the escape character, or 0 when none is set.
func (f *Format) Escape() rune { return f.escape }

// CommentMarker returns the comment marker, or 0 when comments are disabled.
func (f *Format) CommentMarker() rune { return f.comment }

// RecordSeparator returns the line break written after each record.
func (f *Format) RecordSeparator() string { return f.recordSeparator }

// NullString returns the text that represents a null value, if any.
func (f *Format) NullString() (string, bool) { return f.nullString, f.hasNullString }

// QuoteMode returns the quoting policy used when printing.
func (f *Format) QuoteMode() QuoteMode { return f.quoteMode }

// Header returns a copy of the explicit header. It is empty when the
// header is read from the first record or when there is no header.
func (f *Format) Header() []string { return slices.Clone(f.header) }

// HasHeader reports whether records are mapped to a header, either the
// explicit one or the first record.
func (f *Format) HasHeader() bool { return f.hasHeader }

// HeaderComments returns a copy of the comment lines printed before the header.
func (f *Format) HeaderComments() []string { return slices.Clone(f.headerComments) }

// DuplicateHeaderMode returns how repeated header names are treated.
func (f *Format) DuplicateHeaderMode() DuplicateHeaderMode { return f.duplicateHeaderMode }

// IgnoreSurroundingSpaces reports whether unquoted spaces around values are dropped.
func (f *Format) IgnoreSurroundingSpaces() bool { return f.ignoreSurroundingSpaces }

// IgnoreEmptyLines reports whether empty lines are skipped.
func (f *Format) IgnoreEmptyLines() bool { return f.ignoreEmptyLines }

// IgnoreHeaderCase reports whether header lookups ignore case.
func (f *Format) IgnoreHeaderCase() bool { return f.ignoreHeaderCase }

// Trim reports whether values are trimmed when reading and printing.
func (f *Format) Trim() bool { return f.trim }

// TrailingDelimiter reports whether records end with a delimiter.
func (f *Format) TrailingDelimiter() bool { return f.trailingDelimiter }

// SkipHeaderRecord reports whether the first record is skipped when reading
// and the header is not printed when writing.
func (f *Format) SkipHeaderRecord() bool { return f.skipHeaderRecord }

// AllowMissingColumnNames reports whether blank header names are accepted.
func (f *Format) AllowMissingColumnNames() bool { return f.allowMissingColumnNames }

// LenientEOF reports whether input may end inside a quoted field.
func (f *Format) LenientEOF() bool { return f.lenientEOF }

// AllowTrailingData reports whether content after a closing quote is kept.
func (f *Format) AllowTrailingData() bool { return f.allowTrailingData }

// AutoFlush reports whether the Printer flushes after every record.
func (f *Format) AutoFlush() bool { return f.autoFlush }

// MaxRows returns the maximum number of data records read, 0 for no limit.
func (f *Format) MaxRows() int64 { return f.maxRows }

// Builder returns a Builder initialized with the settings of f.
func (f *Format) Builder() *Builder {
	b := &Builder{f: *f}
	b.f.header = slices.Clone(f.header)
	b.f.headerComments = slices.Clone(f.headerComments)
	return b
}

// Equal reports whether f and other describe the same dialect.
func (f *Format) Equal(other *Format) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.delimiter == other.delimiter &&
		f.quote == other.quote &&
		f.escape == other.escape &&
		f.comment == other.comment &&
		f.recordSeparator == other.recordSeparator &&
		f.nullString == other.nullString &&
		f.hasNullString == other.hasNullString &&
		f.quoteMode == other.quoteMode &&
		slices.Equal(f.header, other.header) &&
		f.hasHeader == other.hasHeader &&
		slices.Equal(f.headerComments, other.headerComments) &&
		f.duplicateHeaderMode == other.duplicateHeaderMode &&
		f.ignoreSurroundingSpaces == other.ignoreSurroundingSpaces &&
		f.ignoreEmptyLines == other.ignoreEmptyLines &&
		f.ignoreHeaderCase == other.ignoreHeaderCase &&
		f.trim == other.trim &&
		f.trailingDelimiter == other.trailingDelimiter &&
		f.skipHeaderRecord == other.skipHeaderRecord &&
		f.allowMissingColumnNames == other.allowMissingColumnNames &&
		f.lenientEOF == other.lenientEOF &&
		f.allowTrailingData == other.allowTrailingData &&
		f.autoFlush == other.autoFlush &&
		f.maxRows == other.maxRows
}

// Hash returns a hash of every setting of f. Equal formats hash equally.
func (f *Format) Hash() uint64 {
	d := xxhash.New()
	var buf []byte
	str := func(s string) {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	num := func(n int64) {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n))
	}
	flag := func(v bool) {
		if v {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}

	str(f.delimiter)
	num(int64(f.quote))
	num(int64(f.escape))
	num(int64(f.comment))
	str(f.recordSeparator)
	str(f.nullString)
	flag(f.hasNullString)
	num(int64(f.quoteMode))
	num(int64(len(f.header)))
	for _, name := range f.header {
		str(name)
	}
	flag(f.hasHeader)
	num(int64(len(f.headerComments)))
	for _, line := range f.headerComments {
		str(line)
	}
	num(int64(f.duplicateHeaderMode))
	flag(f.ignoreSurroundingSpaces)
	flag(f.ignoreEmptyLines)
	flag(f.ignoreHeaderCase)
	flag(f.trim)
	flag(f.trailingDelimiter)
	flag(f.skipHeaderRecord)
	flag(f.allowMissingColumnNames)
	flag(f.lenientEOF)
	flag(f.allowTrailingData)
	flag(f.autoFlush)
	num(f.maxRows)

	_, _ = d.Write(buf)
	return d.Sum64()
}

// String returns the canonical description of f, for example
//
//	Delimiter=<,> QuoteChar=<"> RecordSeparator=<\r\n> EmptyLines:ignored SkipHeaderRecord:false
//
// with the record separator written verbatim. ParseFormatDescription reads
// it back.
func (f *Format) String() string {
	var sb strings.Builder
	writeAngled(&sb, "Delimiter", f.delimiter)
	if f.escape != 0 {
		fmt.Fprintf(&sb, " Escape=<%c>", f.escape)
	}
	if f.quote != 0 {
		fmt.Fprintf(&sb, " QuoteChar=<%c>", f.quote)
	}
	if f.quoteMode != QuoteMinimal {
		fmt.Fprintf(&sb, " QuoteMode=<%s>", f.quoteMode)
	}
	if f.comment != 0 {
		fmt.Fprintf(&sb, " CommentStart=<%c>", f.comment)
	}
	if f.hasNullString {
		sb.WriteByte(' ')
		writeAngled(&sb, "NullString", f.nullString)
	}
	if f.recordSeparator != "" {
		sb.WriteByte(' ')
		writeAngled(&sb, "RecordSeparator", f.recordSeparator)
	}
	if f.ignoreEmptyLines {
		sb.WriteString(" EmptyLines:ignored")
	}
	if f.ignoreSurroundingSpaces {
		sb.WriteString(" SurroundingSpaces:ignored")
	}
	if f.ignoreHeaderCase {
		sb.WriteString(" IgnoreHeaderCase:ignored")
	}
	if f.trim {
		sb.WriteString(" Trim:true")
	}
	if f.trailingDelimiter {
		sb.WriteString(" TrailingDelimiter:true")
	}
	if f.allowMissingColumnNames {
		sb.WriteString(" MissingColumnNames:allowed")
	}
	if f.duplicateHeaderMode != DuplicateHeaderAllowAll {
		fmt.Fprintf(&sb, " DuplicateHeaderMode=<%s>", f.duplicateHeaderMode)
	}
	if f.lenientEOF {
		sb.WriteString(" LenientEOF:true")
	}
	if f.allowTrailingData {
		sb.WriteString(" TrailingData:allowed")
	}
	if f.autoFlush {
		sb.WriteString(" AutoFlush:true")
	}
	if f.maxRows > 0 {
		fmt.Fprintf(&sb, " MaxRows=<%d>", f.maxRows)
	}
	fmt.Fprintf(&sb, " SkipHeaderRecord:%t", f.skipHeaderRecord)
	if len(f.headerComments) > 0 {
		sb.WriteString(" HeaderComments:")
		writeQuotedList(&sb, f.headerComments)
	}
	if f.hasHeader {
		sb.WriteString(" Header:")
		writeQuotedList(&sb, f.header)
	}
	return sb.String()
}

// writeAngled writes key=<value>. A value containing "> " would end the
// angled form early, so it is written Go-quoted instead.
func writeAngled(sb *strings.Builder, key, value string) {
	if strings.Contains(value, "> ") {
		fmt.Fprintf(sb, "%s=%s", key, strconv.Quote(value))
		return
	}
	fmt.Fprintf(sb, "%s=<%s>", key, value)
}

func writeQuotedList(sb *strings.Builder, items []string) {
	sb.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(item))
	}
	sb.WriteByte(']')
}

// FormatRecord returns values printed as one record, without the record
// separator.
func (f *Format) FormatRecord(values ...any) (string, error) {
	var sb strings.Builder
	p := &Printer{w: &sb, format: f, newRecord: true}
	for _, v := range values {
		if err := p.Print(v); err != nil {
			return "", err
		}
	}
	if f.trailingDelimiter {
		sb.WriteString(f.delimiter)
	}
	return sb.String(), nil
}

// parserOptions translates f into options for the record assembler.
func (f *Format) parserOptions() parser.Options {
	return parser.Options{
		Tokenizer: tokenizer.Options{
			Delimiter:               f.delimiter,
			Quote:                   f.quote,
			Escape:                  f.escape,
			Comment:                 f.comment,
			IgnoreSurroundingSpaces: f.ignoreSurroundingSpaces,
			IgnoreEmptyLines:        f.ignoreEmptyLines,
			LenientEOF:              f.lenientEOF,
			AllowTrailingData:       f.allowTrailingData,
		},
		Trim:              f.trim,
		TrailingDelimiter: f.trailingDelimiter,
		NullString:        f.nullString,
		HasNullString:     f.hasNullString,
		StrictQuoteMode:   f.quoteMode.strict(),
	}
}

// Builder assembles a Format. Setters return the Builder for chaining;
// Build validates the combination.
type Builder struct {
	f   Format
	err error
}

// NewBuilder returns a Builder initialized with the Default dialect.
func NewBuilder() *Builder {
	return Default.Builder()
}

// SetDelimiter sets the field delimiter, which may be more than one character.
func (b *Builder) SetDelimiter(delimiter string) *Builder {
	b.f.delimiter = delimiter
	return b
}

// SetQuote sets the quote character. 0 disables quoting.
func (b *Builder) SetQuote(quote rune) *Builder {
	b.f.quote = quote
	return b
}

// SetEscape sets the escape character. 0 disables escaping.
func (b *Builder) SetEscape(escape rune) *Builder {
	b.f.escape = escape
	return b
}

// SetCommentMarker sets the comment marker. 0 disables comments.
func (b *Builder) SetCommentMarker(marker rune) *Builder {
	b.f.comment = marker
	return b
}

// SetRecordSeparator sets the line break written after each record.
func (b *Builder) SetRecordSeparator(separator string) *Builder {
	b.f.recordSeparator = separator
	return b
}

// SetNullString sets the text that represents a null value.
func (b *Builder) SetNullString(s string) *Builder {
	b.f.nullString = s
	b.f.hasNullString = true
	return b
}

// ClearNullString removes the null string, so no value reads as null.
func (b *Builder) ClearNullString() *Builder {
	b.f.nullString = ""
	b.f.hasNullString = false
	return b
}

// SetQuoteMode sets the quoting policy used when printing.
func (b *Builder) SetQuoteMode(mode QuoteMode) *Builder {
	b.f.quoteMode = mode
	return b
}

// SetHeader sets an explicit header. Without names the header is read
// from the first record, as with HeaderFromFirstRecord.
func (b *Builder) SetHeader(names ...string) *Builder {
	b.f.header = slices.Clone(names)
	b.f.hasHeader = true
	return b
}

// HeaderFromFirstRecord reads the header from the first record.
func (b *Builder) HeaderFromFirstRecord() *Builder {
	b.f.header = nil
	b.f.hasHeader = true
	return b
}

// HeaderFromStruct sets the header to the column names of the struct type
// of v, taken from csv tags or field names.
func (b *Builder) HeaderFromStruct(v any) *Builder {
	names, err := structHeader(v)
	if err != nil {
		b.err = &ConfigError{Option: "header", Message: err.Error(), Err: err}
		return b
	}
	return b.SetHeader(names...)
}

// ClearHeader removes the header; records are then only accessible by index.
func (b *Builder) ClearHeader() *Builder {
	b.f.header = nil
	b.f.hasHeader = false
	return b
}

// SetHeaderComments sets comment lines printed before the header.
func (b *Builder) SetHeaderComments(lines ...string) *Builder {
	b.f.headerComments = slices.Clone(lines)
	return b
}

// SetDuplicateHeaderMode sets how repeated header names are treated.
func (b *Builder) SetDuplicateHeaderMode(mode DuplicateHeaderMode) *Builder {
	b.f.duplicateHeaderMode = mode
	return b
}

// SetIgnoreSurroundingSpaces drops unquoted spaces around values.
func (b *Builder) SetIgnoreSurroundingSpaces(v bool) *Builder {
	b.f.ignoreSurroundingSpaces = v
	return b
}

// SetIgnoreEmptyLines skips empty lines instead of reading them as records.
func (b *Builder) SetIgnoreEmptyLines(v bool) *Builder {
	b.f.ignoreEmptyLines = v
	return b
}

// SetIgnoreHeaderCase makes header lookups case-insensitive.
func (b *Builder) SetIgnoreHeaderCase(v bool) *Builder {
	b.f.ignoreHeaderCase = v
	return b
}

// SetTrim trims values when reading and printing.
func (b *Builder) SetTrim(v bool) *Builder {
	b.f.trim = v
	return b
}

// SetTrailingDelimiter makes records end with a delimiter.
func (b *Builder) SetTrailingDelimiter(v bool) *Builder {
	b.f.trailingDelimiter = v
	return b
}

// SetSkipHeaderRecord skips the first record when reading and omits the
// header when printing.
func (b *Builder) SetSkipHeaderRecord(v bool) *Builder {
	b.f.skipHeaderRecord = v
	return b
}

// SetAllowMissingColumnNames accepts blank header names.
func (b *Builder) SetAllowMissingColumnNames(v bool) *Builder {
	b.f.allowMissingColumnNames = v
	return b
}

// SetLenientEOF accepts input that ends inside a quoted field.
func (b *Builder) SetLenientEOF(v bool) *Builder {
	b.f.lenientEOF = v
	return b
}

// SetAllowTrailingData keeps content found after a closing quote.
func (b *Builder) SetAllowTrailingData(v bool) *Builder {
	b.f.allowTrailingData = v
	return b
}

// SetAutoFlush makes the Printer flush after every record.
func (b *Builder) SetAutoFlush(v bool) *Builder {
	b.f.autoFlush = v
	return b
}

// SetMaxRows limits the number of data records read. 0 or less means no limit.
func (b *Builder) SetMaxRows(n int64) *Builder {
	if n < 0 {
		n = 0
	}
	b.f.maxRows = n
	return b
}

// Build validates the settings and returns the Format. The error is a
// *ConfigError.
func (b *Builder) Build() (*Format, error) {
	if b.err != nil {
		return nil, b.err
	}
	f := b.f
	f.header = slices.Clone(b.f.header)
	f.headerComments = slices.Clone(b.f.headerComments)
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Format) validate() error {
	if f.delimiter == "" {
		return configError("delimiter", "", "the delimiter cannot be empty")
	}
	if strings.ContainsAny(f.delimiter, "\r\n") {
		return configError("delimiter", "", "the delimiter cannot be a line break")
	}
	for _, c := range []struct {
		name string
		r    rune
	}{
		{"quote", f.quote},
		{"escape", f.escape},
		{"comment marker", f.comment},
	} {
		if isLineBreak(c.r) {
			return configError(c.name, "", "the %s character cannot be a line break", c.name)
		}
	}

	if f.quote != 0 && strings.ContainsRune(f.delimiter, f.quote) {
		return configError("quote", "delimiter", "the quote character and the delimiter cannot be the same (%q)", f.quote)
	}
	if f.escape != 0 && strings.ContainsRune(f.delimiter, f.escape) {
		return configError("escape", "delimiter", "the escape character and the delimiter cannot be the same (%q)", f.escape)
	}
	if f.comment != 0 && strings.ContainsRune(f.delimiter, f.comment) {
		return configError("comment marker", "delimiter", "the comment marker and the delimiter cannot be the same (%q)", f.comment)
	}
	if f.quote != 0 && f.quote == f.escape {
		return configError("quote", "escape", "the quote character and the escape character cannot be the same (%q)", f.quote)
	}
	if f.comment != 0 && f.comment == f.quote {
		return configError("comment marker", "quote", "the comment marker and the quote character cannot be the same (%q)", f.comment)
	}
	if f.comment != 0 && f.comment == f.escape {
		return configError("comment marker", "escape", "the comment marker and the escape character cannot be the same (%q)", f.comment)
	}

	if f.quoteMode < QuoteMinimal || f.quoteMode > QuoteNone {
		return configError("quote mode", "", "unknown quote mode %d", int(f.quoteMode))
	}
	if f.quoteMode == QuoteNone && f.escape == 0 {
		return configError("quote mode", "escape", "quote mode set to NONE but no escape character is set")
	}
	if f.duplicateHeaderMode < DuplicateHeaderAllowAll || f.duplicateHeaderMode > DuplicateHeaderDisallow {
		return configError("duplicate header mode", "", "unknown duplicate header mode %d", int(f.duplicateHeaderMode))
	}

	if err := checkDuplicates(f.header, f.duplicateHeaderMode); err != nil {
		return &ConfigError{
			Option:  "header",
			With:    "duplicate header mode",
			Message: err.Error(),
			Err:     err,
		}
	}
	return nil
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}
