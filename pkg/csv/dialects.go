package csv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Predefined dialects. Each is derived from Default.
var (
	// Default is RFC 4180 with empty lines ignored: comma delimiter, double
	// quote, CRLF record separator.
	Default = &Format{
		delimiter:           ",",
		quote:               '"',
		recordSeparator:     "\r\n",
		ignoreEmptyLines:    true,
		duplicateHeaderMode: DuplicateHeaderAllowAll,
	}

	// RFC4180 is the format defined by RFC 4180: empty lines are records.
	RFC4180 = mustBuild(Default.Builder().
		SetIgnoreEmptyLines(false))

	// Excel is the format written by Microsoft Excel. Excel's locale may
	// change the delimiter, in which case derive a Builder from this one.
	Excel = mustBuild(Default.Builder().
		SetIgnoreEmptyLines(false).
		SetAllowMissingColumnNames(true))

	// InformixUnload is the format of the Informix UNLOAD TO statement.
	InformixUnload = mustBuild(Default.Builder().
		SetDelimiter("|").
		SetEscape('\\').
		SetQuote('"').
		SetRecordSeparator("\n"))

	// InformixUnloadCSV is the format of UNLOAD TO with the CSV option.
	InformixUnloadCSV = mustBuild(Default.Builder().
		SetDelimiter(",").
		SetQuote('"').
		SetRecordSeparator("\n"))

	// MongoDBCSV is the format of mongoexport --type=csv. Quotes inside
	// values are doubled.
	MongoDBCSV = mustBuild(Default.Builder().
		SetDelimiter(",").
		SetQuote('"').
		SetQuoteMode(QuoteMinimal).
		SetSkipHeaderRecord(false))

	// MongoDBTSV is the tab-delimited variant of MongoDBCSV.
	MongoDBTSV = mustBuild(Default.Builder().
		SetDelimiter("\t").
		SetQuote('"').
		SetQuoteMode(QuoteMinimal).
		SetSkipHeaderRecord(false))

	// MySQL is the format of SELECT INTO OUTFILE and LOAD DATA INFILE: tab
	// delimited, backslash escaped, unquoted, with \N as null.
	MySQL = mustBuild(Default.Builder().
		SetDelimiter("\t").
		SetEscape('\\').
		SetIgnoreEmptyLines(false).
		SetQuote(0).
		SetRecordSeparator("\n").
		SetNullString(`\N`).
		SetQuoteMode(QuoteAllNonNull))

	// Oracle is the format of SQL*Loader with optionally enclosed fields.
	Oracle = mustBuild(Default.Builder().
		SetDelimiter(",").
		SetEscape('\\').
		SetIgnoreEmptyLines(false).
		SetQuote('"').
		SetNullString(`\N`).
		SetTrim(true).
		SetRecordSeparator("\n").
		SetQuoteMode(QuoteMinimal))

	// PostgreSQLCSV is the format of COPY ... WITH (FORMAT csv).
	PostgreSQLCSV = mustBuild(Default.Builder().
		SetDelimiter(",").
		SetEscape(0).
		SetIgnoreEmptyLines(false).
		SetQuote('"').
		SetRecordSeparator("\n").
		SetNullString("").
		SetQuoteMode(QuoteAllNonNull))

	// PostgreSQLText is the format of COPY ... WITH (FORMAT text).
	PostgreSQLText = mustBuild(Default.Builder().
		SetDelimiter("\t").
		SetEscape('\\').
		SetIgnoreEmptyLines(false).
		SetQuote(0).
		SetRecordSeparator("\n").
		SetNullString(`\N`).
		SetQuoteMode(QuoteAllNonNull))

	// TDF is tab-delimited text with surrounding spaces ignored.
	TDF = mustBuild(Default.Builder().
		SetDelimiter("\t").
		SetIgnoreSurroundingSpaces(true))
)

var dialects = []struct {
	name   string
	format *Format
}{
	{"Default", Default},
	{"Excel", Excel},
	{"InformixUnload", InformixUnload},
	{"InformixUnloadCSV", InformixUnloadCSV},
	{"MongoDBCSV", MongoDBCSV},
	{"MongoDBTSV", MongoDBTSV},
	{"MySQL", MySQL},
	{"Oracle", Oracle},
	{"PostgreSQLCSV", PostgreSQLCSV},
	{"PostgreSQLText", PostgreSQLText},
	{"RFC4180", RFC4180},
	{"TDF", TDF},
}

// Lookup returns the predefined dialect called name, ignoring case.
func Lookup(name string) (*Format, bool) {
	for _, d := range dialects {
		if strings.EqualFold(d.name, name) {
			return d.format, true
		}
	}
	return nil, false
}

// Dialects returns the names of the predefined dialects.
func Dialects() []string {
	names := make([]string, len(dialects))
	for i, d := range dialects {
		names[i] = d.name
	}
	return names
}

func mustBuild(b *Builder) *Format {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// ParseFormatDescription builds the Format described by s, which has the
// form returned by Format.String. Settings the description omits take their
// zero value: no quote, no escape, no record separator.
func ParseFormatDescription(s string) (*Format, error) {
	b := &Builder{f: Format{delimiter: ","}}

	rest := s
	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		end := strings.IndexAny(rest, "=:")
		if end <= 0 {
			return nil, fmt.Errorf("csv: malformed format description at %q", rest)
		}
		key, sep := rest[:end], rest[end]
		rest = rest[end+1:]

		var value string
		var err error
		switch {
		case sep == '=' && strings.HasPrefix(rest, `"`):
			value, rest, err = cutQuoted(rest)
		case sep == '=':
			value, rest, err = cutAngled(rest)
		case strings.HasPrefix(rest, "["):
			value, rest, err = cutBracketed(rest)
		default:
			value, rest, _ = strings.Cut(rest, " ")
		}
		if err != nil {
			return nil, fmt.Errorf("csv: malformed %s in format description: %w", key, err)
		}
		if err := applyDescription(b, key, value); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// cutAngled splits "<value> rest". The value ends at the first '>' that is
// followed by a space or ends the input.
func cutAngled(s string) (value, rest string, err error) {
	if !strings.HasPrefix(s, "<") {
		return "", s, fmt.Errorf("expected '<'")
	}
	s = s[1:]
	if i := strings.Index(s, "> "); i >= 0 {
		return s[:i], s[i+2:], nil
	}
	if strings.HasSuffix(s, ">") {
		return s[:len(s)-1], "", nil
	}
	return "", s, fmt.Errorf("missing '>'")
}

// cutQuoted splits a Go-quoted value from the rest of s.
func cutQuoted(s string) (value, rest string, err error) {
	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return "", s, err
	}
	value, err = strconv.Unquote(quoted)
	if err != nil {
		return "", s, err
	}
	return value, s[len(quoted):], nil
}

// cutBracketed splits "[...] rest", leaving the brackets on value. Items
// are Go-quoted, so a ']' inside one does not end the list.
func cutBracketed(s string) (value, rest string, err error) {
	i := 1
	for i < len(s) && s[i] != ']' {
		quoted, err := strconv.QuotedPrefix(s[i:])
		if err != nil {
			return "", s, err
		}
		i += len(quoted)
		if strings.HasPrefix(s[i:], ", ") {
			i += 2
		}
	}
	if i >= len(s) {
		return "", s, fmt.Errorf("missing ']'")
	}
	return s[:i+1], s[i+1:], nil
}

func applyDescription(b *Builder, key, value string) error {
	single := func() (rune, error) {
		r, size := utf8.DecodeRuneInString(value)
		if size == 0 || size != len(value) {
			return 0, fmt.Errorf("csv: %s must be a single character, got %q", key, value)
		}
		return r, nil
	}

	switch key {
	case "Delimiter":
		b.SetDelimiter(value)
	case "Escape", "QuoteChar", "CommentStart":
		r, err := single()
		if err != nil {
			return err
		}
		switch key {
		case "Escape":
			b.SetEscape(r)
		case "QuoteChar":
			b.SetQuote(r)
		default:
			b.SetCommentMarker(r)
		}
	case "QuoteMode":
		m, err := ParseQuoteMode(value)
		if err != nil {
			return err
		}
		b.SetQuoteMode(m)
	case "NullString":
		b.SetNullString(value)
	case "RecordSeparator":
		b.SetRecordSeparator(value)
	case "EmptyLines":
		b.SetIgnoreEmptyLines(value == "ignored")
	case "SurroundingSpaces":
		b.SetIgnoreSurroundingSpaces(value == "ignored")
	case "IgnoreHeaderCase":
		b.SetIgnoreHeaderCase(value == "ignored")
	case "Trim":
		b.SetTrim(value == "true")
	case "TrailingDelimiter":
		b.SetTrailingDelimiter(value == "true")
	case "MissingColumnNames":
		b.SetAllowMissingColumnNames(value == "allowed")
	case "DuplicateHeaderMode":
		m, err := ParseDuplicateHeaderMode(value)
		if err != nil {
			return err
		}
		b.SetDuplicateHeaderMode(m)
	case "LenientEOF":
		b.SetLenientEOF(value == "true")
	case "TrailingData":
		b.SetAllowTrailingData(value == "allowed")
	case "AutoFlush":
		b.SetAutoFlush(value == "true")
	case "MaxRows":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("csv: invalid MaxRows %q: %w", value, err)
		}
		b.SetMaxRows(n)
	case "SkipHeaderRecord":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("csv: invalid SkipHeaderRecord %q: %w", value, err)
		}
		b.SetSkipHeaderRecord(v)
	case "HeaderComments", "Header":
		items, err := parseQuotedList(value)
		if err != nil {
			return fmt.Errorf("csv: invalid %s %s: %w", key, value, err)
		}
		if key == "Header" {
			b.SetHeader(items...)
		} else {
			b.SetHeaderComments(items...)
		}
	default:
		return fmt.Errorf("csv: unknown setting %q in format description", key)
	}
	return nil
}

// parseQuotedList reads a list written by writeQuotedList.
func parseQuotedList(s string) ([]string, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("expected brackets")
	}
	s = s[1 : len(s)-1]
	var items []string
	for s != "" {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return nil, err
		}
		item, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		s = strings.TrimPrefix(s[len(quoted):], ", ")
	}
	return items, nil
}
