package csv

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// FormatConfig is a dialect definition read from YAML. It names a
// predefined dialect to start from and overrides some of its settings;
// settings left out keep the base dialect's value.
//
//	base: Excel
//	delimiter: ";"
//	commentMarker: "#"
//	headerFromFirstRecord: true
//	nullString: '\N'
//
// Characters are written as one-character strings. An empty string
// disables the quote, escape or comment marker. Quote null strings such as
// NULL or ~, which YAML would otherwise read as null.
type FormatConfig struct {
	Base string `yaml:"base,omitempty"`

	Delimiter       *string `yaml:"delimiter,omitempty"`
	Quote           *string `yaml:"quote,omitempty"`
	Escape          *string `yaml:"escape,omitempty"`
	CommentMarker   *string `yaml:"commentMarker,omitempty"`
	RecordSeparator *string `yaml:"recordSeparator,omitempty"`
	NullString      *string `yaml:"nullString,omitempty"`
	QuoteMode       *string `yaml:"quoteMode,omitempty"`

	Header                *[]string `yaml:"header,omitempty"`
	HeaderFromFirstRecord *bool     `yaml:"headerFromFirstRecord,omitempty"`
	HeaderComments        []string  `yaml:"headerComments,omitempty"`
	DuplicateHeaderMode   *string   `yaml:"duplicateHeaderMode,omitempty"`

	IgnoreSurroundingSpaces *bool  `yaml:"ignoreSurroundingSpaces,omitempty"`
	IgnoreEmptyLines        *bool  `yaml:"ignoreEmptyLines,omitempty"`
	IgnoreHeaderCase        *bool  `yaml:"ignoreHeaderCase,omitempty"`
	Trim                    *bool  `yaml:"trim,omitempty"`
	TrailingDelimiter       *bool  `yaml:"trailingDelimiter,omitempty"`
	SkipHeaderRecord        *bool  `yaml:"skipHeaderRecord,omitempty"`
	AllowMissingColumnNames *bool  `yaml:"allowMissingColumnNames,omitempty"`
	LenientEOF              *bool  `yaml:"lenientEOF,omitempty"`
	AllowTrailingData       *bool  `yaml:"allowTrailingData,omitempty"`
	AutoFlush               *bool  `yaml:"autoFlush,omitempty"`
	MaxRows                 *int64 `yaml:"maxRows,omitempty"`
}

// LoadFormatConfig parses a YAML dialect definition. Empty input yields an
// empty config, which builds Default.
func LoadFormatConfig(data []byte) (*FormatConfig, error) {
	cfg := &FormatConfig{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("csv: failed to parse format config: %w", err)
	}
	return cfg, nil
}

// LoadFormat parses a YAML dialect definition and builds the Format.
func LoadFormat(data []byte) (*Format, error) {
	cfg, err := LoadFormatConfig(data)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// Build applies the overrides to the base dialect and validates the result.
func (c *FormatConfig) Build() (*Format, error) {
	base := Default
	if c.Base != "" {
		f, ok := Lookup(c.Base)
		if !ok {
			return nil, &ConfigError{Option: "base", Message: fmt.Sprintf("unknown dialect %q", c.Base)}
		}
		base = f
	}
	b := base.Builder()

	if c.Delimiter != nil {
		b.SetDelimiter(*c.Delimiter)
	}
	for _, ch := range []struct {
		option string
		value  *string
		set    func(rune) *Builder
	}{
		{"quote", c.Quote, b.SetQuote},
		{"escape", c.Escape, b.SetEscape},
		{"commentMarker", c.CommentMarker, b.SetCommentMarker},
	} {
		if ch.value == nil {
			continue
		}
		r, err := configRune(ch.option, *ch.value)
		if err != nil {
			return nil, err
		}
		ch.set(r)
	}
	if c.RecordSeparator != nil {
		b.SetRecordSeparator(*c.RecordSeparator)
	}
	if c.NullString != nil {
		b.SetNullString(*c.NullString)
	}
	if c.QuoteMode != nil {
		m, err := ParseQuoteMode(*c.QuoteMode)
		if err != nil {
			return nil, &ConfigError{Option: "quoteMode", Message: err.Error(), Err: err}
		}
		b.SetQuoteMode(m)
	}

	if c.HeaderFromFirstRecord != nil && *c.HeaderFromFirstRecord {
		b.HeaderFromFirstRecord()
	}
	if c.Header != nil {
		b.SetHeader(*c.Header...)
	}
	if c.HeaderComments != nil {
		b.SetHeaderComments(c.HeaderComments...)
	}
	if c.DuplicateHeaderMode != nil {
		m, err := ParseDuplicateHeaderMode(*c.DuplicateHeaderMode)
		if err != nil {
			return nil, &ConfigError{Option: "duplicateHeaderMode", Message: err.Error(), Err: err}
		}
		b.SetDuplicateHeaderMode(m)
	}

	for _, flag := range []struct {
		value *bool
		set   func(bool) *Builder
	}{
		{c.IgnoreSurroundingSpaces, b.SetIgnoreSurroundingSpaces},
		{c.IgnoreEmptyLines, b.SetIgnoreEmptyLines},
		{c.IgnoreHeaderCase, b.SetIgnoreHeaderCase},
		{c.Trim, b.SetTrim},
		{c.TrailingDelimiter, b.SetTrailingDelimiter},
		{c.SkipHeaderRecord, b.SetSkipHeaderRecord},
		{c.AllowMissingColumnNames, b.SetAllowMissingColumnNames},
		{c.LenientEOF, b.SetLenientEOF},
		{c.AllowTrailingData, b.SetAllowTrailingData},
		{c.AutoFlush, b.SetAutoFlush},
	} {
		if flag.value != nil {
			flag.set(*flag.value)
		}
	}
	if c.MaxRows != nil {
		b.SetMaxRows(*c.MaxRows)
	}
	return b.Build()
}

func configRune(option, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, &ConfigError{Option: option, Message: fmt.Sprintf("%s must be a single character, got %q", option, s)}
	}
	return r, nil
}
