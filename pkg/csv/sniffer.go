package csv

import (
	"regexp"
	"strings"
	"unicode"
)

// candidateDelimiters are the delimiters a Sniffer chooses from.
var candidateDelimiters = []rune{',', '\t', ';', '|'}

var (
	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),       // snake_case or identifier
		regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),      // camelCase
		regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	}
)

// Sniffer detects the delimiter of a sample and whether it starts with a
// header.
type Sniffer struct {
	lines     []string
	delimiter rune
	found     bool
	hasHeader bool
	analyzed  bool
}

// NewSniffer creates a new Sniffer with a sample of CSV data.
// For best results, provide at least 2-3 lines of data.
func NewSniffer(sample string) *Sniffer {
	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		if line = strings.TrimSuffix(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return &Sniffer{lines: lines}
}

// Sniff guesses the format of sample: Default with the detected delimiter,
// reading the header from the first record when the first line looks like
// one. It reports false, with Default, when no candidate delimiter occurs
// in the sample.
func Sniff(sample string) (*Format, bool) {
	s := NewSniffer(sample)
	delim := s.DetectDelimiter()
	if !s.found {
		return Default, false
	}
	b := Default.Builder().SetDelimiter(string(delim))
	if s.HasHeader() {
		b.HeaderFromFirstRecord()
	}
	f, err := b.Build()
	if err != nil {
		return Default, false
	}
	return f, true
}

func (s *Sniffer) analyze() {
	if s.analyzed {
		return
	}
	s.delimiter, s.found = s.detectDelimiter()
	s.hasHeader = s.detectHeader()
	s.analyzed = true
}

// DetectDelimiter returns the detected field delimiter, ',' when none of
// the candidates (comma, tab, semicolon, pipe) occurs.
func (s *Sniffer) DetectDelimiter() rune {
	s.analyze()
	return s.delimiter
}

// HasHeader returns true if the first row appears to be a header.
func (s *Sniffer) HasHeader() bool {
	s.analyze()
	return s.hasHeader
}

// detectDelimiter scores each candidate by its count on the first line,
// multiplied tenfold when every line has the same count.
func (s *Sniffer) detectDelimiter() (rune, bool) {
	best := ','
	bestScore := 0
	for _, delim := range candidateDelimiters {
		if len(s.lines) == 0 {
			break
		}
		first := countDelimiter(s.lines[0], delim)
		if first == 0 {
			continue
		}
		score := first * 10
		for _, line := range s.lines[1:] {
			if countDelimiter(line, delim) != first {
				score = first
				break
			}
		}
		// Candidates are visited in order, so ties go to the earlier one.
		if score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best, bestScore > 0
}

// countDelimiter counts occurrences of a delimiter, ignoring quoted sections.
func countDelimiter(line string, delim rune) int {
	count := 0
	inQuotes := false
	for _, ch := range line {
		if ch == '"' {
			inQuotes = !inQuotes
		} else if ch == delim && !inQuotes {
			count++
		}
	}
	return count
}

// detectHeader uses heuristics to determine if first row is a header:
// headers are text that looks like names, data is numbers, emails, dates.
func (s *Sniffer) detectHeader() bool {
	if len(s.lines) < 2 {
		return false
	}

	headerScore := 0
	dataScore := 0
	for _, field := range splitByDelimiter(s.lines[0], s.delimiter) {
		field = strings.TrimSpace(strings.Trim(field, `"`))
		if isLikelyHeader(field) {
			headerScore++
		}
		if isLikelyData(field) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

// isLikelyHeader checks if a field looks like a header name.
func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isLikelyData checks if a field looks like data rather than a header.
func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isNumeric checks if a string represents a decimal number.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	hasDot := false
	for _, ch := range s {
		if ch == '.' {
			if hasDot {
				return false
			}
			hasDot = true
		} else if !unicode.IsDigit(ch) {
			return false
		}
	}
	return s != "."
}

// splitByDelimiter splits a line by delimiter, respecting quotes.
func splitByDelimiter(line string, delim rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case ch == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}
