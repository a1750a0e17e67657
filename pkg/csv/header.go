package csv

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// DuplicateHeaderMode controls which repeated header names are accepted.
type DuplicateHeaderMode int

const (
	// DuplicateHeaderAllowAll accepts any repeated name.
	DuplicateHeaderAllowAll DuplicateHeaderMode = iota
	// DuplicateHeaderAllowEmpty accepts repeats among blank names only.
	DuplicateHeaderAllowEmpty
	// DuplicateHeaderDisallow rejects any repeated name.
	DuplicateHeaderDisallow
)

var duplicateHeaderModeNames = [...]string{
	DuplicateHeaderAllowAll:   "ALLOW_ALL",
	DuplicateHeaderAllowEmpty: "ALLOW_EMPTY",
	DuplicateHeaderDisallow:   "DISALLOW",
}

// String returns the name of the mode.
func (m DuplicateHeaderMode) String() string {
	if m >= 0 && int(m) < len(duplicateHeaderModeNames) {
		return duplicateHeaderModeNames[m]
	}
	return fmt.Sprintf("DuplicateHeaderMode(%d)", int(m))
}

// ParseDuplicateHeaderMode returns the mode named s, ignoring case.
func ParseDuplicateHeaderMode(s string) (DuplicateHeaderMode, error) {
	for m, name := range duplicateHeaderModeNames {
		if strings.EqualFold(name, s) {
			return DuplicateHeaderMode(m), nil
		}
	}
	return DuplicateHeaderAllowAll, fmt.Errorf("csv: unknown duplicate header mode %q", s)
}

// headerMap maps column names to indexes. It is shared, read-only, by every
// record of one Parser.
type headerMap struct {
	index   map[string]int
	names   []string
	columns int
	caser   *cases.Caser
}

// newHeaderMap maps header, whose null entries are flagged in nulls, under
// the policies of f.
func newHeaderMap(f *Format, header []string, nulls []bool) (*headerMap, error) {
	h := &headerMap{
		index:   make(map[string]int, len(header)),
		names:   make([]string, 0, len(header)),
		columns: len(header),
	}
	if f.ignoreHeaderCase {
		caser := cases.Fold()
		h.caser = &caser
	}

	for i, name := range header {
		isNull := i < len(nulls) && nulls[i]
		blank := isNull || isBlank(name)
		if blank && !f.allowMissingColumnNames {
			return nil, &HeaderError{Name: name, Header: header, Err: ErrMissingColumnName}
		}
		if isNull {
			continue
		}

		_, seen := h.index[h.key(name)]
		if seen && !duplicateAllowed(f.duplicateHeaderMode, blank) {
			return nil, &HeaderError{Name: name, Header: header, Err: ErrDuplicateHeader}
		}
		h.index[h.key(name)] = i
		h.names = append(h.names, name)
	}
	return h, nil
}

// lookup returns the index of the last column called name.
func (h *headerMap) lookup(name string) (int, bool) {
	i, ok := h.index[h.key(name)]
	return i, ok
}

func (h *headerMap) key(name string) string {
	if h.caser == nil {
		return name
	}
	return h.caser.String(name)
}

func duplicateAllowed(mode DuplicateHeaderMode, blank bool) bool {
	switch mode {
	case DuplicateHeaderAllowAll:
		return true
	case DuplicateHeaderAllowEmpty:
		return blank
	default:
		return false
	}
}

// checkDuplicates validates an explicit header against mode.
func checkDuplicates(header []string, mode DuplicateHeaderMode) error {
	if mode == DuplicateHeaderAllowAll {
		return nil
	}
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, dup := seen[name]; dup && !duplicateAllowed(mode, isBlank(name)) {
			return &HeaderError{Name: name, Header: header, Err: ErrDuplicateHeader}
		}
		seen[name] = struct{}{}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// structHeader returns the column names of the struct type of v. A field
// is named by the first element of its csv tag, or by its Go name; fields
// tagged "-" and unexported fields are skipped.
func structHeader(v any) ([]string, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("csv: HeaderFromStruct(nil)")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csv: HeaderFromStruct requires a struct type, got %s", t.Kind())
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := field.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		name := field.Name
		if tagName, _, _ := strings.Cut(tag, ","); tagName != "" {
			name = tagName
		}
		names = append(names, name)
	}
	return names, nil
}
