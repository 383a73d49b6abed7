package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a counter value.
//
//	IncludeYear: PREFIX SEP YEAR SEP NUMBER  (V-2026-001)
//	otherwise:   PREFIX NUMBER               (it00007)
//
// The number is zero-padded to Padding digits and never truncated.
// An empty prefix drops its segment together with the leading separator.
func Format(s Settings, year int, num int64) string {
	padding := s.Padding
	if padding < 0 {
		padding = 0
	}
	digits := fmt.Sprintf("%0*d", padding, num)

	if !s.IncludeYear {
		return s.Prefix + digits
	}

	var b strings.Builder
	if s.Prefix != "" {
		b.WriteString(s.Prefix)
		b.WriteString(s.Separator)
	}
	b.WriteString(strconv.Itoa(year))
	b.WriteString(s.Separator)
	b.WriteString(digits)
	return b.String()
}

// ParseNumber extracts the numeric part of an identifier produced by Format with the same settings.
func ParseNumber(s Settings, formatted string) (int64, error) {
	rest, ok := strings.CutPrefix(formatted, s.Prefix)
	if !ok {
		return 0, fmt.Errorf("parse number %q: missing prefix %q", formatted, s.Prefix)
	}

	if s.IncludeYear {
		if s.Prefix != "" {
			if rest, ok = strings.CutPrefix(rest, s.Separator); !ok {
				return 0, fmt.Errorf("parse number %q: missing separator", formatted)
			}
		}
		if s.Separator == "" {
			// Without a separator the year is the leading four digits.
			if len(rest) <= 4 {
				return 0, fmt.Errorf("parse number %q: missing year", formatted)
			}
			rest = rest[4:]
		} else {
			year, tail, found := strings.Cut(rest, s.Separator)
			if !found || year == "" {
				return 0, fmt.Errorf("parse number %q: missing year", formatted)
			}
			rest = tail
		}
	}

	num, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", formatted, err)
	}
	return num, nil
}
