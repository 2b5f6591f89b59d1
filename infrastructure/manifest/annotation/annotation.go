// Package annotation parses "treeupdt:" directives out of manifest comments.
// A directive is a comma-separated list of key=value pairs; a key without a
// value is a boolean flag stored as "true". Values may be single- or
// double-quoted to protect commas and equals signs.
package annotation

import (
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
)

const marker = "treeupdt:"

// Parse extracts a directive from a comment body. Returns nil when the
// comment carries no marker or the directive has no usable pairs.
func Parse(comment string, line int) *domain.Annotation {
	idx := strings.Index(comment, marker)
	if idx < 0 {
		return nil
	}
	options := ParsePairs(comment[idx+len(marker):])
	if len(options) == 0 {
		return nil
	}
	return &domain.Annotation{Line: line, Options: options}
}

// comment markers in priority order; the first one that yields a directive
// wins, regardless of position in the line
var lineMarkers = []string{"#", "//", "--"}

// FromLine isolates the comment portion of a mixed code+comment line and
// parses it. Block comments require their closing marker on the same line.
func FromLine(line string, lineNumber int) *domain.Annotation {
	for _, m := range lineMarkers {
		idx := strings.Index(line, m)
		if idx < 0 {
			continue
		}
		if a := Parse(line[idx:], lineNumber); a != nil {
			return a
		}
	}

	if start := strings.Index(line, "/*"); start >= 0 {
		if end := strings.Index(line[start:], "*/"); end >= 0 {
			if a := Parse(line[start:start+end], lineNumber); a != nil {
				return a
			}
		}
	}
	return nil
}

// ParsePairs parses the bare pair grammar without the marker. Exposed for
// carriers that scope the directive some other way (the package.json
// "treeupdt" object).
func ParsePairs(s string) map[string]string {
	options := make(map[string]string)

	var key, value strings.Builder
	inValue := false
	inQuotes := false
	var quoteChar byte

	flush := func() {
		k := strings.TrimSpace(key.String())
		if k == "" {
			key.Reset()
			value.Reset()
			inValue = false
			return
		}
		if !inValue {
			options[k] = "true"
		} else if v := strings.TrimSpace(value.String()); v != "" {
			options[k] = v
		}
		key.Reset()
		value.Reset()
		inValue = false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuotes:
			if c == quoteChar {
				inQuotes = false
			} else if inValue {
				value.WriteByte(c)
			} else {
				key.WriteByte(c)
			}
		case c == '\'' || c == '"':
			inQuotes = true
			quoteChar = c
		case c == '=' && !inValue:
			inValue = true
		case c == ',':
			flush()
		default:
			if inValue {
				value.WriteByte(c)
			} else {
				key.WriteByte(c)
			}
		}
	}
	flush()

	if len(options) == 0 {
		return nil
	}
	return options
}
