package udm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Canonical Scalar Encoding
// ============================================================

// canonNumber returns the canonical lexical form of a number. Integral
// values print without a decimal point; other values use the shortest
// decimal representation that round-trips. Scientific notation is used
// only outside the plain-decimal magnitude range, so re-serialization
// never changes precision.
func canonNumber(f float64, isInt bool) string {
	if isInt {
		return strconv.FormatInt(int64(f), 10)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		return strings.ReplaceAll(s, "E", "e")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseNumberLexeme parses a JSON-style number lexeme, reporting whether
// it denotes an integral value.
func parseNumberLexeme(lexeme string) (float64, bool, error) {
	if lexeme == "" {
		return 0, false, fmt.Errorf("udm: empty number lexeme")
	}
	f, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0, false, fmt.Errorf("udm: invalid number %q", lexeme)
	}
	isInt := !strings.ContainsAny(lexeme, ".eE") && f == math.Trunc(f)
	return f, isInt, nil
}

// ============================================================
// Temporal Lexical Forms
// ============================================================

var temporalLayouts = map[Kind][]string{
	KindDateTime: {
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999Z",
		"2006-01-02T15:04:05Z",
	},
	KindDate: {
		"2006-01-02",
	},
	KindLocalDateTime: {
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	},
	KindTime: {
		"15:04:05.999999999",
		"15:04:05",
		"15:04",
	},
}

// parseTemporal validates an ISO-8601 lexical form for the given temporal
// kind and returns the parsed instant.
func parseTemporal(kind Kind, lexeme string) (time.Time, error) {
	for _, layout := range temporalLayouts[kind] {
		if t, err := time.Parse(layout, lexeme); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("udm: invalid %s lexical form %q", kind, lexeme)
}

// temporalTag returns the tagged-literal name for a temporal kind.
func temporalTag(kind Kind) string {
	switch kind {
	case KindDateTime:
		return "DateTime"
	case KindDate:
		return "Date"
	case KindLocalDateTime:
		return "LocalDateTime"
	case KindTime:
		return "Time"
	}
	return ""
}

// ============================================================
// Keys and Strings
// ============================================================

// isBareKey reports whether a key can be emitted without quotes:
// [A-Za-z_][A-Za-z0-9_-]*, excluding the literal keywords, which would
// lex as their token instead of an identifier.
func isBareKey(s string) bool {
	switch s {
	case "", "true", "false", "null":
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// quoteString returns a quoted UDM string literal. Control characters,
// quotes and backslashes are escaped; everything else is emitted literally
// as UTF-8 to keep output human-readable.
func quoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 {
				sb.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
