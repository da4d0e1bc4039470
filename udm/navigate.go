package udm

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// PathError represents a syntactically malformed path expression. A path
// that is well-formed but resolves to nothing is not an error; it yields
// the absent outcome instead.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("udm: invalid path %q: %s", e.Path, e.Message)
}

// inputPrefix is the transformation-language sigil stripped before
// resolution, so "$input.a.b" and "a.b" address the same value.
const inputPrefix = "$input"

// segment is one step of a parsed path expression.
type segment struct {
	name    string
	attr    bool
	indexes []int
}

// parsePath splits a path expression into segments, respecting bracket
// and @ boundaries.
func parsePath(path string) ([]segment, error) {
	fail := func(format string, args ...any) ([]segment, error) {
		return nil, &PathError{Path: path, Message: fmt.Sprintf(format, args...)}
	}

	if path == "" {
		return fail("path must not be empty")
	}

	rest := path
	if rest == inputPrefix {
		return nil, nil
	}
	if strings.HasPrefix(rest, inputPrefix+".") {
		rest = rest[len(inputPrefix)+1:]
		if rest == "" {
			return fail("missing segment after %s.", inputPrefix)
		}
	}

	var segs []segment
	for _, raw := range splitSegments(rest) {
		if raw == "" {
			return fail("empty path segment")
		}

		var seg segment
		s := raw
		if s[0] == '@' {
			seg.attr = true
			s = s[1:]
			if s == "" {
				return fail("attribute segment missing a name")
			}
		}

		bracket := strings.IndexByte(s, '[')
		if bracket < 0 {
			seg.name = s
		} else {
			seg.name = s[:bracket]
			idxPart := s[bracket:]
			for idxPart != "" {
				if idxPart[0] != '[' {
					return fail("unexpected %q after index", idxPart)
				}
				closing := strings.IndexByte(idxPart, ']')
				if closing < 0 {
					return fail("unterminated index in segment %q", raw)
				}
				digits := idxPart[1:closing]
				n, err := strconv.Atoi(digits)
				if err != nil || n < 0 || digits == "" {
					return fail("index must be a non-negative integer, got %q", digits)
				}
				seg.indexes = append(seg.indexes, n)
				idxPart = idxPart[closing+1:]
			}
		}

		if seg.attr && len(seg.indexes) > 0 {
			return fail("attribute segment %q cannot be indexed", raw)
		}
		if seg.name == "" && len(seg.indexes) == 0 {
			return fail("empty path segment")
		}
		if strings.ContainsAny(seg.name, "[]") {
			return fail("malformed segment %q", raw)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// splitSegments splits on dots outside brackets.
func splitSegments(path string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				parts = append(parts, path[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, path[start:])
	return parts
}

// Resolve returns the value addressed by a path expression, or (nil, nil)
// when the path is well-formed but nothing is there. Attribute segments
// resolve from the attribute namespace and yield the attribute text as a
// string scalar.
//
// The reserved words "properties" and "attributes" cannot locate data:
// the parser consumed them as grammar structure, so they never exist as
// property keys in a parsed tree.
func Resolve(root *Value, path string) (*Value, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	cur := root
	for _, seg := range segs {
		if cur == nil {
			return nil, nil
		}

		if seg.attr {
			val, ok := cur.GetAttribute(seg.name)
			if !ok {
				return nil, nil
			}
			cur = String(val)
			continue
		}

		if seg.name != "" {
			if !cur.IsObject() {
				return nil, nil
			}
			cur = cur.Get(seg.name)
			if cur == nil {
				return nil, nil
			}
		}

		for _, idx := range seg.indexes {
			if !cur.IsArray() {
				return nil, nil
			}
			cur = cur.Index(idx)
			if cur == nil {
				return nil, nil
			}
		}
	}
	return cur, nil
}

// GetAllPaths returns every resolvable path in the tree, in document
// order. Attribute paths (in @ form) are included when includeAttributes
// is set. For parsed documents the result never contains a segment equal
// to the literal words "properties" or "attributes".
func GetAllPaths(root *Value, includeAttributes bool) []string {
	var paths []string
	var walk func(v *Value, prefix string)
	walk = func(v *Value, prefix string) {
		switch v.Kind() {
		case KindObject:
			if includeAttributes {
				for _, a := range v.Attrs() {
					paths = append(paths, joinAttr(prefix, a.Key))
				}
			}
			for _, p := range v.Props() {
				child := joinProp(prefix, p.Key)
				paths = append(paths, child)
				walk(p.Value, child)
			}
		case KindArray:
			for i, elem := range v.Elems() {
				child := fmt.Sprintf("%s[%d]", prefix, i)
				paths = append(paths, child)
				walk(elem, child)
			}
		}
	}
	walk(root, "")
	return paths
}

func joinProp(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func joinAttr(prefix, key string) string {
	if prefix == "" {
		return "@" + key
	}
	return prefix + ".@" + key
}

// GetScalarValue resolves a path and returns the lexical string form of
// the value found there: strings as-is, numbers by their lexeme, booleans
// as true/false, null as "null", temporal values by their ISO form and
// binary values by their encoded payload. Containers, lambdas, malformed
// paths and absent paths all yield ("", false).
func GetScalarValue(root *Value, path string) (string, bool) {
	v, err := Resolve(root, path)
	if err != nil || v == nil {
		return "", false
	}

	switch v.kind {
	case KindScalar:
		switch v.scalar {
		case ScalarNull:
			return "null", true
		case ScalarBool:
			if v.boolVal {
				return "true", true
			}
			return "false", true
		case ScalarNumber:
			return v.lexeme, true
		case ScalarString:
			return v.strVal, true
		}
	case KindDateTime, KindDate, KindLocalDateTime, KindTime:
		return v.lexeme, true
	case KindBinary:
		if v.encoding == EncodingHex {
			return hex.EncodeToString(v.bytesVal), true
		}
		return base64.StdEncoding.EncodeToString(v.bytesVal), true
	}
	return "", false
}
