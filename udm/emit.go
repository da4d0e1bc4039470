package udm

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
)

// Options configures the UDM Language serializer.
type Options struct {
	// Pretty adds newlines and indentation per nesting depth.
	Pretty bool

	// Indent string for pretty mode (default: two spaces).
	Indent string

	// Header emits the @udm-version directive and a blank line.
	Header bool

	// Version emitted in the header (default: "1.0").
	Version string
}

// DefaultOptions returns the compact defaults with a header.
func DefaultOptions() Options {
	return Options{Header: true, Version: "1.0", Indent: "  "}
}

// PrettyOptions returns pretty-printing defaults with a header.
func PrettyOptions() Options {
	return Options{Pretty: true, Header: true, Version: "1.0", Indent: "  "}
}

// Serialize renders a value tree as compact UDM Language text.
// Serialization is a pure function of the tree: property order is
// insertion order and nothing is sorted, so equal trees always produce
// identical text.
func Serialize(v *Value) string {
	return SerializeWithOptions(v, DefaultOptions())
}

// SerializePretty renders a value tree as indented UDM Language text.
// Pretty and compact output parse back to identical trees.
func SerializePretty(v *Value) string {
	return SerializeWithOptions(v, PrettyOptions())
}

// SerializeWithOptions renders a value tree with custom options.
func SerializeWithOptions(v *Value, opts Options) string {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	e := &emitter{opts: opts}
	if opts.Header {
		e.sb.WriteString(headerPrefix)
		e.sb.WriteString(" ")
		e.sb.WriteString(opts.Version)
		e.sb.WriteString("\n\n")
	}
	e.emit(v, 0)
	return e.sb.String()
}

type emitter struct {
	sb   strings.Builder
	opts Options
}

func (e *emitter) emit(v *Value, depth int) {
	if v == nil {
		e.sb.WriteString("null")
		return
	}

	switch v.kind {
	case KindScalar:
		e.emitScalar(v)

	case KindArray:
		e.emitArray(v, depth)

	case KindObject:
		e.emitObject(v, depth)

	case KindDateTime, KindDate, KindLocalDateTime, KindTime:
		e.sb.WriteString("@")
		e.sb.WriteString(temporalTag(v.kind))
		e.sb.WriteString("(")
		e.sb.WriteString(quoteString(v.lexeme))
		e.sb.WriteString(")")

	case KindBinary:
		var payload string
		if v.encoding == EncodingHex {
			payload = hex.EncodeToString(v.bytesVal)
		} else {
			payload = base64.StdEncoding.EncodeToString(v.bytesVal)
		}
		e.sb.WriteString("@Binary(encoding: ")
		e.sb.WriteString(quoteString(v.encoding.String()))
		e.sb.WriteString(", size: ")
		e.sb.WriteString(strconv.Itoa(v.declSize))
		e.sb.WriteString(", data: ")
		e.sb.WriteString(quoteString(payload))
		e.sb.WriteString(")")

	case KindLambda:
		e.sb.WriteString("@Lambda(id: ")
		e.sb.WriteString(quoteString(v.lambdaID))
		e.sb.WriteString(", arity: ")
		e.sb.WriteString(strconv.Itoa(v.arity))
		e.sb.WriteString(")")
	}
}

func (e *emitter) emitScalar(v *Value) {
	switch v.scalar {
	case ScalarNull:
		e.sb.WriteString("null")
	case ScalarBool:
		if v.boolVal {
			e.sb.WriteString("true")
		} else {
			e.sb.WriteString("false")
		}
	case ScalarNumber:
		e.sb.WriteString(v.lexeme)
	case ScalarString:
		e.sb.WriteString(quoteString(v.strVal))
	}
}

func (e *emitter) emitArray(v *Value, depth int) {
	if len(v.elems) == 0 {
		e.sb.WriteString("[]")
		return
	}

	e.sb.WriteString("[")
	for i, elem := range v.elems {
		if i > 0 {
			e.sb.WriteString(",")
			if !e.opts.Pretty {
				e.sb.WriteString(" ")
			}
		}
		if e.opts.Pretty {
			e.sb.WriteString("\n")
			e.writeIndent(depth + 1)
		}
		e.emit(elem, depth+1)
	}
	if e.opts.Pretty {
		e.sb.WriteString("\n")
		e.writeIndent(depth)
	}
	e.sb.WriteString("]")
}

// emitObject chooses the shorthand form when the object carries no
// attributes, name or metadata, and the full form with reserved sections
// otherwise.
func (e *emitter) emitObject(v *Value, depth int) {
	if len(v.attrs) == 0 && v.name == "" && len(v.meta) == 0 {
		e.emitProps(v.props, depth)
		return
	}

	// Annotation carries the name, and the metadata when a name exists.
	metaInline := v.meta
	if v.name != "" {
		e.sb.WriteString("@")
		e.emitName(v.name)
		if len(v.meta) > 0 {
			e.sb.WriteString("(metadata: ")
			e.emitAttrSection(v.meta)
			e.sb.WriteString(")")
		}
		e.sb.WriteString(" ")
		metaInline = nil
	}

	e.sb.WriteString("{")
	first := true
	sep := func() {
		if !first {
			e.sb.WriteString(",")
			if !e.opts.Pretty {
				e.sb.WriteString(" ")
			}
		}
		first = false
		if e.opts.Pretty {
			e.sb.WriteString("\n")
			e.writeIndent(depth + 1)
		}
	}

	if len(v.attrs) > 0 {
		sep()
		e.sb.WriteString("attributes: ")
		e.emitAttrSection(v.attrs)
	}
	if len(metaInline) > 0 {
		sep()
		e.sb.WriteString("metadata: ")
		e.emitAttrSection(metaInline)
	}
	// The properties section is always present so the parser folds even a
	// name-only object through the full-form grammar.
	sep()
	e.sb.WriteString("properties: ")
	e.emitProps(v.props, depth+1)

	if e.opts.Pretty {
		e.sb.WriteString("\n")
		e.writeIndent(depth)
	}
	e.sb.WriteString("}")
}

// emitProps renders an ordered property list as a shorthand object body.
func (e *emitter) emitProps(props []Prop, depth int) {
	if len(props) == 0 {
		e.sb.WriteString("{}")
		return
	}

	e.sb.WriteString("{")
	for i, p := range props {
		if i > 0 {
			e.sb.WriteString(",")
			if !e.opts.Pretty {
				e.sb.WriteString(" ")
			}
		}
		if e.opts.Pretty {
			e.sb.WriteString("\n")
			e.writeIndent(depth + 1)
		}
		e.emitKey(p.Key)
		e.sb.WriteString(": ")
		e.emit(p.Value, depth+1)
	}
	if e.opts.Pretty {
		e.sb.WriteString("\n")
		e.writeIndent(depth)
	}
	e.sb.WriteString("}")
}

// emitAttrSection renders an attribute or metadata map inline.
func (e *emitter) emitAttrSection(attrs []Attr) {
	if len(attrs) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteString("{")
	for i, a := range attrs {
		if i > 0 {
			e.sb.WriteString(", ")
		}
		e.emitKey(a.Key)
		e.sb.WriteString(": ")
		e.sb.WriteString(quoteString(a.Value))
	}
	e.sb.WriteString("}")
}

// emitName renders an element name after @. Names colliding with a tagged
// literal, or containing characters outside the bare identifier set
// (XML "ns:element"), are quoted.
func (e *emitter) emitName(name string) {
	_, isTag := taggedLiterals[name]
	if isBareKey(name) && !isTag && name != "Binary" && name != "Lambda" {
		e.sb.WriteString(name)
	} else {
		e.sb.WriteString(quoteString(name))
	}
}

func (e *emitter) emitKey(key string) {
	if isBareKey(key) {
		e.sb.WriteString(key)
	} else {
		e.sb.WriteString(quoteString(key))
	}
}

func (e *emitter) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}
