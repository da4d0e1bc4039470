package udm

import (
	"fmt"
	"math"
	"time"
)

// Kind represents UDM value kinds.
type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindObject
	KindDateTime
	KindDate
	KindLocalDateTime
	KindTime
	KindBinary
	KindLambda
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindDateTime:
		return "datetime"
	case KindDate:
		return "date"
	case KindLocalDateTime:
		return "local-datetime"
	case KindTime:
		return "time"
	case KindBinary:
		return "binary"
	case KindLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// ScalarType represents the primitive carried by a scalar value.
type ScalarType uint8

const (
	ScalarNull ScalarType = iota
	ScalarBool
	ScalarNumber
	ScalarString
)

// String returns the scalar type name.
func (t ScalarType) String() string {
	switch t {
	case ScalarNull:
		return "null"
	case ScalarBool:
		return "boolean"
	case ScalarNumber:
		return "number"
	case ScalarString:
		return "string"
	default:
		return "unknown"
	}
}

// BinaryEncoding identifies the textual encoding of a binary payload.
type BinaryEncoding uint8

const (
	EncodingBase64 BinaryEncoding = iota
	EncodingHex
)

// String returns the encoding name as it appears in UDM Language text.
func (e BinaryEncoding) String() string {
	if e == EncodingHex {
		return "hex"
	}
	return "base64"
}

// Prop is a key-value pair in an object's ordered property list.
type Prop struct {
	Key   string
	Value *Value
}

// Attr is an entry in an object's attribute or metadata list.
type Attr struct {
	Key   string
	Value string
}

// Position represents a source location in UDM Language text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Value represents a UDM value. Values are immutable once constructed;
// transformations build new trees rather than mutating in place.
type Value struct {
	kind Kind

	// Scalar payload (only one valid based on scalar type)
	scalar  ScalarType
	boolVal bool
	numVal  float64
	numInt  bool
	lexeme  string // source lexical form for numbers and temporal values
	strVal  string

	// Container payloads
	elems []*Value
	props []Prop
	attrs []Attr
	name  string
	meta  []Attr

	// Temporal payload
	timeVal time.Time

	// Binary payload
	bytesVal []byte
	encoding BinaryEncoding
	declSize int

	// Lambda payload
	lambdaID string
	arity    int

	// Source location for error reporting (set by the parser)
	pos Position
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null scalar.
func Null() *Value {
	return &Value{kind: KindScalar, scalar: ScalarNull}
}

// Bool creates a boolean scalar.
func Bool(v bool) *Value {
	return &Value{kind: KindScalar, scalar: ScalarBool, boolVal: v}
}

// String creates a string scalar.
func String(v string) *Value {
	return &Value{kind: KindScalar, scalar: ScalarString, strVal: v}
}

// Number creates a number scalar from a float64. The lexical form is the
// shortest decimal representation that round-trips. NaN and infinities
// have no lexical form and are rejected.
func Number(v float64) (*Value, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("udm: number must be finite, got %v", v)
	}
	isInt := v == float64(int64(v)) && v >= -1e15 && v <= 1e15
	return &Value{
		kind:   KindScalar,
		scalar: ScalarNumber,
		numVal: v,
		numInt: isInt,
		lexeme: canonNumber(v, isInt),
	}, nil
}

// Int creates a number scalar from an int64.
func Int(v int64) *Value {
	return &Value{
		kind:   KindScalar,
		scalar: ScalarNumber,
		numVal: float64(v),
		numInt: true,
		lexeme: fmt.Sprintf("%d", v),
	}
}

// NumberFromString creates a number scalar that preserves its source
// lexeme, so serialization reproduces the original spelling (28 stays 28,
// 1e9 stays 1e9).
func NumberFromString(lexeme string) (*Value, error) {
	f, isInt, err := parseNumberLexeme(lexeme)
	if err != nil {
		return nil, err
	}
	return &Value{
		kind:   KindScalar,
		scalar: ScalarNumber,
		numVal: f,
		numInt: isInt,
		lexeme: lexeme,
	}, nil
}

// Scalar creates a scalar from an arbitrary Go value. Only string, bool,
// numeric types and nil are permitted; anything else is a construction
// error.
func Scalar(v any) (*Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	default:
		return nil, fmt.Errorf("udm: scalar value must be string, number, boolean or null, got %T", v)
	}
}

// Array creates an array value. The element slice is copied.
func Array(elems ...*Value) *Value {
	copied := make([]*Value, len(elems))
	copy(copied, elems)
	return &Value{kind: KindArray, elems: copied}
}

// ArrayOf creates an array value, rejecting nil elements.
func ArrayOf(elems []*Value) (*Value, error) {
	for i, e := range elems {
		if e == nil {
			return nil, fmt.Errorf("udm: array element %d is nil", i)
		}
	}
	return Array(elems...), nil
}

// Object creates an object value with properties only. Programmatic
// literals may use any key, including the grammar's reserved section
// names; such objects are legal in memory but do not round-trip through
// UDM Language text (see ParsedObject).
func Object(props ...Prop) *Value {
	copied := make([]Prop, len(props))
	copy(copied, props)
	return &Value{kind: KindObject, props: copied}
}

// ObjectOf creates an object with attributes, an element name, and
// metadata. Nil slices are treated as empty.
func ObjectOf(props []Prop, attrs []Attr, name string, meta []Attr) *Value {
	v := Object(props...)
	v.attrs = append([]Attr(nil), attrs...)
	v.name = name
	v.meta = append([]Attr(nil), meta...)
	return v
}

// ParsedObject creates an object under the parsed-document rules: keys
// must be non-empty, unique, and must not collide with the grammar's
// reserved section names. Format parsers and the UDM Language parser build
// objects through this constructor so the no-leakage invariant holds.
func ParsedObject(props []Prop, attrs []Attr, name string, meta []Attr) (*Value, error) {
	seen := make(map[string]struct{}, len(props))
	for _, p := range props {
		if p.Key == "" {
			return nil, fmt.Errorf("udm: object property key must not be empty")
		}
		if isReservedKey(p.Key) {
			return nil, fmt.Errorf("udm: reserved keyword %q cannot be a property key in a parsed document", p.Key)
		}
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("udm: duplicate property key %q", p.Key)
		}
		seen[p.Key] = struct{}{}
		if p.Value == nil {
			return nil, fmt.Errorf("udm: property %q has nil value", p.Key)
		}
	}
	return ObjectOf(props, attrs, name, meta), nil
}

// DateTime creates a datetime value from an ISO-8601 instant such as
// "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00.250+02:00".
func DateTime(iso string) (*Value, error) {
	t, err := parseTemporal(KindDateTime, iso)
	if err != nil {
		return nil, err
	}
	return &Value{kind: KindDateTime, lexeme: iso, timeVal: t}, nil
}

// Date creates a calendar date value from "2006-01-02" form.
func Date(iso string) (*Value, error) {
	t, err := parseTemporal(KindDate, iso)
	if err != nil {
		return nil, err
	}
	return &Value{kind: KindDate, lexeme: iso, timeVal: t}, nil
}

// LocalDateTime creates a zone-less date+time value.
func LocalDateTime(iso string) (*Value, error) {
	t, err := parseTemporal(KindLocalDateTime, iso)
	if err != nil {
		return nil, err
	}
	return &Value{kind: KindLocalDateTime, lexeme: iso, timeVal: t}, nil
}

// TimeOfDay creates a time-of-day value from "15:04:05" form, with an
// optional fractional-second component.
func TimeOfDay(iso string) (*Value, error) {
	t, err := parseTemporal(KindTime, iso)
	if err != nil {
		return nil, err
	}
	return &Value{kind: KindTime, lexeme: iso, timeVal: t}, nil
}

// Binary creates a binary value. declaredSize is carried as metadata and
// is not authoritative; consumers must not assume it matches the actual
// payload length without checking.
func Binary(data []byte, encoding BinaryEncoding, declaredSize int) *Value {
	copied := make([]byte, len(data))
	copy(copied, data)
	return &Value{kind: KindBinary, bytesVal: copied, encoding: encoding, declSize: declaredSize}
}

// Lambda creates an opaque reference to a named function with a fixed
// parameter count. The UDM core carries the reference but never executes it.
func Lambda(id string, arity int) (*Value, error) {
	if id == "" {
		return nil, fmt.Errorf("udm: lambda id must not be empty")
	}
	if arity < 0 {
		return nil, fmt.Errorf("udm: lambda arity must not be negative, got %d", arity)
	}
	return &Value{kind: KindLambda, lambdaID: id, arity: arity}, nil
}

// isReservedKey reports whether key is one of the grammar's structural
// section names.
func isReservedKey(key string) bool {
	return key == "properties" || key == "attributes" || key == "metadata"
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindScalar
	}
	return v.kind
}

// ScalarType returns the scalar sub-type, or ScalarNull for non-scalars.
func (v *Value) ScalarType() ScalarType {
	if v == nil || v.kind != KindScalar {
		return ScalarNull
	}
	return v.scalar
}

// IsScalar reports whether this is a scalar value.
func (v *Value) IsScalar() bool {
	return v != nil && v.kind == KindScalar
}

// IsNull reports whether this is a null scalar (or a nil value).
func (v *Value) IsNull() bool {
	return v == nil || (v.kind == KindScalar && v.scalar == ScalarNull)
}

// IsArray reports whether this is an array value.
func (v *Value) IsArray() bool {
	return v != nil && v.kind == KindArray
}

// IsObject reports whether this is an object value.
func (v *Value) IsObject() bool {
	return v != nil && v.kind == KindObject
}

// AsBool returns the boolean payload.
func (v *Value) AsBool() (bool, error) {
	if v == nil || v.kind != KindScalar || v.scalar != ScalarBool {
		return false, fmt.Errorf("udm: expected boolean scalar, got %s", v.describe())
	}
	return v.boolVal, nil
}

// AsString returns the string payload.
func (v *Value) AsString() (string, error) {
	if v == nil || v.kind != KindScalar || v.scalar != ScalarString {
		return "", fmt.Errorf("udm: expected string scalar, got %s", v.describe())
	}
	return v.strVal, nil
}

// AsNumber returns the numeric payload as a float64.
func (v *Value) AsNumber() (float64, error) {
	if v == nil || v.kind != KindScalar || v.scalar != ScalarNumber {
		return 0, fmt.Errorf("udm: expected number scalar, got %s", v.describe())
	}
	return v.numVal, nil
}

// IsIntegral reports whether a number scalar carries an integral value.
func (v *Value) IsIntegral() bool {
	return v != nil && v.kind == KindScalar && v.scalar == ScalarNumber && v.numInt
}

// AsTime returns the parsed temporal payload.
func (v *Value) AsTime() (time.Time, error) {
	if v == nil {
		return time.Time{}, fmt.Errorf("udm: nil value")
	}
	switch v.kind {
	case KindDateTime, KindDate, KindLocalDateTime, KindTime:
		return v.timeVal, nil
	}
	return time.Time{}, fmt.Errorf("udm: expected temporal value, got %s", v.describe())
}

// AsBytes returns the binary payload.
func (v *Value) AsBytes() ([]byte, error) {
	if v == nil || v.kind != KindBinary {
		return nil, fmt.Errorf("udm: expected binary value, got %s", v.describe())
	}
	return v.bytesVal, nil
}

// Encoding returns the binary encoding tag.
func (v *Value) Encoding() BinaryEncoding {
	if v == nil {
		return EncodingBase64
	}
	return v.encoding
}

// DeclaredSize returns the declared (non-authoritative) binary size.
func (v *Value) DeclaredSize() int {
	if v == nil {
		return 0
	}
	return v.declSize
}

// LambdaID returns the lambda's function id.
func (v *Value) LambdaID() string {
	if v == nil {
		return ""
	}
	return v.lambdaID
}

// Arity returns the lambda's parameter count.
func (v *Value) Arity() int {
	if v == nil {
		return 0
	}
	return v.arity
}

// Lexical returns the canonical lexical form of a number or temporal
// value, or "" for other kinds.
func (v *Value) Lexical() string {
	if v == nil {
		return ""
	}
	return v.lexeme
}

// Name returns the object's element name, if any.
func (v *Value) Name() string {
	if v == nil {
		return ""
	}
	return v.name
}

// Props returns the object's ordered property list. The returned slice
// must not be mutated.
func (v *Value) Props() []Prop {
	if v == nil || v.kind != KindObject {
		return nil
	}
	return v.props
}

// Attrs returns the object's ordered attribute list.
func (v *Value) Attrs() []Attr {
	if v == nil || v.kind != KindObject {
		return nil
	}
	return v.attrs
}

// Meta returns the object's metadata entries.
func (v *Value) Meta() []Attr {
	if v == nil || v.kind != KindObject {
		return nil
	}
	return v.meta
}

// Elems returns the array's elements.
func (v *Value) Elems() []*Value {
	if v == nil || v.kind != KindArray {
		return nil
	}
	return v.elems
}

// Len returns the length of an array or an object's property count.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.kind {
	case KindArray:
		return len(v.elems)
	case KindObject:
		return len(v.props)
	default:
		return 0
	}
}

// Get returns a property value by key, or nil when absent. Attributes
// live in a separate namespace; use GetAttribute for those.
func (v *Value) Get(key string) *Value {
	if v == nil || v.kind != KindObject {
		return nil
	}
	for _, p := range v.props {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

// GetAttribute returns an attribute value by key.
func (v *Value) GetAttribute(key string) (string, bool) {
	if v == nil || v.kind != KindObject {
		return "", false
	}
	for _, a := range v.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// GetMeta returns a metadata value by key.
func (v *Value) GetMeta(key string) (string, bool) {
	if v == nil || v.kind != KindObject {
		return "", false
	}
	for _, a := range v.meta {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Index returns the i-th array element, or nil when out of range.
func (v *Value) Index(i int) *Value {
	if v == nil || v.kind != KindArray || i < 0 || i >= len(v.elems) {
		return nil
	}
	return v.elems[i]
}

// Pos returns the source position of this value, when built by the parser.
func (v *Value) Pos() Position {
	if v == nil {
		return Position{}
	}
	return v.pos
}

func (v *Value) describe() string {
	if v == nil {
		return "nil"
	}
	if v.kind == KindScalar {
		return v.scalar.String()
	}
	return v.kind.String()
}

// ============================================================
// Equality
// ============================================================

// Equal reports deep structural equality: same kind, same structure in
// order, same scalar values. Number scalars compare by numeric value, so
// lexical normalization does not break round-trip identity.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindScalar:
		if a.scalar != b.scalar {
			return false
		}
		switch a.scalar {
		case ScalarNull:
			return true
		case ScalarBool:
			return a.boolVal == b.boolVal
		case ScalarNumber:
			return a.numVal == b.numVal
		case ScalarString:
			return a.strVal == b.strVal
		}
		return false
	case KindArray:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.name != b.name ||
			len(a.props) != len(b.props) ||
			len(a.attrs) != len(b.attrs) ||
			len(a.meta) != len(b.meta) {
			return false
		}
		for i := range a.props {
			if a.props[i].Key != b.props[i].Key || !Equal(a.props[i].Value, b.props[i].Value) {
				return false
			}
		}
		for i := range a.attrs {
			if a.attrs[i] != b.attrs[i] {
				return false
			}
		}
		for i := range a.meta {
			if a.meta[i] != b.meta[i] {
				return false
			}
		}
		return true
	case KindDateTime, KindDate, KindLocalDateTime, KindTime:
		return a.lexeme == b.lexeme
	case KindBinary:
		if a.encoding != b.encoding || a.declSize != b.declSize || len(a.bytesVal) != len(b.bytesVal) {
			return false
		}
		for i := range a.bytesVal {
			if a.bytesVal[i] != b.bytesVal[i] {
				return false
			}
		}
		return true
	case KindLambda:
		return a.lambdaID == b.lambdaID && a.arity == b.arity
	}
	return false
}
