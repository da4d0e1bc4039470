package usdl

import (
	"fmt"

	"github.com/utlx-lang/udm/udm"
)

// BridgeOptions controls strictness of the schema bridge. With Validate
// unset both directions produce best-effort output and never reject
// structurally incomplete schemas.
type BridgeOptions struct {
	Validate bool
}

// usdlToAvro maps portable primitive type names to Avro primitives.
var usdlToAvro = map[string]string{
	"string":  "string",
	"integer": "int",
	"long":    "long",
	"number":  "double",
	"double":  "double",
	"boolean": "boolean",
	"binary":  "bytes",
}

// avroToUSDL is the reverse map. Both float and double collapse onto
// number, which is the portable name for a floating-point quantity.
var avroToUSDL = map[string]string{
	"string":  "string",
	"int":     "integer",
	"long":    "long",
	"float":   "number",
	"double":  "double",
	"boolean": "boolean",
	"bytes":   "binary",
	"null":    "null",
}

// ToAvro converts a universal schema into its Avro representation. Input
// that does not carry a %types declaration is assumed to already be native
// and is returned unchanged.
func ToAvro(schema *udm.Value, opts BridgeOptions) (*udm.Value, error) {
	types := schema.Get("%types")
	if types == nil {
		return schema, nil
	}
	if types.Kind() != udm.KindObject {
		return nil, fmt.Errorf("usdl: %%types must be an object of type declarations, got %s", types.Kind())
	}

	ns := directiveString(schema, "%namespace")
	doc := directiveString(schema, "%documentation")

	var out []*udm.Value
	for _, decl := range types.Props() {
		conv, err := typeToAvro(decl.Key, decl.Value, ns, doc, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	if len(out) == 0 {
		if opts.Validate {
			return nil, fmt.Errorf("usdl: %%types declares no types")
		}
		return udm.Array(), nil
	}

	var result *udm.Value
	if len(out) == 1 {
		result = out[0]
	} else {
		result = udm.Array(out...)
	}
	if opts.Validate {
		if err := validateAvro(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func typeToAvro(name string, body *udm.Value, ns, doc string, opts BridgeOptions) (*udm.Value, error) {
	if body.Kind() != udm.KindObject {
		return nil, fmt.Errorf("usdl: type %q: declaration must be an object", name)
	}
	if n := directiveString(body, "%name"); n != "" {
		name = n
	}
	if s := directiveString(body, "%namespace"); s != "" {
		ns = s
	}
	if s := directiveString(body, "%documentation"); s != "" {
		doc = s
	}

	kind := directiveString(body, "%kind")
	if kind == "" {
		kind = "structure"
	}
	switch kind {
	case "structure":
		return recordToAvro(name, body, ns, doc, opts)
	case "enumeration":
		return enumToAvro(name, body, ns, doc, opts)
	default:
		return nil, fmt.Errorf("usdl: type %q: unsupported %%kind %q", name, kind)
	}
}

func recordToAvro(name string, body *udm.Value, ns, doc string, opts BridgeOptions) (*udm.Value, error) {
	fields := body.Get("%fields")
	if fields == nil {
		if opts.Validate {
			return nil, fmt.Errorf("usdl: type %q: structure requires %%fields", name)
		}
		fields = udm.Object()
	}

	var avroFields []*udm.Value
	for _, f := range fieldList(fields) {
		conv, err := fieldToAvro(name, f.key, f.body, opts)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			avroFields = append(avroFields, conv)
		}
	}

	props := []udm.Prop{
		{Key: "type", Value: udm.String("record")},
		{Key: "name", Value: udm.String(name)},
	}
	props = appendNamed(props, ns, doc, body)
	props = append(props, udm.Prop{Key: "fields", Value: udm.Array(avroFields...)})
	return udm.Object(props...), nil
}

func enumToAvro(name string, body *udm.Value, ns, doc string, opts BridgeOptions) (*udm.Value, error) {
	values := body.Get("%values")
	if values == nil || values.Kind() != udm.KindArray {
		if opts.Validate {
			return nil, fmt.Errorf("usdl: type %q: enumeration requires %%values", name)
		}
		values = udm.Array()
	}
	symbols := make([]*udm.Value, 0, values.Len())
	for i, e := range values.Elems() {
		s, err := e.AsString()
		if err != nil {
			return nil, fmt.Errorf("usdl: type %q: %%values[%d] must be a string", name, i)
		}
		symbols = append(symbols, udm.String(s))
	}

	props := []udm.Prop{
		{Key: "type", Value: udm.String("enum")},
		{Key: "name", Value: udm.String(name)},
	}
	props = appendNamed(props, ns, doc, body)
	props = append(props, udm.Prop{Key: "symbols", Value: udm.Array(symbols...)})
	return udm.Object(props...), nil
}

// appendNamed attaches namespace, doc and aliases shared by records and
// enums, in that order.
func appendNamed(props []udm.Prop, ns, doc string, body *udm.Value) []udm.Prop {
	if ns != "" {
		props = append(props, udm.Prop{Key: "namespace", Value: udm.String(ns)})
	}
	if doc != "" {
		props = append(props, udm.Prop{Key: "doc", Value: udm.String(doc)})
	}
	if aliases := body.Get("%aliases"); aliases != nil && aliases.Kind() == udm.KindArray {
		props = append(props, udm.Prop{Key: "aliases", Value: aliases})
	}
	return props
}

type fieldDecl struct {
	key  string
	body *udm.Value
}

// fieldList accepts both %fields shapes: an object keyed by field name,
// or an array of field objects each carrying %name.
func fieldList(fields *udm.Value) []fieldDecl {
	switch fields.Kind() {
	case udm.KindObject:
		var out []fieldDecl
		for _, p := range fields.Props() {
			out = append(out, fieldDecl{key: p.Key, body: p.Value})
		}
		return out
	case udm.KindArray:
		var out []fieldDecl
		for _, e := range fields.Elems() {
			out = append(out, fieldDecl{key: directiveString(e, "%name"), body: e})
		}
		return out
	}
	return nil
}

// fieldToAvro converts one field declaration. Incomplete declarations
// error under Validate; otherwise nameless fields are skipped (nil, nil)
// and a missing %type falls back to string.
func fieldToAvro(typeName, fieldName string, body *udm.Value, opts BridgeOptions) (*udm.Value, error) {
	if body.Kind() != udm.KindObject {
		return nil, fmt.Errorf("usdl: type %q: field %q must be an object", typeName, fieldName)
	}
	if n := directiveString(body, "%name"); n != "" {
		fieldName = n
	}
	if fieldName == "" {
		if opts.Validate {
			return nil, fmt.Errorf("usdl: type %q: field declaration lacks a name", typeName)
		}
		return nil, nil
	}

	avroType, err := fieldTypeToAvro(typeName, fieldName, body, opts)
	if err != nil {
		return nil, err
	}

	optional := false
	if req := body.Get("%required"); req != nil {
		b, err := req.AsBool()
		if err != nil {
			return nil, fmt.Errorf("usdl: type %q: field %q: %%required must be boolean", typeName, fieldName)
		}
		optional = !b
	}
	if optional {
		avroType = udm.Array(udm.String("null"), avroType)
	}

	props := []udm.Prop{
		{Key: "name", Value: udm.String(fieldName)},
		{Key: "type", Value: avroType},
	}
	if doc := directiveString(body, "%documentation"); doc != "" {
		props = append(props, udm.Prop{Key: "doc", Value: udm.String(doc)})
	}
	if aliases := body.Get("%aliases"); aliases != nil && aliases.Kind() == udm.KindArray {
		props = append(props, udm.Prop{Key: "aliases", Value: aliases})
	}
	if optional {
		props = append(props, udm.Prop{Key: "default", Value: udm.Null()})
	} else if def := body.Get("%default"); def != nil {
		props = append(props, udm.Prop{Key: "default", Value: def})
	}
	return udm.Object(props...), nil
}

// fieldTypeToAvro builds the field's type node: primitive or reference,
// then logical-type annotation, then array/map wrappers. Nullable unions
// are applied by the caller so they stay outermost.
func fieldTypeToAvro(typeName, fieldName string, body *udm.Value, opts BridgeOptions) (*udm.Value, error) {
	usdlType := directiveString(body, "%type")
	if usdlType == "" {
		if opts.Validate {
			return nil, fmt.Errorf("usdl: type %q: field %q requires %%type", typeName, fieldName)
		}
		usdlType = "string"
	}

	var base *udm.Value
	if lt := directiveString(body, "%logicalType"); lt != "" {
		baseName, ok := usdlToAvro[usdlType]
		if !ok {
			baseName = usdlType
		}
		if lt == "decimal" {
			baseName = "bytes"
		}
		props := []udm.Prop{
			{Key: "type", Value: udm.String(baseName)},
			{Key: "logicalType", Value: udm.String(lt)},
		}
		if p, ok, err := directiveInt(body, "%precision"); err != nil {
			return nil, fmt.Errorf("usdl: type %q: field %q: %w", typeName, fieldName, err)
		} else if ok {
			props = append(props, udm.Prop{Key: "precision", Value: udm.Int(p)})
		}
		if s, ok, err := directiveInt(body, "%scale"); err != nil {
			return nil, fmt.Errorf("usdl: type %q: field %q: %w", typeName, fieldName, err)
		} else if ok {
			props = append(props, udm.Prop{Key: "scale", Value: udm.Int(s)})
		}
		base = udm.Object(props...)
	} else if mapped, ok := usdlToAvro[usdlType]; ok {
		base = udm.String(mapped)
	} else {
		// A non-primitive name is a reference to another declared type.
		base = udm.String(usdlType)
	}

	if directiveBool(body, "%array") {
		base = udm.Object(
			udm.Prop{Key: "type", Value: udm.String("array")},
			udm.Prop{Key: "items", Value: base},
		)
	}
	if directiveBool(body, "%map") {
		base = udm.Object(
			udm.Prop{Key: "type", Value: udm.String("map")},
			udm.Prop{Key: "values", Value: base},
		)
	}
	return base, nil
}

// FromAvro converts an Avro schema back into universal form. Input that
// does not look like an Avro named type (or an array of them) passes
// through unchanged.
func FromAvro(avro *udm.Value, opts BridgeOptions) (*udm.Value, error) {
	var decls []*udm.Value
	switch {
	case isAvroNamedType(avro):
		decls = []*udm.Value{avro}
	case avro.Kind() == udm.KindArray && avro.Len() > 0 && isAvroNamedType(avro.Index(0)):
		decls = avro.Elems()
	default:
		return avro, nil
	}
	if opts.Validate {
		if err := validateAvro(avro); err != nil {
			return nil, err
		}
	}

	var schemaNS, schemaDoc string
	var typeProps []udm.Prop
	for i, decl := range decls {
		name, body, err := typeFromAvro(decl, opts)
		if err != nil {
			return nil, fmt.Errorf("usdl: schema entry %d: %w", i, err)
		}
		typeProps = append(typeProps, udm.Prop{Key: name, Value: body})
		if schemaNS == "" {
			schemaNS = propString(decl, "namespace")
		}
		if schemaDoc == "" {
			schemaDoc = propString(decl, "doc")
		}
	}

	var props []udm.Prop
	if schemaNS != "" {
		props = append(props, udm.Prop{Key: "%namespace", Value: udm.String(schemaNS)})
	}
	if schemaDoc != "" {
		props = append(props, udm.Prop{Key: "%documentation", Value: udm.String(schemaDoc)})
	}
	props = append(props, udm.Prop{Key: "%types", Value: udm.Object(typeProps...)})
	return udm.Object(props...), nil
}

func isAvroNamedType(v *udm.Value) bool {
	if v.Kind() != udm.KindObject {
		return false
	}
	switch propString(v, "type") {
	case "record", "enum":
		return v.Get("name") != nil
	}
	return false
}

func typeFromAvro(decl *udm.Value, opts BridgeOptions) (string, *udm.Value, error) {
	name := propString(decl, "name")
	if name == "" {
		return "", nil, fmt.Errorf("named type lacks a name")
	}

	var props []udm.Prop
	switch propString(decl, "type") {
	case "record":
		props = append(props, udm.Prop{Key: "%kind", Value: udm.String("structure")})
	case "enum":
		props = append(props, udm.Prop{Key: "%kind", Value: udm.String("enumeration")})
	}
	if ns := propString(decl, "namespace"); ns != "" {
		props = append(props, udm.Prop{Key: "%namespace", Value: udm.String(ns)})
	}
	if doc := propString(decl, "doc"); doc != "" {
		props = append(props, udm.Prop{Key: "%documentation", Value: udm.String(doc)})
	}
	if aliases := decl.Get("aliases"); aliases != nil && aliases.Kind() == udm.KindArray {
		props = append(props, udm.Prop{Key: "%aliases", Value: aliases})
	}

	switch propString(decl, "type") {
	case "record":
		fields := decl.Get("fields")
		if fields == nil || fields.Kind() != udm.KindArray {
			if opts.Validate {
				return "", nil, fmt.Errorf("record %q lacks fields", name)
			}
			fields = udm.Array()
		}
		var fieldProps []udm.Prop
		for i, f := range fields.Elems() {
			fname, fbody, err := fieldFromAvro(f)
			if err != nil {
				return "", nil, fmt.Errorf("record %q: field %d: %w", name, i, err)
			}
			fieldProps = append(fieldProps, udm.Prop{Key: fname, Value: fbody})
		}
		props = append(props, udm.Prop{Key: "%fields", Value: udm.Object(fieldProps...)})
	case "enum":
		symbols := decl.Get("symbols")
		if symbols == nil || symbols.Kind() != udm.KindArray {
			if opts.Validate {
				return "", nil, fmt.Errorf("enum %q lacks symbols", name)
			}
			symbols = udm.Array()
		}
		props = append(props, udm.Prop{Key: "%values", Value: symbols})
	}
	return name, udm.Object(props...), nil
}

func fieldFromAvro(f *udm.Value) (string, *udm.Value, error) {
	if f.Kind() != udm.KindObject {
		return "", nil, fmt.Errorf("field declaration must be an object")
	}
	name := propString(f, "name")
	if name == "" {
		return "", nil, fmt.Errorf("field lacks a name")
	}

	avroType := f.Get("type")
	if avroType == nil {
		return "", nil, fmt.Errorf("field %q lacks a type", name)
	}

	props := []udm.Prop{{Key: "%name", Value: udm.String(name)}}

	// Outermost nullable union first, then container wrappers, then the
	// base (possibly logical) type.
	required := true
	if member, ok := unwrapNullable(avroType); ok {
		required = false
		avroType = member
	}

	isArray, isMap := false, false
	for {
		switch propString(avroType, "type") {
		case "array":
			if items := avroType.Get("items"); items != nil {
				isArray = true
				avroType = items
				continue
			}
		case "map":
			if values := avroType.Get("values"); values != nil {
				isMap = true
				avroType = values
				continue
			}
		}
		break
	}

	typeProps, err := baseTypeFromAvro(name, avroType)
	if err != nil {
		return "", nil, err
	}
	props = append(props, typeProps...)

	if isArray {
		props = append(props, udm.Prop{Key: "%array", Value: udm.Bool(true)})
	}
	if isMap {
		props = append(props, udm.Prop{Key: "%map", Value: udm.Bool(true)})
	}
	if !required {
		props = append(props, udm.Prop{Key: "%required", Value: udm.Bool(false)})
	}
	if doc := propString(f, "doc"); doc != "" {
		props = append(props, udm.Prop{Key: "%documentation", Value: udm.String(doc)})
	}
	if aliases := f.Get("aliases"); aliases != nil && aliases.Kind() == udm.KindArray {
		props = append(props, udm.Prop{Key: "%aliases", Value: aliases})
	}
	return name, udm.Object(props...), nil
}

func baseTypeFromAvro(fieldName string, t *udm.Value) ([]udm.Prop, error) {
	if lt := propString(t, "logicalType"); lt != "" {
		usdlType := "number"
		if lt != "decimal" {
			if mapped, ok := avroToUSDL[propString(t, "type")]; ok {
				usdlType = mapped
			} else {
				usdlType = propString(t, "type")
			}
		}
		props := []udm.Prop{
			{Key: "%type", Value: udm.String(usdlType)},
			{Key: "%logicalType", Value: udm.String(lt)},
		}
		if p := t.Get("precision"); p != nil {
			props = append(props, udm.Prop{Key: "%precision", Value: p})
		}
		if s := t.Get("scale"); s != nil {
			props = append(props, udm.Prop{Key: "%scale", Value: s})
		}
		return props, nil
	}

	if t.Kind() == udm.KindScalar && t.ScalarType() == udm.ScalarString {
		raw, _ := t.AsString()
		usdlType := raw
		if mapped, ok := avroToUSDL[raw]; ok {
			usdlType = mapped
		}
		return []udm.Prop{{Key: "%type", Value: udm.String(usdlType)}}, nil
	}
	// Inline nested named types are out of reach of the directive model;
	// keep the stringified type name when present.
	if n := propString(t, "name"); n != "" {
		return []udm.Prop{{Key: "%type", Value: udm.String(n)}}, nil
	}
	return nil, fmt.Errorf("field %q has an unrecognized Avro type", fieldName)
}

// unwrapNullable detects a two-member union containing "null" and returns
// the other member.
func unwrapNullable(t *udm.Value) (*udm.Value, bool) {
	if t.Kind() != udm.KindArray {
		return nil, false
	}
	var member *udm.Value
	sawNull := false
	for _, e := range t.Elems() {
		if s, err := e.AsString(); err == nil && s == "null" {
			sawNull = true
			continue
		}
		if member != nil {
			return nil, false
		}
		member = e
	}
	if !sawNull || member == nil {
		return nil, false
	}
	return member, true
}

// directiveString reads a %-directive whose value must be a string,
// returning "" when absent or of another kind.
func directiveString(v *udm.Value, key string) string {
	return propString(v, key)
}

func directiveBool(v *udm.Value, key string) bool {
	b, err := v.Get(key).AsBool()
	if err != nil {
		return false
	}
	return b
}

func directiveInt(v *udm.Value, key string) (int64, bool, error) {
	d := v.Get(key)
	if d == nil {
		return 0, false, nil
	}
	n, err := d.AsNumber()
	if err != nil || !d.IsIntegral() || n < 0 {
		return 0, false, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return int64(n), true, nil
}

func propString(v *udm.Value, key string) string {
	s, err := v.Get(key).AsString()
	if err != nil {
		return ""
	}
	return s
}
