package usdl

import "strings"

// Tier classifies how portable a directive is across schema formats.
type Tier uint8

const (
	TierCore Tier = iota
	TierCommon
	TierFormat
	TierReserved
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierCore:
		return "core"
	case TierCommon:
		return "common"
	case TierFormat:
		return "format-specific"
	case TierReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// Scope identifies where in a schema document a directive may appear.
type Scope uint8

const (
	ScopeSchema Scope = iota
	ScopeType
	ScopeField
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeSchema:
		return "schema"
	case ScopeType:
		return "type"
	case ScopeField:
		return "field"
	default:
		return "unknown"
	}
}

// Directive describes one %-prefixed USDL directive: its portability tier,
// the scopes it may appear in, and the schema formats that support it.
type Directive struct {
	Name    string
	Tier    Tier
	Scopes  []Scope
	Formats []string
}

// Supports reports whether the directive maps onto the given format.
func (d Directive) Supports(format string) bool {
	for _, f := range d.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// allFormats lists the schema formats the toolkit bridges to.
var allFormats = []string{"avro", "json-schema", "xsd", "protobuf"}

// Directives is the compiled-in directive catalog. It is pure lookup data
// consulted by the bridge and by tooling; it never changes at runtime.
var Directives = map[string]Directive{
	"kind":          {Name: "kind", Tier: TierCore, Scopes: []Scope{ScopeType}, Formats: allFormats},
	"types":         {Name: "types", Tier: TierCore, Scopes: []Scope{ScopeSchema}, Formats: allFormats},
	"fields":        {Name: "fields", Tier: TierCore, Scopes: []Scope{ScopeType}, Formats: allFormats},
	"values":        {Name: "values", Tier: TierCore, Scopes: []Scope{ScopeType}, Formats: allFormats},
	"name":          {Name: "name", Tier: TierCore, Scopes: []Scope{ScopeType, ScopeField}, Formats: allFormats},
	"type":          {Name: "type", Tier: TierCore, Scopes: []Scope{ScopeField}, Formats: allFormats},
	"required":      {Name: "required", Tier: TierCore, Scopes: []Scope{ScopeField}, Formats: allFormats},
	"array":         {Name: "array", Tier: TierCore, Scopes: []Scope{ScopeField}, Formats: allFormats},
	"map":           {Name: "map", Tier: TierCommon, Scopes: []Scope{ScopeField}, Formats: []string{"avro", "json-schema", "protobuf"}},
	"default":       {Name: "default", Tier: TierCommon, Scopes: []Scope{ScopeField}, Formats: []string{"avro", "json-schema", "xsd"}},
	"logicalType":   {Name: "logicalType", Tier: TierCommon, Scopes: []Scope{ScopeField}, Formats: []string{"avro", "json-schema"}},
	"precision":     {Name: "precision", Tier: TierCommon, Scopes: []Scope{ScopeField}, Formats: []string{"avro", "xsd"}},
	"scale":         {Name: "scale", Tier: TierCommon, Scopes: []Scope{ScopeField}, Formats: []string{"avro", "xsd"}},
	"namespace":     {Name: "namespace", Tier: TierCommon, Scopes: []Scope{ScopeSchema, ScopeType}, Formats: []string{"avro", "xsd", "protobuf"}},
	"documentation": {Name: "documentation", Tier: TierCommon, Scopes: []Scope{ScopeSchema, ScopeType, ScopeField}, Formats: allFormats},
	"aliases":       {Name: "aliases", Tier: TierFormat, Scopes: []Scope{ScopeType, ScopeField}, Formats: []string{"avro"}},
	"version":       {Name: "version", Tier: TierReserved, Scopes: []Scope{ScopeSchema}, Formats: nil},
}

// Lookup returns the directive descriptor for a name, with or without the
// % prefix.
func Lookup(name string) (Directive, bool) {
	d, ok := Directives[strings.TrimPrefix(name, "%")]
	return d, ok
}

// IsDirective reports whether a property key is a %-prefixed directive.
func IsDirective(key string) bool {
	return strings.HasPrefix(key, "%")
}
