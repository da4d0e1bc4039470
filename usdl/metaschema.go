package usdl

import (
	"fmt"
	"strings"

	"github.com/utlx-lang/udm/udm"
	"github.com/xeipuuv/gojsonschema"
)

// avroMetaSchema is a JSON Schema (draft-07) for the subset of Avro the
// bridge emits: named records and enums, unions, array and map wrappers,
// and logical-type annotations. It is a structural check, not a full Avro
// resolver; type references are accepted as bare names.
const avroMetaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$ref": "#/definitions/schema",
  "definitions": {
    "schema": {
      "oneOf": [
        {"$ref": "#/definitions/namedType"},
        {"type": "array", "items": {"$ref": "#/definitions/namedType"}, "minItems": 1}
      ]
    },
    "namedType": {
      "oneOf": [
        {"$ref": "#/definitions/record"},
        {"$ref": "#/definitions/enum"}
      ]
    },
    "record": {
      "type": "object",
      "required": ["type", "name", "fields"],
      "properties": {
        "type": {"const": "record"},
        "name": {"type": "string", "minLength": 1},
        "namespace": {"type": "string"},
        "doc": {"type": "string"},
        "aliases": {"type": "array", "items": {"type": "string"}},
        "fields": {"type": "array", "items": {"$ref": "#/definitions/field"}}
      }
    },
    "enum": {
      "type": "object",
      "required": ["type", "name", "symbols"],
      "properties": {
        "type": {"const": "enum"},
        "name": {"type": "string", "minLength": 1},
        "namespace": {"type": "string"},
        "doc": {"type": "string"},
        "aliases": {"type": "array", "items": {"type": "string"}},
        "symbols": {"type": "array", "items": {"type": "string"}}
      }
    },
    "field": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "type": {"$ref": "#/definitions/fieldType"},
        "doc": {"type": "string"},
        "aliases": {"type": "array", "items": {"type": "string"}},
        "default": {}
      }
    },
    "fieldType": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {"$ref": "#/definitions/union"},
        {"$ref": "#/definitions/arrayType"},
        {"$ref": "#/definitions/mapType"},
        {"$ref": "#/definitions/logicalType"},
        {"$ref": "#/definitions/namedType"}
      ]
    },
    "union": {
      "type": "array",
      "items": {"$ref": "#/definitions/fieldType"},
      "minItems": 1
    },
    "arrayType": {
      "type": "object",
      "required": ["type", "items"],
      "properties": {
        "type": {"const": "array"},
        "items": {"$ref": "#/definitions/fieldType"}
      }
    },
    "mapType": {
      "type": "object",
      "required": ["type", "values"],
      "properties": {
        "type": {"const": "map"},
        "values": {"$ref": "#/definitions/fieldType"}
      }
    },
    "logicalType": {
      "type": "object",
      "required": ["type", "logicalType"],
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "logicalType": {"type": "string", "minLength": 1},
        "precision": {"type": "integer", "minimum": 0},
        "scale": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

// validateAvro checks an Avro-side value tree against the embedded
// meta-schema and returns a single error summarizing every violation.
func validateAvro(avro *udm.Value) error {
	raw, err := ToJSON(avro)
	if err != nil {
		return fmt.Errorf("usdl: schema is not JSON-representable: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(avroMetaSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("usdl: meta-schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var msgs []string
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("usdl: schema violates Avro structure: %s", strings.Join(msgs, "; "))
}
