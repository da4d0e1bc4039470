package usdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utlx-lang/udm/udm"
)

func parseSchema(t *testing.T, src string) *udm.Value {
	t.Helper()
	v, err := udm.Parse(src)
	require.NoError(t, err)
	return v
}

const invoiceUSDL = `{
	"%namespace": "com.example.billing",
	"%documentation": "Billing schemas",
	"%types": {
		Invoice: {
			"%kind": "structure",
			"%fields": {
				id: {"%type": "string"},
				price: {"%name": "price", "%type": "number", "%logicalType": "decimal", "%precision": 10, "%scale": 2},
				tags: {"%type": "string", "%array": true},
				rates: {"%type": "double", "%map": true},
				note: {"%type": "string", "%required": false}
			}
		}
	}
}`

func TestToAvroRecord(t *testing.T) {
	avro, err := ToAvro(parseSchema(t, invoiceUSDL), BridgeOptions{Validate: true})
	require.NoError(t, err)

	assert.Equal(t, "record", propString(avro, "type"))
	assert.Equal(t, "Invoice", propString(avro, "name"))
	assert.Equal(t, "com.example.billing", propString(avro, "namespace"))
	assert.Equal(t, "Billing schemas", propString(avro, "doc"))

	fields := avro.Get("fields")
	require.Equal(t, udm.KindArray, fields.Kind())
	require.Equal(t, 5, fields.Len())

	id := fields.Index(0)
	assert.Equal(t, "id", propString(id, "name"))
	assert.Equal(t, "string", propString(id, "type"))

	price := fields.Index(1)
	logical := price.Get("type")
	assert.Equal(t, "bytes", propString(logical, "type"))
	assert.Equal(t, "decimal", propString(logical, "logicalType"))
	assert.Equal(t, "10", logical.Get("precision").Lexical())
	assert.Equal(t, "2", logical.Get("scale").Lexical())

	tags := fields.Index(2).Get("type")
	assert.Equal(t, "array", propString(tags, "type"))
	assert.Equal(t, "string", mustString(t, tags.Get("items")))

	rates := fields.Index(3).Get("type")
	assert.Equal(t, "map", propString(rates, "type"))
	assert.Equal(t, "double", mustString(t, rates.Get("values")))

	note := fields.Index(4)
	union := note.Get("type")
	require.Equal(t, udm.KindArray, union.Kind())
	assert.Equal(t, "null", mustString(t, union.Index(0)))
	assert.Equal(t, "string", mustString(t, union.Index(1)))
	assert.True(t, note.Get("default").IsNull())
}

func TestToAvroEnum(t *testing.T) {
	src := `{"%types": {Status: {"%kind": "enumeration", "%values": ["OPEN", "CLOSED"], "%documentation": "Lifecycle state"}}}`
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.NoError(t, err)

	assert.Equal(t, "enum", propString(avro, "type"))
	assert.Equal(t, "Status", propString(avro, "name"))
	assert.Equal(t, "Lifecycle state", propString(avro, "doc"))
	symbols := avro.Get("symbols")
	require.Equal(t, 2, symbols.Len())
	assert.Equal(t, "OPEN", mustString(t, symbols.Index(0)))
}

func TestToAvroMultipleTypes(t *testing.T) {
	src := `{"%types": {
		A: {"%kind": "structure", "%fields": {x: {"%type": "long"}}},
		B: {"%kind": "enumeration", "%values": ["Y"]}
	}}`
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.NoError(t, err)
	require.Equal(t, udm.KindArray, avro.Kind())
	require.Equal(t, 2, avro.Len())
	assert.Equal(t, "A", propString(avro.Index(0), "name"))
	assert.Equal(t, "B", propString(avro.Index(1), "name"))
}

func TestToAvroPrimitiveTable(t *testing.T) {
	cases := map[string]string{
		"string":  "string",
		"integer": "int",
		"long":    "long",
		"number":  "double",
		"double":  "double",
		"boolean": "boolean",
		"binary":  "bytes",
	}
	for usdlType, want := range cases {
		src := `{"%types": {T: {"%kind": "structure", "%fields": {f: {"%type": "` + usdlType + `"}}}}}`
		avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
		require.NoError(t, err, usdlType)
		got := avro.Get("fields").Index(0).Get("type")
		assert.Equal(t, want, mustString(t, got), usdlType)
	}
}

func TestToAvroTypeReference(t *testing.T) {
	src := `{"%types": {Order: {"%kind": "structure", "%fields": {status: {"%type": "Status"}}}}}`
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "Status", mustString(t, avro.Get("fields").Index(0).Get("type")))
}

func TestToAvroPassThrough(t *testing.T) {
	for _, src := range []string{
		`{type: "record", name: "Native", fields: []}`,
		`{name: "Alice", age: 30}`,
		`[1, 2, 3]`,
		`"just a string"`,
	} {
		in := parseSchema(t, src)
		out, err := ToAvro(in, BridgeOptions{})
		require.NoError(t, err, src)
		assert.Same(t, in, out, src)
	}
}

func TestFromAvroPassThrough(t *testing.T) {
	for _, src := range []string{
		`{name: "Alice", age: 30}`,
		`[1, 2, 3]`,
		`{type: "unknown-kind"}`,
	} {
		in := parseSchema(t, src)
		out, err := FromAvro(in, BridgeOptions{})
		require.NoError(t, err, src)
		assert.Same(t, in, out, src)
	}
}

func TestRoundTripDirectiveCoverage(t *testing.T) {
	avro, err := ToAvro(parseSchema(t, invoiceUSDL), BridgeOptions{Validate: true})
	require.NoError(t, err)
	back, err := FromAvro(avro, BridgeOptions{Validate: true})
	require.NoError(t, err)

	fields := back.Get("%types").Get("Invoice").Get("%fields")
	require.NotNil(t, fields)

	price := fields.Get("price")
	require.NotNil(t, price)
	assert.Equal(t, "price", propString(price, "%name"))
	assert.Equal(t, "decimal", propString(price, "%logicalType"))
	assert.Equal(t, "10", price.Get("%precision").Lexical())
	assert.Equal(t, "2", price.Get("%scale").Lexical())
	assert.Equal(t, "number", propString(price, "%type"))

	tags := fields.Get("tags")
	require.NotNil(t, tags)
	b, err := tags.Get("%array").AsBool()
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, "string", propString(tags, "%type"))

	rates := fields.Get("rates")
	require.NotNil(t, rates)
	b, err = rates.Get("%map").AsBool()
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, "double", propString(rates, "%type"))

	note := fields.Get("note")
	require.NotNil(t, note)
	b, err = note.Get("%required").AsBool()
	require.NoError(t, err)
	assert.False(t, b)

	assert.Equal(t, "com.example.billing", propString(back, "%namespace"))
	assert.Equal(t, "com.example.billing", propString(back.Get("%types").Get("Invoice"), "%namespace"))
}

func TestRoundTripEnum(t *testing.T) {
	src := `{"%types": {Status: {"%kind": "enumeration", "%values": ["OPEN", "CLOSED"]}}}`
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.NoError(t, err)
	back, err := FromAvro(avro, BridgeOptions{Validate: true})
	require.NoError(t, err)

	status := back.Get("%types").Get("Status")
	require.NotNil(t, status)
	assert.Equal(t, "enumeration", propString(status, "%kind"))
	values := status.Get("%values")
	require.Equal(t, 2, values.Len())
	assert.Equal(t, "CLOSED", mustString(t, values.Index(1)))
}

func TestValidateRejectsIncompleteStructure(t *testing.T) {
	src := `{"%types": {Broken: {"%kind": "structure"}}}`
	_, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%fields")

	// Best effort without validation: an empty record.
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, avro.Get("fields").Len())
}

func TestValidateRejectsIncompleteEnum(t *testing.T) {
	src := `{"%types": {Broken: {"%kind": "enumeration"}}}`
	_, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%values")

	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, avro.Get("symbols").Len())
}

func TestValidateRejectsMissingFieldType(t *testing.T) {
	src := `{"%types": {T: {"%kind": "structure", "%fields": {f: {"%required": false}}}}}`
	_, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%type")

	// Unvalidated mode falls back to string.
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{})
	require.NoError(t, err)
	union := avro.Get("fields").Index(0).Get("type")
	assert.Equal(t, "string", mustString(t, union.Index(1)))
}

func TestToAvroRejectsUnknownKind(t *testing.T) {
	src := `{"%types": {T: {"%kind": "tuple"}}}`
	_, err := ToAvro(parseSchema(t, src), BridgeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tuple")
}

func TestFromAvroValidateRejectsMalformed(t *testing.T) {
	src := `{type: "record", name: "Broken"}`
	_, err := FromAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.Error(t, err)

	// Unvalidated mode tolerates the missing field list.
	back, err := FromAvro(parseSchema(t, src), BridgeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, back.Get("%types").Get("Broken").Get("%fields").Len())
}

func TestAliasesCarryBothWays(t *testing.T) {
	src := `{"%types": {Invoice: {"%kind": "structure", "%aliases": ["Bill"], "%fields": {id: {"%type": "string"}}}}}`
	avro, err := ToAvro(parseSchema(t, src), BridgeOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "Bill", mustString(t, avro.Get("aliases").Index(0)))

	back, err := FromAvro(avro, BridgeOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "Bill", mustString(t, back.Get("%types").Get("Invoice").Get("%aliases").Index(0)))
}

func mustString(t *testing.T, v *udm.Value) string {
	t.Helper()
	s, err := v.AsString()
	require.NoError(t, err)
	return s
}
