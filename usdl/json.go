package usdl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/utlx-lang/udm/udm"
)

// FromJSON decodes a JSON document into a value tree. Object keys keep
// their source order and numbers keep their source lexeme, so a schema
// decoded here and re-encoded with ToJSON is byte-stable modulo
// whitespace.
func FromJSON(data []byte) (*udm.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("usdl: trailing content after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*udm.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("usdl: invalid JSON: %w", err)
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*udm.Value, error) {
	switch t := tok.(type) {
	case nil:
		return udm.Null(), nil
	case bool:
		return udm.Bool(t), nil
	case string:
		return udm.String(t), nil
	case json.Number:
		n, err := udm.NumberFromString(t.String())
		if err != nil {
			return nil, fmt.Errorf("usdl: invalid JSON number %q: %w", t.String(), err)
		}
		return n, nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return nil, fmt.Errorf("usdl: unexpected JSON token %v", tok)
}

func decodeObject(dec *json.Decoder) (*udm.Value, error) {
	var props []udm.Prop
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("usdl: invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("usdl: non-string JSON object key %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		props = append(props, udm.Prop{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("usdl: invalid JSON: %w", err)
	}
	return udm.Object(props...), nil
}

func decodeArray(dec *json.Decoder) (*udm.Value, error) {
	var elems []*udm.Value
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		elems = append(elems, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("usdl: invalid JSON: %w", err)
	}
	return udm.Array(elems...), nil
}

// ToJSON encodes a value tree as compact JSON, preserving property order.
// Only scalars, arrays and plain objects are encodable; attributed or
// named objects, temporal, binary and lambda values have no JSON form
// and produce an error.
func ToJSON(v *udm.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v *udm.Value) error {
	if v.IsNull() {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind() {
	case udm.KindScalar:
		return encodeScalar(buf, v)
	case udm.KindArray:
		buf.WriteByte('[')
		for i, e := range v.Elems() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case udm.KindObject:
		if v.Name() != "" || len(v.Attrs()) > 0 || len(v.Meta()) > 0 {
			return fmt.Errorf("usdl: object with element name or attributes has no JSON form")
		}
		buf.WriteByte('{')
		for i, p := range v.Props() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, p.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	return fmt.Errorf("usdl: %s value has no JSON form", v.Kind())
}

func encodeScalar(buf *bytes.Buffer, v *udm.Value) error {
	switch v.ScalarType() {
	case udm.ScalarBool:
		b, _ := v.AsBool()
		if b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case udm.ScalarNumber:
		buf.WriteString(v.Lexical())
		return nil
	case udm.ScalarString:
		s, _ := v.AsString()
		return encodeString(buf, s)
	}
	buf.WriteString("null")
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	quoted, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(quoted)
	return nil
}
