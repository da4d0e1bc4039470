package udm

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseError represents a parsing error with its source location.
// Parsing never partially succeeds: on error no tree is returned.
type ParseError struct {
	Message string
	Pos     Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("udm: %s at %s", e.Message, e.Pos)
}

// Document is a parsed UDM Language document: the optional header version
// and the single root expression.
type Document struct {
	Version string
	Root    *Value
}

// headerPrefix is the document header directive.
const headerPrefix = "@udm-version:"

// Parse parses UDM Language text into a value tree.
func Parse(input string) (*Value, error) {
	doc, err := ParseDocument(input)
	if err != nil {
		return nil, err
	}
	return doc.Root, nil
}

// ParseDocument parses UDM Language text, returning the header version
// (empty when no header) alongside the root value.
func ParseDocument(input string) (*Document, error) {
	version, body, startLine := splitHeader(input)

	lexer := NewLexer(body)
	lexer.line = startLine
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &Parser{stream: NewTokenStream(tokens)}
	root, perr := p.parseValue()
	if perr != nil {
		return nil, perr
	}
	if !p.stream.AtEnd() {
		tok := p.stream.Peek()
		return nil, p.errorf(tok.Pos, "unexpected %s after root expression", tok.Type)
	}
	return &Document{Version: version, Root: root}, nil
}

// splitHeader strips the optional @udm-version header line. It returns the
// version, the remaining body, and the line number the body starts on so
// error positions stay accurate.
func splitHeader(input string) (version, body string, startLine int) {
	s := input
	line := 1
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\r') {
			j++
		}
		if j < len(s) && s[j] == '\n' {
			line++
			i = j + 1
			continue
		}
		break
	}
	if !strings.HasPrefix(s[i:], headerPrefix) {
		return "", input, 1
	}
	rest := s[i+len(headerPrefix):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return strings.TrimSpace(rest), "", line + 1
	}
	return strings.TrimSpace(rest[:nl]), rest[nl+1:], line + 1
}

// Parser is a strict recursive-descent parser over UDM Language tokens.
type Parser struct {
	stream *TokenStream
}

func (p *Parser) errorf(pos Position, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// parseValue parses any expression.
func (p *Parser) parseValue() (*Value, *ParseError) {
	tok := p.stream.Peek()

	switch tok.Type {
	case TokenNull:
		p.stream.Advance()
		return at(Null(), tok.Pos), nil

	case TokenTrue:
		p.stream.Advance()
		return at(Bool(true), tok.Pos), nil

	case TokenFalse:
		p.stream.Advance()
		return at(Bool(false), tok.Pos), nil

	case TokenNumber:
		p.stream.Advance()
		v, err := NumberFromString(tok.Value)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid number %q", tok.Value)
		}
		return at(v, tok.Pos), nil

	case TokenString:
		p.stream.Advance()
		return at(String(tok.Value), tok.Pos), nil

	case TokenLBracket:
		return p.parseArray()

	case TokenLBrace:
		return p.parseObject("", nil)

	case TokenAt:
		return p.parseTagged()

	case TokenEOF:
		return nil, p.errorf(tok.Pos, "unexpected end of input, expected a value")

	default:
		return nil, p.errorf(tok.Pos, "unexpected %s where a value is expected", tok.Type)
	}
}

// parseArray parses [expr, expr, ...].
func (p *Parser) parseArray() (*Value, *ParseError) {
	open := p.stream.Advance() // consume [

	var elems []*Value
	if p.stream.Match(TokenRBracket) {
		return at(Array(), open.Pos), nil
	}

	for {
		elem, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)

		tok := p.stream.Advance()
		switch tok.Type {
		case TokenComma:
			continue
		case TokenRBracket:
			return at(Array(elems...), open.Pos), nil
		case TokenEOF:
			return nil, p.errorf(tok.Pos, "unterminated array")
		default:
			return nil, p.errorf(tok.Pos, "expected , or ] in array, got %s", tok.Type)
		}
	}
}

// rawEntry is one key/value pair read during the first phase of object
// parsing, before the reserved-section fold.
type rawEntry struct {
	key   string
	pos   Position
	value *Value
}

// parseObject parses an object body. name and annMeta come from a
// preceding @Name(metadata: {...}) annotation; both empty for a bare `{`.
//
// Parsing is two-phase: raw key/value pairs are collected first, then
// foldEntries decides between the shorthand and full-form interpretation.
// The fold is the single place the reserved section keywords are consumed,
// so the no-leakage invariant is auditable here.
func (p *Parser) parseObject(name string, annMeta []Attr) (*Value, *ParseError) {
	open := p.stream.Advance() // consume {

	entries, err := p.parseRawEntries(open.Pos)
	if err != nil {
		return nil, err
	}
	v, err := p.foldEntries(entries, name, annMeta, open.Pos)
	if err != nil {
		return nil, err
	}
	return at(v, open.Pos), nil
}

// parseRawEntries reads (key: value) pairs up to the closing brace.
func (p *Parser) parseRawEntries(openPos Position) ([]rawEntry, *ParseError) {
	var entries []rawEntry
	seen := make(map[string]struct{})

	if p.stream.Match(TokenRBrace) {
		return entries, nil
	}

	for {
		keyTok := p.stream.Advance()
		var key string
		switch keyTok.Type {
		case TokenIdent, TokenString:
			key = keyTok.Value
		case TokenEOF:
			return nil, p.errorf(keyTok.Pos, "unterminated object (opened at %s)", openPos)
		default:
			return nil, p.errorf(keyTok.Pos, "expected object key, got %s", keyTok.Type)
		}
		if key == "" {
			return nil, p.errorf(keyTok.Pos, "object key must not be empty")
		}
		if _, dup := seen[key]; dup {
			return nil, p.errorf(keyTok.Pos, "duplicate object key %q", key)
		}
		seen[key] = struct{}{}

		if colon := p.stream.Advance(); colon.Type != TokenColon {
			return nil, p.errorf(colon.Pos, "expected : after key %q, got %s", key, colon.Type)
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		entries = append(entries, rawEntry{key: key, pos: keyTok.Pos, value: value})

		tok := p.stream.Advance()
		switch tok.Type {
		case TokenComma:
			continue
		case TokenRBrace:
			return entries, nil
		case TokenEOF:
			return nil, p.errorf(tok.Pos, "unterminated object (opened at %s)", openPos)
		default:
			return nil, p.errorf(tok.Pos, "expected , or } in object, got %s", tok.Type)
		}
	}
}

// foldEntries applies the reserved-section fold. Shorthand objects map
// entries straight to properties; full-form objects fold the attributes,
// properties and metadata wrapper sections into the object's own maps,
// discarding the wrapper keys entirely.
func (p *Parser) foldEntries(entries []rawEntry, name string, annMeta []Attr, openPos Position) (*Value, *ParseError) {
	fullForm := name != "" || annMeta != nil
	for _, e := range entries {
		if isReservedKey(e.key) {
			fullForm = true
			break
		}
	}

	if !fullForm {
		props := make([]Prop, 0, len(entries))
		for _, e := range entries {
			props = append(props, Prop{Key: e.key, Value: e.value})
		}
		obj, err := ParsedObject(props, nil, "", nil)
		if err != nil {
			return nil, p.errorf(openPos, "%v", err)
		}
		return obj, nil
	}

	var props []Prop
	var attrs, meta []Attr
	for _, e := range entries {
		switch e.key {
		case "attributes":
			list, err := p.sectionAttrs(e)
			if err != nil {
				return nil, err
			}
			attrs = list
		case "metadata":
			if annMeta != nil {
				return nil, p.errorf(e.pos, "metadata given both in annotation and section")
			}
			list, err := p.sectionAttrs(e)
			if err != nil {
				return nil, err
			}
			meta = list
		case "properties":
			list, err := p.sectionProps(e)
			if err != nil {
				return nil, err
			}
			props = list
		default:
			return nil, p.errorf(e.pos, "data key %q must appear inside a properties section", e.key)
		}
	}
	if annMeta != nil {
		meta = annMeta
	}

	obj, err := ParsedObject(props, attrs, name, meta)
	if err != nil {
		return nil, p.errorf(openPos, "%v", err)
	}
	return obj, nil
}

// sectionProps extracts the property list from a properties: {...} section.
func (p *Parser) sectionProps(e rawEntry) ([]Prop, *ParseError) {
	obj := e.value
	if !obj.IsObject() {
		return nil, p.errorf(e.pos, "properties section must be an object, got %s", obj.describe())
	}
	// A folded section value means reserved keys sat directly inside the
	// section, which the grammar forbids.
	if len(obj.attrs) > 0 || len(obj.meta) > 0 || obj.name != "" {
		return nil, p.errorf(e.pos, "reserved section keys cannot appear directly inside a properties section")
	}
	return obj.props, nil
}

// sectionAttrs extracts a string map from an attributes: or metadata:
// section.
func (p *Parser) sectionAttrs(e rawEntry) ([]Attr, *ParseError) {
	obj := e.value
	if !obj.IsObject() {
		return nil, p.errorf(e.pos, "%s section must be an object, got %s", e.key, obj.describe())
	}
	if len(obj.attrs) > 0 || len(obj.meta) > 0 || obj.name != "" {
		return nil, p.errorf(e.pos, "reserved section keys cannot appear directly inside an %s section", e.key)
	}
	list := make([]Attr, 0, len(obj.props))
	for _, prop := range obj.props {
		s, err := prop.Value.AsString()
		if err != nil {
			return nil, p.errorf(e.pos, "%s section entry %q must be a string, got %s", e.key, prop.Key, prop.Value.describe())
		}
		list = append(list, Attr{Key: prop.Key, Value: s})
	}
	return list, nil
}

// taggedLiterals are the recognized @Tag(...) literal names.
var taggedLiterals = map[string]Kind{
	"DateTime":      KindDateTime,
	"Date":          KindDate,
	"LocalDateTime": KindLocalDateTime,
	"Time":          KindTime,
}

// parseTagged parses everything that starts with @: temporal, binary and
// lambda tagged literals, or a full-form element annotation.
func (p *Parser) parseTagged() (*Value, *ParseError) {
	atTok := p.stream.Advance() // consume @

	identTok := p.stream.Advance()
	var tag string
	quotedName := false
	switch identTok.Type {
	case TokenIdent:
		tag = identTok.Value
	case TokenString:
		// Quoted element names (e.g. XML "ns:element") are always
		// annotations, never tagged literals.
		tag = identTok.Value
		quotedName = true
	default:
		return nil, p.errorf(identTok.Pos, "expected tag name after @, got %s", identTok.Type)
	}
	if tag == "" {
		return nil, p.errorf(identTok.Pos, "element name must not be empty")
	}

	if !quotedName {
		if kind, ok := taggedLiterals[tag]; ok {
			return p.parseTemporalLiteral(kind, tag, atTok.Pos)
		}
		if tag == "Binary" {
			return p.parseBinaryLiteral(atTok.Pos)
		}
		if tag == "Lambda" {
			return p.parseLambdaLiteral(atTok.Pos)
		}
	}

	// Anything else must be a full-form element annotation:
	// @Name { ... } or @Name(metadata: {...}) { ... }. A parenthesized
	// body that does not open a metadata section is some other call shape,
	// which no known tagged literal matches.
	next := p.stream.Peek()
	if next.Type != TokenLParen && next.Type != TokenLBrace {
		return nil, p.errorf(atTok.Pos, "unknown tagged literal @%s", tag)
	}
	if next.Type == TokenLParen && !quotedName {
		after := p.stream.PeekN(1)
		isMetadata := after.Type == TokenIdent && after.Value == "metadata"
		if !isMetadata && after.Type != TokenRParen {
			return nil, p.errorf(atTok.Pos, "unknown tagged literal @%s", tag)
		}
	}

	var annMeta []Attr
	if p.stream.Match(TokenLParen) {
		if !p.stream.Match(TokenRParen) {
			keyTok := p.stream.Advance()
			if keyTok.Type != TokenIdent || keyTok.Value != "metadata" {
				return nil, p.errorf(keyTok.Pos, "expected metadata section in @%s annotation", tag)
			}
			if colon := p.stream.Advance(); colon.Type != TokenColon {
				return nil, p.errorf(colon.Pos, "expected : after metadata")
			}
			metaVal, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			list, perr := p.sectionAttrs(rawEntry{key: "metadata", pos: keyTok.Pos, value: metaVal})
			if perr != nil {
				return nil, perr
			}
			annMeta = list
			if closing := p.stream.Advance(); closing.Type != TokenRParen {
				return nil, p.errorf(closing.Pos, "expected ) after annotation metadata")
			}
		}
	}

	if p.stream.Peek().Type != TokenLBrace {
		return nil, p.errorf(p.stream.Peek().Pos, "expected { after @%s annotation", tag)
	}
	return p.parseObject(tag, annMeta)
}

// parseTemporalLiteral parses @DateTime("..."), @Date("..."), etc.
func (p *Parser) parseTemporalLiteral(kind Kind, tag string, pos Position) (*Value, *ParseError) {
	if open := p.stream.Advance(); open.Type != TokenLParen {
		return nil, p.errorf(open.Pos, "expected ( after @%s", tag)
	}
	strTok := p.stream.Advance()
	if strTok.Type != TokenString {
		return nil, p.errorf(strTok.Pos, "expected string literal inside @%s(...)", tag)
	}
	if closing := p.stream.Advance(); closing.Type != TokenRParen {
		return nil, p.errorf(closing.Pos, "expected ) after @%s literal", tag)
	}

	var v *Value
	var err error
	switch kind {
	case KindDateTime:
		v, err = DateTime(strTok.Value)
	case KindDate:
		v, err = Date(strTok.Value)
	case KindLocalDateTime:
		v, err = LocalDateTime(strTok.Value)
	case KindTime:
		v, err = TimeOfDay(strTok.Value)
	}
	if err != nil {
		return nil, p.errorf(strTok.Pos, "%v", err)
	}
	return at(v, pos), nil
}

// parseBinaryLiteral parses @Binary(encoding: "...", size: N, data: "...").
func (p *Parser) parseBinaryLiteral(pos Position) (*Value, *ParseError) {
	args, err := p.parseTaggedArgs("Binary", []string{"encoding", "size", "data"})
	if err != nil {
		return nil, err
	}

	encStr, aerr := args["encoding"].value.AsString()
	if aerr != nil {
		return nil, p.errorf(args["encoding"].pos, "Binary encoding must be a string")
	}
	var encoding BinaryEncoding
	switch encStr {
	case "base64":
		encoding = EncodingBase64
	case "hex":
		encoding = EncodingHex
	default:
		return nil, p.errorf(args["encoding"].pos, "unknown Binary encoding %q", encStr)
	}

	size, aerr := args["size"].value.AsNumber()
	if aerr != nil || !args["size"].value.IsIntegral() || size < 0 {
		return nil, p.errorf(args["size"].pos, "Binary size must be a non-negative integer")
	}

	payload, aerr := args["data"].value.AsString()
	if aerr != nil {
		return nil, p.errorf(args["data"].pos, "Binary data must be a string")
	}

	var data []byte
	var decErr error
	if encoding == EncodingHex {
		data, decErr = hex.DecodeString(payload)
	} else {
		data, decErr = base64.StdEncoding.DecodeString(payload)
	}
	if decErr != nil {
		return nil, p.errorf(args["data"].pos, "invalid %s payload: %v", encStr, decErr)
	}

	return at(Binary(data, encoding, int(size)), pos), nil
}

// parseLambdaLiteral parses @Lambda(id: "...", arity: N).
func (p *Parser) parseLambdaLiteral(pos Position) (*Value, *ParseError) {
	args, err := p.parseTaggedArgs("Lambda", []string{"id", "arity"})
	if err != nil {
		return nil, err
	}

	id, aerr := args["id"].value.AsString()
	if aerr != nil {
		return nil, p.errorf(args["id"].pos, "Lambda id must be a string")
	}
	arity, aerr := args["arity"].value.AsNumber()
	if aerr != nil || !args["arity"].value.IsIntegral() {
		return nil, p.errorf(args["arity"].pos, "Lambda arity must be an integer")
	}

	v, lerr := Lambda(id, int(arity))
	if lerr != nil {
		return nil, p.errorf(pos, "%v", lerr)
	}
	return at(v, pos), nil
}

// parseTaggedArgs parses (key: value, ...) requiring exactly the given
// argument names, in any order.
func (p *Parser) parseTaggedArgs(tag string, required []string) (map[string]rawEntry, *ParseError) {
	open := p.stream.Advance()
	if open.Type != TokenLParen {
		return nil, p.errorf(open.Pos, "expected ( after @%s", tag)
	}

	allowed := make(map[string]bool, len(required))
	for _, name := range required {
		allowed[name] = true
	}

	args := make(map[string]rawEntry)
	for {
		keyTok := p.stream.Advance()
		if keyTok.Type != TokenIdent {
			return nil, p.errorf(keyTok.Pos, "expected argument name in @%s(...), got %s", tag, keyTok.Type)
		}
		if !allowed[keyTok.Value] {
			return nil, p.errorf(keyTok.Pos, "unknown @%s argument %q", tag, keyTok.Value)
		}
		if _, dup := args[keyTok.Value]; dup {
			return nil, p.errorf(keyTok.Pos, "duplicate @%s argument %q", tag, keyTok.Value)
		}
		if colon := p.stream.Advance(); colon.Type != TokenColon {
			return nil, p.errorf(colon.Pos, "expected : after @%s argument %q", tag, keyTok.Value)
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		args[keyTok.Value] = rawEntry{key: keyTok.Value, pos: keyTok.Pos, value: value}

		tok := p.stream.Advance()
		if tok.Type == TokenComma {
			continue
		}
		if tok.Type == TokenRParen {
			break
		}
		return nil, p.errorf(tok.Pos, "expected , or ) in @%s(...), got %s", tag, tok.Type)
	}

	for _, name := range required {
		if _, ok := args[name]; !ok {
			return nil, p.errorf(open.Pos, "@%s requires argument %q", tag, name)
		}
	}
	return args, nil
}

// at attaches a source position to a parsed value.
func at(v *Value, pos Position) *Value {
	v.pos = pos
	return v
}
