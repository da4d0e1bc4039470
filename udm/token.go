package udm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNull   // null
	TokenTrue   // true
	TokenFalse  // false
	TokenNumber // 123, -4.56, 1e9
	TokenString // "quoted string"

	// Structural
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLBracket // [
	TokenRBracket // ]
	TokenLParen   // (
	TokenRParen   // )
	TokenColon    // :
	TokenComma    // ,
	TokenAt       // @

	// Identifiers (bare keys, tagged-literal names)
	TokenIdent
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "ERROR"
	case TokenNull:
		return "NULL"
	case TokenTrue:
		return "TRUE"
	case TokenFalse:
		return "FALSE"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	case TokenAt:
		return "@"
	case TokenIdent:
		return "IDENT"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical token with its source position.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes UDM Language text.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []Token
	err    *ParseError
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens from the input.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok := l.nextToken()
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	if l.err != nil {
		return l.tokens, l.err
	}
	return l.tokens, nil
}

func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.currentPos()}
	}

	startPos := l.currentPos()
	ch := l.peek()

	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenLBrace, Value: "{", Pos: startPos}
	case '}':
		l.advance()
		return Token{Type: TokenRBrace, Value: "}", Pos: startPos}
	case '[':
		l.advance()
		return Token{Type: TokenLBracket, Value: "[", Pos: startPos}
	case ']':
		l.advance()
		return Token{Type: TokenRBracket, Value: "]", Pos: startPos}
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Value: "(", Pos: startPos}
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Value: ")", Pos: startPos}
	case ':':
		l.advance()
		return Token{Type: TokenColon, Value: ":", Pos: startPos}
	case ',':
		l.advance()
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case '@':
		l.advance()
		return Token{Type: TokenAt, Value: "@", Pos: startPos}
	case '"':
		return l.scanString()
	}

	if ch == '-' || isDigit(ch) {
		return l.scanNumber()
	}

	if isIdentStart(ch) {
		return l.scanIdentOrKeyword()
	}

	l.advance()
	l.fail(startPos, "unexpected character %q", ch)
	return Token{Type: TokenError, Value: string(ch), Pos: startPos}
}

// scanString scans a quoted string with JSON-style escapes.
func (l *Lexer) scanString() Token {
	startPos := l.currentPos()
	l.advance() // consume opening "

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			l.fail(startPos, "unterminated string")
			return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
		}

		ch := l.peek()
		if ch == '"' {
			l.advance()
			break
		}
		if ch == '\n' {
			l.fail(startPos, "unterminated string")
			return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
		}

		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				l.fail(l.currentPos(), "unterminated escape")
				return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
			}
			escaped := l.peek()
			l.advance()
			switch escaped {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'u':
				if l.pos+4 > len(l.input) {
					l.fail(l.currentPos(), "incomplete \\u escape")
					return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
				}
				hex := l.input[l.pos : l.pos+4]
				code, err := strconv.ParseUint(hex, 16, 32)
				if err != nil {
					l.fail(l.currentPos(), "invalid \\u escape %q", hex)
					return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
				}
				for i := 0; i < 4; i++ {
					l.advance()
				}
				r := rune(code)
				if utf16.IsSurrogate(r) {
					// A high surrogate combines with an immediately
					// following \u low surrogate; anything unpaired decodes
					// to U+FFFD, matching encoding/json.
					if l.pos+6 <= len(l.input) && l.input[l.pos] == '\\' && l.input[l.pos+1] == 'u' {
						if lo, err := strconv.ParseUint(l.input[l.pos+2:l.pos+6], 16, 32); err == nil {
							if dec := utf16.DecodeRune(r, rune(lo)); dec != unicode.ReplacementChar {
								for i := 0; i < 6; i++ {
									l.advance()
								}
								r = dec
							}
						}
					}
					if utf16.IsSurrogate(r) {
						r = unicode.ReplacementChar
					}
				}
				sb.WriteRune(r)
			default:
				l.fail(l.currentPos(), "invalid escape \\%c", escaped)
				return Token{Type: TokenError, Value: sb.String(), Pos: startPos}
			}
		} else {
			sb.WriteByte(ch)
			l.advance()
		}
	}

	return Token{Type: TokenString, Value: sb.String(), Pos: startPos}
}

// scanNumber scans a JSON-style number.
func (l *Lexer) scanNumber() Token {
	startPos := l.currentPos()
	start := l.pos

	if l.peek() == '-' {
		l.advance()
	}

	if l.pos >= len(l.input) || !isDigit(l.peek()) {
		l.fail(startPos, "invalid number")
		return Token{Type: TokenError, Value: l.input[start:l.pos], Pos: startPos}
	}
	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.advance()
	}

	if l.pos < len(l.input) && l.peek() == '.' {
		l.advance()
		if l.pos >= len(l.input) || !isDigit(l.peek()) {
			l.fail(startPos, "invalid number: missing fraction digits")
			return Token{Type: TokenError, Value: l.input[start:l.pos], Pos: startPos}
		}
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.pos < len(l.input) && (l.peek() == 'e' || l.peek() == 'E') {
		l.advance()
		if l.pos < len(l.input) && (l.peek() == '+' || l.peek() == '-') {
			l.advance()
		}
		if l.pos >= len(l.input) || !isDigit(l.peek()) {
			l.fail(startPos, "invalid number: missing exponent digits")
			return Token{Type: TokenError, Value: l.input[start:l.pos], Pos: startPos}
		}
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
		}
	}

	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: startPos}
}

// scanIdentOrKeyword scans a bare identifier or literal keyword.
func (l *Lexer) scanIdentOrKeyword() Token {
	startPos := l.currentPos()
	start := l.pos

	for l.pos < len(l.input) && isIdentContinue(l.peek()) {
		l.advance()
	}

	value := l.input[start:l.pos]

	switch value {
	case "null":
		return Token{Type: TokenNull, Value: value, Pos: startPos}
	case "true":
		return Token{Type: TokenTrue, Value: value, Pos: startPos}
	case "false":
		return Token{Type: TokenFalse, Value: value, Pos: startPos}
	}

	return Token{Type: TokenIdent, Value: value, Pos: startPos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) fail(pos Position, format string, args ...any) {
	if l.err == nil {
		l.err = &ParseError{Message: fmt.Sprintf(format, args...), Pos: pos}
	}
}

// Character classification

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

// TokenStream provides a cursor over lexed tokens.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream creates a token stream from tokens.
func NewTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if ts.pos >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[ts.pos]
}

// PeekN returns the token N positions ahead.
func (ts *TokenStream) PeekN(n int) Token {
	idx := ts.pos + n
	if idx >= len(ts.tokens) {
		return Token{Type: TokenEOF}
	}
	return ts.tokens[idx]
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if ts.pos < len(ts.tokens) {
		ts.pos++
	}
	return tok
}

// Match advances and returns true if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// AtEnd returns true if at end of stream.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}
