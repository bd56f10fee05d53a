package compiler

import (
	"fmt"
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"fn":     FN,
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"inline": INLINE,
	"return": RETURN,
}

// punctuation maps single-character tokens to their TokenType.
var punctuation = map[rune]TokenType{
	'{': LBRACE,
	'}': RBRACE,
	'(': LPAREN,
	')': RPAREN,
	'=': ASSIGN,
	',': COMMA,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based source column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// advance consumes one rune and returns it, keeping line and column current.
// A carriage return does not move the column.
func (l *Lexer) advance() rune {
	if l.atEnd() {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	switch r {
	case '\n':
		l.line++
		l.col = 1
	case '\r':
	default:
		l.col++
	}
	return r
}

func (l *Lexer) errorf(ch rune, line, col int, format string, args ...any) *LexError {
	return &LexError{Msg: fmt.Sprintf(format, args...), Char: ch, Line: line, Col: col}
}

// skipTrivia discards whitespace and // comments.
func (l *Lexer) skipTrivia() {
	for !l.atEnd() {
		switch r := l.peek(); {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '/' && l.peek2() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// isDigit accepts ASCII digits only; other Unicode digits are not numbers.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '@'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// scanIdent collects an identifier or keyword. The first rune must still be
// at l.peek().
func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	l.advance()
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}
}

// scanNumber collects a run of digits and dots. The run is handed to
// strconv.ParseFloat as a whole, so "1.2.3" is rejected rather than split.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	for !l.atEnd() && (isDigit(l.peek()) || l.peek() == '.') {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{}, l.errorf(l.src[start], line, col, "malformed number %q", lexeme)
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Number: v, Line: line, Col: col}, nil
}

// scanString collects a string literal "...". Strings may span lines.
func (l *Lexer) scanString() (Token, error) {
	line, col := l.line, l.col
	l.advance() // opening "
	var val []rune
	for {
		if l.atEnd() {
			return Token{}, l.errorf('"', line, col, "unterminated string literal")
		}
		escLine, escCol := l.line, l.col
		r := l.advance()
		switch r {
		case '"':
			return Token{Type: STRING, Lexeme: string(val), Line: line, Col: col}, nil
		case '\\':
			if l.atEnd() {
				return Token{}, l.errorf('\\', escLine, escCol, "expected a character after '\\'")
			}
			next := l.advance()
			switch next {
			case '\\':
				val = append(val, '\\')
			case '"':
				val = append(val, '"')
			case 'n':
				val = append(val, '\n')
			default:
				return Token{}, l.errorf(next, escLine, escCol, "unknown escape sequence \\%c", next)
			}
		default:
			val = append(val, r)
		}
	}
}

// nextToken returns the next token, or ok=false at end of input.
func (l *Lexer) nextToken() (tok Token, ok bool, err error) {
	l.skipTrivia()
	if l.atEnd() {
		return Token{}, false, nil
	}

	ch := l.peek()
	switch {
	case isIdentStart(ch):
		return l.scanIdent(), true, nil
	case isDigit(ch):
		tok, err = l.scanNumber()
		return tok, err == nil, err
	case ch == '"':
		tok, err = l.scanString()
		return tok, err == nil, err
	}

	if tt, found := punctuation[ch]; found {
		line, col := l.line, l.col
		l.advance()
		return Token{Type: tt, Lexeme: string(ch), Line: line, Col: col}, true, nil
	}
	return Token{}, false, l.errorf(ch, l.line, l.col, "unexpected character %q", ch)
}

// Lex tokenises src. Unlike the parser's cursor it does not append an EOF
// token: the returned slice holds exactly the tokens of the source.
// It returns a *LexError on the first character it cannot handle.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, ok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
