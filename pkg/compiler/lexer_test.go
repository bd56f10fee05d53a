package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "Empty",
			input:    "",
			expected: nil,
		},
		{
			name:  "Function Header",
			input: "fn main() {}",
			expected: []Token{
				{Type: FN, Lexeme: "fn", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "main", Line: 1, Col: 4},
				{Type: LPAREN, Lexeme: "(", Line: 1, Col: 8},
				{Type: RPAREN, Lexeme: ")", Line: 1, Col: 9},
				{Type: LBRACE, Lexeme: "{", Line: 1, Col: 11},
				{Type: RBRACE, Lexeme: "}", Line: 1, Col: 12},
			},
		},
		{
			name:  "Keywords",
			input: "let if else while inline return",
			expected: []Token{
				{Type: LET, Lexeme: "let", Line: 1, Col: 1},
				{Type: IF, Lexeme: "if", Line: 1, Col: 5},
				{Type: ELSE, Lexeme: "else", Line: 1, Col: 8},
				{Type: WHILE, Lexeme: "while", Line: 1, Col: 13},
				{Type: INLINE, Lexeme: "inline", Line: 1, Col: 19},
				{Type: RETURN, Lexeme: "return", Line: 1, Col: 26},
			},
		},
		{
			name:  "Builtin Names",
			input: "x = @unit, _tmp1",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Line: 1, Col: 1},
				{Type: ASSIGN, Lexeme: "=", Line: 1, Col: 3},
				{Type: IDENTIFIER, Lexeme: "@unit", Line: 1, Col: 5},
				{Type: COMMA, Lexeme: ",", Line: 1, Col: 10},
				{Type: IDENTIFIER, Lexeme: "_tmp1", Line: 1, Col: 12},
			},
		},
		{
			name:  "Numbers",
			input: "3 2.5",
			expected: []Token{
				{Type: NUMBER, Lexeme: "3", Number: 3, Line: 1, Col: 1},
				{Type: NUMBER, Lexeme: "2.5", Number: 2.5, Line: 1, Col: 3},
			},
		},
		{
			name:  "Strings",
			input: `"a\nb" "q\"x"`,
			expected: []Token{
				{Type: STRING, Lexeme: "a\nb", Line: 1, Col: 1},
				{Type: STRING, Lexeme: `q"x`, Line: 1, Col: 8},
			},
		},
		{
			name:  "Comments And Lines",
			input: "// header\nlet x // trailing\n\tx",
			expected: []Token{
				{Type: LET, Lexeme: "let", Line: 2, Col: 1},
				{Type: IDENTIFIER, Lexeme: "x", Line: 2, Col: 5},
				{Type: IDENTIFIER, Lexeme: "x", Line: 3, Col: 2},
			},
		},
		{
			name:  "CRLF",
			input: "a\r\nb",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "a", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "b", Line: 2, Col: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			if !reflect.DeepEqual(tokens, tt.expected) {
				t.Errorf("Lex() =\n%v\nwant\n%v", tokens, tt.expected)
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		char  rune
		line  int
		col   int
		msg   string
	}{
		{"Malformed Number", "1.2.3", '1', 1, 1, `malformed number "1.2.3"`},
		{"Unexpected Character", "x = $", '$', 1, 5, `unexpected character '$'`},
		{"Unterminated String", "\n  \"abc", '"', 2, 3, "unterminated string literal"},
		{"Unknown Escape", `"\q"`, 'q', 1, 2, `unknown escape sequence \q`},
		{"Non-ASCII Digit", "x = ٣", '٣', 1, 5, `unexpected character '٣'`},
		{"Dangling Backslash", `"\`, '\\', 1, 2, `expected a character after '\'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("Lex() error = %v, want *LexError", err)
			}
			if le.Char != tt.char || le.Line != tt.line || le.Col != tt.col || le.Msg != tt.msg {
				t.Errorf("got %q %d:%d %q, want %q %d:%d %q",
					le.Char, le.Line, le.Col, le.Msg, tt.char, tt.line, tt.col, tt.msg)
			}
		})
	}
}

func TestLexKeepsTokensBeforeError(t *testing.T) {
	tokens, err := Lex("let x $")
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(tokens) != 2 {
		t.Errorf("expected the 2 tokens before the error, got %v", tokens)
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := INLINE.String(); got != "INLINE" {
		t.Errorf("INLINE.String() = %q", got)
	}
	if got := TokenType(99).String(); got != "TokenType(99)" {
		t.Errorf("TokenType(99).String() = %q", got)
	}
	if IDENTIFIER.IsKeyword() || !RETURN.IsKeyword() {
		t.Error("IsKeyword misclassifies IDENTIFIER or RETURN")
	}
}
