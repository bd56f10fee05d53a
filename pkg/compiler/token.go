package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: past the last token

	// Literals
	IDENTIFIER // variable / function name, may start with '@'
	NUMBER     // numeric literal, value in Token.Number
	STRING     // string literal "...", unescaped text in Token.Lexeme

	// Keywords
	FN     // "fn"
	LET    // "let"
	IF     // "if"
	ELSE   // "else"
	WHILE  // "while"
	INLINE // "inline"
	RETURN // "return"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	ASSIGN // =
	COMMA  // ,
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	FN:         "FN",
	LET:        "LET",
	IF:         "IF",
	ELSE:       "ELSE",
	WHILE:      "WHILE",
	INLINE:     "INLINE",
	RETURN:     "RETURN",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	ASSIGN:     "ASSIGN",
	COMMA:      "COMMA",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// IsKeyword reports whether tt is one of the reserved words or punctuation
// kinds, as opposed to an identifier or literal.
func (tt TokenType) IsKeyword() bool {
	return tt >= FN
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string  // source text; for STRING the unescaped contents
	Number float64 // parsed value when Type == NUMBER
	Line   int     // 1-based source line
	Col    int     // 1-based source column of the first character
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}

// describe renders a token for use inside error messages.
func (t Token) describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("string %q", t.Lexeme)
	case IDENTIFIER, NUMBER:
		return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
	default:
		return fmt.Sprintf("%q", t.Lexeme)
	}
}
