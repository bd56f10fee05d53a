package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// LexError reports a character the lexer could not turn into a token.
type LexError struct {
	Msg  string
	Char rune // offending character, 0 at end of input
	Line int  // 1-based
	Col  int  // 1-based
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseError reports a production that failed to match. Composite
// productions fold the messages of all their alternatives into Msg.
type ParseError struct {
	Msg  string
	Line int // position of the token the failing production started at
	Col  int

	// Incomplete is set when the parser ran out of tokens, meaning more
	// input could still turn this into a valid program.
	Incomplete bool
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err is a parse error caused by premature end
// of input.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}

// GenErrorKind classifies code generation failures.
type GenErrorKind int

const (
	UndefinedVariable GenErrorKind = iota
	UndefinedFunction
	ArityMismatch
	ArgumentKindMismatch
	ReservedName
	Recursion
	NoValue
)

var genErrorKindNames = [...]string{
	UndefinedVariable:    "undefined variable",
	UndefinedFunction:    "undefined function",
	ArityMismatch:        "arity mismatch",
	ArgumentKindMismatch: "argument kind mismatch",
	ReservedName:         "reserved name",
	Recursion:            "recursion",
	NoValue:              "no value",
}

func (k GenErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(genErrorKindNames) {
		return genErrorKindNames[k]
	}
	return fmt.Sprintf("GenErrorKind(%d)", int(k))
}

// GenError is returned by Generate.
type GenError struct {
	Kind GenErrorKind
	Name string // variable or function the error is about
	Pos  int    // 1-based argument position for ArgumentKindMismatch, else 0
	Msg  string // extra detail, may be empty
}

func (e *GenError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Name != "" {
		fmt.Fprintf(&sb, " %q", e.Name)
	}
	if e.Pos > 0 {
		fmt.Fprintf(&sb, " (argument %d)", e.Pos)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

// RenderError formats lexer and parser errors with the offending source line
// and a caret under the column. Other errors are returned unchanged.
//
//	parse error at 3:5: expected block
//	   3 | fn main( {
//	     |     ^
func RenderError(err error, name, src string) error {
	var le *LexError
	var pe *ParseError
	switch {
	case errors.As(err, &le):
		return errors.New(snippet(src, "lex error", name, le.Line, le.Col, le.Msg))
	case errors.As(err, &pe) && pe.Line > 0:
		return errors.New(snippet(src, "parse error", name, pe.Line, pe.Col, pe.Msg))
	default:
		return err
	}
}

func snippet(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var sb strings.Builder
	sb.WriteString(header)
	if name != "" {
		fmt.Fprintf(&sb, " in %s", name)
	}
	fmt.Fprintf(&sb, " at %d:%d: %s\n", line, col, msg)

	text := strings.TrimRight(lines[line-1], "\r")
	gutter := fmt.Sprintf("%4d | ", line)
	sb.WriteString(gutter)
	sb.WriteString(text)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(gutter)-2))
	sb.WriteString("| ")
	// Tabs are kept so the caret lines up in terminals.
	for i, r := range []rune(text) {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte('^')
	return sb.String()
}
