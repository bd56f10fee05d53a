package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ParseSource(src)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	return prog
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Stmt
	}{
		{
			name:     "Empty Body",
			input:    "fn main() {}",
			expected: nil,
		},
		{
			name:  "Local And Assignment",
			input: "fn main() { let x\n x = add(1, g) }",
			expected: []Stmt{
				&LocalVarDecl{Name: "x"},
				&Assignment{Target: "x", Value: &FunctionCall{
					Name: "add",
					Args: []Expr{&NumberLiteral{Value: 1}, &VarRef{Name: "g"}},
				}},
			},
		},
		{
			name:  "Expression Statements",
			input: `fn main() { print("hi") printflush(@message1) ucontrolIdle() }`,
			expected: []Stmt{
				&ExprStmt{Expr: &FunctionCall{Name: "print", Args: []Expr{&StringLiteral{Value: "hi"}}}},
				&ExprStmt{Expr: &FunctionCall{Name: "printflush", Args: []Expr{&VarRef{Name: "@message1"}}}},
				&ExprStmt{Expr: &FunctionCall{Name: "ucontrolIdle"}},
			},
		},
		{
			name:  "If Else",
			input: "fn main() { if x { return 1 } else { return } }",
			expected: []Stmt{
				&IfStmt{
					Condition: &VarRef{Name: "x"},
					Then:      []Stmt{&ReturnStmt{Value: &NumberLiteral{Value: 1}}},
					Else:      []Stmt{&ReturnStmt{}},
				},
			},
		},
		{
			name:  "If Without Else",
			input: "fn main() { if lessThan(a, 2) { a = 2 } }",
			expected: []Stmt{
				&IfStmt{
					Condition: &FunctionCall{Name: "lessThan", Args: []Expr{&VarRef{Name: "a"}, &NumberLiteral{Value: 2}}},
					Then:      []Stmt{&Assignment{Target: "a", Value: &NumberLiteral{Value: 2}}},
				},
			},
		},
		{
			name:  "While",
			input: "fn main() { while 1 { wait(0.5) } }",
			expected: []Stmt{
				&WhileStmt{
					Condition: &NumberLiteral{Value: 1},
					Body: []Stmt{
						&ExprStmt{Expr: &FunctionCall{Name: "wait", Args: []Expr{&NumberLiteral{Value: 0.5}}}},
					},
				},
			},
		},
		{
			name:  "Bare Return Before Assignment",
			input: "fn main() { return\n y = 3 }",
			expected: []Stmt{
				&ReturnStmt{},
				&Assignment{Target: "y", Value: &NumberLiteral{Value: 3}},
			},
		},
		{
			name:  "Nested Calls",
			input: "fn main() { x = max(abs(y), 2) }",
			expected: []Stmt{
				&Assignment{Target: "x", Value: &FunctionCall{
					Name: "max",
					Args: []Expr{
						&FunctionCall{Name: "abs", Args: []Expr{&VarRef{Name: "y"}}},
						&NumberLiteral{Value: 2},
					},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			got := prog.Functions["main"].Body
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("body = %s\nwant %s", blockString(got), blockString(tt.expected))
			}
		})
	}
}

func TestParseDeclarations(t *testing.T) {
	prog := mustParse(t, "let g\ninline fn twice(a, b) { return add(a, b) }\nfn main() {}\nlet h")

	if len(prog.Globals) != 2 || prog.Globals["g"] == nil || prog.Globals["h"] == nil {
		t.Errorf("globals = %v", prog.Globals)
	}
	twice := prog.Functions["twice"]
	if twice == nil {
		t.Fatal("function twice not parsed")
	}
	if twice.Style != Inline {
		t.Errorf("twice.Style = %v, want inline", twice.Style)
	}
	if !reflect.DeepEqual(twice.Params, []string{"a", "b"}) {
		t.Errorf("twice.Params = %v", twice.Params)
	}
	if main := prog.Functions["main"]; main.Style != Normal || main.Params != nil {
		t.Errorf("main = %v", main)
	}
	if got := prog.FunctionNames(); !reflect.DeepEqual(got, []string{"main", "twice"}) {
		t.Errorf("FunctionNames() = %v", got)
	}
}

func TestParseGlobalAndSameLineLocals(t *testing.T) {
	prog := mustParse(t, "let x fn main() { let y y = 5 }")
	if len(prog.Globals) != 1 || prog.Globals["x"] == nil {
		t.Errorf("globals = %v", prog.Globals)
	}
	expected := []Stmt{
		&LocalVarDecl{Name: "y"},
		&Assignment{Target: "y", Value: &NumberLiteral{Value: 5}},
	}
	if got := prog.Functions["main"].Body; !reflect.DeepEqual(got, expected) {
		t.Errorf("body = %s\nwant %s", blockString(got), blockString(expected))
	}
}

func TestParseStatementCommitsToAssignment(t *testing.T) {
	tokens, err := Lex("x = }")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	p := NewParser(tokens)
	stmt, err := p.parseStatement()
	if err == nil {
		t.Fatalf("parseStatement() = %v, want an error", stmt)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 1 || pe.Col != 5 {
		t.Errorf("error = %v, want one at 1:5", err)
	}
	if p.pos != 0 {
		t.Errorf("cursor moved to %d after a failed statement", p.pos)
	}

	tokens, _ = Lex("x =")
	if _, err := NewParser(tokens).parseStatement(); !IsIncomplete(err) {
		t.Errorf("assignment cut off at the '=' should be incomplete, got %v", err)
	}
}

func TestProgramString(t *testing.T) {
	prog := mustParse(t, "let b\nlet a\nfn main() { x = 1 }")
	expected := "GlobalVar(a)\nGlobalVar(b)\nFunction(normal main(), body={Assignment(x = 1)})\n"
	if got := prog.String(); got != expected {
		t.Errorf("String() =\n%q\nwant\n%q", got, expected)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		line, col  int
		msg        string
		incomplete bool
	}{
		{"Duplicate Global", "let g\nlet g", 2, 1, `duplicate global variable "g"`, false},
		{"Duplicate Function", "fn main() {}\nfn main() {}", 2, 1, `duplicate function "main"`, false},
		{"Duplicate Parameter", "fn f(a, a) {}", 1, 1, `duplicate parameter "a"`, false},
		{"Bad Parameter List", "fn main( {", 1, 1, "expected parameter name", false},
		{"Dangling Assignment", "fn main() { x = }", 1, 1, "1:17: invalid expression", false},
		{"Stray Token", "fn main() {} }", 1, 14, "invalid declaration", false},
		{"Open Block", "fn main() {", 1, 1, "invalid declaration", true},
		{"Open Params", "fn main(", 1, 1, "invalid declaration", true},
		{"Let Without Name", "let", 1, 1, "invalid declaration", true},
		{"Open If", "fn main() { if x {", 1, 1, "invalid declaration", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.input)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseSource() error = %v, want *ParseError", err)
			}
			if pe.Line != tt.line || pe.Col != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", pe.Line, pe.Col, tt.line, tt.col)
			}
			if !strings.Contains(pe.Msg, tt.msg) {
				t.Errorf("message %q does not mention %q", pe.Msg, tt.msg)
			}
			if IsIncomplete(err) != tt.incomplete {
				t.Errorf("IsIncomplete() = %v, want %v", IsIncomplete(err), tt.incomplete)
			}
		})
	}
}

func TestParseEmptyProgram(t *testing.T) {
	prog := mustParse(t, "   // nothing here\n")
	if len(prog.Globals) != 0 || len(prog.Functions) != 0 {
		t.Errorf("expected an empty program, got %v", prog)
	}
}
