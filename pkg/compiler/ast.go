package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// FunctionCall represents name(args). The name is either an intrinsic or a
// user function; the generator decides which.
//
//	x = add(1, y)
//	    ^^^^^^^^^  FunctionCall{Name: "add", Args: [1, y]}
type FunctionCall struct {
	Name string
	Args []Expr
}

func (*FunctionCall) exprNode() {}
func (c *FunctionCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// StringLiteral is a string constant "...". Value holds the unescaped text.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode()        {}
func (s *StringLiteral) String() string { return strconv.Quote(s.Value) }

// NumberLiteral is a numeric constant. The target machine only knows
// doubles, so there is no separate integer kind.
type NumberLiteral struct {
	Value float64
}

func (*NumberLiteral) exprNode()        {}
func (n *NumberLiteral) String() string { return formatNumber(n.Value) }

// VarRef is a read of a named variable. Names starting with '@' refer to
// processor built-ins such as @unit or @counter.
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// LocalVarDecl represents  let name  inside a block.
type LocalVarDecl struct {
	Name string
}

func (*LocalVarDecl) stmtNode()        {}
func (d *LocalVarDecl) String() string { return fmt.Sprintf("LocalVarDecl(%s)", d.Name) }

// Assignment represents  target = value
type Assignment struct {
	Target string
	Value  Expr
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s = %s)", a.Target, a.Value)
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", e.Expr) }

// IfStmt represents  if cond { then } [else { else }]. Else is nil when the
// source had no else block.
type IfStmt struct {
	Condition Expr
	Then      []Stmt
	Else      []Stmt
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	return fmt.Sprintf("IfStmt(if %s then %s else %s)", i.Condition, blockString(i.Then), blockString(i.Else))
}

// WhileStmt represents  while cond { body }
type WhileStmt struct {
	Condition Expr
	Body      []Stmt
}

func (*WhileStmt) stmtNode() {}
func (w *WhileStmt) String() string {
	return fmt.Sprintf("WhileStmt(while %s do %s)", w.Condition, blockString(w.Body))
}

// ReturnStmt represents  return [value]. Value is nil for a bare return.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmtNode() {}
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "ReturnStmt()"
	}
	return fmt.Sprintf("ReturnStmt(%s)", r.Value)
}

func blockString(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

//  Top-level declarations

// FunctionStyle selects how calls to a function are lowered.
type FunctionStyle int

const (
	// Normal functions are emitted once and entered with the
	// return-address call convention.
	Normal FunctionStyle = iota
	// Inline functions are expanded at every call site.
	Inline
)

func (s FunctionStyle) String() string {
	if s == Inline {
		return "inline"
	}
	return "normal"
}

// GlobalVar represents a top-level  let name
type GlobalVar struct {
	Name string
}

func (g *GlobalVar) String() string { return fmt.Sprintf("GlobalVar(%s)", g.Name) }

// Function represents  [inline] fn name(params) { body }
type Function struct {
	Name   string
	Params []string
	Body   []Stmt
	Style  FunctionStyle
}

func (f *Function) String() string {
	return fmt.Sprintf("Function(%s %s(%s), body=%s)", f.Style, f.Name, strings.Join(f.Params, ", "), blockString(f.Body))
}

// Program is the parsed translation unit. Both maps are keyed by the
// declared name.
type Program struct {
	Globals   map[string]*GlobalVar
	Functions map[string]*Function
}

func newProgram() *Program {
	return &Program{
		Globals:   make(map[string]*GlobalVar),
		Functions: make(map[string]*Function),
	}
}

// FunctionNames returns the declared function names in sorted order.
func (p *Program) FunctionNames() []string {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a deterministically ordered dump of the program.
func (p *Program) String() string {
	var sb strings.Builder
	globals := make([]string, 0, len(p.Globals))
	for name := range p.Globals {
		globals = append(globals, name)
	}
	sort.Strings(globals)
	for _, name := range globals {
		sb.WriteString(p.Globals[name].String())
		sb.WriteByte('\n')
	}
	for _, name := range p.FunctionNames() {
		sb.WriteString(p.Functions[name].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatNumber renders v the way mlog expects numeric literals: the shortest
// decimal form, without exponent for ordinary magnitudes.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
