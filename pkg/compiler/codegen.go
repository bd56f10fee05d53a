package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Options tunes a Generate call. The zero value compiles every function and
// enters through main.
type Options struct {
	// Entry is the function called at program start; empty means "main".
	Entry string
	// PruneUnused drops normal functions not reachable from Entry.
	PruneUnused bool
}

// frame is the function whose body is currently being lowered.
type frame struct {
	fn     *Function
	result string // physical name that receives return values
	end    string // inline expansions only: label placed after the body
}

// CodeGen walks a Program and emits mlog source text. One value serves one
// Generate call.
type CodeGen struct {
	prog   *Program
	opts   Options
	out    strings.Builder
	uid    int
	scopes *ScopeStack
	frames []frame
}

func newCodeGen(prog *Program, opts Options) *CodeGen {
	if opts.Entry == "" {
		opts.Entry = "main"
	}
	return &CodeGen{
		prog:   prog,
		opts:   opts,
		scopes: NewScopeStack(prog.Globals),
	}
}

func (cg *CodeGen) next() int {
	id := cg.uid
	cg.uid++
	return id
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) label(name string) {
	cg.line("%s:", name)
}

func (cg *CodeGen) newLabel(prefix string) string {
	return fmt.Sprintf("__%s%d", prefix, cg.next())
}

func (cg *CodeGen) newTemp() string {
	return fmt.Sprintf("__tmp%d", cg.next())
}

// pushScope opens a block scope with a fresh mangle.
func (cg *CodeGen) pushScope() {
	cg.scopes.Push(fmt.Sprintf("__s%d", cg.next()))
}

func retVar(fn string) string { return "__ret_" + fn }

func resultVar(fn string) string { return "__result_" + fn }

func paramMangle(fn string) string { return "__p_" + fn }

// paramVar is the physical name of parameter p of normal function fn.
func paramVar(fn, p string) string { return p + paramMangle(fn) }

// quoteString renders s as an mlog string literal. mlog has no escape for a
// double quote, so embedded quotes become single quotes.
func quoteString(s string) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, `"`, "'")
	return `"` + s + `"`
}

// checkName rejects declared names that could collide with built-ins or
// generated names.
func checkName(name, what string) error {
	switch {
	case strings.HasPrefix(name, "@"):
		return &GenError{Kind: ReservedName, Name: name, Msg: what + " names may not start with '@'"}
	case strings.Contains(name, "__"):
		return &GenError{Kind: ReservedName, Name: name, Msg: what + " names may not contain \"__\""}
	}
	return nil
}

func (cg *CodeGen) checkDeclarations() error {
	for _, name := range sortedGlobals(cg.prog) {
		if err := checkName(name, "global"); err != nil {
			return err
		}
	}
	for _, name := range cg.prog.FunctionNames() {
		if err := checkName(name, "function"); err != nil {
			return err
		}
		if IsIntrinsic(name) {
			return &GenError{Kind: ReservedName, Name: name, Msg: "function shadows a builtin"}
		}
		for _, p := range cg.prog.Functions[name].Params {
			if err := checkName(p, "parameter"); err != nil {
				return err
			}
		}
	}
	return nil
}

// genBlock lowers stmts inside a fresh scope.
func (cg *CodeGen) genBlock(stmts []Stmt) error {
	cg.pushScope()
	defer cg.scopes.Pop()
	for _, s := range stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *LocalVarDecl:
		if err := checkName(n.Name, "variable"); err != nil {
			return err
		}
		cg.scopes.Declare(n.Name)

	case *Assignment:
		dst, err := cg.scopes.Resolve(n.Target)
		if err != nil {
			return err
		}
		return cg.genExprInto(n.Value, dst)

	case *ExprStmt:
		call, ok := n.Expr.(*FunctionCall)
		if !ok {
			// evaluating a literal or a variable has no effect
			return nil
		}
		cg.pushScope()
		defer cg.scopes.Pop()
		return cg.genCall(call, cg.scopes.Declare("__discard"), true)

	case *IfStmt:
		return cg.genIf(n)

	case *WhileStmt:
		return cg.genWhile(n)

	case *ReturnStmt:
		if len(cg.frames) == 0 {
			return fmt.Errorf("codegen: return outside a function")
		}
		fr := cg.frames[len(cg.frames)-1]
		if n.Value != nil {
			if err := cg.genExprInto(n.Value, fr.result); err != nil {
				return err
			}
		}
		if fr.end != "" {
			cg.line("jump %s always", fr.end)
		} else {
			cg.line("set @counter %s", retVar(fr.fn.Name))
		}

	default:
		return fmt.Errorf("codegen: unhandled statement %T", s)
	}
	return nil
}

func (cg *CodeGen) genIf(n *IfStmt) error {
	id := cg.next()
	elseLabel := fmt.Sprintf("__else%d", id)
	endLabel := fmt.Sprintf("__endif%d", id)

	cg.pushScope()
	cond := cg.scopes.Declare("__cond")
	err := cg.genExprInto(n.Condition, cond)
	cg.scopes.Pop()
	if err != nil {
		return err
	}

	cg.line("jump %s equal %s 0", elseLabel, cond)
	if err := cg.genBlock(n.Then); err != nil {
		return err
	}
	if len(n.Else) > 0 {
		cg.line("jump %s always", endLabel)
	}
	cg.label(elseLabel)
	if len(n.Else) > 0 {
		if err := cg.genBlock(n.Else); err != nil {
			return err
		}
		cg.label(endLabel)
	}
	return nil
}

func (cg *CodeGen) genWhile(n *WhileStmt) error {
	id := cg.next()
	startLabel := fmt.Sprintf("__while%d", id)
	endLabel := fmt.Sprintf("__wend%d", id)

	cg.pushScope()
	defer cg.scopes.Pop()
	cond := cg.scopes.Declare("__cond")

	cg.label(startLabel)
	if err := cg.genExprInto(n.Condition, cond); err != nil {
		return err
	}
	cg.line("jump %s equal %s 0", endLabel, cond)
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.line("jump %s always", startLabel)
	cg.label(endLabel)
	return nil
}

// genExprInto lowers e so that its value ends up in the physical variable dst.
func (cg *CodeGen) genExprInto(e Expr, dst string) error {
	switch n := e.(type) {
	case *NumberLiteral:
		cg.line("set %s %s", dst, formatNumber(n.Value))
	case *StringLiteral:
		cg.line("set %s %s", dst, quoteString(n.Value))
	case *VarRef:
		src, err := cg.scopes.Resolve(n.Name)
		if err != nil {
			return err
		}
		cg.line("set %s %s", dst, src)
	case *FunctionCall:
		return cg.genCall(n, dst, false)
	default:
		return fmt.Errorf("codegen: unhandled expression %T", e)
	}
	return nil
}

// genCall lowers a call writing its result into dst. discard marks calls made
// only for their effect.
func (cg *CodeGen) genCall(call *FunctionCall, dst string, discard bool) error {
	if in, ok := intrinsics[call.Name]; ok {
		return cg.genIntrinsic(in, call, dst, discard)
	}
	fn, ok := cg.prog.Functions[call.Name]
	if !ok {
		return &GenError{Kind: UndefinedFunction, Name: call.Name}
	}
	if len(call.Args) != len(fn.Params) {
		return &GenError{
			Kind: ArityMismatch,
			Name: call.Name,
			Msg:  fmt.Sprintf("expects %d arguments, got %d", len(fn.Params), len(call.Args)),
		}
	}

	// Arguments are all evaluated before any parameter is written so that a
	// nested call to the same function cannot clobber them.
	temps := make([]string, len(call.Args))
	for i, arg := range call.Args {
		temps[i] = cg.newTemp()
		if err := cg.genExprInto(arg, temps[i]); err != nil {
			return err
		}
	}

	if fn.Style == Inline {
		return cg.genInline(fn, temps, dst)
	}
	for i, p := range fn.Params {
		cg.line("set %s %s", paramVar(fn.Name, p), temps[i])
	}
	cg.line("op add %s @counter 1", retVar(fn.Name))
	cg.line("jump %s always", fn.Name)
	cg.line("set %s %s", dst, resultVar(fn.Name))
	return nil
}

// genInline expands fn at the call site. The body sees only globals and its
// own parameters.
func (cg *CodeGen) genInline(fn *Function, args []string, dst string) error {
	caller := cg.scopes
	cg.scopes = caller.withGlobals()
	defer func() { cg.scopes = caller }()

	cg.pushScope()
	for i, p := range fn.Params {
		cg.line("set %s %s", cg.scopes.Declare(p), args[i])
	}

	result := cg.newTemp()
	end := cg.newLabel("iend")
	cg.frames = append(cg.frames, frame{fn: fn, result: result, end: end})
	err := cg.genBlock(fn.Body)
	cg.frames = cg.frames[:len(cg.frames)-1]
	if err != nil {
		return err
	}
	cg.label(end)
	cg.line("set %s %s", dst, result)
	return nil
}

func (cg *CodeGen) genFunction(fn *Function) error {
	cg.label(fn.Name)

	cg.scopes = NewScopeStack(cg.prog.Globals)
	cg.scopes.Push(paramMangle(fn.Name))
	for _, p := range fn.Params {
		cg.scopes.Declare(p)
	}

	cg.frames = append(cg.frames, frame{fn: fn, result: resultVar(fn.Name)})
	err := cg.genBlock(fn.Body)
	cg.frames = cg.frames[:len(cg.frames)-1]
	if err != nil {
		return err
	}
	cg.line("set @counter %s", retVar(fn.Name))
	return nil
}

// Generate lowers a parsed program to mlog.
func Generate(prog *Program, opts Options) (string, error) {
	cg := newCodeGen(prog, opts)
	if err := cg.checkDeclarations(); err != nil {
		return "", err
	}
	if err := findRecursion(prog); err != nil {
		return "", err
	}

	entry := &ExprStmt{Expr: &FunctionCall{Name: cg.opts.Entry}}
	if err := cg.genStmt(entry); err != nil {
		return "", err
	}
	cg.line("jump __end always")

	var reachable map[string]bool
	if cg.opts.PruneUnused {
		reachable = reachableFunctions(prog, cg.opts.Entry)
	}
	for _, name := range prog.FunctionNames() {
		fn := prog.Functions[name]
		if fn.Style == Inline {
			continue
		}
		if reachable != nil && !reachable[name] {
			continue
		}
		if err := cg.genFunction(fn); err != nil {
			return "", err
		}
	}

	cg.label("__end")
	return cg.out.String(), nil
}

// Check lowers every function body, inline ones included, without calling
// an entry function. It finds the errors Generate would report for the
// declarations themselves, and so works on programs that have no entry yet.
func Check(prog *Program) error {
	cg := newCodeGen(prog, Options{})
	if err := cg.checkDeclarations(); err != nil {
		return err
	}
	if err := findRecursion(prog); err != nil {
		return err
	}
	for _, name := range prog.FunctionNames() {
		fn := prog.Functions[name]
		if fn.Style == Normal {
			if err := cg.genFunction(fn); err != nil {
				return err
			}
			continue
		}
		cg.scopes = NewScopeStack(prog.Globals)
		args := make([]string, len(fn.Params))
		for i := range args {
			args[i] = "null"
		}
		if err := cg.genInline(fn, args, "__discard"); err != nil {
			return err
		}
	}
	return nil
}

func sortedGlobals(prog *Program) []string {
	names := make([]string, 0, len(prog.Globals))
	for name := range prog.Globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
