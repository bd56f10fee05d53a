package compiler

import (
	"sort"
	"strings"
)

// callees returns the user functions called anywhere in f's body, sorted.
// Intrinsic names are left out.
func callees(prog *Program, f *Function) []string {
	calls := make(map[string]bool)
	for _, s := range f.Body {
		findCallsStmt(s, calls)
	}
	names := make([]string, 0, len(calls))
	for name := range calls {
		if _, ok := prog.Functions[name]; ok && !IsIntrinsic(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// reachableFunctions returns the set of functions transitively called from
// entry, entry included.
func reachableFunctions(prog *Program, entry string) map[string]bool {
	reachable := make(map[string]bool)
	var worklist []string

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	if _, ok := prog.Functions[entry]; ok {
		addReachable(entry)
	}

	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]
		for _, call := range callees(prog, prog.Functions[curr]) {
			addReachable(call)
		}
	}
	return reachable
}

// findRecursion reports the first call cycle found, walking functions in
// sorted order. Neither calling convention supports re-entry: normal
// functions have a single return slot and inline ones would expand forever.
func findRecursion(prog *Program) error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = onPath
		path = append(path, name)
		for _, callee := range callees(prog, prog.Functions[name]) {
			switch state[callee] {
			case onPath:
				start := 0
				for i, n := range path {
					if n == callee {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), callee)
				return &GenError{
					Kind: Recursion,
					Name: callee,
					Msg:  "call cycle " + strings.Join(cycle, " -> "),
				}
			case unvisited:
				if err := visit(callee); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, name := range prog.FunctionNames() {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// findCallsExpr collects the names of every call inside e.
func findCallsExpr(e Expr, calls map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *FunctionCall:
		calls[n.Name] = true
		for _, arg := range n.Args {
			findCallsExpr(arg, calls)
		}
	case *StringLiteral, *NumberLiteral, *VarRef:
	}
}

// findCallsStmt collects the names of every call inside s.
func findCallsStmt(s Stmt, calls map[string]bool) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *Assignment:
		findCallsExpr(n.Value, calls)
	case *ExprStmt:
		findCallsExpr(n.Expr, calls)
	case *ReturnStmt:
		findCallsExpr(n.Value, calls)
	case *IfStmt:
		findCallsExpr(n.Condition, calls)
		for _, child := range n.Then {
			findCallsStmt(child, calls)
		}
		for _, child := range n.Else {
			findCallsStmt(child, calls)
		}
	case *WhileStmt:
		findCallsExpr(n.Condition, calls)
		for _, child := range n.Body {
			findCallsStmt(child, calls)
		}
	case *LocalVarDecl:
	}
}
