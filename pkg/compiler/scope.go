package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Scope is one open lexical block during generation: the names declared in
// it, in declaration order, and the suffix that makes them unique.
type Scope struct {
	Names  []string
	Mangle string
}

func (s *Scope) declares(name string) bool {
	for _, n := range s.Names {
		if n == name {
			return true
		}
	}
	return false
}

// ScopeStack maps source names to physical mlog variable names.
// Globals keep their bare name; locals get the mangle of the scope that
// declared them. The innermost scope is searched first.
type ScopeStack struct {
	globals map[string]bool
	scopes  []*Scope
}

func NewScopeStack(globals map[string]*GlobalVar) *ScopeStack {
	g := make(map[string]bool, len(globals))
	for name := range globals {
		g[name] = true
	}
	return &ScopeStack{globals: g}
}

// withGlobals returns an empty stack that shares s's globals. Inline
// expansions use it so the callee cannot see the caller's locals.
func (s *ScopeStack) withGlobals() *ScopeStack {
	return &ScopeStack{globals: s.globals}
}

// Push opens a scope with the given mangle suffix.
func (s *ScopeStack) Push(mangle string) *Scope {
	sc := &Scope{Mangle: mangle}
	s.scopes = append(s.scopes, sc)
	return sc
}

// Pop closes the innermost scope.
func (s *ScopeStack) Pop() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Depth reports the number of open scopes.
func (s *ScopeStack) Depth() int { return len(s.scopes) }

// Declare adds name to the innermost scope and returns its physical name.
// Declaring a name twice in the same scope is harmless.
func (s *ScopeStack) Declare(name string) string {
	if len(s.scopes) == 0 {
		panic("compiler: Declare called with no open scope")
	}
	sc := s.scopes[len(s.scopes)-1]
	if !sc.declares(name) {
		sc.Names = append(sc.Names, name)
	}
	return name + sc.Mangle
}

// Resolve returns the physical name for a source name. Names starting with
// '@' are processor built-ins and pass through untouched.
func (s *ScopeStack) Resolve(name string) (string, error) {
	if strings.HasPrefix(name, "@") {
		return name, nil
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].declares(name) {
			return name + s.scopes[i].Mangle, nil
		}
	}
	if s.globals[name] {
		return name, nil
	}
	return "", &GenError{Kind: UndefinedVariable, Name: name}
}

// String returns a deterministically ordered dump of the stack.
func (s *ScopeStack) String() string {
	var sb strings.Builder
	if len(s.globals) > 0 {
		names := make([]string, 0, len(s.globals))
		for name := range s.globals {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&sb, "Globals: %s\n", strings.Join(names, " "))
	} else {
		sb.WriteString("Globals: (empty)\n")
	}
	for i, sc := range s.scopes {
		fmt.Fprintf(&sb, "  Scope %d (%s): %s\n", i, sc.Mangle, strings.Join(sc.Names, " "))
	}
	return sb.String()
}
