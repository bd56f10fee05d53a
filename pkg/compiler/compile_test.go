package compiler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"mlogc/pkg/processor"
)

// runCode compiles src, runs one processor pass over it and returns what the
// program flushed to its message block.
func runCode(t *testing.T, src string, opts ...processor.Option) string {
	t.Helper()
	res, err := Compile(src, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	var out bytes.Buffer
	p := processor.New(res.Assembly, append([]processor.Option{processor.WithOutput(&out)}, opts...)...)
	if err := p.Run(context.Background(), 10000); err != nil {
		t.Fatalf("Run failed: %v\nCode:\n%s", err, res.Code)
	}
	if !p.Done() {
		t.Fatalf("pass did not complete")
	}
	return out.String()
}

func TestCompile_E2E(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name: "Arithmetic",
			src: `fn main() {
	let x
	x = add(mul(6, 7), 1)
	print(x)
	printflush(@message1)
}`,
			expected: "43",
		},
		{
			name: "Nested Calls",
			src: `fn sq(v) { return mul(v, v) }
fn main() {
	let r
	r = sq(sq(3))
	print(r)
	printflush(@message1)
}`,
			expected: "81",
		},
		{
			name: "While Loop",
			src: `fn main() {
	let i
	let s
	i = 1
	while lessThanEq(i, 4) {
		s = add(s, i)
		i = add(i, 1)
	}
	print(s)
	printflush(@message1)
}`,
			expected: "10",
		},
		{
			name: "Early Return",
			src: `fn pick(a) {
	if greaterThan(a, 5) {
		return "big"
	}
	return "small"
}
fn main() {
	let r
	r = pick(9)
	print(r)
	r = pick(1)
	print(r)
	printflush(@message1)
}`,
			expected: "bigsmall",
		},
		{
			name: "If Else",
			src: `fn main() {
	let n
	n = 4
	if equal(mod(n, 2), 0) { print("even") } else { print("odd") }
	printflush(@message1)
}`,
			expected: "even",
		},
		{
			name: "Inline",
			src: `inline fn double(v) { return add(v, v) }
fn main() {
	let y
	y = double(double(2))
	print(y)
	printflush(@message1)
}`,
			expected: "8",
		},
		{
			name: "Inline Early Return",
			src: `inline fn sign(v) {
	if lessThan(v, 0) { return "neg" }
	return "pos"
}
fn main() {
	let s
	s = sign(sub(0, 3))
	print(s)
	s = sign(3)
	print(s)
	printflush(@message1)
}`,
			expected: "negpos",
		},
		{
			name: "Globals Shared",
			src: `let g
fn bump() { g = add(g, 1) }
fn main() {
	bump()
	bump()
	print(g)
	printflush(@message1)
}`,
			expected: "2",
		},
		{
			name: "Missing Return Value",
			src: `fn nothing() {}
fn main() {
	let x
	x = nothing()
	print(x)
	printflush(@message1)
}`,
			expected: "null",
		},
		{
			name: "Shadowing",
			src: `fn main() {
	let x
	x = 1
	if 1 {
		let x
		x = 2
	}
	print(x)
	printflush(@message1)
}`,
			expected: "1",
		},
		{
			name: "Repeated Calls Return To Each Caller",
			src: `fn id(v) { return v }
fn main() {
	let a
	let b
	a = id(1)
	b = id(2)
	print(a)
	print(b)
	printflush(@message1)
}`,
			expected: "12",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runCode(t, tt.src); got != tt.expected {
				t.Errorf("output = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCompile_E2EWorld(t *testing.T) {
	src := `fn main() {
	let hp
	ubind(@poly)
	hp = sensor(@unit, @health)
	print(hp)
	printflush(@message1)
}`
	world := &processor.RecordingWorld{Answers: map[string]processor.Value{
		"ubind":          "poly-1",
		"sensor @health": float64(42),
	}}
	if got := runCode(t, src, processor.WithWorld(world)); got != "42" {
		t.Errorf("output = %q, want 42", got)
	}
	if len(world.Calls) != 2 || world.Calls[1].Args[0] != "poly-1" {
		t.Errorf("calls = %v", world.Calls)
	}
}

func TestCompileResult(t *testing.T) {
	res, err := Compile("fn main() { wait(1) }", t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(res.Tokens) == 0 || res.Program == nil || res.Code == "" {
		t.Fatalf("incomplete result: %+v", res)
	}
	lines := 0
	for _, line := range strings.Split(strings.TrimSpace(res.Code), "\n") {
		if !strings.HasSuffix(line, ":") {
			lines++
		}
	}
	if res.Assembly.Len() != lines {
		t.Errorf("assembled %d instructions, code has %d", res.Assembly.Len(), lines)
	}
	if res.Assembly.Labels["__end"] != res.Assembly.Len() {
		t.Errorf("__end resolves to %d, want %d", res.Assembly.Labels["__end"], res.Assembly.Len())
	}
}

func TestCompileErrorsKeepStage(t *testing.T) {
	_, err := Compile("fn main() { x = $ }", ".", Options{})
	var le *LexError
	if !errors.As(err, &le) {
		t.Errorf("expected *LexError, got %v", err)
	}

	res, err := Compile("fn main() {", ".", Options{})
	if !IsIncomplete(err) {
		t.Errorf("expected an incomplete parse error, got %v", err)
	}
	if len(res.Tokens) == 0 || res.Program != nil {
		t.Errorf("result after parse failure = %+v", res)
	}

	_, err = Compile("fn main() { y = 1 }", ".", Options{})
	var ge *GenError
	if !errors.As(err, &ge) {
		t.Errorf("expected *GenError, got %v", err)
	}
}

func TestCompileAssemblyError(t *testing.T) {
	// a radar target with a blank splits into two fields
	src := `fn main() {
	let t
	t = radar("two words", "any", "any", "distance", @this, 1)
}`
	res, err := Compile(src, ".", Options{})
	if err == nil || !strings.HasPrefix(err.Error(), "assembly error:") {
		t.Fatalf("expected an assembly error, got %v", err)
	}
	if res.Code == "" {
		t.Error("generated code should be kept")
	}
}

func TestCompileString(t *testing.T) {
	code, err := CompileString("fn main() {}")
	if err != nil {
		t.Fatalf("CompileString failed: %v", err)
	}
	assertContains(t, code, "main:\nset @counter __ret_main\n__end:\n")
}
