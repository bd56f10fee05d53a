package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestPreprocessDefines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No Directives", "fn main() {}", "fn main() {}"},
		{"Object Macro", "#define N 5\nx = N", "\nx = 5"},
		{"Whole Words Only", "#define N 5\nx = NN", "\nx = NN"},
		{"Strings Untouched", "#define N 5\nprint(\"N\")", "\nprint(\"N\")"},
		{"Macro Uses Earlier Macro", "#define A 1\n#define B A\nx = B", "\n\nx = 1"},
		{"Function Macro", "#define TWICE(a) add(a, a)\nx = TWICE(y)", "\nx = add(y, y)"},
		{"Function Macro Two Params", "#define PAIR(a, b) max(a, b)\nx = PAIR(1, sub(c, 2))", "\nx = max(1, sub(c, 2))"},
		{"Arguments Not Rescanned", "#define SWAP(a, b) sub(b, a)\nx = SWAP(b, a)", "\nx = sub(a, b)"},
		{"Function Macro Without Call", "#define F(a) a\nx = F", "\nx = F"},
		{"Self Reference", "#define f(x) f(x)\nfn main() { f(1) }", "\nfn main() { f(1) }"},
		{"Mutual Reference", "#define f(x) g(x)\n#define g(x) f(add(x, 1))\ny = f(1)", "\n\ny = f(add(1, 1))"},
		{"Nested Use Of Same Macro", "#define INC(x) add(x, 1)\ny = INC(INC(2))", "\ny = add(add(2, 1), 1)"},
		{"Indented Directive", "  #define N 2\nx = N", "\nx = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Preprocess(tt.input, t.TempDir())
			if err != nil {
				t.Fatalf("Preprocess failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Preprocess() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPreprocessInclude(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "lib.mlc", "#define LIMIT 3\nfn helper() { }")

	got, err := Preprocess("#include \"lib.mlc\"\nfn main() { x = LIMIT }", dir)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	assertContains(t, got, "fn helper() { }")
	assertContains(t, got, "x = 3")
}

func TestPreprocessIncludeRelativeToIncluder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, sub, "outer.mlc", "#include \"inner.mlc\"")
	writeSource(t, sub, "inner.mlc", "fn inner() {}")

	got, err := Preprocess("#include \"lib/outer.mlc\"", dir)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	assertContains(t, got, "fn inner() {}")
}

func TestPreprocessDiamondInclude(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "common.mlc", "fn common() {}")
	writeSource(t, dir, "a.mlc", "#include \"common.mlc\"")
	writeSource(t, dir, "b.mlc", "#include \"common.mlc\"")

	got, err := Preprocess("#include \"a.mlc\"\n#include \"b.mlc\"", dir)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if n := strings.Count(got, "fn common()"); n != 1 {
		t.Errorf("common.mlc spliced %d times:\n%s", n, got)
	}
}

func TestPreprocessErrors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.mlc", "#include \"b.mlc\"")
	writeSource(t, dir, "b.mlc", "\n#include \"a.mlc\"")

	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"Circular", "#include \"a.mlc\"", "b.mlc:2: circular include of a.mlc"},
		{"Missing File", "#include \"nope.mlc\"", "reading included file nope.mlc"},
		{"Bad Include Syntax", "#include <lib>", "invalid #include <lib>"},
		{"Unknown Directive", "\n#pragma once", "<input>:2: unknown directive #pragma"},
		{"Define Without Name", "#define", "#define without a name"},
		{"Unterminated Params", "#define F(a x", "unterminated parameter list in #define F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Preprocess(tt.input, dir)
			if err == nil {
				t.Fatal("expected an error")
			}
			assertContains(t, err.Error(), tt.msg)
		})
	}
}

func TestPreprocessKeepsLineNumbers(t *testing.T) {
	src := "#define N 1\nlet g\n\nfn main() { g = N }"
	got, err := Preprocess(src, t.TempDir())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if strings.Count(got, "\n") != strings.Count(src, "\n") {
		t.Errorf("line count changed: %q", got)
	}
}
