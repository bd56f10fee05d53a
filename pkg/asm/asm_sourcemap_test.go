package asm

import (
	"testing"
)

func TestAssembleSourceMap(t *testing.T) {
	code := `
# Line 2: Comment
set x 10        # Line 3: Instruction 0
                # Line 4: Empty
loop:           # Line 5: Label
op add x x 1    # Line 6: Instruction 1
jump loop always
print x         # Line 8: Instruction 3
`
	prog, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		index int
		line  int
	}{
		{0, 3},
		{1, 6},
		{2, 7},
		{3, 8},
	}

	for _, tc := range tests {
		if got := prog.SourceLine[tc.index]; got != tc.line {
			t.Errorf("SourceLine[%d] = %d; want %d", tc.index, got, tc.line)
		}
	}
	if got := prog.Labels["loop"]; got != 1 {
		t.Errorf("Labels[loop] = %d; want 1", got)
	}
}
