// Package asm reads mlog text: it resolves labels into instruction indices
// and checks every instruction against the forms a logic processor accepts.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// fieldCounts lists the accepted operand counts per opcode.
var fieldCounts = map[string][]int{
	"set":        {2},
	"op":         {4},
	"jump":       {2, 4},
	"radar":      {7},
	"ubind":      {1},
	"ucontrol":   {6},
	"sensor":     {3},
	"print":      {1},
	"printflush": {1},
	"wait":       {1},
	"end":        {0},
	"noop":       {0},
	"stop":       {0},
}

// Operators are the accepted first operands of op.
var Operators = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true, "idiv": true,
	"mod": true, "pow": true, "equal": true, "notEqual": true, "land": true,
	"lessThan": true, "lessThanEq": true, "greaterThan": true,
	"greaterThanEq": true, "strictEqual": true, "shl": true, "shr": true,
	"or": true, "and": true, "xor": true, "max": true, "min": true,
	"angle": true, "len": true, "noise": true,

	"not": true, "abs": true, "log": true, "log10": true, "floor": true,
	"ceil": true, "sqrt": true, "rand": true, "sin": true, "cos": true,
	"tan": true, "asin": true, "acos": true, "atan": true,
}

// Conditions are the accepted jump conditions.
var Conditions = map[string]bool{
	"always": true, "equal": true, "notEqual": true, "lessThan": true,
	"lessThanEq": true, "greaterThan": true, "greaterThanEq": true,
	"strictEqual": true,
}

var unitCommands = map[string]bool{
	"idle": true, "stop": true, "move": true, "approach": true,
	"within": true, "boost": true, "pathfind": true, "target": true,
	"targetp": true, "itemDrop": true, "itemTake": true, "payDrop": true,
	"payTake": true, "mine": true, "flag": true, "build": true,
	"getBlock": true, "unbind": true,
}

// Instruction is one assembled mlog instruction.
type Instruction struct {
	Op   string
	Args []string
	// Target is the resolved jump destination. Only meaningful for jump.
	Target int
}

func (in Instruction) String() string {
	fields := append([]string{in.Op}, in.Args...)
	if in.Op == "jump" {
		fields[1] = strconv.Itoa(in.Target)
	}
	return strings.Join(fields, " ")
}

// Program is the label-free instruction list.
type Program struct {
	Instructions []Instruction
	// Labels maps each label to the index of the instruction that follows it.
	Labels map[string]int
	// SourceLine maps instruction index to its 1-based input line.
	SourceLine map[int]int
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.Instructions) }

// String renders the program the way a processor stores it: one instruction
// per line, jump targets as indices.
func (p *Program) String() string {
	var sb strings.Builder
	for _, in := range p.Instructions {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type parsedLine struct {
	lineNo int
	label  string
	fields []string
}

type Assembler struct {
	labels map[string]int
}

func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]int)}
}

func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*Program, error) {
	var parsed []parsedLine
	for i, raw := range strings.Split(code, "\n") {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if p.label != "" || len(p.fields) > 0 {
			parsed = append(parsed, p)
		}
	}

	if err := a.pass1(parsed); err != nil {
		return nil, err
	}
	return a.pass2(parsed)
}

// pass1 records the instruction index every label points at.
func (a *Assembler) pass1(lines []parsedLine) error {
	index := 0
	for _, p := range lines {
		if p.label != "" {
			if _, exists := a.labels[p.label]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", p.label, p.lineNo)
			}
			a.labels[p.label] = index
			continue
		}
		index++
	}
	return nil
}

func (a *Assembler) pass2(lines []parsedLine) (*Program, error) {
	prog := &Program{
		Labels:     a.labels,
		SourceLine: make(map[int]int),
	}
	count := 0
	for _, p := range lines {
		if p.label == "" {
			count++
		}
	}

	for _, p := range lines {
		if p.label != "" {
			continue
		}
		in, err := a.instruction(p, count)
		if err != nil {
			return nil, err
		}
		prog.SourceLine[len(prog.Instructions)] = p.lineNo
		prog.Instructions = append(prog.Instructions, in)
	}
	return prog, nil
}

// instruction validates one instruction line. count is the program length,
// used to range-check numeric jump targets.
func (a *Assembler) instruction(p parsedLine, count int) (Instruction, error) {
	op, args := p.fields[0], p.fields[1:]
	in := Instruction{Op: op, Args: args}

	counts, ok := fieldCounts[op]
	if !ok {
		return in, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, op)
	}
	if !containsInt(counts, len(args)) {
		return in, fmt.Errorf("%s expects %s operands on line %d, got %d", op, joinInts(counts), p.lineNo, len(args))
	}

	switch op {
	case "op":
		if !Operators[args[0]] {
			return in, fmt.Errorf("unknown operator '%s' on line %d", args[0], p.lineNo)
		}
	case "ucontrol":
		if !unitCommands[args[0]] {
			return in, fmt.Errorf("unknown unit command '%s' on line %d", args[0], p.lineNo)
		}
	case "jump":
		if !Conditions[args[1]] {
			return in, fmt.Errorf("unknown jump condition '%s' on line %d", args[1], p.lineNo)
		}
		if args[1] != "always" && len(args) != 4 {
			return in, fmt.Errorf("jump %s needs two operands on line %d", args[1], p.lineNo)
		}
		target, err := a.resolveTarget(args[0], count, p.lineNo)
		if err != nil {
			return in, err
		}
		in.Target = target
	}
	return in, nil
}

// resolveTarget accepts a label or an instruction index. An index equal to
// the program length is allowed: the counter wraps to 0 from there.
func (a *Assembler) resolveTarget(token string, count, lineNo int) (int, error) {
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 || n > count {
			return 0, fmt.Errorf("jump target %d out of range on line %d", n, lineNo)
		}
		return n, nil
	}
	if idx, ok := a.labels[token]; ok {
		return idx, nil
	}
	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}
	return 0, fmt.Errorf("invalid jump target '%s' on line %d", token, lineNo)
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	fields, err := splitFields(raw, lineNo)
	if err != nil {
		return p, err
	}
	if len(fields) == 0 {
		return p, nil
	}

	if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.label = label
		return p, nil
	}

	p.fields = fields
	return p, nil
}

// splitFields splits an instruction on blanks. A quoted string is a single
// field, quotes included. '#' outside a string starts a comment.
func splitFields(raw string, lineNo int) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inString := false

	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case inString:
			cur.WriteRune(r)
			if r == '"' {
				inString = false
			}
		case r == '"':
			inString = true
			cur.WriteRune(r)
		case r == '#':
			flush()
			return fields, nil
		case r == ' ' || r == '\t' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inString {
		return nil, fmt.Errorf("unterminated string on line %d", lineNo)
	}
	flush()
	return fields, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, v := range xs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " or ")
}
