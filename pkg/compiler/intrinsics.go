package compiler

import (
	"fmt"
	"strings"
)

// ArgKind is the set of expression shapes an intrinsic accepts in one
// argument position.
type ArgKind uint8

const (
	ArgString   ArgKind = 1 << iota // string literal
	ArgVariable                     // variable reference, including @built-ins
	ArgNumber                       // number literal
	argCall                         // nested call

	// ArgValue accepts any expression; it is evaluated into a temporary.
	ArgValue = ArgString | ArgVariable | ArgNumber | argCall

	// operand positions of domain instructions accept a variable or a number
	argScalar = ArgVariable | ArgNumber
)

func (k ArgKind) String() string {
	if k == ArgValue {
		return "any expression"
	}
	var parts []string
	if k&ArgString != 0 {
		parts = append(parts, "string literal")
	}
	if k&ArgVariable != 0 {
		parts = append(parts, "variable reference")
	}
	if k&ArgNumber != 0 {
		parts = append(parts, "number literal")
	}
	if k&argCall != 0 {
		parts = append(parts, "function call")
	}
	return strings.Join(parts, " or ")
}

// kindOf classifies an argument expression.
func kindOf(e Expr) ArgKind {
	switch e.(type) {
	case *StringLiteral:
		return ArgString
	case *VarRef:
		return ArgVariable
	case *NumberLiteral:
		return ArgNumber
	default:
		return argCall
	}
}

// intrinsicKind selects the emission rule of an intrinsic.
type intrinsicKind int

const (
	binaryOp intrinsicKind = iota
	unaryOp
	radarInstr
	ubindInstr
	ucontrolInstr
	sensorInstr
	printInstr
	printflushInstr
	waitInstr
)

// intrinsic describes one builtin call name.
type intrinsic struct {
	kind     intrinsicKind
	op       string    // mlog operator or ucontrol sub-command
	args     []ArgKind // one entry per argument position
	hasValue bool      // writes a result into the call's destination
}

func binary(op string) intrinsic {
	return intrinsic{kind: binaryOp, op: op, args: []ArgKind{ArgValue, ArgValue}, hasValue: true}
}

func unary(op string) intrinsic {
	return intrinsic{kind: unaryOp, op: op, args: []ArgKind{ArgValue}, hasValue: true}
}

// intrinsics is consulted before user functions. It is never written after
// initialisation.
var intrinsics = map[string]intrinsic{
	"add":           binary("add"),
	"sub":           binary("sub"),
	"mul":           binary("mul"),
	"div":           binary("div"),
	"idiv":          binary("idiv"),
	"mod":           binary("mod"),
	"pow":           binary("pow"),
	"equal":         binary("equal"),
	"notEqual":      binary("notEqual"),
	"land":          binary("land"),
	"lessThan":      binary("lessThan"),
	"lessThanEq":    binary("lessThanEq"),
	"greaterThan":   binary("greaterThan"),
	"greaterThanEq": binary("greaterThanEq"),
	"strictEqual":   binary("strictEqual"),
	"shl":           binary("shl"),
	"shr":           binary("shr"),
	"or":            binary("or"),
	"and":           binary("and"),
	"xor":           binary("xor"),
	"max":           binary("max"),
	"min":           binary("min"),
	"angle":         binary("angle"),
	"len":           binary("len"),
	"noise":         binary("noise"),

	"not":   unary("not"),
	"abs":   unary("abs"),
	"log":   unary("log"),
	"log10": unary("log10"),
	"floor": unary("floor"),
	"ceil":  unary("ceil"),
	"sqrt":  unary("sqrt"),
	"rand":  unary("rand"),
	"sin":   unary("sin"),
	"cos":   unary("cos"),
	"tan":   unary("tan"),
	"asin":  unary("asin"),
	"acos":  unary("acos"),
	"atan":  unary("atan"),

	// radar target1 target2 target3 sort from order -> result
	"radar": {
		kind:     radarInstr,
		args:     []ArgKind{ArgString, ArgString, ArgString, ArgString, ArgVariable, ArgNumber},
		hasValue: true,
	},
	"ubind": {kind: ubindInstr, args: []ArgKind{ArgVariable}},
	"ucontrolMove": {
		kind: ucontrolInstr, op: "move",
		args: []ArgKind{argScalar, argScalar},
	},
	"ucontrolWithin": {
		kind: ucontrolInstr, op: "within",
		args:     []ArgKind{argScalar, argScalar, argScalar},
		hasValue: true,
	},
	"ucontrolApproach": {
		kind: ucontrolInstr, op: "approach",
		args: []ArgKind{argScalar, argScalar, argScalar},
	},
	"ucontrolIdle": {kind: ucontrolInstr, op: "idle"},
	"ucontrolStop": {kind: ucontrolInstr, op: "stop"},
	"sensor": {
		kind:     sensorInstr,
		args:     []ArgKind{ArgVariable, ArgVariable},
		hasValue: true,
	},
	"print":      {kind: printInstr, args: []ArgKind{ArgString | argScalar}},
	"printflush": {kind: printflushInstr, args: []ArgKind{ArgVariable}},
	"wait":       {kind: waitInstr, args: []ArgKind{argScalar}},
}

// IsIntrinsic reports whether name is handled by a builtin emission rule.
func IsIntrinsic(name string) bool {
	_, ok := intrinsics[name]
	return ok
}

// genIntrinsic emits the code for an intrinsic call. dst receives the result
// when the intrinsic has one; discard is set for expression statements,
// where an intrinsic without a result is fine.
func (cg *CodeGen) genIntrinsic(in intrinsic, call *FunctionCall, dst string, discard bool) error {
	if len(call.Args) != len(in.args) {
		return &GenError{
			Kind: ArityMismatch,
			Name: call.Name,
			Msg:  fmt.Sprintf("expects %d arguments, got %d", len(in.args), len(call.Args)),
		}
	}
	if !in.hasValue && !discard {
		return &GenError{Kind: NoValue, Name: call.Name, Msg: "used as a value but produces none"}
	}
	for i, arg := range call.Args {
		if got := kindOf(arg); in.args[i]&got == 0 {
			return &GenError{
				Kind: ArgumentKindMismatch,
				Name: call.Name,
				Pos:  i + 1,
				Msg:  fmt.Sprintf("expected %s, got %s", in.args[i], got),
			}
		}
	}

	switch in.kind {
	case binaryOp, unaryOp:
		// Every operand goes through its own temporary, which also fixes
		// left-to-right evaluation order.
		temps := make([]string, 0, 2)
		for _, arg := range call.Args {
			t := cg.newTemp()
			if err := cg.genExprInto(arg, t); err != nil {
				return err
			}
			temps = append(temps, t)
		}
		if in.kind == unaryOp {
			temps = append(temps, "0")
		}
		cg.line("op %s %s %s %s", in.op, dst, temps[0], temps[1])
		return nil
	}

	ops, err := cg.operands(call.Args, in.kind == printInstr)
	if err != nil {
		return err
	}
	switch in.kind {
	case radarInstr:
		cg.line("radar %s %s %s %s %s %s %s", ops[0], ops[1], ops[2], ops[3], ops[4], ops[5], dst)
	case ubindInstr:
		cg.line("ubind %s", ops[0])
	case ucontrolInstr:
		switch in.op {
		case "within":
			cg.line("ucontrol within %s %s %s %s 0", ops[0], ops[1], ops[2], dst)
		case "approach":
			cg.line("ucontrol approach %s %s %s 0 0", ops[0], ops[1], ops[2])
		case "move":
			cg.line("ucontrol move %s %s 0 0 0", ops[0], ops[1])
		default:
			cg.line("ucontrol %s 0 0 0 0 0", in.op)
		}
	case sensorInstr:
		cg.line("sensor %s %s %s", dst, ops[0], ops[1])
	case printInstr:
		cg.line("print %s", ops[0])
	case printflushInstr:
		cg.line("printflush %s", ops[0])
	case waitInstr:
		cg.line("wait %s", ops[0])
	default:
		return fmt.Errorf("codegen: unhandled intrinsic %s", call.Name)
	}
	return nil
}

// operands renders already kind-checked literal and variable arguments as
// instruction fields. String literals are mlog keywords in most positions
// and are written bare unless quote is set.
func (cg *CodeGen) operands(args []Expr, quote bool) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case *StringLiteral:
			if quote {
				out[i] = quoteString(a.Value)
			} else {
				out[i] = a.Value
			}
		case *NumberLiteral:
			out[i] = formatNumber(a.Value)
		case *VarRef:
			phys, err := cg.scopes.Resolve(a.Name)
			if err != nil {
				return nil, err
			}
			out[i] = phys
		default:
			return nil, fmt.Errorf("codegen: unexpected operand %T", arg)
		}
	}
	return out, nil
}
