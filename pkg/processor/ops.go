package processor

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"strconv"
)

// num is the numeric view of a value: null is 0, any object is 1.
func num(v Value) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	default:
		return 1
	}
}

func boolValue(b bool) Value {
	if b {
		return float64(1)
	}
	return float64(0)
}

// numValue stores a numeric result. NaN and infinities become null.
func numValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case nil, float64:
		return true
	}
	return false
}

// sameObject compares two non-numeric values by identity.
func sameObject(a, b Value) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func looseEqual(a, b Value) bool {
	if !isNumeric(a) && !isNumeric(b) {
		return sameObject(a, b)
	}
	return math.Abs(num(a)-num(b)) < 0.000001
}

func strictEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := a.(float64); ok {
		fb, ok := b.(float64)
		return ok && fa == fb
	}
	return sameObject(a, b)
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// operate evaluates op a b.
func operate(op string, a, b Value, rng *rand.Rand) (Value, error) {
	x, y := num(a), num(b)
	switch op {
	case "add":
		return numValue(x + y), nil
	case "sub":
		return numValue(x - y), nil
	case "mul":
		return numValue(x * y), nil
	case "div":
		return numValue(x / y), nil
	case "idiv":
		return numValue(math.Floor(x / y)), nil
	case "mod":
		return numValue(math.Mod(x, y)), nil
	case "pow":
		return numValue(math.Pow(x, y)), nil

	case "equal", "notEqual", "lessThan", "lessThanEq", "greaterThan",
		"greaterThanEq", "strictEqual":
		ok, err := condition(op, a, b)
		return boolValue(ok), err
	case "land":
		return boolValue(x != 0 && y != 0), nil

	case "shl":
		return float64(int64(x) << uint64(int64(y)&63)), nil
	case "shr":
		return float64(int64(x) >> uint64(int64(y)&63)), nil
	case "or":
		return float64(int64(x) | int64(y)), nil
	case "and":
		return float64(int64(x) & int64(y)), nil
	case "xor":
		return float64(int64(x) ^ int64(y)), nil
	case "not":
		return float64(^int64(x)), nil

	case "max":
		return numValue(math.Max(x, y)), nil
	case "min":
		return numValue(math.Min(x, y)), nil
	case "angle":
		deg := degrees(math.Atan2(y, x))
		if deg < 0 {
			deg += 360
		}
		return numValue(deg), nil
	case "len":
		return numValue(math.Hypot(x, y)), nil
	case "noise":
		return numValue(noise2(x, y)), nil

	case "abs":
		return numValue(math.Abs(x)), nil
	case "log":
		return numValue(math.Log(x)), nil
	case "log10":
		return numValue(math.Log10(x)), nil
	case "floor":
		return numValue(math.Floor(x)), nil
	case "ceil":
		return numValue(math.Ceil(x)), nil
	case "sqrt":
		return numValue(math.Sqrt(x)), nil
	case "rand":
		return numValue(rng.Float64() * x), nil
	case "sin":
		return numValue(math.Sin(radians(x))), nil
	case "cos":
		return numValue(math.Cos(radians(x))), nil
	case "tan":
		return numValue(math.Tan(radians(x))), nil
	case "asin":
		return numValue(degrees(math.Asin(x))), nil
	case "acos":
		return numValue(degrees(math.Acos(x))), nil
	case "atan":
		return numValue(degrees(math.Atan(x))), nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

// condition evaluates a comparison shared by op and jump.
func condition(cond string, a, b Value) (bool, error) {
	x, y := num(a), num(b)
	switch cond {
	case "always":
		return true, nil
	case "equal":
		return looseEqual(a, b), nil
	case "notEqual":
		return !looseEqual(a, b), nil
	case "lessThan":
		return x < y, nil
	case "lessThanEq":
		return x <= y, nil
	case "greaterThan":
		return x > y, nil
	case "greaterThanEq":
		return x >= y, nil
	case "strictEqual":
		return strictEqual(a, b), nil
	}
	return false, fmt.Errorf("unknown condition %s", cond)
}

// noise2 is a smooth deterministic 2D value noise in [-1, 1]. It keeps the
// shape of the game's simplex noise (continuous, bounded) without matching
// its exact values.
func noise2(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	sx, sy := fx*fx*(3-2*fx), fy*fy*(3-2*fy)

	corner := func(i, j float64) float64 {
		h := math.Sin((x0+i)*127.1+(y0+j)*311.7) * 43758.5453
		return 2*(h-math.Floor(h)) - 1
	}
	top := corner(0, 0) + sx*(corner(1, 0)-corner(0, 0))
	bottom := corner(0, 1) + sx*(corner(1, 1)-corner(0, 1))
	return top + sy*(bottom-top)
}

// Format renders a value the way print does: integral numbers without a
// fraction, null as "null".
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		if math.Abs(x-math.Round(x)) < 0.00001 {
			return strconv.FormatInt(int64(math.Round(x)), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
