package processor

import (
	"fmt"

	"github.com/dop251/goja"
)

// ScriptWorld answers world calls with JavaScript functions. A script may
// define any of
//
//	radar(t1, t2, t3, sort, from, order)
//	ubind(kind)
//	ucontrol(unit, cmd, a, b, c, d, e)
//	sensor(obj, prop)
//
// Missing functions answer null. log(...) appends to Logs.
type ScriptWorld struct {
	Runtime *goja.Runtime
	Logs    []string

	funcs map[string]goja.Callable
}

// NewScriptWorld runs src once to collect its handler functions.
func NewScriptWorld(src string) (*ScriptWorld, error) {
	vm := goja.New()
	w := &ScriptWorld{
		Runtime: vm,
		funcs:   make(map[string]goja.Callable),
	}

	vm.Set("log", func(call goja.FunctionCall) goja.Value {
		var line string
		for i, arg := range call.Arguments {
			if i > 0 {
				line += " "
			}
			line += arg.String()
		}
		w.Logs = append(w.Logs, line)
		return goja.Undefined()
	})

	if _, err := vm.RunString(src); err != nil {
		return nil, fmt.Errorf("world script: %w", err)
	}

	for _, name := range []string{"radar", "ubind", "ucontrol", "sensor"} {
		if fn, ok := goja.AssertFunction(vm.Get(name)); ok {
			w.funcs[name] = fn
		}
	}
	return w, nil
}

// call invokes a handler. Processor values are handed to JS as-is; objects
// the script returned earlier come back as the same JS object.
func (w *ScriptWorld) call(name string, args ...Value) (Value, error) {
	fn, ok := w.funcs[name]
	if !ok {
		return nil, nil
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = w.Runtime.ToValue(a)
	}
	res, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, fmt.Errorf("world script %s: %w", name, err)
	}
	return fromJS(res), nil
}

// fromJS maps a JS result onto the processor's value model.
func fromJS(v goja.Value) Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		return obj
	}
	switch x := v.Export().(type) {
	case int64:
		return float64(x)
	case float64:
		return numValue(x)
	case bool:
		return boolValue(x)
	case string:
		return x
	default:
		return x
	}
}

func (w *ScriptWorld) Radar(q RadarQuery) (Value, error) {
	return w.call("radar", q.Targets[0], q.Targets[1], q.Targets[2], q.Sort, q.From, q.Order)
}

func (w *ScriptWorld) Ubind(kind Value) (Value, error) {
	return w.call("ubind", kind)
}

func (w *ScriptWorld) Ucontrol(unit Value, cmd string, args []Value) (Value, error) {
	return w.call("ucontrol", append([]Value{unit, cmd}, args...)...)
}

func (w *ScriptWorld) Sensor(obj, prop Value) (Value, error) {
	return w.call("sensor", obj, prop)
}
