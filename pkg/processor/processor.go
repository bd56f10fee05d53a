// Package processor emulates a Mindustry logic processor running assembled
// mlog. It covers the instructions mlogc emits; world interaction is
// delegated to a World.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"mlogc/pkg/asm"
)

// Value is the content of a processor variable: nil (null), float64, string,
// or an opaque object handed out by the World.
type Value = any

// ErrStepLimit is returned by Run when the step budget runs out before the
// pass completes.
var ErrStepLimit = errors.New("processor: step limit reached")

// Processor executes one program. Variables survive between passes, as they
// do in the game.
type Processor struct {
	prog    *asm.Program
	vars    map[string]Value
	counter int
	done    bool

	world World
	rng   *rand.Rand

	// Output receives printflush text. If nil, os.Stdout is used.
	Output io.Writer
	text   strings.Builder

	// Steps counts executed instructions over the processor's lifetime.
	Steps int
	// Waited sums the seconds requested by wait instructions.
	Waited float64
}

type Option func(*Processor)

// WithWorld routes radar, ubind, ucontrol and sensor to w.
func WithWorld(w World) Option {
	return func(p *Processor) { p.world = w }
}

// WithOutput sets the printflush destination.
func WithOutput(w io.Writer) Option {
	return func(p *Processor) { p.Output = w }
}

// WithSeed makes op rand reproducible.
func WithSeed(seed int64) Option {
	return func(p *Processor) { p.rng = rand.New(rand.NewSource(seed)) }
}

func New(prog *asm.Program, opts ...Option) *Processor {
	p := &Processor{
		prog:  prog,
		vars:  make(map[string]Value),
		world: nullWorld{},
		rng:   rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) outputSink() io.Writer {
	if p.Output != nil {
		return p.Output
	}
	return os.Stdout
}

// Get returns the value of a variable, nil when it was never set.
func (p *Processor) Get(name string) Value {
	if name == "@counter" {
		return float64(p.counter)
	}
	return p.vars[name]
}

// Set assigns a variable before or between steps. Unlike a set
// instruction it may also seed @-names such as @unit.
func (p *Processor) Set(name string, v Value) {
	if name == "@counter" {
		p.counter = int(num(v))
		return
	}
	p.vars[name] = v
}

// Counter is the index of the next instruction.
func (p *Processor) Counter() int { return p.counter }

// Done reports whether the current pass has finished.
func (p *Processor) Done() bool { return p.done }

// NextPass starts another pass from instruction 0. Variables are kept.
func (p *Processor) NextPass() {
	p.done = false
	p.counter = 0
}

// Step executes one instruction. Reaching or jumping past the end of the
// program wraps the counter to 0 and completes the pass.
func (p *Processor) Step() error {
	if p.done {
		return nil
	}
	if p.counter < 0 || p.counter >= p.prog.Len() {
		p.wrap()
		return nil
	}

	in := p.prog.Instructions[p.counter]
	idx := p.counter
	p.counter++
	p.Steps++

	if err := p.exec(in); err != nil {
		return fmt.Errorf("instruction %d (line %d) %q: %w", idx, p.prog.SourceLine[idx], in.String(), err)
	}
	if p.counter < 0 || p.counter >= p.prog.Len() {
		p.wrap()
	}
	return nil
}

func (p *Processor) wrap() {
	p.counter = 0
	p.done = true
}

// Run steps until the pass completes. maxSteps <= 0 means no budget; ctx
// cancellation is the only other way out then.
func (p *Processor) Run(ctx context.Context, maxSteps int) error {
	for n := 0; !p.done; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if maxSteps > 0 && n >= maxSteps {
			return ErrStepLimit
		}
		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) exec(in asm.Instruction) error {
	args := in.Args
	switch in.Op {
	case "set":
		p.write(args[0], p.read(args[1]))

	case "op":
		v, err := operate(args[0], p.read(args[2]), p.read(args[3]), p.rng)
		if err != nil {
			return err
		}
		p.write(args[1], v)

	case "jump":
		ok := true
		if args[1] != "always" {
			var err error
			ok, err = condition(args[1], p.read(args[2]), p.read(args[3]))
			if err != nil {
				return err
			}
		}
		if ok {
			p.counter = in.Target
		}

	case "print":
		p.text.WriteString(Format(p.read(args[0])))

	case "printflush":
		_, err := io.WriteString(p.outputSink(), p.text.String())
		p.text.Reset()
		return err

	case "wait":
		p.Waited += num(p.read(args[0]))

	case "radar":
		q := RadarQuery{
			Targets: [3]string{args[0], args[1], args[2]},
			Sort:    args[3],
			From:    p.read(args[4]),
			Order:   num(p.read(args[5])),
		}
		v, err := p.world.Radar(q)
		if err != nil {
			return err
		}
		p.write(args[6], v)

	case "ubind":
		v, err := p.world.Ubind(p.read(args[0]))
		if err != nil {
			return err
		}
		p.vars["@unit"] = v

	case "ucontrol":
		vals := make([]Value, 5)
		for i := range vals {
			vals[i] = p.read(args[i+1])
		}
		v, err := p.world.Ucontrol(p.vars["@unit"], args[0], vals)
		if err != nil {
			return err
		}
		if args[0] == "within" {
			p.write(args[4], v)
		}

	case "sensor":
		v, err := p.world.Sensor(p.read(args[1]), p.read(args[2]))
		if err != nil {
			return err
		}
		p.write(args[0], v)

	case "end", "stop":
		p.counter = p.prog.Len()

	case "noop":

	default:
		return fmt.Errorf("unsupported instruction %s", in.Op)
	}
	return nil
}

// read evaluates an operand field: a literal or a variable. Unknown
// @-names are content constants such as @poly and evaluate to their name.
func (p *Processor) read(field string) Value {
	switch field {
	case "null":
		return nil
	case "true":
		return float64(1)
	case "false":
		return float64(0)
	case "@counter":
		return float64(p.counter)
	}
	if strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`) && len(field) >= 2 {
		return strings.ReplaceAll(field[1:len(field)-1], `\n`, "\n")
	}
	if looksNumeric(field) {
		if f, err := strconv.ParseFloat(field, 64); err == nil {
			return f
		}
	}
	if v, ok := p.vars[field]; ok {
		return v
	}
	if strings.HasPrefix(field, "@") {
		return field
	}
	return nil
}

// write stores v. Writing @counter jumps; other @-names are read-only.
func (p *Processor) write(name string, v Value) {
	switch {
	case name == "@counter":
		p.counter = int(num(v))
	case strings.HasPrefix(name, "@"):
	default:
		p.vars[name] = v
	}
}

// looksNumeric keeps ParseFloat from accepting names such as inf or nan.
func looksNumeric(field string) bool {
	c := field[0]
	return c == '-' || c == '.' || (c >= '0' && c <= '9')
}
