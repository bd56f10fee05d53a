package processor

// RadarQuery is the decoded operand list of a radar instruction.
type RadarQuery struct {
	Targets [3]string // e.g. enemy, any, any
	Sort    string    // e.g. distance
	From    Value     // building or unit doing the search
	Order   float64   // 1 = nearest first
}

// World answers the instructions that observe or move things in the game.
type World interface {
	Radar(q RadarQuery) (Value, error)
	// Ubind selects the next unit of the given type; the result becomes @unit.
	Ubind(kind Value) (Value, error)
	// Ucontrol commands unit. Only within produces a result.
	Ucontrol(unit Value, cmd string, args []Value) (Value, error)
	Sensor(obj, prop Value) (Value, error)
}

// nullWorld is the world of a processor with nothing linked: every query
// answers null.
type nullWorld struct{}

func (nullWorld) Radar(RadarQuery) (Value, error) { return nil, nil }
func (nullWorld) Ubind(Value) (Value, error) { return nil, nil }
func (nullWorld) Ucontrol(Value, string, []Value) (Value, error) { return nil, nil }
func (nullWorld) Sensor(Value, Value) (Value, error) { return nil, nil }

// Call is one request a RecordingWorld received.
type Call struct {
	Name string // radar, ubind, ucontrol or sensor
	Args []Value
}

func (c Call) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + Format(a)
	}
	return s
}

// RecordingWorld logs every call and replies from Answers. Keys are looked
// up most specific first: "ucontrol within" before "ucontrol",
// "sensor @health" before "sensor".
type RecordingWorld struct {
	Calls   []Call
	Answers map[string]Value
}

func (w *RecordingWorld) answer(name, detail string) Value {
	if v, ok := w.Answers[name+" "+detail]; ok {
		return v
	}
	return w.Answers[name]
}

func (w *RecordingWorld) Radar(q RadarQuery) (Value, error) {
	w.Calls = append(w.Calls, Call{Name: "radar", Args: []Value{q.Targets[0], q.Targets[1], q.Targets[2], q.Sort, q.From, q.Order}})
	return w.answer("radar", q.Targets[0]), nil
}

func (w *RecordingWorld) Ubind(kind Value) (Value, error) {
	w.Calls = append(w.Calls, Call{Name: "ubind", Args: []Value{kind}})
	return w.answer("ubind", Format(kind)), nil
}

func (w *RecordingWorld) Ucontrol(unit Value, cmd string, args []Value) (Value, error) {
	w.Calls = append(w.Calls, Call{Name: "ucontrol", Args: append([]Value{cmd}, args...)})
	if cmd == "within" {
		return w.answer("ucontrol", cmd), nil
	}
	return nil, nil
}

func (w *RecordingWorld) Sensor(obj, prop Value) (Value, error) {
	w.Calls = append(w.Calls, Call{Name: "sensor", Args: []Value{obj, prop}})
	return w.answer("sensor", Format(prop)), nil
}
