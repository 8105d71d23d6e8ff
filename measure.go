package hxhook

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NopMeter discards measurements. It is what production runtimes use.
type NopMeter struct{}

func (NopMeter) StartMeasure(string, *VM) {}
func (NopMeter) EndMeasure(string, *VM)   {}

type openMeasure struct {
	label string
	vm    *VM
	start time.Time
}

// measureStack pairs EndMeasure calls with the most recent matching start.
type measureStack struct {
	open []openMeasure
	now  func() time.Time
}

func (s *measureStack) push(label string, vm *VM) {
	s.open = append(s.open, openMeasure{label: label, vm: vm, start: s.clock()})
}

// pop removes the matching open measure. The depth it reports counts only
// open measures in vm's own tree, so runtimes sharing the stack do not
// nest into each other.
func (s *measureStack) pop(label string, vm *VM) (openMeasure, int, bool) {
	for i := len(s.open) - 1; i >= 0; i-- {
		m := s.open[i]
		if m.label == label && m.vm == vm {
			root := vm.Root()
			depth := 0
			for _, o := range s.open[:i] {
				if o.vm.Root() == root {
					depth++
				}
			}
			s.open = append(s.open[:i], s.open[i+1:]...)
			return m, depth, true
		}
	}
	return openMeasure{}, 0, false
}

func (s *measureStack) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// LogMeter writes each completed measurement to a zerolog logger at debug
// level.
type LogMeter struct {
	log   zerolog.Logger
	stack measureStack
}

// NewLogMeter creates a meter that logs to l.
func NewLogMeter(l zerolog.Logger) *LogMeter {
	return &LogMeter{log: l}
}

func (m *LogMeter) StartMeasure(label string, vm *VM) {
	m.stack.push(label, vm)
}

func (m *LogMeter) EndMeasure(label string, vm *VM) {
	om, depth, ok := m.stack.pop(label, vm)
	if !ok {
		return
	}
	m.log.Debug().
		Str("label", label).
		Str("vm", vm.String()).
		Int("depth", depth).
		Dur("took", m.stack.clock().Sub(om.start)).
		Msg("measure")
}

// Measure is one completed start/end pair.
type Measure struct {
	Label     string        `msgpack:"l"`
	Component string        `msgpack:"c"`
	VMID      string        `msgpack:"v"`
	Depth     int           `msgpack:"d"` // open measures above it in the same tree
	Start     time.Time     `msgpack:"s"`
	Duration  time.Duration `msgpack:"t"`
}

// Profile is a snapshot of recorded measurements, in completion order.
type Profile struct {
	Measures []Measure `msgpack:"m"`
}

// Total returns the summed duration of all measures with the given label.
func (p Profile) Total(label string) time.Duration {
	var d time.Duration
	for _, m := range p.Measures {
		if m.Label == label {
			d += m.Duration
		}
	}
	return d
}

// Recorder is a Meter that keeps every measurement for later export. It may
// be shared by runtimes on different goroutines.
type Recorder struct {
	mu       sync.Mutex
	stack    measureStack
	measures []Measure
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) StartMeasure(label string, vm *VM) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack.push(label, vm)
}

func (r *Recorder) EndMeasure(label string, vm *VM) {
	r.mu.Lock()
	defer r.mu.Unlock()
	om, depth, ok := r.stack.pop(label, vm)
	if !ok {
		return
	}
	r.measures = append(r.measures, Measure{
		Label:     label,
		Component: vm.Name(),
		VMID:      vm.ID,
		Depth:     depth,
		Start:     om.start,
		Duration:  r.stack.clock().Sub(om.start),
	})
}

// Open returns the number of started but unfinished measurements.
func (r *Recorder) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack.open)
}

// Profile returns a copy of everything recorded so far.
func (r *Recorder) Profile() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Profile{Measures: append([]Measure(nil), r.measures...)}
}

// Reset drops all completed measurements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measures = nil
}

// Drain returns everything recorded so far and resets the recorder.
func (r *Recorder) Drain() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := Profile{Measures: r.measures}
	r.measures = nil
	return p
}
