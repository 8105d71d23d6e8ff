package hxhook

import (
	"context"

	"github.com/rs/zerolog"
)

// Options configures a Runtime. Zero values select the defaults noted on
// each field.
type Options struct {
	// Boundaries resolves failures against the ownership tree.
	// Default: AncestorBoundaries.
	Boundaries Boundaries
	// Observer records reactive reads during render. Default: DirectObserver.
	Observer Observer
	// Evaluator turns render output into templates. Default: DirectEvaluator.
	Evaluator Evaluator
	// Annotator attaches ownership chains to errors. Default: ChainAnnotator.
	Annotator Annotator
	// Meter receives timing brackets. Ignored when Production is set.
	// Default: NopMeter.
	Meter Meter
	// Production disables instrumentation and debug assertions.
	Production bool
	// Debug enables assertions such as the listener callability check.
	// Has no effect when Production is set.
	Debug bool
	// OnRootError is the root recovery policy, consulted when a hook on an
	// instance without an owner fails. Returning nil recovers.
	OnRootError func(ctx context.Context, vm *VM, err error) error
	// Logger receives contained and escalated failures. Default: zerolog.Nop().
	Logger *zerolog.Logger
}

// Runtime is the invocation context threaded through every hook call. It
// holds the flag registers describing what is executing right now, plus the
// collaborators hooks are run against.
//
// A Runtime is not safe for concurrent use. Create one per render pass,
// for example per HTTP request; nesting happens on the call stack, never
// across goroutines.
type Runtime struct {
	state State

	boundaries  Boundaries
	observer    Observer
	evaluator   Evaluator
	annotator   Annotator
	meter       Meter
	debug       bool
	onRootError func(ctx context.Context, vm *VM, err error) error
	log         zerolog.Logger

	// rendered collects instances whose render job completed during the
	// current RenderTree pass, children before parents.
	rendered []*VM
}

// NewRuntime creates a runtime with the given options.
func NewRuntime(opts Options) *Runtime {
	rt := &Runtime{
		boundaries:  opts.Boundaries,
		observer:    opts.Observer,
		evaluator:   opts.Evaluator,
		annotator:   opts.Annotator,
		meter:       opts.Meter,
		debug:       opts.Debug && !opts.Production,
		onRootError: opts.OnRootError,
		log:         zerolog.Nop(),
	}
	if opts.Logger != nil {
		rt.log = *opts.Logger
	}
	if rt.boundaries == nil {
		rt.boundaries = AncestorBoundaries{}
	}
	if rt.observer == nil {
		rt.observer = DirectObserver{}
	}
	if rt.evaluator == nil {
		rt.evaluator = DirectEvaluator{}
	}
	if rt.annotator == nil {
		rt.annotator = ChainAnnotator{}
	}
	if rt.meter == nil || opts.Production {
		rt.meter = NopMeter{}
	}
	return rt
}

// State is the set of single-slot registers describing the hooks currently
// on the call stack. Each invoker saves the slot it touches, sets it for the
// duration of its job and restores it afterwards, so nesting behaves like a
// stack without an explicit one.
type State struct {
	rendering        bool
	current          *VM
	constructing     *VM
	renderedCallback *VM
}

// State returns a copy of the current flag registers.
func (rt *Runtime) State() State {
	return rt.state
}

// IsRendering reports whether a render job is executing.
func (rt *Runtime) IsRendering() bool {
	return rt.state.rendering
}

// Rendering returns the instance whose render job is executing, or nil.
func (rt *Runtime) Rendering() *VM {
	return rt.state.current
}

// Constructing returns the instance under construction, or nil.
func (rt *Runtime) Constructing() *VM {
	return rt.state.constructing
}

// InRenderedCallback returns the instance whose rendered callback is
// executing, or nil.
func (rt *Runtime) InRenderedCallback() *VM {
	return rt.state.renderedCallback
}

// Debug reports whether debug assertions are enabled.
func (rt *Runtime) Debug() bool {
	return rt.debug
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *zerolog.Logger {
	return &rt.log
}

type runtimeKey struct{}

// WithRuntime returns a context carrying rt.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// FromContext returns the runtime carried by ctx, or nil.
func FromContext(ctx context.Context) *Runtime {
	rt, _ := ctx.Value(runtimeKey{}).(*Runtime)
	return rt
}

// bind makes rt reachable from ctx without stacking duplicate values.
func (rt *Runtime) bind(ctx context.Context) context.Context {
	if FromContext(ctx) == rt {
		return ctx
	}
	return WithRuntime(ctx, rt)
}

type vmKey struct{}

func withVM(ctx context.Context, vm *VM) context.Context {
	return context.WithValue(ctx, vmKey{}, vm)
}

// VMFromContext returns the instance whose hook is running on ctx, or nil.
// Hooks receive a context carrying their own VM.
func VMFromContext(ctx context.Context) *VM {
	vm, _ := ctx.Value(vmKey{}).(*VM)
	return vm
}
