package hxhook

import (
	"context"

	"github.com/a-h/templ"
)

// TemplateFunc is produced by a render hook and turned into markup by the
// Evaluator. Keeping production and evaluation apart lets the evaluator own
// template identity and caching.
type TemplateFunc func(ctx context.Context) templ.Component

// Renderer is implemented by components that render.
//
// Render runs inside the runtime's observation scope, so any reactive reads
// it performs are recorded against the component's VM.
//
//	func (c *Counter) Render(ctx context.Context) (hxhook.TemplateFunc, error) {
//	    return func(ctx context.Context) templ.Component {
//	        return counterTemplate(c.count)
//	    }, nil
//	}
type Renderer interface {
	Render(ctx context.Context) (TemplateFunc, error)
}

// RenderedCallbacker is implemented by components that want a callback once
// their output has been written.
type RenderedCallbacker interface {
	Rendered(ctx context.Context) error
}

// ErrorCapturer marks a component as a boundary. ErrorCaptured receives
// failures from descendant hooks; returning nil contains the failure,
// returning an error escalates it to the next boundary up.
type ErrorCapturer interface {
	ErrorCaptured(ctx context.Context, err error) error
}

// Event is anything delivered to an event listener.
type Event interface {
	Type() string
}

// EventHandler is the interface form of an event listener.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// Boundaries resolves a failure against the ownership tree. HandleError
// returns nil when some ancestor of owner (owner included) contained err.
type Boundaries interface {
	HandleError(ctx context.Context, owner *VM, err error) error
}

// Observer records reactive reads made while fn runs. Implementations must
// tolerate fn panicking.
type Observer interface {
	Observe(vm *VM, fn func())
}

// Evaluator turns the output of a render hook into a template value. fn may
// be nil when the render failed and was contained.
type Evaluator interface {
	Evaluate(ctx context.Context, vm *VM, fn TemplateFunc) templ.Component
}

// Annotator attaches vm's ownership chain to err. It must be idempotent per
// error and instance.
type Annotator interface {
	Annotate(vm *VM, err error) error
}

// Meter brackets hook invocations with timing calls. Start and End are
// always called in balanced pairs.
type Meter interface {
	StartMeasure(label string, vm *VM)
	EndMeasure(label string, vm *VM)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(vm *VM, fn func())

func (f ObserverFunc) Observe(vm *VM, fn func()) {
	f(vm, fn)
}

// DirectObserver runs fn without recording anything.
type DirectObserver struct{}

func (DirectObserver) Observe(_ *VM, fn func()) {
	fn()
}

// DirectEvaluator calls the template function as-is.
type DirectEvaluator struct{}

func (DirectEvaluator) Evaluate(ctx context.Context, _ *VM, fn TemplateFunc) templ.Component {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// BasicEvent is a named event with an optional payload.
type BasicEvent struct {
	Name   string
	Detail any
}

func (e BasicEvent) Type() string {
	return e.Name
}
