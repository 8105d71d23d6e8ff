package hxhook

import (
	"context"
	"fmt"

	"github.com/a-h/templ"
)

// Measurement labels passed to the Meter.
const (
	LabelConstructor      = "constructor"
	LabelRender           = "render"
	LabelRenderedCallback = "renderedCallback"
)

// Construct instantiates vm's component.
//
// The constructor runs with vm marked as under construction. It must pass
// the value it returns to Init; if the returned value is not the one that
// was registered, Construct fails with ErrInvalidConstructor.
//
// Construction failures are never routed to a boundary. They are annotated
// with vm's ownership chain and always returned, after the under-construction
// flag has been restored.
func (rt *Runtime) Construct(ctx context.Context, vm *VM) error {
	ctx = rt.bind(ctx)
	c := &construction{vm: vm}
	cctx := withVM(context.WithValue(ctx, constructionKey{}, c), vm)

	prev := rt.state.constructing
	rt.state.constructing = vm
	rt.meter.StartMeasure(LabelConstructor, vm)
	defer func() {
		rt.state.constructing = prev
		rt.meter.EndMeasure(LabelConstructor, vm)
	}()

	var result any
	err := runJob(cctx, vm, func(ctx context.Context) error {
		if vm.Def == nil || vm.Def.Construct == nil {
			return fmt.Errorf("hxhook: %s has no constructor", vm.Name())
		}
		var cerr error
		result, cerr = vm.Def.Construct(ctx, vm.Props)
		return cerr
	})
	if err == nil && !sameComponent(result, c.registered) {
		err = fmt.Errorf("%w (%s constructor returned %T)", ErrInvalidConstructor, vm.Name(), result)
	}
	if err != nil {
		vm.Component = nil
		return rt.annotator.Annotate(vm, err)
	}
	return nil
}

// Render runs vm's render hook and evaluates what it produced.
//
// The render-in-progress flag and the currently-rendering pointer are set
// for the duration of the hook and restored afterwards. The hook runs inside
// the observation scope so reactive reads are recorded against vm.
//
// A failure contained by a boundary yields a nil template and a nil error.
// An uncontained failure is returned without evaluating anything.
func (rt *Runtime) Render(ctx context.Context, vm *VM) (templ.Component, error) {
	ctx = rt.bind(ctx)
	if vm.Def == nil || vm.Def.Render == nil {
		return nil, nil
	}

	prevRendering, prevCurrent := rt.state.rendering, rt.state.current
	var fn TemplateFunc
	err := rt.Guard(ctx, vm, vm.Owner,
		func() {
			rt.state.rendering = true
			rt.state.current = vm
			rt.meter.StartMeasure(LabelRender, vm)
		},
		func(ctx context.Context) error {
			var rerr error
			rt.observerFor(vm).Observe(vm, func() {
				fn, rerr = vm.Def.Render(ctx, vm.Component)
			})
			if rerr != nil {
				fn = nil
			}
			return rerr
		},
		func() {
			rt.state.rendering = prevRendering
			rt.state.current = prevCurrent
			rt.meter.EndMeasure(LabelRender, vm)
		},
	)
	if err != nil {
		return nil, err
	}
	// Children mounted while the template function is evaluated are
	// recorded before vm.
	c := rt.evaluator.Evaluate(withVM(ctx, vm), vm, fn)
	if fn != nil {
		rt.rendered = append(rt.rendered, vm)
	}
	return c, nil
}

// RenderedCallback runs vm's rendered callback. It does nothing, and touches
// no state, when the definition declares none.
func (rt *Runtime) RenderedCallback(ctx context.Context, vm *VM) error {
	if vm.Def == nil || vm.Def.RenderedCallback == nil {
		return nil
	}
	prev := rt.state.renderedCallback
	return rt.Guard(ctx, vm, vm.Owner,
		func() {
			rt.state.renderedCallback = vm
			rt.meter.StartMeasure(LabelRenderedCallback, vm)
		},
		func(ctx context.Context) error {
			return vm.Def.RenderedCallback(ctx, vm.Component)
		},
		func() {
			rt.state.renderedCallback = prev
			rt.meter.EndMeasure(LabelRenderedCallback, vm)
		},
	)
}

// EventListener invokes fn for ev on behalf of vm. this is handed to
// listeners of the form func(this any, ev Event) error.
//
// With debug assertions on, a nil or non-callable fn fails immediately with
// an *AssertionError naming the event type and instance; that error never
// reaches a boundary. Without them fn is called as-is, and a non-callable
// value fails inside the job like any other listener panic.
func (rt *Runtime) EventListener(ctx context.Context, vm *VM, fn any, this any, ev Event) error {
	if rt.debug {
		if err := assertListener(vm, fn, ev); err != nil {
			return err
		}
	}
	return rt.Guard(ctx, vm, vm.Owner, nil, func(ctx context.Context) error {
		return callListener(ctx, fn, this, ev)
	}, nil)
}

func (rt *Runtime) observerFor(vm *VM) Observer {
	if vm.Observer != nil {
		return vm.Observer
	}
	return rt.observer
}
