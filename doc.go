// Package hxhook runs the lifecycle hooks of server-rendered components:
// constructors, render hooks, rendered callbacks and event listeners.
//
// hxhook does not decide what a component renders. It decides how safely and
// in what order user code runs: every hook goes through one guarded
// invoker that tracks re-entrant state, contains failures at the nearest
// boundary and brackets the call with instrumentation.
//
// # Core Concepts
//
// A Def describes a component type. Define derives one from a typed
// constructor and the component's method set:
//
//	type Counter struct {
//	    hxhook.Base
//	    count int
//	}
//
//	func NewCounter(ctx context.Context, props CounterProps) (*Counter, error) {
//	    c := &Counter{count: props.Start}
//	    if err := hxhook.Init(ctx, c); err != nil {
//	        return nil, err
//	    }
//	    return c, nil
//	}
//
//	func (c *Counter) Render(ctx context.Context) (hxhook.TemplateFunc, error) {
//	    return func(ctx context.Context) templ.Component {
//	        return counterTemplate(c.count)
//	    }, nil
//	}
//
//	var CounterDef = hxhook.Define("counter", NewCounter)
//
// Each mounted component is a VM. VMs form an ownership tree through their
// Owner back-reference; the runtime owns the tree top-down.
//
// # The Runtime
//
// A Runtime carries the flag registers (is a render running, which instance
// is under construction, which is in its rendered callback) plus the
// collaborators hooks run against. Invokers save the register they touch,
// set it for their job and restore it afterwards, so after any hook returns
// the registers hold exactly what the caller saw. A Runtime belongs to one
// render pass and one goroutine.
//
//	rt := hxhook.NewRuntime(hxhook.Options{Debug: true})
//	root, err := rt.Mount(ctx, nil, CounterDef, CounterProps{Start: 1})
//	if err != nil {
//	    return err
//	}
//	return rt.RenderTree(ctx, w, root)
//
// # Failures and Boundaries
//
// A hook fails by returning an error or panicking. Guard annotates the
// failure with the instance's ownership chain and hands it to the nearest
// ancestor implementing ErrorCapturer. The boundary may contain it (return
// nil) or escalate it (return an error), in which case it travels one more
// hop. Failures without any boundary reach the caller.
//
// Constructors are the exception: a failed construction is always returned
// to the caller, never offered to a boundary.
//
// # Instrumentation
//
// Constructors, render hooks and rendered callbacks are bracketed by Meter
// calls. Production runtimes use NopMeter; development runtimes log through
// LogMeter or capture a Profile with Recorder, which can be sealed with the
// lib/encoding envelope and served by a Registry.
package hxhook
