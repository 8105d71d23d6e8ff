package hxhook

import (
	"bytes"
	"context"
	"strings"
)

// TestResult holds the outcome of rendering a component tree for testing.
//
// Err is the error RenderTree returned. Captured holds the failures a
// boundary contained; escalated failures show up only in Err.
type TestResult struct {
	HTML     string
	Err      error
	Root     *VM
	Runtime  *Runtime
	Captured []error
	Profile  Profile
}

// TestRender mounts def as a root with props, renders the tree and runs the
// rendered callbacks.
//
// The runtime is built from opts with debug assertions forced on and a
// Recorder as meter, so Profile holds every measurement taken. Failures
// contained by any boundary are collected in Captured.
//
//	result, err := hxhook.TestRender(CounterDef, CounterProps{Start: 3})
//	if !result.HTMLContains("3") {
//	    t.Fatal("missing count")
//	}
//
// A construction failure is returned as err; everything after mounting is
// reported through the result.
func TestRender(def *Def, props any, opts ...Options) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), def, props, opts...)
}

// TestRenderWithContext is TestRender with a caller-supplied context.
func TestRenderWithContext(ctx context.Context, def *Def, props any, opts ...Options) (*TestResult, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Debug = true
	o.Production = false
	rec := NewRecorder()
	o.Meter = rec

	result := &TestResult{}
	o.Boundaries = &capturingBoundaries{inner: o.Boundaries, result: result}

	rt := NewRuntime(o)
	result.Runtime = rt

	root, err := rt.Mount(ctx, nil, def, props)
	if err != nil {
		return nil, err
	}
	result.Root = root

	var buf bytes.Buffer
	result.Err = rt.RenderTree(ctx, &buf, root)
	result.HTML = buf.String()
	result.Profile = rec.Profile()
	return result, nil
}

// TestDispatch delivers ev to vm's listeners on the runtime that rendered
// the result, and returns the first uncontained failure.
func (r *TestResult) TestDispatch(vm *VM, ev Event) error {
	return r.Runtime.Dispatch(context.Background(), vm, ev)
}

// Find returns the first instance in the tree with the given definition
// name, depth first.
func (r *TestResult) Find(name string) *VM {
	return findVM(r.Root, name)
}

func findVM(vm *VM, name string) *VM {
	if vm == nil {
		return nil
	}
	if vm.Name() == name {
		return vm
	}
	for _, c := range vm.children {
		if found := findVM(c, name); found != nil {
			return found
		}
	}
	return nil
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// Measured reports whether a measurement with label was recorded for the
// named component.
func (r *TestResult) Measured(label, component string) bool {
	for _, m := range r.Profile.Measures {
		if m.Label == label && m.Component == component {
			return true
		}
	}
	return false
}

// capturingBoundaries records every failure a boundary contained before
// returning the configured resolver's answer. An escalation re-enters
// HandleError from the capture hook's Guard; only the outermost call
// records.
type capturingBoundaries struct {
	inner  Boundaries
	result *TestResult
	depth  int
}

func (b *capturingBoundaries) HandleError(ctx context.Context, owner *VM, err error) error {
	inner := b.inner
	if inner == nil {
		inner = AncestorBoundaries{}
	}
	b.depth++
	herr := inner.HandleError(ctx, owner, err)
	b.depth--
	if herr == nil && b.depth == 0 {
		b.result.Captured = append(b.result.Captured, err)
	}
	return herr
}
