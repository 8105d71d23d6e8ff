package hxhook

import (
	"context"
	"fmt"
	"reflect"
)

// Dispatch delivers ev to every listener vm registered for ev.Type(), in
// registration order. It stops at the first failure that was not contained.
func (rt *Runtime) Dispatch(ctx context.Context, vm *VM, ev Event) error {
	ls := append([]listener(nil), vm.listeners[ev.Type()]...)
	for _, l := range ls {
		if err := rt.EventListener(ctx, vm, l.fn, l.this, ev); err != nil {
			return err
		}
	}
	return nil
}

func assertListener(vm *VM, fn any, ev Event) error {
	if _, ok := fn.(EventHandler); ok {
		return nil
	}
	if fn != nil && reflect.TypeOf(fn).Kind() == reflect.Func && !reflect.ValueOf(fn).IsNil() {
		return nil
	}
	return &AssertionError{
		Msg: fmt.Sprintf("invalid event handler for event %q on %s: %T is not callable", ev.Type(), vm, fn),
		Err: ErrInvalidListener,
	}
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// callListener invokes fn with ev. The common shapes are called directly;
// anything else goes through reflection, which panics for non-callable
// values just as a direct call would.
func callListener(ctx context.Context, fn any, this any, ev Event) error {
	switch f := fn.(type) {
	case func(Event):
		f(ev)
		return nil
	case func(Event) error:
		return f(ev)
	case func(context.Context, Event) error:
		return f(ctx, ev)
	case func(any, Event) error:
		return f(this, ev)
	case EventHandler:
		return f.HandleEvent(ctx, ev)
	}

	rv := reflect.ValueOf(fn)
	ft := rv.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		in := ft.In(i)
		switch {
		case in == contextType:
			args[i] = reflect.ValueOf(ctx)
		case reflect.TypeOf(ev).AssignableTo(in):
			args[i] = reflect.ValueOf(ev)
		case this != nil && reflect.TypeOf(this).AssignableTo(in):
			args[i] = reflect.ValueOf(this)
		default:
			args[i] = reflect.Zero(in)
		}
	}
	out := rv.Call(args)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType && !out[n-1].IsNil() {
		return out[n-1].Interface().(error)
	}
	return nil
}
