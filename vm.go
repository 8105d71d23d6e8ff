package hxhook

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Constructor instantiates a component. It must call Init with the value it
// returns; the construct invoker rejects anything else.
type Constructor func(ctx context.Context, props any) (any, error)

// Def is a component definition: the set of hooks shared by every instance
// of one component type.
//
// Construct is required. The remaining hooks are optional; a nil hook is
// simply not run.
type Def struct {
	Name             string
	Construct        Constructor
	Render           func(ctx context.Context, component any) (TemplateFunc, error)
	RenderedCallback func(ctx context.Context, component any) error
	ErrorCaptured    func(ctx context.Context, component any, err error) error
}

// Define builds a Def from a typed constructor. T should be a pointer type;
// its method set decides which hooks the definition declares:
//   - Renderer:           Render
//   - RenderedCallbacker: RenderedCallback
//   - ErrorCapturer:      ErrorCaptured (the component becomes a boundary)
//
// Props passed to Mount must be assignable to P, or nil for the zero value.
//
//	var CounterDef = hxhook.Define("counter", NewCounter)
//
//	func NewCounter(ctx context.Context, props CounterProps) (*Counter, error) {
//	    c := &Counter{start: props.Start}
//	    if err := hxhook.Init(ctx, c); err != nil {
//	        return nil, err
//	    }
//	    return c, nil
//	}
func Define[T any, P any](name string, ctor func(ctx context.Context, props P) (T, error)) *Def {
	d := &Def{Name: name}
	d.Construct = func(ctx context.Context, props any) (any, error) {
		var p P
		if props != nil {
			typed, ok := props.(P)
			if !ok {
				return nil, fmt.Errorf("hxhook: %s: props of type %T, want %T", name, props, p)
			}
			p = typed
		}
		c, err := ctor(ctx, p)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	var zero T
	if _, ok := any(zero).(Renderer); ok {
		d.Render = func(ctx context.Context, c any) (TemplateFunc, error) {
			return c.(Renderer).Render(ctx)
		}
	}
	if _, ok := any(zero).(RenderedCallbacker); ok {
		d.RenderedCallback = func(ctx context.Context, c any) error {
			return c.(RenderedCallbacker).Rendered(ctx)
		}
	}
	if _, ok := any(zero).(ErrorCapturer); ok {
		d.ErrorCaptured = func(ctx context.Context, c any, err error) error {
			return c.(ErrorCapturer).ErrorCaptured(ctx, err)
		}
	}
	return d
}

// IsBoundary reports whether instances of d capture descendant failures.
func (d *Def) IsBoundary() bool {
	return d != nil && d.ErrorCaptured != nil
}

// VM is the runtime record of one mounted component.
//
// Owner is a non-owning back-reference to the parent instance; the runtime
// owns the tree top-down through Children. A nil Owner marks a root.
type VM struct {
	ID        string
	Def       *Def
	Owner     *VM
	Component any
	Props     any

	// Observer tracks reactive reads made while this instance renders.
	// nil falls back to the runtime's observer.
	Observer Observer

	children  []*VM
	listeners map[string][]listener
}

type listener struct {
	fn   any
	this any
}

// NewVM creates an unconstructed instance of def owned by owner.
// If owner is non-nil the new instance is appended to its children.
func NewVM(def *Def, owner *VM, props any) *VM {
	vm := &VM{
		ID:    uuid.NewString(),
		Def:   def,
		Owner: owner,
		Props: props,
	}
	if owner != nil {
		owner.children = append(owner.children, vm)
	}
	return vm
}

// Name returns the definition name, or "<anonymous>" without one.
func (vm *VM) Name() string {
	if vm.Def == nil || vm.Def.Name == "" {
		return "<anonymous>"
	}
	return vm.Def.Name
}

// Children returns the instances owned by vm in mount order.
func (vm *VM) Children() []*VM {
	return vm.children
}

// Chain returns the component names from vm up to its root.
func (vm *VM) Chain() []string {
	var names []string
	for cur := vm; cur != nil; cur = cur.Owner {
		names = append(names, cur.Name())
	}
	return names
}

// Root returns the top of vm's ownership chain.
func (vm *VM) Root() *VM {
	cur := vm
	for cur.Owner != nil {
		cur = cur.Owner
	}
	return cur
}

// On registers listener for events of the given type. this is handed to
// listeners of the form func(this any, ev Event) error.
func (vm *VM) On(eventType string, fn any, this any) {
	if vm.listeners == nil {
		vm.listeners = make(map[string][]listener)
	}
	vm.listeners[eventType] = append(vm.listeners[eventType], listener{fn: fn, this: this})
}

func (vm *VM) String() string {
	return fmt.Sprintf("<%s %s>", vm.Name(), shortID(vm.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Base is embedded by components to gain access to their VM.
//
//	type Counter struct {
//	    hxhook.Base
//	    count int
//	}
type Base struct {
	vm *VM
}

// VM returns the instance this component was constructed for.
func (b *Base) VM() *VM {
	return b.vm
}

func (b *Base) bindVM(vm *VM) {
	b.vm = vm
}

type vmBinder interface {
	bindVM(vm *VM)
}

// construction is the registration slot for one in-progress Construct.
type construction struct {
	vm         *VM
	registered any
}

type constructionKey struct{}

// Init is the base-initialization path every constructor must take. It
// registers component as the product of the construction running on ctx.
// component must be a non-nil pointer.
func Init(ctx context.Context, component any) error {
	c, ok := ctx.Value(constructionKey{}).(*construction)
	if !ok || c == nil {
		return ErrNoConstruction
	}
	if !isPointer(component) {
		return fmt.Errorf("hxhook: Init of %s: component must be a non-nil pointer, got %T", c.vm.Name(), component)
	}
	c.registered = component
	c.vm.Component = component
	if b, ok := component.(vmBinder); ok {
		b.bindVM(c.vm)
	}
	return nil
}

func isPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}

// sameComponent compares two component pointers by identity.
func sameComponent(a, b any) bool {
	if !isPointer(a) || !isPointer(b) {
		return false
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b) &&
		reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
