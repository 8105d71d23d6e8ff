package hxhook

import (
	"context"
	"errors"
)

// AncestorBoundaries resolves failures by walking the ownership chain for
// the first instance whose definition declares ErrorCaptured.
//
// The capture hook itself runs through Guard with the boundary's own owner,
// so a boundary that returns an error escalates exactly one hop further up.
// When no boundary exists anywhere in the chain the error is returned for
// the host to surface.
//
// A boundary that already declined a failure is skipped when the same
// failure comes back through an enclosing render. The instances between
// owner and the boundary are annotated first, so hops read in ownership
// order.
type AncestorBoundaries struct{}

func (AncestorBoundaries) HandleError(ctx context.Context, owner *VM, err error) error {
	rt := FromContext(ctx)
	if rt == nil {
		return err
	}
	b := FindBoundary(owner)
	for b != nil && declined(err, b) {
		b = FindBoundary(b.Owner)
	}
	if b == nil {
		return err
	}
	for cur := owner; cur != nil && cur != b; cur = cur.Owner {
		err = rt.annotator.Annotate(cur, err)
	}
	return rt.Guard(ctx, b, b.Owner, nil, func(ctx context.Context) error {
		return b.Def.ErrorCaptured(ctx, b.Component, err)
	}, nil)
}

// declined reports whether b's capture hook has already seen err.
func declined(err error, b *VM) bool {
	var he *HookError
	return errors.As(err, &he) && he.annotated(b)
}

// FindBoundary returns vm or its nearest ancestor that is a constructed
// boundary, or nil.
func FindBoundary(vm *VM) *VM {
	for cur := vm; cur != nil; cur = cur.Owner {
		if cur.Def.IsBoundary() && cur.Component != nil {
			return cur
		}
	}
	return nil
}

// ChainAnnotator wraps failures in a *HookError and records one Hop per
// instance the failure passes through.
//
// If err already wraps a HookError, that record is extended in place and
// err is returned unchanged, keeping any wrapping added by user code.
type ChainAnnotator struct{}

func (ChainAnnotator) Annotate(vm *VM, err error) error {
	if err == nil {
		return nil
	}
	var he *HookError
	if !errors.As(err, &he) {
		he = &HookError{Err: err}
		err = he
	}
	if !he.annotated(vm) {
		he.Hops = append(he.Hops, Hop{VM: vm, Chain: vm.Chain()})
	}
	return err
}
