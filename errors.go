package hxhook

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Sentinel errors for hook invocation.
var (
	ErrInvalidConstructor = errors.New("hxhook: invalid component constructor, the class should extend hxhook.Base")
	ErrNoConstruction     = errors.New("hxhook: no construction in progress")
	ErrNoRuntime          = errors.New("hxhook: no runtime in context")
	ErrNotRendering       = errors.New("hxhook: no component is rendering")
	ErrInvalidListener    = errors.New("hxhook: invalid event listener")
	ErrUnknownComponent   = errors.New("hxhook: unknown component")
	ErrInvalidFormat      = errors.New("hxhook: invalid profile format")
	ErrSignatureInvalid   = errors.New("hxhook: profile signature verification failed")
	ErrDecryptFailed      = errors.New("hxhook: profile decryption failed")
)

// IsInvalidConstructor checks if err is a construction-integrity error.
func IsInvalidConstructor(err error) bool {
	return errors.Is(err, ErrInvalidConstructor)
}

// IsNotFound checks if err reports an unknown component.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownComponent)
}

// IsDecryptionError checks if err is a profile decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsAssertion checks if err is a debug assertion failure.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// HookError is a failure raised by user hook code, annotated with the
// ownership chain of every instance it propagated through.
//
// A HookError is created once, at the first catch, and then extended in
// place as it crosses further boundaries. Each instance is recorded at most
// once, so an error that passes two nested boundaries carries exactly two
// hops.
type HookError struct {
	Err  error
	Hops []Hop
}

// Hop is one boundary crossing of a HookError.
type Hop struct {
	VM    *VM
	Chain []string // component names from VM up to its root
}

func (e *HookError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	for _, h := range e.Hops {
		b.WriteString("\n    in ")
		b.WriteString(strings.Join(h.Chain, " < "))
	}
	return b.String()
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// annotated reports whether vm is already recorded on the error.
func (e *HookError) annotated(vm *VM) bool {
	for _, h := range e.Hops {
		if h.VM == vm {
			return true
		}
	}
	return false
}

// PanicError is a panic recovered from a hook's job phase.
type PanicError struct {
	Component  string
	Value      any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Component, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AssertionError is a debug-build check that failed. It indicates a defect
// in the calling code rather than in user hook code and is never contained
// by a boundary.
type AssertionError struct {
	Msg string
	Err error
}

func (e *AssertionError) Error() string {
	return "hxhook: assertion failed: " + e.Msg
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

// captureStack returns the current goroutine's stack.
func captureStack() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
