package hxhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clickHandler struct {
	got []Event
}

func (h *clickHandler) HandleEvent(ctx context.Context, ev Event) error {
	h.got = append(h.got, ev)
	return nil
}

func TestEventListenerForms(t *testing.T) {
	rt := NewRuntime(Options{Debug: true})
	vm := mustMount(rt, nil, leafDef, leafProps{})
	ev := BasicEvent{Name: "click", Detail: 1}

	var calls []string
	handler := &clickHandler{}
	listeners := []any{
		func(e Event) { calls = append(calls, "plain") },
		func(e Event) error { calls = append(calls, "err"); return nil },
		func(ctx context.Context, e Event) error {
			assert.Same(t, vm, VMFromContext(ctx))
			calls = append(calls, "ctx")
			return nil
		},
		func(this any, e Event) error {
			assert.Equal(t, "bound", this)
			calls = append(calls, "this")
			return nil
		},
		handler,
		func(e BasicEvent) { calls = append(calls, "reflect:"+e.Name) },
		func(this string, e Event) { calls = append(calls, "reflect-this:"+this) },
	}
	for _, l := range listeners {
		require.NoError(t, rt.EventListener(context.Background(), vm, l, "bound", ev))
	}
	assert.Equal(t, []string{"plain", "err", "ctx", "this", "reflect:click", "reflect-this:bound"}, calls)
	assert.Equal(t, []Event{ev}, handler.got)
}

func TestEventListenerReflectReturnsError(t *testing.T) {
	rt := NewRuntime(Options{})
	vm := mustMount(rt, nil, leafDef, leafProps{})
	boom := errors.New("boom")

	err := rt.EventListener(context.Background(), vm, func(e BasicEvent) (int, error) { return 0, boom }, nil, BasicEvent{Name: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestEventListenerFailureContained(t *testing.T) {
	rt := NewRuntime(Options{})
	root := mustMount(rt, nil, guardDef, guardProps{})
	vm := mustMount(rt, root, leafDef, leafProps{})

	err := rt.EventListener(context.Background(), vm, func(e Event) error {
		return errors.New("listener failed")
	}, nil, BasicEvent{Name: "click"})
	require.NoError(t, err)
	assert.Len(t, root.Component.(*guard).captured, 1)
}

func TestEventListenerAssertsCallableInDebug(t *testing.T) {
	rt := NewRuntime(Options{Debug: true})
	root := mustMount(rt, nil, guardDef, guardProps{})
	vm := mustMount(rt, root, leafDef, leafProps{})

	for _, bad := range []any{nil, "not a function", 42, (func(Event))(nil)} {
		err := rt.EventListener(context.Background(), vm, bad, nil, BasicEvent{Name: "submit"})
		require.Error(t, err, "%T", bad)
		assert.True(t, IsAssertion(err))
		assert.ErrorIs(t, err, ErrInvalidListener)
		assert.Contains(t, err.Error(), `"submit"`)
		assert.Contains(t, err.Error(), "leaf")
	}
	// Assertion failures are defects in the caller and never reach a boundary.
	assert.Empty(t, root.Component.(*guard).captured)
}

// Without debug assertions a non-callable listener is called as-is. The call
// fails inside the job, so it is treated like any other listener panic:
// contained by a boundary when there is one, returned otherwise. This
// permissiveness is intentional.
func TestEventListenerNonCallableWithoutDebug(t *testing.T) {
	rt := NewRuntime(Options{})
	root := mustMount(rt, nil, guardDef, guardProps{})
	vm := mustMount(rt, root, leafDef, leafProps{})

	err := rt.EventListener(context.Background(), vm, "not a function", nil, BasicEvent{Name: "submit"})
	require.NoError(t, err)
	captured := root.Component.(*guard).captured
	require.Len(t, captured, 1)
	var pe *PanicError
	assert.ErrorAs(t, captured[0], &pe)
	assert.False(t, IsAssertion(captured[0]))

	orphan := mustMount(rt, nil, leafDef, leafProps{})
	err = rt.EventListener(context.Background(), orphan, nil, nil, BasicEvent{Name: "submit"})
	assert.ErrorAs(t, err, &pe)
}

func TestProductionDisablesAssertions(t *testing.T) {
	rt := NewRuntime(Options{Debug: true, Production: true})
	assert.False(t, rt.Debug())

	vm := mustMount(rt, nil, leafDef, leafProps{})
	err := rt.EventListener(context.Background(), vm, 42, nil, BasicEvent{Name: "submit"})
	assert.False(t, IsAssertion(err))
}

func TestDispatch(t *testing.T) {
	rt := NewRuntime(Options{Debug: true})
	vm := mustMount(rt, nil, leafDef, leafProps{})

	var order []string
	vm.On("click", func(e Event) { order = append(order, "a") }, nil)
	vm.On("click", func(this any, e Event) error { order = append(order, this.(string)); return nil }, "b")
	vm.On("hover", func(e Event) { order = append(order, "hover") }, nil)

	require.NoError(t, rt.Dispatch(context.Background(), vm, BasicEvent{Name: "click"}))
	assert.Equal(t, []string{"a", "b"}, order)

	require.NoError(t, rt.Dispatch(context.Background(), vm, BasicEvent{Name: "none"}))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestDispatchStopsAtUncontainedFailure(t *testing.T) {
	rt := NewRuntime(Options{})
	vm := mustMount(rt, nil, leafDef, leafProps{})
	boom := errors.New("boom")

	ran := false
	vm.On("click", func(e Event) error { return boom }, nil)
	vm.On("click", func(e Event) { ran = true }, nil)

	assert.ErrorIs(t, rt.Dispatch(context.Background(), vm, BasicEvent{Name: "click"}), boom)
	assert.False(t, ran)
}
