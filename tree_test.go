package hxhook

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTreeRunsRenderedCallbacksChildrenFirst(t *testing.T) {
	rt := NewRuntime(Options{})
	var names []string
	record := func(ctx context.Context, vm *VM) {
		assert.Same(t, vm, FromContext(ctx).InRenderedCallback())
		names = append(names, vm.ID)
	}
	root := mustMount(rt, nil, frameDef, frameProps{
		Rendered: record,
		Children: []childSpec{
			{Def: frameDef, Props: frameProps{Rendered: record}},
			{Def: frameDef, Props: frameProps{Rendered: record, Children: []childSpec{
				{Def: frameDef, Props: frameProps{Rendered: record}},
			}}},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, rt.RenderTree(context.Background(), &buf, root))
	assert.Equal(t, "<section><section></section><section><section></section></section></section>", buf.String())

	first := root.Children()[0]
	second := root.Children()[1]
	grand := second.Children()[0]
	assert.Equal(t, []string{first.ID, grand.ID, second.ID, root.ID}, names)
	assert.Equal(t, State{}, rt.State())
	assert.Empty(t, rt.rendered)
}

func TestRenderTreeRootFailure(t *testing.T) {
	rt := NewRuntime(Options{})
	boom := errors.New("root failed")
	root := mustMount(rt, nil, leafDef, leafProps{Fail: boom})

	var buf bytes.Buffer
	assert.ErrorIs(t, rt.RenderTree(context.Background(), &buf, root), boom)
	assert.Empty(t, buf.String())
	assert.Empty(t, rt.rendered)
}

func TestRenderTreeUncontainedChildFailure(t *testing.T) {
	rt := NewRuntime(Options{})
	boom := errors.New("child failed")
	root := mustMount(rt, nil, frameDef, frameProps{Children: []childSpec{
		{Def: leafDef, Props: leafProps{Fail: boom}},
	}})

	var buf bytes.Buffer
	err := rt.RenderTree(context.Background(), &buf, root)
	require.ErrorIs(t, err, boom)

	var he *HookError
	require.ErrorAs(t, err, &he)
	// Annotated at the leaf and again where the frame's render failed.
	require.Len(t, he.Hops, 2)
	assert.Equal(t, "leaf", he.Hops[0].VM.Name())
	assert.Equal(t, "frame", he.Hops[1].VM.Name())
	assert.Equal(t, State{}, rt.State())
}

func TestRenderTreeChildConstructFailureReachesOwnerBoundary(t *testing.T) {
	rt := NewRuntime(Options{})
	root := mustMount(rt, nil, guardDef, guardProps{Children: []childSpec{
		{Def: frameDef, Props: frameProps{Children: []childSpec{
			{Def: skipsInitDef},
		}}},
	}})

	var buf bytes.Buffer
	require.NoError(t, rt.RenderTree(context.Background(), &buf, root))

	// The constructor error surfaced from Child into the frame's render,
	// and the frame's render failure was then contained by the guard.
	captured := root.Component.(*guard).captured
	require.Len(t, captured, 1)
	assert.True(t, IsInvalidConstructor(captured[0]))
	assert.Equal(t, "<div></div>", buf.String())
}

func TestChildOutsideRender(t *testing.T) {
	_, err := Child(context.Background(), leafDef, nil)
	assert.ErrorIs(t, err, ErrNoRuntime)

	rt := NewRuntime(Options{})
	_, err = Child(WithRuntime(context.Background(), rt), leafDef, nil)
	assert.ErrorIs(t, err, ErrNotRendering)
}

func TestMountRoot(t *testing.T) {
	rt := NewRuntime(Options{})
	vm, err := rt.Mount(context.Background(), nil, leafDef, leafProps{Text: "a"})
	require.NoError(t, err)
	assert.Nil(t, vm.Owner)
	assert.Same(t, vm, vm.Root())
	assert.NotEmpty(t, vm.ID)
}

func TestChildFromTemplateFuncRecordedBeforeOwner(t *testing.T) {
	rt := NewRuntime(Options{})
	var order []string
	lazy := &Def{
		Name:      "lazy",
		Construct: leafDef.Construct,
		Render: func(ctx context.Context, _ any) (TemplateFunc, error) {
			return func(ctx context.Context) templ.Component {
				c, err := Child(ctx, frameDef, frameProps{Rendered: func(ctx context.Context, vm *VM) {
					order = append(order, "child")
				}})
				if err != nil {
					return ErrorComponent(err)
				}
				return c
			}, nil
		},
		RenderedCallback: func(ctx context.Context, _ any) error {
			order = append(order, "lazy")
			return nil
		},
	}
	root := mustMount(rt, nil, lazy, nil)

	var buf bytes.Buffer
	require.NoError(t, rt.RenderTree(context.Background(), &buf, root))
	assert.Equal(t, "<section></section>", buf.String())
	assert.Equal(t, []string{"child", "lazy"}, order)
	require.Len(t, root.Children(), 1)
}
