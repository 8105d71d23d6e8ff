package hxhook

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Shared fixtures for the runtime tests.

func raw(html string) TemplateFunc {
	return func(ctx context.Context) templ.Component {
		return templ.Raw(html)
	}
}

func join(parts []templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// leaf renders a span and can be told to fail.
type leafProps struct {
	Text     string
	Fail     error
	Panic    any
	OnRender func(ctx context.Context)
}

type leaf struct {
	Base
	props   leafProps
	renders int
}

func newLeaf(ctx context.Context, p leafProps) (*leaf, error) {
	l := &leaf{props: p}
	if err := Init(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *leaf) Render(ctx context.Context) (TemplateFunc, error) {
	l.renders++
	if l.props.OnRender != nil {
		l.props.OnRender(ctx)
	}
	if l.props.Panic != nil {
		panic(l.props.Panic)
	}
	if l.props.Fail != nil {
		return nil, l.props.Fail
	}
	return raw("<span>" + l.props.Text + "</span>"), nil
}

var leafDef = Define("leaf", newLeaf)

type childSpec struct {
	Def   *Def
	Props any
}

func renderChildren(ctx context.Context, tag string, children []childSpec) (TemplateFunc, error) {
	parts := []templ.Component{templ.Raw("<" + tag + ">")}
	for _, spec := range children {
		c, err := Child(ctx, spec.Def, spec.Props)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	parts = append(parts, templ.Raw("</"+tag+">"))
	return func(ctx context.Context) templ.Component {
		return join(parts)
	}, nil
}

// frame renders its children and is not a boundary.
type frameProps struct {
	Children []childSpec
	Rendered func(ctx context.Context, vm *VM)
}

type frame struct {
	Base
	props frameProps
}

func newFrame(ctx context.Context, p frameProps) (*frame, error) {
	f := &frame{props: p}
	if err := Init(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *frame) Render(ctx context.Context) (TemplateFunc, error) {
	return renderChildren(ctx, "section", f.props.Children)
}

func (f *frame) Rendered(ctx context.Context) error {
	if f.props.Rendered != nil {
		f.props.Rendered(ctx, f.VM())
	}
	return nil
}

var frameDef = Define("frame", newFrame)

// guard is a boundary. With Rethrow set it escalates what it captures.
type guardProps struct {
	Children []childSpec
	Rethrow  bool
}

type guard struct {
	Base
	props    guardProps
	captured []error
}

func newGuard(ctx context.Context, p guardProps) (*guard, error) {
	g := &guard{props: p}
	if err := Init(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *guard) Render(ctx context.Context) (TemplateFunc, error) {
	return renderChildren(ctx, "div", g.props.Children)
}

func (g *guard) ErrorCaptured(ctx context.Context, err error) error {
	g.captured = append(g.captured, err)
	if g.props.Rethrow {
		return err
	}
	return nil
}

var guardDef = Define("guard", newGuard)

// skipsInit never takes the base-initialization path.
type skipsInit struct{ Base }

var skipsInitDef = Define("skips-init", func(ctx context.Context, _ struct{}) (*skipsInit, error) {
	return &skipsInit{}, nil
})

// swapsInstance registers one object and returns another.
var swapsInstanceDef = Define("swaps-instance", func(ctx context.Context, _ struct{}) (*leaf, error) {
	if err := Init(ctx, &leaf{}); err != nil {
		return nil, err
	}
	return &leaf{}, nil
})

func mustMount(rt *Runtime, owner *VM, def *Def, props any) *VM {
	vm, err := rt.Mount(context.Background(), owner, def, props)
	if err != nil {
		panic(err)
	}
	return vm
}
