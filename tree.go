package hxhook

import (
	"context"
	"errors"
	"io"

	"github.com/a-h/templ"
)

// Mount creates an instance of def under owner and constructs it. A nil
// owner mounts a root. On failure the instance is detached from owner and
// the construction error is returned.
func (rt *Runtime) Mount(ctx context.Context, owner *VM, def *Def, props any) (*VM, error) {
	vm := NewVM(def, owner, props)
	if err := rt.Construct(ctx, vm); err != nil {
		if owner != nil {
			owner.children = removeVM(owner.children, vm)
		}
		return nil, err
	}
	rt.log.Debug().Str("vm", vm.String()).Msg("mounted")
	return vm, nil
}

// Child mounts and renders a child of the instance whose hook is running on
// ctx. Call it from a render hook so a failure fails the owner's render:
//
//	func (p *Page) Render(ctx context.Context) (hxhook.TemplateFunc, error) {
//	    sidebar, err := hxhook.Child(ctx, SidebarDef, SidebarProps{UserID: p.userID})
//	    if err != nil {
//	        return nil, err
//	    }
//	    return func(ctx context.Context) templ.Component {
//	        return pageTemplate(sidebar)
//	    }, nil
//	}
//
// A template function may call Child as well; the child is still recorded
// before its owner for rendered callbacks, but the template function has to
// deal with the error itself.
//
// A child whose render failed and was contained by a boundary yields
// templ.NopComponent.
func Child(ctx context.Context, def *Def, props any) (templ.Component, error) {
	rt := FromContext(ctx)
	if rt == nil {
		return nil, ErrNoRuntime
	}
	owner := VMFromContext(ctx)
	if owner == nil {
		owner = rt.Rendering()
	}
	if owner == nil {
		return nil, ErrNotRendering
	}
	vm, err := rt.Mount(ctx, owner, def, props)
	if err != nil {
		return nil, err
	}
	c, err := rt.Render(ctx, vm)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return templ.NopComponent, nil
	}
	return c, nil
}

// RenderTree renders root and everything it mounts, writes the output to w
// and then runs rendered callbacks for every instance that rendered,
// children before their owners.
func (rt *Runtime) RenderTree(ctx context.Context, w io.Writer, root *VM) error {
	ctx = rt.bind(ctx)
	start := len(rt.rendered)
	defer func() {
		rt.rendered = rt.rendered[:start]
	}()

	c, err := rt.Render(ctx, root)
	if err != nil {
		return err
	}
	if c != nil {
		if err := c.Render(withVM(ctx, root), w); err != nil {
			return err
		}
	}

	pending := append([]*VM(nil), rt.rendered[start:]...)
	var errs []error
	for _, vm := range pending {
		if err := rt.RenderedCallback(ctx, vm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func removeVM(list []*VM, vm *VM) []*VM {
	for i, v := range list {
		if v == vm {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
