package hxhook

import (
	"context"
)

// Guard is the boundary-protected invoker every hook runs through.
//
// It runs pre, job and post in that order; post runs even when job fails.
// A job failure (returned error or panic) is annotated with vm's ownership
// chain and then:
//   - with a non-nil owner, handed to the Boundaries collaborator. If an
//     ancestor contains it Guard returns nil, otherwise the escalated error.
//   - with a nil owner, offered to the root recovery policy if one is
//     configured, and otherwise returned.
//
// Flags touched by pre are restored by post before any boundary runs, so a
// capture hook always observes its caller's state.
func (rt *Runtime) Guard(ctx context.Context, vm, owner *VM, pre func(), job func(ctx context.Context) error, post func()) error {
	ctx = rt.bind(ctx)

	if pre != nil {
		pre()
	}
	err := func() error {
		if post != nil {
			defer post()
		}
		return runJob(withVM(ctx, vm), vm, job)
	}()
	if err == nil {
		return nil
	}

	err = rt.annotator.Annotate(vm, err)

	if owner != nil {
		herr := rt.boundaries.HandleError(ctx, owner, err)
		if herr != nil {
			rt.log.Error().Err(herr).Str("vm", vm.String()).Str("owner", owner.String()).Msg("hook failure escalated")
			return herr
		}
		rt.log.Warn().Err(err).Str("vm", vm.String()).Str("owner", owner.String()).Msg("hook failure contained")
		return nil
	}

	if rt.onRootError != nil {
		rerr := rt.onRootError(ctx, vm, err)
		if rerr == nil {
			rt.log.Warn().Err(err).Str("vm", vm.String()).Msg("hook failure recovered at root")
			return nil
		}
		err = rerr
	}
	rt.log.Error().Err(err).Str("vm", vm.String()).Msg("hook failure")
	return err
}

// runJob calls job, converting a panic into a *PanicError.
func runJob(ctx context.Context, vm *VM, job func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Component:  vm.Name(),
				Value:      r,
				StackTrace: captureStack(),
			}
		}
	}()
	return job(ctx)
}
