package refcache

import "context"

type loadFrameContextKey struct{}

// loadFrame marks a cache as loading along the current call chain. Frames
// nest when one type's load path queries another type.
type loadFrame struct {
	owner  any
	parent *loadFrame
}

// enterLoad returns a context recording that owner is loading.
func enterLoad(ctx context.Context, owner any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, _ := ctx.Value(loadFrameContextKey{}).(*loadFrame)
	return context.WithValue(ctx, loadFrameContextKey{}, &loadFrame{owner: owner, parent: parent})
}

// withinLoad reports whether owner is loading somewhere up the call chain of ctx.
func withinLoad(ctx context.Context, owner any) bool {
	if ctx == nil {
		return false
	}
	frame, _ := ctx.Value(loadFrameContextKey{}).(*loadFrame)
	for ; frame != nil; frame = frame.parent {
		if frame.owner == owner {
			return true
		}
	}
	return false
}
