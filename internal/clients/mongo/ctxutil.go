package mongo

import (
	"context"
	"time"
)

// OpTimeout is the default timeout for MongoDB operations
const OpTimeout = 5 * time.Second

// WithRepoTimeout bounds ctx by d unless ctx already ends sooner or is done.
// The returned cancel is always safe to defer.
func WithRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func repoCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return WithRepoTimeout(parent, OpTimeout)
}
