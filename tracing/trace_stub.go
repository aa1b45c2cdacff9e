//go:build !trace

package tracing

import "context"

// Start is a no-op when tracing support is not compiled in.
func Start() error { return nil }

// Stop is a no-op when tracing support is not compiled in.
func Stop() {}

// StartTask returns the context unchanged along with a no-op end function.
func StartTask(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

// StartRegion returns a no-op end function.
func StartRegion(ctx context.Context, name string) func() {
	return func() {}
}

// Log is a no-op when tracing support is not compiled in.
func Log(ctx context.Context, category, message string) {}
