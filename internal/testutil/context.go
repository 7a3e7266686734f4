package testutil

import (
	"context"
	"testing"
	"time"
)

// Context returns a context bounded by d and cancelled when the test ends.
func Context(tb testing.TB, d time.Duration) context.Context {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	tb.Cleanup(cancel)

	return ctx
}

// CancelContext returns a cancellable context that is also cancelled when
// the test ends.
func CancelContext(tb testing.TB) (context.Context, context.CancelFunc) {
	tb.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)

	return ctx, cancel
}
