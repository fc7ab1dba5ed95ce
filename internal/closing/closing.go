// Package closing provides the process-wide shutdown signal used to
// unblock any goroutine that would otherwise wait forever on a channel
// send or receive during shutdown.
package closing

import "context"

var ctx, cancel = context.WithCancel(context.Background())

// Ch is closed exactly once, when Close is called.
var Ch = ctx.Done()

// Context returns the process-wide shutdown context. Long-running
// operations should select on Context().Done() alongside their own
// cancellation token.
func Context() context.Context {
	return ctx
}

// Close signals every goroutine waiting on Ch or Context().Done() to
// unwind. Safe to call more than once.
func Close() {
	cancel()
}
