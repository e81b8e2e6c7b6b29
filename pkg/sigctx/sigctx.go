// Package sigctx derives the process root context from shutdown
// signals.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	// treated as a graceful stop, not a stack dump: the services run
	// under supervisors that may escalate INT to QUIT
	syscall.SIGQUIT,
}

// NotifyContext returns a context canceled on the first shutdown
// signal. A second signal terminates the process with the default
// handler.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals...)
}
