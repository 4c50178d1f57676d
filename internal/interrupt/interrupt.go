// Package interrupt turns operating system interrupts into context cancellation.
// The first interrupt asks the program to stop gracefully, the second one
// exits immediately.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ForcedExitCode is the exit code used on a second interrupt.
const ForcedExitCode = 130

type State int32

const (
	Running State = iota
	ShutdownRequested
	ForceExit
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ShutdownRequested:
		return "shutdown requested"
	case ForceExit:
		return "force exit"
	default:
		return "unknown"
	}
}

// Controller holds the interrupt state of the process.
type Controller struct {
	state  atomic.Int32
	cancel context.CancelFunc
	exit   func(code int)
}

// New returns a Controller that calls cancel on the first interrupt and
// exit(ForcedExitCode) on the second. A nil exit means os.Exit.
func New(cancel context.CancelFunc, exit func(code int)) *Controller {
	if exit == nil {
		exit = os.Exit
	}
	return &Controller{cancel: cancel, exit: exit}
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Interrupt advances the state machine by one step.
func (c *Controller) Interrupt() {
	switch State(c.state.Add(1)) {
	case ShutdownRequested:
		log.Warn().Msg("interrupt received, finishing the current chunk of every download; interrupt again to exit immediately")
		c.cancel()
	case ForceExit:
		log.Warn().Msg("second interrupt received, exiting")
		c.exit(ForcedExitCode)
	default:
		// Already exiting.
	}
}

// Watch calls Interrupt for every value received on signals until ctx is done.
func (c *Controller) Watch(ctx context.Context, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			log.Debug().Str("signal", sig.String()).Msg("received signal")
			c.Interrupt()
		}
	}
}

// Notify returns a context that is cancelled on the first SIGINT or SIGTERM.
// stop must be called to release the signal handler.
func Notify(parent context.Context) (ctx context.Context, c *Controller, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	c = New(cancel, nil)

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	// Outlives ctx: the second interrupt must still be seen after cancellation.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go c.Watch(watchCtx, signals)

	return ctx, c, func() {
		signal.Stop(signals)
		stopWatch()
		cancel()
	}
}
