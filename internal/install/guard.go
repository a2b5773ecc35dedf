package install

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// cleanupGuard scopes the risky staging-and-publish window. While held, a
// termination signal removes the staging directory before the process dies;
// once released, signals trigger no cleanup. Cleanup is idempotent: the
// signal path and a later error path may both invoke it.
type cleanupGuard struct {
	engine  *Engine
	sys     System
	staging string
	sigc    chan os.Signal
	done    chan struct{}
	once    sync.Once
	closed  sync.Once
}

func (e *Engine) acquireCleanup(staging string) *cleanupGuard {
	e.trackStaging(staging)
	g := &cleanupGuard{
		engine:  e,
		sys:     e.sys,
		staging: staging,
		sigc:    make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(g.sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-g.sigc:
			g.cleanup()
			signal.Stop(g.sigc)
			// Re-raise so the process reports the conventional signal exit.
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
			os.Exit(1)
		case <-g.done:
		}
	}()
	return g
}

// Release closes the signal window without removing anything. Call after
// the publish step has completed.
func (g *cleanupGuard) Release() {
	g.closeWindow()
	g.engine.untrackStaging(g.staging)
}

// Discard closes the signal window and removes the staging directory. Safe
// to call after Release; cleanup only ever runs once and never touches the
// publish destination.
func (g *cleanupGuard) Discard() {
	g.closeWindow()
	g.cleanup()
}

func (g *cleanupGuard) closeWindow() {
	g.closed.Do(func() {
		signal.Stop(g.sigc)
		close(g.done)
	})
}

func (g *cleanupGuard) cleanup() {
	g.once.Do(func() {
		_ = g.sys.RemoveAll(g.staging)
		g.engine.untrackStaging(g.staging)
	})
}
