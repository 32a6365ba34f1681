package reactive

import "log/slog"

// Engine wires one runtime's Tracker and Scheduler together. All stores
// created from an engine report reads to its tracker and writes to its
// scheduler. An engine is confined to a single logical loop.
type Engine struct {
	tracker   *Tracker
	scheduler *Scheduler
	logger    *slog.Logger
}

// NewEngine creates an engine. Scheduler options apply to its scheduler.
func NewEngine(opts ...SchedulerOption) *Engine {
	e := &Engine{
		tracker: NewTracker(),
		logger:  slog.Default(),
	}
	e.scheduler = NewScheduler(opts...)
	return e
}

// SetLogger replaces the engine's (and scheduler's) structured logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	e.logger = l
	e.scheduler.logger = l
}

// Tracker returns the dependency tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Scheduler returns the update scheduler.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}

// notify resolves the written path's subscribers and enqueues them.
func (e *Engine) notify(path Path, change Change) {
	for fragment := range e.tracker.Resolve(path) {
		e.scheduler.Invalidate(fragment, change)
	}
}

// Batch groups multiple writes into a single flush:
//
//	eng.Batch(func() {
//	    root.Write("first", "Ada")
//	    root.Write("last", "Lovelace")
//	})
//
// Without an explicit batch, writes still coalesce until the host's next
// flush; Batch just makes the settle point local and synchronous.
func (e *Engine) Batch(fn func()) error {
	fn()
	return e.scheduler.Flush()
}

// Settle flushes any pending work. Embedded (non-hosted) users call this
// after a burst of writes; hosted runtimes flush at the end of each tick.
func (e *Engine) Settle() error {
	return e.scheduler.Flush()
}
