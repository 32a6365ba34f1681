package reactive

import (
	"log/slog"
	"sort"
	"time"
)

// DefaultFlushCap bounds consecutive re-flush rounds within one tick.
const DefaultFlushCap = 32

// Evaluator re-evaluates one fragment. The change hint tells list fragments
// whether the triggering write was structural (insert/remove/reorder) or a
// plain value change.
type Evaluator func(change Change) error

// Observer receives scheduler telemetry. Implementations must be cheap;
// they run inline on the update loop. See package telemetry.
type Observer interface {
	FlushStart()
	FlushEnd(fragments int, rounds int, elapsed time.Duration)
	EvaluationError(fragment uint64, err error)
	Overflow()
}

type fragmentEntry struct {
	depth int
	order uint64
	run   Evaluator
}

// Scheduler coalesces invalidations into an UpdateBatch and drains one batch
// per flush round in deterministic order: shallower fragments first (parents
// before children they might structurally replace), then registration order
// among independent siblings.
type Scheduler struct {
	entries map[uint64]*fragmentEntry

	// pending is the current UpdateBatch, deduplicated by fragment ID and
	// carrying the strongest change kind seen for each fragment.
	pending map[uint64]Change

	// deferred receives invalidations raised while a flush is running. They
	// form the next batch, never re-entered inline.
	deferred map[uint64]Change

	flushing  bool
	scheduled bool

	// onSchedule is the host's deferred-flush hook, the cooperative analogue
	// of a microtask. Fired once per idle->pending transition.
	onSchedule func()

	flushCap int
	orderSeq uint64
	obs      Observer
	logger   *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithFlushCap overrides the consecutive re-flush cap. Zero keeps the default.
func WithFlushCap(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.flushCap = n
		}
	}
}

// WithObserver attaches a telemetry observer.
func WithObserver(obs Observer) SchedulerOption {
	return func(s *Scheduler) { s.obs = obs }
}

// WithScheduleHook sets the host callback fired when a flush becomes pending.
func WithScheduleHook(fn func()) SchedulerOption {
	return func(s *Scheduler) { s.onSchedule = fn }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a scheduler with an empty batch.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		entries:  make(map[uint64]*fragmentEntry),
		pending:  make(map[uint64]Change),
		deferred: make(map[uint64]Change),
		flushCap: DefaultFlushCap,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds a fragment to its evaluator. Depth is the fragment's depth
// in the fragment tree; registration order breaks ties among siblings.
func (s *Scheduler) Register(fragment uint64, depth int, run Evaluator) {
	s.orderSeq++
	s.entries[fragment] = &fragmentEntry{depth: depth, order: s.orderSeq, run: run}
}

// Unregister removes a fragment and any pending invalidation for it.
func (s *Scheduler) Unregister(fragment uint64) {
	delete(s.entries, fragment)
	delete(s.pending, fragment)
	delete(s.deferred, fragment)
}

// Invalidate adds the fragment to the current batch. Duplicate invalidations
// collapse; a structural change upgrades a pending value change. During a
// flush the invalidation lands in the next batch instead.
func (s *Scheduler) Invalidate(fragment uint64, change Change) {
	if _, ok := s.entries[fragment]; !ok {
		return
	}
	batch := s.pending
	if s.flushing {
		batch = s.deferred
	}
	if prev, ok := batch[fragment]; !ok || change > prev {
		batch[fragment] = change
	}
	if !s.flushing && !s.scheduled {
		s.scheduled = true
		if s.onSchedule != nil {
			s.onSchedule()
		}
	}
}

// HasPending reports whether any invalidation awaits a flush.
func (s *Scheduler) HasPending() bool {
	return len(s.pending) > 0
}

// Flush drains the batch. Each fragment is evaluated at most once per round;
// writes raised by evaluations form follow-up rounds. More than flushCap
// rounds in one call means the update graph is oscillating, and
// ErrSchedulerOverflow is returned.
//
// Flushing with an empty batch is a no-op and performs zero work.
func (s *Scheduler) Flush() error {
	s.scheduled = false
	if len(s.pending) == 0 {
		return nil
	}

	start := time.Now()
	if s.obs != nil {
		s.obs.FlushStart()
	}

	total := 0
	rounds := 0
	for len(s.pending) > 0 {
		rounds++
		if rounds > s.flushCap {
			s.pending = make(map[uint64]Change)
			s.deferred = make(map[uint64]Change)
			if s.obs != nil {
				s.obs.Overflow()
			}
			s.logger.Error("scheduler overflow", "rounds", rounds, "cap", s.flushCap)
			return ErrSchedulerOverflow
		}

		batch := s.drainOrdered()
		s.flushing = true
		for _, item := range batch {
			// A parent's evaluation may have unregistered this fragment.
			entry, ok := s.entries[item.fragment]
			if !ok {
				continue
			}
			total++
			if err := entry.run(item.change); err != nil && s.obs != nil {
				s.obs.EvaluationError(item.fragment, err)
			}
		}
		s.flushing = false

		s.pending, s.deferred = s.deferred, s.pending
		clear(s.deferred)
	}

	if s.obs != nil {
		s.obs.FlushEnd(total, rounds, time.Since(start))
	}
	return nil
}

type batchItem struct {
	fragment uint64
	change   Change
	depth    int
	order    uint64
}

// drainOrdered empties the pending batch into the deterministic flush order.
func (s *Scheduler) drainOrdered() []batchItem {
	items := make([]batchItem, 0, len(s.pending))
	for id, change := range s.pending {
		entry, ok := s.entries[id]
		if !ok {
			continue
		}
		items = append(items, batchItem{fragment: id, change: change, depth: entry.depth, order: entry.order})
	}
	clear(s.pending)

	sort.Slice(items, func(i, j int) bool {
		if items[i].depth != items[j].depth {
			return items[i].depth < items[j].depth
		}
		return items[i].order < items[j].order
	})
	return items
}
