package reactive

import (
	"errors"
	"testing"
	"time"
)

func TestSchedulerDeduplicates(t *testing.T) {
	s := NewScheduler()
	runs := 0
	s.Register(1, 0, func(Change) error { runs++; return nil })

	s.Invalidate(1, ChangeValue)
	s.Invalidate(1, ChangeValue)
	s.Invalidate(1, ChangeValue)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if runs != 1 {
		t.Errorf("evaluator ran %d times, want 1", runs)
	}
}

func TestSchedulerFlushOrder(t *testing.T) {
	s := NewScheduler()
	var order []uint64
	record := func(id uint64) Evaluator {
		return func(Change) error { order = append(order, id); return nil }
	}
	s.Register(10, 1, record(10))
	s.Register(11, 0, record(11))
	s.Register(12, 1, record(12))
	s.Register(13, 0, record(13))

	s.Invalidate(12, ChangeValue)
	s.Invalidate(13, ChangeValue)
	s.Invalidate(10, ChangeValue)
	s.Invalidate(11, ChangeValue)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}

	want := []uint64{11, 13, 10, 12} // depth first, then registration order
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

func TestSchedulerChangeUpgrade(t *testing.T) {
	s := NewScheduler()
	var seen Change
	s.Register(1, 0, func(c Change) error { seen = c; return nil })

	s.Invalidate(1, ChangeValue)
	s.Invalidate(1, ChangeStructure)
	s.Flush()

	if seen != ChangeStructure {
		t.Errorf("evaluator saw %v, want ChangeStructure", seen)
	}
}

func TestSchedulerReentrantInvalidationDeferred(t *testing.T) {
	s := NewScheduler()
	var order []uint64
	s.Register(2, 0, func(Change) error { order = append(order, 2); return nil })
	s.Register(1, 0, func(Change) error {
		order = append(order, 1)
		if len(order) == 1 {
			s.Invalidate(2, ChangeValue)
		}
		return nil
	})

	s.Invalidate(1, ChangeValue)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}

	// Fragment 2 runs in the follow-up round of the same flush, not inline.
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("run order %v, want [1 2]", order)
	}
	if s.HasPending() {
		t.Error("work still pending after flush")
	}
}

func TestSchedulerOverflow(t *testing.T) {
	s := NewScheduler(WithFlushCap(4))
	runs := 0
	s.Register(1, 0, func(Change) error {
		runs++
		s.Invalidate(1, ChangeValue) // self-perpetuating storm
		return nil
	})

	s.Invalidate(1, ChangeValue)
	err := s.Flush()
	if !errors.Is(err, ErrSchedulerOverflow) {
		t.Fatalf("Flush() = %v, want ErrSchedulerOverflow", err)
	}
	if runs != 4 {
		t.Errorf("evaluator ran %d rounds, want 4", runs)
	}
	if s.HasPending() {
		t.Error("overflow left pending work; next tick would storm again")
	}
	if err := s.Flush(); err != nil {
		t.Errorf("flush after overflow = %v, want nil", err)
	}
}

func TestSchedulerIdleFlush(t *testing.T) {
	s := NewScheduler()
	runs := 0
	s.Register(1, 0, func(Change) error { runs++; return nil })

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if runs != 0 {
		t.Errorf("idle flush ran %d evaluators, want 0", runs)
	}
}

func TestSchedulerUnregister(t *testing.T) {
	s := NewScheduler()
	runs := 0
	s.Register(1, 0, func(Change) error { runs++; return nil })
	s.Invalidate(1, ChangeValue)
	s.Unregister(1)
	s.Flush()
	if runs != 0 {
		t.Errorf("unregistered evaluator ran %d times", runs)
	}
}

func TestSchedulerScheduleHookFiresOnce(t *testing.T) {
	calls := 0
	s := NewScheduler(WithScheduleHook(func() { calls++ }))
	s.Register(1, 0, func(Change) error { return nil })
	s.Register(2, 0, func(Change) error { return nil })

	s.Invalidate(1, ChangeValue)
	s.Invalidate(2, ChangeValue)
	if calls != 1 {
		t.Errorf("schedule hook fired %d times before flush, want 1", calls)
	}
	s.Flush()
	s.Invalidate(1, ChangeValue)
	if calls != 2 {
		t.Errorf("schedule hook fired %d times after re-arm, want 2", calls)
	}
}

type captureObserver struct {
	flushes   int
	fragments int
	rounds    int
	elapsed   time.Duration
	errs      []error
	overflows int
}

func (o *captureObserver) FlushStart() {}
func (o *captureObserver) FlushEnd(fragments, rounds int, elapsed time.Duration) {
	o.flushes++
	o.fragments += fragments
	o.rounds = rounds
	o.elapsed = elapsed
}
func (o *captureObserver) EvaluationError(fragment uint64, err error) {
	o.errs = append(o.errs, err)
}
func (o *captureObserver) Overflow() { o.overflows++ }

func TestSchedulerObserver(t *testing.T) {
	obs := &captureObserver{}
	s := NewScheduler(WithObserver(obs), WithFlushCap(3))

	evalErr := errors.New("boom")
	s.Register(1, 0, func(Change) error { return evalErr })
	s.Invalidate(1, ChangeValue)
	s.Flush()

	if obs.flushes != 1 || obs.fragments != 1 {
		t.Errorf("observer saw flushes=%d fragments=%d", obs.flushes, obs.fragments)
	}
	if len(obs.errs) != 1 || !errors.Is(obs.errs[0], evalErr) {
		t.Errorf("observer errors = %v", obs.errs)
	}

	s.Register(2, 0, func(Change) error {
		s.Invalidate(2, ChangeValue)
		return nil
	})
	s.Invalidate(2, ChangeValue)
	s.Flush()
	if obs.overflows != 1 {
		t.Errorf("observer overflows = %d, want 1", obs.overflows)
	}
}
