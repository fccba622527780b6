package treectx

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Discovery retry schedule. The first re-dispatch happens after
// RetryBaseDelay, doubling per failed attempt up to RetryMaxDelay. Failed
// attempts past retryReportAfter invoke the consumer's
// no-provider-found callback. No correctness property depends on the exact
// values.
const (
	RetryBaseDelay = 50 * time.Millisecond
	RetryMaxDelay  = time.Second

	retryReportAfter = 2
)

// Scheduler defers a function for later execution. It abstracts the timer so
// discovery retries can run on real timers in production and be stepped
// deterministically in tests.
type Scheduler interface {
	// Schedule arranges for fn to run after d and returns a cancel function.
	// Cancelling after fn ran is a no-op.
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on real timers via time.AfterFunc. Callbacks fire
// on the timer goroutine, so embedders using it must serialize tree access
// externally.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

var defaultScheduler Scheduler = TimerScheduler{}

// StepScheduler queues deferred work and runs it only when stepped, keeping
// everything on the caller's goroutine. Delays are ignored; tasks run in
// FIFO order. Intended for tests and embedders that pump their own loop.
type StepScheduler struct {
	mu  sync.Mutex
	due *queue.Queue
}

type stepTask struct {
	fn        func()
	cancelled bool
}

func NewStepScheduler() *StepScheduler {
	return &StepScheduler{due: queue.New()}
}

func (s *StepScheduler) Schedule(d time.Duration, fn func()) (cancel func()) {
	t := &stepTask{fn: fn}
	s.mu.Lock()
	s.due.Add(t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

// Step runs the next pending task. It reports whether a task ran.
func (s *StepScheduler) Step() bool {
	s.mu.Lock()
	for s.due.Length() > 0 {
		t := s.due.Remove().(*stepTask)
		if t.cancelled {
			continue
		}
		s.mu.Unlock()
		t.fn()
		return true
	}
	s.mu.Unlock()
	return false
}

// Pending returns the number of queued tasks, cancelled ones included.
func (s *StepScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.due.Length()
}

// retryDispatcher re-dispatches a discovery event until a provider claims it
// or stop is called. Absence of a provider is a degraded state, not an
// error: retries continue indefinitely with capped geometric backoff.
type retryDispatcher struct {
	mu       sync.Mutex
	dispatch func() bool
	onMiss   func(attempt int)
	sched    Scheduler
	attempt  int
	cancel   func()
	stopped  bool

	// onStale tears down a pairing made by a dispatch that stop raced into:
	// a timer callback past the point of cancellation can still be claimed.
	// Runs outside the lock.
	onStale func()
}

func newRetryDispatcher(sched Scheduler, dispatch func() bool, onMiss func(attempt int)) *retryDispatcher {
	return &retryDispatcher{
		dispatch: dispatch,
		onMiss:   onMiss,
		sched:    sched,
	}
}

// start performs the first dispatch synchronously; if unclaimed, retries are
// scheduled until claimed or stopped.
func (r *retryDispatcher) start() {
	r.run()
}

func (r *retryDispatcher) run() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	claimed := r.dispatch()

	r.mu.Lock()
	if claimed {
		raced := r.stopped
		r.stopped = true
		r.mu.Unlock()
		if raced && r.onStale != nil {
			r.onStale()
		}
		return
	}
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.attempt++
	attempt := r.attempt
	r.cancel = r.sched.Schedule(backoffDelay(attempt), r.run)
	r.mu.Unlock()

	if attempt > retryReportAfter && r.onMiss != nil {
		r.onMiss(attempt)
	}
}

// stop cancels any pending retry. Safe to call more than once and from the
// claim path itself.
func (r *retryDispatcher) stop() {
	r.mu.Lock()
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
}

func backoffDelay(attempt int) time.Duration {
	d := RetryBaseDelay << (attempt - 1)
	if d <= 0 || d > RetryMaxDelay {
		return RetryMaxDelay
	}
	return d
}
