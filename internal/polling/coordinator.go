package polling

import (
	"context"
	"sync"
	"time"
)

// Logger defines the logging interface used by the coordinators.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Stats is a point-in-time view of a coordinator's counters.
type Stats struct {
	Running  bool          `json:"running"`
	Devices  int           `json:"devices"`
	Interval time.Duration `json:"interval_ns"`

	Cycles            uint64 `json:"cycles"`
	Failures          uint64 `json:"failures"`
	DroppedTriggers   uint64 `json:"dropped_triggers"`
	CoalescedRequests uint64 `json:"coalesced_requests"`
	DispatchedRecords uint64 `json:"dispatched_records"`
	UnknownRecords    uint64 `json:"unknown_records"`

	LastCycle time.Time `json:"last_cycle,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}

// lifecycle is the start/stop bookkeeping shared by both coordinators.
type lifecycle struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	statsMu sync.Mutex
	stats   Stats

	logger   Logger
	loggerMu sync.RWMutex
}

// begin marks the coordinator started and returns the loop context.
func (l *lifecycle) begin(ctx context.Context) (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil, ErrStopped
	}
	if l.started {
		return nil, ErrAlreadyStarted
	}
	l.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return loopCtx, nil
}

// end cancels the loop and waits for it to exit. Safe to call repeatedly
// and before begin.
func (l *lifecycle) end() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		cancel := l.cancel
		l.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		l.wg.Wait()

		l.statsMu.Lock()
		l.stats.Running = false
		l.statsMu.Unlock()
	})
}

func (l *lifecycle) setLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.loggerMu.Lock()
	l.logger = logger
	l.loggerMu.Unlock()
}

func (l *lifecycle) log() Logger {
	l.loggerMu.RLock()
	defer l.loggerMu.RUnlock()
	if l.logger == nil {
		return noopLogger{}
	}
	return l.logger
}

func (l *lifecycle) updateStats(fn func(*Stats)) {
	l.statsMu.Lock()
	fn(&l.stats)
	l.statsMu.Unlock()
}

func (l *lifecycle) snapshot() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// rearmer owns the chained one-shot timer of a loop. It is only touched
// from the loop goroutine.
type rearmer struct {
	clock    Clock
	interval time.Duration
	timer    Timer
}

// arm replaces any pending timer with a new one firing after interval.
// It returns the channel to select on, or nil if periodic polling is off.
func (r *rearmer) arm() <-chan time.Time {
	r.stop()
	if r.interval <= 0 {
		return nil
	}
	r.timer = r.clock.NewTimer(r.interval)
	return r.timer.C()
}

func (r *rearmer) stop() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
