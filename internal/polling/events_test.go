package polling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sstewart199/ring/internal/ring"
)

type fakeDingFetcher struct {
	clock *fakeClock

	mu    sync.Mutex
	calls []time.Time
	dings []ring.ActiveDing
	err   error
	gate  chan struct{}
}

func (f *fakeDingFetcher) FetchActiveDings(ctx context.Context) ([]ring.ActiveDing, error) {
	f.mu.Lock()
	f.calls = append(f.calls, f.clock.Now())
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dings, f.err
}

func (f *fakeDingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeDingFetcher) CallTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeEventTarget struct {
	id int64

	mu    sync.Mutex
	dings []ring.ActiveDing
}

func (d *fakeEventTarget) ID() int64 { return d.id }

func (d *fakeEventTarget) ProcessDing(ding ring.ActiveDing) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dings = append(d.dings, ding)
	return true
}

func (d *fakeEventTarget) Dings() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dings)
}

func newEventFixture(t *testing.T, interval time.Duration, ids ...int64) (*EventCoordinator, *fakeDingFetcher, *fakeClock, []*fakeEventTarget) {
	t.Helper()

	clock := newFakeClock()
	fetcher := &fakeDingFetcher{clock: clock}

	targets := make([]*fakeEventTarget, 0, len(ids))
	devices := make([]EventTarget, 0, len(ids))
	for _, id := range ids {
		d := &fakeEventTarget{id: id}
		targets = append(targets, d)
		devices = append(devices, d)
	}

	c := NewEventCoordinator(fetcher, devices, EventConfig{Interval: interval, Clock: clock})
	t.Cleanup(c.Stop)
	return c, fetcher, clock, targets
}

func TestEventCoordinator_Disabled(t *testing.T) {
	c, fetcher, clock, _ := newEventFixture(t, 0, 1)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	settle()
	clock.Advance(time.Hour)
	settle()

	if fetcher.Calls() != 0 {
		t.Errorf("fetches = %d, want 0 when interval is zero", fetcher.Calls())
	}
	if c.Stats().Running {
		t.Error("Stats().Running = true for a disabled coordinator")
	}
}

func TestEventCoordinator_DispatchByDoorbotID(t *testing.T) {
	c, fetcher, clock, targets := newEventFixture(t, 2*time.Second, 1, 2)
	fetcher.dings = []ring.ActiveDing{
		{ID: 100, DoorbotID: 1, Kind: ring.DingKindDing},
		{ID: 101, DoorbotID: 1, Kind: ring.DingKindMotion},
		{ID: 102, DoorbotID: 42, Kind: ring.DingKindMotion},
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// First cycle runs at start.
	eventually(t, "first cycle", func() bool { return c.Stats().Cycles == 1 })

	if targets[0].Dings() != 2 {
		t.Errorf("device 1 dings = %d, want 2", targets[0].Dings())
	}
	if targets[1].Dings() != 0 {
		t.Errorf("device 2 dings = %d, want 0", targets[1].Dings())
	}
	s := c.Stats()
	if s.DispatchedRecords != 2 || s.UnknownRecords != 1 {
		t.Errorf("Stats() dispatched/unknown = %d/%d, want 2/1", s.DispatchedRecords, s.UnknownRecords)
	}

	eventually(t, "timer armed", func() bool { return clock.Pending() == 1 })
	clock.Advance(2 * time.Second)
	eventually(t, "second cycle", func() bool { return fetcher.Calls() == 2 })
}

func TestEventCoordinator_EmptyResultRearms(t *testing.T) {
	c, fetcher, clock, targets := newEventFixture(t, time.Second, 1)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 1; i <= 3; i++ {
		eventually(t, "cycle", func() bool { return fetcher.Calls() == i && clock.Pending() == 1 })
		clock.Advance(time.Second)
	}
	if targets[0].Dings() != 0 {
		t.Error("empty results should not reach devices")
	}
}

func TestEventCoordinator_FailureStillRearms(t *testing.T) {
	c, fetcher, clock, _ := newEventFixture(t, 3*time.Second, 1)
	fetcher.err = errors.New("timeout")

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	eventually(t, "first failure", func() bool { return c.Stats().Failures == 1 && clock.Pending() == 1 })

	clock.Advance(3 * time.Second)
	eventually(t, "second failure", func() bool { return c.Stats().Failures == 2 })
}

func TestEventCoordinator_ChainedDelay(t *testing.T) {
	const interval = 5 * time.Second
	c, fetcher, clock, _ := newEventFixture(t, interval, 1)
	gate := make(chan struct{})
	fetcher.gate = gate

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	eventually(t, "first fetch", func() bool { return fetcher.Calls() == 1 })

	clock.Advance(2 * time.Second)
	close(gate)
	eventually(t, "timer armed", func() bool { return clock.Pending() == 1 })

	clock.Advance(4 * time.Second)
	settle()
	if fetcher.Calls() != 1 {
		t.Fatalf("fetches = %d before interval elapsed, want 1", fetcher.Calls())
	}

	clock.Advance(time.Second)
	eventually(t, "second fetch", func() bool { return fetcher.Calls() == 2 })

	times := fetcher.CallTimes()
	if got := times[1].Sub(times[0]); got != 7*time.Second {
		t.Errorf("gap = %v, want 7s", got)
	}
}

func TestEventCoordinator_Stop(t *testing.T) {
	c, fetcher, clock, _ := newEventFixture(t, time.Second, 1)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	eventually(t, "timer armed", func() bool { return clock.Pending() == 1 })

	c.Stop()
	c.Stop()

	clock.Advance(time.Minute)
	settle()
	if fetcher.Calls() != 1 {
		t.Errorf("fetches after Stop = %d, want 1", fetcher.Calls())
	}
	if clock.Pending() != 0 {
		t.Errorf("pending timers after Stop = %d, want 0", clock.Pending())
	}
}
