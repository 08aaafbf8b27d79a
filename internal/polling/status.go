package polling

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/sstewart199/ring/internal/ring"
)

// ThrottleWindow is the minimum spacing between two status fetches.
const ThrottleWindow = 500 * time.Millisecond

// StatusTarget receives status records from the StatusCoordinator.
// *device.Camera satisfies this interface.
type StatusTarget interface {
	ID() int64
	UpdateData(data ring.CameraData)
	SetUpdateRequester(fn func())
}

// SnapshotFetcher fetches the account's device snapshot.
// *ring.Client satisfies this interface.
type SnapshotFetcher interface {
	FetchDevices(ctx context.Context) (*ring.Snapshot, error)
}

// StatusConfig holds configuration for a StatusCoordinator.
type StatusConfig struct {
	// Interval between the end of one cycle and the next periodic cycle.
	// Zero disables periodic polling; manual requests still work.
	Interval time.Duration

	// Clock defaults to RealClock.
	Clock Clock
}

type triggerSource int

const (
	sourceManual triggerSource = iota
	sourceTimer
)

func (s triggerSource) String() string {
	if s == sourceTimer {
		return "timer"
	}
	return "manual"
}

// StatusCoordinator merges per-device refresh requests with an optional
// periodic trigger and turns them into throttled snapshot fetches.
//
// Every device's RequestUpdate feeds one single-slot channel. The loop
// admits at most one trigger per ThrottleWindow; the rest are dropped.
// Each admitted trigger runs one fetch on the loop goroutine, so cycles
// never overlap, and each returned camera record is dispatched to the
// device with the same id. After every cycle the periodic timer is
// re-armed, which makes the period a delay measured from completion.
type StatusCoordinator struct {
	lifecycle

	fetcher  SnapshotFetcher
	devices  map[int64]StatusTarget
	clock    Clock
	interval time.Duration
	limiter  *rate.Limiter

	requests chan struct{}
}

// NewStatusCoordinator creates a coordinator for devices and installs its
// trigger as each device's update requester. devices is indexed once and
// never changes afterwards.
func NewStatusCoordinator(fetcher SnapshotFetcher, devices []StatusTarget, cfg StatusConfig) *StatusCoordinator {
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock()
	}

	c := &StatusCoordinator{
		fetcher:  fetcher,
		devices:  make(map[int64]StatusTarget, len(devices)),
		clock:    clock,
		interval: cfg.Interval,
		limiter:  rate.NewLimiter(rate.Every(ThrottleWindow), 1),
		requests: make(chan struct{}, 1),
	}
	for _, d := range devices {
		c.devices[d.ID()] = d
	}
	for _, d := range c.devices {
		d.SetUpdateRequester(c.RequestUpdate)
	}

	c.stats.Devices = len(c.devices)
	c.stats.Interval = cfg.Interval
	return c
}

// SetLogger sets the logger for this coordinator.
func (c *StatusCoordinator) SetLogger(logger Logger) {
	c.setLogger(logger)
}

// Start launches the polling loop. With no devices it does nothing.
// If the interval is positive the first cycle runs immediately.
func (c *StatusCoordinator) Start(ctx context.Context) error {
	loopCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	if len(c.devices) == 0 {
		c.log().Debug("status coordinator idle: no devices")
		return nil
	}

	c.updateStats(func(s *Stats) { s.Running = true })
	c.wg.Add(1)
	go c.loop(loopCtx)

	c.log().Info("status coordinator started",
		"devices", len(c.devices),
		"interval", c.interval,
	)
	return nil
}

// Stop ends the loop and cancels any pending timer or in-flight fetch.
// Safe to call multiple times.
func (c *StatusCoordinator) Stop() {
	c.end()
}

// RequestUpdate asks for a status fetch. It never blocks: while a request
// is already pending, further requests are merged into it.
func (c *StatusCoordinator) RequestUpdate() {
	select {
	case c.requests <- struct{}{}:
	default:
		c.updateStats(func(s *Stats) { s.CoalescedRequests++ })
	}
}

// Stats returns a copy of the coordinator's counters.
func (c *StatusCoordinator) Stats() Stats {
	return c.snapshot()
}

func (c *StatusCoordinator) loop(ctx context.Context) {
	defer c.wg.Done()

	timer := rearmer{clock: c.clock, interval: c.interval}
	defer timer.stop()

	var timerC <-chan time.Time
	if c.interval > 0 {
		timerC = c.handle(ctx, sourceTimer, &timer)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.requests:
			if next, admitted := c.admit(ctx, sourceManual, &timer); admitted {
				timerC = next
			}
		case <-timerC:
			timerC = c.handle(ctx, sourceTimer, &timer)
		}
	}
}

// admit runs a cycle for an admitted trigger. A dropped manual trigger
// leaves the pending timer alone.
func (c *StatusCoordinator) admit(ctx context.Context, src triggerSource, timer *rearmer) (<-chan time.Time, bool) {
	if !c.limiter.AllowN(c.clock.Now(), 1) {
		c.drop(src)
		return nil, false
	}
	c.cycle(ctx)
	return timer.arm(), true
}

// handle processes a timer trigger. A timer trigger dropped by the
// throttle re-arms so periodic polling never stalls.
func (c *StatusCoordinator) handle(ctx context.Context, src triggerSource, timer *rearmer) <-chan time.Time {
	if next, admitted := c.admit(ctx, src, timer); admitted {
		return next
	}
	return timer.arm()
}

func (c *StatusCoordinator) drop(src triggerSource) {
	c.updateStats(func(s *Stats) { s.DroppedTriggers++ })
	c.log().Debug("status trigger throttled", "source", src.String())
}

// cycle performs one fetch and dispatches the result. Failures yield no
// records and are never returned.
func (c *StatusCoordinator) cycle(ctx context.Context) {
	snap, err := c.fetcher.FetchDevices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.log().Warn("status fetch failed", "error", err)
		c.updateStats(func(s *Stats) {
			s.Cycles++
			s.Failures++
			s.LastCycle = c.clock.Now()
			s.LastError = err.Error()
		})
		return
	}

	var dispatched, unknown uint64
	for _, rec := range snap.Cameras() {
		target, ok := c.devices[rec.Data.ID]
		if !ok {
			unknown++
			continue
		}
		target.UpdateData(rec.Data)
		dispatched++
	}

	c.updateStats(func(s *Stats) {
		s.Cycles++
		s.DispatchedRecords += dispatched
		s.UnknownRecords += unknown
		s.LastCycle = c.clock.Now()
		s.LastError = ""
	})
	c.log().Debug("status cycle complete", "dispatched", dispatched, "unknown", unknown)
}
