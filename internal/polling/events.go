package polling

import (
	"context"
	"time"

	"github.com/sstewart199/ring/internal/ring"
)

// EventTarget receives active dings from the EventCoordinator.
// *device.Camera satisfies this interface.
type EventTarget interface {
	ID() int64
	ProcessDing(ding ring.ActiveDing) bool
}

// DingFetcher fetches the account's active dings.
// *ring.Client satisfies this interface.
type DingFetcher interface {
	FetchActiveDings(ctx context.Context) ([]ring.ActiveDing, error)
}

// EventConfig holds configuration for an EventCoordinator.
type EventConfig struct {
	// Interval between the end of one cycle and the start of the next.
	// Zero disables the coordinator.
	Interval time.Duration

	// Clock defaults to RealClock.
	Clock Clock
}

// EventCoordinator polls active dings on a chained delay and hands each
// ding to the device named by its doorbot_id.
//
// There is a single trigger source, so no throttle applies. The first
// cycle runs at Start; each later cycle begins Interval after the previous
// one completed, whether it succeeded or not.
type EventCoordinator struct {
	lifecycle

	fetcher  DingFetcher
	devices  map[int64]EventTarget
	clock    Clock
	interval time.Duration
}

// NewEventCoordinator creates a coordinator for devices.
func NewEventCoordinator(fetcher DingFetcher, devices []EventTarget, cfg EventConfig) *EventCoordinator {
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock()
	}

	c := &EventCoordinator{
		fetcher:  fetcher,
		devices:  make(map[int64]EventTarget, len(devices)),
		clock:    clock,
		interval: cfg.Interval,
	}
	for _, d := range devices {
		c.devices[d.ID()] = d
	}

	c.stats.Devices = len(c.devices)
	c.stats.Interval = cfg.Interval
	return c
}

// SetLogger sets the logger for this coordinator.
func (c *EventCoordinator) SetLogger(logger Logger) {
	c.setLogger(logger)
}

// Start launches the polling loop. It does nothing when the interval is
// zero or there are no devices.
func (c *EventCoordinator) Start(ctx context.Context) error {
	loopCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	if c.interval <= 0 || len(c.devices) == 0 {
		c.log().Debug("event coordinator idle", "interval", c.interval, "devices", len(c.devices))
		return nil
	}

	c.updateStats(func(s *Stats) { s.Running = true })
	c.wg.Add(1)
	go c.loop(loopCtx)

	c.log().Info("event coordinator started",
		"devices", len(c.devices),
		"interval", c.interval,
	)
	return nil
}

// Stop ends the loop and cancels any pending timer or in-flight fetch.
// Safe to call multiple times.
func (c *EventCoordinator) Stop() {
	c.end()
}

// Stats returns a copy of the coordinator's counters.
func (c *EventCoordinator) Stats() Stats {
	return c.snapshot()
}

func (c *EventCoordinator) loop(ctx context.Context) {
	defer c.wg.Done()

	timer := rearmer{clock: c.clock, interval: c.interval}
	defer timer.stop()

	c.cycle(ctx)
	timerC := timer.arm()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timerC:
			c.cycle(ctx)
			timerC = timer.arm()
		}
	}
}

func (c *EventCoordinator) cycle(ctx context.Context) {
	dings, err := c.fetcher.FetchActiveDings(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.log().Warn("active dings fetch failed", "error", err)
		c.updateStats(func(s *Stats) {
			s.Cycles++
			s.Failures++
			s.LastCycle = c.clock.Now()
			s.LastError = err.Error()
		})
		return
	}

	var dispatched, unknown uint64
	for _, ding := range dings {
		target, ok := c.devices[ding.DoorbotID]
		if !ok {
			unknown++
			continue
		}
		if target.ProcessDing(ding) {
			c.log().Info("new ding", "camera_id", ding.DoorbotID, "kind", ding.Kind, "ding_id", ding.ID)
		}
		dispatched++
	}

	c.updateStats(func(s *Stats) {
		s.Cycles++
		s.DispatchedRecords += dispatched
		s.UnknownRecords += unknown
		s.LastCycle = c.clock.Now()
		s.LastError = ""
	})
}
