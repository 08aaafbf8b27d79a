package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/location"
	"github.com/sstewart199/ring/internal/polling"
	"github.com/sstewart199/ring/internal/ring"
)

// Logger defines the logging interface used by the Builder.
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

// Fetcher is the part of the Ring API the directory depends on.
// *ring.Client satisfies this interface.
type Fetcher interface {
	FetchLocations(ctx context.Context) ([]ring.LocationData, error)
	FetchDevices(ctx context.Context) (*ring.Snapshot, error)
	FetchActiveDings(ctx context.Context) ([]ring.ActiveDing, error)
}

// Options configures a Builder.
type Options struct {
	// LocationIDs is the location allow-list. nil keeps every location;
	// a non-nil slice keeps only the listed ids, so an empty slice keeps
	// none.
	LocationIDs []string

	// StatusInterval enables periodic status polling when positive.
	StatusInterval time.Duration

	// EventInterval enables active ding polling when positive.
	EventInterval time.Duration

	// Controller handles camera light and siren actions. Optional.
	Controller device.Controller

	// Clock is passed to the coordinators. Defaults to polling.RealClock.
	Clock polling.Clock
}

// Builder turns the account's locations and device snapshot into a
// Directory and owns the directory's lifetime.
type Builder struct {
	fetcher Fetcher
	opts    Options
	logger  Logger

	buildMu sync.Mutex // serialises Build

	mu        sync.RWMutex
	current   *Directory
	observers []func(*Directory)
	closed    bool
}

// NewBuilder creates a builder. Nothing is fetched until Build.
func NewBuilder(fetcher Fetcher, opts Options) *Builder {
	return &Builder{
		fetcher: fetcher,
		opts:    opts,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the builder and the coordinators it creates.
func (b *Builder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// OnBuild registers fn to be called with every newly built directory.
// If a directory already exists fn is called with it immediately.
func (b *Builder) OnBuild(fn func(*Directory)) {
	b.mu.Lock()
	b.observers = append(b.observers, fn)
	current := b.current
	b.mu.Unlock()

	if current != nil {
		fn(current)
	}
}

// Current returns the most recently built directory.
func (b *Builder) Current() (*Directory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil, ErrNotBuilt
	}
	return b.current, nil
}

// Build fetches locations and devices and constructs a new directory.
//
// An account that needs two-factor authentication without a refresh token
// yields ErrTwoFactorRequired before anything is constructed. Other fetch
// errors are returned wrapped and are not retried. On success the previous
// directory, if any, is stopped, observers are notified and only then do the
// new directory's coordinators start.
//
// The coordinators outlive ctx; they end when the directory is stopped.
func (b *Builder) Build(ctx context.Context) (*Directory, error) {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	locs, snap, err := b.fetch(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := b.construct(locs, snap)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		dir.Stop()
		return nil, ErrClosed
	}
	prev := b.current
	b.current = dir
	observers := slices.Clone(b.observers)
	b.mu.Unlock()

	if prev != nil {
		prev.Stop()
		b.logger.Info("previous directory stopped", "built_at", prev.BuiltAt())
	}
	// Observers attach their listeners before the first cycles run, so
	// nothing delivered by those cycles is missed.
	for _, fn := range observers {
		fn(dir)
	}
	if err := dir.start(context.WithoutCancel(ctx)); err != nil {
		dir.Stop()
		if errors.Is(err, polling.ErrStopped) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return dir, nil
}

// Close stops the current directory. Later Build calls fail with ErrClosed.
func (b *Builder) Close() {
	b.mu.Lock()
	b.closed = true
	current := b.current
	b.mu.Unlock()

	if current != nil {
		current.Stop()
	}
}

// fetch loads locations and the device snapshot concurrently.
func (b *Builder) fetch(ctx context.Context) ([]ring.LocationData, *ring.Snapshot, error) {
	var (
		locs            []ring.LocationData
		snap            *ring.Snapshot
		locErr, snapErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		locs, locErr = b.fetcher.FetchLocations(gctx)
		return locErr
	})
	g.Go(func() error {
		snap, snapErr = b.fetcher.FetchDevices(gctx)
		return snapErr
	})
	err := g.Wait()

	// Either fetch may be the one that hit the token endpoint first.
	if errors.Is(locErr, ring.ErrTwoFactorRequired) || errors.Is(snapErr, ring.ErrTwoFactorRequired) {
		b.logger.Error("ring account requires two-factor authentication; configure ring.refresh_token")
		return nil, nil, ErrTwoFactorRequired
	}
	if err != nil {
		return nil, nil, fmt.Errorf("building directory: %w", err)
	}
	return locs, snap, nil
}

// construct assembles the directory. Its coordinators are created but not
// started.
func (b *Builder) construct(locs []ring.LocationData, snap *ring.Snapshot) (*Directory, error) {
	records := snap.Cameras()
	cameras := make([]*device.Camera, 0, len(records))
	byLocation := make(map[string][]*device.Camera)
	for _, rec := range records {
		cam := device.NewCamera(rec.Data, rec.IsDoorbot, b.opts.Controller)
		cameras = append(cameras, cam)
		byLocation[rec.Data.LocationID] = append(byLocation[rec.Data.LocationID], cam)
	}

	hubs := snap.HubLocationIDs()

	var (
		kept    []*location.Location
		visible []*device.Camera
	)
	byID := make(map[string]*location.Location)
	for _, data := range locs {
		if !b.allowed(data.LocationID) {
			continue
		}
		if _, dup := byID[data.LocationID]; dup {
			b.logger.Warn("duplicate location in response", "location_id", data.LocationID)
			continue
		}
		loc := location.New(data, byLocation[data.LocationID], hubs[data.LocationID])
		kept = append(kept, loc)
		byID[loc.ID()] = loc
		visible = append(visible, loc.Cameras()...)
	}

	registry, err := device.NewRegistry(visible)
	if err != nil {
		return nil, fmt.Errorf("building directory: %w", err)
	}

	statusTargets := make([]polling.StatusTarget, 0, len(cameras))
	eventTargets := make([]polling.EventTarget, 0, len(cameras))
	for _, cam := range cameras {
		statusTargets = append(statusTargets, cam)
		eventTargets = append(eventTargets, cam)
	}

	status := polling.NewStatusCoordinator(b.fetcher, statusTargets, polling.StatusConfig{
		Interval: b.opts.StatusInterval,
		Clock:    b.opts.Clock,
	})
	status.SetLogger(b.logger)
	events := polling.NewEventCoordinator(b.fetcher, eventTargets, polling.EventConfig{
		Interval: b.opts.EventInterval,
		Clock:    b.opts.Clock,
	})
	events.SetLogger(b.logger)

	dir := &Directory{
		locations: kept,
		byID:      byID,
		registry:  registry,
		status:    status,
		events:    events,
		builtAt:   time.Now(),
	}

	b.logger.Info("directory built",
		"locations", len(kept),
		"locations_total", len(locs),
		"cameras", registry.Len(),
		"cameras_polled", len(cameras),
	)
	return dir, nil
}

func (b *Builder) allowed(locationID string) bool {
	if b.opts.LocationIDs == nil {
		return true
	}
	return slices.Contains(b.opts.LocationIDs, locationID)
}
