package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/location"
	"github.com/sstewart199/ring/internal/polling"
)

// Directory is one built view of the account: its locations, their
// cameras and the coordinators keeping those cameras fresh.
//
// The structure never changes after Build. Camera state keeps updating
// until Stop.
type Directory struct {
	locations []*location.Location
	byID      map[string]*location.Location
	registry  *device.Registry
	status    *polling.StatusCoordinator
	events    *polling.EventCoordinator
	builtAt   time.Time
	stopOnce  sync.Once
}

// Locations returns the locations that passed the allow-list.
func (d *Directory) Locations() []*location.Location {
	out := make([]*location.Location, len(d.locations))
	copy(out, d.locations)
	return out
}

// Location returns one location by id.
func (d *Directory) Location(id string) (*location.Location, error) {
	loc, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", location.ErrLocationNotFound, id)
	}
	return loc, nil
}

// Cameras returns the cameras of every kept location, flattened and
// ordered by id.
func (d *Directory) Cameras() []*device.Camera {
	return d.registry.List()
}

// Registry returns the id index over Cameras.
func (d *Directory) Registry() *device.Registry {
	return d.registry
}

// BuiltAt returns when the directory was built.
func (d *Directory) BuiltAt() time.Time {
	return d.builtAt
}

// StatusStats returns the status coordinator's counters.
func (d *Directory) StatusStats() polling.Stats {
	return d.status.Stats()
}

// EventStats returns the event coordinator's counters.
func (d *Directory) EventStats() polling.Stats {
	return d.events.Stats()
}

// start launches both coordinators.
func (d *Directory) start(ctx context.Context) error {
	if err := d.status.Start(ctx); err != nil {
		return fmt.Errorf("starting status polling: %w", err)
	}
	if err := d.events.Start(ctx); err != nil {
		return fmt.Errorf("starting ding polling: %w", err)
	}
	return nil
}

// Stop ends both coordinators. Cameras keep their last state.
// Safe to call multiple times.
func (d *Directory) Stop() {
	d.stopOnce.Do(func() {
		d.status.Stop()
		d.events.Stop()
	})
}
