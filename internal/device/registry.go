package device

import (
	"fmt"

	"github.com/sstewart199/ring/internal/ring"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is an immutable index of cameras by id.
//
// It is built once for a directory and never changes afterwards, so reads
// need no locking. Mutable state lives in each Camera.
type Registry struct {
	byID    map[int64]*Camera
	ordered []*Camera
}

// NewRegistry indexes cameras by id.
// Returns ErrDuplicateDevice if two cameras share an id.
func NewRegistry(cameras []*Camera) (*Registry, error) {
	r := &Registry{
		byID:    make(map[int64]*Camera, len(cameras)),
		ordered: make([]*Camera, 0, len(cameras)),
	}
	for _, cam := range cameras {
		if _, exists := r.byID[cam.ID()]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateDevice, cam.ID())
		}
		r.byID[cam.ID()] = cam
		r.ordered = append(r.ordered, cam)
	}
	SortByID(r.ordered)
	return r, nil
}

// Get returns the camera with the given id.
func (r *Registry) Get(id int64) (*Camera, bool) {
	if r == nil {
		return nil, false
	}
	cam, ok := r.byID[id]
	return cam, ok
}

// Lookup returns the camera with the given id or ErrDeviceNotFound.
func (r *Registry) Lookup(id int64) (*Camera, error) {
	cam, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	return cam, nil
}

// List returns every camera ordered by id.
// The slice is a copy; the cameras are shared.
func (r *Registry) List() []*Camera {
	if r == nil {
		return nil
	}
	out := make([]*Camera, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ListByLocation returns the cameras of one location ordered by id.
func (r *Registry) ListByLocation(locationID string) []*Camera {
	if r == nil {
		return nil
	}
	var out []*Camera
	for _, cam := range r.ordered {
		if cam.LocationID() == locationID {
			out = append(out, cam)
		}
	}
	return out
}

// Len returns the number of cameras.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// States returns a read-only view of every camera ordered by id.
func (r *Registry) States() []State {
	cams := r.List()
	out := make([]State, 0, len(cams))
	for _, cam := range cams {
		out = append(out, cam.State())
	}
	return out
}

// Observe registers data and ding listeners on every camera and logs each
// event at debug level.
func (r *Registry) Observe(logger Logger, onData DataListener, onDing DingListener) {
	if logger == nil {
		logger = noopLogger{}
	}
	for _, cam := range r.List() {
		cam.OnData(func(c *Camera, data ring.CameraData) {
			logger.Debug("camera status updated", "camera_id", c.ID(), "offline", data.IsOffline())
			if onData != nil {
				onData(c, data)
			}
		})
		cam.OnDing(func(c *Camera, ding Ding) {
			logger.Debug("camera ding", "camera_id", c.ID(), "ding_id", ding.ID, "kind", ding.Kind)
			if onDing != nil {
				onDing(c, ding)
			}
		})
	}
}
