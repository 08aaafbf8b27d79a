package location

import (
	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/ring"
)

// Location is a Ring location and the cameras installed there.
//
// A Location is built once and never mutated. The cameras themselves are
// shared with the device registry and keep updating.
type Location struct {
	data    ring.LocationData
	cameras []*device.Camera
	hasHubs bool
}

// New creates a location. cameras is copied.
func New(data ring.LocationData, cameras []*device.Camera, hasHubs bool) *Location {
	cams := make([]*device.Camera, len(cameras))
	copy(cams, cameras)
	device.SortByID(cams)
	return &Location{data: data, cameras: cams, hasHubs: hasHubs}
}

// ID returns the Ring location id.
func (l *Location) ID() string { return l.data.LocationID }

// Name returns the user-assigned location name.
func (l *Location) Name() string { return l.data.Name }

// Data returns the raw location record.
func (l *Location) Data() ring.LocationData { return l.data }

// HasHubs reports whether a base station or beams bridge is installed at
// the location.
func (l *Location) HasHubs() bool { return l.hasHubs }

// Cameras returns the location's cameras ordered by id.
func (l *Location) Cameras() []*device.Camera {
	out := make([]*device.Camera, len(l.cameras))
	copy(out, l.cameras)
	return out
}

// Summary is a JSON view of a location.
type Summary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	HasHubs   bool    `json:"has_hubs"`
	CameraIDs []int64 `json:"camera_ids"`
}

// Summary returns a JSON view of the location.
func (l *Location) Summary() Summary {
	ids := make([]int64, 0, len(l.cameras))
	for _, cam := range l.cameras {
		ids = append(ids, cam.ID())
	}
	return Summary{
		ID:        l.data.LocationID,
		Name:      l.data.Name,
		HasHubs:   l.hasHubs,
		CameraIDs: ids,
	}
}
