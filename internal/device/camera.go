package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sstewart199/ring/internal/ring"
)

// Controller switches camera outputs on the Ring service.
// *ring.Client satisfies this interface.
type Controller interface {
	SetLight(ctx context.Context, cameraID int64, on bool) error
	SetSiren(ctx context.Context, cameraID int64, on bool) error
}

// Camera is a doorbell or stickup camera in the directory.
//
// A Camera is created once from its initial status record and then mutated
// in place by the polling coordinators. All methods are safe for concurrent
// use; listeners run on the caller's goroutine after the lock is released.
type Camera struct {
	id         int64
	isDoorbot  bool
	controller Controller
	now        func() time.Time

	mu        sync.RWMutex
	data      ring.CameraData
	updatedAt time.Time
	dings     []Ding // newest first
	seen      map[int64]time.Time
	requester func()

	dataListeners []DataListener
	dingListeners []DingListener
}

// NewCamera creates a camera from its initial status record.
// controller may be nil, in which case SetLight and SetSiren fail.
func NewCamera(data ring.CameraData, isDoorbot bool, controller Controller) *Camera {
	return &Camera{
		id:         data.ID,
		isDoorbot:  isDoorbot,
		controller: controller,
		now:        time.Now,
		data:       data,
		seen:       make(map[int64]time.Time),
	}
}

// ID returns the Ring device id.
func (c *Camera) ID() int64 { return c.id }

// IsDoorbot reports whether the camera is a doorbell.
func (c *Camera) IsDoorbot() bool { return c.isDoorbot }

// Name returns the user-assigned description.
func (c *Camera) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Description
}

// LocationID returns the id of the location the camera belongs to.
func (c *Camera) LocationID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.LocationID
}

// Data returns a copy of the current status record.
func (c *Camera) Data() ring.CameraData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// IsOffline reports whether the last status record marked the camera offline.
func (c *Camera) IsOffline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.IsOffline()
}

// UpdateData replaces the status record and notifies data listeners.
func (c *Camera) UpdateData(data ring.CameraData) {
	c.mu.Lock()
	c.data = data
	c.updatedAt = c.now()
	listeners := c.dataListeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(c, data)
	}
}

// ProcessDing records an active ding and notifies ding listeners.
//
// The active-dings endpoint keeps returning a ding until it expires, so a
// ding id already seen is ignored until its expiry has passed. It reports
// whether the ding was new.
func (c *Camera) ProcessDing(active ring.ActiveDing) bool {
	now := c.now()
	ding := Ding{
		ID:         active.ID,
		Kind:       active.Kind,
		Motion:     active.Motion || active.Kind == ring.DingKindMotion,
		ReceivedAt: now,
	}
	forgetAt := now.Add(seenDingTTL)
	if active.ExpiresIn > 0 {
		ding.ExpiresAt = now.Add(time.Duration(active.ExpiresIn) * time.Second)
		forgetAt = ding.ExpiresAt
	}

	c.mu.Lock()
	for id, until := range c.seen {
		if !until.After(now) {
			delete(c.seen, id)
		}
	}
	if until, ok := c.seen[ding.ID]; ok {
		if forgetAt.After(until) {
			c.seen[ding.ID] = forgetAt
		}
		c.mu.Unlock()
		return false
	}
	c.seen[ding.ID] = forgetAt
	c.dings = append([]Ding{ding}, c.dings...)
	if len(c.dings) > maxRecentDings {
		c.dings = c.dings[:maxRecentDings]
	}
	listeners := c.dingListeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(c, ding)
	}
	return true
}

// RecentDings returns up to maxRecentDings dings, newest first.
func (c *Camera) RecentDings() []Ding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Ding, len(c.dings))
	copy(out, c.dings)
	return out
}

// ActiveDings returns the dings that have not yet expired.
func (c *Camera) ActiveDings() []Ding {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Ding
	for _, d := range c.dings {
		if d.ExpiresAt.IsZero() || d.ExpiresAt.After(now) {
			out = append(out, d)
		}
	}
	return out
}

// SetUpdateRequester installs the function RequestUpdate calls.
// The status coordinator installs its trigger here.
func (c *Camera) SetUpdateRequester(fn func()) {
	c.mu.Lock()
	c.requester = fn
	c.mu.Unlock()
}

// RequestUpdate asks for a fresh status record. It never blocks; with no
// requester installed it does nothing.
func (c *Camera) RequestUpdate() {
	c.mu.RLock()
	fn := c.requester
	c.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// OnData registers a listener for status updates.
func (c *Camera) OnData(fn DataListener) {
	c.mu.Lock()
	c.dataListeners = append(c.dataListeners[:len(c.dataListeners):len(c.dataListeners)], fn)
	c.mu.Unlock()
}

// OnDing registers a listener for new dings.
func (c *Camera) OnDing(fn DingListener) {
	c.mu.Lock()
	c.dingListeners = append(c.dingListeners[:len(c.dingListeners):len(c.dingListeners)], fn)
	c.mu.Unlock()
}

// SetLight switches the floodlight and requests a status refresh.
func (c *Camera) SetLight(ctx context.Context, on bool) error {
	if c.controller == nil {
		return ErrNoController
	}
	if err := c.controller.SetLight(ctx, c.id, on); err != nil {
		return fmt.Errorf("camera %d: %w", c.id, err)
	}
	c.RequestUpdate()
	return nil
}

// SetSiren switches the siren and requests a status refresh.
func (c *Camera) SetSiren(ctx context.Context, on bool) error {
	if c.controller == nil {
		return ErrNoController
	}
	if err := c.controller.SetSiren(ctx, c.id, on); err != nil {
		return fmt.Errorf("camera %d: %w", c.id, err)
	}
	c.RequestUpdate()
	return nil
}

// State returns a read-only view of the camera.
func (c *Camera) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{
		ID:          c.id,
		Name:        c.data.Description,
		Kind:        c.data.Kind,
		LocationID:  c.data.LocationID,
		IsDoorbot:   c.isDoorbot,
		Offline:     c.data.IsOffline(),
		RSSI:        c.data.Health.RSSI,
		LightOn:     c.data.LEDStatus == "on",
		SirenActive: c.data.SirenStatus != nil && c.data.SirenStatus.SecondsRemaining > 0,
		UpdatedAt:   c.updatedAt,
		RecentDings: make([]Ding, len(c.dings)),
		Data:        c.data,
	}
	copy(s.RecentDings, c.dings)
	if level, ok := c.data.BatteryLevel(); ok {
		s.Battery = &level
	}
	return s
}

// SortByID orders cameras by ascending id.
func SortByID(cams []*Camera) {
	sort.Slice(cams, func(i, j int) bool { return cams[i].id < cams[j].id })
}
