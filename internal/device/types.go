package device

import (
	"time"

	"github.com/sstewart199/ring/internal/ring"
)

// maxRecentDings bounds the per-camera ding history kept in memory.
const maxRecentDings = 20

// seenDingTTL is how long a ding id without an expiry is remembered.
const seenDingTTL = 10 * time.Minute

// Ding is an event received for a camera.
type Ding struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Motion     bool      `json:"motion"`
	ReceivedAt time.Time `json:"received_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

// State is a read-only view of a camera, suitable for JSON encoding.
type State struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	LocationID  string          `json:"location_id"`
	IsDoorbot   bool            `json:"is_doorbot"`
	Offline     bool            `json:"offline"`
	Battery     *float64        `json:"battery,omitempty"`
	RSSI        *int            `json:"rssi,omitempty"`
	LightOn     bool            `json:"light_on"`
	SirenActive bool            `json:"siren_active"`
	UpdatedAt   time.Time       `json:"updated_at,omitzero"`
	RecentDings []Ding          `json:"recent_dings"`
	Data        ring.CameraData `json:"data"`
}

// DataListener is called after a camera accepts a new status record.
type DataListener func(cam *Camera, data ring.CameraData)

// DingListener is called after a camera accepts a new ding.
type DingListener func(cam *Camera, ding Ding)
