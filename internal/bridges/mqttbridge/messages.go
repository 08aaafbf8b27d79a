package mqttbridge

import (
	"time"

	"github.com/sstewart199/ring/internal/device"
)

// EventMessage is published on the event topic of a camera for each new ding.
type EventMessage struct {
	CameraID   int64       `json:"camera_id"`
	LocationID string      `json:"location_id,omitempty"`
	Ding       device.Ding `json:"ding"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Metrics counts bridge traffic since construction.
type Metrics struct {
	Connected       bool   `json:"connected"`
	StatesPublished uint64 `json:"states_published"`
	EventsPublished uint64 `json:"events_published"`
	PublishFailures uint64 `json:"publish_failures"`
	Commands        uint64 `json:"commands"`
	CommandFailures uint64 `json:"command_failures"`
}
