package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the service.
const (
	MeasurementCameraStatus = "ring_camera_status"
	MeasurementDing         = "ring_ding"
)

// CameraStatus is one status sample of a camera.
type CameraStatus struct {
	CameraID   int64
	Name       string
	LocationID string
	Kind       string
	Offline    bool
	Battery    *float64
	RSSI       *int
	At         time.Time
}

// DingEvent is one ding received for a camera.
type DingEvent struct {
	CameraID   int64
	LocationID string
	Kind       string
	Motion     bool
	DingID     int64
	At         time.Time
}

// WriteCameraStatus records a status sample. Non-blocking; a no-op when
// the client is not connected.
func (c *Client) WriteCameraStatus(s CameraStatus) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(cameraStatusPoint(s, c.now()))
}

// WriteDing records a ding. Non-blocking; a no-op when the client is not
// connected.
func (c *Client) WriteDing(e DingEvent) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(dingPoint(e, c.now()))
}

func cameraStatusPoint(s CameraStatus, now time.Time) *write.Point {
	fields := map[string]interface{}{
		"online": !s.Offline,
	}
	if s.Battery != nil {
		fields["battery"] = *s.Battery
	}
	if s.RSSI != nil {
		fields["rssi"] = *s.RSSI
	}

	return write.NewPoint(
		MeasurementCameraStatus,
		cameraTags(s.CameraID, s.LocationID, map[string]string{
			"name": s.Name,
			"kind": s.Kind,
		}),
		fields,
		timestamp(s.At, now),
	)
}

func dingPoint(e DingEvent, now time.Time) *write.Point {
	return write.NewPoint(
		MeasurementDing,
		cameraTags(e.CameraID, e.LocationID, map[string]string{
			"kind": e.Kind,
		}),
		map[string]interface{}{
			"motion":  e.Motion,
			"ding_id": e.DingID,
		},
		timestamp(e.At, now),
	)
}

// cameraTags merges the identifying tags with extra, dropping empty values.
func cameraTags(cameraID int64, locationID string, extra map[string]string) map[string]string {
	tags := map[string]string{
		"camera_id": strconv.FormatInt(cameraID, 10),
	}
	if locationID != "" {
		tags["location_id"] = locationID
	}
	for k, v := range extra {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

func timestamp(at, now time.Time) time.Time {
	if at.IsZero() {
		return now
	}
	return at
}
