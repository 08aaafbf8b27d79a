// Package telemetry records camera status samples and dings to a
// time-series writer such as *influxdb.Client.
package telemetry

import (
	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/infrastructure/influxdb"
	"github.com/sstewart199/ring/internal/ring"
)

// Writer receives telemetry points. Writes must not block.
type Writer interface {
	WriteCameraStatus(s influxdb.CameraStatus)
	WriteDing(e influxdb.DingEvent)
}

// Logger is the logging interface used by the recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder writes one status point per camera update and one ding point
// per new ding.
type Recorder struct {
	writer Writer
	logger Logger
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{writer: w}
}

// SetLogger sets the logger used for per-event debug output.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Attach records the initial status of every camera in dir and follows
// its updates. Suitable for directory.Builder.OnBuild.
func (r *Recorder) Attach(dir *directory.Directory) {
	var logger device.Logger
	if r.logger != nil {
		logger = r.logger
	}
	dir.Registry().Observe(logger, r.recordStatus, r.recordDing)

	for _, cam := range dir.Cameras() {
		r.recordStatus(cam, cam.Data())
	}
}

func (r *Recorder) recordStatus(cam *device.Camera, data ring.CameraData) {
	r.writer.WriteCameraStatus(statusSample(cam.IsDoorbot(), data))
}

func (r *Recorder) recordDing(cam *device.Camera, ding device.Ding) {
	r.writer.WriteDing(influxdb.DingEvent{
		CameraID:   cam.ID(),
		LocationID: cam.LocationID(),
		Kind:       ding.Kind,
		Motion:     ding.Motion,
		DingID:     ding.ID,
		At:         ding.ReceivedAt,
	})
}

func statusSample(isDoorbot bool, data ring.CameraData) influxdb.CameraStatus {
	kind := data.Kind
	if kind == "" && isDoorbot {
		kind = "doorbot"
	}
	s := influxdb.CameraStatus{
		CameraID:   data.ID,
		Name:       data.Description,
		LocationID: data.LocationID,
		Kind:       kind,
		Offline:    data.IsOffline(),
		RSSI:       data.Health.RSSI,
	}
	if level, ok := data.BatteryLevel(); ok {
		s.Battery = &level
	}
	return s
}
