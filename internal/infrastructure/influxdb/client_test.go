package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sstewart199/ring/internal/infrastructure/config"
)

// fakeWriter captures points instead of sending them.
type fakeWriter struct {
	mu      sync.Mutex
	points  []string
	flushes int
}

func (f *fakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p.Name())
}

func (f *fakeWriter) Flush() {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
}

func newTestClient(w pointWriter) *Client {
	return &Client{
		writeAPI:  w,
		connected: true,
		now:       func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: true, URL: srv.URL, Org: "o", Bucket: "b"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_WritesLineProtocol(t *testing.T) {
	var (
		mu   sync.Mutex
		body strings.Builder
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ping":
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/v2/write":
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			body.Write(b)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := Connect(context.Background(), config.InfluxDBConfig{
		Enabled: true,
		URL:     srv.URL,
		Token:   "token",
		Org:     "home",
		Bucket:  "ring",
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	battery := 87.0
	rssi := -60
	client.WriteCameraStatus(CameraStatus{
		CameraID:   42,
		LocationID: "L1",
		Battery:    &battery,
		RSSI:       &rssi,
		At:         time.Unix(1700000000, 0),
	})
	client.WriteDing(DingEvent{CameraID: 42, Kind: "motion", Motion: true, DingID: 9})
	client.Flush()

	mu.Lock()
	got := body.String()
	mu.Unlock()

	for _, want := range []string{
		"ring_camera_status,camera_id=42,location_id=L1",
		"battery=87",
		"rssi=-60i",
		"online=true",
		"ring_ding,camera_id=42,kind=motion",
		"motion=true",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("written lines missing %q:\n%s", want, got)
		}
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWrite_SkippedWhenDisconnected(t *testing.T) {
	w := &fakeWriter{}
	c := newTestClient(w)
	c.connected = false

	c.WriteCameraStatus(CameraStatus{CameraID: 1})
	c.WriteDing(DingEvent{CameraID: 1})
	c.Flush()

	if len(w.points) != 0 || w.flushes != 0 {
		t.Errorf("disconnected client wrote %d points, %d flushes", len(w.points), w.flushes)
	}
}

func TestWrite_Points(t *testing.T) {
	w := &fakeWriter{}
	c := newTestClient(w)

	c.WriteCameraStatus(CameraStatus{CameraID: 1})
	c.WriteDing(DingEvent{CameraID: 1})
	c.Flush()

	if len(w.points) != 2 || w.points[0] != MeasurementCameraStatus || w.points[1] != MeasurementDing {
		t.Errorf("points = %v", w.points)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1", w.flushes)
	}
}

func TestCameraStatusPoint(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rssi := -71

	p := cameraStatusPoint(CameraStatus{CameraID: 5, Name: "Porch", Offline: true, RSSI: &rssi}, now)

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["camera_id"] != "5" || tags["name"] != "Porch" {
		t.Errorf("tags = %v", tags)
	}
	if _, ok := tags["location_id"]; ok {
		t.Error("empty location_id should not be tagged")
	}

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["online"] != false {
		t.Errorf("online = %v, want false", fields["online"])
	}
	if fields["rssi"] != int64(-71) {
		t.Errorf("rssi = %v (%T), want -71", fields["rssi"], fields["rssi"])
	}
	if _, ok := fields["battery"]; ok {
		t.Error("missing battery should not be written")
	}
	if !p.Time().Equal(now) {
		t.Errorf("time = %v, want now for a zero At", p.Time())
	}
}

func TestClose_Nil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
