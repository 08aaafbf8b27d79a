package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/sstewart199/ring/internal/bridges/mqttbridge"
	"github.com/sstewart199/ring/internal/polling"
)

// BridgeMetricsProvider reports MQTT bridge counters. *mqttbridge.Bridge
// satisfies it.
type BridgeMetricsProvider interface {
	Metrics() mqttbridge.Metrics
}

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string              `json:"timestamp"`
	Version       string              `json:"version"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Runtime       RuntimeMetrics      `json:"runtime"`
	WebSocket     WSMetrics           `json:"websocket"`
	MQTTBridge    *mqttbridge.Metrics `json:"mqtt_bridge,omitempty"`
	Devices       DeviceMetrics       `json:"devices"`
	Polling       *PollingMetrics     `json:"polling,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DeviceMetrics counts the cameras of the current directory.
type DeviceMetrics struct {
	Total      int            `json:"total"`
	Offline    int            `json:"offline"`
	ByLocation map[string]int `json:"by_location"`
}

// PollingMetrics holds the counters of both coordinators.
type PollingMetrics struct {
	Status polling.Stats `json:"status"`
	Events polling.Stats `json:"events"`
}

// handleMetrics returns runtime, device and polling counters.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Devices: DeviceMetrics{
			ByLocation: make(map[string]int),
		},
	}

	if s.bridge != nil {
		m := s.bridge.Metrics()
		metrics.MQTTBridge = &m
	}

	if dir, err := s.directory.Current(); err == nil {
		for _, cam := range dir.Cameras() {
			metrics.Devices.Total++
			if cam.IsOffline() {
				metrics.Devices.Offline++
			}
			metrics.Devices.ByLocation[cam.LocationID()]++
		}
		metrics.Polling = &PollingMetrics{
			Status: dir.StatusStats(),
			Events: dir.EventStats(),
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
