package mqttbridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/infrastructure/mqtt"
	"github.com/sstewart199/ring/internal/ring"
)

// commandTimeout bounds a light or siren request made for an MQTT command.
const commandTimeout = 10 * time.Second

// MQTTClient is the part of *mqtt.Client the bridge uses.
type MQTTClient interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bridge mirrors the camera directory onto MQTT.
//
// Camera status is published retained on ring/state/{id}, dings on
// ring/event/{id} and location summaries on ring/location/{id}. Commands
// received on ring/command/{id}/{action} refresh a camera or switch its
// light and siren.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt   MQTTClient
	topics mqtt.Topics
	qos    byte

	dir   *directory.Directory
	dirMu sync.RWMutex

	ctx       context.Context
	ctxCancel context.CancelFunc
	started   atomic.Bool
	stopOnce  sync.Once

	statesPublished atomic.Uint64
	eventsPublished atomic.Uint64
	publishFailures atomic.Uint64
	commands        atomic.Uint64
	commandFailures atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge publishing under topics. Call Start to receive commands.
func New(client MQTTClient, topics mqtt.Topics, qos byte) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		mqtt:      client,
		topics:    topics,
		qos:       qos,
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) log() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// Start subscribes to the command topics.
func (b *Bridge) Start() error {
	topic := b.topics.AllDeviceCommands()
	if err := b.mqtt.Subscribe(topic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.started.Store(true)
	b.log().Info("mqtt bridge subscribed to commands", "topic", topic)
	return nil
}

// Close unsubscribes from commands and cancels in-flight command requests.
func (b *Bridge) Close() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		if !b.started.Load() {
			return
		}
		if err := b.mqtt.Unsubscribe(b.topics.AllDeviceCommands()); err != nil {
			b.log().Warn("failed to unsubscribe from commands", "error", err)
		}
	})
}

// Attach makes dir the directory served by the bridge. It registers
// listeners on every camera and publishes the current state of the
// directory. Suitable for directory.Builder.OnBuild.
func (b *Bridge) Attach(dir *directory.Directory) {
	b.dirMu.Lock()
	b.dir = dir
	b.dirMu.Unlock()

	dir.Registry().Observe(nil,
		func(cam *device.Camera, _ ring.CameraData) { b.publishState(cam) },
		b.publishEvent,
	)

	b.Republish()
}

// Republish publishes every location summary and camera state again.
// Run it after a broker reconnect so retained topics are current.
func (b *Bridge) Republish() {
	dir := b.current()
	if dir == nil {
		return
	}
	for _, loc := range dir.Locations() {
		if err := b.mqtt.PublishJSON(b.topics.LocationState(loc.ID()), loc.Summary(), true); err != nil {
			b.publishFailures.Add(1)
			b.log().Warn("failed to publish location", "location_id", loc.ID(), "error", err)
		}
	}
	for _, cam := range dir.Cameras() {
		b.publishState(cam)
	}
}

// Metrics returns counters for the health endpoint.
func (b *Bridge) Metrics() Metrics {
	return Metrics{
		Connected:       b.mqtt.IsConnected(),
		StatesPublished: b.statesPublished.Load(),
		EventsPublished: b.eventsPublished.Load(),
		PublishFailures: b.publishFailures.Load(),
		Commands:        b.commands.Load(),
		CommandFailures: b.commandFailures.Load(),
	}
}

func (b *Bridge) current() *directory.Directory {
	b.dirMu.RLock()
	defer b.dirMu.RUnlock()
	return b.dir
}

func (b *Bridge) publishState(cam *device.Camera) {
	if err := b.mqtt.PublishJSON(b.topics.DeviceState(cam.ID()), cam.State(), true); err != nil {
		b.publishFailures.Add(1)
		b.log().Warn("failed to publish camera state", "camera_id", cam.ID(), "error", err)
		return
	}
	b.statesPublished.Add(1)
}

func (b *Bridge) publishEvent(cam *device.Camera, ding device.Ding) {
	msg := EventMessage{
		CameraID:   cam.ID(),
		LocationID: cam.LocationID(),
		Ding:       ding,
		Timestamp:  ding.ReceivedAt,
	}
	if err := b.mqtt.PublishJSON(b.topics.DeviceEvent(cam.ID()), msg, false); err != nil {
		b.publishFailures.Add(1)
		b.log().Warn("failed to publish ding", "camera_id", cam.ID(), "ding_id", ding.ID, "error", err)
		return
	}
	b.eventsPublished.Add(1)
}

// handleCommand runs on the MQTT client's goroutine. Light and siren
// requests go to Ring on their own goroutine so the client is not blocked.
func (b *Bridge) handleCommand(topic string, _ []byte) error {
	b.commands.Add(1)

	id, action, err := b.topics.ParseDeviceCommand(topic)
	if err != nil {
		b.commandFailures.Add(1)
		return err
	}

	dir := b.current()
	if dir == nil {
		b.commandFailures.Add(1)
		return ErrNoDirectory
	}
	cam, err := dir.Registry().Lookup(id)
	if err != nil {
		b.commandFailures.Add(1)
		return err
	}

	b.log().Info("received camera command", "camera_id", id, "action", action)

	switch action {
	case mqtt.CommandRefresh:
		cam.RequestUpdate()
		return nil
	case mqtt.CommandLightOn, mqtt.CommandLightOff:
		on := action == mqtt.CommandLightOn
		go b.execute(cam, action, func(ctx context.Context) error { return cam.SetLight(ctx, on) })
		return nil
	case mqtt.CommandSirenOn, mqtt.CommandSirenOff:
		on := action == mqtt.CommandSirenOn
		go b.execute(cam, action, func(ctx context.Context) error { return cam.SetSiren(ctx, on) })
		return nil
	default:
		b.commandFailures.Add(1)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, action)
	}
}

func (b *Bridge) execute(cam *device.Camera, action string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		b.commandFailures.Add(1)
		b.log().Error("camera command failed", "camera_id", cam.ID(), "action", action, "error", err)
	}
}
