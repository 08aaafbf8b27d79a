// Ring service.
//
// This is the main entry point. It builds the camera directory of a Ring
// account, keeps camera status fresh through the polling coordinators and
// exposes the directory over HTTP, MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sstewart199/ring/internal/api"
	"github.com/sstewart199/ring/internal/bridges/mqttbridge"
	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/infrastructure/config"
	"github.com/sstewart199/ring/internal/infrastructure/influxdb"
	"github.com/sstewart199/ring/internal/infrastructure/logging"
	"github.com/sstewart199/ring/internal/infrastructure/mqtt"
	"github.com/sstewart199/ring/internal/ring"
	"github.com/sstewart199/ring/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// exitTwoFactor is the exit status when the account needs a refresh token.
const exitTwoFactor = 2

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to a process exit status.
func exitCode(err error) int {
	if errors.Is(err, directory.ErrTwoFactorRequired) {
		return exitTwoFactor
	}
	return 1
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ring service",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	ringClient := ring.NewClient(ring.Options{
		APIURL:       cfg.Ring.APIURL,
		AppURL:       cfg.Ring.AppURL,
		OAuthURL:     cfg.Ring.OAuthURL,
		Email:        cfg.Ring.Email,
		Password:     cfg.Ring.Password,
		RefreshToken: cfg.Ring.RefreshToken,
		Timeout:      cfg.GetRequestTimeout(),
	})
	ringClient.SetLogger(log)

	builder := directory.NewBuilder(ringClient, directory.Options{
		LocationIDs:    locationAllowList(cfg.Ring.LocationIDs),
		StatusInterval: cfg.StatusPollInterval(),
		EventInterval:  cfg.DingPollInterval(),
		Controller:     ringClient,
	})
	builder.SetLogger(log)
	defer func() {
		log.Info("stopping polling")
		builder.Close()
	}()

	components := make(map[string]api.HealthChecker)

	// Connect to MQTT broker (optional)
	var bridge *mqttbridge.Bridge
	if cfg.MQTT.Enabled {
		mqttClient, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridge = mqttbridge.New(mqttClient, mqttClient.Topics(), mqttClient.QoS())
		bridge.SetLogger(log)
		if startErr := bridge.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			bridge.Close()
		}()

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected, republishing state")
			bridge.Republish()
		})
		builder.OnBuild(bridge.Attach)
		components["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		recorder := telemetry.NewRecorder(influxClient)
		recorder.SetLogger(log)
		builder.OnBuild(recorder.Attach)
		components["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the API server before the first build so its WebSocket hub
	// sees every directory.
	var server *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:       cfg.API,
			WS:           cfg.WebSocket,
			Logger:       log,
			Directory:    builder,
			History:      ringClient,
			Components:   components,
			HistoryLimit: cfg.Ring.HistoryLimit,
			Version:      version,
		}
		if bridge != nil {
			deps.Bridge = bridge
		}
		server, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		builder.OnBuild(server.Hub().Attach)
	}

	dir, err := builder.Build(ctx)
	if err != nil {
		if errors.Is(err, directory.ErrTwoFactorRequired) {
			log.Error("account requires two-factor authentication; set ring.refresh_token (or RING_REFRESH_TOKEN)")
		}
		return fmt.Errorf("building device directory: %w", err)
	}
	log.Info("device directory built",
		"locations", len(dir.Locations()),
		"cameras", dir.Registry().Len(),
		"status_interval", cfg.StatusPollInterval(),
		"dings_interval", cfg.DingPollInterval(),
	)

	if server != nil {
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, InfluxDB, MQTT bridge,
	// MQTT, polling.

	log.Info("ring service stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RING_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RING_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// locationAllowList converts the configured filter to the builder's form:
// nil when unset, otherwise the listed ids.
func locationAllowList(f config.LocationFilter) []string {
	if !f.Configured() {
		return nil
	}
	return append([]string{}, f...)
}
