package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Ring service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Ring      RingConfig      `yaml:"ring"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RingConfig contains the cloud account and polling settings.
type RingConfig struct {
	// APIURL is the base of the clients API (ring_devices, dings, history).
	APIURL string `yaml:"api_url"`

	// AppURL is the base of the app API (locations).
	AppURL string `yaml:"app_url"`

	// OAuthURL is the token endpoint.
	OAuthURL string `yaml:"oauth_url"`

	// Email and Password are used for a password grant when no refresh
	// token is configured. Accounts with two-factor authentication need
	// a refresh token.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// RefreshToken is the durable credential used for token grants.
	RefreshToken string `yaml:"refresh_token"`

	// LocationIDs restricts the directory to these locations.
	// Absent (or not a list) means every location is kept.
	LocationIDs LocationFilter `yaml:"location_ids"`

	// CameraStatusPollingSeconds enables periodic status polling when > 0.
	CameraStatusPollingSeconds int `yaml:"camera_status_polling_seconds"`

	// CameraDingsPollingSeconds enables active ding polling when > 0.
	CameraDingsPollingSeconds int `yaml:"camera_dings_polling_seconds"`

	// RequestTimeout bounds a single HTTP request (seconds).
	RequestTimeout int `yaml:"request_timeout"`

	// HistoryLimit is the default number of history entries returned.
	HistoryLimit int `yaml:"history_limit"`
}

// LocationFilter is an optional allow-list of location ids.
//
// A nil filter means "not configured". A non-nil, empty filter keeps nothing.
type LocationFilter []string

// UnmarshalYAML accepts a sequence of ids. Any other node kind leaves the
// filter unset rather than failing the whole configuration.
func (f *LocationFilter) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		*f = nil
		return nil
	}

	ids := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return fmt.Errorf("location_ids: line %d: expected a scalar id", item.Line)
		}
		ids = append(ids, item.Value)
	}
	*f = ids
	return nil
}

// Configured reports whether an allow-list was supplied.
func (f LocationFilter) Configured() bool {
	return f != nil
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RING_SECTION_KEY
// For example: RING_REFRESH_TOKEN, RING_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Ring: RingConfig{
			APIURL:         "https://api.ring.com/clients_api",
			AppURL:         "https://app.ring.com/rhq/v1",
			OAuthURL:       "https://oauth.ring.com/oauth/token",
			RequestTimeout: 30,
			HistoryLimit:   10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ring-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "ring",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Ring account
	if v := os.Getenv("RING_EMAIL"); v != "" {
		cfg.Ring.Email = v
	}
	if v := os.Getenv("RING_PASSWORD"); v != "" {
		cfg.Ring.Password = v
	}
	if v := os.Getenv("RING_REFRESH_TOKEN"); v != "" {
		cfg.Ring.RefreshToken = v
	}
	if v := os.Getenv("RING_LOCATION_IDS"); v != "" {
		ids := LocationFilter{}
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		cfg.Ring.LocationIDs = ids
	}
	if v, ok := envInt("RING_CAMERA_STATUS_POLLING_SECONDS"); ok {
		cfg.Ring.CameraStatusPollingSeconds = v
	}
	if v, ok := envInt("RING_CAMERA_DINGS_POLLING_SECONDS"); ok {
		cfg.Ring.CameraDingsPollingSeconds = v
	}

	// MQTT
	if v := os.Getenv("RING_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RING_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RING_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("RING_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("RING_API_PORT"); ok {
		cfg.API.Port = v
	}

	// InfluxDB
	if v := os.Getenv("RING_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// envInt reads an integer environment variable. Unparseable values are ignored.
func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Ring account
	if c.Ring.APIURL == "" || c.Ring.AppURL == "" || c.Ring.OAuthURL == "" {
		errs = append(errs, "ring.api_url, ring.app_url and ring.oauth_url are required")
	}
	if c.Ring.RefreshToken == "" && (c.Ring.Email == "" || c.Ring.Password == "") {
		errs = append(errs, "ring.refresh_token or ring.email and ring.password are required (set RING_REFRESH_TOKEN)")
	}
	if c.Ring.CameraStatusPollingSeconds < 0 {
		errs = append(errs, "ring.camera_status_polling_seconds must not be negative")
	}
	if c.Ring.CameraDingsPollingSeconds < 0 {
		errs = append(errs, "ring.camera_dings_polling_seconds must not be negative")
	}

	// MQTT
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// StatusPollInterval returns the camera status polling interval. Zero disables polling.
func (c *Config) StatusPollInterval() time.Duration {
	return time.Duration(c.Ring.CameraStatusPollingSeconds) * time.Second
}

// DingPollInterval returns the active ding polling interval. Zero disables polling.
func (c *Config) DingPollInterval() time.Duration {
	return time.Duration(c.Ring.CameraDingsPollingSeconds) * time.Second
}

// GetRequestTimeout returns the Ring HTTP request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Ring.RequestTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
