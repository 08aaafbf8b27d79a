// Package config handles loading and validating the Ring service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Credentials (password, refresh token, MQTT and InfluxDB secrets) should be
//     set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Polling:
//
// ring.camera_status_polling_seconds and ring.camera_dings_polling_seconds enable
// the two background loops when positive. ring.location_ids restricts the
// directory to the listed locations; leave it out to keep every location.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.StatusPollInterval())
package config
