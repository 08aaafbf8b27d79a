// Package mqtt provides the MQTT client used to mirror the Ring directory
// onto a broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and payload size checks
//   - Subscriptions that survive reconnects
//   - Last Will and Testament on the system status topic
//
// # Topics
//
// All topics share a configurable prefix (default "ring"):
//
//	ring/system/status             online/offline, retained (LWT)
//	ring/state/{camera_id}         camera state, retained
//	ring/event/{camera_id}         dings
//	ring/location/{location_id}    location summary, retained
//	ring/command/{camera_id}/{op}  refresh, light_on, light_off, siren_on, siren_off
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.AllDeviceCommands(), 1, handle)
package mqtt
