// Package mqttbridge mirrors the camera directory onto an MQTT broker.
//
// Topics (prefix "ring" by default):
//
//	ring/location/{location_id}    retained location summary
//	ring/state/{camera_id}         retained camera state, republished on every update
//	ring/event/{camera_id}         one message per new ding
//	ring/command/{camera_id}/{action}
//
// Supported command actions are refresh, light_on, light_off, siren_on and
// siren_off. The message payload is ignored.
//
// Register Attach with directory.Builder.OnBuild so a rebuilt directory is
// picked up, and call Republish from the MQTT client's connect callback.
package mqttbridge
