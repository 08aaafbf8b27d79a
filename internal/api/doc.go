// Package api provides the HTTP REST API and WebSocket server for the Ring
// service.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
//
// Routes (all under /api/v1):
//
//	GET  /health                  directory, polling and component health
//	GET  /metrics                 runtime, device and polling counters
//	GET  /locations               kept locations
//	GET  /locations/{id}          one location with camera states
//	GET  /devices                 camera states (?location_id=)
//	GET  /devices/{id}            one camera
//	GET  /devices/{id}/dings      recent dings (?active=true)
//	POST /devices/{id}/refresh    request a status update
//	PUT  /devices/{id}/light      {"on": true|false}
//	PUT  /devices/{id}/siren      {"on": true|false}
//	GET  /history                 Ring event history (?limit=&favorites=)
//	POST /directory/refresh       rebuild the directory
//	GET  /ws                      WebSocket
//
// WebSocket clients subscribe to channels with
//
//	{"type": "subscribe", "id": "1", "payload": {"channels": ["device.updated", "device.ding"]}}
//
// and receive "event" messages for device.updated, device.ding and
// directory.built.
package api
