// Package device holds the cameras of the Ring directory.
//
// A Camera wraps the latest status record returned by the Ring API and the
// dings received for it. Cameras are created once by the directory builder
// and then mutated in place by the polling coordinators:
//
//	StatusCoordinator ──UpdateData──▶ Camera ◀──ProcessDing── EventCoordinator
//	        ▲                           │
//	        └───────RequestUpdate───────┘
//
// RequestUpdate never fetches anything itself. It calls the requester that
// the status coordinator installs with SetUpdateRequester, so a burst of
// refresh requests from many cameras collapses into one fetch.
//
// # Listeners
//
// OnData and OnDing register callbacks used by the MQTT bridge, the
// InfluxDB recorder and the WebSocket hub. Callbacks run on the goroutine
// that delivered the update, after the camera's lock is released, so they
// may call back into the camera. They should not block.
//
// # Registry
//
// Registry is an immutable id index built alongside the cameras. Lookups
// need no locking.
package device
