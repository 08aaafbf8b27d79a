// Package influxdb records camera telemetry in InfluxDB 2.x.
//
// It wraps the official influxdb-client-go v2 library. Writes go through
// the non-blocking, batching WriteAPI; asynchronous write errors are
// delivered to the SetOnError callback.
//
// # Measurements
//
//	ring_camera_status  tags: camera_id, location_id, name, kind
//	                    fields: online, battery, rssi
//	ring_ding           tags: camera_id, location_id, kind
//	                    fields: motion, ding_id
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // recording turned off
//	}
//	defer client.Close()
//
//	client.WriteCameraStatus(influxdb.CameraStatus{CameraID: 42, Offline: false})
package influxdb
