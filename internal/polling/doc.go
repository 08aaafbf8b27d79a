// Package polling keeps the directory's cameras fresh.
//
// Two coordinators run independently, each on its own goroutine:
//
//   - StatusCoordinator fetches the device snapshot. Triggers come from
//     any camera's RequestUpdate and, when an interval is configured, from
//     a one-shot timer re-armed after every cycle. Triggers share a
//     single-slot channel and are throttled to one per ThrottleWindow
//     (golang.org/x/time/rate, leading edge).
//   - EventCoordinator fetches active dings on its own chained delay.
//
// Both treat a failed fetch as a cycle with no records: the error is
// logged, counted in Stats and the timer is re-armed as usual. Records for
// ids the coordinator was not built with are skipped.
//
// The device set is fixed when a coordinator is created. To pick up new
// devices, build a new directory and Stop the old coordinators.
//
// Time comes from a Clock so tests can step the throttle window and the
// timers by hand.
package polling
