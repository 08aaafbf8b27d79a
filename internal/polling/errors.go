package polling

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("polling: coordinator already started")

	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("polling: coordinator stopped")
)
