package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a camera ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDuplicateDevice is returned when a registry is built with the same ID twice.
	ErrDuplicateDevice = errors.New("device: duplicate id")

	// ErrNoController is returned by actions on a camera built without a controller.
	ErrNoController = errors.New("device: no controller configured")
)
