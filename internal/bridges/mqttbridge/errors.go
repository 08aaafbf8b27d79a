package mqttbridge

import "errors"

var (
	// ErrNoDirectory indicates a command arrived before any directory was attached.
	ErrNoDirectory = errors.New("mqttbridge: no directory attached")

	// ErrUnknownCommand indicates a command topic named an unsupported action.
	ErrUnknownCommand = errors.New("mqttbridge: unknown command")
)
