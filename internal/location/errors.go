package location

import "errors"

var (
	// ErrLocationNotFound is returned when a location ID is not in the directory.
	ErrLocationNotFound = errors.New("location not found")
)
