package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "ring"

// Topic actions accepted on the command topic.
const (
	CommandRefresh  = "refresh"
	CommandLightOn  = "light_on"
	CommandLightOff = "light_off"
	CommandSirenOn  = "siren_on"
	CommandSirenOff = "siren_off"
)

// Topics builds the MQTT topics used by the service.
//
//	topics := mqtt.Topics{Prefix: "ring"}
//	topics.DeviceState(1234)              // ring/state/1234
//	topics.DeviceEvent(1234)              // ring/event/1234
//	topics.DeviceCommand(1234, "refresh") // ring/command/1234/refresh
//	topics.SystemStatus()                 // ring/system/status
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimRight(t.Prefix, "/")
}

// DeviceState returns the retained state topic of a camera.
func (t Topics) DeviceState(cameraID int64) string {
	return fmt.Sprintf("%s/state/%d", t.prefix(), cameraID)
}

// DeviceEvent returns the topic dings for a camera are published on.
func (t Topics) DeviceEvent(cameraID int64) string {
	return fmt.Sprintf("%s/event/%d", t.prefix(), cameraID)
}

// DeviceCommand returns the command topic for one action on a camera.
func (t Topics) DeviceCommand(cameraID int64, action string) string {
	return fmt.Sprintf("%s/command/%d/%s", t.prefix(), cameraID, action)
}

// AllDeviceCommands returns the wildcard matching every command topic.
func (t Topics) AllDeviceCommands() string {
	return t.prefix() + "/command/+/+"
}

// LocationState returns the retained topic describing a location.
func (t Topics) LocationState(locationID string) string {
	return fmt.Sprintf("%s/location/%s", t.prefix(), locationID)
}

// SystemStatus returns the retained online/offline topic.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// ParseDeviceCommand extracts the camera id and action from a command topic.
func (t Topics) ParseDeviceCommand(topic string) (cameraID int64, action string, err error) {
	rest, ok := strings.CutPrefix(topic, t.prefix()+"/command/")
	if !ok {
		return 0, "", fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	idPart, action, ok := strings.Cut(rest, "/")
	if !ok || action == "" || strings.Contains(action, "/") {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	cameraID, err = strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: camera id %q", ErrInvalidTopic, idPart)
	}
	return cameraID, action, nil
}
