package ring

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Snapshot is the response of the ring_devices endpoint.
//
// Doorbots and AuthorizedDoorbots describe the same kind of device under
// different authorisation states: a shared doorbell can appear in both.
type Snapshot struct {
	Doorbots           []CameraData `json:"doorbots"`
	AuthorizedDoorbots []CameraData `json:"authorized_doorbots"`
	StickupCams        []CameraData `json:"stickup_cams"`
	Chimes             []ChimeData  `json:"chimes"`
	BaseStations       []HubData    `json:"base_stations"`
	BeamsBridges       []HubData    `json:"beams_bridges"`
}

// CameraRecord pairs a camera record with the list it came from.
type CameraRecord struct {
	Data      CameraData
	IsDoorbot bool
}

// Cameras returns the union of camera records, deduplicated by id.
//
// Order is doorbots, authorized doorbots, then stickup cams; the first
// occurrence of an id wins.
func (s *Snapshot) Cameras() []CameraRecord {
	if s == nil {
		return nil
	}

	n := len(s.Doorbots) + len(s.AuthorizedDoorbots) + len(s.StickupCams)
	seen := make(map[int64]struct{}, n)
	records := make([]CameraRecord, 0, n)
	add := func(list []CameraData, doorbot bool) {
		for _, data := range list {
			if _, dup := seen[data.ID]; dup {
				continue
			}
			seen[data.ID] = struct{}{}
			records = append(records, CameraRecord{Data: data, IsDoorbot: doorbot})
		}
	}

	add(s.Doorbots, true)
	add(s.AuthorizedDoorbots, true)
	add(s.StickupCams, false)
	return records
}

// HubLocationIDs returns the set of location ids with a base station or bridge.
func (s *Snapshot) HubLocationIDs() map[string]bool {
	ids := make(map[string]bool)
	if s == nil {
		return ids
	}
	for _, hub := range s.BaseStations {
		ids[hub.LocationID] = true
	}
	for _, hub := range s.BeamsBridges {
		ids[hub.LocationID] = true
	}
	return ids
}

// CameraData is the status record of a doorbell or stickup camera.
type CameraData struct {
	ID              int64           `json:"id"`
	Description     string          `json:"description"`
	DeviceID        string          `json:"device_id"`
	Kind            string          `json:"kind"`
	LocationID      string          `json:"location_id"`
	FirmwareVersion string          `json:"firmware_version,omitempty"`
	BatteryLife     json.RawMessage `json:"battery_life,omitempty"`
	Health          CameraHealth    `json:"health"`
	Alerts          CameraAlerts    `json:"alerts"`
	LEDStatus       string          `json:"led_status,omitempty"`
	SirenStatus     *SirenStatus    `json:"siren_status,omitempty"`
	Subscribed      bool            `json:"subscribed"`
	MotionSnooze    json.RawMessage `json:"motion_snooze,omitempty"`
	TimeZone        string          `json:"time_zone,omitempty"`
	Settings        map[string]any  `json:"settings,omitempty"`
}

// BatteryLevel returns the battery percentage, if the camera reports one.
//
// battery_life arrives as a number, a quoted number or null depending on
// the model; the health block is used as a fallback.
func (d CameraData) BatteryLevel() (float64, bool) {
	raw := strings.Trim(strings.TrimSpace(string(d.BatteryLife)), `"`)
	if raw != "" && raw != "null" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v, true
		}
	}
	if d.Health.BatteryPercentage != nil {
		return float64(*d.Health.BatteryPercentage), true
	}
	return 0, false
}

// IsOffline reports whether the cloud marks the camera as disconnected.
func (d CameraData) IsOffline() bool {
	return d.Alerts.Connection == "offline"
}

// CameraHealth is the nested health block of a camera record.
type CameraHealth struct {
	WifiName          string `json:"wifi_name,omitempty"`
	RSSI              *int   `json:"latest_signal_strength,omitempty"`
	BatteryPercentage *int   `json:"battery_percentage,omitempty"`
}

// CameraAlerts is the nested alert block of a camera record.
type CameraAlerts struct {
	Connection string `json:"connection,omitempty"`
}

// SirenStatus reports how long the siren keeps sounding.
type SirenStatus struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

// ChimeData is a chime record. Chimes are listed but not polled.
type ChimeData struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	LocationID  string `json:"location_id"`
}

// HubData is a base station or beams bridge record.
type HubData struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	LocationID  string `json:"location_id"`
}

// LocationData is one entry of the user_locations list.
type LocationData struct {
	LocationID     string          `json:"location_id"`
	OwnerID        int64           `json:"owner_id"`
	Name           string          `json:"name"`
	GeoCoordinates *GeoCoordinates `json:"geo_coordinates,omitempty"`
	Address        *Address        `json:"address,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UpdatedAt      string          `json:"updated_at,omitempty"`
	UserVerified   bool            `json:"user_verified"`
}

// GeoCoordinates is the position of a location.
type GeoCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address is the postal address of a location.
type Address struct {
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip_code,omitempty"`
	Country  string `json:"country,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Ding kinds reported by the active dings endpoint.
const (
	DingKindDing     = "ding"
	DingKindMotion   = "motion"
	DingKindOnDemand = "on_demand"
)

// ActiveDing is an in-progress event (doorbell press, motion, live view).
type ActiveDing struct {
	ID                 int64   `json:"id"`
	IDStr              string  `json:"id_str"`
	State              string  `json:"state"`
	Protocol           string  `json:"protocol"`
	DoorbotID          int64   `json:"doorbot_id"`
	DoorbotDescription string  `json:"doorbot_description"`
	DeviceKind         string  `json:"device_kind"`
	Motion             bool    `json:"motion"`
	SnapshotURL        string  `json:"snapshot_url"`
	Kind               string  `json:"kind"`
	SIPServerIP        string  `json:"sip_server_ip,omitempty"`
	SIPServerPort      int     `json:"sip_server_port,omitempty"`
	SIPTo              string  `json:"sip_to,omitempty"`
	SIPToken           string  `json:"sip_token,omitempty"`
	ExpiresIn          int     `json:"expires_in"`
	Now                float64 `json:"now"`
}

// HistoryEvent is one entry of the doorbots history endpoint.
type HistoryEvent struct {
	ID          int64             `json:"id"`
	CreatedAt   string            `json:"created_at"`
	Answered    bool              `json:"answered"`
	Kind        string            `json:"kind"`
	Favorite    bool              `json:"favorite"`
	SnapshotURL string            `json:"snapshot_url,omitempty"`
	Recording   *HistoryRecording `json:"recording,omitempty"`
	Doorbot     HistoryDoorbot    `json:"doorbot"`
}

// HistoryRecording is the recording status of a history event.
type HistoryRecording struct {
	Status string `json:"status"`
}

// HistoryDoorbot identifies the device a history event belongs to.
type HistoryDoorbot struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}
