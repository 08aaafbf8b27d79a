package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sstewart199/ring/internal/device"
)

// toggleRequest is the body of the light and siren endpoints.
type toggleRequest struct {
	On *bool `json:"on"`
}

// handleListDevices returns every camera in the directory.
//
// Query parameters:
//   - location_id: only cameras of this location
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.currentDirectory(w)
	if !ok {
		return
	}

	locationID := r.URL.Query().Get("location_id")
	if locationID == "" {
		states := dir.Registry().States()
		writeJSON(w, http.StatusOK, map[string]any{"devices": states, "count": len(states)})
		return
	}

	cams := dir.Registry().ListByLocation(locationID)
	states := make([]device.State, 0, len(cams))
	for _, cam := range cams {
		states = append(states, cam.State())
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": states, "count": len(states)})
}

// handleGetDevice returns one camera.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.lookupCamera(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cam.State())
}

// handleGetDeviceDings returns the dings a camera has received, newest first.
//
// Query parameters:
//   - active: "true" limits the list to dings that have not expired
func (s *Server) handleGetDeviceDings(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.lookupCamera(w, r)
	if !ok {
		return
	}

	dings := cam.RecentDings()
	if r.URL.Query().Get("active") == "true" {
		dings = cam.ActiveDings()
	}
	writeJSON(w, http.StatusOK, map[string]any{"dings": dings, "count": len(dings)})
}

// handleRefreshDevice asks the status coordinator for a fresh snapshot.
// The request is throttled and coalesced with others, so the response only
// acknowledges it.
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	cam, ok := s.lookupCamera(w, r)
	if !ok {
		return
	}
	cam.RequestUpdate()
	writeJSON(w, http.StatusAccepted, map[string]any{"id": cam.ID(), "status": "refresh requested"})
}

// handleSetLight switches a camera's floodlight.
func (s *Server) handleSetLight(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "light", (*device.Camera).SetLight)
}

// handleSetSiren switches a camera's siren.
func (s *Server) handleSetSiren(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, "siren", (*device.Camera).SetSiren)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request, name string, set func(*device.Camera, context.Context, bool) error) {
	cam, ok := s.lookupCamera(w, r)
	if !ok {
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.On == nil {
		writeBadRequest(w, "on is required")
		return
	}

	if err := set(cam, r.Context(), *req.On); err != nil {
		if errors.Is(err, device.ErrNoController) {
			writeError(w, http.StatusNotImplemented, ErrCodeNotSupported, name+" control is not available")
			return
		}
		s.logger.Warn("camera "+name+" request failed", "camera_id", cam.ID(), "error", err)
		writeUpstreamError(w, "ring request failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": cam.ID(), name: *req.On})
}

// lookupCamera resolves the {id} URL parameter, writing the error response
// itself when it fails.
func (s *Server) lookupCamera(w http.ResponseWriter, r *http.Request) (*device.Camera, bool) {
	dir, ok := s.currentDirectory(w)
	if !ok {
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "device id must be an integer")
		return nil, false
	}

	cam, err := dir.Registry().Lookup(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return nil, false
	}
	return cam, true
}
