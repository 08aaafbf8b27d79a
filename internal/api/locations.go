package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sstewart199/ring/internal/device"
	"github.com/sstewart199/ring/internal/location"
)

// locationResponse is a location with the current state of its cameras.
type locationResponse struct {
	location.Summary
	Cameras []device.State `json:"cameras"`
}

// handleListLocations returns the locations kept by the allow-list.
func (s *Server) handleListLocations(w http.ResponseWriter, _ *http.Request) {
	dir, ok := s.currentDirectory(w)
	if !ok {
		return
	}

	locs := dir.Locations()
	summaries := make([]location.Summary, 0, len(locs))
	for _, loc := range locs {
		summaries = append(summaries, loc.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": summaries, "count": len(summaries)})
}

// handleGetLocation returns one location and its cameras.
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	dir, ok := s.currentDirectory(w)
	if !ok {
		return
	}

	loc, err := dir.Location(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "location not found")
		return
	}

	cams := loc.Cameras()
	resp := locationResponse{
		Summary: loc.Summary(),
		Cameras: make([]device.State, 0, len(cams)),
	}
	for _, cam := range cams {
		resp.Cameras = append(resp.Cameras, cam.State())
	}
	writeJSON(w, http.StatusOK, resp)
}
