package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sstewart199/ring/internal/directory"
	"github.com/sstewart199/ring/internal/polling"
)

// directoryInfo summarises a built directory.
type directoryInfo struct {
	BuiltAt   time.Time     `json:"built_at"`
	Locations int           `json:"locations"`
	Cameras   int           `json:"cameras"`
	Status    polling.Stats `json:"status_polling"`
	Events    polling.Stats `json:"event_polling"`
}

func directorySummary(dir *directory.Directory) directoryInfo {
	return directoryInfo{
		BuiltAt:   dir.BuiltAt(),
		Locations: len(dir.Locations()),
		Cameras:   dir.Registry().Len(),
		Status:    dir.StatusStats(),
		Events:    dir.EventStats(),
	}
}

// currentDirectory writes a 503 and returns false when no directory has
// been built yet.
func (s *Server) currentDirectory(w http.ResponseWriter) (*directory.Directory, bool) {
	dir, err := s.directory.Current()
	if err != nil {
		writeUnavailable(w, "device directory is not available")
		return nil, false
	}
	return dir, true
}

// handleRebuildDirectory fetches locations and devices again and replaces
// the directory. The previous directory keeps serving if the build fails.
func (s *Server) handleRebuildDirectory(w http.ResponseWriter, r *http.Request) {
	dir, err := s.directory.Build(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, directorySummary(dir))
	case errors.Is(err, directory.ErrTwoFactorRequired):
		writeUnauthorized(w, "account requires two-factor authentication; configure a refresh token")
	case errors.Is(err, directory.ErrClosed):
		writeUnavailable(w, "service is shutting down")
	default:
		s.logger.Warn("directory rebuild failed", "error", err)
		writeUpstreamError(w, "directory rebuild failed")
	}
}
