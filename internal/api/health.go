package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// healthCheckTimeout bounds each component check.
const healthCheckTimeout = 3 * time.Second

// componentHealth is the result of one component check.
type componentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports the directory, its coordinators and the optional
// components. The status is "ok", "degraded" when a component check fails,
// or "unavailable" (HTTP 503) before the first directory is built.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"version": s.version,
	}

	status := "ok"
	code := http.StatusOK

	if dir, err := s.directory.Current(); err == nil {
		resp["directory"] = directorySummary(dir)
	} else {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	components := s.checkComponents(r.Context())
	for _, c := range components {
		if c.Status != "ok" && status == "ok" {
			status = "degraded"
		}
	}
	resp["components"] = components
	resp["websocket_clients"] = s.hub.ClientCount()
	resp["status"] = status

	writeJSON(w, code, resp)
}

func (s *Server) checkComponents(ctx context.Context) []componentHealth {
	names := make([]string, 0, len(s.components))
	for name := range s.components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]componentHealth, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := s.components[name].HealthCheck(checkCtx)
		cancel()

		h := componentHealth{Name: name, Status: "ok"}
		if err != nil {
			h.Status = "error"
			h.Error = err.Error()
		}
		out = append(out, h)
	}
	return out
}
