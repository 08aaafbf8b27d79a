package api

import (
	"net/http"
	"strconv"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func historyLimitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return min(limit, maxHistoryLimit)
}

// handleHistory passes recent account events through from Ring.
//
// Query parameters:
//   - limit: number of events (default from config, at most 100)
//   - favorites: "true" or "1" to return only favourited events
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "history is not available")
		return
	}

	q := r.URL.Query()

	limit := s.historyMax
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeBadRequest(w, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	favorites := false
	if v := q.Get("favorites"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "favorites must be a boolean")
			return
		}
		favorites = b
	}

	events, err := s.history.FetchHistory(r.Context(), limit, favorites)
	if err != nil {
		s.logger.Warn("history request failed", "error", err)
		writeUpstreamError(w, "ring request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
