package http

import (
	"net/http"

	applog "spendlog/internal/log"
)

// handleDashboard serves the per-user overview, memoized briefly so a
// burst of reads between writes hits the store once.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cacheKey := userID + ":dashboard"
	if ov, ok := s.dashCache.Get(cacheKey); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, ov)
		return
	}

	ov, err := s.dashboard.Build(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.dashCache.Set(cacheKey, ov)

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard rebuilt",
		applog.FieldUserID, userID)

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, ov)
}
