package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListFollowUps(w http.ResponseWriter, r *http.Request) {
	if s.followUps == nil {
		jsonError(w, "follow-ups unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"followups": s.followUps.List(),
	})
}

func (s *Server) handleGetFollowUp(w http.ResponseWriter, r *http.Request) {
	if s.followUps == nil {
		jsonError(w, "follow-ups unavailable", http.StatusServiceUnavailable)
		return
	}
	taskID := chi.URLParam(r, "taskID")
	snap, ok := s.followUps.Get(taskID)
	if !ok {
		jsonError(w, "follow-up not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
