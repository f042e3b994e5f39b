package server

import (
	"net/http"

	"github.com/Chrisie146/reconex/internal/engine"
	"github.com/Chrisie146/reconex/internal/model"
)

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r, "")
	if err != nil {
		writeError(w, err)
		return
	}

	patterns, err := s.storage.ListLearnedPatterns(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}
	if patterns == nil {
		patterns = []model.LearnedPattern{}
	}
	writeJSON(w, http.StatusOK, patterns)
}

type updatePatternRequest struct {
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

func (s *Server) handleUpdatePattern(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updatePatternRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.storage.UpdateLearnedPattern(r.Context(), id, req.Category, req.Enabled); err != nil {
		writeError(w, err)
		return
	}

	pat, err := s.storage.GetLearnedPattern(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pat)
}

func (s *Server) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.storage.DeleteLearnedPattern(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "pattern deleted"})
}

func (s *Server) handleApplyPatterns(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.bulk.ApplyPatterns(r.Context(), sid,
		engine.ApplyOptions{OnlyUncategorised: req.OnlyUncategorised})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		UpdatedCount: result.UpdatedCount,
		Message:      applyMessage(result.UpdatedCount),
	})
}
