package server

import (
	"net/http"

	"github.com/Chrisie146/reconex/internal/engine"
	"github.com/Chrisie146/reconex/internal/model"
)

type ruleRequest struct {
	SessionID          string                `json:"session_id"`
	Name               string                `json:"name"`
	Category           string                `json:"category"`
	Keywords           []string              `json:"keywords"`
	Conditions         []model.RuleCondition `json:"conditions"`
	Priority           int                   `json:"priority"`
	Enabled            *bool                 `json:"enabled"`
	AutoApply          bool                  `json:"auto_apply"`
	MatchCompoundWords bool                  `json:"match_compound_words"`
}

func (req *ruleRequest) toRule() model.Rule {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return model.Rule{
		SessionID:          req.SessionID,
		Name:               req.Name,
		Category:           req.Category,
		Keywords:           req.Keywords,
		Conditions:         req.Conditions,
		Priority:           req.Priority,
		Enabled:            enabled,
		AutoApply:          req.AutoApply,
		MatchCompoundWords: req.MatchCompoundWords,
	}
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	req.SessionID = sid

	rule := req.toRule()
	if err := s.storage.CreateRule(r.Context(), &rule); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r, "")
	if err != nil {
		writeError(w, err)
		return
	}

	rules, err := s.storage.ListRules(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}
	if rules == nil {
		rules = []model.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ruleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	existing, err := s.storage.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	rule := req.toRule()
	rule.ID = existing.ID
	rule.SessionID = existing.SessionID
	rule.CreatedAt = existing.CreatedAt

	if err := s.storage.UpdateRule(r.Context(), &rule); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.storage.DeleteRule(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "rule deleted"})
}

type previewRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handlePreviewRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req previewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	rule, err := s.storage.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := s.storage.ListTransactions(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.resolver.Preview(txns, *rule))
}

type applyRequest struct {
	SessionID         string `json:"session_id"`
	OnlyUncategorised bool   `json:"only_uncategorised"`
}

type applyResponse struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

func (s *Server) handleApplyRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

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

	rule, err := s.storage.GetRule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.bulk.ApplyRule(r.Context(), sid, *rule,
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

func (s *Server) handleApplyBulk(w http.ResponseWriter, r *http.Request) {
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

	result, err := s.bulk.AutoApply(r.Context(), sid,
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
