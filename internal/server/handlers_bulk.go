package server

import (
	"fmt"
	"net/http"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/engine"
)

func applyMessage(count int) string {
	switch count {
	case 0:
		return "no transactions updated"
	case 1:
		return "1 transaction updated"
	default:
		return fmt.Sprintf("%d transactions updated", count)
	}
}

type bulkKeywordRequest struct {
	SessionID         string `json:"session_id"`
	Keyword           string `json:"keyword"`
	Category          string `json:"category"`
	Merchant          string `json:"merchant"`
	OnlyUncategorised bool   `json:"only_uncategorised"`
	Learn             bool   `json:"learn"`
}

// handleBulkCategorise applies a category to every transaction matching a
// keyword, the apply-to-similar action. With learn set, the keyword is
// also recorded as a contains pattern for future uploads.
func (s *Server) handleBulkCategorise(w http.ResponseWriter, r *http.Request) {
	var req bulkKeywordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Keyword == "" || req.Category == "" {
		writeError(w, common.NewValidationError("keyword and category are required"))
		return
	}

	if req.Learn {
		s.learner.LearnKeyword(r.Context(), sid, req.Keyword, req.Category, "")
	}

	result, err := s.bulk.ApplyKeyword(r.Context(), sid, req.Keyword, req.Category,
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

type bulkIDsRequest struct {
	SessionID string   `json:"session_id"`
	IDs       []string `json:"ids"`
	Category  string   `json:"category"`
	Merchant  string   `json:"merchant"`
}

func (s *Server) handleBulkCategoriseIDs(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) == 0 || req.Category == "" {
		writeError(w, common.NewValidationError("ids and category are required"))
		return
	}

	result, err := s.bulk.ApplyIDs(r.Context(), sid, req.IDs, req.Category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		UpdatedCount: result.UpdatedCount,
		Message:      applyMessage(result.UpdatedCount),
	})
}

type undoRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleBulkUndo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.bulk.Undo(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		UpdatedCount: result.UpdatedCount,
		Message:      fmt.Sprintf("restored %d transactions", result.UpdatedCount),
	})
}

func (s *Server) handleBulkMerchant(w http.ResponseWriter, r *http.Request) {
	var req bulkKeywordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Keyword == "" || req.Merchant == "" {
		writeError(w, common.NewValidationError("keyword and merchant are required"))
		return
	}

	if req.Learn {
		s.learner.LearnKeyword(r.Context(), sid, req.Keyword, req.Category, req.Merchant)
	}

	result, err := s.bulk.ApplyMerchantKeyword(r.Context(), sid, req.Keyword, req.Merchant,
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

func (s *Server) handleBulkMerchantIDs(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sid, err := sessionID(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) == 0 || req.Merchant == "" {
		writeError(w, common.NewValidationError("ids and merchant are required"))
		return
	}

	result, err := s.bulk.ApplyMerchantIDs(r.Context(), sid, req.IDs, req.Merchant)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyResponse{
		UpdatedCount: result.UpdatedCount,
		Message:      applyMessage(result.UpdatedCount),
	})
}
