package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/engine"
	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/pattern"
	"github.com/Chrisie146/reconex/internal/recon"
	"github.com/Chrisie146/reconex/internal/report"
)

// ingestRequest is the hand-off format from the external statement parser.
type ingestRequest struct {
	Transactions []ingestTransaction `json:"transactions"`
}

type ingestTransaction struct {
	Date        time.Time `json:"date"`
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
}

type ingestResponse struct {
	Imported    int `json:"imported"`
	Categorised int `json:"categorised"`
}

// handleIngestTransactions stores a batch of parsed transactions and runs
// the auto-apply pass over the session.
func (s *Server) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("id")

	var req ingestRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, common.NewValidationError("transactions are required"))
		return
	}

	txns := make([]model.Transaction, 0, len(req.Transactions))
	for _, in := range req.Transactions {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		status := model.StatusUncategorised
		if in.Category != "" {
			status = model.StatusUserModified
		}
		txns = append(txns, model.Transaction{
			ID:          id,
			SessionID:   sid,
			Date:        in.Date,
			Description: in.Description,
			Merchant:    in.Merchant,
			Amount:      in.Amount,
			Category:    in.Category,
			Status:      status,
		})
	}

	if err := s.storage.SaveTransactions(r.Context(), txns); err != nil {
		writeError(w, err)
		return
	}

	applied, err := s.bulk.AutoApply(r.Context(), sid, engine.ApplyOptions{OnlyUncategorised: true})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		Imported:    len(txns),
		Categorised: applied.UpdatedCount,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.storage.ListTransactions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

// updateTransactionRequest carries a manual edit. Nil fields are left
// untouched.
type updateTransactionRequest struct {
	Category    *string `json:"category"`
	Merchant    *string `json:"merchant"`
	Description *string `json:"description"`
}

// handleUpdateTransaction applies a manual edit and, when learn_rule is
// set, feeds the assignment into the learning loop. Learning failures
// never fail the edit.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txn, err := s.storage.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	assigned := false
	if req.Description != nil {
		txn.Description = *req.Description
	}
	if req.Category != nil {
		txn.Category = *req.Category
		assigned = txn.Category != ""
	}
	if req.Merchant != nil {
		txn.Merchant = *req.Merchant
		assigned = assigned || txn.Merchant != ""
	}
	if req.Category != nil || req.Merchant != nil {
		txn.Status = model.StatusUserModified
	}

	if err := s.storage.UpdateTransaction(r.Context(), txn); err != nil {
		writeError(w, err)
		return
	}

	if assigned && r.URL.Query().Get("learn_rule") == "true" {
		s.learner.Learn(r.Context(), *txn, txn.Category, txn.Merchant, r.URL.Query().Get("keyword"))
	}

	writeJSON(w, http.StatusOK, txn)
}

// handleSimilarTransactions lists the other transactions in the session
// whose descriptions are close to the given one, the preview for an
// apply-to-similar action.
func (s *Server) handleSimilarTransactions(w http.ResponseWriter, r *http.Request) {
	txn, err := s.storage.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := s.storage.ListTransactions(r.Context(), txn.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	similar := []model.Transaction{}
	for _, other := range txns {
		if other.ID == txn.ID {
			continue
		}
		if pattern.Similar(txn.Description, other.Description) {
			similar = append(similar, other)
		}
	}
	writeJSON(w, http.StatusOK, similar)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txns, err := s.storage.ListTransactions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Build(txns))
}

type matchInvoicesRequest struct {
	Invoices []recon.Invoice `json:"invoices"`
}

func (s *Server) handleMatchInvoices(w http.ResponseWriter, r *http.Request) {
	var req matchInvoicesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Invoices) == 0 {
		writeError(w, common.NewValidationError("invoices are required"))
		return
	}

	txns, err := s.storage.ListTransactions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recon.MatchInvoices(req.Invoices, txns))
}
