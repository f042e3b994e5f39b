// Package server exposes the categorization engine over a JSON REST API.
package server

import (
	"context"
	"net/http"

	"github.com/rs/cors"

	"github.com/Chrisie146/reconex/internal/engine"
	"github.com/Chrisie146/reconex/internal/model"
)

// Storage is the persistence contract the API layer depends on.
type Storage interface {
	engine.Storage

	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	DeleteSession(ctx context.Context, sessionID string) error

	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	ListRules(ctx context.Context, sessionID string) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	SetRuleEnabled(ctx context.Context, id int64, enabled bool) error
	DeleteRule(ctx context.Context, id int64) error

	ListLearnedPatterns(ctx context.Context, sessionID string) ([]model.LearnedPattern, error)
	GetLearnedPattern(ctx context.Context, id int64) (*model.LearnedPattern, error)
	UpdateLearnedPattern(ctx context.Context, id int64, category string, enabled bool) error
	DeleteLearnedPattern(ctx context.Context, id int64) error
}

// Server is the HTTP API for the categorization engine.
type Server struct {
	storage  Storage
	resolver *engine.Resolver
	bulk     *engine.BulkApplier
	learner  *engine.Learner
	handler  http.Handler
}

// New creates a server and wires up its routes.
func New(store Storage, allowedOrigins []string) *Server {
	resolver := engine.NewResolver()
	s := &Server{
		storage:  store,
		resolver: resolver,
		bulk:     engine.NewBulkApplier(store, resolver),
		learner:  engine.NewLearner(store),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /sessions/{id}/transactions", s.handleIngestTransactions)
	mux.HandleFunc("GET /sessions/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /sessions/{id}/summary", s.handleSummary)
	mux.HandleFunc("POST /sessions/{id}/match-invoices", s.handleMatchInvoices)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("GET /transactions/{id}/similar", s.handleSimilarTransactions)

	mux.HandleFunc("POST /rules", s.handleCreateRule)
	mux.HandleFunc("GET /rules", s.handleListRules)
	mux.HandleFunc("PUT /rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /rules/{id}", s.handleDeleteRule)
	mux.HandleFunc("POST /rules/{id}/preview", s.handlePreviewRule)
	mux.HandleFunc("POST /rules/{id}/apply", s.handleApplyRule)
	mux.HandleFunc("POST /rules/apply-bulk", s.handleApplyBulk)

	mux.HandleFunc("GET /learned-rules", s.handleListPatterns)
	mux.HandleFunc("PUT /learned-rules/{id}", s.handleUpdatePattern)
	mux.HandleFunc("DELETE /learned-rules/{id}", s.handleDeletePattern)
	mux.HandleFunc("POST /learned-rules/apply", s.handleApplyPatterns)

	mux.HandleFunc("POST /bulk-categorise", s.handleBulkCategorise)
	mux.HandleFunc("POST /bulk-categorise/ids", s.handleBulkCategoriseIDs)
	mux.HandleFunc("POST /bulk-categorise/undo", s.handleBulkUndo)
	mux.HandleFunc("POST /bulk-merchant", s.handleBulkMerchant)
	mux.HandleFunc("POST /bulk-merchant/ids", s.handleBulkMerchantIDs)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(mux)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
