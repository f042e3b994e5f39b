package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chrisie146/reconex/internal/engine"
	"github.com/Chrisie146/reconex/internal/model"
	"github.com/Chrisie146/reconex/internal/storage"
)

func setupTestServer(t *testing.T) (*Server, *storage.SQLiteStorage) {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("Failed to close database: %v", closeErr)
		}
	})

	require.NoError(t, db.Migrate(context.Background()))

	return New(db, []string{"http://localhost:1234"}), db
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func ingestBody(descriptions ...string) map[string]any {
	txns := make([]map[string]any, 0, len(descriptions))
	for i, d := range descriptions {
		txns = append(txns, map[string]any{
			"id":          fmt.Sprintf("t%d", i+1),
			"date":        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			"description": d,
			"amount":      -100.0,
		})
	}
	return map[string]any{"transactions": txns}
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_IngestRunsAutoApply(t *testing.T) {
	srv, db := setupTestServer(t)
	ctx := context.Background()

	rule := &model.Rule{
		SessionID: "sess1", Name: "Groceries auto", Category: "Groceries",
		Keywords: []string{"woolworths"}, Enabled: true, AutoApply: true,
	}
	require.NoError(t, db.CreateRule(ctx, rule))

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123", "UBER TRIP"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[map[string]int](t, rec)
	assert.Equal(t, 2, resp["imported"])
	assert.Equal(t, 1, resp["categorised"])

	t1, err := db.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", t1.Category)
	assert.Equal(t, model.StatusCategorisedByRule, t1.Status)
}

func TestServer_IngestGeneratesMissingIDs(t *testing.T) {
	srv, db := setupTestServer(t)

	body := map[string]any{"transactions": []map[string]any{
		{"date": time.Now().UTC(), "description": "NO ID GIVEN", "amount": -5.0},
	}}
	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	txns, err := db.ListTransactions(context.Background(), "sess1")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.NotEmpty(t, txns[0].ID)
}

func TestServer_IngestRejectsEmptyBatch(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		map[string]any{"transactions": []map[string]any{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_IngestRejectsMissingDate(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := map[string]any{"transactions": []map[string]any{
		{"id": "t1", "description": "WOOLWORTHS 123", "amount": -100.0},
	}}
	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions", body)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decode[map[string]string](t, rec)
	assert.Contains(t, resp["error"], "date is required")
}

func TestServer_UpdateTransactionRejectsEmptyDescription(t *testing.T) {
	srv, _ := setupTestServer(t)

	doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123"))

	rec := doJSON(t, srv, http.MethodPut, "/transactions/t1",
		map[string]any{"description": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decode[map[string]string](t, rec)
	assert.Contains(t, resp["error"], "description is required")
}

func TestServer_ListTransactions(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123", "UBER TRIP"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/sessions/sess1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	txns := decode[[]model.Transaction](t, rec)
	assert.Len(t, txns, 2)

	// Empty session returns an empty array, not null.
	rec = doJSON(t, srv, http.MethodGet, "/sessions/empty/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestServer_UpdateTransactionLearns(t *testing.T) {
	srv, db := setupTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("POS PURCHASE WOOLWORTHS 123 CAPE TOWN"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/transactions/t1?learn_rule=true",
		map[string]any{"category": "Groceries", "merchant": "Woolworths"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[model.Transaction](t, rec)
	assert.Equal(t, "Groceries", updated.Category)
	assert.Equal(t, model.StatusUserModified, updated.Status)

	patterns, err := db.ListLearnedPatterns(ctx, "sess1")
	require.NoError(t, err)
	assert.Len(t, patterns, 4)
}

func TestServer_UpdateTransactionWithoutLearning(t *testing.T) {
	srv, db := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/transactions/t1",
		map[string]any{"category": "Groceries"})
	require.Equal(t, http.StatusOK, rec.Code)

	patterns, err := db.ListLearnedPatterns(context.Background(), "sess1")
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestServer_SimilarTransactions(t *testing.T) {
	srv, _ := setupTestServer(t)

	doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123 CAPE TOWN", "WOOLWORTHS 881 CAPE TOWN", "UBER TRIP"))

	rec := doJSON(t, srv, http.MethodGet, "/transactions/t1/similar", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	similar := decode[[]model.Transaction](t, rec)
	require.Len(t, similar, 1)
	assert.Equal(t, "t2", similar[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/transactions/missing/similar", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UpdateTransactionNotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/transactions/missing",
		map[string]any{"category": "Groceries"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RuleLifecycle(t *testing.T) {
	srv, _ := setupTestServer(t)

	create := map[string]any{
		"session_id": "sess1",
		"name":       "Groceries rule",
		"category":   "Groceries",
		"keywords":   []string{"woolworths"},
		"priority":   1,
	}
	rec := doJSON(t, srv, http.MethodPost, "/rules", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[model.Rule](t, rec)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Enabled, "enabled must default to true")

	rec = doJSON(t, srv, http.MethodGet, "/rules?session_id=sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rules := decode[[]model.Rule](t, rec)
	require.Len(t, rules, 1)

	update := map[string]any{
		"name":     "Groceries rule",
		"category": "Food",
		"keywords": []string{"woolworths", "checkers"},
	}
	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/rules/%d", created.ID), update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Rule](t, rec)
	assert.Equal(t, "Food", updated.Category)
	assert.Equal(t, "sess1", updated.SessionID, "session must survive updates")

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/rules/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/rules/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CreateRuleValidation(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/rules", map[string]any{
		"session_id": "sess1",
		"name":       "No keywords",
		"category":   "Groceries",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/rules", map[string]any{
		"name":     "No session",
		"category": "Groceries",
		"keywords": []string{"x"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected.
	rec = doJSON(t, srv, http.MethodPost, "/rules", map[string]any{
		"session_id": "sess1",
		"name":       "Bad field",
		"category":   "Groceries",
		"keywords":   []string{"x"},
		"surprise":   true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_PreviewAndApplyRule(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123", "UBER TRIP", "WOOLWORTHS 881"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/rules", map[string]any{
		"session_id": "sess1",
		"name":       "Groceries rule",
		"category":   "Groceries",
		"keywords":   []string{"woolworths"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rule := decode[model.Rule](t, rec)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/rules/%d/preview", rule.ID),
		map[string]any{"session_id": "sess1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	preview := decode[engine.PreviewResult](t, rec)
	assert.Equal(t, 2, preview.Count)
	assert.ElementsMatch(t, []string{"t1", "t3"}, preview.MatchedIDs)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/rules/%d/apply", rule.ID),
		map[string]any{"session_id": "sess1"})
	require.Equal(t, http.StatusOK, rec.Code)

	applied := decode[applyResponse](t, rec)
	assert.Equal(t, 2, applied.UpdatedCount)
	assert.Equal(t, "2 transactions updated", applied.Message)
}

func TestServer_ApplyRuleNotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/rules/999/apply",
		map[string]any{"session_id": "sess1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_LearnedRules(t *testing.T) {
	srv, db := setupTestServer(t)
	ctx := context.Background()

	pat := &model.LearnedPattern{
		SessionID: "sess1", PatternType: model.PatternContains,
		PatternValue: "NETFLIX", Category: "Entertainment",
		Confidence: 0.7, Enabled: true,
	}
	require.NoError(t, db.UpsertLearnedPattern(ctx, pat))

	rec := doJSON(t, srv, http.MethodGet, "/learned-rules?session_id=sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	patterns := decode[[]model.LearnedPattern](t, rec)
	require.Len(t, patterns, 1)

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/learned-rules/%d", pat.ID),
		map[string]any{"category": "Streaming", "enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.LearnedPattern](t, rec)
	assert.Equal(t, "Streaming", updated.Category)
	assert.False(t, updated.Enabled)

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/learned-rules/%d", pat.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/learned-rules?session_id=sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestServer_ApplyLearnedRules(t *testing.T) {
	srv, db := setupTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("NETFLIX.COM 99"))
	require.Equal(t, http.StatusCreated, rec.Code)

	pat := &model.LearnedPattern{
		SessionID: "sess1", PatternType: model.PatternContains,
		PatternValue: "NETFLIX", Category: "Entertainment",
		Confidence: 0.7, Enabled: true,
	}
	require.NoError(t, db.UpsertLearnedPattern(ctx, pat))

	rec = doJSON(t, srv, http.MethodPost, "/learned-rules/apply",
		map[string]any{"session_id": "sess1"})
	require.Equal(t, http.StatusOK, rec.Code)

	applied := decode[applyResponse](t, rec)
	assert.Equal(t, 1, applied.UpdatedCount)

	t1, err := db.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCategorisedByPattern, t1.Status)
}

func TestServer_BulkCategoriseAndUndo(t *testing.T) {
	srv, db := setupTestServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123", "UBER TRIP"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/bulk-categorise", map[string]any{
		"session_id": "sess1",
		"keyword":    "woolworths",
		"category":   "Groceries",
		"learn":      true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	applied := decode[applyResponse](t, rec)
	assert.Equal(t, 1, applied.UpdatedCount)

	// learn=true records a contains pattern.
	patterns, err := db.ListLearnedPatterns(ctx, "sess1")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "WOOLWORTHS", patterns[0].PatternValue)

	rec = doJSON(t, srv, http.MethodPost, "/bulk-categorise/undo",
		map[string]any{"session_id": "sess1"})
	require.Equal(t, http.StatusOK, rec.Code)

	t1, err := db.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, t1.Category)

	// Single undo level: the second undo conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/bulk-categorise/undo",
		map[string]any{"session_id": "sess1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_BulkCategoriseValidation(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/bulk-categorise", map[string]any{
		"session_id": "sess1",
		"category":   "Groceries",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BulkCategoriseIDs(t *testing.T) {
	srv, db := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("A", "B", "C"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/bulk-categorise/ids", map[string]any{
		"session_id": "sess1",
		"ids":        []string{"t1", "t3"},
		"category":   "Fees",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	applied := decode[applyResponse](t, rec)
	assert.Equal(t, 2, applied.UpdatedCount)

	t2, err := db.GetTransaction(context.Background(), "t2")
	require.NoError(t, err)
	assert.Empty(t, t2.Category)
}

func TestServer_BulkMerchant(t *testing.T) {
	srv, db := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/bulk-merchant", map[string]any{
		"session_id": "sess1",
		"keyword":    "woolworths",
		"merchant":   "Woolworths",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t1, err := db.GetTransaction(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Woolworths", t1.Merchant)
	assert.Empty(t, t1.Category)
}

func TestServer_Summary(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123", "UBER TRIP"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/sessions/sess1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		ByCategory []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"by_category"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Count)
	require.Len(t, summary.ByCategory, 1)
	assert.Equal(t, "Uncategorised", summary.ByCategory[0].Name)
}

func TestServer_MatchInvoices(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("ACME SUPPLIES MARCH"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/sessions/sess1/match-invoices", map[string]any{
		"invoices": []map[string]any{
			{
				"id":        "inv1",
				"reference": "ACME SUPPLIES MARCH",
				"amount":    -100.0,
				"date":      time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Matches []struct {
			InvoiceID     string `json:"invoice_id"`
			TransactionID string `json:"transaction_id"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "t1", result.Matches[0].TransactionID)
}

func TestServer_DeleteSession(t *testing.T) {
	srv, db := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/sessions/sess1/transactions",
		ingestBody("WOOLWORTHS 123"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/sessions/sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	txns, err := db.ListTransactions(context.Background(), "sess1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/rules", nil)
	req.Header.Set("Origin", "http://localhost:1234")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:1234", rec.Header().Get("Access-Control-Allow-Origin"))
}
