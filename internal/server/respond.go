package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Chrisie146/reconex/internal/common"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps application errors onto HTTP status codes. Internal
// errors get a generic body; the detail stays in the log.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidPattern):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: common.UserMessage(err)})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: common.UserMessage(err)})
	case errors.Is(err, common.ErrNoPendingUndo):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no bulk operation to undo"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func readJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return common.NewUserError(fmt.Sprintf("invalid request body: %v", err), common.ErrValidation)
	}
	return nil
}

// pathID parses the {id} path segment as an integer id.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, common.NewValidationError("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// sessionID pulls the session scope from the query string or a fallback
// body field, rejecting requests without one.
func sessionID(r *http.Request, bodyValue string) (string, error) {
	if sid := r.URL.Query().Get("session_id"); sid != "" {
		return sid, nil
	}
	if bodyValue != "" {
		return bodyValue, nil
	}
	return "", common.NewValidationError("session_id is required")
}
