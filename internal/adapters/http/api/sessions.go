// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/reelrank/reelrank/internal/app"
	"github.com/reelrank/reelrank/internal/domain/model"
)

// SessionsHandler handles comparison-session requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// startSessionRequest mirrors the schema for POST /sessions.
type startSessionRequest struct {
	ExternalID int64  `json:"external_id"`
	Category   string `json:"category"`
}

func (s startSessionRequest) validate() error {
	switch {
	case s.ExternalID <= 0:
		return errors.New("missing external_id")
	case strings.TrimSpace(s.Category) == "":
		return errors.New("missing category")
	}
	return nil
}

// comparisonRequest mirrors the schema for POST /sessions/{id}/comparisons.
type comparisonRequest struct {
	Preference string `json:"preference"`
}

// HandleSessions handles POST /sessions requests.
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sess, err := h.deps.StartSession(r.Context(), userID, req.ExternalID, model.Category(req.Category))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app.SessionView(sess))
}

// HandleSession routes requests under /sessions/{id}:
//
//	GET    /sessions/{id}
//	DELETE /sessions/{id}
//	POST   /sessions/{id}/comparisons
//	POST   /sessions/{id}/complete
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	sessionID, action, _ := strings.Cut(path, "/")
	if sessionID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	// Ownership is enforced here, at the boundary; the engine itself is
	// caller-agnostic.
	sess, err := h.deps.GetSession(r.Context(), sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if sess.UserID != userID {
		writeEngineError(w, ErrNotOwner)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, app.SessionView(sess))

	case action == "" && r.Method == http.MethodDelete:
		if err := h.deps.CancelSession(r.Context(), sessionID); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "comparisons" && r.Method == http.MethodPost:
		h.submitComparison(w, r, sessionID)

	case action == "complete" && r.Method == http.MethodPost:
		entry, err := h.deps.CompleteRanking(r.Context(), sessionID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)

	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) submitComparison(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	sess, err := h.deps.SubmitComparison(r.Context(), sessionID, model.Preference(req.Preference))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.SessionView(sess))
}
