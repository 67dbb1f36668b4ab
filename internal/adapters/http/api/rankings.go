// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelrank/reelrank/internal/domain/model"
)

const defaultListLimit = 25

// RankingsHandler handles ranked-list requests.
type RankingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{deps: deps, maxLimit: maxLimit}
}

// moveRequest mirrors the schema for POST /rankings/{item_id}/move.
type moveRequest struct {
	Category string `json:"category"`
}

// HandleList handles GET /rankings?category=C&limit=N requests.
func (h *RankingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	category := model.Category(r.URL.Query().Get("category"))

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", errors.New("limit exceeds maximum"))
		return
	}

	rankings, err := h.deps.Rankings(r.Context(), userID, category, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankings)
}

// HandleItem routes requests under /rankings/{item_id}:
//
//	DELETE /rankings/{item_id}
//	POST   /rankings/{item_id}/move
func (h *RankingsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/rankings/")
	itemID, action, _ := strings.Cut(path, "/")
	if itemID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		if err := h.deps.RemoveRanking(r.Context(), userID, itemID); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "move" && r.Method == http.MethodPost:
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		entry, err := h.deps.MoveRanking(r.Context(), userID, itemID, model.Category(req.Category))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)

	default:
		http.NotFound(w, r)
	}
}
