// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reelrank/reelrank/internal/adapters/catalog"
	"github.com/reelrank/reelrank/internal/adapters/repository"
	"github.com/reelrank/reelrank/internal/app"
	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/internal/domain/rank"
	"github.com/reelrank/reelrank/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	StartSession(ctx context.Context, userID string, externalID int64, category model.Category) (model.ComparisonSession, error)
	GetSession(ctx context.Context, sessionID string) (model.ComparisonSession, error)
	SubmitComparison(ctx context.Context, sessionID string, preference model.Preference) (model.ComparisonSession, error)
	CompleteRanking(ctx context.Context, sessionID string) (model.RankedEntry, error)
	CancelSession(ctx context.Context, sessionID string) error

	Rankings(ctx context.Context, userID string, category model.Category, limit int) ([]types.Ranking, error)
	RemoveRanking(ctx context.Context, userID, itemID string) error
	MoveRanking(ctx context.Context, userID, itemID string, newCategory model.Category) (model.RankedEntry, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	rankingsHandler *RankingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, maxListLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleSessions, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSession, "sessions"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleList, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankingsHandler.HandleItem, "rankings"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError translates engine sentinel errors into HTTP responses.
func writeEngineError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, catalog.ErrItemNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, app.ErrItemAlreadyRanked),
		errors.Is(err, app.ErrSessionCompleted),
		errors.Is(err, repository.ErrDuplicateItem):
		return http.StatusConflict, "conflict"
	case errors.Is(err, app.ErrInvalidUser),
		errors.Is(err, app.ErrInvalidPreference),
		errors.Is(err, app.ErrSessionNotResolved),
		errors.Is(err, app.ErrNoPendingComparison),
		errors.Is(err, rank.ErrInvalidCategory),
		errors.Is(err, rank.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusBadGateway, "catalog_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// requireUser extracts the calling user from the X-User-ID header.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingUser)
		return "", false
	}
	return userID, true
}
