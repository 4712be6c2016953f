package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"fitRivalAPI/internal/types/leaderboard"
	"fitRivalAPI/middleware"
	"fitRivalAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard serves the global, country or city board. Scope defaults to
// global; country and city default to the caller's own when no value is given.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	scope := leaderboard.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = leaderboard.ScopeGlobal
	}
	scopeValue := r.URL.Query().Get("value")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	board, err := h.leaderboardService.GetLeaderboard(ctx, clerkID, scope, scopeValue, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetSportLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	sportID, err := uuid.Parse(mux.Vars(r)["sportId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid sport id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	board, err := h.leaderboardService.GetSportLeaderboard(ctx, clerkID, sportID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
