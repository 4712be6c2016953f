package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"fitRivalAPI/services"
)

type RankingHandler struct {
	rankingService *services.RankingService
}

func NewRankingHandler(rankingService *services.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
	}
}

// RecalculateRankings kicks off a full recalculation pass and returns
// immediately; a pass over the whole user base takes far longer than any
// sane request timeout. The route sits behind the shared-secret middleware,
// not the user-facing auth.
func (h *RankingHandler) RecalculateRankings(w http.ResponseWriter, r *http.Request) {
	log.Println("Ranking recalculation triggered via HTTP")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		stats, err := h.rankingService.RecalculateAll(ctx)
		if err != nil {
			log.Printf("Triggered ranking recalculation failed: %v", err)
			return
		}
		log.Printf("Triggered ranking recalculation finished: %d users in %s", stats.UsersScored, stats.Duration)
	}()

	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Ranking recalculation started",
	})
}

// RecalculationStatus reports the outcome of the most recent pass, so a
// failed asynchronous run is visible over HTTP and not only in the logs.
func (h *RankingHandler) RecalculationStatus(w http.ResponseWriter, r *http.Request) {
	run := h.rankingService.LastRun()
	if run == nil {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "No recalculation pass has finished since startup",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  run.Error == "",
		"last_run": run,
	})
}
