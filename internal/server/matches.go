package server

import (
	"net/http"
	"strconv"

	"github.com/chordplay/chordquiz/internal/history"
)

// MatchSummary is one archived match in the /api/matches response.
type MatchSummary struct {
	Code              string `json:"code"`
	LevelOfDifficulty string `json:"levelOfDifficulty"`
	Reason            string `json:"reason"`
	Players           int    `json:"players"`
	EndedAt           string `json:"endedAt"`
}

func handleRecentMatches(store *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		recent, err := store.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]MatchSummary, 0, len(recent))
		for _, m := range recent {
			out = append(out, MatchSummary{
				Code:              m.Code,
				LevelOfDifficulty: m.LevelOfDifficulty,
				Reason:            m.Reason,
				Players:           m.Players,
				EndedAt:           m.EndedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}
