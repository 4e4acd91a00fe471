package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/chordplay/chordquiz/internal/game"
	"github.com/chordplay/chordquiz/internal/history"
	"github.com/chordplay/chordquiz/internal/transport"
)

// Deps are the collaborators the HTTP surface is wired to. Redis is nil when
// the in-memory room registry is in use.
type Deps struct {
	Coordinator *game.Coordinator
	Hub         *transport.Hub
	History     *history.Store
	DB          *sql.DB
	Redis       *redis.Client
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("ChordQuiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB, deps.Redis))
	r.Get("/api/matches", handleRecentMatches(deps.History))

	// The game itself speaks the websocket event protocol.
	r.Get("/ws", handleWS(logger, deps.Coordinator, deps.Hub))
}
