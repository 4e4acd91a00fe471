package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"nhooyr.io/websocket"

	"github.com/chordplay/chordquiz/internal/game"
	"github.com/chordplay/chordquiz/internal/transport"
)

// handleWS is the session event router: it owns one websocket connection per
// client, decodes inbound event envelopes and dispatches them into the
// coordinator. Each event is handled to completion before the next is read.
func handleWS(logger *slog.Logger, coord *game.Coordinator, hub *transport.Hub) http.HandlerFunc {
	var connected atomic.Int64

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		sess := transport.NewSession(conn, logger)
		logger.Info("session connected", "session_id", sess.ID, "sessions", connected.Add(1))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go sess.WriteLoop(ctx)

		defer func() {
			if code := sess.Room(); code != "" {
				hub.Leave(code, sess)
			}
			logger.Info("session disconnected", "session_id", sess.ID, "sessions", connected.Add(-1))
		}()

		for {
			var env inboundEnvelope
			if err := sess.ReadEvent(ctx, &env); err != nil {
				logger.Debug("websocket read ended", "session_id", sess.ID, "error", err)
				return
			}

			dispatch(ctx, logger, coord, sess, env)
		}
	}
}

func dispatch(ctx context.Context, logger *slog.Logger, coord *game.Coordinator, sess *transport.Session, env inboundEnvelope) {
	switch env.Event {
	case eventSetValues:
		var p setValuesPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("bad payload", "event", env.Event, "error", err)
			return
		}
		sess.SetProfile(p.Username, p.ProfileImageURL)

	case eventCreateRoom:
		var settings game.Settings
		if err := json.Unmarshal(env.Data, &settings); err != nil {
			logger.Warn("bad payload", "event", env.Event, "error", err)
			return
		}
		room, err := coord.CreateRoom(ctx, settings, sess)
		if err != nil {
			logger.Error("creating room", "error", err)
			return
		}
		sess.Send(game.EventRoomCreated, roomCreatedPayload{Code: room.Code})

	case eventInitiateGame:
		code := sess.Room()
		if code == "" {
			logger.Warn("initiate_game from session with no room", "session_id", sess.ID)
			return
		}
		if _, err := coord.StartGame(ctx, code); err != nil {
			logger.Warn("starting game", "code", code, "error", err)
		}

	case eventValidateCode:
		var p validateCodePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("bad payload", "event", env.Event, "error", err)
			return
		}
		// The coordinator confirms successful joins itself; only the
		// rejections are mapped to responses here.
		_, err := coord.JoinRoom(ctx, p.Code, sess)
		switch {
		case err == nil:
		case errors.Is(err, game.ErrGameAlreadyStarted):
			sess.Send(game.EventValidateCodeResponse, game.CodeResponse{Message: game.MsgGameStarted})
		case errors.Is(err, game.ErrInvalidCode):
			sess.Send(game.EventValidateCodeResponse, game.CodeResponse{Message: game.MsgInvalidCode})
		default:
			logger.Error("joining room", "code", p.Code, "error", err)
		}

	case eventUserAnswered:
		var p answerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logger.Warn("bad payload", "event", env.Event, "error", err)
			return
		}
		code := sess.Room()
		if code == "" {
			logger.Warn("user_answered from session with no room", "session_id", sess.ID)
			return
		}
		if _, err := coord.SubmitAnswer(ctx, code, p.CurrentChordIndex, sess); err != nil {
			logger.Debug("submitting answer", "code", code, "error", err)
		}

	case eventCloseRoom:
		code := sess.Room()
		if code == "" {
			logger.Warn("close_room from session with no room", "session_id", sess.ID)
			return
		}
		if err := coord.CloseRoom(ctx, code); err != nil {
			logger.Error("closing room", "code", code, "error", err)
		}

	default:
		logger.Warn("unknown event", "event", env.Event)
	}
}
