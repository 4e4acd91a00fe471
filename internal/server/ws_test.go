package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/chordplay/chordquiz/internal/game"
	"github.com/chordplay/chordquiz/internal/transport"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newGameServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := transport.NewHub()
	coord := game.NewCoordinator(game.NewMemoryRegistry(), hub, nil, logger)

	r := chi.NewRouter()
	r.Get("/ws", handleWS(logger, coord, hub))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, map[string]any{"event": event, "data": data}); err != nil {
		t.Fatalf("sending %s: %v", event, err)
	}
}

func recv(t *testing.T, ctx context.Context, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	var env wsEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return env
}

func recvEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) wsEnvelope {
	t.Helper()

	env := recv(t, ctx, conn)
	if env.Event != want {
		t.Fatalf("expected event %q, got %q (%s)", want, env.Event, env.Data)
	}
	return env
}

// expectClosed drains remaining events until the server closes the connection.
func expectClosed(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()

	for {
		var env wsEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return
		}
	}
}

func TestGameSessionLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := newGameServer(t)

	host := dialWS(t, ctx, srv)
	send(t, ctx, host, "set_values", map[string]any{"username": "host", "profileImageUrl": "https://img/host.png"})
	send(t, ctx, host, "create_room", map[string]any{
		"numberOfChords":    3,
		"numberOfMinutes":   5,
		"levelOfDifficulty": "easy",
		"chords":            []string{"C", "G", "Am"},
	})

	var created roomCreatedPayload
	env := recvEvent(t, ctx, host, game.EventRoomCreated)
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding room_created: %v", err)
	}
	if len(created.Code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", created.Code)
	}

	// Guest joins with the shared code.
	guest := dialWS(t, ctx, srv)
	send(t, ctx, guest, "set_values", map[string]any{"username": "guest"})
	send(t, ctx, guest, "validate_code", map[string]any{"code": created.Code})

	// The joiner hears the confirmation before the roster update.
	var resp game.CodeResponse
	env = recvEvent(t, ctx, guest, game.EventValidateCodeResponse)
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != game.MsgCodeValid {
		t.Fatalf("expected message true, got %q", resp.Message)
	}

	env = recvEvent(t, ctx, guest, game.EventUserJoined)
	var roster []game.Profile
	if err := json.Unmarshal(env.Data, &roster); err != nil {
		t.Fatalf("decoding roster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 members, got %d", len(roster))
	}

	// The creator sees the updated roster too.
	recvEvent(t, ctx, host, game.EventUserJoined)

	// Wrong code from a third client.
	stranger := dialWS(t, ctx, srv)
	wrong := "0000"
	if wrong == created.Code {
		wrong = "0001"
	}
	send(t, ctx, stranger, "validate_code", map[string]any{"code": wrong})
	env = recvEvent(t, ctx, stranger, game.EventValidateCodeResponse)
	json.Unmarshal(env.Data, &resp)
	if resp.Message != game.MsgInvalidCode {
		t.Fatalf("expected invalid-code response, got %q", resp.Message)
	}

	// Start: both members get the room snapshot.
	send(t, ctx, host, "initiate_game", nil)

	var snapshot game.Room
	env = recvEvent(t, ctx, host, game.EventStartGame)
	if err := json.Unmarshal(env.Data, &snapshot); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if !snapshot.HasStarted || snapshot.CurrentChordIndex != 1 || len(snapshot.Chords) != 3 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	recvEvent(t, ctx, guest, game.EventStartGame)

	// Joining a running game is refused.
	send(t, ctx, stranger, "validate_code", map[string]any{"code": created.Code})
	env = recvEvent(t, ctx, stranger, game.EventValidateCodeResponse)
	json.Unmarshal(env.Data, &resp)
	if resp.Message != game.MsgGameStarted {
		t.Fatalf("expected game-started response, got %q", resp.Message)
	}

	// Guest solves chord 1 first.
	send(t, ctx, guest, "user_answered", map[string]any{"currentChordIndex": 1})

	var solve game.Solve
	env = recvEvent(t, ctx, host, game.EventFirstToSolve)
	if err := json.Unmarshal(env.Data, &solve); err != nil {
		t.Fatalf("decoding solve: %v", err)
	}
	if solve.Username != "guest" || solve.Score != 1 {
		t.Fatalf("unexpected solve: %+v", solve)
	}
	recvEvent(t, ctx, guest, game.EventFirstToSolve)

	// Host submits a stale answer for chord 1, then solves chord 2. Only the
	// second yields an event, so the next frame must announce chord 2's win.
	send(t, ctx, host, "user_answered", map[string]any{"currentChordIndex": 1})
	send(t, ctx, host, "user_answered", map[string]any{"currentChordIndex": 2})

	env = recvEvent(t, ctx, host, game.EventFirstToSolve)
	if err := json.Unmarshal(env.Data, &solve); err != nil {
		t.Fatalf("decoding solve: %v", err)
	}
	if solve.Username != "host" || solve.Score != 1 {
		t.Fatalf("stale answer must not score; got %+v", solve)
	}
	recvEvent(t, ctx, guest, game.EventFirstToSolve)

	// Closing the room notifies members before disconnecting them, so the
	// eviction is distinguishable from a network drop.
	send(t, ctx, host, "close_room", nil)
	recvEvent(t, ctx, host, game.EventRoomClosed)
	recvEvent(t, ctx, guest, game.EventRoomClosed)
	expectClosed(t, ctx, host)
	expectClosed(t, ctx, guest)
}

func TestInitiateGameWithoutRoom(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := newGameServer(t)
	conn := dialWS(t, ctx, srv)

	// A session outside any room cannot start or close a game; both are
	// warning no-ops and the connection stays usable.
	send(t, ctx, conn, "initiate_game", nil)
	send(t, ctx, conn, "close_room", nil)

	send(t, ctx, conn, "validate_code", map[string]any{"code": "0000"})
	env := recvEvent(t, ctx, conn, game.EventValidateCodeResponse)

	var resp game.CodeResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message != game.MsgInvalidCode {
		t.Fatalf("expected invalid-code response, got %q", resp.Message)
	}
}
