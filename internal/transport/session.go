// Package transport binds the game to its websocket clients: one Session per
// connection, grouped into rooms by the Hub.
package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/chordplay/chordquiz/internal/game"
)

// Envelope is the wire frame: a named event with a JSON payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	sendQueueSize    = 16
	writeTimeout     = 10 * time.Second
	closeDrainWindow = 100 * time.Millisecond
)

// Session is one connected client. It carries the identity and score attached
// via set_values, plus the code of the room it currently belongs to. Outbound
// events are queued and written by a single writer goroutine, since the
// websocket allows only one concurrent writer.
type Session struct {
	ID     uuid.UUID
	conn   *websocket.Conn
	logger *slog.Logger

	queue chan Envelope

	mu       sync.Mutex
	username string
	imageURL string
	score    int
	room     string
}

func NewSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:     id,
		conn:   conn,
		logger: logger.With("session_id", id.String()),
		queue:  make(chan Envelope, sendQueueSize),
	}
}

// SetProfile attaches the client's display identity. Last write wins until
// the session joins a room.
func (s *Session) SetProfile(username, imageURL string) {
	s.mu.Lock()
	s.username = username
	s.imageURL = imageURL
	s.mu.Unlock()
}

func (s *Session) Profile() game.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.Profile{
		Username:        s.username,
		ProfileImageURL: s.imageURL,
		Score:           s.score,
	}
}

func (s *Session) AwardPoint() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score++
	return s.score
}

func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) SetRoom(code string) {
	s.mu.Lock()
	s.room = code
	s.mu.Unlock()
}

// Send queues an event for delivery. A session that cannot keep up has its
// connection closed rather than blocking the sender.
func (s *Session) Send(event string, data any) {
	select {
	case s.queue <- Envelope{Event: event, Data: data}:
	default:
		s.logger.Warn("send queue full, dropping session", "event", event)
		s.Close("too slow")
	}
}

// Close ends the connection. Queued events (like the room_closed
// notification) get a short window to flush first; a stuck writer forfeits it.
func (s *Session) Close(reason string) {
	deadline := time.Now().Add(closeDrainWindow)
	for len(s.queue) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	_ = s.conn.Close(websocket.StatusNormalClosure, reason)
}

// ReadEvent blocks until the next inbound frame.
func (s *Session) ReadEvent(ctx context.Context, v any) error {
	return wsjson.Read(ctx, s.conn, v)
}

// WriteLoop drains the send queue onto the connection. It returns when the
// context ends or a write fails; the read loop notices the dead connection
// and tears the session down.
func (s *Session) WriteLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.queue:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, s.conn, env)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
