// Package game holds the room lifecycle and game-progress state machine.
// It defines the ports (Registry, Roster, Recorder) the coordinator talks
// through; everything here is pure Go.
package game

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCode is returned when a room code does not resolve to a room.
	ErrInvalidCode = errors.New("invalid room code")

	// ErrGameAlreadyStarted is returned when an operation requires a room
	// still in its lobby but the game has begun.
	ErrGameAlreadyStarted = errors.New("game has started")
)

// Settings are the parameters fixed at room creation.
type Settings struct {
	NumberOfChords    int      `json:"numberOfChords"`
	NumberOfMinutes   int      `json:"numberOfMinutes"`
	LevelOfDifficulty string   `json:"levelOfDifficulty"`
	Chords            []string `json:"chords"`
}

// Room is the state of one active game session. CurrentChordIndex is 1-based:
// the first chord awaiting an answer is chord 1.
type Room struct {
	Code              string   `json:"code"`
	NumberOfChords    int      `json:"numberOfChords"`
	NumberOfMinutes   int      `json:"numberOfMinutes"`
	LevelOfDifficulty string   `json:"levelOfDifficulty"`
	Chords            []string `json:"chords"`
	CurrentChordIndex int      `json:"currentChord"`
	HasStarted        bool     `json:"hasStarted"`
}

// Profile is the public view of a connected player.
type Profile struct {
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
	Score           int    `json:"score"`
}

// Participant is one connected player. Identity and score are owned by the
// transport session; the coordinator only reads the profile and awards points.
type Participant interface {
	Profile() Profile

	// AwardPoint increments the participant's score and returns the new value.
	AwardPoint() int

	// Room returns the code of the room this participant currently belongs
	// to, or "" when not in a room. Set by the roster on join, cleared on
	// leave and evict.
	Room() string
	SetRoom(code string)

	// Send queues an event for delivery to this participant only.
	Send(event string, data any)

	// Close tears down the participant's connection.
	Close(reason string)
}

// Roster is the transport's grouping primitive: membership, broadcast and
// eviction for one room's participants.
type Roster interface {
	Join(code string, p Participant)
	Leave(code string, p Participant)
	Members(code string) []Profile
	Broadcast(code string, event string, data any)

	// Evict removes every participant from the room's group without closing
	// their connections.
	Evict(code string)

	// Disconnect evicts every participant and closes their connections.
	Disconnect(code string)
}

// Registry stores rooms by code. Remove is idempotent; Get returns
// ErrInvalidCode for an unknown code.
type Registry interface {
	Create(ctx context.Context, room Room) error
	Get(ctx context.Context, code string) (Room, error)
	Update(ctx context.Context, room Room) error
	Remove(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)
}

// MatchResult is the record written when a room closes or expires.
type MatchResult struct {
	Code              string
	NumberOfChords    int
	NumberOfMinutes   int
	LevelOfDifficulty string
	Started           bool
	Reason            string
	Scores            []Profile
	EndedAt           time.Time
}

// Recorder archives finished matches.
type Recorder interface {
	Record(ctx context.Context, m MatchResult) error
}
