package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Outbound event names shared with the transport layer.
const (
	EventRoomCreated          = "room_created"
	EventStartGame            = "start_game"
	EventValidateCodeResponse = "validate_code_response"
	EventUserJoined           = "user_joined"
	EventFirstToSolve         = "first_to_solve"
	EventRoomClosed           = "room_closed"
)

// expiryFactor scales a room's nominal duration into its hard lifetime after
// the game starts.
const expiryFactor = 1.5

// Join-validation replies, verbatim from the client protocol.
const (
	MsgCodeValid   = "true"
	MsgGameStarted = "Game has started"
	MsgInvalidCode = "Invalid code"
)

// CodeResponse is the unicast reply to a validate_code request.
type CodeResponse struct {
	Message string `json:"message"`
}

// Solve announces the first correct answer for the current chord.
type Solve struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Coordinator runs the room lifecycle state machine: Lobby -> InProgress ->
// Closed. Every operation runs to completion under one mutex, so read-modify-
// write sequences on a room never interleave.
type Coordinator struct {
	registry Registry
	roster   Roster
	recorder Recorder // optional
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer

	// minute is scaled down in tests.
	minute time.Duration
}

func NewCoordinator(registry Registry, roster Roster, recorder Recorder, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		roster:   roster,
		recorder: recorder,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		minute:   time.Minute,
	}
}

// CreateRoom allocates a fresh code, stores the new room in its lobby state
// and joins the creator to its group.
func (c *Coordinator) CreateRoom(ctx context.Context, settings Settings, creator Participant) (Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, err := NewCode(ctx, c.registry)
	if err != nil {
		return Room{}, fmt.Errorf("allocating room code: %w", err)
	}

	room := Room{
		Code:              code,
		NumberOfChords:    settings.NumberOfChords,
		NumberOfMinutes:   settings.NumberOfMinutes,
		LevelOfDifficulty: settings.LevelOfDifficulty,
		Chords:            settings.Chords,
		CurrentChordIndex: 1,
		HasStarted:        false,
	}

	if err := c.registry.Create(ctx, room); err != nil {
		return Room{}, fmt.Errorf("storing room %q: %w", code, err)
	}

	c.roster.Join(code, creator)
	c.logger.Info("room created", "code", code, "chords", room.NumberOfChords, "difficulty", room.LevelOfDifficulty)

	return room, nil
}

// JoinRoom admits a participant into a lobby, confirms the code to the
// joiner and then broadcasts the full roster to every member so all clients
// reconcile a consistent player list. Returns ErrInvalidCode for an unknown
// code and ErrGameAlreadyStarted once the game is in progress.
func (c *Coordinator) JoinRoom(ctx context.Context, code string, p Participant) ([]Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HasStarted {
		return nil, ErrGameAlreadyStarted
	}

	c.roster.Join(code, p)

	// Confirm the code before the roster update lands, the order clients
	// have always seen.
	p.Send(EventValidateCodeResponse, CodeResponse{Message: MsgCodeValid})

	members := c.roster.Members(code)
	c.roster.Broadcast(code, EventUserJoined, members)

	c.logger.Info("player joined", "code", code, "username", p.Profile().Username, "members", len(members))

	return members, nil
}

// StartGame moves a lobby into progress, arms the one-shot expiry timer and
// broadcasts the full room snapshot. Starting an absent room returns
// ErrInvalidCode; starting twice returns ErrGameAlreadyStarted and neither
// re-arms the timer nor resets the chord index.
func (c *Coordinator) StartGame(ctx context.Context, code string) (Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.Get(ctx, code)
	if err != nil {
		return Room{}, err
	}
	if room.HasStarted {
		return Room{}, ErrGameAlreadyStarted
	}

	room.HasStarted = true
	if err := c.registry.Update(ctx, room); err != nil {
		return Room{}, fmt.Errorf("updating room %q: %w", code, err)
	}

	lifetime := time.Duration(expiryFactor * float64(room.NumberOfMinutes) * float64(c.minute))
	c.timers[code] = time.AfterFunc(lifetime, func() {
		c.expire(code)
	})

	c.roster.Broadcast(code, EventStartGame, room)
	c.logger.Info("game started", "code", code, "expires_in", lifetime)

	return room, nil
}

// SubmitAnswer applies first-correct-wins scoring: only a submission matching
// the room's current chord index advances the game and awards a point. Stale
// or future indices are dropped without error, as are submissions to a room
// still in its lobby. Reports whether the submission was accepted.
func (c *Coordinator) SubmitAnswer(ctx context.Context, code string, claimedIndex int, p Participant) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.Get(ctx, code)
	if err != nil {
		return false, err
	}
	if !room.HasStarted || claimedIndex != room.CurrentChordIndex {
		return false, nil
	}

	room.CurrentChordIndex++
	if err := c.registry.Update(ctx, room); err != nil {
		return false, fmt.Errorf("updating room %q: %w", code, err)
	}

	score := p.AwardPoint()
	c.roster.Broadcast(code, EventFirstToSolve, Solve{
		Username: p.Profile().Username,
		Score:    score,
	})

	c.logger.Debug("chord solved", "code", code, "chord", claimedIndex, "username", p.Profile().Username, "score", score)

	return true, nil
}

// CloseRoom tears a room down: disarms its expiry timer, archives the final
// scores, disconnects every member and removes the room. Closing an absent
// room is a no-op.
func (c *Coordinator) CloseRoom(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.registry.Get(ctx, code)
	if err != nil {
		return nil
	}

	if t, ok := c.timers[code]; ok {
		t.Stop()
		delete(c.timers, code)
	}

	c.roster.Broadcast(code, EventRoomClosed, nil)
	c.record(ctx, room, "closed")
	c.roster.Disconnect(code)

	if err := c.registry.Remove(ctx, code); err != nil {
		return fmt.Errorf("removing room %q: %w", code, err)
	}

	c.logger.Info("room closed", "code", code)

	return nil
}

// expire fires when a started room outlives 1.5x its nominal duration. The
// room may already have been closed manually, in which case this is a no-op.
func (c *Coordinator) expire(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx := context.Background()

	room, err := c.registry.Get(ctx, code)
	if err != nil {
		delete(c.timers, code)
		return
	}

	delete(c.timers, code)
	c.record(ctx, room, "expired")
	c.roster.Evict(code)

	if err := c.registry.Remove(ctx, code); err != nil {
		c.logger.Error("removing expired room", "code", code, "error", err)
		return
	}

	c.logger.Info("room expired", "code", code)
}

func (c *Coordinator) record(ctx context.Context, room Room, reason string) {
	if c.recorder == nil {
		return
	}

	result := MatchResult{
		Code:              room.Code,
		NumberOfChords:    room.NumberOfChords,
		NumberOfMinutes:   room.NumberOfMinutes,
		LevelOfDifficulty: room.LevelOfDifficulty,
		Started:           room.HasStarted,
		Reason:            reason,
		Scores:            c.roster.Members(room.Code),
		EndedAt:           time.Now().UTC(),
	}

	if err := c.recorder.Record(ctx, result); err != nil {
		c.logger.Error("recording match result", "code", room.Code, "error", err)
	}
}
