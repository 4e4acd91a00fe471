package transport

import (
	"sync"

	"github.com/chordplay/chordquiz/internal/game"
)

// Hub is the grouping primitive: room code to member set. It implements
// game.Roster and keeps each participant's current-room attribute in sync
// with its membership.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[game.Participant]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[game.Participant]struct{}),
	}
}

func (h *Hub) Join(code string, p game.Participant) {
	h.mu.Lock()
	// A participant belongs to at most one room; joining a new one leaves
	// the old group so no stale membership keeps receiving its broadcasts.
	if prev := p.Room(); prev != "" && prev != code {
		h.removeLocked(prev, p)
	}
	if h.groups[code] == nil {
		h.groups[code] = make(map[game.Participant]struct{})
	}
	h.groups[code][p] = struct{}{}
	h.mu.Unlock()

	p.SetRoom(code)
}

func (h *Hub) Leave(code string, p game.Participant) {
	h.mu.Lock()
	h.removeLocked(code, p)
	h.mu.Unlock()

	p.SetRoom("")
}

func (h *Hub) removeLocked(code string, p game.Participant) {
	if members, ok := h.groups[code]; ok {
		delete(members, p)
		if len(members) == 0 {
			delete(h.groups, code)
		}
	}
}

func (h *Hub) Members(code string) []game.Profile {
	h.mu.RLock()
	defer h.mu.RUnlock()

	profiles := make([]game.Profile, 0, len(h.groups[code]))
	for p := range h.groups[code] {
		profiles = append(profiles, p.Profile())
	}
	return profiles
}

func (h *Hub) Broadcast(code string, event string, data any) {
	for _, p := range h.snapshot(code) {
		p.Send(event, data)
	}
}

func (h *Hub) Evict(code string) {
	for _, p := range h.drop(code) {
		p.SetRoom("")
	}
}

func (h *Hub) Disconnect(code string) {
	for _, p := range h.drop(code) {
		p.SetRoom("")
		p.Close("room closed")
	}
}

func (h *Hub) snapshot(code string) []game.Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]game.Participant, 0, len(h.groups[code]))
	for p := range h.groups[code] {
		members = append(members, p)
	}
	return members
}

func (h *Hub) drop(code string) []game.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := make([]game.Participant, 0, len(h.groups[code]))
	for p := range h.groups[code] {
		members = append(members, p)
	}
	delete(h.groups, code)
	return members
}
