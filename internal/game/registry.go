package game

import (
	"context"
	"sync"
)

// MemoryRegistry is the default single-process Registry: a mutex-guarded map.
// Swap in a distributed implementation to scale beyond one process.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]Room
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms: make(map[string]Room),
	}
}

func (r *MemoryRegistry) Create(_ context.Context, room Room) error {
	r.mu.Lock()
	r.rooms[room.Code] = room
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, code string) (Room, error) {
	r.mu.RLock()
	room, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return Room{}, ErrInvalidCode
	}
	return room, nil
}

func (r *MemoryRegistry) Update(_ context.Context, room Room) error {
	r.mu.Lock()
	r.rooms[room.Code] = room
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Remove(_ context.Context, code string) error {
	r.mu.Lock()
	delete(r.rooms, code)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Exists(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	_, ok := r.rooms[code]
	r.mu.RUnlock()
	return ok, nil
}
