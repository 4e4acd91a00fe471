// Package redisreg is a redis-backed room registry, the seam for moving room
// state out of process memory. Semantics match game.MemoryRegistry; each room
// is stored as one JSON value under its code.
package redisreg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chordplay/chordquiz/internal/game"
)

const keyPrefix = "room:"

type Registry struct {
	client *redis.Client
}

var _ game.Registry = (*Registry)(nil)

func New(client *redis.Client) *Registry {
	return &Registry{client: client}
}

func (r *Registry) Create(ctx context.Context, room game.Room) error {
	return r.set(ctx, room)
}

func (r *Registry) Update(ctx context.Context, room game.Room) error {
	return r.set(ctx, room)
}

func (r *Registry) set(ctx context.Context, room game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshalling room %q: %w", room.Code, err)
	}
	if err := r.client.Set(ctx, keyPrefix+room.Code, data, 0).Err(); err != nil {
		return fmt.Errorf("storing room %q: %w", room.Code, err)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, code string) (game.Room, error) {
	data, err := r.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.Room{}, game.ErrInvalidCode
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("fetching room %q: %w", code, err)
	}

	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return game.Room{}, fmt.Errorf("unmarshalling room %q: %w", code, err)
	}
	return room, nil
}

func (r *Registry) Remove(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, keyPrefix+code).Err(); err != nil {
		return fmt.Errorf("removing room %q: %w", code, err)
	}
	return nil
}

func (r *Registry) Exists(ctx context.Context, code string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+code).Result()
	if err != nil {
		return false, fmt.Errorf("checking room %q: %w", code, err)
	}
	return n > 0, nil
}
