package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// indexKey holds room ids in creation order.
	indexKey = "rooms:index"

	opTimeout = 2 * time.Second
)

// roomKey returns the Redis key for a room's metadata.
func roomKey(id string) string {
	return "room:" + id
}

// RedisDirectory stores rooms in Redis so the directory survives server
// restarts. Messages are never stored; only room metadata is.
type RedisDirectory struct {
	client redis.Cmdable
}

// NewRedisDirectory creates a directory backed by the given Redis client.
func NewRedisDirectory(client redis.Cmdable) *RedisDirectory {
	return &RedisDirectory{client: client}
}

// Create stores a new room in Redis and appends its id to the index.
func (d *RedisDirectory) Create(name, creator string) (*Room, error) {
	r, err := newRoom(name, creator)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("redis: marshal room: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := d.client.Pipeline()
	pipe.Set(ctx, roomKey(r.ID), data, 0)
	pipe.RPush(ctx, indexKey, r.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis: create room: %w", err)
	}
	return r, nil
}

// List returns all rooms in creation order.
func (d *RedisDirectory) List() []*Room {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ids, err := d.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		log.Printf("redis: failed to read room index: %v", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(id)
	}
	vals, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("redis: failed to read rooms: %v", err)
		return nil
	}

	rooms := make([]*Room, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var r Room
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			continue
		}
		rooms = append(rooms, &r)
	}
	return rooms
}

// Exists reports whether a room with the given id exists.
func (d *RedisDirectory) Exists(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := d.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		log.Printf("redis: failed to check room %s: %v", id, err)
		return false
	}
	return n > 0
}
