package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

// snapshotKey is the single Redis key holding the engine state.
const snapshotKey = "scheduler:snapshot"

// RedisBackend stores the snapshot as one JSON value in Redis.
type RedisBackend struct {
	redis *redis.Client
}

// NewRedisBackend creates a Redis snapshot backend.
func NewRedisBackend(redisClient *redis.Client) *RedisBackend {
	return &RedisBackend{redis: redisClient}
}

// Save serializes and writes the snapshot.
func (b *RedisBackend) Save(ctx context.Context, snap appointments.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}
	if err := b.redis.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("persistence: set snapshot: %w", err)
	}
	return nil
}

// Load reads and deserializes the snapshot, returning an empty snapshot
// when the key does not exist.
func (b *RedisBackend) Load(ctx context.Context) (appointments.Snapshot, error) {
	data, err := b.redis.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return emptySnapshot(), nil
	}
	if err != nil {
		return appointments.Snapshot{}, fmt.Errorf("persistence: get snapshot: %w", err)
	}

	var snap appointments.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return appointments.Snapshot{}, fmt.Errorf("persistence: unmarshal snapshot: %w", err)
	}
	normalize(&snap)
	return snap, nil
}

func emptySnapshot() appointments.Snapshot {
	return appointments.Snapshot{
		Appointments: map[string]*appointments.Appointment{},
		Recurring:    map[string]*appointments.RecurringSchedule{},
	}
}

func normalize(snap *appointments.Snapshot) {
	if snap.Appointments == nil {
		snap.Appointments = map[string]*appointments.Appointment{}
	}
	if snap.Recurring == nil {
		snap.Recurring = map[string]*appointments.RecurringSchedule{}
	}
}
