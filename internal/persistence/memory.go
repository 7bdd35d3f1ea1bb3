// Package persistence provides snapshot backends for the scheduling engine.
// The engine's in-memory store is authoritative; backends exist so state
// survives restarts. The whole snapshot is written on every mutation, which
// is cheap at single-studio scale and keeps recovery a one-key read.
package persistence

import (
	"context"
	"sync"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

// MemoryBackend retains the last saved snapshot in process memory. Used in
// tests and as the default when no external backend is configured.
type MemoryBackend struct {
	mu    sync.Mutex
	snap  appointments.Snapshot
	saved bool
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Save retains the snapshot.
func (b *MemoryBackend) Save(ctx context.Context, snap appointments.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = snap
	b.saved = true
	return nil
}

// Load returns the last saved snapshot, or an empty one if never saved.
func (b *MemoryBackend) Load(ctx context.Context) (appointments.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.saved {
		return emptySnapshot(), nil
	}
	return b.snap, nil
}
