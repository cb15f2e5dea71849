package connections

import (
	"context"
	"sync"
	"sync/atomic"
)

// Manager tracks in-flight chat completion streams so they can be cancelled on shutdown
type Manager struct {
	streams sync.Map
	nextID  atomic.Uint64
}

func NewManager() *Manager {
	return &Manager{}
}

// Track registers a stream. The returned context is cancelled by CancelAll or
// when parent ends; the returned func must be called once the stream is done.
func (m *Manager) Track(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	id := m.nextID.Add(1)
	m.streams.Store(id, cancel)

	return ctx, func() {
		m.streams.Delete(id)
		cancel()
	}
}

// Count returns the current number of tracked streams
func (m *Manager) Count() int {
	count := 0
	m.streams.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// CancelAll cancels every tracked stream and returns how many were cancelled
func (m *Manager) CancelAll() int {
	cancelled := 0
	m.streams.Range(func(key, value any) bool {
		value.(context.CancelFunc)()
		m.streams.Delete(key)
		cancelled++
		return true
	})
	return cancelled
}
