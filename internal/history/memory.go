package history

import (
	"context"
	"sync"
)

// DefaultMaxEntries bounds the in-memory recorder when no size is given.
const DefaultMaxEntries = 500

// Memory is a bounded in-process Recorder. Once full, the oldest entry is
// overwritten.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewMemory creates a recorder holding at most size entries.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMaxEntries
	}
	return &Memory{entries: make([]Entry, size)}
}

// Record implements Recorder.
func (m *Memory) Record(ctx context.Context, e Entry) error {
	e = stamp(ctx, e)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent implements Recorder. Entries come back newest first.
func (m *Memory) Recent(_ context.Context, session string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Entry, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		e := m.entries[(m.next-i+len(m.entries))%len(m.entries)]
		if session != "" && e.Session != session {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
