// Package session keeps per-browser working state between requests.
//
// A Session holds the named result tables a user has produced so far (the
// combined table from an append, the last summary, the reconcile partitions)
// so later steps and downloads can reuse them. Sessions expire after a period
// of inactivity and are removed by the sweeper.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileops/internal/table"
)

// Result names stored on a session.
const (
	ResultCombined  = "combined"
	ResultSummary   = "summary"
	ResultMatched   = "matched"
	ResultLeftOnly  = "left_only"
	ResultRightOnly = "right_only"
)

// downloadNames maps result names to their download file base names.
var downloadNames = map[string]string{
	ResultCombined:  "combined_data",
	ResultSummary:   "summary_results",
	ResultMatched:   "exact_matches",
	ResultLeftOnly:  "primary_only",
	ResultRightOnly: "secondary_only",
}

// DownloadName returns the file base name for a result, and false for names
// that are not results.
func DownloadName(result string) (string, bool) {
	n, ok := downloadNames[result]
	return n, ok
}

var (
	ErrNotFound      = errors.New("session not found")
	ErrNoResult      = errors.New("result not found")
	ErrUnknownResult = errors.New("unknown result name")
)

// Session is one browser's working state. Safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	lastSeen time.Time
	results  map[string]*table.Table
}

// Put stores t under name, replacing any previous table.
func (s *Session) Put(name string, t *table.Table) error {
	if _, ok := downloadNames[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResult, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = t
	return nil
}

// Result returns the table stored under name.
func (s *Session) Result(name string) (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.results[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoResult, name)
	}
	return t, nil
}

// Results lists the names of stored results, sorted.
func (s *Session) Results() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.results))
	for n := range s.results {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LastSeen returns when the session was last touched.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Store is an in-memory, mutex-guarded session registry.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	onChange func(active int)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver registers a callback that receives the session count after
// every change.
func WithObserver(fn func(active int)) Option {
	return func(s *Store) { s.onChange = fn }
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session.
func (s *Store) Create() *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastSeen:  now,
		results:   make(map[string]*table.Table),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.changed(n)
	return sess
}

// Get returns a live session. Expired sessions are reported as not found.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(sess, s.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Touch marks a session as used now, extending its lifetime.
func (s *Store) Touch(id string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sess.touch(s.now())
	return sess, nil
}

// GetOrCreate touches the session with id, or creates a new one when it is
// missing or expired.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, err := s.Touch(id); err == nil {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	s.changed(n)
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.changed(n)
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	slog.Info("session sweeper started",
		"ttl", s.ttl.String(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			removed := s.Sweep(s.now())
			if removed > 0 {
				slog.Info("expired sessions removed",
					"removed", removed,
					"remaining", s.Len(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeen()) > s.ttl
}

func (s *Store) changed(active int) {
	if s.onChange != nil {
		s.onChange(active)
	}
}
