// Package store holds the application state and every action that mutates it.
package store

import (
	"sync"
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

// Listener receives a snapshot of the state after each action.
// Listeners run while the store is locked and must not call back into it.
type Listener func(model.State)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entity ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSlugGenerator overrides share slug generation.
func WithSlugGenerator(newSlug func() string) Option {
	return func(s *Store) { s.newSlug = newSlug }
}

type subscription struct {
	id int
	fn Listener
}

// Store is a mutex-guarded container for model.State.
type Store struct {
	mu        sync.Mutex
	state     model.State
	listeners []subscription
	nextSubID int

	now     func() time.Time
	newID   func() string
	newSlug func() string
}

// New creates a store holding initial.
func New(initial model.State, opts ...Option) *Store {
	s := &Store{
		state:   initial.Normalized().Clone(),
		now:     model.Now,
		newID:   model.NewID,
		newSlug: model.NewShareSlug,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// notifyLocked hands each listener its own copy of the state. Caller holds mu.
func (s *Store) notifyLocked() {
	for _, sub := range s.listeners {
		sub.fn(s.state.Clone())
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Repo returns a copy of the repository with id, or nil.
func (s *Store) Repo(id string) *model.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.repoIndex(id); i >= 0 {
		r := s.state.Repos[i]
		return &r
	}
	return nil
}

// Commit returns a copy of the commit with id, or nil.
func (s *Store) Commit(id string) *model.Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.commitIndex(id); i >= 0 {
		c := s.state.Commits[i].Clone()
		return &c
	}
	return nil
}

// Release returns a copy of the release with id, or nil.
func (s *Store) Release(id string) *model.Release {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.releaseIndex(id); i >= 0 {
		r := s.state.Releases[i].Clone()
		return &r
	}
	return nil
}

// ReleaseBySlug returns a copy of the release with the given share slug, or nil.
func (s *Store) ReleaseBySlug(slug string) *model.Release {
	if slug == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.state.Releases {
		if r.ShareSlug == slug {
			out := r.Clone()
			return &out
		}
	}
	return nil
}

func (s *Store) repoIndex(id string) int {
	for i := range s.state.Repos {
		if s.state.Repos[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) commitIndex(id string) int {
	for i := range s.state.Commits {
		if s.state.Commits[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) releaseIndex(id string) int {
	for i := range s.state.Releases {
		if s.state.Releases[i].ID == id {
			return i
		}
	}
	return -1
}
