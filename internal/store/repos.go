package store

import (
	"strings"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// AddRepoInput contains parameters for AddRepo.
type AddRepoInput struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// RepoPatch lists the repository fields to change. Nil fields are left alone.
type RepoPatch struct {
	Name *string `json:"name,omitempty"`
	Tag  *string `json:"tag,omitempty"`
}

// AddRepo creates a repository. Names need not be unique.
func (s *Store) AddRepo(input AddRepoInput) (*model.Repository, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r := model.Repository{
		ID:        s.newID(),
		Name:      name,
		Tag:       strings.TrimSpace(input.Tag),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.Repos = append(s.state.Repos, r)
	s.notifyLocked()

	return &r, nil
}

// UpdateRepo applies patch to the repository with id.
// Returns nil, nil if the repository does not exist, before patch is
// validated. Commits and releases keep the repoName they were saved with.
func (s *Store) UpdateRepo(id string, patch RepoPatch) (*model.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.repoIndex(id)
	if i < 0 {
		return nil, nil
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, errors.NewInvalidRequest("name cannot be empty")
	}

	r := &s.state.Repos[i]
	if patch.Name != nil {
		r.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Tag != nil {
		r.Tag = strings.TrimSpace(*patch.Tag)
	}
	r.UpdatedAt = s.now()
	out := *r
	s.notifyLocked()

	return &out, nil
}

// DeleteRepo removes the repository with id together with its commits and
// releases, and clears the active repository if it pointed here.
// Reports whether the repository existed.
func (s *Store) DeleteRepo(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.repoIndex(id)
	if i < 0 {
		return false
	}

	s.state.Repos = append(s.state.Repos[:i:i], s.state.Repos[i+1:]...)

	commits := s.state.Commits[:0:0]
	for _, c := range s.state.Commits {
		if c.RepoID != id {
			commits = append(commits, c)
		}
	}
	s.state.Commits = commits

	releases := s.state.Releases[:0:0]
	for _, r := range s.state.Releases {
		if r.RepoID != id {
			releases = append(releases, r)
		}
	}
	s.state.Releases = releases

	if s.state.ActiveRepoID != nil && *s.state.ActiveRepoID == id {
		s.state.ActiveRepoID = nil
	}
	s.notifyLocked()

	return true
}
