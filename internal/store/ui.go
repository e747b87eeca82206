package store

import (
	"fmt"

	"github.com/buriosa/buriosa/internal/demo"
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// SetActiveRepo selects the repository the feed and repo heatmap show.
// A nil id clears the selection.
func (s *Store) SetActiveRepo(id *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == nil {
		s.state.ActiveRepoID = nil
	} else {
		if s.repoIndex(*id) < 0 {
			return errors.NewNotFound("repository", *id)
		}
		v := *id
		s.state.ActiveRepoID = &v
	}
	s.notifyLocked()
	return nil
}

// SetHeatmapMode switches between the all-repositories and active-repository heatmap.
func (s *Store) SetHeatmapMode(mode model.HeatmapMode) error {
	if !mode.Valid() {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid heatmap mode %q (valid: all, repo)", mode))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.HeatmapMode = mode
	s.notifyLocked()
	return nil
}

// CompleteOnboarding marks the first-run flow as done.
func (s *Store) CompleteOnboarding() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.HasCompletedOnboarding = true
	s.notifyLocked()
}

// LoadDemoData replaces repositories and commits with the demo dataset and
// selects the first demo repository. Releases are kept as they are.
func (s *Store) LoadDemoData() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	repos, commits := demo.Generate(s.now(), s.newID)
	s.state.Repos = repos
	s.state.Commits = commits
	s.state.ActiveRepoID = nil
	if len(repos) > 0 {
		id := repos[0].ID
		s.state.ActiveRepoID = &id
	}
	s.notifyLocked()
	return s.state.Clone()
}

// Reset returns the store to the empty first-run state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = model.InitialState()
	s.notifyLocked()
}
