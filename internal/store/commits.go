package store

import (
	"strings"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// AddCommitInput contains parameters for AddCommit.
type AddCommitInput struct {
	RepoID   string   `json:"repoId"`
	RepoName string   `json:"repoName,omitempty"` // defaults to the repository's current name
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags"`
	// DateTime is when the event happened. Zero means now.
	DateTime      time.Time `json:"dateTime"`
	IsHighlighted bool      `json:"isHighlighted"`
}

// CommitPatch lists the commit fields to change. Nil fields are left alone.
type CommitPatch struct {
	RepoID        *string    `json:"repoId,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Body          *string    `json:"body,omitempty"`
	Tags          *[]string  `json:"tags,omitempty"`
	DateTime      *time.Time `json:"dateTime,omitempty"`
	IsHighlighted *bool      `json:"isHighlighted,omitempty"`
}

// AddCommit logs a new commit in an existing repository.
func (s *Store) AddCommit(input AddCommitInput) (*model.Commit, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if input.RepoID == "" {
		return nil, errors.NewInvalidRequest("repoId is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ri := s.repoIndex(input.RepoID)
	if ri < 0 {
		return nil, errors.NewNotFound("repository", input.RepoID)
	}

	repoName := strings.TrimSpace(input.RepoName)
	if repoName == "" {
		repoName = s.state.Repos[ri].Name
	}

	now := s.now()
	dateTime := input.DateTime
	if dateTime.IsZero() {
		dateTime = now
	}

	c := model.Commit{
		ID:            s.newID(),
		RepoID:        input.RepoID,
		RepoName:      repoName,
		Title:         title,
		Body:          input.Body,
		Tags:          model.CleanTags(input.Tags),
		DateTime:      dateTime,
		IsHighlighted: input.IsHighlighted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.state.Commits = append(s.state.Commits, c)
	s.notifyLocked()

	out := c.Clone()
	return &out, nil
}

// UpdateCommit applies patch to the commit with id.
// Moving a commit to another repository re-copies that repository's name.
// Returns nil, nil if the commit does not exist.
func (s *Store) UpdateCommit(id string, patch CommitPatch) (*model.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.commitIndex(id)
	if i < 0 {
		return nil, nil
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, errors.NewInvalidRequest("title cannot be empty")
	}
	if patch.DateTime != nil && patch.DateTime.IsZero() {
		return nil, errors.NewInvalidRequest("dateTime cannot be zero")
	}
	c := &s.state.Commits[i]

	if patch.RepoID != nil && *patch.RepoID != c.RepoID {
		ri := s.repoIndex(*patch.RepoID)
		if ri < 0 {
			return nil, errors.NewNotFound("repository", *patch.RepoID)
		}
		c.RepoID = *patch.RepoID
		c.RepoName = s.state.Repos[ri].Name
	}
	if patch.Title != nil {
		c.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Body != nil {
		c.Body = *patch.Body
	}
	if patch.Tags != nil {
		c.Tags = model.CleanTags(*patch.Tags)
	}
	if patch.DateTime != nil {
		c.DateTime = *patch.DateTime
	}
	if patch.IsHighlighted != nil {
		c.IsHighlighted = *patch.IsHighlighted
	}
	c.UpdatedAt = s.now()

	out := c.Clone()
	s.notifyLocked()
	return &out, nil
}

// DeleteCommit removes the commit with id. Releases that list it keep the id.
// Reports whether the commit existed.
func (s *Store) DeleteCommit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.commitIndex(id)
	if i < 0 {
		return false
	}
	s.state.Commits = append(s.state.Commits[:i:i], s.state.Commits[i+1:]...)
	s.notifyLocked()
	return true
}

// ToggleHighlight flips the highlight flag of the commit with id.
// Returns nil if the commit does not exist.
func (s *Store) ToggleHighlight(id string) *model.Commit {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.commitIndex(id)
	if i < 0 {
		return nil
	}
	c := &s.state.Commits[i]
	c.IsHighlighted = !c.IsHighlighted
	c.UpdatedAt = s.now()

	out := c.Clone()
	s.notifyLocked()
	return &out
}
