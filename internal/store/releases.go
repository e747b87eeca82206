package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// AddReleaseInput contains parameters for AddRelease.
type AddReleaseInput struct {
	RepoID      string              `json:"repoId"`
	RepoName    string              `json:"repoName,omitempty"` // defaults to the repository's current name
	Version     string              `json:"version"`
	Title       string              `json:"title"`
	PeriodStart string              `json:"periodStart"`
	PeriodEnd   string              `json:"periodEnd"`
	CommitIDs   []string            `json:"commitIds"`
	Summary     string              `json:"summary"`
	Changelog   string              `json:"changelog"`
	Attachments []model.Attachment  `json:"attachments"`
	Status      model.ReleaseStatus `json:"status,omitempty"` // draft if empty
	IsPublic    bool                `json:"isPublic"`
}

// ReleasePatch lists the release fields to change. Nil fields are left alone.
// Status changes go through PublishRelease and UnpublishRelease.
type ReleasePatch struct {
	Version     *string             `json:"version,omitempty"`
	Title       *string             `json:"title,omitempty"`
	PeriodStart *string             `json:"periodStart,omitempty"`
	PeriodEnd   *string             `json:"periodEnd,omitempty"`
	CommitIDs   *[]string           `json:"commitIds,omitempty"`
	Summary     *string             `json:"summary,omitempty"`
	Changelog   *string             `json:"changelog,omitempty"`
	Attachments *[]model.Attachment `json:"attachments,omitempty"`
	IsPublic    *bool               `json:"isPublic,omitempty"`
}

// AddRelease creates a release. A release created as published goes through
// the same path as PublishRelease, so it becomes the latest of its repository.
func (s *Store) AddRelease(input AddReleaseInput) (*model.Release, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if input.RepoID == "" {
		return nil, errors.NewInvalidRequest("repoId is required")
	}
	status := input.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid status %q (valid: draft, published)", input.Status))
	}
	if err := validatePeriod(input.PeriodStart, input.PeriodEnd); err != nil {
		return nil, err
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
	attachments, err := s.prepareAttachments(input.Attachments, now)
	if err != nil {
		return nil, err
	}

	r := model.Release{
		ID:          s.newID(),
		RepoID:      input.RepoID,
		RepoName:    repoName,
		Version:     strings.TrimSpace(input.Version),
		Title:       title,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		CommitIDs:   model.CleanTags(input.CommitIDs),
		Summary:     input.Summary,
		Changelog:   input.Changelog,
		Attachments: attachments,
		Status:      model.StatusDraft,
		IsPublic:    input.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.state.Releases = append(s.state.Releases, r)
	i := len(s.state.Releases) - 1
	if status == model.StatusPublished {
		s.publishLocked(i, now)
	}

	out := s.state.Releases[i].Clone()
	s.notifyLocked()
	return &out, nil
}

// UpdateRelease applies patch to the release with id.
// Returns nil, nil if the release does not exist.
func (s *Store) UpdateRelease(id string, patch ReleasePatch) (*model.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.releaseIndex(id)
	if i < 0 {
		return nil, nil
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, errors.NewInvalidRequest("title cannot be empty")
	}
	r := &s.state.Releases[i]

	start, end := r.PeriodStart, r.PeriodEnd
	if patch.PeriodStart != nil {
		start = *patch.PeriodStart
	}
	if patch.PeriodEnd != nil {
		end = *patch.PeriodEnd
	}
	if err := validatePeriod(start, end); err != nil {
		return nil, err
	}

	now := s.now()
	var attachments []model.Attachment
	if patch.Attachments != nil {
		var err error
		if attachments, err = s.prepareAttachments(*patch.Attachments, now); err != nil {
			return nil, err
		}
	}

	r.PeriodStart, r.PeriodEnd = start, end
	if patch.Version != nil {
		r.Version = strings.TrimSpace(*patch.Version)
	}
	if patch.Title != nil {
		r.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.CommitIDs != nil {
		r.CommitIDs = model.CleanTags(*patch.CommitIDs)
	}
	if patch.Summary != nil {
		r.Summary = *patch.Summary
	}
	if patch.Changelog != nil {
		r.Changelog = *patch.Changelog
	}
	if patch.Attachments != nil {
		r.Attachments = attachments
	}
	if patch.IsPublic != nil {
		r.IsPublic = *patch.IsPublic
	}
	r.UpdatedAt = now

	out := r.Clone()
	s.notifyLocked()
	return &out, nil
}

// DeleteRelease removes the release with id. Reports whether it existed.
// Deleting the latest release does not promote another one.
func (s *Store) DeleteRelease(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.releaseIndex(id)
	if i < 0 {
		return false
	}
	s.state.Releases = append(s.state.Releases[:i:i], s.state.Releases[i+1:]...)
	s.notifyLocked()
	return true
}

// PublishRelease publishes the release with id, making it the only latest
// release of its repository. Returns nil if the release does not exist.
func (s *Store) PublishRelease(id string) *model.Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.releaseIndex(id)
	if i < 0 {
		return nil
	}
	s.publishLocked(i, s.now())

	out := s.state.Releases[i].Clone()
	s.notifyLocked()
	return &out
}

// UnpublishRelease reverts the release with id to a draft. If it was the
// latest release, the most recently published remaining release of the same
// repository becomes latest. Returns nil if the release does not exist.
func (s *Store) UnpublishRelease(id string) *model.Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.releaseIndex(id)
	if i < 0 {
		return nil
	}

	now := s.now()
	r := &s.state.Releases[i]
	wasLatest := r.IsLatest
	r.Status = model.StatusDraft
	r.PublishedAt = nil
	r.IsLatest = false
	r.UpdatedAt = now

	if wasLatest {
		next := -1
		for j := range s.state.Releases {
			c := &s.state.Releases[j]
			if j == i || c.RepoID != r.RepoID || c.Status != model.StatusPublished {
				continue
			}
			if next < 0 || c.SortTime().After(s.state.Releases[next].SortTime()) {
				next = j
			}
		}
		if next >= 0 {
			s.state.Releases[next].IsLatest = true
			s.state.Releases[next].UpdatedAt = now
		}
	}

	out := r.Clone()
	s.notifyLocked()
	return &out
}

// publishLocked publishes release i and clears isLatest on every other
// release of the same repository. Caller holds mu.
func (s *Store) publishLocked(i int, now time.Time) {
	r := &s.state.Releases[i]
	for j := range s.state.Releases {
		other := &s.state.Releases[j]
		if j != i && other.RepoID == r.RepoID && other.IsLatest {
			other.IsLatest = false
			other.UpdatedAt = now
		}
	}

	published := now
	r.Status = model.StatusPublished
	r.PublishedAt = &published
	r.IsLatest = true
	if r.ShareSlug == "" {
		r.ShareSlug = s.newSlug()
	}
	r.UpdatedAt = now
}

// prepareAttachments validates attachments and fills missing ids and upload times.
func (s *Store) prepareAttachments(in []model.Attachment, now time.Time) ([]model.Attachment, error) {
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		if strings.TrimSpace(a.FileName) == "" {
			return nil, errors.NewInvalidRequest("attachment fileName is required")
		}
		if a.FileSize < 0 || a.FileSize > model.MaxAttachmentSize {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("attachment %q exceeds the %d byte limit", a.FileName, model.MaxAttachmentSize))
		}
		switch a.FileType {
		case model.AttachmentPDF, model.AttachmentImage, model.AttachmentOther:
		case "":
			a.FileType = model.AttachmentOther
		default:
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid attachment fileType %q (valid: pdf, image, other)", a.FileType))
		}
		if a.ID == "" {
			a.ID = s.newID()
		}
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		out = append(out, a)
	}
	return out, nil
}

// validatePeriod checks that non-empty period bounds are calendar dates and
// that start does not come after end.
func validatePeriod(start, end string) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(model.DateLayout, start); err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("periodStart %q is not a YYYY-MM-DD date", start))
		}
	}
	if end != "" {
		if e, err = time.Parse(model.DateLayout, end); err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("periodEnd %q is not a YYYY-MM-DD date", end))
		}
	}
	if start != "" && end != "" && s.After(e) {
		return errors.NewInvalidRequest("periodStart must not be after periodEnd")
	}
	return nil
}
