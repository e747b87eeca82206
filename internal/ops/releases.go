package ops

import (
	"time"

	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// CreateReleaseInput contains parameters for CreateRelease.
type CreateReleaseInput struct {
	RepoID      string
	Title       string
	Version     string
	Preset      string // used when PeriodStart and PeriodEnd are empty
	PeriodStart string
	PeriodEnd   string
	CommitIDs   []string // nil selects every commit of the period
	Summary     string
	Changelog   string
	Attachments []model.Attachment
	Status      model.ReleaseStatus
	IsPublic    bool
}

// CreateRelease resolves the period and commit selection the way the
// release wizard does, then adds the release.
func CreateRelease(st *store.Store, now time.Time, input CreateReleaseInput) (*model.Release, error) {
	repo, err := requireRepo(st, input.RepoID)
	if err != nil {
		return nil, err
	}
	r, err := resolveRange(input.Preset, input.PeriodStart, input.PeriodEnd, now)
	if err != nil {
		return nil, err
	}

	commitIDs := input.CommitIDs
	if commitIDs == nil {
		in, err := views.CommitsInRange(st.Snapshot().Commits, repo.ID, r, now.Location())
		if err != nil {
			return nil, err
		}
		commitIDs = make([]string, len(in))
		for i, c := range in {
			commitIDs[i] = c.ID
		}
	}

	return st.AddRelease(store.AddReleaseInput{
		RepoID:      repo.ID,
		Version:     input.Version,
		Title:       input.Title,
		PeriodStart: r.Start,
		PeriodEnd:   r.End,
		CommitIDs:   commitIDs,
		Summary:     input.Summary,
		Changelog:   input.Changelog,
		Attachments: input.Attachments,
		Status:      input.Status,
		IsPublic:    input.IsPublic,
	})
}

// ListReleasesInput contains parameters for ListReleases.
type ListReleasesInput struct {
	RepoID string // empty lists every repository
}

// ListReleasesOutput contains the result of ListReleases.
type ListReleasesOutput struct {
	Releases []model.Release `json:"releases"`
}

// ListReleases returns releases with drafts first, then newest first.
func ListReleases(st *store.Store, input ListReleasesInput) (*ListReleasesOutput, error) {
	releases := st.Snapshot().Releases
	if input.RepoID != "" {
		repo, err := requireRepo(st, input.RepoID)
		if err != nil {
			return nil, err
		}
		releases = views.ReleasesForRepo(releases, repo.ID)
	}
	return &ListReleasesOutput{Releases: views.SortReleases(releases)}, nil
}
