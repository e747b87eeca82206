package ops

import (
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// SharedRelease is what the public share page shows.
type SharedRelease struct {
	Release model.Release  `json:"release"`
	Commits []model.Commit `json:"commits"` // included commits that still exist, newest first
}

// ShareRelease looks up a release by share slug. Drafts and private
// releases are reported as not found.
func ShareRelease(st *store.Store, slug string) (*SharedRelease, error) {
	r := st.ReleaseBySlug(slug)
	if r == nil || r.Status != model.StatusPublished || !r.IsPublic {
		return nil, errors.NewNotFound("release", slug)
	}

	included := make(map[string]bool, len(r.CommitIDs))
	for _, id := range r.CommitIDs {
		included[id] = true
	}
	commits := make([]model.Commit, 0, len(r.CommitIDs))
	for _, c := range st.Snapshot().Commits {
		if included[c.ID] {
			commits = append(commits, c)
		}
	}

	return &SharedRelease{Release: *r, Commits: views.CommitFeed(commits, nil)}, nil
}
