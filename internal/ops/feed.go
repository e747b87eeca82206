package ops

import (
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// FeedInput contains parameters for Feed.
type FeedInput struct {
	RepoID string // empty means the active repository
	All    bool   // ignore the active repository
	Limit  int    // default: 50, max: 500
	Offset int
}

// FeedOutput contains the result of Feed.
type FeedOutput struct {
	RepoID     *string        `json:"repoId"`
	Commits    []model.Commit `json:"commits"`
	Pagination Pagination     `json:"pagination"`
}

// Feed lists commits newest first for one repository or for all of them.
func Feed(st *store.Store, input FeedInput) (*FeedOutput, error) {
	s := st.Snapshot()

	var repoID *string
	switch {
	case input.All:
	case input.RepoID != "":
		r, err := requireRepo(st, input.RepoID)
		if err != nil {
			return nil, err
		}
		repoID = &r.ID
	default:
		repoID = s.ActiveRepoID
	}

	feed := views.CommitFeed(s.Commits, repoID)
	start, end, page := paginate(input.Limit, input.Offset, len(feed))

	return &FeedOutput{
		RepoID:     repoID,
		Commits:    feed[start:end],
		Pagination: page,
	}, nil
}
