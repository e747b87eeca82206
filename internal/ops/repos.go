package ops

import (
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// ListReposInput contains parameters for ListRepos.
type ListReposInput struct {
	Query string // case-insensitive name filter
}

// ListReposOutput contains the result of ListRepos.
type ListReposOutput struct {
	Repos        []views.RepoStats `json:"repos"`
	ActiveRepoID *string           `json:"activeRepoId"`
}

// ListRepos returns the repositories matching Query, with activity counts.
func ListRepos(st *store.Store, input ListReposInput) *ListReposOutput {
	s := st.Snapshot()

	keep := make(map[string]bool)
	for _, r := range views.FilterRepos(s.Repos, input.Query) {
		keep[r.ID] = true
	}

	stats := make([]views.RepoStats, 0, len(keep))
	for _, rs := range views.Stats(s) {
		if keep[rs.RepoID] {
			stats = append(stats, rs)
		}
	}

	return &ListReposOutput{Repos: stats, ActiveRepoID: s.ActiveRepoID}
}
