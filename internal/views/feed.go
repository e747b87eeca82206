package views

import (
	"sort"
	"strings"

	"github.com/buriosa/buriosa/internal/model"
)

// CommitFeed returns the commits of activeRepoID (all commits when nil),
// newest dateTime first. Ties keep insertion order.
func CommitFeed(commits []model.Commit, activeRepoID *string) []model.Commit {
	out := make([]model.Commit, 0, len(commits))
	for _, c := range commits {
		if activeRepoID != nil && c.RepoID != *activeRepoID {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

// SortReleases returns releases with drafts first, each group ordered by
// publishedAt (createdAt when unset), newest first.
func SortReleases(releases []model.Release) []model.Release {
	out := make([]model.Release, len(releases))
	for i, r := range releases {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].Status == model.StatusDraft
		dj := out[j].Status == model.StatusDraft
		if di != dj {
			return di
		}
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out
}

// ReleasesForRepo filters releases to one repository, keeping order.
func ReleasesForRepo(releases []model.Release, repoID string) []model.Release {
	out := make([]model.Release, 0)
	for _, r := range releases {
		if r.RepoID == repoID {
			out = append(out, r.Clone())
		}
	}
	return out
}

// FilterRepos returns repositories whose name contains query, ignoring case.
func FilterRepos(repos []model.Repository, query string) []model.Repository {
	q := strings.ToLower(query)
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// RepoStats summarizes one repository.
type RepoStats struct {
	RepoID            string         `json:"repoId"`
	Name              string         `json:"name"`
	Commits           int            `json:"commits"`
	Highlighted       int            `json:"highlighted"`
	Releases          int            `json:"releases"`
	PublishedReleases int            `json:"publishedReleases"`
	LastCommit        *model.Commit  `json:"lastCommit,omitempty"`
	Latest            *model.Release `json:"latestRelease,omitempty"`
}

// Stats computes RepoStats for every repository, in repository order.
func Stats(s model.State) []RepoStats {
	byID := make(map[string]*RepoStats, len(s.Repos))
	out := make([]RepoStats, len(s.Repos))
	for i, r := range s.Repos {
		out[i] = RepoStats{RepoID: r.ID, Name: r.Name}
		byID[r.ID] = &out[i]
	}

	for _, c := range s.Commits {
		st, ok := byID[c.RepoID]
		if !ok {
			continue
		}
		st.Commits++
		if c.IsHighlighted {
			st.Highlighted++
		}
		if st.LastCommit == nil || c.DateTime.After(st.LastCommit.DateTime) {
			cc := c.Clone()
			st.LastCommit = &cc
		}
	}

	for _, r := range s.Releases {
		st, ok := byID[r.RepoID]
		if !ok {
			continue
		}
		st.Releases++
		if r.Status == model.StatusPublished {
			st.PublishedReleases++
		}
		if r.IsLatest {
			rc := r.Clone()
			st.Latest = &rc
		}
	}

	return out
}
