package store

import (
	"github.com/buriosa/buriosa/internal/model"
)

// IsEmpty reports whether the store holds no repositories, commits or releases.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Repos) == 0 && len(s.state.Commits) == 0 && len(s.state.Releases) == 0
}

// Replace swaps in a whole state, as when restoring a backup. The latest
// flags are recomputed, so a hand-edited blob cannot mark two releases of one
// repository as latest.
func (s *Store) Replace(state model.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state.Normalized().Clone()
	s.settleLatestLocked()
	s.notifyLocked()
}

// MergeResult counts what Merge took and left.
type MergeResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Merge adds the repositories, commits and releases of in whose IDs are not
// already present. Commits and releases of repositories that exist in neither
// state are skipped. UI fields are left alone. Latest flags are recomputed
// afterwards, so a newer imported release takes over from an older local one.
func (s *Store) Merge(in model.State) MergeResult {
	in = in.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	var res MergeResult
	for _, r := range in.Repos {
		if s.repoIndex(r.ID) >= 0 {
			res.Skipped++
			continue
		}
		s.state.Repos = append(s.state.Repos, r)
		res.Added++
	}

	for _, c := range in.Commits {
		if s.commitIndex(c.ID) >= 0 || s.repoIndex(c.RepoID) < 0 {
			res.Skipped++
			continue
		}
		s.state.Commits = append(s.state.Commits, c.Clone())
		res.Added++
	}

	for _, r := range in.Releases {
		if s.releaseIndex(r.ID) >= 0 || s.repoIndex(r.RepoID) < 0 {
			res.Skipped++
			continue
		}
		s.state.Releases = append(s.state.Releases, r.Clone())
		res.Added++
	}

	if res.Added > 0 {
		s.settleLatestLocked()
		s.notifyLocked()
	}
	return res
}

// settleLatestLocked moves the latest flag of every repository that has one to
// its most recently published release. Drafts never keep the flag.
// Repositories without a latest release are left without one.
func (s *Store) settleLatestLocked() {
	flagged := make(map[string]bool)
	newest := make(map[string]int)
	for i := range s.state.Releases {
		r := &s.state.Releases[i]
		if r.IsLatest && r.Status == model.StatusPublished {
			flagged[r.RepoID] = true
		}
		if r.Status != model.StatusPublished {
			continue
		}
		j, ok := newest[r.RepoID]
		if !ok || r.SortTime().After(s.state.Releases[j].SortTime()) {
			newest[r.RepoID] = i
		}
	}

	for i := range s.state.Releases {
		r := &s.state.Releases[i]
		r.IsLatest = flagged[r.RepoID] && newest[r.RepoID] == i
	}
}
