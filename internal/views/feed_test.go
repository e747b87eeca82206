package views

import (
	"testing"
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

func TestCommitFeed(t *testing.T) {
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	commits := []model.Commit{
		commitAt("a-old", "a", base.AddDate(0, 0, -2)),
		commitAt("b-new", "b", base),
		commitAt("a-new", "a", base.AddDate(0, 0, -1)),
		commitAt("a-tie", "a", base.AddDate(0, 0, -1)),
	}

	all := CommitFeed(commits, nil)
	if got := ids(all); !equal(got, []string{"b-new", "a-new", "a-tie", "a-old"}) {
		t.Errorf("CommitFeed(nil) = %v", got)
	}

	repo := "a"
	filtered := CommitFeed(commits, &repo)
	if got := ids(filtered); !equal(got, []string{"a-new", "a-tie", "a-old"}) {
		t.Errorf("CommitFeed(a) = %v", got)
	}

	// Input is not reordered
	if commits[0].ID != "a-old" {
		t.Error("CommitFeed mutated its input")
	}
}

func TestSortReleases_DraftsFirst(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }
	pub100 := day(100)
	pub50 := day(50)

	releases := []model.Release{
		{ID: "P100", Status: model.StatusPublished, CreatedAt: day(0), PublishedAt: &pub100},
		{ID: "D1", Status: model.StatusDraft, CreatedAt: day(1)},
		{ID: "P50", Status: model.StatusPublished, CreatedAt: day(40), PublishedAt: &pub50},
		{ID: "D5", Status: model.StatusDraft, CreatedAt: day(5)},
	}

	got := SortReleases(releases)
	want := []string{"D5", "D1", "P100", "P50"}
	for i, r := range got {
		if r.ID != want[i] {
			t.Fatalf("SortReleases order = %v, want %v", releaseIDs(got), want)
		}
	}
}

func TestReleasesForRepo(t *testing.T) {
	releases := []model.Release{{ID: "1", RepoID: "a"}, {ID: "2", RepoID: "b"}, {ID: "3", RepoID: "a"}}
	if got := releaseIDs(ReleasesForRepo(releases, "a")); !equal(got, []string{"1", "3"}) {
		t.Errorf("ReleasesForRepo = %v", got)
	}
}

func TestFilterRepos(t *testing.T) {
	repos := []model.Repository{{ID: "1", Name: "Career / Projects"}, {ID: "2", Name: "Fitness / Cut"}}
	if got := FilterRepos(repos, "fit"); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("FilterRepos(fit) = %v", got)
	}
	if got := FilterRepos(repos, ""); len(got) != 2 {
		t.Errorf("FilterRepos(\"\") = %d repos, want 2", len(got))
	}
}

func TestStats(t *testing.T) {
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	pub := base
	s := model.State{
		Repos: []model.Repository{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Commits: []model.Commit{
			{ID: "c1", RepoID: "a", DateTime: base.AddDate(0, 0, -1), IsHighlighted: true},
			{ID: "c2", RepoID: "a", DateTime: base},
			{ID: "orphan", RepoID: "zzz", DateTime: base},
		},
		Releases: []model.Release{
			{ID: "r1", RepoID: "a", Status: model.StatusPublished, IsLatest: true, PublishedAt: &pub},
			{ID: "r2", RepoID: "a", Status: model.StatusDraft},
		},
	}

	stats := Stats(s)
	if len(stats) != 2 {
		t.Fatalf("len(Stats) = %d", len(stats))
	}
	a := stats[0]
	if a.Commits != 2 || a.Highlighted != 1 || a.Releases != 2 || a.PublishedReleases != 1 {
		t.Errorf("stats[a] = %+v", a)
	}
	if a.LastCommit == nil || a.LastCommit.ID != "c2" {
		t.Errorf("LastCommit = %+v", a.LastCommit)
	}
	if a.Latest == nil || a.Latest.ID != "r1" {
		t.Errorf("Latest = %+v", a.Latest)
	}
	if stats[1].Commits != 0 || stats[1].LastCommit != nil {
		t.Errorf("stats[b] = %+v", stats[1])
	}
}

func ids(cs []model.Commit) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func releaseIDs(rs []model.Release) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
