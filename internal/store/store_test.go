package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// fakeClock advances one second per call so timestamps are strictly ordered.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	ids, slugs := 0, 0
	s := New(model.InitialState(),
		WithClock(clock.Now),
		WithIDGenerator(func() string { ids++; return fmt.Sprintf("id-%03d", ids) }),
		WithSlugGenerator(func() string { slugs++; return fmt.Sprintf("slug-%d", slugs) }),
	)
	return s, clock
}

func mustRepo(t *testing.T, s *Store, name string) *model.Repository {
	t.Helper()
	r, err := s.AddRepo(AddRepoInput{Name: name})
	require.NoError(t, err)
	return r
}

func mustRelease(t *testing.T, s *Store, repoID, title string) *model.Release {
	t.Helper()
	r, err := s.AddRelease(AddReleaseInput{RepoID: repoID, Title: title})
	require.NoError(t, err)
	return r
}

func ptr[T any](v T) *T { return &v }

func TestAddRepo(t *testing.T) {
	s, _ := newTestStore(t)

	r, err := s.AddRepo(AddRepoInput{Name: "  Fitness ", Tag: "diet"})
	require.NoError(t, err)
	assert.Equal(t, "id-001", r.ID)
	assert.Equal(t, "Fitness", r.Name)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	// Duplicate names are allowed
	_, err = s.AddRepo(AddRepoInput{Name: "Fitness"})
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Repos, 2)

	_, err = s.AddRepo(AddRepoInput{Name: "   "})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestUpdateRepo(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "Career")
	c, err := s.AddCommit(AddCommitInput{RepoID: r.ID, Title: "Shipped"})
	require.NoError(t, err)

	updated, err := s.UpdateRepo(r.ID, RepoPatch{Name: ptr("Work")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Work", updated.Name)
	assert.True(t, updated.UpdatedAt.After(r.UpdatedAt))

	// Renaming does not rewrite the commit's denormalized name
	assert.Equal(t, "Career", s.Commit(c.ID).RepoName)

	missing, err := s.UpdateRepo("nope", RepoPatch{Name: ptr("x")})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.UpdateRepo(r.ID, RepoPatch{Name: ptr("")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDeleteRepo_Cascades(t *testing.T) {
	s, _ := newTestStore(t)
	keep := mustRepo(t, s, "Keep")
	drop := mustRepo(t, s, "Drop")

	for _, repoID := range []string{keep.ID, drop.ID, drop.ID} {
		_, err := s.AddCommit(AddCommitInput{RepoID: repoID, Title: "c"})
		require.NoError(t, err)
		mustRelease(t, s, repoID, "r")
	}
	require.NoError(t, s.SetActiveRepo(&drop.ID))

	assert.True(t, s.DeleteRepo(drop.ID))
	assert.False(t, s.DeleteRepo(drop.ID))

	snap := s.Snapshot()
	require.Len(t, snap.Repos, 1)
	assert.Len(t, snap.Commits, 1)
	assert.Len(t, snap.Releases, 1)
	for _, c := range snap.Commits {
		assert.Equal(t, keep.ID, c.RepoID)
	}
	for _, r := range snap.Releases {
		assert.Equal(t, keep.ID, r.RepoID)
	}
	assert.Nil(t, snap.ActiveRepoID)
}

func TestDeleteRepo_KeepsOtherActiveRepo(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustRepo(t, s, "A")
	b := mustRepo(t, s, "B")
	require.NoError(t, s.SetActiveRepo(&a.ID))

	s.DeleteRepo(b.ID)
	require.NotNil(t, s.Snapshot().ActiveRepoID)
	assert.Equal(t, a.ID, *s.Snapshot().ActiveRepoID)
}

func TestAddCommit(t *testing.T) {
	s, clock := newTestStore(t)
	r := mustRepo(t, s, "Fitness")

	c, err := s.AddCommit(AddCommitInput{RepoID: r.ID, Title: " Ran 5k ", Tags: []string{"run", " run", ""}})
	require.NoError(t, err)
	assert.Equal(t, "Ran 5k", c.Title)
	assert.Equal(t, "Fitness", c.RepoName)
	assert.Equal(t, []string{"run"}, c.Tags)
	assert.False(t, c.DateTime.IsZero(), "dateTime defaults to now")
	assert.False(t, c.DateTime.After(clock.Now()))

	when := time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)
	c, err = s.AddCommit(AddCommitInput{RepoID: r.ID, RepoName: "Custom", Title: "x", DateTime: when})
	require.NoError(t, err)
	assert.Equal(t, "Custom", c.RepoName)
	assert.True(t, c.DateTime.Equal(when))

	_, err = s.AddCommit(AddCommitInput{RepoID: r.ID})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = s.AddCommit(AddCommitInput{Title: "orphan"})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = s.AddCommit(AddCommitInput{RepoID: "missing", Title: "orphan"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdateCommit(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustRepo(t, s, "A")
	b := mustRepo(t, s, "B")
	c, err := s.AddCommit(AddCommitInput{RepoID: a.ID, Title: "t"})
	require.NoError(t, err)

	updated, err := s.UpdateCommit(c.ID, CommitPatch{RepoID: &b.ID, Body: ptr("more"), Tags: &[]string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.RepoID)
	assert.Equal(t, "B", updated.RepoName)
	assert.Equal(t, "more", updated.Body)
	assert.Equal(t, []string{"x"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	missing, err := s.UpdateCommit("nope", CommitPatch{Title: ptr("x")})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.UpdateCommit(c.ID, CommitPatch{RepoID: ptr("ghost")})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = s.UpdateCommit(c.ID, CommitPatch{Title: ptr(" ")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestDeleteCommit_NoCascade(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	c, err := s.AddCommit(AddCommitInput{RepoID: r.ID, Title: "t"})
	require.NoError(t, err)
	rel, err := s.AddRelease(AddReleaseInput{RepoID: r.ID, Title: "v1", CommitIDs: []string{c.ID}})
	require.NoError(t, err)

	assert.True(t, s.DeleteCommit(c.ID))
	assert.False(t, s.DeleteCommit(c.ID))
	assert.Len(t, s.Snapshot().Repos, 1)
	assert.Equal(t, []string{c.ID}, s.Release(rel.ID).CommitIDs)
}

func TestToggleHighlight(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	c, err := s.AddCommit(AddCommitInput{RepoID: r.ID, Title: "t"})
	require.NoError(t, err)

	on := s.ToggleHighlight(c.ID)
	require.NotNil(t, on)
	assert.True(t, on.IsHighlighted)
	assert.True(t, on.UpdatedAt.After(c.UpdatedAt))
	assert.False(t, s.ToggleHighlight(c.ID).IsHighlighted)
	assert.Nil(t, s.ToggleHighlight("nope"))
}

func TestAddRelease_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")

	tests := []struct {
		name  string
		input AddReleaseInput
		code  errors.ErrorCode
	}{
		{"missing title", AddReleaseInput{RepoID: r.ID}, errors.ErrInvalidRequest},
		{"missing repo", AddReleaseInput{Title: "t"}, errors.ErrInvalidRequest},
		{"unknown repo", AddReleaseInput{RepoID: "x", Title: "t"}, errors.ErrNotFound},
		{"bad status", AddReleaseInput{RepoID: r.ID, Title: "t", Status: "archived"}, errors.ErrInvalidRequest},
		{"bad date", AddReleaseInput{RepoID: r.ID, Title: "t", PeriodStart: "03/01/2026"}, errors.ErrInvalidRequest},
		{"inverted period", AddReleaseInput{RepoID: r.ID, Title: "t", PeriodStart: "2026-03-10", PeriodEnd: "2026-03-01"}, errors.ErrInvalidRequest},
		{"oversized attachment", AddReleaseInput{RepoID: r.ID, Title: "t", Attachments: []model.Attachment{{FileName: "a.pdf", FileSize: model.MaxAttachmentSize + 1}}}, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddRelease(tt.input)
			assert.True(t, errors.Is(err, tt.code), "error = %v, want %s", err, tt.code)
		})
	}
	assert.Empty(t, s.Snapshot().Releases)
}

func TestAddRelease_Draft(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")

	rel, err := s.AddRelease(AddReleaseInput{
		RepoID:      r.ID,
		Title:       "Week 42",
		PeriodStart: "2026-10-12",
		PeriodEnd:   "2026-10-18",
		Attachments: []model.Attachment{{FileName: "scan.png", FileType: model.AttachmentImage, FileSize: 1024}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, rel.Status)
	assert.Nil(t, rel.PublishedAt)
	assert.False(t, rel.IsLatest)
	assert.Empty(t, rel.ShareSlug)
	assert.Equal(t, "A", rel.RepoName)
	require.Len(t, rel.Attachments, 1)
	assert.NotEmpty(t, rel.Attachments[0].ID)
	assert.False(t, rel.Attachments[0].UploadedAt.IsZero())
}

func TestAddRelease_PublishedUsesPublishPath(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	first := mustRelease(t, s, r.ID, "v1")
	s.PublishRelease(first.ID)

	second, err := s.AddRelease(AddReleaseInput{RepoID: r.ID, Title: "v2", Status: model.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, second.Status)
	assert.True(t, second.IsLatest)
	assert.NotEmpty(t, second.ShareSlug)
	require.NotNil(t, second.PublishedAt)
	assert.False(t, s.Release(first.ID).IsLatest)
}

func TestPublishRelease_LatestInvariant(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustRepo(t, s, "A")
	b := mustRepo(t, s, "B")

	a1 := mustRelease(t, s, a.ID, "a1")
	a2 := mustRelease(t, s, a.ID, "a2")
	a3 := mustRelease(t, s, a.ID, "a3")
	b1 := mustRelease(t, s, b.ID, "b1")

	s.PublishRelease(b1.ID)
	for _, id := range []string{a1.ID, a3.ID, a2.ID, a1.ID, a2.ID} {
		s.PublishRelease(id)

		var latest []model.Release
		var newest *model.Release
		for _, r := range s.Snapshot().Releases {
			if r.RepoID != a.ID {
				continue
			}
			if r.IsLatest {
				latest = append(latest, r)
			}
			if r.PublishedAt != nil && (newest == nil || r.PublishedAt.After(*newest.PublishedAt)) {
				rc := r
				newest = &rc
			}
		}
		require.Len(t, latest, 1)
		assert.Equal(t, newest.ID, latest[0].ID)
		assert.Equal(t, id, latest[0].ID)
	}

	// Other repositories are untouched
	assert.True(t, s.Release(b1.ID).IsLatest)
}

func TestPublishRelease_KeepsSlug(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	rel := mustRelease(t, s, r.ID, "v1")

	first := s.PublishRelease(rel.ID)
	second := s.PublishRelease(rel.ID)
	assert.Equal(t, first.ShareSlug, second.ShareSlug)
	assert.True(t, second.PublishedAt.After(*first.PublishedAt))
	assert.Nil(t, s.PublishRelease("missing"))

	found := s.ReleaseBySlug(first.ShareSlug)
	require.NotNil(t, found)
	assert.Equal(t, rel.ID, found.ID)
	assert.Nil(t, s.ReleaseBySlug(""))
}

func TestUnpublishRelease(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	old := mustRelease(t, s, r.ID, "old")
	mid := mustRelease(t, s, r.ID, "mid")
	cur := mustRelease(t, s, r.ID, "cur")
	s.PublishRelease(old.ID)
	s.PublishRelease(mid.ID)
	s.PublishRelease(cur.ID)

	draft := s.UnpublishRelease(cur.ID)
	require.NotNil(t, draft)
	assert.Equal(t, model.StatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)
	assert.False(t, draft.IsLatest)
	assert.NotEmpty(t, draft.ShareSlug)

	// The most recently published remaining release takes over
	assert.True(t, s.Release(mid.ID).IsLatest)
	assert.False(t, s.Release(old.ID).IsLatest)

	// Unpublishing a non-latest release leaves latest alone
	s.UnpublishRelease(old.ID)
	assert.True(t, s.Release(mid.ID).IsLatest)

	assert.Nil(t, s.UnpublishRelease("missing"))
}

func TestUpdateAndDeleteRelease(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")
	rel := mustRelease(t, s, r.ID, "v1")

	updated, err := s.UpdateRelease(rel.ID, ReleasePatch{
		Summary:   ptr("Great week"),
		PeriodEnd: ptr("2026-10-18"),
		IsPublic:  ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Great week", updated.Summary)
	assert.Equal(t, "2026-10-18", updated.PeriodEnd)
	assert.True(t, updated.IsPublic)

	_, err = s.UpdateRelease(rel.ID, ReleasePatch{PeriodStart: ptr("2026-10-30")})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Empty(t, s.Release(rel.ID).PeriodStart, "failed update must not partially apply")

	missing, err := s.UpdateRelease("nope", ReleasePatch{Title: ptr("x")})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.True(t, s.DeleteRelease(rel.ID))
	assert.False(t, s.DeleteRelease(rel.ID))
}

func TestUISetters(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "A")

	require.NoError(t, s.SetActiveRepo(&r.ID))
	assert.Equal(t, r.ID, *s.Snapshot().ActiveRepoID)
	assert.True(t, errors.Is(s.SetActiveRepo(ptr("ghost")), errors.ErrNotFound))
	require.NoError(t, s.SetActiveRepo(nil))
	assert.Nil(t, s.Snapshot().ActiveRepoID)

	require.NoError(t, s.SetHeatmapMode(model.HeatmapRepo))
	assert.Equal(t, model.HeatmapRepo, s.Snapshot().HeatmapMode)
	assert.True(t, errors.Is(s.SetHeatmapMode("weekly"), errors.ErrInvalidRequest))

	s.CompleteOnboarding()
	assert.True(t, s.Snapshot().HasCompletedOnboarding)
}

func TestLoadDemoData(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustRepo(t, s, "Mine")
	rel := mustRelease(t, s, r.ID, "kept")

	snap := s.LoadDemoData()
	assert.Len(t, snap.Repos, 6)
	assert.Len(t, snap.Commits, 21)
	require.NotNil(t, snap.ActiveRepoID)
	assert.Equal(t, snap.Repos[0].ID, *snap.ActiveRepoID)
	require.Len(t, snap.Releases, 1)
	assert.Equal(t, rel.ID, snap.Releases[0].ID)
}

func TestReset(t *testing.T) {
	s, _ := newTestStore(t)
	s.LoadDemoData()
	s.CompleteOnboarding()

	s.Reset()
	snap := s.Snapshot()
	assert.Empty(t, snap.Repos)
	assert.Empty(t, snap.Commits)
	assert.False(t, snap.HasCompletedOnboarding)
	assert.Equal(t, model.HeatmapAll, snap.HeatmapMode)
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)

	var got []int
	cancel := s.Subscribe(func(st model.State) { got = append(got, len(st.Repos)) })

	mustRepo(t, s, "A")
	mustRepo(t, s, "B")
	s.UpdateRepo("missing", RepoPatch{Name: ptr("x")})
	_, _ = s.AddRepo(AddRepoInput{})
	assert.Equal(t, []int{1, 2}, got, "only successful mutations notify")

	cancel()
	mustRepo(t, s, "C")
	assert.Equal(t, []int{1, 2}, got)
}

func TestSubscribe_SnapshotIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	s.Subscribe(func(st model.State) {
		if len(st.Repos) > 0 {
			st.Repos[0].Name = "mutated by listener"
		}
	})
	r := mustRepo(t, s, "A")
	assert.Equal(t, "A", s.Repo(r.ID).Name)
}

func TestConcurrentPublish(t *testing.T) {
	s := New(model.InitialState())
	r, err := s.AddRepo(AddRepoInput{Name: "A"})
	require.NoError(t, err)

	ids := make([]string, 20)
	for i := range ids {
		rel, err := s.AddRelease(AddReleaseInput{RepoID: r.ID, Title: fmt.Sprintf("r%d", i)})
		require.NoError(t, err)
		ids[i] = rel.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.PublishRelease(id)
		}(id)
	}
	wg.Wait()

	latest := 0
	for _, rel := range s.Snapshot().Releases {
		if rel.IsLatest {
			latest++
		}
	}
	assert.Equal(t, 1, latest)
}

func TestUpdate_UnknownTargetIgnoresPatch(t *testing.T) {
	s, _ := newTestStore(t)

	repo, err := s.UpdateRepo("ghost", RepoPatch{Name: ptr("")})
	assert.NoError(t, err)
	assert.Nil(t, repo)

	commit, err := s.UpdateCommit("ghost", CommitPatch{Title: ptr(" "), DateTime: &time.Time{}})
	assert.NoError(t, err)
	assert.Nil(t, commit)

	release, err := s.UpdateRelease("ghost", ReleasePatch{Title: ptr("")})
	assert.NoError(t, err)
	assert.Nil(t, release)
}

func importedRelease(id, repoID string, publishedAt time.Time, latest bool) model.Release {
	return model.Release{
		ID:          id,
		RepoID:      repoID,
		RepoName:    "Fitness",
		Title:       id,
		Status:      model.StatusPublished,
		PublishedAt: &publishedAt,
		IsLatest:    latest,
		ShareSlug:   "share-" + id,
		CreatedAt:   publishedAt,
		UpdatedAt:   publishedAt,
	}
}

func TestMerge_NewerImportedReleaseTakesLatest(t *testing.T) {
	s, clock := newTestStore(t)
	repo := mustRepo(t, s, "Fitness")
	old := mustRelease(t, s, repo.ID, "old")
	require.NotNil(t, s.PublishRelease(old.ID))
	require.True(t, s.Release(old.ID).IsLatest)

	in := model.InitialState()
	in.Repos = []model.Repository{*repo}
	in.Releases = []model.Release{
		importedRelease("new", repo.ID, clock.now.Add(48*time.Hour), true),
		importedRelease("older", repo.ID, clock.now.Add(-48*time.Hour), true),
	}

	res := s.Merge(in)
	assert.Equal(t, MergeResult{Added: 2, Skipped: 1}, res)

	assert.True(t, s.Release("new").IsLatest)
	assert.False(t, s.Release(old.ID).IsLatest)
	assert.False(t, s.Release("older").IsLatest)
}

func TestMerge_OlderImportedReleaseLeavesLatest(t *testing.T) {
	s, clock := newTestStore(t)
	repo := mustRepo(t, s, "Fitness")
	current := mustRelease(t, s, repo.ID, "current")
	require.NotNil(t, s.PublishRelease(current.ID))

	in := model.InitialState()
	in.Releases = []model.Release{importedRelease("older", repo.ID, clock.now.Add(-72*time.Hour), true)}

	s.Merge(in)
	assert.True(t, s.Release(current.ID).IsLatest)
	assert.False(t, s.Release("older").IsLatest)
}

func TestReplace_SettlesLatest(t *testing.T) {
	s, _ := newTestStore(t)
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	draft := importedRelease("draft", "r1", base.Add(96*time.Hour), true)
	draft.Status = model.StatusDraft
	draft.PublishedAt = nil

	in := model.InitialState()
	in.Repos = []model.Repository{
		{ID: "r1", Name: "Fitness", CreatedAt: base, UpdatedAt: base},
		{ID: "r2", Name: "Career", CreatedAt: base, UpdatedAt: base},
	}
	in.Releases = []model.Release{
		importedRelease("a", "r1", base, true),
		importedRelease("b", "r1", base.Add(24*time.Hour), true),
		draft,
		// A repository without a latest release stays without one
		importedRelease("c", "r2", base, false),
	}

	s.Replace(in)

	latest := map[string]bool{}
	for _, r := range s.Snapshot().Releases {
		latest[r.ID] = r.IsLatest
	}
	assert.Equal(t, map[string]bool{"a": false, "b": true, "draft": false, "c": false}, latest)
}
