package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/storage"
	"github.com/buriosa/buriosa/internal/storage/mocks"
	"github.com/buriosa/buriosa/internal/store"
)

const key = "buriosa-storage"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleState() model.State {
	s := model.InitialState()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	active := "r1"
	s.Repos = append(s.Repos, model.Repository{ID: "r1", Name: "Career", CreatedAt: now, UpdatedAt: now})
	s.Commits = append(s.Commits, model.Commit{ID: "c1", RepoID: "r1", RepoName: "Career", Title: "Shipped", Tags: []string{"x"}, DateTime: now, CreatedAt: now, UpdatedAt: now})
	s.ActiveRepoID = &active
	s.HasCompletedOnboarding = true
	return s
}

// populatedState builds a state through the store so every field the store
// sets is present: a published release with an attachment, UI fields and tags.
func populatedState(t *testing.T) model.State {
	t.Helper()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ids := 0
	st := store.New(model.InitialState(),
		store.WithClock(func() time.Time { now = now.Add(time.Minute); return now }),
		store.WithIDGenerator(func() string { ids++; return fmt.Sprintf("id-%03d", ids) }),
		store.WithSlugGenerator(func() string { return "slug-1" }),
	)

	repo, err := st.AddRepo(store.AddRepoInput{Name: "Fitness", Tag: "health"})
	require.NoError(t, err)
	commit, err := st.AddCommit(store.AddCommitInput{RepoID: repo.ID, Title: "Ran 5k", Body: "- pace 6:10", Tags: []string{"run", "cardio"}})
	require.NoError(t, err)
	require.NotNil(t, st.ToggleHighlight(commit.ID))

	rel, err := st.AddRelease(store.AddReleaseInput{
		RepoID:      repo.ID,
		Version:     "v1.0",
		Title:       "October",
		PeriodStart: "2026-10-13",
		PeriodEnd:   "2026-10-19",
		CommitIDs:   []string{commit.ID},
		Summary:     "good week",
		Changelog:   "## Added\n- running",
		Attachments: []model.Attachment{{FileName: "plan.pdf", FileURL: "https://example.com/plan.pdf", FileType: model.AttachmentPDF, FileSize: 2048}},
		Status:      model.StatusPublished,
		IsPublic:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, rel.PublishedAt)
	require.Len(t, rel.Attachments, 1)

	require.NoError(t, st.SetActiveRepo(&repo.ID))
	require.NoError(t, st.SetHeatmapMode(model.HeatmapRepo))
	st.CompleteOnboarding()
	return st.Snapshot()
}

func TestAdapter_RoundTrip(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := storage.NewAdapter(backend, key, quietLogger())
	ctx := context.Background()

	want := populatedState(t)
	a.Save(ctx, want)

	raw, err := a.Inspect(ctx)
	require.NoError(t, err)
	var env storage.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, storage.SchemaVersion, env.SchemaVersion)
	_, err = time.Parse(time.RFC3339, env.SavedAt)
	assert.NoError(t, err, "savedAt must be RFC3339")

	got := a.Load(ctx, model.InitialState())
	assert.Equal(t, want, got)
}

func TestAdapter_LoadFallsBackToDefault(t *testing.T) {
	def := model.InitialState()
	def.HasCompletedOnboarding = true

	tests := []struct {
		name string
		blob string
	}{
		{"corrupt json", `{not json`},
		{"array", `[]`},
		{"newer schema", `{"schemaVersion":99,"savedAt":"2030-01-01T00:00:00Z","state":{"repos":[]}}`},
		{"missing state", `{"schemaVersion":1,"savedAt":"2026-01-01T00:00:00Z"}`},
		{"bad state", `{"schemaVersion":1,"state":{"repos":"nope"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := storage.NewMemoryBackend()
			require.NoError(t, backend.Put(context.Background(), key, []byte(tt.blob)))
			a := storage.NewAdapter(backend, key, quietLogger())

			got := a.Load(context.Background(), def)
			assert.True(t, got.HasCompletedOnboarding, "expected default state")
			assert.Empty(t, got.Repos)
		})
	}

	t.Run("missing key", func(t *testing.T) {
		a := storage.NewAdapter(storage.NewMemoryBackend(), key, quietLogger())
		got := a.Load(context.Background(), def)
		assert.True(t, got.HasCompletedOnboarding)
	})
}

func TestAdapter_LoadLegacy(t *testing.T) {
	bare := `{"repos":[{"id":"r1","name":"Fitness","tag":"","createdAt":"2025-01-01T00:00:00.000Z","updatedAt":"2025-01-01T00:00:00.000Z"}],"commits":[],"releases":[],"activeRepoId":null,"heatmapMode":"repo","hasCompletedOnboarding":true}`
	wrapped := `{"state":` + bare + `,"version":0}`

	for name, blob := range map[string]string{"bare": bare, "wrapped": wrapped} {
		t.Run(name, func(t *testing.T) {
			backend := storage.NewMemoryBackend()
			require.NoError(t, backend.Put(context.Background(), key, []byte(blob)))
			a := storage.NewAdapter(backend, key, quietLogger())

			got := a.Load(context.Background(), model.InitialState())
			require.Len(t, got.Repos, 1)
			assert.Equal(t, "Fitness", got.Repos[0].Name)
			assert.Equal(t, model.HeatmapRepo, got.HeatmapMode)
			assert.NotNil(t, got.Commits)
		})
	}
}

func TestAdapter_BackendErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := mocks.NewMockBackend(ctrl)
	a := storage.NewAdapter(backend, key, quietLogger())
	ctx := context.Background()
	boom := errors.New("disk on fire")

	backend.EXPECT().Get(gomock.Any(), key).Return(nil, boom)
	def := model.InitialState()
	got := a.Load(ctx, def)
	assert.Empty(t, got.Repos)

	// Save swallows write failures
	backend.EXPECT().Put(gomock.Any(), key, gomock.Any()).Return(boom)
	a.Save(ctx, sampleState())

	backend.EXPECT().Delete(gomock.Any(), key).Return(nil)
	assert.NoError(t, a.Clear(ctx))
}

func TestAdapter_Clear(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := storage.NewAdapter(backend, key, quietLogger())
	ctx := context.Background()

	a.Save(ctx, sampleState())
	require.NoError(t, a.Clear(ctx))
	_, err := a.Inspect(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Idempotent
	require.NoError(t, a.Clear(ctx))
	assert.Empty(t, a.Load(ctx, model.InitialState()).Repos)
}
