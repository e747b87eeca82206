package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/storage"
	"github.com/buriosa/buriosa/internal/storage/mocks"
)

func TestWriter_Synchronous(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := storage.NewAdapter(backend, key, quietLogger())
	w := storage.NewWriter(a, 0)

	w.OnChange(sampleState())

	// Written before OnChange returned
	got := a.Load(context.Background(), model.InitialState())
	assert.Len(t, got.Repos, 1)
}

func TestWriter_Debounced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backend := mocks.NewMockBackend(ctrl)
	a := storage.NewAdapter(backend, key, quietLogger())
	w := storage.NewWriter(a, time.Hour)

	var written []byte
	backend.EXPECT().Put(gomock.Any(), key, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, v []byte) error {
			written = v
			return nil
		}).Times(1)

	first := sampleState()
	second := sampleState()
	second.Repos[0].Name = "Renamed"
	w.OnChange(first)
	w.OnChange(second)

	w.Flush()
	require.NotNil(t, written)
	assert.Contains(t, string(written), "Renamed")

	// Nothing pending: second flush is a no-op
	w.Flush()
}

func TestWriter_TimerFires(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := storage.NewAdapter(backend, key, quietLogger())
	w := storage.NewWriter(a, 10*time.Millisecond)
	defer w.Close()

	w.OnChange(sampleState())

	require.Eventually(t, func() bool {
		_, err := a.Inspect(context.Background())
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWriter_CloseFlushes(t *testing.T) {
	backend := storage.NewMemoryBackend()
	a := storage.NewAdapter(backend, key, quietLogger())
	w := storage.NewWriter(a, time.Hour)

	w.OnChange(sampleState())
	w.Close()

	_, err := a.Inspect(context.Background())
	require.NoError(t, err)

	// After Close, changes are written immediately
	require.NoError(t, a.Clear(context.Background()))
	w.OnChange(sampleState())
	_, err = a.Inspect(context.Background())
	assert.NoError(t, err)
}
