package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buriosa/buriosa/internal/errors"
)

func TestScaffold(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 15, 4, 5, 0, time.FixedZone("KST", 9*3600))

	out, err := Scaffold(ScaffoldInput{
		RegistryDir: dir,
		Name:        "pricing-grid",
		Category:    "pricing",
		ImagePath:   "/images/pricing-grid.png",
		Keywords:    SplitCSV(" pricing, , tiers "),
		Now:         now,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pricing-grid", MetadataFile), out.MetadataPath)
	assert.False(t, out.Overwritten)

	data, err := os.ReadFile(out.MetadataPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schemaVersion: "2.0"`)

	m, issues := ParseMetadata(data)
	require.Empty(t, issues)
	assert.Equal(t, "pricing-grid", m.Name)
	assert.Equal(t, "pricing", m.Category)
	assert.Equal(t, "/images/pricing-grid.png", m.Images.Preview)
	assert.Equal(t, []string{"pricing", "tiers"}, m.FreeformKeywords)
	assert.Equal(t, []string{DefaultFontFamily}, m.FontFamily)
	assert.Equal(t, "2026-10-19T06:04:05Z", m.CreatedAt)
	assert.Equal(t, "draft", m.Status)
	assert.Equal(t, "en", m.Language)
	assert.False(t, m.Draft)
	assert.Empty(t, m.Tags.Functional)
}

func TestScaffold_ExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	input := ScaffoldInput{
		RegistryDir: dir,
		Name:        "hero-a",
		Category:    "hero",
		ImagePath:   "/p.png",
		Keywords:    []string{"hero"},
		FontFamily:  []string{"Pretendard"},
	}

	_, err := Scaffold(input)
	require.NoError(t, err)

	_, err = Scaffold(input)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	input.Force = true
	out, err := Scaffold(input)
	require.NoError(t, err)
	assert.True(t, out.Overwritten)
}

func TestScaffold_EmptyExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hero-a"), 0755))

	_, err := Scaffold(ScaffoldInput{RegistryDir: dir, Name: "hero-a", Category: "hero", ImagePath: "/p.png", Keywords: []string{"k"}})
	assert.NoError(t, err)
}

func TestScaffold_InvalidInput(t *testing.T) {
	base := ScaffoldInput{RegistryDir: t.TempDir(), Name: "ok-name", Category: "hero", ImagePath: "/p.png", Keywords: []string{"k"}}

	tests := map[string]func(in *ScaffoldInput){
		"camel case name":  func(in *ScaffoldInput) { in.Name = "heroBanner" },
		"double dash":      func(in *ScaffoldInput) { in.Name = "hero--a" },
		"trailing dash":    func(in *ScaffoldInput) { in.Name = "hero-" },
		"unknown category": func(in *ScaffoldInput) { in.Category = "banner" },
		"no image":         func(in *ScaffoldInput) { in.ImagePath = " " },
		"no keywords":      func(in *ScaffoldInput) { in.Keywords = []string{" ", ""} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := Scaffold(in)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
		})
	}
}
