package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Artifact file names, in write order.
const (
	FileRegistry      = "registry.json"
	FilePageRegistry  = "page-registry.json"
	FileCategoryIndex = "category-index.json"
	FileTagIndex      = "tag-index.json"
	FilePageIndex     = "page-index.json"
	FileSectionToPage = "section-to-page.json"
	FileIndex         = "index.json"
)

// ArtifactFiles lists every generated file.
var ArtifactFiles = []string{
	FileRegistry, FilePageRegistry, FileCategoryIndex, FileTagIndex,
	FilePageIndex, FileSectionToPage, FileIndex,
}

// Artifact reports what happened to one generated file.
type Artifact struct {
	File    string `json:"file"`
	Path    string `json:"path"`
	Bytes   int    `json:"bytes"`
	Changed bool   `json:"changed"`
	Diff    string `json:"diff,omitempty"`
}

type renderedFile struct {
	name string
	data []byte
}

func renderArtifacts(idx *Index) ([]renderedFile, error) {
	values := map[string]any{
		FileRegistry:      idx.Registry,
		FilePageRegistry:  idx.Pages,
		FileCategoryIndex: idx.Categories,
		FileTagIndex:      idx.Tags,
		FilePageIndex:     idx.PageSections,
		FileSectionToPage: idx.SectionToPage,
		FileIndex:         idx.Items,
	}

	files := make([]renderedFile, 0, len(ArtifactFiles))
	for _, name := range ArtifactFiles {
		data, err := marshalArtifact(values[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		files = append(files, renderedFile{name: name, data: data})
	}
	return files, nil
}

// marshalArtifact encodes v as two-space indented JSON, leaving <, > and &
// unescaped so non-ASCII descriptions and markup read naturally.
func marshalArtifact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeArtifacts(outputDir string, files []renderedFile) ([]Artifact, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	artifacts := make([]Artifact, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outputDir, f.name)
		previous, err := readExisting(path)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		artifacts = append(artifacts, Artifact{
			File:    f.name,
			Path:    path,
			Bytes:   len(f.data),
			Changed: previous != string(f.data),
		})
	}
	return artifacts, nil
}

func diffArtifacts(outputDir string, files []renderedFile) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outputDir, f.name)
		previous, err := readExisting(path)
		if err != nil {
			return nil, err
		}
		diff := computeDiff(f.name, previous, string(f.data))
		artifacts = append(artifacts, Artifact{
			File:    f.name,
			Path:    path,
			Bytes:   len(f.data),
			Changed: diff != "",
			Diff:    diff,
		})
	}
	return artifacts, nil
}

// readExisting returns the current content of path, or "" if it does not exist.
func readExisting(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

// computeDiff returns a unified diff from the file on disk to the freshly
// built content, or "" when they are identical.
func computeDiff(name, previous, current string) string {
	if previous == current {
		return ""
	}

	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous),
		B:        difflib.SplitLines(current),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}

	res, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return strings.TrimSpace(current)
	}

	return strings.TrimSpace(res)
}
