package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultComponentPathPrefix is prepended to the directory name to form
// an entry's componentPath.
const DefaultComponentPathPrefix = "@/components/registry/"

// Index is the in-memory form of the generated artifacts.
// Entry maps are keyed by component directory name.
type Index struct {
	Registry      map[string]Entry     `json:"registry"`
	Pages         map[string]PageEntry `json:"pages"`
	Categories    map[string][]string  `json:"categories"`
	Tags          TagIndex             `json:"tags"`
	PageSections  map[string][]string  `json:"pageSections"`
	SectionToPage map[string]string    `json:"sectionToPage"`
	Items         []IndexItem          `json:"items"`
}

// BuildInput contains parameters for Build.
type BuildInput struct {
	RegistryDir         string
	OutputDir           string
	ComponentPathPrefix string
	// DryRun diffs the artifacts against OutputDir instead of writing them.
	DryRun bool
}

// Skipped describes a directory left out of the build.
type Skipped struct {
	Name   string   `json:"name"`
	Reason string   `json:"reason"`
	Issues []string `json:"issues,omitempty"`
}

// BuildOutput contains the results of Build.
type BuildOutput struct {
	Components int        `json:"components"`
	Pages      int        `json:"pages"`
	Drafts     int        `json:"drafts"`
	Skipped    []Skipped  `json:"skipped"`
	Categories int        `json:"categories"`
	Tags       int        `json:"tags"`
	OutputDir  string     `json:"outputDir"`
	DryRun     bool       `json:"dryRun,omitempty"`
	Artifacts  []Artifact `json:"artifacts"`
}

// Skip reasons.
const (
	ReasonNoMetadata = "no metadata.yaml"
	ReasonUnreadable = "failed to read file"
	ReasonInvalid    = "validation failed"
)

// Build scans RegistryDir, validates every metadata.yaml and writes the
// registry artifacts to OutputDir. Per-directory problems are reported in
// Skipped and never fail the build; a missing registry directory or an
// unwritable output directory does.
func Build(ctx context.Context, logger *slog.Logger, input BuildInput) (*BuildOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if input.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	idx, out, err := Collect(ctx, logger, input.RegistryDir, input.ComponentPathPrefix)
	if err != nil {
		return nil, err
	}
	out.OutputDir = input.OutputDir
	out.DryRun = input.DryRun

	files, err := renderArtifacts(idx)
	if err != nil {
		return nil, err
	}

	if input.DryRun {
		out.Artifacts, err = diffArtifacts(input.OutputDir, files)
	} else {
		out.Artifacts, err = writeArtifacts(input.OutputDir, files)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("registry built",
		"components", out.Components,
		"pages", out.Pages,
		"drafts", out.Drafts,
		"skipped", len(out.Skipped),
		"dry_run", input.DryRun)

	return out, nil
}

// Collect parses every component directory under registryDir and builds the
// indices without touching the filesystem otherwise.
func Collect(ctx context.Context, logger *slog.Logger, registryDir, pathPrefix string) (*Index, *BuildOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pathPrefix == "" {
		pathPrefix = DefaultComponentPathPrefix
	}

	dirs, err := componentDirs(registryDir)
	if err != nil {
		return nil, nil, err
	}

	out := &BuildOutput{Skipped: []Skipped{}}
	var components []Entry
	var pages []PageEntry
	var items []IndexItem

	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		path := filepath.Join(registryDir, name, MetadataFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("registry skip", "name", name, "reason", ReasonNoMetadata)
			out.Skipped = append(out.Skipped, Skipped{Name: name, Reason: ReasonNoMetadata})
			continue
		}
		if err != nil {
			logger.Warn("registry skip", "name", name, "reason", ReasonUnreadable, "error", err)
			out.Skipped = append(out.Skipped, Skipped{Name: name, Reason: ReasonUnreadable, Issues: []string{err.Error()}})
			continue
		}

		m, issues := ParseMetadata(data)
		if len(issues) > 0 {
			logger.Warn("registry skip", "name", name, "reason", ReasonInvalid, "issues", len(issues))
			out.Skipped = append(out.Skipped, Skipped{Name: name, Reason: ReasonInvalid, Issues: issues})
			continue
		}

		if m.Draft {
			logger.Debug("registry draft excluded", "name", name)
			out.Drafts++
			continue
		}

		entry := buildEntry(name, pathPrefix, m)
		if m.IsPage() {
			pages = append(pages, PageEntry{
				Entry:    entry,
				PageType: m.PageType,
				Sections: sectionsOrEmpty(m.Sections),
				PageInfo: m.PageInfo,
			})
		} else {
			components = append(components, entry)
		}
		items = append(items, buildIndexItem(m))
	}

	idx := buildIndex(components, pages, items)
	out.Components = len(idx.Registry)
	out.Pages = len(idx.Pages)
	out.Categories = len(idx.Categories)
	for _, tagType := range TagTypes {
		out.Tags += len(idx.Tags.byType(tagType))
	}

	return idx, out, nil
}

func buildEntry(id, pathPrefix string, m *Metadata) Entry {
	e := Entry{
		ID:               id,
		Name:             m.Name,
		Category:         m.Category,
		Title:            m.Title,
		Description:      m.Description,
		FreeformKeywords: nonNil(m.FreeformKeywords),
		SearchableText:   SearchableText(m),
		FontFamily:       nonNil(m.FontFamily),
		ComponentPath:    pathPrefix + id,
		ParentPage:       m.ParentPage,
		Source:           m.Source,
		CreatedAt:        m.CreatedAt,
		Status:           m.Status,
		Language:         m.Language,
	}
	if m.Images != nil {
		e.Images = *m.Images
	}
	if m.Tags != nil {
		e.Tags = m.Tags.normalized()
	} else {
		e.Tags = Tags{}.normalized()
	}
	return e
}

func buildIndexItem(m *Metadata) IndexItem {
	item := IndexItem{
		SchemaVersion:    m.SchemaVersion,
		Name:             m.Name,
		Category:         m.Category,
		CreatedAt:        m.CreatedAt,
		Status:           m.Status,
		Language:         m.Language,
		FreeformKeywords: nonNil(m.FreeformKeywords),
		FontFamily:       nonNil(m.FontFamily),
		Tags:             Tags{}.normalized(),
	}
	if m.Images != nil {
		item.Images = *m.Images
	}
	if m.Description != nil {
		item.Description = *m.Description
	}
	if m.Tags != nil {
		item.Tags = m.Tags.normalized()
	}
	return item
}

func sectionsOrEmpty(s []Section) []Section {
	if s == nil {
		return []Section{}
	}
	return s
}

// SearchableText joins the searchable fields of m into one lower-cased,
// whitespace-collapsed string.
func SearchableText(m *Metadata) string {
	parts := []string{m.Name, m.Category, m.Title}
	if m.Description != nil {
		parts = append(parts, m.Description.Short, m.Description.Detailed)
	}
	if m.Tags != nil {
		for _, tagType := range TagTypes {
			parts = append(parts, m.Tags.byType(tagType)...)
		}
	}
	parts = append(parts, m.FreeformKeywords...)
	parts = append(parts, m.FontFamily...)

	return strings.Join(strings.Fields(strings.ToLower(strings.Join(parts, " "))), " ")
}

// buildIndex derives every lookup table. Components and pages arrive in
// directory order; category and tag lists keep components before pages.
func buildIndex(components []Entry, pages []PageEntry, items []IndexItem) *Index {
	idx := &Index{
		Registry:      make(map[string]Entry, len(components)),
		Pages:         make(map[string]PageEntry, len(pages)),
		Categories:    map[string][]string{},
		Tags:          newTagIndex(),
		PageSections:  make(map[string][]string, len(pages)),
		SectionToPage: map[string]string{},
		Items:         items,
	}
	if idx.Items == nil {
		idx.Items = []IndexItem{}
	}

	addEntry := func(e *Entry) {
		idx.Categories[e.Category] = append(idx.Categories[e.Category], e.ID)
		for _, tagType := range TagTypes {
			byTag := idx.Tags.byType(tagType)
			for _, tag := range e.Tags.byType(tagType) {
				byTag[tag] = append(byTag[tag], e.ID)
			}
		}
	}

	for i := range components {
		idx.Registry[components[i].ID] = components[i]
		addEntry(&components[i])
	}
	for i := range pages {
		p := pages[i]
		idx.Pages[p.ID] = p
		addEntry(&pages[i].Entry)

		sections := append([]Section(nil), p.Sections...)
		sort.SliceStable(sections, func(a, b int) bool { return sections[a].Order < sections[b].Order })
		ids := make([]string, len(sections))
		for j, s := range sections {
			ids[j] = s.ID
			idx.SectionToPage[s.ID] = p.ID
		}
		idx.PageSections[p.ID] = ids
	}

	sort.SliceStable(idx.Items, func(a, b int) bool { return idx.Items[a].Name < idx.Items[b].Name })

	return idx
}
