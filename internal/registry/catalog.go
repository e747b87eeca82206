package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	bterrors "github.com/buriosa/buriosa/internal/errors"
)

// Catalog answers queries over previously built artifacts.
// It is read-only after loading and safe for concurrent use.
type Catalog struct {
	idx Index
}

// LoadCatalog reads the artifacts in dir. registry.json is required; the
// other index files are treated as empty when absent.
func LoadCatalog(dir string) (*Catalog, error) {
	idx := Index{
		Registry:      map[string]Entry{},
		Pages:         map[string]PageEntry{},
		Categories:    map[string][]string{},
		Tags:          newTagIndex(),
		PageSections:  map[string][]string{},
		SectionToPage: map[string]string{},
	}

	found, err := readArtifact(dir, FileRegistry, &idx.Registry)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, bterrors.NewNotFound("registry artifact", filepath.Join(dir, FileRegistry))
	}

	optional := []struct {
		name string
		dest any
	}{
		{FilePageRegistry, &idx.Pages},
		{FileCategoryIndex, &idx.Categories},
		{FileTagIndex, &idx.Tags},
		{FilePageIndex, &idx.PageSections},
		{FileSectionToPage, &idx.SectionToPage},
	}
	for _, o := range optional {
		if _, err := readArtifact(dir, o.name, o.dest); err != nil {
			return nil, err
		}
	}

	return NewCatalog(idx), nil
}

// NewCatalog wraps an index built in memory.
func NewCatalog(idx Index) *Catalog {
	if idx.Tags.Functional == nil {
		idx.Tags = newTagIndex()
	}
	return &Catalog{idx: idx}
}

func readArtifact(dir, name string, dest any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}

// Get returns the component with the given id.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.idx.Registry[id]
	return e, ok
}

// All returns every component ordered by id.
func (c *Catalog) All() []Entry {
	ids := make([]string, 0, len(c.idx.Registry))
	for id := range c.idx.Registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return c.lookup(ids)
}

// ByCategory returns the components listed under category.
// Names that only exist as pages are omitted.
func (c *Catalog) ByCategory(category string) []Entry {
	return c.lookup(c.idx.Categories[category])
}

// ByTag returns the components carrying tag within tagType.
func (c *Catalog) ByTag(tagType, tag string) ([]Entry, error) {
	byTag := c.idx.Tags.byType(tagType)
	if byTag == nil {
		return nil, bterrors.NewInvalidRequest(fmt.Sprintf("unknown tag type %q (valid: %s)", tagType, strings.Join(TagTypes, ", ")))
	}
	return c.lookup(byTag[tag]), nil
}

// Search returns the components whose searchable text contains query,
// compared case-insensitively, ordered by id.
func (c *Catalog) Search(query string) []Entry {
	q := strings.ToLower(query)
	matches := make([]Entry, 0)
	for _, e := range c.All() {
		if strings.Contains(e.SearchableText, q) {
			matches = append(matches, e)
		}
	}
	return matches
}

// Pages returns every page ordered by id.
func (c *Catalog) Pages() []PageEntry {
	ids := make([]string, 0, len(c.idx.Pages))
	for id := range c.idx.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pages := make([]PageEntry, len(ids))
	for i, id := range ids {
		pages[i] = c.idx.Pages[id]
	}
	return pages
}

// Page returns the page with the given id.
func (c *Catalog) Page(id string) (PageEntry, bool) {
	p, ok := c.idx.Pages[id]
	return p, ok
}

// PageSections returns the section ids of a page in display order.
func (c *Catalog) PageSections(id string) []string {
	return append([]string{}, c.idx.PageSections[id]...)
}

// PageForSection returns the page a section belongs to.
func (c *Catalog) PageForSection(sectionID string) (string, bool) {
	p, ok := c.idx.SectionToPage[sectionID]
	return p, ok
}

// Categories returns the category names that have at least one entry.
func (c *Catalog) Categories() []string {
	names := make([]string, 0, len(c.idx.Categories))
	for name := range c.idx.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) lookup(ids []string) []Entry {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.idx.Registry[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries
}
