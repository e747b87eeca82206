package ops

import (
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/registry"
)

// SearchRegistryInput contains parameters for SearchRegistry.
type SearchRegistryInput struct {
	Dir      string // directory holding the built artifacts
	Query    string
	Category string
	TagType  string
	Tag      string
}

// SearchRegistryOutput contains the result of SearchRegistry.
type SearchRegistryOutput struct {
	Entries []registry.Entry `json:"entries"`
	Count   int              `json:"count"`
}

// SearchRegistry loads the catalog from Dir and returns the components
// matching every given filter.
func SearchRegistry(input SearchRegistryInput) (*SearchRegistryOutput, error) {
	if (input.TagType == "") != (input.Tag == "") {
		return nil, errors.NewInvalidRequest("tag type and tag must be given together")
	}

	catalog, err := registry.LoadCatalog(input.Dir)
	if err != nil {
		return nil, err
	}

	var tagged map[string]bool
	if input.Tag != "" {
		byTag, err := catalog.ByTag(input.TagType, input.Tag)
		if err != nil {
			return nil, err
		}
		tagged = make(map[string]bool, len(byTag))
		for _, e := range byTag {
			tagged[e.ID] = true
		}
	}

	entries := make([]registry.Entry, 0)
	for _, e := range catalog.Search(input.Query) {
		if input.Category != "" && e.Category != input.Category {
			continue
		}
		if tagged != nil && !tagged[e.ID] {
			continue
		}
		entries = append(entries, e)
	}

	return &SearchRegistryOutput{Entries: entries, Count: len(entries)}, nil
}
