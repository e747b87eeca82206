package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	bterrors "github.com/buriosa/buriosa/internal/errors"
)

// MaxShortDescription is the rune limit of description.short.
const MaxShortDescription = 150

var namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ParseMetadata decodes and validates one metadata.yaml document.
// The category field selects the page or the component rules. On success
// issues is empty and defaults are applied; page documents have their
// component-only fields cleared.
func ParseMetadata(data []byte) (*Metadata, []string) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []string{fmt.Sprintf("invalid YAML: %v", err)}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, []string{"invalid YAML format: file is empty or not an object"}
	}
	root := doc.Content[0]

	var issues []string
	var m Metadata
	if err := root.Decode(&m); err != nil {
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return nil, []string{fmt.Sprintf("invalid YAML: %v", err)}
		}
		issues = append(issues, typeErr.Errors...)
	}

	// An unquoted 2.0 is a float, not the version string
	if n := mappingValue(root, "schemaVersion"); n != nil && n.Tag != "!!str" {
		issues = append(issues, fmt.Sprintf("schemaVersion: must be the string %q", SchemaVersion))
	} else {
		issues = append(issues, validateMetadata(&m)...)
	}

	if len(issues) > 0 {
		return nil, issues
	}

	if m.Status == "" {
		m.Status = defaultStatus
	}
	if m.Language == "" {
		m.Language = defaultLanguage
	}
	if m.IsPage() {
		m.FreeformKeywords = nil
		m.FontFamily = nil
		m.ParentPage = ""
	}
	return &m, nil
}

// validateMetadata checks the decoded fields against the component or page rules.
func validateMetadata(m *Metadata) []string {
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if m.SchemaVersion != SchemaVersion {
		add("schemaVersion: must be %q", SchemaVersion)
	}
	if !namePattern.MatchString(m.Name) {
		add("name: must be kebab-case (lowercase letters, digits and dashes)")
	}
	if !contains(Categories, m.Category) {
		add("category: invalid value %q", m.Category)
	}

	if m.IsPage() {
		if !contains(PageTypes, m.PageType) {
			add("pageType: invalid value %q (valid: %s)", m.PageType, strings.Join(PageTypes, ", "))
		}
		for i, s := range m.Sections {
			if s.ID == "" {
				add("sections[%d].id: required", i)
			}
			if !contains(Categories, s.Category) {
				add("sections[%d].category: invalid value %q", i, s.Category)
			}
			if s.Order < 0 {
				add("sections[%d].order: must be >= 0", i)
			}
		}
		if pi := m.PageInfo; pi != nil {
			if pi.TotalSections == nil {
				add("pageInfo.totalSections: required")
			} else if *pi.TotalSections <= 0 {
				add("pageInfo.totalSections: must be > 0")
			}
			if pi.EstimatedHeight != nil && *pi.EstimatedHeight <= 0 {
				add("pageInfo.estimatedHeight: must be > 0")
			}
			if ty := pi.Typography; ty != nil {
				if ty.HeadingFont == nil {
					add("pageInfo.typography.headingFont: required")
				}
				if ty.BodyFont == nil {
					add("pageInfo.typography.bodyFont: required")
				}
			}
		}
	}

	if d := m.Description; d != nil && utf8.RuneCountInString(d.Short) > MaxShortDescription {
		add("description.short: must be at most %d characters", MaxShortDescription)
	}

	if t := m.Tags; t != nil {
		checkTags := func(tagType string, allowed []string) {
			for i, tag := range t.byType(tagType) {
				if !contains(allowed, tag) {
					add("tags.%s[%d]: invalid value %q", tagType, i, tag)
				}
			}
		}
		checkTags("functional", FunctionalTags)
		checkTags("style", StyleTags)
		checkTags("layout", LayoutTags)
		checkTags("industry", IndustryTags)
	}

	if src := m.Source; src != nil {
		if !contains(SourceTypes, src.Type) {
			add("source.type: invalid value %q (valid: %s)", src.Type, strings.Join(SourceTypes, ", "))
		}
		if src.URL != "" && !isAbsoluteURL(src.URL) {
			add("source.url: invalid url")
		}
		if src.ScrapedAt != "" && !isDatetime(src.ScrapedAt) {
			add("source.scrapedAt: invalid datetime")
		}
		if src.SectionIndex != nil && *src.SectionIndex < 0 {
			add("source.sectionIndex: must be >= 0")
		}
	}

	if m.CreatedAt != "" && !isDatetime(m.CreatedAt) {
		add("createdAt: invalid datetime")
	}
	if m.Status != "" && !contains(Statuses, m.Status) {
		add("status: invalid value %q (valid: %s)", m.Status, strings.Join(Statuses, ", "))
	}
	if m.Language != "" && !contains(Languages, m.Language) {
		add("language: invalid value %q (valid: %s)", m.Language, strings.Join(Languages, ", "))
	}

	return issues
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// isDatetime accepts RFC 3339 UTC timestamps ending in Z, with optional
// fractional seconds.
func isDatetime(s string) bool {
	if !strings.HasSuffix(s, "Z") {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// FileResult is the validation outcome of one component directory.
type FileResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	IsPage bool     `json:"isPage,omitempty"`
	Draft  bool     `json:"draft,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// ValidateOutput contains the results of Validate.
type ValidateOutput struct {
	Results []FileResult `json:"results"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}

// Validate checks every metadata.yaml under registryDir without building.
// Directories without a metadata file are not listed.
func Validate(ctx context.Context, registryDir string) (*ValidateOutput, error) {
	dirs, err := componentDirs(registryDir)
	if err != nil {
		return nil, err
	}

	out := &ValidateOutput{Results: make([]FileResult, 0, len(dirs))}
	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(registryDir, name, MetadataFile)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		res := FileResult{Name: name, Path: path}
		if err != nil {
			res.Issues = []string{fmt.Sprintf("failed to read file: %v", err)}
		} else if m, issues := ParseMetadata(data); len(issues) > 0 {
			res.Issues = issues
		} else {
			res.Valid = true
			res.IsPage = m.IsPage()
			res.Draft = m.Draft
		}

		if res.Valid {
			out.Valid++
		} else {
			out.Invalid++
		}
		out.Results = append(out.Results, res)
	}

	return out, nil
}

// InvalidNames lists the components that failed validation.
func (o *ValidateOutput) InvalidNames() []string {
	names := make([]string, 0, o.Invalid)
	for _, r := range o.Results {
		if !r.Valid {
			names = append(names, r.Name)
		}
	}
	return names
}

// Err returns a REGISTRY_INVALID error when any file failed validation.
func (o *ValidateOutput) Err() error {
	if o.Invalid == 0 {
		return nil
	}
	return bterrors.NewRegistryInvalid(o.InvalidNames())
}

// componentDirs lists the subdirectories of registryDir in lexical order.
func componentDirs(registryDir string) ([]string, error) {
	info, err := os.Stat(registryDir)
	if err != nil || !info.IsDir() {
		return nil, bterrors.NewNotFound("registry directory", registryDir)
	}

	entries, err := os.ReadDir(registryDir)
	if err != nil {
		return nil, fmt.Errorf("read registry directory: %w", err)
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	// os.ReadDir already sorts by name
	return dirs, nil
}
