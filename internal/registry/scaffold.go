package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	bterrors "github.com/buriosa/buriosa/internal/errors"
)

var kebabPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// DefaultFontFamily is used when ScaffoldInput.FontFamily is empty.
const DefaultFontFamily = "Inter"

// placeholderShort is written into new metadata for the author to replace.
const placeholderShort = "TODO: short description (150 chars max)"

// ScaffoldInput contains parameters for Scaffold.
type ScaffoldInput struct {
	RegistryDir string
	Name        string
	Category    string
	ImagePath   string
	Keywords    []string
	FontFamily  []string
	Force       bool
	Now         time.Time
}

// ScaffoldOutput contains the result of Scaffold.
type ScaffoldOutput struct {
	Dir          string `json:"dir"`
	MetadataPath string `json:"metadataPath"`
	Overwritten  bool   `json:"overwritten,omitempty"`
}

// scaffoldMetadata fixes the field order of a new metadata.yaml.
type scaffoldMetadata struct {
	SchemaVersion    string      `yaml:"schemaVersion"`
	Name             string      `yaml:"name"`
	Category         string      `yaml:"category"`
	Images           Images      `yaml:"images"`
	Description      Description `yaml:"description"`
	Tags             Tags        `yaml:"tags"`
	FreeformKeywords []string    `yaml:"freeformKeywords"`
	FontFamily       []string    `yaml:"fontFamily"`
	CreatedAt        string      `yaml:"createdAt"`
	Status           string      `yaml:"status"`
	Language         string      `yaml:"language"`
}

// Scaffold creates RegistryDir/Name/metadata.yaml for a new draft component.
// A non-empty existing directory is a CONFLICT unless Force is set.
func Scaffold(input ScaffoldInput) (*ScaffoldOutput, error) {
	if !kebabPattern.MatchString(input.Name) {
		return nil, bterrors.NewInvalidRequest(fmt.Sprintf("%q is not valid kebab-case", input.Name))
	}
	if !contains(Categories, input.Category) {
		return nil, bterrors.NewInvalidRequest(fmt.Sprintf("unknown category %q", input.Category))
	}
	if strings.TrimSpace(input.ImagePath) == "" {
		return nil, bterrors.NewInvalidRequest("image path is required")
	}

	keywords := cleanList(input.Keywords)
	if len(keywords) == 0 {
		return nil, bterrors.NewInvalidRequest("at least one keyword is required")
	}
	fonts := cleanList(input.FontFamily)
	if len(fonts) == 0 {
		fonts = []string{DefaultFontFamily}
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	dir := filepath.Join(input.RegistryDir, input.Name)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read component directory: %w", err)
	}
	if len(entries) > 0 && !input.Force {
		return nil, bterrors.NewConflict(fmt.Sprintf("directory already exists and is not empty: %s (use force to overwrite)", dir))
	}

	data, err := encodeScaffold(scaffoldMetadata{
		SchemaVersion:    SchemaVersion,
		Name:             input.Name,
		Category:         input.Category,
		Images:           Images{Preview: strings.TrimSpace(input.ImagePath)},
		Description:      Description{Short: placeholderShort},
		Tags:             Tags{}.normalized(),
		FreeformKeywords: keywords,
		FontFamily:       fonts,
		CreatedAt:        now.UTC().Format("2006-01-02T15:04:05Z"),
		Status:           defaultStatus,
		Language:         "en",
	})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create component directory: %w", err)
	}
	path := filepath.Join(dir, MetadataFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", MetadataFile, err)
	}

	return &ScaffoldOutput{Dir: dir, MetadataPath: path, Overwritten: len(entries) > 0}, nil
}

func encodeScaffold(m scaffoldMetadata) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// cleanList trims items and drops empty ones.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitCSV splits a comma-separated flag value into trimmed, non-empty items.
func SplitCSV(s string) []string {
	return cleanList(strings.Split(s, ","))
}
