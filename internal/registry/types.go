// Package registry builds and queries the component catalog described by
// per-component metadata.yaml files.
package registry

// SchemaVersion is the only metadata schema version accepted.
const SchemaVersion = "2.0"

// MetadataFile is the per-component declaration file name.
const MetadataFile = "metadata.yaml"

// CategoryPage marks a composite page rather than a section component.
const CategoryPage = "page"

var Categories = []string{
	"hero", "stats", "testimonial", "pricing", "cta", "contact", "faq",
	"how-it-works", "biography", "before-after", "feature-showcase", "header",
	"footer", "gallery", "team", "logo-cloud", "newsletter", "waitlist",
	CategoryPage, "other",
}

var FunctionalTags = []string{
	"carousel", "slider", "tabs", "accordion", "modal", "dropdown", "toggle",
	"counter", "progress", "animation", "hover-effect", "scroll-animation",
	"auto-play", "email-capture", "lead-capture", "newsletter", "contact-form",
	"search", "filter", "pagination", "infinite-scroll", "drag-drop", "video",
	"audio", "map",
}

var StyleTags = []string{
	"dark-theme", "light-theme", "minimal", "modern", "retro", "elegant",
	"playful", "corporate", "bold", "gradient", "glassmorphism", "neumorphism",
	"glow", "shadow", "blur", "monochrome", "colorful", "neon", "pastel",
	"serif", "sans-serif", "handwritten",
}

var LayoutTags = []string{
	"single-column", "two-column", "three-column", "four-column", "centered",
	"left-aligned", "right-aligned", "split-layout", "card-grid", "masonry",
	"bento", "stack", "inline", "full-width", "contained", "asymmetric",
	"responsive", "mobile-first",
}

var IndustryTags = []string{
	"saas", "fintech", "e-commerce", "healthcare", "education", "creative",
	"portfolio", "agency", "startup", "enterprise", "personal", "blog", "news",
	"social", "gaming", "real-estate", "travel", "food", "fashion", "music",
	"ai", "crypto", "nft",
}

var (
	Statuses    = []string{"draft", "stable", "deprecated"}
	Languages   = []string{"en", "ko"}
	PageTypes   = []string{"landing", "lead-capture", "auth", "other"}
	SourceTypes = []string{"url", "image", "manual", "framer"}
)

// TagTypes lists the four tag dimensions in index order.
var TagTypes = []string{"functional", "style", "layout", "industry"}

const (
	defaultStatus   = "draft"
	defaultLanguage = "ko"
)

type Images struct {
	Preview   string `yaml:"preview,omitempty" json:"preview,omitempty"`
	Thumbnail string `yaml:"thumbnail,omitempty" json:"thumbnail,omitempty"`
}

type Description struct {
	Short    string `yaml:"short,omitempty" json:"short,omitempty"`
	Detailed string `yaml:"detailed,omitempty" json:"detailed,omitempty"`
}

// Tags groups the four structured tag lists.
type Tags struct {
	Functional []string `yaml:"functional" json:"functional"`
	Style      []string `yaml:"style" json:"style"`
	Layout     []string `yaml:"layout" json:"layout"`
	Industry   []string `yaml:"industry" json:"industry"`
}

// byType returns the list for one of TagTypes.
func (t *Tags) byType(tagType string) []string {
	switch tagType {
	case "functional":
		return t.Functional
	case "style":
		return t.Style
	case "layout":
		return t.Layout
	case "industry":
		return t.Industry
	}
	return nil
}

func (t Tags) normalized() Tags {
	return Tags{
		Functional: nonNil(t.Functional),
		Style:      nonNil(t.Style),
		Layout:     nonNil(t.Layout),
		Industry:   nonNil(t.Industry),
	}
}

// Source records where a component design came from.
type Source struct {
	Type         string `yaml:"type" json:"type"`
	URL          string `yaml:"url,omitempty" json:"url,omitempty"`
	ScrapedAt    string `yaml:"scrapedAt,omitempty" json:"scrapedAt,omitempty"`
	SectionIndex *int   `yaml:"sectionIndex,omitempty" json:"sectionIndex,omitempty"`
}

// Section is one ordered slot of a page.
type Section struct {
	ID       string `yaml:"id" json:"id"`
	Category string `yaml:"category" json:"category"`
	Order    int    `yaml:"order" json:"order"`
}

type Typography struct {
	HeadingFont *string `yaml:"headingFont" json:"headingFont"`
	BodyFont    *string `yaml:"bodyFont" json:"bodyFont"`
}

type PageInfo struct {
	TotalSections   *int        `yaml:"totalSections" json:"totalSections"`
	EstimatedHeight *int        `yaml:"estimatedHeight,omitempty" json:"estimatedHeight,omitempty"`
	PrimaryColors   []string    `yaml:"primaryColors,omitempty" json:"primaryColors,omitempty"`
	Typography      *Typography `yaml:"typography,omitempty" json:"typography,omitempty"`
}

// Metadata is the decoded content of a metadata.yaml file, for both section
// components and pages. Page-only fields are empty for components and
// component-only fields are cleared for pages.
type Metadata struct {
	SchemaVersion    string       `yaml:"schemaVersion"`
	Name             string       `yaml:"name"`
	Category         string       `yaml:"category"`
	PageType         string       `yaml:"pageType,omitempty"`
	Images           *Images      `yaml:"images,omitempty"`
	Title            string       `yaml:"title,omitempty"`
	Description      *Description `yaml:"description,omitempty"`
	Tags             *Tags        `yaml:"tags,omitempty"`
	FreeformKeywords []string     `yaml:"freeformKeywords,omitempty"`
	FontFamily       []string     `yaml:"fontFamily,omitempty"`
	ParentPage       string       `yaml:"parentPage,omitempty"`
	Source           *Source      `yaml:"source,omitempty"`
	Sections         []Section    `yaml:"sections,omitempty"`
	PageInfo         *PageInfo    `yaml:"pageInfo,omitempty"`
	CreatedAt        string       `yaml:"createdAt,omitempty"`
	Status           string       `yaml:"status,omitempty"`
	Language         string       `yaml:"language,omitempty"`
	Draft            bool         `yaml:"draft,omitempty"`
}

// IsPage reports whether m describes a page.
func (m *Metadata) IsPage() bool {
	return m.Category == CategoryPage
}

// Entry is a built catalog item as written to registry.json.
type Entry struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Category         string       `json:"category"`
	Images           Images       `json:"images"`
	Title            string       `json:"title,omitempty"`
	Description      *Description `json:"description,omitempty"`
	Tags             Tags         `json:"tags"`
	FreeformKeywords []string     `json:"freeformKeywords"`
	SearchableText   string       `json:"searchableText"`
	FontFamily       []string     `json:"fontFamily"`
	ComponentPath    string       `json:"componentPath"`
	ParentPage       string       `json:"parentPage,omitempty"`
	Source           *Source      `json:"source,omitempty"`
	CreatedAt        string       `json:"createdAt,omitempty"`
	Status           string       `json:"status"`
	Language         string       `json:"language"`
}

// PageEntry is a built page as written to page-registry.json.
type PageEntry struct {
	Entry
	PageType string    `json:"pageType"`
	Sections []Section `json:"sections"`
	PageInfo *PageInfo `json:"pageInfo,omitempty"`
}

// IndexItem is the lightweight listing written to index.json.
type IndexItem struct {
	SchemaVersion    string      `json:"schemaVersion"`
	Name             string      `json:"name"`
	Category         string      `json:"category"`
	Images           Images      `json:"images"`
	Description      Description `json:"description"`
	CreatedAt        string      `json:"createdAt,omitempty"`
	Status           string      `json:"status"`
	Language         string      `json:"language"`
	FreeformKeywords []string    `json:"freeformKeywords"`
	FontFamily       []string    `json:"fontFamily"`
	Tags             Tags        `json:"tags"`
}

// TagIndex maps tag type to tag to entry names.
type TagIndex struct {
	Functional map[string][]string `json:"functional"`
	Style      map[string][]string `json:"style"`
	Layout     map[string][]string `json:"layout"`
	Industry   map[string][]string `json:"industry"`
}

func newTagIndex() TagIndex {
	return TagIndex{
		Functional: map[string][]string{},
		Style:      map[string][]string{},
		Layout:     map[string][]string{},
		Industry:   map[string][]string{},
	}
}

func (t TagIndex) byType(tagType string) map[string][]string {
	switch tagType {
	case "functional":
		return t.Functional
	case "style":
		return t.Style
	case "layout":
		return t.Layout
	case "industry":
		return t.Industry
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
