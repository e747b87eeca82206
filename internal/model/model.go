package model

import "time"

// HeatmapMode selects which commits feed the heatmap.
type HeatmapMode string

const (
	HeatmapAll  HeatmapMode = "all"
	HeatmapRepo HeatmapMode = "repo"
)

// Valid reports whether m is a known heatmap mode.
func (m HeatmapMode) Valid() bool {
	return m == HeatmapAll || m == HeatmapRepo
}

// ReleaseStatus is the lifecycle state of a release.
type ReleaseStatus string

const (
	StatusDraft     ReleaseStatus = "draft"
	StatusPublished ReleaseStatus = "published"
)

// Valid reports whether s is a known release status.
func (s ReleaseStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Repository is a named bucket of activity, e.g. "Career" or "Fitness".
type Repository struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Commit is one logged event belonging to a repository.
//
// RepoName is a display copy of the parent repository name taken when the
// commit is created or edited. Renaming the repository does not rewrite it.
type Commit struct {
	ID            string    `json:"id"`
	RepoID        string    `json:"repoId"`
	RepoName      string    `json:"repoName"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Tags          []string  `json:"tags"`
	DateTime      time.Time `json:"dateTime"`
	IsHighlighted bool      `json:"isHighlighted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DateLayout is the layout of calendar dates such as release periods.
const DateLayout = "2006-01-02"

// Release packages the commits of a period into a shareable snapshot.
// PeriodStart and PeriodEnd are local calendar dates (YYYY-MM-DD).
type Release struct {
	ID          string        `json:"id"`
	RepoID      string        `json:"repoId"`
	RepoName    string        `json:"repoName"`
	Version     string        `json:"version"`
	Title       string        `json:"title"`
	PeriodStart string        `json:"periodStart"`
	PeriodEnd   string        `json:"periodEnd"`
	CommitIDs   []string      `json:"commitIds"`
	Summary     string        `json:"summary"`
	Changelog   string        `json:"changelog"`
	Attachments []Attachment  `json:"attachments"`
	Status      ReleaseStatus `json:"status"`
	IsPublic    bool          `json:"isPublic"`
	ShareSlug   string        `json:"shareSlug"`
	IsLatest    bool          `json:"isLatest"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	PublishedAt *time.Time    `json:"publishedAt"`
}

// SortTime is the timestamp releases are ordered by: publishedAt if set, else createdAt.
func (r *Release) SortTime() time.Time {
	if r.PublishedAt != nil {
		return *r.PublishedAt
	}
	return r.CreatedAt
}

// State is the whole application aggregate and the unit of persistence.
type State struct {
	Repos                  []Repository `json:"repos"`
	Commits                []Commit     `json:"commits"`
	Releases               []Release    `json:"releases"`
	ActiveRepoID           *string      `json:"activeRepoId"`
	HeatmapMode            HeatmapMode  `json:"heatmapMode"`
	HasCompletedOnboarding bool         `json:"hasCompletedOnboarding"`
}

// InitialState returns the empty first-run state.
func InitialState() State {
	return State{
		Repos:       []Repository{},
		Commits:     []Commit{},
		Releases:    []Release{},
		HeatmapMode: HeatmapAll,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Repos:                  make([]Repository, len(s.Repos)),
		Commits:                make([]Commit, len(s.Commits)),
		Releases:               make([]Release, len(s.Releases)),
		HeatmapMode:            s.HeatmapMode,
		HasCompletedOnboarding: s.HasCompletedOnboarding,
	}
	copy(out.Repos, s.Repos)
	for i, c := range s.Commits {
		out.Commits[i] = c.Clone()
	}
	for i, r := range s.Releases {
		out.Releases[i] = r.Clone()
	}
	if s.ActiveRepoID != nil {
		id := *s.ActiveRepoID
		out.ActiveRepoID = &id
	}
	return out
}

// Clone returns a deep copy of c.
func (c Commit) Clone() Commit {
	c.Tags = cloneStrings(c.Tags)
	return c
}

// Clone returns a deep copy of r.
func (r Release) Clone() Release {
	r.CommitIDs = cloneStrings(r.CommitIDs)
	if r.Attachments != nil {
		r.Attachments = append([]Attachment{}, r.Attachments...)
	}
	if r.PublishedAt != nil {
		t := *r.PublishedAt
		r.PublishedAt = &t
	}
	return r
}

// Normalized fills nil slices and an empty heatmap mode so a state decoded
// from storage behaves like one built in memory.
func (s State) Normalized() State {
	if s.Repos == nil {
		s.Repos = []Repository{}
	}
	if s.Commits == nil {
		s.Commits = []Commit{}
	}
	if s.Releases == nil {
		s.Releases = []Release{}
	}
	for i := range s.Commits {
		if s.Commits[i].Tags == nil {
			s.Commits[i].Tags = []string{}
		}
	}
	for i := range s.Releases {
		if s.Releases[i].CommitIDs == nil {
			s.Releases[i].CommitIDs = []string{}
		}
		if s.Releases[i].Attachments == nil {
			s.Releases[i].Attachments = []Attachment{}
		}
		if s.Releases[i].Status == "" {
			s.Releases[i].Status = StatusDraft
		}
	}
	if !s.HeatmapMode.Valid() {
		s.HeatmapMode = HeatmapAll
	}
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}
