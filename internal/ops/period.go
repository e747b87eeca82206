package ops

import (
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// PeriodInput contains parameters for Period.
type PeriodInput struct {
	RepoID string
	Preset string // default: this-week; ignored when Start and End are set
	Start  string
	End    string
}

// PeriodOutput contains the result of Period.
type PeriodOutput struct {
	views.PeriodSummary
	Commits []model.Commit `json:"commits"`
}

// Period summarizes a repository's commits within a preset or custom period.
func Period(st *store.Store, now time.Time, input PeriodInput) (*PeriodOutput, error) {
	repo, err := requireRepo(st, input.RepoID)
	if err != nil {
		return nil, err
	}
	r, err := resolveRange(input.Preset, input.Start, input.End, now)
	if err != nil {
		return nil, err
	}

	commits := st.Snapshot().Commits
	summary, err := views.SummarizePeriod(commits, repo.ID, r, now)
	if err != nil {
		return nil, err
	}
	in, err := views.CommitsInRange(commits, repo.ID, r, now.Location())
	if err != nil {
		return nil, err
	}

	return &PeriodOutput{PeriodSummary: summary, Commits: in}, nil
}

// resolveRange picks explicit dates when given, otherwise the preset's range.
func resolveRange(preset, start, end string, now time.Time) (views.Range, error) {
	if start != "" || end != "" {
		if start == "" || end == "" {
			return views.Range{}, errors.NewInvalidRequest("both start and end are required for a custom period")
		}
		r := views.Range{Start: start, End: end}
		s, e, err := r.Bounds(now.Location())
		if err != nil {
			return views.Range{}, err
		}
		if e.Before(s) {
			return views.Range{}, errors.NewInvalidRequest("period end is before its start")
		}
		return r, nil
	}

	p := views.PresetThisWeek
	if preset != "" {
		var err error
		if p, err = views.ParsePreset(preset); err != nil {
			return views.Range{}, err
		}
	}
	r, ok := views.RangeFor(p, now)
	if !ok {
		return views.Range{}, errors.NewInvalidRequest("a custom period needs start and end dates")
	}
	return r, nil
}
