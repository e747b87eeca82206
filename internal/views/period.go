package views

import (
	"fmt"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
)

// Preset names a canonical release period.
type Preset string

const (
	PresetThisWeek  Preset = "this-week"
	PresetLastWeek  Preset = "last-week"
	PresetThisMonth Preset = "this-month"
	PresetCustom    Preset = "custom"
)

// Presets lists the presets RangeFor can compute, in display order.
var Presets = []Preset{PresetThisWeek, PresetLastWeek, PresetThisMonth}

// Range is an inclusive pair of calendar dates (YYYY-MM-DD).
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetThisWeek, PresetLastWeek, PresetThisMonth, PresetCustom:
		return p, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("invalid preset %q (valid: this-week, last-week, this-month, custom)", s))
}

// RangeFor computes the dates of preset relative to now, in now's location.
// Weeks run Monday to Sunday. PresetCustom has no range and returns false.
func RangeFor(preset Preset, now time.Time) (Range, bool) {
	switch preset {
	case PresetThisWeek:
		return weekRange(now), true
	case PresetLastWeek:
		return weekRange(now.AddDate(0, 0, -7)), true
	case PresetThisMonth:
		y, m, _ := now.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return Range{Start: formatDate(first), End: formatDate(last)}, true
	}
	return Range{}, false
}

// ResolvePreset classifies a stored period against the presets as of now.
// An incomplete period resolves to this-week, the wizard's default.
func ResolvePreset(start, end string, now time.Time) Preset {
	if start == "" || end == "" {
		return PresetThisWeek
	}
	for _, p := range Presets {
		if r, _ := RangeFor(p, now); r.Start == start && r.End == end {
			return p
		}
	}
	return PresetCustom
}

func weekRange(t time.Time) Range {
	// Sunday is the last day of the week, not the first
	offset := (int(t.Weekday()) + 6) % 7
	monday := midnight(t).AddDate(0, 0, -offset)
	return Range{Start: formatDate(monday), End: formatDate(monday.AddDate(0, 0, 6))}
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// Bounds converts r to instants in loc: Start at 00:00 and End at the last
// nanosecond of its day.
func (r Range) Bounds(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(model.DateLayout, r.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("start %q is not a YYYY-MM-DD date", r.Start))
	}
	end, err := time.ParseInLocation(model.DateLayout, r.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("end %q is not a YYYY-MM-DD date", r.End))
	}
	return start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// CommitsInRange returns the commits of repoID whose dateTime falls within r
// (inclusive, local to loc), newest first. An empty repoID or range matches nothing.
func CommitsInRange(commits []model.Commit, repoID string, r Range, loc *time.Location) ([]model.Commit, error) {
	out := make([]model.Commit, 0)
	if repoID == "" || r.Start == "" || r.End == "" {
		return out, nil
	}
	start, end, err := r.Bounds(loc)
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		if c.RepoID != repoID {
			continue
		}
		if c.DateTime.Before(start) || c.DateTime.After(end) {
			continue
		}
		out = append(out, c.Clone())
	}
	return CommitFeed(out, nil), nil
}

// CountCommitsInRange counts what CommitsInRange would return.
func CountCommitsInRange(commits []model.Commit, repoID string, r Range, loc *time.Location) (int, error) {
	in, err := CommitsInRange(commits, repoID, r, loc)
	if err != nil {
		return 0, err
	}
	return len(in), nil
}

// PeriodSummary describes a (repository, period) pair for the release wizard.
type PeriodSummary struct {
	RepoID  string `json:"repoId"`
	Preset  Preset `json:"preset"`
	Range   Range  `json:"range"`
	Count   int    `json:"count"`
	Warning bool   `json:"warning"` // no commits in the period
}

// SummarizePeriod resolves the preset of r and counts the repository's commits in it.
func SummarizePeriod(commits []model.Commit, repoID string, r Range, now time.Time) (PeriodSummary, error) {
	count, err := CountCommitsInRange(commits, repoID, r, now.Location())
	if err != nil {
		return PeriodSummary{}, err
	}
	return PeriodSummary{
		RepoID:  repoID,
		Preset:  ResolvePreset(r.Start, r.End, now),
		Range:   r,
		Count:   count,
		Warning: count == 0,
	}, nil
}
