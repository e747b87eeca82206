// Package views derives read-only projections of the state: heatmap, feed,
// release ordering and period presets. Every function is pure in (state, now).
package views

import (
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

const (
	HeatmapWeeks = 52
	HeatmapDays  = 7
	HeatmapCells = HeatmapWeeks * HeatmapDays

	// MaxIntensity is the saturation level of a heatmap cell.
	MaxIntensity = 4
)

// Heatmap is the trailing 364-day activity grid. Cells[0] is Start and
// Cells[HeatmapCells-1] is the day of now.
type Heatmap struct {
	Cells []int     `json:"cells"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Total counts every filtered commit, including those outside the window.
	Total    int `json:"total"`
	InWindow int `json:"inWindow"`
}

// BuildHeatmap buckets commits by local calendar day in now's location.
// In repo mode only commits of activeRepoID count; with no active repository
// repo mode shows everything, like all mode.
func BuildHeatmap(commits []model.Commit, mode model.HeatmapMode, activeRepoID *string, now time.Time) Heatmap {
	loc := now.Location()
	end := midnight(now)
	start := end.AddDate(0, 0, -(HeatmapCells - 1))

	h := Heatmap{
		Cells: make([]int, HeatmapCells),
		Start: start,
		End:   end,
	}

	filterRepo := mode == model.HeatmapRepo && activeRepoID != nil
	for i := range commits {
		c := &commits[i]
		if filterRepo && c.RepoID != *activeRepoID {
			continue
		}
		h.Total++

		idx := daysBetween(start, c.DateTime.In(loc))
		if idx < 0 || idx >= HeatmapCells {
			continue
		}
		h.InWindow++
		if h.Cells[idx] < MaxIntensity {
			h.Cells[idx]++
		}
	}

	return h
}

// Level returns the intensity of the cell for day t, or -1 outside the window.
func (h Heatmap) Level(t time.Time) int {
	idx := daysBetween(h.Start, t.In(h.Start.Location()))
	if idx < 0 || idx >= len(h.Cells) {
		return -1
	}
	return h.Cells[idx]
}

// midnight returns 00:00 of t's calendar day in t's location.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from from's date to to's date, so a DST
// transition never splits or merges a day.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
