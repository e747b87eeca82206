package ops

import (
	"fmt"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/views"
)

// HeatmapInput contains parameters for Heatmap.
type HeatmapInput struct {
	Mode string // empty means the stored heatmap mode
}

// HeatmapOutput contains the result of Heatmap.
type HeatmapOutput struct {
	Mode         model.HeatmapMode `json:"mode"`
	ActiveRepoID *string           `json:"activeRepoId"`
	views.Heatmap
}

// Heatmap buckets the commits of the trailing 52 weeks ending on now's day.
func Heatmap(st *store.Store, now time.Time, input HeatmapInput) (*HeatmapOutput, error) {
	s := st.Snapshot()

	mode := s.HeatmapMode
	if input.Mode != "" {
		mode = model.HeatmapMode(input.Mode)
		if !mode.Valid() {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid heatmap mode %q (valid: all, repo)", input.Mode))
		}
	}

	return &HeatmapOutput{
		Mode:         mode,
		ActiveRepoID: s.ActiveRepoID,
		Heatmap:      views.BuildHeatmap(s.Commits, mode, s.ActiveRepoID, now),
	}, nil
}
