package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/ops"
	"github.com/buriosa/buriosa/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store      *store.Store
	cfg        *config.Config
	logger     *slog.Logger
	exportsDir string
	now        func() time.Time
}

// NewHandlers creates a new Handlers instance. Times are taken in the
// configured timezone; baseDir locates the backup directory.
func NewHandlers(st *store.Store, cfg *config.Config, logger *slog.Logger, baseDir string) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to local timezone", "error", err)
		loc = time.Local
	}
	return &Handlers{
		store:      st,
		cfg:        cfg,
		logger:     logger,
		exportsDir: config.ExportsDir(baseDir),
		now:        func() time.Time { return time.Now().In(loc) },
	}
}

// Request types for each tool

// NoArgsRequest is decoded for tools that take no arguments, so stray
// arguments are still rejected.
type NoArgsRequest struct{}

// IDRequest represents the arguments of tools addressing one entity.
type IDRequest struct {
	ID string `json:"id"`
}

// RepoAddRequest represents the arguments for repo_add.
type RepoAddRequest struct {
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

// RepoUpdateRequest represents the arguments for repo_update.
type RepoUpdateRequest struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`
	Tag  *string `json:"tag,omitempty"`
}

// RepoListRequest represents the arguments for repo_list.
type RepoListRequest struct {
	Query string `json:"query,omitempty"`
}

// CommitAddRequest represents the arguments for commit_add.
type CommitAddRequest struct {
	RepoID      string   `json:"repo_id"`
	Title       string   `json:"title"`
	Body        string   `json:"body,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DateTime    string   `json:"date_time,omitempty"`
	Highlighted bool     `json:"highlighted,omitempty"`
}

// CommitUpdateRequest represents the arguments for commit_update.
type CommitUpdateRequest struct {
	ID          string    `json:"id"`
	RepoID      *string   `json:"repo_id,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Body        *string   `json:"body,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	DateTime    *string   `json:"date_time,omitempty"`
	Highlighted *bool     `json:"highlighted,omitempty"`
}

// CommitFeedRequest represents the arguments for commit_feed.
type CommitFeedRequest struct {
	RepoID string `json:"repo_id,omitempty"`
	All    bool   `json:"all,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ReleaseAddRequest represents the arguments for release_add.
type ReleaseAddRequest struct {
	RepoID      string   `json:"repo_id"`
	Title       string   `json:"title"`
	Version     string   `json:"version,omitempty"`
	Preset      string   `json:"preset,omitempty"`
	PeriodStart string   `json:"period_start,omitempty"`
	PeriodEnd   string   `json:"period_end,omitempty"`
	CommitIDs   []string `json:"commit_ids,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Changelog   string   `json:"changelog,omitempty"`
	Status      string   `json:"status,omitempty"`
	IsPublic    bool     `json:"is_public,omitempty"`
}

// ReleaseUpdateRequest represents the arguments for release_update.
type ReleaseUpdateRequest struct {
	ID          string    `json:"id"`
	Version     *string   `json:"version,omitempty"`
	Title       *string   `json:"title,omitempty"`
	PeriodStart *string   `json:"period_start,omitempty"`
	PeriodEnd   *string   `json:"period_end,omitempty"`
	CommitIDs   *[]string `json:"commit_ids,omitempty"`
	Summary     *string   `json:"summary,omitempty"`
	Changelog   *string   `json:"changelog,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
}

// ReleaseListRequest represents the arguments for release_list.
type ReleaseListRequest struct {
	RepoID string `json:"repo_id,omitempty"`
}

// PeriodSummaryRequest represents the arguments for period_summary.
type PeriodSummaryRequest struct {
	RepoID string `json:"repo_id"`
	Preset string `json:"preset,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// HeatmapRequest represents the arguments for heatmap_get and ui_set_heatmap_mode.
type HeatmapRequest struct {
	Mode string `json:"mode,omitempty"`
}

// SetActiveRepoRequest represents the arguments for ui_set_active_repo.
type SetActiveRepoRequest struct {
	ID *string `json:"id,omitempty"`
}

// RegistrySearchRequest represents the arguments for registry_search.
type RegistrySearchRequest struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	TagType  string `json:"tag_type,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// ExportRequest represents the arguments for state_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for state_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// DeleteResult is returned by the delete tools.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Handler implementations

// HandleRepoAdd handles the repo_add tool call.
func (h *Handlers) HandleRepoAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RepoAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.AddRepo(store.AddRepoInput{Name: input.Name, Tag: input.Tag})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleRepoUpdate handles the repo_update tool call.
func (h *Handlers) HandleRepoUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RepoUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.UpdateRepo(input.ID, store.RepoPatch{Name: input.Name, Tag: input.Tag})
	if err != nil {
		return h.fail(err), nil
	}
	if result == nil {
		return errorResult(errors.NewNotFound("repository", input.ID)), nil
	}
	return successResult(result)
}

// HandleRepoDelete handles the repo_delete tool call.
func (h *Handlers) HandleRepoDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.deleteByID(req, "repository", h.store.DeleteRepo)
}

// HandleRepoList handles the repo_list tool call.
func (h *Handlers) HandleRepoList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RepoListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(ops.ListRepos(h.store, ops.ListReposInput{Query: input.Query}))
}

// HandleCommitAdd handles the commit_add tool call.
func (h *Handlers) HandleCommitAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CommitAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var at time.Time
	if input.DateTime != "" {
		if at, err = h.parseDateTime(input.DateTime); err != nil {
			return errorResult(err), nil
		}
	}

	result, err := h.store.AddCommit(store.AddCommitInput{
		RepoID:        input.RepoID,
		Title:         input.Title,
		Body:          input.Body,
		Tags:          input.Tags,
		DateTime:      at,
		IsHighlighted: input.Highlighted,
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleCommitUpdate handles the commit_update tool call.
func (h *Handlers) HandleCommitUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CommitUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	patch := store.CommitPatch{
		RepoID:        input.RepoID,
		Title:         input.Title,
		Body:          input.Body,
		Tags:          input.Tags,
		IsHighlighted: input.Highlighted,
	}
	if input.DateTime != nil {
		at, err := h.parseDateTime(*input.DateTime)
		if err != nil {
			return errorResult(err), nil
		}
		patch.DateTime = &at
	}

	result, err := h.store.UpdateCommit(input.ID, patch)
	if err != nil {
		return h.fail(err), nil
	}
	if result == nil {
		return errorResult(errors.NewNotFound("commit", input.ID)), nil
	}
	return successResult(result)
}

// HandleCommitDelete handles the commit_delete tool call.
func (h *Handlers) HandleCommitDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.deleteByID(req, "commit", h.store.DeleteCommit)
}

// HandleCommitToggleHighlight handles the commit_toggle_highlight tool call.
func (h *Handlers) HandleCommitToggleHighlight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.actOnID(req, "commit", func(id string) any {
		if c := h.store.ToggleHighlight(id); c != nil {
			return c
		}
		return nil
	})
}

// HandleCommitFeed handles the commit_feed tool call.
func (h *Handlers) HandleCommitFeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CommitFeedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Feed(h.store, ops.FeedInput{
		RepoID: input.RepoID,
		All:    input.All,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleReleaseAdd handles the release_add tool call.
func (h *Handlers) HandleReleaseAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReleaseAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateRelease(h.store, h.now(), ops.CreateReleaseInput{
		RepoID:      input.RepoID,
		Title:       input.Title,
		Version:     input.Version,
		Preset:      input.Preset,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		CommitIDs:   input.CommitIDs,
		Summary:     input.Summary,
		Changelog:   input.Changelog,
		Status:      model.ReleaseStatus(input.Status),
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleReleaseUpdate handles the release_update tool call.
func (h *Handlers) HandleReleaseUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReleaseUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.UpdateRelease(input.ID, store.ReleasePatch{
		Version:     input.Version,
		Title:       input.Title,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		CommitIDs:   input.CommitIDs,
		Summary:     input.Summary,
		Changelog:   input.Changelog,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		return h.fail(err), nil
	}
	if result == nil {
		return errorResult(errors.NewNotFound("release", input.ID)), nil
	}
	return successResult(result)
}

// HandleReleaseDelete handles the release_delete tool call.
func (h *Handlers) HandleReleaseDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.deleteByID(req, "release", h.store.DeleteRelease)
}

// HandleReleasePublish handles the release_publish tool call.
func (h *Handlers) HandleReleasePublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.actOnID(req, "release", func(id string) any {
		if r := h.store.PublishRelease(id); r != nil {
			return r
		}
		return nil
	})
}

// HandleReleaseUnpublish handles the release_unpublish tool call.
func (h *Handlers) HandleReleaseUnpublish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.actOnID(req, "release", func(id string) any {
		if r := h.store.UnpublishRelease(id); r != nil {
			return r
		}
		return nil
	})
}

// HandleReleaseList handles the release_list tool call.
func (h *Handlers) HandleReleaseList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReleaseListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListReleases(h.store, ops.ListReleasesInput{RepoID: input.RepoID})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandlePeriodSummary handles the period_summary tool call.
func (h *Handlers) HandlePeriodSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PeriodSummaryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Period(h.store, h.now(), ops.PeriodInput{
		RepoID: input.RepoID,
		Preset: input.Preset,
		Start:  input.Start,
		End:    input.End,
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleHeatmapGet handles the heatmap_get tool call.
func (h *Handlers) HandleHeatmapGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HeatmapRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Heatmap(h.store, h.now(), ops.HeatmapInput{Mode: input.Mode})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleSetActiveRepo handles the ui_set_active_repo tool call.
func (h *Handlers) HandleSetActiveRepo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetActiveRepoRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID != nil && strings.TrimSpace(*input.ID) == "" {
		input.ID = nil
	}

	if err := h.store.SetActiveRepo(input.ID); err != nil {
		return h.fail(err), nil
	}
	return successResult(map[string]any{"activeRepoId": input.ID})
}

// HandleSetHeatmapMode handles the ui_set_heatmap_mode tool call.
func (h *Handlers) HandleSetHeatmapMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HeatmapRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode := model.HeatmapMode(input.Mode)
	if err := h.store.SetHeatmapMode(mode); err != nil {
		return h.fail(err), nil
	}
	return successResult(map[string]any{"heatmapMode": mode})
}

// HandleCompleteOnboarding handles the ui_complete_onboarding tool call.
func (h *Handlers) HandleCompleteOnboarding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[NoArgsRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	h.store.CompleteOnboarding()
	return successResult(map[string]any{"hasCompletedOnboarding": true})
}

// HandleDemoLoad handles the demo_load tool call.
func (h *Handlers) HandleDemoLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[NoArgsRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	s := h.store.LoadDemoData()
	return successResult(map[string]any{
		"repos":        len(s.Repos),
		"commits":      len(s.Commits),
		"activeRepoId": s.ActiveRepoID,
	})
}

// HandleRegistrySearch handles the registry_search tool call.
func (h *Handlers) HandleRegistrySearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RegistrySearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchRegistry(ops.SearchRegistryInput{
		Dir:      h.cfg.RegistryOutputDir,
		Query:    input.Query,
		Category: input.Category,
		TagType:  input.TagType,
		Tag:      input.Tag,
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleExport handles the state_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.now(), ops.ExportInput{Dir: h.exportsDir, Path: input.Path})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// HandleImport handles the state_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.store, ops.ImportInput{
		Dir:  h.exportsDir,
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(result)
}

// Shared handler shapes

func (h *Handlers) deleteByID(req mcp.CallToolRequest, kind string, del func(string) bool) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	if !del(input.ID) {
		return errorResult(errors.NewNotFound(kind, input.ID)), nil
	}
	return successResult(DeleteResult{ID: input.ID, Deleted: true})
}

// actOnID runs act for the entity with the requested id. act returns nil
// when the entity does not exist.
func (h *Handlers) actOnID(req mcp.CallToolRequest, kind string, act func(string) any) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := requireID(input.ID); err != nil {
		return errorResult(err), nil
	}

	result := act(input.ID)
	if result == nil {
		return errorResult(errors.NewNotFound(kind, input.ID)), nil
	}
	return successResult(result)
}

func (h *Handlers) parseDateTime(s string) (time.Time, error) {
	at, err := model.ParseDateTime(s, h.now().Location())
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(err.Error())
	}
	return at, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("id is required")
	}
	return nil
}

// Result helpers

// fail logs unexpected errors before converting them.
func (h *Handlers) fail(err error) *mcp.CallToolResult {
	var be *errors.BuriosaError
	if !stderrors.As(err, &be) || be.Code == errors.ErrInternal {
		h.logger.Error("tool call failed", "error", err)
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var be *errors.BuriosaError
	if stderrors.As(err, &be) {
		errorObj := map[string]any{
			"code":    be.Code,
			"message": be.Message,
			"status":  be.Status,
		}
		if be.Code != errors.ErrInternal && be.Details != nil {
			errorObj["details"] = be.Details
		}
		if be.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
