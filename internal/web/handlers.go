package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/ops"
	"github.com/buriosa/buriosa/internal/registry"
	"github.com/buriosa/buriosa/internal/store"
)

// Handlers contains the HTTP route handlers.
type Handlers struct {
	store    *store.Store
	cfg      *config.Config
	logger   *slog.Logger
	renderer *Renderer
	now      func() time.Time
}

// Request bodies. Field names follow the persisted camelCase JSON.

type commitBody struct {
	RepoID        string   `json:"repoId"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Tags          []string `json:"tags"`
	DateTime      string   `json:"dateTime"`
	IsHighlighted bool     `json:"isHighlighted"`
}

type commitPatchBody struct {
	RepoID        *string   `json:"repoId"`
	Title         *string   `json:"title"`
	Body          *string   `json:"body"`
	Tags          *[]string `json:"tags"`
	DateTime      *string   `json:"dateTime"`
	IsHighlighted *bool     `json:"isHighlighted"`
}

type releaseBody struct {
	RepoID      string             `json:"repoId"`
	Title       string             `json:"title"`
	Version     string             `json:"version"`
	Preset      string             `json:"preset"`
	PeriodStart string             `json:"periodStart"`
	PeriodEnd   string             `json:"periodEnd"`
	CommitIDs   []string           `json:"commitIds"`
	Summary     string             `json:"summary"`
	Changelog   string             `json:"changelog"`
	Attachments []model.Attachment `json:"attachments"`
	Status      string             `json:"status"`
	IsPublic    bool               `json:"isPublic"`
}

type activeRepoBody struct {
	ID *string `json:"id"`
}

type heatmapModeBody struct {
	Mode string `json:"mode"`
}

// HandleState handles GET /api/state, the whole persisted aggregate.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleListRepos handles GET /api/repos?q=.
func (h *Handlers) HandleListRepos(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.ListRepos(h.store, ops.ListReposInput{Query: r.URL.Query().Get("q")}))
}

// HandleAddRepo handles POST /api/repos.
func (h *Handlers) HandleAddRepo(w http.ResponseWriter, r *http.Request) {
	var input store.AddRepoInput
	if err := decodeBody(w, r, &input); err != nil {
		h.renderError(w, r, err)
		return
	}

	repo, err := h.store.AddRepo(input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, repo)
}

// HandleUpdateRepo handles PATCH /api/repos/{id}.
func (h *Handlers) HandleUpdateRepo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch store.RepoPatch
	if err := decodeBody(w, r, &patch); err != nil {
		h.renderError(w, r, err)
		return
	}

	repo, err := h.store.UpdateRepo(id, patch)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if repo == nil {
		h.renderError(w, r, errors.NewNotFound("repository", id))
		return
	}
	renderJSON(w, http.StatusOK, repo)
}

// HandleDeleteRepo handles DELETE /api/repos/{id}.
func (h *Handlers) HandleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "repository", h.store.DeleteRepo)
}

// HandleFeed handles GET /api/commits?repoId=&all=&limit=&offset=.
func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Feed(h.store, ops.FeedInput{
		RepoID: q.Get("repoId"),
		All:    parseBoolParam(r, "all"),
		Limit:  parseIntParam(r, "limit", ops.DefaultFeedLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAddCommit handles POST /api/commits.
func (h *Handlers) HandleAddCommit(w http.ResponseWriter, r *http.Request) {
	var body commitBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}

	input := store.AddCommitInput{
		RepoID:        body.RepoID,
		Title:         body.Title,
		Body:          body.Body,
		Tags:          body.Tags,
		IsHighlighted: body.IsHighlighted,
	}
	if body.DateTime != "" {
		at, err := h.parseDateTime(body.DateTime)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		input.DateTime = at
	}

	commit, err := h.store.AddCommit(input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, commit)
}

// HandleUpdateCommit handles PATCH /api/commits/{id}.
func (h *Handlers) HandleUpdateCommit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body commitPatchBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}

	patch := store.CommitPatch{
		RepoID:        body.RepoID,
		Title:         body.Title,
		Body:          body.Body,
		Tags:          body.Tags,
		IsHighlighted: body.IsHighlighted,
	}
	if body.DateTime != nil {
		at, err := h.parseDateTime(*body.DateTime)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		patch.DateTime = &at
	}

	commit, err := h.store.UpdateCommit(id, patch)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if commit == nil {
		h.renderError(w, r, errors.NewNotFound("commit", id))
		return
	}
	renderJSON(w, http.StatusOK, commit)
}

// HandleDeleteCommit handles DELETE /api/commits/{id}.
func (h *Handlers) HandleDeleteCommit(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "commit", h.store.DeleteCommit)
}

// HandleToggleHighlight handles POST /api/commits/{id}/highlight.
func (h *Handlers) HandleToggleHighlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	commit := h.store.ToggleHighlight(id)
	if commit == nil {
		h.renderError(w, r, errors.NewNotFound("commit", id))
		return
	}
	renderJSON(w, http.StatusOK, commit)
}

// HandleListReleases handles GET /api/releases?repoId=.
func (h *Handlers) HandleListReleases(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListReleases(h.store, ops.ListReleasesInput{RepoID: r.URL.Query().Get("repoId")})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAddRelease handles POST /api/releases.
func (h *Handlers) HandleAddRelease(w http.ResponseWriter, r *http.Request) {
	var body releaseBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}

	release, err := ops.CreateRelease(h.store, h.now(), ops.CreateReleaseInput{
		RepoID:      body.RepoID,
		Title:       body.Title,
		Version:     body.Version,
		Preset:      body.Preset,
		PeriodStart: body.PeriodStart,
		PeriodEnd:   body.PeriodEnd,
		CommitIDs:   body.CommitIDs,
		Summary:     body.Summary,
		Changelog:   body.Changelog,
		Attachments: body.Attachments,
		Status:      model.ReleaseStatus(body.Status),
		IsPublic:    body.IsPublic,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, release)
}

// HandleGetRelease handles GET /api/releases/{id}.
func (h *Handlers) HandleGetRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	release := h.store.Release(id)
	if release == nil {
		h.renderError(w, r, errors.NewNotFound("release", id))
		return
	}
	renderJSON(w, http.StatusOK, release)
}

// HandleUpdateRelease handles PATCH /api/releases/{id}.
func (h *Handlers) HandleUpdateRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch store.ReleasePatch
	if err := decodeBody(w, r, &patch); err != nil {
		h.renderError(w, r, err)
		return
	}

	release, err := h.store.UpdateRelease(id, patch)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if release == nil {
		h.renderError(w, r, errors.NewNotFound("release", id))
		return
	}
	renderJSON(w, http.StatusOK, release)
}

// HandleDeleteRelease handles DELETE /api/releases/{id}.
func (h *Handlers) HandleDeleteRelease(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "release", h.store.DeleteRelease)
}

// HandlePublishRelease handles POST /api/releases/{id}/publish.
func (h *Handlers) HandlePublishRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	release := h.store.PublishRelease(id)
	if release == nil {
		h.renderError(w, r, errors.NewNotFound("release", id))
		return
	}
	renderJSON(w, http.StatusOK, release)
}

// HandleUnpublishRelease handles POST /api/releases/{id}/unpublish.
func (h *Handlers) HandleUnpublishRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	release := h.store.UnpublishRelease(id)
	if release == nil {
		h.renderError(w, r, errors.NewNotFound("release", id))
		return
	}
	renderJSON(w, http.StatusOK, release)
}

// HandleHeatmap handles GET /api/heatmap?mode=.
func (h *Handlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Heatmap(h.store, h.now(), ops.HeatmapInput{Mode: r.URL.Query().Get("mode")})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandlePeriod handles GET /api/period?repoId=&preset=&start=&end=.
func (h *Handlers) HandlePeriod(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.Period(h.store, h.now(), ops.PeriodInput{
		RepoID: q.Get("repoId"),
		Preset: q.Get("preset"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSetActiveRepo handles PUT /api/ui/active-repo. A null id clears it.
func (h *Handlers) HandleSetActiveRepo(w http.ResponseWriter, r *http.Request) {
	var body activeRepoBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := h.store.SetActiveRepo(body.ID); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"activeRepoId": body.ID})
}

// HandleSetHeatmapMode handles PUT /api/ui/heatmap-mode.
func (h *Handlers) HandleSetHeatmapMode(w http.ResponseWriter, r *http.Request) {
	var body heatmapModeBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}
	mode := model.HeatmapMode(body.Mode)
	if err := h.store.SetHeatmapMode(mode); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"heatmapMode": mode})
}

// HandleCompleteOnboarding handles POST /api/ui/onboarding.
func (h *Handlers) HandleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	h.store.CompleteOnboarding()
	renderJSON(w, http.StatusOK, map[string]any{"hasCompletedOnboarding": true})
}

// HandleLoadDemo handles POST /api/demo.
func (h *Handlers) HandleLoadDemo(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.store.LoadDemoData())
}

// HandleRegistrySearch handles GET /api/registry?q=&category=&tagType=&tag=.
func (h *Handlers) HandleRegistrySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.SearchRegistry(ops.SearchRegistryInput{
		Dir:      h.cfg.RegistryOutputDir,
		Query:    q.Get("q"),
		Category: q.Get("category"),
		TagType:  q.Get("tagType"),
		Tag:      q.Get("tag"),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleRegistryEntry handles GET /api/registry/{name}: a component, or a
// page together with its ordered sections.
func (h *Handlers) HandleRegistryEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	catalog, err := registry.LoadCatalog(h.cfg.RegistryOutputDir)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if entry, ok := catalog.Get(name); ok {
		resp := map[string]any{"entry": entry}
		if page, ok := catalog.PageForSection(name); ok {
			resp["parentPage"] = page
		}
		renderJSON(w, http.StatusOK, resp)
		return
	}
	if page, ok := catalog.Page(name); ok {
		renderJSON(w, http.StatusOK, map[string]any{
			"page":     page,
			"sections": catalog.PageSections(name),
		})
		return
	}
	h.renderError(w, r, errors.NewNotFound("component", name))
}

// HandleSharePage handles GET /r/{slug}, the public page of a published release.
func (h *Handlers) HandleSharePage(w http.ResponseWriter, r *http.Request) {
	shared, err := ops.ShareRelease(h.store, chi.URLParam(r, "slug"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	rel := shared.Release
	commits := make([]ShareCommit, len(shared.Commits))
	for i, c := range shared.Commits {
		commits[i] = ShareCommit{
			Title:       c.Title,
			Body:        h.renderer.renderMarkdown(c.Body),
			Tags:        c.Tags,
			Date:        formatDate(c.DateTime.In(h.now().Location())),
			Highlighted: c.IsHighlighted,
		}
	}

	title := rel.Title
	if rel.Version != "" {
		title = rel.Version + " · " + rel.Title
	}
	period := ""
	if rel.PeriodStart != "" {
		period = rel.PeriodStart + " – " + rel.PeriodEnd
	}

	err = h.renderer.renderPage(w, http.StatusOK, "share", SharePageData{
		PageData:  PageData{Title: title, Version: h.renderer.version},
		Release:   rel,
		Summary:   rel.Summary,
		Changelog: h.renderer.renderMarkdown(rel.Changelog),
		Commits:   commits,
		Period:    period,
	})
	if err != nil {
		h.renderError(w, r, errors.NewInternal(err))
	}
}

// Helpers

func (h *Handlers) deleteByID(w http.ResponseWriter, r *http.Request, kind string, del func(string) bool) {
	id := chi.URLParam(r, "id")
	if !del(id) {
		h.renderError(w, r, errors.NewNotFound(kind, id))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handlers) parseDateTime(s string) (time.Time, error) {
	at, err := model.ParseDateTime(s, h.now().Location())
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(err.Error())
	}
	return at, nil
}

// decodeBody strictly decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes))
		case stderrors.Is(err, io.EOF):
			return errors.NewInvalidRequest("request body is required")
		}
		return errors.NewInvalidRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func errNotFoundRoute(r *http.Request) error {
	return errors.NewNotFound("route", r.Method+" "+r.URL.Path)
}

// parseIntParam parses an integer query parameter, falling back to def.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseBoolParam returns true when the query parameter is "true" or "1".
func parseBoolParam(r *http.Request, name string) bool {
	v := strings.ToLower(r.URL.Query().Get(name))
	return v == "true" || v == "1"
}
