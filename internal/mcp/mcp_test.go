package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
)

// testNow is a Monday.
var testNow = time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

// testSetup creates a store with deterministic IDs and handlers around it.
func testSetup(t *testing.T) (*Handlers, *store.Store, *config.Config) {
	t.Helper()

	ids := 0
	st := store.New(model.InitialState(),
		store.WithClock(func() time.Time { return testNow }),
		store.WithIDGenerator(func() string { ids++; return fmt.Sprintf("id-%03d", ids) }),
	)
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.RegistryOutputDir = t.TempDir()

	h := NewHandlers(st, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), t.TempDir())
	h.now = func() time.Time { return testNow }
	return h, st, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func mustRepoID(t *testing.T, h *Handlers, name string) string {
	t.Helper()
	result, err := h.HandleRepoAdd(context.Background(), makeRequest(map[string]any{"name": name}))
	if err != nil {
		t.Fatalf("HandleRepoAdd error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func TestHandleRepoLifecycle(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	t.Run("add requires a name", func(t *testing.T) {
		result, _ := h.HandleRepoAdd(ctx, makeRequest(map[string]any{"name": "  "}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("unknown argument rejected", func(t *testing.T) {
		result, _ := h.HandleRepoAdd(ctx, makeRequest(map[string]any{"name": "Career", "colour": "red"}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	id := mustRepoID(t, h, "Career")

	t.Run("update", func(t *testing.T) {
		result, _ := h.HandleRepoUpdate(ctx, makeRequest(map[string]any{"id": id, "tag": "resume"}))
		output := parseOutput(t, result)
		if output["tag"] != "resume" || output["name"] != "Career" {
			t.Errorf("updated repo = %v", output)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		result, _ := h.HandleRepoUpdate(ctx, makeRequest(map[string]any{"id": "nope", "tag": "x"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("update without id", func(t *testing.T) {
		result, _ := h.HandleRepoUpdate(ctx, makeRequest(map[string]any{"tag": "x"}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("list", func(t *testing.T) {
		mustRepoID(t, h, "Fitness")
		result, _ := h.HandleRepoList(ctx, makeRequest(map[string]any{"query": "fit"}))
		repos := parseOutput(t, result)["repos"].([]any)
		if len(repos) != 1 || repos[0].(map[string]any)["name"] != "Fitness" {
			t.Errorf("repo_list(fit) = %v", repos)
		}
	})

	t.Run("delete", func(t *testing.T) {
		result, _ := h.HandleRepoDelete(ctx, makeRequest(map[string]any{"id": id}))
		output := parseOutput(t, result)
		if output["deleted"] != true || output["id"] != id {
			t.Errorf("delete = %v", output)
		}

		result, _ = h.HandleRepoDelete(ctx, makeRequest(map[string]any{"id": id}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandleCommits(t *testing.T) {
	h, st, _ := testSetup(t)
	ctx := context.Background()
	repoID := mustRepoID(t, h, "Fitness")

	result, _ := h.HandleCommitAdd(ctx, makeRequest(map[string]any{
		"repo_id":   repoID,
		"title":     "70kg",
		"tags":      []any{"milestone", "milestone", " "},
		"date_time": "2026-10-18",
	}))
	commit := parseOutput(t, result)
	commitID := commit["id"].(string)
	if commit["dateTime"] != "2026-10-18T00:00:00Z" {
		t.Errorf("dateTime = %v, want local midnight", commit["dateTime"])
	}
	if tags := commit["tags"].([]any); len(tags) != 1 {
		t.Errorf("tags = %v, want deduplicated", tags)
	}

	t.Run("bad date", func(t *testing.T) {
		result, _ := h.HandleCommitAdd(ctx, makeRequest(map[string]any{"repo_id": repoID, "title": "x", "date_time": "yesterday"}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("unknown repo", func(t *testing.T) {
		result, _ := h.HandleCommitAdd(ctx, makeRequest(map[string]any{"repo_id": "nope", "title": "x"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("toggle highlight", func(t *testing.T) {
		result, _ := h.HandleCommitToggleHighlight(ctx, makeRequest(map[string]any{"id": commitID}))
		if parseOutput(t, result)["isHighlighted"] != true {
			t.Error("expected highlighted after toggle")
		}
		result, _ = h.HandleCommitToggleHighlight(ctx, makeRequest(map[string]any{"id": "nope"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("update", func(t *testing.T) {
		result, _ := h.HandleCommitUpdate(ctx, makeRequest(map[string]any{
			"id":        commitID,
			"title":     "69.8kg",
			"date_time": "2026-10-19T08:00:00Z",
		}))
		output := parseOutput(t, result)
		if output["title"] != "69.8kg" || output["dateTime"] != "2026-10-19T08:00:00Z" {
			t.Errorf("updated commit = %v", output)
		}
	})

	t.Run("feed", func(t *testing.T) {
		mustCommit := func(title string) {
			if _, err := st.AddCommit(store.AddCommitInput{RepoID: repoID, Title: title}); err != nil {
				t.Fatal(err)
			}
		}
		mustCommit("a")
		mustCommit("b")

		result, _ := h.HandleCommitFeed(ctx, makeRequest(map[string]any{"limit": 2}))
		output := parseOutput(t, result)
		if commits := output["commits"].([]any); len(commits) != 2 {
			t.Errorf("feed returned %d commits, want 2", len(commits))
		}
		page := output["pagination"].(map[string]any)
		if page["hasMore"] != true || page["total"] != float64(3) {
			t.Errorf("pagination = %v", page)
		}
	})

	t.Run("delete", func(t *testing.T) {
		result, _ := h.HandleCommitDelete(ctx, makeRequest(map[string]any{"id": commitID}))
		parseOutput(t, result)
		result, _ = h.HandleCommitDelete(ctx, makeRequest(map[string]any{"id": commitID}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandleReleases(t *testing.T) {
	h, st, _ := testSetup(t)
	ctx := context.Background()
	repoID := mustRepoID(t, h, "Fitness")
	c, err := st.AddCommit(store.AddCommitInput{RepoID: repoID, Title: "70kg", DateTime: testNow})
	if err != nil {
		t.Fatal(err)
	}

	result, _ := h.HandleReleaseAdd(ctx, makeRequest(map[string]any{
		"repo_id": repoID,
		"title":   "Week 43",
		"version": "v1.0",
	}))
	release := parseOutput(t, result)
	releaseID := release["id"].(string)
	if release["periodStart"] != "2026-10-19" || release["status"] != "draft" {
		t.Errorf("release = %v", release)
	}
	if ids := release["commitIds"].([]any); len(ids) != 1 || ids[0] != c.ID {
		t.Errorf("commitIds = %v, want [%s]", ids, c.ID)
	}

	t.Run("invalid status", func(t *testing.T) {
		result, _ := h.HandleReleaseAdd(ctx, makeRequest(map[string]any{"repo_id": repoID, "title": "x", "status": "archived"}))
		assertErrorCode(t, result, "INVALID_REQUEST")
	})

	t.Run("publish", func(t *testing.T) {
		result, _ := h.HandleReleasePublish(ctx, makeRequest(map[string]any{"id": releaseID}))
		output := parseOutput(t, result)
		if output["status"] != "published" || output["isLatest"] != true || output["shareSlug"] == "" {
			t.Errorf("published release = %v", output)
		}
	})

	t.Run("update", func(t *testing.T) {
		result, _ := h.HandleReleaseUpdate(ctx, makeRequest(map[string]any{"id": releaseID, "is_public": true, "summary": "down 8kg"}))
		output := parseOutput(t, result)
		if output["isPublic"] != true || output["summary"] != "down 8kg" {
			t.Errorf("updated release = %v", output)
		}
		result, _ = h.HandleReleaseUpdate(ctx, makeRequest(map[string]any{"id": "nope", "summary": "x"}))
		assertErrorCode(t, result, "NOT_FOUND")
	})

	t.Run("list", func(t *testing.T) {
		result, _ := h.HandleReleaseList(ctx, makeRequest(map[string]any{"repo_id": repoID}))
		if releases := parseOutput(t, result)["releases"].([]any); len(releases) != 1 {
			t.Errorf("release_list = %v", releases)
		}
	})

	t.Run("unpublish", func(t *testing.T) {
		result, _ := h.HandleReleaseUnpublish(ctx, makeRequest(map[string]any{"id": releaseID}))
		output := parseOutput(t, result)
		if output["status"] != "draft" || output["isLatest"] != false {
			t.Errorf("unpublished release = %v", output)
		}
	})

	t.Run("delete", func(t *testing.T) {
		result, _ := h.HandleReleaseDelete(ctx, makeRequest(map[string]any{"id": releaseID}))
		parseOutput(t, result)
		result, _ = h.HandleReleasePublish(ctx, makeRequest(map[string]any{"id": releaseID}))
		assertErrorCode(t, result, "NOT_FOUND")
	})
}

func TestHandlePeriodAndHeatmap(t *testing.T) {
	h, st, _ := testSetup(t)
	ctx := context.Background()
	repoID := mustRepoID(t, h, "Fitness")
	if _, err := st.AddCommit(store.AddCommitInput{RepoID: repoID, Title: "run", DateTime: testNow}); err != nil {
		t.Fatal(err)
	}

	result, _ := h.HandlePeriodSummary(ctx, makeRequest(map[string]any{"repo_id": repoID, "preset": "last-week"}))
	output := parseOutput(t, result)
	if output["preset"] != "last-week" || output["count"] != float64(0) || output["warning"] != true {
		t.Errorf("period_summary = %v", output)
	}

	result, _ = h.HandlePeriodSummary(ctx, makeRequest(map[string]any{"repo_id": repoID, "start": "2026-10-19"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleHeatmapGet(ctx, makeRequest(nil))
	output = parseOutput(t, result)
	cells := output["cells"].([]any)
	if len(cells) != 364 || cells[363] != float64(1) {
		t.Errorf("heatmap has %d cells, today = %v", len(cells), cells[len(cells)-1])
	}
	if output["mode"] != "all" {
		t.Errorf("mode = %v, want all", output["mode"])
	}

	result, _ = h.HandleHeatmapGet(ctx, makeRequest(map[string]any{"mode": "weekly"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleUI(t *testing.T) {
	h, st, _ := testSetup(t)
	ctx := context.Background()
	repoID := mustRepoID(t, h, "Fitness")

	result, _ := h.HandleSetActiveRepo(ctx, makeRequest(map[string]any{"id": repoID}))
	parseOutput(t, result)
	if got := st.Snapshot().ActiveRepoID; got == nil || *got != repoID {
		t.Errorf("ActiveRepoID = %v, want %s", got, repoID)
	}

	result, _ = h.HandleSetActiveRepo(ctx, makeRequest(map[string]any{"id": "nope"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleSetActiveRepo(ctx, makeRequest(nil))
	parseOutput(t, result)
	if st.Snapshot().ActiveRepoID != nil {
		t.Error("omitting id should clear the active repository")
	}

	result, _ = h.HandleSetHeatmapMode(ctx, makeRequest(map[string]any{"mode": "repo"}))
	parseOutput(t, result)
	if st.Snapshot().HeatmapMode != model.HeatmapRepo {
		t.Error("heatmap mode not stored")
	}
	result, _ = h.HandleSetHeatmapMode(ctx, makeRequest(map[string]any{"mode": ""}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleCompleteOnboarding(ctx, makeRequest(nil))
	parseOutput(t, result)
	if !st.Snapshot().HasCompletedOnboarding {
		t.Error("onboarding not completed")
	}

	result, _ = h.HandleCompleteOnboarding(ctx, makeRequest(map[string]any{"force": true}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleDemoLoad(t *testing.T) {
	h, st, _ := testSetup(t)

	result, _ := h.HandleDemoLoad(context.Background(), makeRequest(nil))
	output := parseOutput(t, result)
	if output["repos"] != float64(6) || output["commits"] != float64(21) {
		t.Errorf("demo_load = %v", output)
	}
	if st.Snapshot().ActiveRepoID == nil {
		t.Error("demo data should select a repository")
	}
}

func TestHandleRegistrySearch_NotBuilt(t *testing.T) {
	h, _, _ := testSetup(t)

	result, _ := h.HandleRegistrySearch(context.Background(), makeRequest(map[string]any{"query": "hero"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleRegistrySearch(context.Background(), makeRequest(map[string]any{"tag": "minimal"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleExportImport(t *testing.T) {
	h, st, _ := testSetup(t)
	ctx := context.Background()
	mustRepoID(t, h, "Fitness")

	result, _ := h.HandleExport(ctx, makeRequest(nil))
	output := parseOutput(t, result)
	path := output["path"].(string)
	if filepath.Dir(path) != h.exportsDir {
		t.Errorf("export path %s not in %s", path, h.exportsDir)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	assertErrorCode(t, result, "CONFLICT")

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "replace"}))
	if parseOutput(t, result)["added"] != float64(1) {
		t.Error("replace should restore the one repository")
	}
	if len(st.Snapshot().Repos) != 1 {
		t.Errorf("repos after replace = %d, want 1", len(st.Snapshot().Repos))
	}

	result, _ = h.HandleExport(ctx, makeRequest(map[string]any{"path": "/etc/passwd.json"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	h, _, cfg := testSetup(t)

	s := NewServer(h, cfg, "test")
	tools := s.ListTools()
	if len(tools) != len(toolRegistry) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(toolRegistry))
	}

	for _, name := range []string{"repo_add", "commit_feed", "release_publish", "period_summary", "heatmap_get", "ui_set_active_repo", "demo_load", "registry_search", "state_export"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	h, _, cfg := testSetup(t)

	cfg.DisabledTools = []string{"demo_load", "demo_load", "state_import"}
	cfg.DisabledTypes = []string{"release"}
	s := NewServer(h, cfg, "test")
	tools := s.ListTools()

	releaseTools := len(ExpandTypesToTools([]string{"release"}))
	if releaseTools != 6 {
		t.Errorf("release tools = %d, want 6", releaseTools)
	}
	if want := len(toolRegistry) - 2 - releaseTools; len(tools) != want {
		t.Errorf("registered tool count = %d, want %d", len(tools), want)
	}
	for _, name := range []string{"demo_load", "state_import", "release_add", "release_list"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["state_export"]; !ok {
		t.Error("state_export should stay registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	h, _, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	if tools := NewServer(h, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"repo_add", "fake_tool"}); len(unknown) != 1 || unknown[0] != "fake_tool" {
		t.Errorf("ValidateDisabledTools() = %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"ui", "widget"}); len(unknown) != 1 || unknown[0] != "widget" {
		t.Errorf("ValidateDisabledTypes() = %v", unknown)
	}
	if unknown := ValidateDisabledTools(AllToolNames()); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestGetTypeForTool(t *testing.T) {
	tests := map[string]string{
		"commit_toggle_highlight": "commit",
		"ui_set_heatmap_mode":     "ui",
		"nounderscore":            "",
	}
	for name, want := range tests {
		if got := GetTypeForTool(name); got != want {
			t.Errorf("GetTypeForTool(%q) = %q, want %q", name, got, want)
		}
	}

	// Every registered tool belongs to a known type
	for _, name := range AllToolNames() {
		if unknown := ValidateDisabledTypes([]string{GetTypeForTool(name)}); len(unknown) != 0 {
			t.Errorf("tool %s has unknown type %v", name, unknown)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message leaks details: %v", errObj["message"])
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("import: %w", errors.NewConflict("state is not empty")))

	if code := errorObject(t, r)["code"]; code != string(errors.ErrConflict) {
		t.Errorf("code=%v, want %v", code, errors.ErrConflict)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound("release", "abc"))

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if result == nil || !result.IsError {
		t.Errorf("expected error %s, got success", expectedCode)
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	code, ok := errorObject(t, result)["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}
	if code != expectedCode {
		t.Errorf("got error code %q, want %q (%s)", code, expectedCode, extractErrorMessage(result))
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
