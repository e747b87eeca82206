package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Argument names are snake_case; timestamps are RFC 3339
// or YYYY-MM-DD, periods are YYYY-MM-DD.

var repoAddToolDef = mcp.NewTool("repo_add",
	mcp.WithDescription("Create a repository, a named area of life whose activity is logged as commits."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name, e.g. \"Fitness / Cut\"")),
	mcp.WithString("tag", mcp.Description("Short free-text label")),
)

var repoUpdateToolDef = mcp.NewTool("repo_update",
	mcp.WithDescription("Rename or retag a repository. Existing commits keep the name they were logged with."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Repository ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("tag", mcp.Description("New tag")),
)

var repoDeleteToolDef = mcp.NewTool("repo_delete",
	mcp.WithDescription("Delete a repository together with its commits and releases."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Repository ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var repoListToolDef = mcp.NewTool("repo_list",
	mcp.WithDescription("List repositories with commit and release counts."),
	mcp.WithString("query", mcp.Description("Case-insensitive name filter")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var commitAddToolDef = mcp.NewTool("commit_add",
	mcp.WithDescription("Log a commit (one recorded event) in a repository."),
	mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository ID")),
	mcp.WithString("title", mcp.Required(), mcp.Description("One-line summary")),
	mcp.WithString("body", mcp.Description("Optional details, markdown allowed")),
	mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Free-form tags")),
	mcp.WithString("date_time", mcp.Description("When it happened; defaults to now")),
	mcp.WithBoolean("highlighted", mcp.Description("Mark as a milestone")),
)

var commitUpdateToolDef = mcp.NewTool("commit_update",
	mcp.WithDescription("Edit a commit. Only the given fields change."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Commit ID")),
	mcp.WithString("repo_id", mcp.Description("Move to another repository")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("body", mcp.Description("New body")),
	mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Replacement tag list")),
	mcp.WithString("date_time", mcp.Description("New event time")),
	mcp.WithBoolean("highlighted", mcp.Description("Milestone flag")),
)

var commitDeleteToolDef = mcp.NewTool("commit_delete",
	mcp.WithDescription("Delete a commit. Releases referencing it are left unchanged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Commit ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var commitToggleHighlightToolDef = mcp.NewTool("commit_toggle_highlight",
	mcp.WithDescription("Flip the milestone flag of a commit."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Commit ID")),
)

var commitFeedToolDef = mcp.NewTool("commit_feed",
	mcp.WithDescription("List commits newest first, optionally for one repository."),
	mcp.WithString("repo_id", mcp.Description("Repository ID; defaults to the active repository")),
	mcp.WithBoolean("all", mcp.Description("Ignore the active repository and list everything")),
	mcp.WithNumber("limit", mcp.Description("Maximum commits to return (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Commits to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var releaseAddToolDef = mcp.NewTool("release_add",
	mcp.WithDescription("Create a release bundling a period of commits. Drafts unless status is published."),
	mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository ID")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Release title")),
	mcp.WithString("version", mcp.Description("Version label, e.g. v1.0")),
	mcp.WithString("preset", mcp.Description("Period preset: this-week, last-week or this-month")),
	mcp.WithString("period_start", mcp.Description("Period start date, overrides preset")),
	mcp.WithString("period_end", mcp.Description("Period end date, overrides preset")),
	mcp.WithArray("commit_ids", mcp.WithStringItems(), mcp.Description("Included commits; defaults to every commit of the period")),
	mcp.WithString("summary", mcp.Description("Short summary")),
	mcp.WithString("changelog", mcp.Description("Markdown changelog")),
	mcp.WithString("status", mcp.Enum("draft", "published"), mcp.Description("Initial status")),
	mcp.WithBoolean("is_public", mcp.Description("Expose on the public share page once published")),
)

var releaseUpdateToolDef = mcp.NewTool("release_update",
	mcp.WithDescription("Edit a release. Only the given fields change."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Release ID")),
	mcp.WithString("version", mcp.Description("Version label")),
	mcp.WithString("title", mcp.Description("Title")),
	mcp.WithString("period_start", mcp.Description("Period start date")),
	mcp.WithString("period_end", mcp.Description("Period end date")),
	mcp.WithArray("commit_ids", mcp.WithStringItems(), mcp.Description("Replacement commit list")),
	mcp.WithString("summary", mcp.Description("Summary")),
	mcp.WithString("changelog", mcp.Description("Markdown changelog")),
	mcp.WithBoolean("is_public", mcp.Description("Public flag")),
)

var releaseDeleteToolDef = mcp.NewTool("release_delete",
	mcp.WithDescription("Delete a release."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Release ID")),
	mcp.WithDestructiveHintAnnotation(true),
)

var releasePublishToolDef = mcp.NewTool("release_publish",
	mcp.WithDescription("Publish a release. It becomes the latest release of its repository."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Release ID")),
)

var releaseUnpublishToolDef = mcp.NewTool("release_unpublish",
	mcp.WithDescription("Revert a published release to draft."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Release ID")),
)

var releaseListToolDef = mcp.NewTool("release_list",
	mcp.WithDescription("List releases, drafts first then newest first."),
	mcp.WithString("repo_id", mcp.Description("Only this repository")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var periodSummaryToolDef = mcp.NewTool("period_summary",
	mcp.WithDescription("Count a repository's commits in a period and classify the period against the presets."),
	mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository ID")),
	mcp.WithString("preset", mcp.Description("this-week, last-week or this-month (default this-week)")),
	mcp.WithString("start", mcp.Description("Custom start date")),
	mcp.WithString("end", mcp.Description("Custom end date")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var heatmapGetToolDef = mcp.NewTool("heatmap_get",
	mcp.WithDescription("Return the 52-week activity heatmap ending today."),
	mcp.WithString("mode", mcp.Enum("all", "repo"), mcp.Description("Defaults to the stored heatmap mode")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var uiSetActiveRepoToolDef = mcp.NewTool("ui_set_active_repo",
	mcp.WithDescription("Select the active repository; omit id to clear the selection."),
	mcp.WithString("id", mcp.Description("Repository ID")),
)

var uiSetHeatmapModeToolDef = mcp.NewTool("ui_set_heatmap_mode",
	mcp.WithDescription("Switch the stored heatmap mode."),
	mcp.WithString("mode", mcp.Required(), mcp.Enum("all", "repo")),
)

var uiCompleteOnboardingToolDef = mcp.NewTool("ui_complete_onboarding",
	mcp.WithDescription("Mark onboarding as completed."),
)

var demoLoadToolDef = mcp.NewTool("demo_load",
	mcp.WithDescription("Replace repositories and commits with the demo dataset. Releases are kept."),
	mcp.WithDestructiveHintAnnotation(true),
)

var registrySearchToolDef = mcp.NewTool("registry_search",
	mcp.WithDescription("Search the built component registry."),
	mcp.WithString("query", mcp.Description("Substring of the searchable text")),
	mcp.WithString("category", mcp.Description("Only components of this category")),
	mcp.WithString("tag_type", mcp.Enum("functional", "style", "layout", "industry")),
	mcp.WithString("tag", mcp.Description("Tag within tag_type")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var stateExportToolDef = mcp.NewTool("state_export",
	mcp.WithDescription("Write a backup of the whole state to the exports directory."),
	mcp.WithString("path", mcp.Description("Target file directly inside the exports directory; defaults to a timestamped name")),
)

var stateImportToolDef = mcp.NewTool("state_import",
	mcp.WithDescription("Restore a backup from the exports directory."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup file directly inside the exports directory")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "merge"), mcp.Description("error (default) refuses a non-empty state; merge keeps existing IDs")),
	mcp.WithDestructiveHintAnnotation(true),
)
