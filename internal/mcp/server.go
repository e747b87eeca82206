package mcp

import (
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/store"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"repo", "commit", "release", "period", "heatmap", "ui", "demo", "registry", "state"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"repo_add": {
		def:     repoAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRepoAdd },
	},
	"repo_update": {
		def:     repoUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRepoUpdate },
	},
	"repo_delete": {
		def:     repoDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRepoDelete },
	},
	"repo_list": {
		def:     repoListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRepoList },
	},
	"commit_add": {
		def:     commitAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommitAdd },
	},
	"commit_update": {
		def:     commitUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommitUpdate },
	},
	"commit_delete": {
		def:     commitDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommitDelete },
	},
	"commit_toggle_highlight": {
		def:     commitToggleHighlightToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommitToggleHighlight },
	},
	"commit_feed": {
		def:     commitFeedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCommitFeed },
	},
	"release_add": {
		def:     releaseAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleaseAdd },
	},
	"release_update": {
		def:     releaseUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleaseUpdate },
	},
	"release_delete": {
		def:     releaseDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleaseDelete },
	},
	"release_publish": {
		def:     releasePublishToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleasePublish },
	},
	"release_unpublish": {
		def:     releaseUnpublishToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleaseUnpublish },
	},
	"release_list": {
		def:     releaseListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReleaseList },
	},
	"period_summary": {
		def:     periodSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePeriodSummary },
	},
	"heatmap_get": {
		def:     heatmapGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHeatmapGet },
	},
	"ui_set_active_repo": {
		def:     uiSetActiveRepoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetActiveRepo },
	},
	"ui_set_heatmap_mode": {
		def:     uiSetHeatmapModeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetHeatmapMode },
	},
	"ui_complete_onboarding": {
		def:     uiCompleteOnboardingToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompleteOnboarding },
	},
	"demo_load": {
		def:     demoLoadToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDemoLoad },
	},
	"registry_search": {
		def:     registrySearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRegistrySearch },
	},
	"state_export": {
		def:     stateExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"state_import": {
		def:     stateImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "release_publish" → "release").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the Buriosa tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(h *Handlers, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"buriosa",
		version,
		server.WithToolCapabilities(true),
	)

	// Expand types first, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, cfg *config.Config, logger *slog.Logger, baseDir, version string) error {
	s := NewServer(NewHandlers(st, cfg, logger, baseDir), cfg, version)
	return server.ServeStdio(s)
}
