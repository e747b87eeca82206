package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/mcp"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/ops"
	"github.com/buriosa/buriosa/internal/registry"
	"github.com/buriosa/buriosa/internal/store"
	"github.com/buriosa/buriosa/internal/web"
)

// maxStdinBytes bounds markdown read from stdin.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "buriosa",
		Usage:   "Activity log with heatmap, releases and a component registry",
		Version: Version,
		Commands: []*cli.Command{
			repoCmd(rt),
			commitCmd(rt),
			releaseCmd(rt),
			periodCmd(rt),
			heatmapCmd(rt),
			uiCmd(rt),
			demoCmd(rt),
			stateCmd(rt),
			registryCmd(rt),
			serveCmd(rt),
			mcpCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withStore opens the store before running fn.
func withStore(rt *runtime, fn func(c *cli.Context, st *store.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		st, err := rt.Store()
		if err != nil {
			return outputError(err)
		}
		return fn(c, st)
	}
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 || strings.TrimSpace(c.Args().First()) == "" {
		return "", errors.NewInvalidRequest(what + " is required")
	}
	return c.Args().First(), nil
}

// repoCmd creates the repo command group.
func repoCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "repo",
		Usage: "Manage repositories",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a repository",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Repository name"},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Short label"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					repo, err := st.AddRepo(store.AddRepoInput{Name: c.String("name"), Tag: c.String("tag")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, repo)
				}),
			},
			{
				Name:      "update",
				Usage:     "Rename or retag a repository",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "New label"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					id, err := requireArg(c, "repository id")
					if err != nil {
						return outputError(err)
					}
					var patch store.RepoPatch
					if c.IsSet("name") {
						name := c.String("name")
						patch.Name = &name
					}
					if c.IsSet("tag") {
						tag := c.String("tag")
						patch.Tag = &tag
					}
					repo, err := st.UpdateRepo(id, patch)
					if err != nil {
						return outputError(err)
					}
					if repo == nil {
						return outputError(errors.NewNotFound("repository", id))
					}
					return outputJSON(c, repo)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a repository with its commits and releases",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return deleteByID(c, "repository", st.DeleteRepo)
				}),
			},
			{
				Name:  "list",
				Usage: "List repositories with commit and release counts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Name filter"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return outputJSON(c, ops.ListRepos(st, ops.ListReposInput{Query: c.String("query")}))
				}),
			},
		},
	}
}

// commitCmd creates the commit command group.
func commitCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "Manage commits",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Log a commit (body may be piped via stdin with --body -)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Required: true, Usage: "Repository id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Commit title"},
					&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Markdown body, or - for stdin"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "RFC 3339 timestamp or YYYY-MM-DD (default: now)"},
					&cli.BoolFlag{Name: "highlight", Usage: "Mark as highlighted"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					body, err := textFlag(c, "body")
					if err != nil {
						return outputError(err)
					}
					input := store.AddCommitInput{
						RepoID:        c.String("repo"),
						Title:         c.String("title"),
						Body:          body,
						Tags:          parseTags(c.String("tags")),
						IsHighlighted: c.Bool("highlight"),
					}
					if c.IsSet("date") {
						at, err := parseDate(rt, c.String("date"))
						if err != nil {
							return outputError(err)
						}
						input.DateTime = at
					}
					commit, err := st.AddCommit(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, commit)
				}),
			},
			{
				Name:      "update",
				Usage:     "Edit a commit",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "Move to repository id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "New markdown body, or - for stdin"},
					&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "New timestamp or date"},
					&cli.BoolFlag{Name: "highlight", Usage: "Set the highlight flag"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					id, err := requireArg(c, "commit id")
					if err != nil {
						return outputError(err)
					}
					var patch store.CommitPatch
					if c.IsSet("repo") {
						v := c.String("repo")
						patch.RepoID = &v
					}
					if c.IsSet("title") {
						v := c.String("title")
						patch.Title = &v
					}
					if c.IsSet("body") {
						v, err := textFlag(c, "body")
						if err != nil {
							return outputError(err)
						}
						patch.Body = &v
					}
					if c.IsSet("tags") {
						tags := parseTags(c.String("tags"))
						patch.Tags = &tags
					}
					if c.IsSet("date") {
						at, err := parseDate(rt, c.String("date"))
						if err != nil {
							return outputError(err)
						}
						patch.DateTime = &at
					}
					if c.IsSet("highlight") {
						v := c.Bool("highlight")
						patch.IsHighlighted = &v
					}
					commit, err := st.UpdateCommit(id, patch)
					if err != nil {
						return outputError(err)
					}
					if commit == nil {
						return outputError(errors.NewNotFound("commit", id))
					}
					return outputJSON(c, commit)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a commit",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return deleteByID(c, "commit", st.DeleteCommit)
				}),
			},
			{
				Name:      "highlight",
				Usage:     "Toggle the highlight flag of a commit",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					id, err := requireArg(c, "commit id")
					if err != nil {
						return outputError(err)
					}
					commit := st.ToggleHighlight(id)
					if commit == nil {
						return outputError(errors.NewNotFound("commit", id))
					}
					return outputJSON(c, commit)
				}),
			},
			{
				Name:  "feed",
				Usage: "List commits newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "Repository id (default: active repository)"},
					&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "All repositories"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultFeedLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					out, err := ops.Feed(st, ops.FeedInput{
						RepoID: c.String("repo"),
						All:    c.Bool("all"),
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				}),
			},
		},
	}
}

// releaseCmd creates the release command group.
func releaseCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "release",
		Usage: "Manage releases",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a release from a period (changelog may be piped via stdin with --changelog -)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Required: true, Usage: "Repository id"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Release title"},
					&cli.StringFlag{Name: "version", Usage: "Version label, e.g. v1.2"},
					&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "Period preset (default: this-week)"},
					&cli.StringFlag{Name: "start", Usage: "Custom period start YYYY-MM-DD"},
					&cli.StringFlag{Name: "end", Usage: "Custom period end YYYY-MM-DD"},
					&cli.StringFlag{Name: "commits", Usage: "Comma-separated commit ids (default: every commit in the period)"},
					&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "One-line summary"},
					&cli.StringFlag{Name: "changelog", Usage: "Markdown changelog, or - for stdin"},
					&cli.StringFlag{Name: "status", Value: string(model.StatusDraft), Usage: "draft|published"},
					&cli.BoolFlag{Name: "public", Usage: "Expose the release on its share page"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					changelog, err := textFlag(c, "changelog")
					if err != nil {
						return outputError(err)
					}
					now, err := rt.Now()
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					input := ops.CreateReleaseInput{
						RepoID:      c.String("repo"),
						Title:       c.String("title"),
						Version:     c.String("version"),
						Preset:      c.String("preset"),
						PeriodStart: c.String("start"),
						PeriodEnd:   c.String("end"),
						Summary:     c.String("summary"),
						Changelog:   changelog,
						Status:      model.ReleaseStatus(c.String("status")),
						IsPublic:    c.Bool("public"),
					}
					if c.IsSet("commits") {
						input.CommitIDs = parseTags(c.String("commits"))
						if input.CommitIDs == nil {
							input.CommitIDs = []string{}
						}
					}
					release, err := ops.CreateRelease(st, now, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, release)
				}),
			},
			{
				Name:      "update",
				Usage:     "Edit a release",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "version", Usage: "New version label"},
					&cli.StringFlag{Name: "start", Usage: "New period start YYYY-MM-DD"},
					&cli.StringFlag{Name: "end", Usage: "New period end YYYY-MM-DD"},
					&cli.StringFlag{Name: "commits", Usage: "New comma-separated commit ids"},
					&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "New summary"},
					&cli.StringFlag{Name: "changelog", Usage: "New markdown changelog, or - for stdin"},
					&cli.BoolFlag{Name: "public", Usage: "Set share page visibility"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					id, err := requireArg(c, "release id")
					if err != nil {
						return outputError(err)
					}
					var patch store.ReleasePatch
					for flag, dst := range map[string]**string{
						"title":   &patch.Title,
						"version": &patch.Version,
						"start":   &patch.PeriodStart,
						"end":     &patch.PeriodEnd,
						"summary": &patch.Summary,
					} {
						if c.IsSet(flag) {
							v := c.String(flag)
							*dst = &v
						}
					}
					if c.IsSet("changelog") {
						v, err := textFlag(c, "changelog")
						if err != nil {
							return outputError(err)
						}
						patch.Changelog = &v
					}
					if c.IsSet("commits") {
						ids := parseTags(c.String("commits"))
						if ids == nil {
							ids = []string{}
						}
						patch.CommitIDs = &ids
					}
					if c.IsSet("public") {
						v := c.Bool("public")
						patch.IsPublic = &v
					}
					release, err := st.UpdateRelease(id, patch)
					if err != nil {
						return outputError(err)
					}
					if release == nil {
						return outputError(errors.NewNotFound("release", id))
					}
					return outputJSON(c, release)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Delete a release",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return deleteByID(c, "release", st.DeleteRelease)
				}),
			},
			{
				Name:      "publish",
				Usage:     "Publish a release and make it the latest of its repository",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return actOnRelease(c, st.PublishRelease)
				}),
			},
			{
				Name:      "unpublish",
				Usage:     "Revert a release to draft",
				ArgsUsage: "<id>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					return actOnRelease(c, st.UnpublishRelease)
				}),
			},
			{
				Name:  "list",
				Usage: "List releases, latest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Usage: "Repository id"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					out, err := ops.ListReleases(st, ops.ListReleasesInput{RepoID: c.String("repo")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				}),
			},
			{
				Name:      "show",
				Usage:     "Show a release by id, or a shared release by slug",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Usage: "Share slug instead of id"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					if slug := c.String("slug"); slug != "" {
						out, err := ops.ShareRelease(st, slug)
						if err != nil {
							return outputError(err)
						}
						return outputJSON(c, out)
					}
					id, err := requireArg(c, "release id")
					if err != nil {
						return outputError(err)
					}
					release := st.Release(id)
					if release == nil {
						return outputError(errors.NewNotFound("release", id))
					}
					return outputJSON(c, release)
				}),
			},
		},
	}
}

// periodCmd creates the period command.
func periodCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "period",
		Usage: "Summarize a repository's commits within a period",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo", Aliases: []string{"r"}, Required: true, Usage: "Repository id"},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "this-week|last-week|this-month (default: this-week)"},
			&cli.StringFlag{Name: "start", Usage: "Custom period start YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Usage: "Custom period end YYYY-MM-DD"},
		},
		Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
			now, err := rt.Now()
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			out, err := ops.Period(st, now, ops.PeriodInput{
				RepoID: c.String("repo"),
				Preset: c.String("preset"),
				Start:  c.String("start"),
				End:    c.String("end"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		}),
	}
}

// heatmapCmd creates the heatmap command.
func heatmapCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "heatmap",
		Usage: "Show the 52-week activity heatmap",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "all|repo (default: stored mode)"},
		},
		Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
			now, err := rt.Now()
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			out, err := ops.Heatmap(st, now, ops.HeatmapInput{Mode: c.String("mode")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		}),
	}
}

// uiCmd creates the ui command group for persisted view preferences.
func uiCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Change persisted view settings",
		Subcommands: []*cli.Command{
			{
				Name:      "active",
				Usage:     "Select the active repository",
				ArgsUsage: "[id]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Clear the selection"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					var id *string
					if !c.Bool("clear") {
						v, err := requireArg(c, "repository id")
						if err != nil {
							return outputError(err)
						}
						id = &v
					}
					if err := st.SetActiveRepo(id); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"activeRepoId": id})
				}),
			},
			{
				Name:      "mode",
				Usage:     "Set the heatmap mode",
				ArgsUsage: "<all|repo>",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					v, err := requireArg(c, "heatmap mode")
					if err != nil {
						return outputError(err)
					}
					mode := model.HeatmapMode(v)
					if err := st.SetHeatmapMode(mode); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"heatmapMode": mode})
				}),
			},
			{
				Name:  "onboard",
				Usage: "Mark onboarding as completed",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					st.CompleteOnboarding()
					return outputJSON(c, map[string]any{"hasCompletedOnboarding": true})
				}),
			},
		},
	}
}

// demoCmd creates the demo command group.
func demoCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Sample data",
		Subcommands: []*cli.Command{
			{
				Name:  "load",
				Usage: "Replace the state with the demo data set",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					s := st.LoadDemoData()
					return outputJSON(c, map[string]any{
						"repos":    len(s.Repos),
						"commits":  len(s.Commits),
						"releases": len(s.Releases),
					})
				}),
			},
		},
	}
}

// stateCmd creates the state command group.
func stateCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect, back up or clear the persisted state",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the state",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw", Usage: "Print the stored envelope as is"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					if !c.Bool("raw") {
						return outputJSON(c, st.Snapshot())
					}
					data, err := rt.adapter.Inspect(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, json.RawMessage(data))
				}),
			},
			{
				Name:  "clear",
				Usage: "Reset the state and remove the stored blob",
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					st.Reset()
					rt.writer.Flush()
					if err := rt.adapter.Clear(c.Context); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"cleared": true, "key": rt.adapter.Key()})
				}),
			},
			{
				Name:  "export",
				Usage: "Write a backup of the state",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Backup file path (default: <base>/exports/buriosa-<timestamp>.json)"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					now, err := rt.Now()
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					out, err := ops.Export(c.Context, st, now, ops.ExportInput{
						Dir:  config.ExportsDir(rt.baseDir),
						Path: c.String("path"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				}),
			},
			{
				Name:  "import",
				Usage: "Restore a backup",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Backup file path"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "error|replace|merge"},
				},
				Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
					out, err := ops.Import(st, ops.ImportInput{
						Dir:  config.ExportsDir(rt.baseDir),
						Path: c.String("path"),
						Mode: ops.ImportMode(c.String("mode")),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				}),
			},
		},
	}
}

// registryCmd creates the registry command group. None of its commands
// open the store.
func registryCmd(rt *runtime) *cli.Command {
	dirFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "dir", Usage: "Registry directory (default: config registry_dir)"}
	}
	outFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "out", Usage: "Artifact directory (default: config registry_output_dir)"}
	}

	return &cli.Command{
		Name:  "registry",
		Usage: "Build and query the component registry",
		Subcommands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Generate the registry artifacts",
				Flags: []cli.Flag{
					dirFlag(),
					outFlag(),
					&cli.StringFlag{Name: "prefix", Usage: "Component path prefix (default: config component_path_prefix)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Diff against the artifacts on disk without writing"},
				},
				Action: func(c *cli.Context) error {
					out, err := registry.Build(c.Context, rt.logger, registry.BuildInput{
						RegistryDir:         pick(c.String("dir"), rt.cfg.RegistryDir),
						OutputDir:           pick(c.String("out"), rt.cfg.RegistryOutputDir),
						ComponentPathPrefix: pick(c.String("prefix"), rt.cfg.ComponentPathPrefix),
						DryRun:              c.Bool("dry-run"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:  "validate",
				Usage: "Check every metadata.yaml without building",
				Flags: []cli.Flag{dirFlag()},
				Action: func(c *cli.Context) error {
					out, err := registry.Validate(c.Context, pick(c.String("dir"), rt.cfg.RegistryDir))
					if err != nil {
						return outputError(err)
					}
					if err := outputJSON(c, out); err != nil {
						return err
					}
					if err := out.Err(); err != nil {
						return outputError(err)
					}
					return nil
				},
			},
			{
				Name:      "new",
				Usage:     "Scaffold a draft component",
				ArgsUsage: "<kebab-case-name>",
				Flags: []cli.Flag{
					dirFlag(),
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true, Usage: "Component category"},
					&cli.StringFlag{Name: "image", Required: true, Usage: "Preview image path"},
					&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Required: true, Usage: "Comma-separated keywords"},
					&cli.StringFlag{Name: "fonts", Usage: "Comma-separated font families"},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing directory"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, "component name")
					if err != nil {
						return outputError(err)
					}
					out, err := registry.Scaffold(registry.ScaffoldInput{
						RegistryDir: pick(c.String("dir"), rt.cfg.RegistryDir),
						Name:        name,
						Category:    c.String("category"),
						ImagePath:   c.String("image"),
						Keywords:    registry.SplitCSV(c.String("keywords")),
						FontFamily:  registry.SplitCSV(c.String("fonts")),
						Force:       c.Bool("force"),
						Now:         time.Now(),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:  "search",
				Usage: "Search the built catalog",
				Flags: []cli.Flag{
					outFlag(),
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Substring of the searchable text"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category filter"},
					&cli.StringFlag{Name: "tag-type", Usage: "Tag type: functional|style|layout|industry"},
					&cli.StringFlag{Name: "tag", Usage: "Tag value (with --tag-type)"},
				},
				Action: func(c *cli.Context) error {
					out, err := ops.SearchRegistry(ops.SearchRegistryInput{
						Dir:      pick(c.String("out"), rt.cfg.RegistryOutputDir),
						Query:    c.String("query"),
						Category: c.String("category"),
						TagType:  c.String("tag-type"),
						Tag:      c.String("tag"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API and share pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default: config http_addr)"},
		},
		Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
			if addr := c.String("addr"); addr != "" {
				rt.cfg.HTTPAddr = addr
			}
			srv, err := web.NewServer(web.Deps{
				Store:   st,
				Config:  rt.cfg,
				Logger:  rt.logger,
				Version: Version,
			})
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := web.Run(ctx, srv, rt.logger); err != nil {
				return outputError(err)
			}
			return nil
		}),
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: withStore(rt, func(c *cli.Context, st *store.Store) error {
			if err := mcp.Run(st, rt.cfg, rt.logger, rt.baseDir, Version); err != nil {
				return outputError(err)
			}
			return nil
		}),
	}
}

// Helper functions

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var be *errors.BuriosaError
	if stderrors.As(err, &be) {
		return cli.Exit(fmt.Sprintf("[%s] %s", be.Code, be.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

func deleteByID(c *cli.Context, kind string, del func(string) bool) error {
	id, err := requireArg(c, kind+" id")
	if err != nil {
		return outputError(err)
	}
	if !del(id) {
		return outputError(errors.NewNotFound(kind, id))
	}
	return outputJSON(c, map[string]any{"id": id, "deleted": true})
}

func actOnRelease(c *cli.Context, act func(string) *model.Release) error {
	id, err := requireArg(c, "release id")
	if err != nil {
		return outputError(err)
	}
	release := act(id)
	if release == nil {
		return outputError(errors.NewNotFound("release", id))
	}
	return outputJSON(c, release)
}

// textFlag returns a string flag, reading stdin when its value is "-".
func textFlag(c *cli.Context, name string) (string, error) {
	v := c.String(name)
	if v != "-" {
		return v, nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest(fmt.Sprintf("--%s - expects piped stdin", name))
	}
	text, err := readStdin(maxStdinBytes)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return text, nil
}

func parseDate(rt *runtime, s string) (time.Time, error) {
	loc, err := rt.cfg.Location()
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(err.Error())
	}
	at, err := model.ParseDateTime(s, loc)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(err.Error())
	}
	return at, nil
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most maxBytes from stdin.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
