package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"repo": true, "commit": true, "release": true,
	"period": true, "heatmap": true, "ui": true, "demo": true,
	"state": true, "registry": true, "serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _                _
  | |__  _   _ _ __(_) ___  ___  __ _
  | '_ \| | | | '__| |/ _ \/ __|/ _' |
  | |_) | |_| | |  | | (_) \__ \ (_| |
  |_.__/ \__,_|_|  |_|\___/|___/\__,_|

  Commits for your life, releases for your weeks

  Usage: buriosa <command> [options]
         buriosa --help

  MCP server mode requires piped input.`)
}

// baseDir returns BURIOSA_HOME or ~/.buriosa.
func baseDir() (string, error) {
	if dir := os.Getenv("BURIOSA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".buriosa"), nil
}

// loadConfig reads global and repo config, then .env and BURIOSA_* overrides.
// A .env in the base directory is loaded too; the working directory's wins.
func loadConfig(base string) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	cfg, err := config.LoadWithRepo(base, cwd)
	if err != nil {
		return nil, err
	}
	config.LoadDotEnv(base)
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before loading config
	if isHelpOrVersion() {
		app := newCLIApp(newRuntime("", config.DefaultConfig(), nil))
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	base, err := baseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to CLI output and the MCP transport
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	rt := newRuntime(base, cfg, logger)
	os.Exit(run(rt))
}

// run dispatches to the CLI or the MCP server and returns the exit status.
// It closes rt so pending writes are flushed before exit.
func run(rt *runtime) int {
	defer rt.Close()

	if isCLIMode() {
		app := newCLIApp(rt)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'buriosa --help' for usage.\n")
		return 1
	}

	// MCP server mode (default)
	st, err := rt.Store()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := mcp.Run(st, rt.cfg, rt.logger, rt.baseDir, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
