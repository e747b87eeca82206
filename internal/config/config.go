package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by the persistence layer.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultStorageKey is the key the application state is persisted under.
const DefaultStorageKey = "buriosa-storage"

// Config holds application configuration.
type Config struct {
	// StorageBackend selects where the state aggregate is persisted:
	// "sqlite" (default), "bolt", "redis" or "memory".
	StorageBackend string `json:"storage_backend,omitempty"`

	// StorageKey is the single key the state aggregate is written under.
	StorageKey string `json:"storage_key,omitempty"`

	// BoltPath is the bbolt file used by the "bolt" backend.
	// Relative paths are resolved against the base directory.
	BoltPath string `json:"bolt_path,omitempty"`

	// Redis connection settings for the "redis" backend.
	RedisAddr      string `json:"redis_addr,omitempty"`
	RedisUsername  string `json:"redis_username,omitempty"`
	RedisPassword  string `json:"redis_password,omitempty"`
	RedisDB        int    `json:"redis_db,omitempty"`
	RedisKeyPrefix string `json:"redis_key_prefix,omitempty"`

	// SaveDebounceMS coalesces state writes. 0 writes synchronously after every action.
	SaveDebounceMS int `json:"save_debounce_ms,omitempty"`

	// Timezone is the IANA zone used for heatmap days and release periods.
	// Empty means the process local zone.
	Timezone string `json:"timezone,omitempty"`

	// RegistryDir holds one subdirectory per component, each with a metadata.yaml.
	RegistryDir string `json:"registry_dir,omitempty"`

	// RegistryOutputDir receives the generated JSON artifacts.
	RegistryOutputDir string `json:"registry_output_dir,omitempty"`

	// ComponentPathPrefix is prepended to the directory name to form componentPath.
	ComponentPathPrefix string `json:"component_path_prefix,omitempty"`

	// HTTPAddr is the listen address for `buriosa serve`.
	HTTPAddr string `json:"http_addr,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely
	// (e.g. "release" disables every release_* tool).
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageBackend:      BackendSQLite,
		StorageKey:          DefaultStorageKey,
		BoltPath:            "buriosa.bolt",
		RedisAddr:           "localhost:6379",
		RegistryDir:         filepath.Join("src", "components", "registry"),
		RegistryOutputDir:   filepath.Join("public", "generated"),
		ComponentPathPrefix: "@/components/registry/",
		HTTPAddr:            "127.0.0.1:8080",
		LogLevel:            "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.buriosa.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.buriosa) and project (.buriosa) directories.
// The project config is found by walking upward from startDir.
// Project config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment overrides (including a .env file in startDir) are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)

	LoadDotEnv(startDir)
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExportsDir is the directory state backups are written to and restored from.
func ExportsDir(baseDir string) string {
	return filepath.Join(baseDir, "exports")
}

// FindRepoConfig walks upward from startDir to find the nearest .buriosa/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".buriosa", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadDotEnv loads dir/.env into the process environment if present.
// Variables that are already set win over the file.
func LoadDotEnv(dir string) {
	if dir == "" {
		return
	}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("failed to load .env", "path", envPath, "error", err)
	}
}

// ApplyEnv overlays BURIOSA_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	strVars := map[string]*string{
		"BURIOSA_STORAGE_BACKEND":       &cfg.StorageBackend,
		"BURIOSA_STORAGE_KEY":           &cfg.StorageKey,
		"BURIOSA_BOLT_PATH":             &cfg.BoltPath,
		"BURIOSA_REDIS_ADDR":            &cfg.RedisAddr,
		"BURIOSA_REDIS_USERNAME":        &cfg.RedisUsername,
		"BURIOSA_REDIS_PASSWORD":        &cfg.RedisPassword,
		"BURIOSA_REDIS_KEY_PREFIX":      &cfg.RedisKeyPrefix,
		"BURIOSA_TIMEZONE":              &cfg.Timezone,
		"BURIOSA_REGISTRY_DIR":          &cfg.RegistryDir,
		"BURIOSA_REGISTRY_OUTPUT_DIR":   &cfg.RegistryOutputDir,
		"BURIOSA_COMPONENT_PATH_PREFIX": &cfg.ComponentPathPrefix,
		"BURIOSA_HTTP_ADDR":             &cfg.HTTPAddr,
		"BURIOSA_LOG_LEVEL":             &cfg.LogLevel,
	}
	for key, dst := range strVars {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			*dst = val
		}
	}

	intVars := map[string]*int{
		"BURIOSA_REDIS_DB":         &cfg.RedisDB,
		"BURIOSA_SAVE_DEBOUNCE_MS": &cfg.SaveDebounceMS,
	}
	for key, dst := range intVars {
		val := strings.TrimSpace(os.Getenv(key))
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, val)
		}
		*dst = n
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel to a slog.Level (info when unknown).
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		StorageBackend:      pickString(base.StorageBackend, overlay.StorageBackend),
		StorageKey:          pickString(base.StorageKey, overlay.StorageKey),
		BoltPath:            pickString(base.BoltPath, overlay.BoltPath),
		RedisAddr:           pickString(base.RedisAddr, overlay.RedisAddr),
		RedisUsername:       pickString(base.RedisUsername, overlay.RedisUsername),
		RedisPassword:       pickString(base.RedisPassword, overlay.RedisPassword),
		RedisKeyPrefix:      pickString(base.RedisKeyPrefix, overlay.RedisKeyPrefix),
		Timezone:            pickString(base.Timezone, overlay.Timezone),
		RegistryDir:         pickString(base.RegistryDir, overlay.RegistryDir),
		RegistryOutputDir:   pickString(base.RegistryOutputDir, overlay.RegistryOutputDir),
		ComponentPathPrefix: pickString(base.ComponentPathPrefix, overlay.ComponentPathPrefix),
		HTTPAddr:            pickString(base.HTTPAddr, overlay.HTTPAddr),
		LogLevel:            pickString(base.LogLevel, overlay.LogLevel),
		RedisDB:             pickInt(base.RedisDB, overlay.RedisDB),
		SaveDebounceMS:      pickInt(base.SaveDebounceMS, overlay.SaveDebounceMS),
		DBMaxOpenConns:      pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:      pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// pickString returns overlay unless it is blank.
func pickString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// pickInt returns overlay unless it is zero.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
