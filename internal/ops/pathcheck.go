package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/buriosa/buriosa/internal/errors"
)

// BackupExt is the required extension of backup files.
const BackupExt = ".json"

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // restoring a backup
	PathCheckWrite                      // writing a backup
)

// ValidatePath checks a backup path before it is opened:
//   - no ".." components
//   - .json extension
//   - directly inside allowedDir, no subdirectories
//   - neither the parent directory nor the file is a symlink
//
// Keeping files directly in allowedDir leaves no intermediate directory to
// swap for a symlink between validation and open; O_NOFOLLOW covers the file.
func ValidatePath(path string, mode PathCheckMode, allowedDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != BackupExt {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have %s extension", BackupExt))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	allowed, err := resolveDir(allowedDir)
	if err != nil {
		return err
	}

	parentDir := filepath.Dir(absPath)
	if parentDir != allowed {
		return errors.NewInvalidRequest(fmt.Sprintf("file must be directly in %s", allowed))
	}
	if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}

	info, err := os.Lstat(absPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return errors.NewInvalidRequest("path must not be a symlink")
	case os.IsNotExist(err) && mode == PathCheckRead:
		return errors.NewNotFound("file", path)
	}
	return nil
}

// resolveDir returns dir as a clean absolute path, following a symlink on
// dir itself so a symlinked backup directory still matches.
func resolveDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.NewInvalidRequest("backup directory is not configured")
	}
	abs, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid backup directory: %v", err))
	}
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", errors.NewInvalidRequest(fmt.Sprintf("cannot resolve backup directory: %v", err))
		}
		abs = resolved
	}
	return abs, nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
