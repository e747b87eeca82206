package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/storage"
	"github.com/buriosa/buriosa/internal/store"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Dir  string // backup directory; files must sit directly inside it
	Path string // optional, default: <Dir>/buriosa-<timestamp>.json
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Repos      int    `json:"repos"`
	Commits    int    `json:"commits"`
	Releases   int    `json:"releases"`
	ExportedAt string `json:"exportedAt"`
}

// Export writes the current state as a storage envelope to a backup file.
// The file is written to a temporary name and renamed into place, so an
// existing backup survives a failed export.
func Export(ctx context.Context, st *store.Store, now time.Time, input ExportInput) (*ExportOutput, error) {
	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(input.Dir, "buriosa-"+now.Format("2006-01-02T150405")+BackupExt)
	}

	if err := os.MkdirAll(input.Dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create backup directory: %w", err))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, input.Dir); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := st.Snapshot()
	data, err := storage.EncodeEnvelope(s, now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create backup file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close backup file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink swapped in after validation
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewConflict("backup file already exists; choose a new path")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize backup: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Repos:      len(s.Repos),
		Commits:    len(s.Commits),
		Releases:   len(s.Releases),
		ExportedAt: now.UTC().Format(time.RFC3339),
	}, nil
}
