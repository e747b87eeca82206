package ops

import (
	"fmt"
	"io"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/storage"
	"github.com/buriosa/buriosa/internal/store"
)

// ImportMode controls what happens to the current state on import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // refuse unless the current state is empty
	ImportModeReplace ImportMode = "replace" // discard the current state
	ImportModeMerge   ImportMode = "merge"   // add entities whose IDs are new
)

// MaxBackupSize bounds the backup file read into memory.
const MaxBackupSize = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Dir  string // backup directory
	Path string // required, directly inside Dir
	Mode ImportMode
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Mode        ImportMode `json:"mode"`
	FromVersion int        `json:"fromVersion"`
	Added       int        `json:"added"`
	Skipped     int        `json:"skipped"`
}

// Import restores a backup written by Export. Older envelope versions and
// legacy un-enveloped documents are migrated; unlike loading at startup, an
// unreadable file is an error rather than a silent fallback.
func Import(st *store.Store, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeMerge:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, merge")
	}

	if err := ValidatePath(input.Path, PathCheckRead, input.Dir); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, 0, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxBackupSize+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read backup: %w", err))
	}
	if len(data) > MaxBackupSize {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("backup exceeds %d bytes", MaxBackupSize))
	}

	s, from, err := storage.DecodeEnvelope(data)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid backup: %v", err))
	}

	out := &ImportOutput{Mode: input.Mode, FromVersion: from}
	switch input.Mode {
	case ImportModeError:
		if !st.IsEmpty() {
			return nil, errors.NewConflict("current state is not empty; use mode replace or merge")
		}
		fallthrough
	case ImportModeReplace:
		st.Replace(s)
		out.Added = len(s.Repos) + len(s.Commits) + len(s.Releases)
	case ImportModeMerge:
		res := st.Merge(s)
		out.Added, out.Skipped = res.Added, res.Skipped
	}
	return out, nil
}
