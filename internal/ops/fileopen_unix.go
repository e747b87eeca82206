//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/buriosa/buriosa/internal/errors"
)

// openNoFollow opens path with O_NOFOLLOW so a symlink planted at the final
// component is refused. Directory components are covered by ValidatePath.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	case stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewNotFound("file", path)
	}
	return nil, err
}
