// Package fs provides the low-level filesystem primitives shared by the
// trash subsystem: exclusive file creation and move-with-fallback.
package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
)

// Create creates a new file with the O_EXCL flag so that creation is atomic.
// It fails with an error satisfying errors.Is(err, fs.ErrExist) if the file
// already exists. This is the only cross-process synchronization primitive
// the trash subsystem relies on.
func Create(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

// Move moves a file or directory from src to dst using rename(2).
// If the rename fails and fallbackCopy is set, it falls back to
// copy-and-delete, which also works across devices.
func Move(src, dst string, fallbackCopy bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		if !fallbackCopy {
			return fmt.Errorf("failed to move file: %w", err)
		}

		if err := cp.Copy(src, dst); err != nil {
			return fmt.Errorf("failed to copy file: %w", err)
		}

		if err := os.RemoveAll(src); err != nil {
			// Couldn't remove the source, so drop the copy instead of
			// leaving the file duplicated.
			_ = os.RemoveAll(dst)
			return fmt.Errorf("failed to remove source after copy: %w", err)
		}
	}

	return nil
}

// DirSize returns the total size in bytes of the file or directory at path.
func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
