package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/babarot/gotrash/internal/env"
	"github.com/babarot/gotrash/internal/fs"
)

// Location represents one physical trash directory: the home trash, an
// admin-created $topdir/.Trash/$uid, or a per-user $topdir/.Trash-$uid.
type Location struct {
	// Path is the trash root, containing files/ and info/
	Path string

	// DeviceRoot is the mount point this trash resides on. Stored Path=
	// values of non-home trashes are relative to it.
	DeviceRoot string

	// DeviceID is the stat device number of the filesystem
	DeviceID uint64

	// IsHomeTrash is true for the XDG data-home trash only
	IsHomeTrash bool

	// IsAdminTrash is true for trashes under a mount's sticky .Trash dir
	IsAdminTrash bool
}

// FilesDir returns the payload directory of this location.
func (l *Location) FilesDir() string {
	return filepath.Join(l.Path, "files")
}

// InfoDir returns the metadata directory of this location.
func (l *Location) InfoDir() string {
	return filepath.Join(l.Path, "info")
}

// EnsureLocation idempotently creates the files/ and info/ subdirectories
// at path and returns the resulting location.
func EnsureLocation(path, deviceRoot string, deviceID uint64, isHome, isAdmin bool) (*Location, error) {
	l := &Location{
		Path:         path,
		DeviceRoot:   deviceRoot,
		DeviceID:     deviceID,
		IsHomeTrash:  isHome,
		IsAdminTrash: isAdmin,
	}

	if err := os.MkdirAll(l.FilesDir(), 0700); err != nil {
		return nil, fmt.Errorf("failed to create files directory: %w", err)
	}
	if err := os.MkdirAll(l.InfoDir(), 0700); err != nil {
		return nil, fmt.Errorf("failed to create info directory: %w", err)
	}

	return l, nil
}

// Write admits an entry into this trash: the .trashinfo file is created
// exclusively first, then the payload at src is moved under files/.
//
// If the info file already exists the error satisfies
// errors.Is(err, fs.ErrExist) and the caller must retry with a new
// candidate name; the exclusive create is what resolves naming races
// between concurrent processes.
//
// If the payload move fails, the just-written info file is deleted again
// so that no orphaned record is left behind.
func (l *Location) Write(e *Entry, src string, fallbackCopy bool) error {
	relativeTo := l.DeviceRoot
	if l.IsHomeTrash {
		relativeTo = ""
	}
	content := serializeEntry(e, relativeTo)

	infoPath := e.InfoPath()
	f, err := fs.Create(infoPath, 0600)
	if err != nil {
		return fmt.Errorf("failed to create info file: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(infoPath)
		return fmt.Errorf("failed to write info file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(infoPath)
		return fmt.Errorf("failed to close info file: %w", err)
	}

	if err := fs.Move(src, e.FilePath(), fallbackCopy); err != nil {
		// Roll the info file back so the failed put leaves no orphan.
		if rmErr := os.Remove(infoPath); rmErr != nil {
			slog.Error("failed to roll back info file", "path", infoPath, "error", rmErr)
		}
		return fmt.Errorf("failed to move file to trash: %w", err)
	}

	return nil
}

// homeTrashLocation resolves (and creates if absent) the trash under the
// user's XDG data home.
func homeTrashLocation() (*Location, error) {
	dataDir := env.DataHome()

	dev, err := deviceID(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat data home: %w", err)
	}

	return EnsureLocation(filepath.Join(dataDir, "Trash"), dataDir, dev, true, false)
}

// discoverMountTrashes enumerates all admissible trash directories across
// mounted filesystems for the given uid.
//
// Per mount, the admin-created $topdir/.Trash is considered first: it must
// exist, have its sticky bit set and not be a symlink; only then is
// $topdir/.Trash/$uid ensured and registered. Regardless of the outcome,
// $topdir/.Trash-$uid is independently registered if it already exists
// (it is never speculatively created during discovery), so both variants
// may be live on the same mount at once.
func discoverMountTrashes(uid int) ([]*Location, error) {
	mounts, err := listMounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list mounts: %w", err)
	}

	uidStr := strconv.Itoa(uid)
	var locations []*Location

	for _, mount := range mounts {
		if loc := adminTrashAt(mount, uidStr); loc != nil {
			locations = append(locations, loc)
		}

		uidDir := filepath.Join(mount, ".Trash-"+uidStr)
		info, err := os.Lstat(uidDir)
		if err != nil || !info.IsDir() {
			continue
		}
		dev, err := deviceID(uidDir)
		if err != nil {
			slog.Debug("failed to stat user trash", "path", uidDir, "error", err)
			continue
		}
		loc, err := EnsureLocation(uidDir, mount, dev, false, false)
		if err != nil {
			slog.Debug("failed to ensure user trash", "path", uidDir, "error", err)
			continue
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

// adminTrashAt validates $mount/.Trash per the trash spec's security checks and
// returns the per-uid location under it, or nil if any check fails.
func adminTrashAt(mount, uid string) *Location {
	adminDir := filepath.Join(mount, ".Trash")

	info, err := os.Lstat(adminDir)
	if err != nil {
		return nil
	}

	// The trash spec requires the sticky bit and forbids symlinks.
	if info.Mode()&os.ModeSymlink != 0 {
		slog.Warn("admin trash is a symlink, ignoring", "path", adminDir)
		return nil
	}
	if info.Mode()&os.ModeSticky == 0 {
		slog.Warn("admin trash is missing the sticky bit, ignoring", "path", adminDir)
		return nil
	}
	if !info.IsDir() {
		slog.Warn("admin trash is not a directory, ignoring", "path", adminDir)
		return nil
	}

	dev, err := deviceID(adminDir)
	if err != nil {
		slog.Debug("failed to stat admin trash", "path", adminDir, "error", err)
		return nil
	}

	loc, err := EnsureLocation(filepath.Join(adminDir, uid), mount, dev, false, true)
	if err != nil {
		slog.Warn("failed to ensure admin trash", "path", adminDir, "error", err)
		return nil
	}
	return loc
}
