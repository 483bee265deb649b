package trash

import (
	"os"
	"path/filepath"
	"time"
)

// Entry represents one trashed file: a payload under files/ plus its
// .trashinfo record in the owning location's info/ directory.
type Entry struct {
	// Location is the trash directory the entry lives in
	Location *Location

	// TrashFilename is the name under files/, without the .trashinfo extension
	TrashFilename string

	// DeletedAt is when the file was moved to trash (local time)
	DeletedAt time.Time

	// OriginalPath is the absolute path the file was deleted from.
	// Records stored relative to the location's device root are resolved
	// to absolute form at parse time.
	OriginalPath string
}

// FilePath returns the absolute path of the payload in the trash.
func (e *Entry) FilePath() string {
	return filepath.Join(e.Location.FilesDir(), e.TrashFilename)
}

// InfoPath returns the absolute path of the entry's .trashinfo file.
func (e *Entry) InfoPath() string {
	return filepath.Join(e.Location.InfoDir(), e.TrashFilename+trashInfoExt)
}

// Exists reports whether the payload is still present in the trash.
// An entry whose payload is gone is orphaned.
func (e *Entry) Exists() bool {
	_, err := os.Lstat(e.FilePath())
	return err == nil
}

// GetName returns the original base name of the file.
func (e *Entry) GetName() string {
	return filepath.Base(e.OriginalPath)
}

// GetPath returns the current payload path in trash.
func (e *Entry) GetPath() string {
	return e.FilePath()
}

// GetDeletedAt returns when the file was trashed.
func (e *Entry) GetDeletedAt() time.Time {
	return e.DeletedAt
}
