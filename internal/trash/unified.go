// Package trash implements a unified view over every trash directory
// across all mounted filesystems, following the FreeDesktop.org Trash
// specification.
//
// The package never performs terminal I/O: matching, disambiguation and
// overwrite confirmation are injected by the caller.
package trash

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/babarot/gotrash/internal/fs"
)

// MatchFunc selects entries for remove/restore queries.
type MatchFunc func(*Entry) bool

// DisambiguateFunc picks exactly one entry when a query matches several.
// It is only invoked for more than one match.
type DisambiguateFunc func([]*Entry) (*Entry, error)

// ConfirmFunc is consulted before overwriting an existing file during
// restore. Returning false aborts the operation.
type ConfirmFunc func(*Entry) bool

// Config holds the settings of the unified trash.
type Config struct {
	// HomeFallback falls back to the home trash (copying across devices)
	// when no trash can be created on the file's own filesystem.
	HomeFallback bool
}

// UnifiedTrash is a wrapper around all trash directories across all
// physical devices. The list of locations is established once at
// construction time and is read-only afterwards.
type UnifiedTrash struct {
	config    Config
	homeTrash *Location
	trashes   []*Location
}

// New discovers all trash locations: the home trash (created if absent)
// plus every admissible trash on every mount. Admin-created trashes sort
// before per-user ones so they are preferred as write targets.
func New(cfg Config) (*UnifiedTrash, error) {
	home, err := homeTrashLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to get home trash dir: %w", err)
	}

	mountTrashes, err := discoverMountTrashes(os.Getuid())
	if err != nil {
		return nil, fmt.Errorf("failed to get trash dirs: %w", err)
	}

	trashes := append([]*Location{home}, mountTrashes...)
	sortLocations(trashes)

	slog.Debug("unified trash initialized", "locations", len(trashes))
	return &UnifiedTrash{
		config:    cfg,
		homeTrash: home,
		trashes:   trashes,
	}, nil
}

// sortLocations orders locations by write preference: admin-created
// trashes first, otherwise discovery order is kept.
func sortLocations(trashes []*Location) {
	sort.SliceStable(trashes, func(i, j int) bool {
		return trashes[i].IsAdminTrash && !trashes[j].IsAdminTrash
	})
}

// Trashes returns all registered trash locations in write-preference order.
func (u *UnifiedTrash) Trashes() []*Location {
	return u.trashes
}

// List returns every trashed entry across all locations, in location
// order. Entries whose payload is missing are logged as orphaned and
// excluded; sorting by any entry field is a consumer concern.
func (u *UnifiedTrash) List() ([]*Entry, error) {
	var entries []*Entry
	for _, loc := range u.trashes {
		locEntries, err := u.listLocation(loc, false)
		if err != nil {
			return nil, newOpError("list", loc.Path, err)
		}
		entries = append(entries, locEntries...)
	}
	return entries, nil
}

// listLocation reads every .trashinfo file of one location. Orphaned
// entries are included only when includeOrphans is set.
func (u *UnifiedTrash) listLocation(loc *Location, includeOrphans bool) ([]*Entry, error) {
	dirEntries, err := os.ReadDir(loc.InfoDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read info dir: %w", err)
	}

	var entries []*Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), trashInfoExt) {
			continue
		}

		entry, err := loadTrashInfo(filepath.Join(loc.InfoDir(), de.Name()), loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", de.Name(), err)
		}

		if !entry.Exists() {
			if !includeOrphans {
				slog.Warn("orphaned trashinfo file", "path", entry.InfoPath())
				continue
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Put moves the file at path into the appropriate trash, creating a new
// trash directory on the file's filesystem if needed.
//
// The trash filename is the input's base name, made unique across all
// currently listed entries system-wide; on a collision an increasing
// numeric suffix is inserted before the extension. Losing the exclusive
// info-file creation race against another process picks the next
// candidate and retries the creation itself, so there is no window
// between the uniqueness check and admission.
func (u *UnifiedTrash) Put(path string, followSymlinks bool) error {
	if _, err := os.Lstat(path); err != nil {
		return newOpError("put", path, err)
	}

	if isSystemPath(path) {
		return newOpError("put", path, ErrSystemPath)
	}

	var original string
	var err error
	if followSymlinks {
		original, err = canonicalize(path)
	} else {
		// Lexical absolutization only, so the symlink itself is trashed.
		original, err = filepath.Abs(path)
	}
	if err != nil {
		return newOpError("put", path, err)
	}

	base := filepath.Base(original)
	if base == "/" || base == "." {
		return newOpError("put", path, ErrNoFilename)
	}

	entries, err := u.List()
	if err != nil {
		return newOpError("put", path, fmt.Errorf("failed to list trash: %w", err))
	}
	taken := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		taken[e.TrashFilename] = struct{}{}
	}

	loc, fallbackCopy, err := u.selectLocation(original)
	if err != nil {
		return newOpError("put", path, err)
	}

	deletedAt := time.Now()
	candidate := base
	for iteration := 1; ; iteration++ {
		if _, exists := taken[candidate]; exists {
			candidate = numberedName(base, iteration)
			continue
		}

		entry := &Entry{
			Location:      loc,
			TrashFilename: candidate,
			DeletedAt:     deletedAt,
			OriginalPath:  original,
		}
		err := loc.Write(entry, original, fallbackCopy)
		if errors.Is(err, iofs.ErrExist) {
			// Another process claimed the name between our listing and
			// the exclusive create. Try the next candidate.
			slog.Debug("lost info file creation race", "name", candidate)
			taken[candidate] = struct{}{}
			candidate = numberedName(base, iteration)
			continue
		}
		if err != nil {
			return newOpError("put", path, err)
		}

		slog.Debug("trashed file",
			"path", original,
			"trash", loc.Path,
			"name", candidate)
		return nil
	}
}

// numberedName inserts n before the extension of base, preserving the
// extension so manually recovered files keep their type.
func numberedName(base string, n int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// Dotfiles like ".config" have no stem to speak of.
		stem, ext = base, ""
	}
	return stem + strconv.Itoa(n) + ext
}

// selectLocation picks the write target for a file at path: the home
// trash when the device matches, otherwise a known same-device trash,
// otherwise a freshly created .Trash-$uid at the file's mount root.
func (u *UnifiedTrash) selectLocation(path string) (*Location, bool, error) {
	dev, err := deviceID(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat file: %w", err)
	}

	if dev == u.homeTrash.DeviceID {
		return u.homeTrash, false, nil
	}

	for _, loc := range u.trashes {
		if loc.DeviceID == dev {
			return loc, false, nil
		}
	}

	loc, err := u.createMountTrash(path)
	if err != nil {
		if u.config.HomeFallback {
			slog.Warn("falling back to home trash", "path", path, "error", err)
			return u.homeTrash, true, nil
		}
		return nil, false, err
	}
	return loc, false, nil
}

// createMountTrash creates a per-user trash at the mount root of path.
func (u *UnifiedTrash) createMountTrash(path string) (*Location, error) {
	fsRoot, err := findFSRoot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find mount point: %w", err)
	}

	rootDev, err := deviceID(fsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat mount: %w", err)
	}

	name := fmt.Sprintf(".Trash-%d", os.Getuid())
	loc, err := EnsureLocation(filepath.Join(fsRoot, name), fsRoot, rootDev, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create trash dir on mount %s: %w", fsRoot, err)
	}

	slog.Debug("created trash dir", "path", loc.Path, "mount", fsRoot)
	return loc, nil
}

// Empty removes every entry deleted strictly before the given threshold.
// With dryRun set nothing is removed and report is still called for each
// entry that would go. A payload already missing is treated as satisfied
// but its info file is removed regardless.
func (u *UnifiedTrash) Empty(before time.Time, dryRun bool, report func(*Entry)) error {
	entries, err := u.List()
	if err != nil {
		return newOpError("empty", "", err)
	}

	for _, e := range entries {
		if !e.DeletedAt.Before(before) {
			continue
		}

		if report != nil {
			report(e)
		}
		if dryRun {
			continue
		}

		// RemoveAll is a no-op for a payload that is already gone.
		if err := os.RemoveAll(e.FilePath()); err != nil {
			return newOpError("empty", e.FilePath(), err)
		}
		if err := os.Remove(e.InfoPath()); err != nil {
			return newOpError("empty", e.InfoPath(), fmt.Errorf("failed to remove info file: %w", err))
		}
	}

	return nil
}

// RemoveOrphaned deletes every .trashinfo file whose payload is absent.
func (u *UnifiedTrash) RemoveOrphaned() error {
	for _, loc := range u.trashes {
		entries, err := u.listLocation(loc, true)
		if err != nil {
			return newOpError("prune", loc.Path, err)
		}

		for _, e := range entries {
			if e.Exists() {
				continue
			}
			slog.Info("removing orphaned trashinfo file", "path", e.InfoPath())
			if err := os.Remove(e.InfoPath()); err != nil {
				return newOpError("prune", e.InfoPath(), err)
			}
		}
	}
	return nil
}

// Remove permanently deletes one trashed entry chosen by match, using
// disambiguate when the query matches several. It returns the removed
// entry's original path.
func (u *UnifiedTrash) Remove(match MatchFunc, disambiguate DisambiguateFunc) (string, error) {
	entry, err := u.selectEntry(match, disambiguate)
	if err != nil {
		return "", err
	}

	if err := os.RemoveAll(entry.FilePath()); err != nil {
		return "", newOpError("remove", entry.FilePath(), err)
	}
	if err := os.Remove(entry.InfoPath()); err != nil {
		return "", newOpError("remove", entry.InfoPath(), fmt.Errorf("failed to remove info file: %w", err))
	}

	return entry.OriginalPath, nil
}

// Restore moves one trashed entry back to its original path. If something
// already exists there, confirm decides whether to overwrite; declining
// aborts with no filesystem changes.
//
// The payload is moved first and the info file removed second. If the
// info removal fails the restored file stays in place: a stale record is
// preferable to risking the data with a second move.
func (u *UnifiedTrash) Restore(match MatchFunc, disambiguate DisambiguateFunc, confirm ConfirmFunc) (string, error) {
	entry, err := u.selectEntry(match, disambiguate)
	if err != nil {
		return "", err
	}

	if _, err := os.Lstat(entry.OriginalPath); err == nil {
		if confirm == nil || !confirm(entry) {
			return "", newOpError("restore", entry.OriginalPath, ErrAborted)
		}
	}

	if err := fs.Move(entry.FilePath(), entry.OriginalPath, true); err != nil {
		return "", newOpError("restore", entry.OriginalPath, err)
	}

	if err := os.Remove(entry.InfoPath()); err != nil {
		return "", newOpError("restore", entry.InfoPath(), fmt.Errorf("failed to remove info file: %w", err))
	}

	return entry.OriginalPath, nil
}

// selectEntry applies match over the full listing and resolves multiple
// matches through the disambiguation collaborator.
func (u *UnifiedTrash) selectEntry(match MatchFunc, disambiguate DisambiguateFunc) (*Entry, error) {
	entries, err := u.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed files: %w", err)
	}

	var matching []*Entry
	for _, e := range entries {
		if match(e) {
			matching = append(matching, e)
		}
	}

	switch len(matching) {
	case 0:
		return nil, ErrNoMatch
	case 1:
		return matching[0], nil
	default:
		if disambiguate == nil {
			return nil, fmt.Errorf("%d files match and no disambiguation available", len(matching))
		}
		return disambiguate(matching)
	}
}
