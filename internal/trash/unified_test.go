package trash

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testRoot creates a sandbox under the package directory. t.TempDir is
// usually under /tmp, which the system path guard rejects.
func testRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp(".", "trashtest-")
	if err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("failed to resolve test dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(abs) })
	return abs
}

// newTestTrash builds a unified trash with a single location rooted in the
// sandbox, standing in for the home trash.
func newTestTrash(t *testing.T, root string) *UnifiedTrash {
	t.Helper()
	dev, err := deviceID(root)
	if err != nil {
		t.Fatalf("failed to stat test dir: %v", err)
	}
	loc, err := EnsureLocation(filepath.Join(root, "Trash"), root, dev, true, false)
	if err != nil {
		t.Fatalf("failed to create test trash: %v", err)
	}
	return &UnifiedTrash{
		homeTrash: loc,
		trashes:   []*Location{loc},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestPutAndList(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "hello")

	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := os.Lstat(path); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("original file still present after Put")
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.OriginalPath != path {
		t.Errorf("OriginalPath = %q, want %q", e.OriginalPath, path)
	}
	if e.TrashFilename != "doc.txt" {
		t.Errorf("TrashFilename = %q, want %q", e.TrashFilename, "doc.txt")
	}
	got, err := os.ReadFile(e.FilePath())
	if err != nil {
		t.Fatalf("failed to read payload: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("payload = %q, want %q", got, "hello")
	}
}

func TestPutDirectory(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	dir := filepath.Join(root, "project")
	writeFile(t, filepath.Join(dir, "sub", "file.txt"), "data")

	if err := u.Put(dir, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	nested := filepath.Join(entries[0].FilePath(), "sub", "file.txt")
	if _, err := os.Stat(nested); err != nil {
		t.Errorf("nested payload missing: %v", err)
	}
}

func TestPutAssignsUniqueNames(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	// Files with the same base name from different directories must get
	// distinct trash names.
	want := []string{"note.txt", "note1.txt", "note2.txt"}
	for i, dir := range []string{"a", "b", "c"} {
		path := filepath.Join(root, dir, "note.txt")
		writeFile(t, path, dir)
		if err := u.Put(path, false); err != nil {
			t.Fatalf("Put #%d failed: %v", i, err)
		}
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.TrashFilename] = true
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("missing trash name %q in %v", name, names)
		}
	}
}

func TestNumberedName(t *testing.T) {
	tests := []struct {
		base string
		n    int
		want string
	}{
		{"note.txt", 1, "note1.txt"},
		{"note.txt", 12, "note12.txt"},
		{"archive.tar.gz", 2, "archive.tar2.gz"},
		{"README", 1, "README1"},
		{".config", 3, ".config3"},
	}

	for _, tt := range tests {
		if got := numberedName(tt.base, tt.n); got != tt.want {
			t.Errorf("numberedName(%q, %d) = %q, want %q", tt.base, tt.n, got, tt.want)
		}
	}
}

func TestPutMissingFile(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	err := u.Put(filepath.Join(root, "nope.txt"), false)
	if !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
}

func TestPutRejectsSystemPath(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	err := u.Put("/proc/uptime", false)
	if !errors.Is(err, ErrSystemPath) {
		t.Errorf("got %v, want ErrSystemPath", err)
	}
}

func TestPutSymlink(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	target := filepath.Join(root, "target.txt")
	writeFile(t, target, "data")
	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	// Without followSymlinks the link itself is trashed.
	if err := u.Put(link, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := os.Lstat(link); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("symlink still present after Put")
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("symlink target was trashed along with the link: %v", err)
	}
}

func TestListExcludesOrphans(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	for _, name := range []string{"keep.txt", "orphan.txt"} {
		path := filepath.Join(root, name)
		writeFile(t, path, name)
		if err := u.Put(path, false); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Delete one payload behind the trash's back.
	loc := u.trashes[0]
	if err := os.Remove(filepath.Join(loc.FilesDir(), "orphan.txt")); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].TrashFilename != "keep.txt" {
		t.Errorf("surviving entry = %q, want keep.txt", entries[0].TrashFilename)
	}
}

func TestRemoveOrphaned(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	for _, name := range []string{"keep.txt", "orphan.txt"} {
		path := filepath.Join(root, name)
		writeFile(t, path, name)
		if err := u.Put(path, false); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	loc := u.trashes[0]
	if err := os.Remove(filepath.Join(loc.FilesDir(), "orphan.txt")); err != nil {
		t.Fatalf("failed to remove payload: %v", err)
	}

	if err := u.RemoveOrphaned(); err != nil {
		t.Fatalf("RemoveOrphaned failed: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(loc.InfoDir(), "orphan.txt"+trashInfoExt)); !errors.Is(err, iofs.ErrNotExist) {
		t.Errorf("orphaned info file still present")
	}
	if _, err := os.Lstat(filepath.Join(loc.InfoDir(), "keep.txt"+trashInfoExt)); err != nil {
		t.Errorf("healthy info file was removed: %v", err)
	}
}

func TestEmpty(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)
	loc := u.trashes[0]

	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)

	// One entry well before the cutoff, one exactly at it, one after.
	entries := []struct {
		name      string
		deletedAt time.Time
		wantGone  bool
	}{
		{"old.txt", cutoff.Add(-24 * time.Hour), true},
		{"exact.txt", cutoff, false},
		{"new.txt", cutoff.Add(24 * time.Hour), false},
	}

	for _, e := range entries {
		src := filepath.Join(root, e.name)
		writeFile(t, src, e.name)
		entry := &Entry{
			Location:      loc,
			TrashFilename: e.name,
			DeletedAt:     e.deletedAt,
			OriginalPath:  src,
		}
		if err := loc.Write(entry, src, false); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	var reported []string
	report := func(e *Entry) { reported = append(reported, e.TrashFilename) }

	if err := u.Empty(cutoff, false, report); err != nil {
		t.Fatalf("Empty failed: %v", err)
	}

	if len(reported) != 1 || reported[0] != "old.txt" {
		t.Errorf("reported = %v, want [old.txt]", reported)
	}

	for _, e := range entries {
		_, fileErr := os.Lstat(filepath.Join(loc.FilesDir(), e.name))
		_, infoErr := os.Lstat(filepath.Join(loc.InfoDir(), e.name+trashInfoExt))
		if e.wantGone {
			if fileErr == nil || infoErr == nil {
				t.Errorf("%s: expected removal, payload err=%v info err=%v", e.name, fileErr, infoErr)
			}
		} else {
			if fileErr != nil || infoErr != nil {
				t.Errorf("%s: unexpectedly removed, payload err=%v info err=%v", e.name, fileErr, infoErr)
			}
		}
	}
}

func TestEmptyDryRun(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "hello")
	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var reported int
	if err := u.Empty(time.Now().Add(time.Hour), true, func(*Entry) { reported++ }); err != nil {
		t.Fatalf("Empty failed: %v", err)
	}

	if reported != 1 {
		t.Errorf("reported %d entries, want 1", reported)
	}
	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("dry run removed entries: %d left, want 1", len(entries))
	}
}

func TestRemove(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "hello")
	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	match := func(e *Entry) bool { return e.TrashFilename == "doc.txt" }
	removed, err := u.Remove(match, nil)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed != path {
		t.Errorf("Remove returned %q, want %q", removed, path)
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries after Remove, want 0", len(entries))
	}
}

func TestRemoveNoMatch(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	_, err := u.Remove(func(*Entry) bool { return false }, nil)
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("got %v, want ErrNoMatch", err)
	}
}

func TestRemoveDisambiguates(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	for _, dir := range []string{"a", "b"} {
		path := filepath.Join(root, dir, "note.txt")
		writeFile(t, path, dir)
		if err := u.Put(path, false); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	wantPath := filepath.Join(root, "b", "note.txt")
	disambiguate := func(matches []*Entry) (*Entry, error) {
		if len(matches) != 2 {
			t.Fatalf("disambiguate got %d matches, want 2", len(matches))
		}
		for _, m := range matches {
			if m.OriginalPath == wantPath {
				return m, nil
			}
		}
		t.Fatal("expected match not offered")
		return nil, nil
	}

	match := func(e *Entry) bool { return filepath.Base(e.OriginalPath) == "note.txt" }
	removed, err := u.Remove(match, disambiguate)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed != wantPath {
		t.Errorf("Remove returned %q, want %q", removed, wantPath)
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].OriginalPath == wantPath {
		t.Errorf("wrong entry removed, %q still listed", wantPath)
	}
}

func TestRestore(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "hello")
	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	match := func(e *Entry) bool { return e.TrashFilename == "doc.txt" }
	restored, err := u.Restore(match, nil, nil)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored != path {
		t.Errorf("Restore returned %q, want %q", restored, path)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("restored file unreadable: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("restored content = %q, want %q", got, "hello")
	}

	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries after Restore, want 0", len(entries))
	}
}

func TestRestoreDeclinedOverwrite(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "old")
	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Something new appeared at the original path in the meantime.
	writeFile(t, path, "new")

	match := func(e *Entry) bool { return e.TrashFilename == "doc.txt" }
	decline := func(*Entry) bool { return false }

	_, err := u.Restore(match, nil, decline)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("got %v, want ErrAborted", err)
	}

	// Declining must leave both the new file and the trash untouched.
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file at original path unreadable: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("file at original path = %q, want %q", got, "new")
	}
	entries, err := u.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestRestoreConfirmedOverwrite(t *testing.T) {
	root := testRoot(t)
	u := newTestTrash(t, root)

	path := filepath.Join(root, "doc.txt")
	writeFile(t, path, "old")
	if err := u.Put(path, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	writeFile(t, path, "new")

	match := func(e *Entry) bool { return e.TrashFilename == "doc.txt" }
	accept := func(*Entry) bool { return true }

	if _, err := u.Restore(match, nil, accept); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("restored file unreadable: %v", err)
	}
	if string(got) != "old" {
		t.Errorf("restored content = %q, want %q", got, "old")
	}
}

func TestTrashesSortsAdminFirst(t *testing.T) {
	root := testRoot(t)
	dev, err := deviceID(root)
	if err != nil {
		t.Fatalf("failed to stat test dir: %v", err)
	}

	user, err := EnsureLocation(filepath.Join(root, ".Trash-1000"), root, dev, false, false)
	if err != nil {
		t.Fatalf("failed to create user trash: %v", err)
	}
	admin, err := EnsureLocation(filepath.Join(root, ".Trash", "1000"), root, dev, false, true)
	if err != nil {
		t.Fatalf("failed to create admin trash: %v", err)
	}

	trashes := []*Location{user, admin}
	sortLocations(trashes)

	if !trashes[0].IsAdminTrash {
		t.Errorf("admin trash not sorted first: %+v", trashes[0])
	}
}
