package trash

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// According to the XDG trash spec
	trashInfoHeader = "[Trash Info]"
	trashInfoExt    = ".trashinfo"

	// The format nautilus and dolphin actually write. The trash spec claims
	// rfc3339, but no real-world implementation follows that.
	timeFormat = "2006-01-02T15:04:05"

	// The literal sample format used by the trash spec document itself.
	specTimeFormat = "20060102T15:04:05"

	// RFC 2822 style timestamps, seen in the wild.
	rfc2822Format = "Mon, 02 Jan 2006 15:04:05 -0700"
)

// deletionDateParsers are tried in order; the first successful parse wins.
// All failures are aggregated so that a completely unparseable date
// reports every attempt.
var deletionDateParsers = []struct {
	name  string
	parse func(string) (time.Time, error)
}{
	{"local", func(s string) (time.Time, error) {
		return time.ParseInLocation(timeFormat, s, time.Local)
	}},
	{"rfc3339", func(s string) (time.Time, error) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
		return t.Local(), nil
	}},
	{"spec", func(s string) (time.Time, error) {
		return time.ParseInLocation(specTimeFormat, s, time.Local)
	}},
	{"rfc2822", func(s string) (time.Time, error) {
		t, err := time.Parse(rfc2822Format, s)
		if err != nil {
			return time.Time{}, err
		}
		return t.Local(), nil
	}},
}

// parseDeletionDate parses a DeletionDate value, tolerating the timestamp
// encodings common desktop implementations write.
func parseDeletionDate(value string) (time.Time, error) {
	var errs []error
	for _, p := range deletionDateParsers {
		t, err := p.parse(value)
		if err == nil {
			return t, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
	}
	return time.Time{}, fmt.Errorf("all deletion date parsers failed: %w", errors.Join(errs...))
}

// serializeEntry renders the .trashinfo content for an entry. If relativeTo
// is non-empty the stored Path is made relative to it, as required for
// trash directories other than the home trash.
func serializeEntry(e *Entry, relativeTo string) string {
	path := e.OriginalPath
	if relativeTo != "" {
		if rel, err := filepath.Rel(relativeTo, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}

	var b strings.Builder
	fmt.Fprintln(&b, trashInfoHeader)
	fmt.Fprintf(&b, "Path=%s\n", encodeTrashPath(path))
	fmt.Fprintf(&b, "DeletionDate=%s\n", e.DeletedAt.Format(timeFormat))
	return b.String()
}

// parseTrashInfo parses a .trashinfo record. The returned entry has no
// TrashFilename set; loadTrashInfo derives it from the file name.
//
// The first line must be exactly "[Trash Info]". Only the first occurrence
// of the Path and DeletionDate keys is used; all other lines are ignored.
func parseTrashInfo(r io.Reader, loc *Location) (*Entry, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading info file: %w", err)
		}
		return nil, errors.New("empty trashinfo file")
	}
	if scanner.Text() != trashInfoHeader {
		return nil, fmt.Errorf("invalid first line: %q", scanner.Text())
	}

	var pathValue, dateValue string
	var havePath, haveDate bool

	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		switch strings.TrimSpace(key) {
		case "Path":
			if !havePath {
				pathValue = strings.TrimSpace(value)
				havePath = true
			}
		case "DeletionDate":
			if !haveDate {
				dateValue = strings.TrimSpace(value)
				haveDate = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading info file: %w", err)
	}

	if !havePath {
		return nil, errors.New("missing Path field")
	}
	if !haveDate {
		return nil, errors.New("missing DeletionDate field")
	}

	deletedAt, err := parseDeletionDate(dateValue)
	if err != nil {
		return nil, fmt.Errorf("invalid DeletionDate: %w", err)
	}

	// Paths on unix don't have to be valid UTF-8, so the decoder works on
	// raw bytes rather than going through net/url.
	path := decodeTrashPath(pathValue)

	// A relative path is based on the device root of the owning trash.
	if !filepath.IsAbs(path) && loc != nil {
		resolved := filepath.Join(loc.DeviceRoot, path)
		slog.Debug("resolved relative trashinfo path",
			"relative", path,
			"deviceRoot", loc.DeviceRoot,
			"absolute", resolved)
		path = resolved
	}

	return &Entry{
		Location:     loc,
		DeletedAt:    deletedAt,
		OriginalPath: path,
	}, nil
}

// loadTrashInfo loads and parses a .trashinfo file, binding the resulting
// entry to the owning location.
func loadTrashInfo(path string, loc *Location) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open info file: %w", err)
	}
	defer f.Close()

	entry, err := parseTrashInfo(f, loc)
	if err != nil {
		return nil, err
	}
	entry.TrashFilename = strings.TrimSuffix(filepath.Base(path), trashInfoExt)

	return entry, nil
}

// shouldEscape reports whether a path byte needs percent-encoding.
// Forward slashes are kept so the stored path stays readable.
func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '-' || c == '_' || c == '.' || c == '~' || c == '/':
		return false
	}
	return true
}

// encodeTrashPath percent-encodes the raw bytes of a path so that paths
// containing arbitrary non-UTF-8 sequences round-trip exactly.
func encodeTrashPath(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if shouldEscape(c) {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodeTrashPath reverses encodeTrashPath. Invalid escape sequences are
// kept literally rather than rejected, matching what file managers do.
func decodeTrashPath(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
