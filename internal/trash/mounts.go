package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/moby/sys/mountinfo"
)

// Filesystems that can't hold trash directories.
var skipFSTypes = map[string]bool{
	"proc":        true,
	"sysfs":       true,
	"devtmpfs":    true,
	"devpts":      true,
	"tmpfs":       true,
	"cgroup":      true,
	"cgroup2":     true,
	"pstore":      true,
	"securityfs":  true,
	"debugfs":     true,
	"configfs":    true,
	"fusectl":     true,
	"bpf":         true,
	"nsfs":        true,
	"efivarfs":    true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"binfmt_misc": true,
}

// Top-level directories where trashing a file (and later restoring it)
// would be a bad idea. A heuristic guard, not a security boundary.
var systemDirs = map[string]bool{
	"boot":       true,
	"dev":        true,
	"proc":       true,
	"lost+found": true,
	"sys":        true,
	"tmp":        true,
}

// listMounts returns the mount points that may contain trash directories,
// read from the live mount table.
func listMounts() ([]string, error) {
	mounts, err := mountinfo.GetMounts(func(info *mountinfo.Info) (skip, stop bool) {
		if skipFSTypes[info.FSType] {
			slog.Debug("skipping filesystem", "type", info.FSType, "mountpoint", info.Mountpoint)
			return true, false
		}

		for _, opt := range strings.Split(info.Options, ",") {
			if opt == "ro" {
				slog.Debug("skipping read-only filesystem", "mountpoint", info.Mountpoint)
				return true, false
			}
		}

		return false, false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mount info: %w", err)
	}

	seen := make(map[string]bool)
	var points []string

	for _, m := range mounts {
		if !seen[m.Mountpoint] {
			points = append(points, m.Mountpoint)
			seen[m.Mountpoint] = true
		}
	}

	if !seen["/"] {
		points = append(points, "/")
	}

	return points, nil
}

// deviceID returns the stat device number of the filesystem object at path,
// without following a trailing symlink.
func deviceID(path string) (uint64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("failed to get device information for %s", path)
	}
	return uint64(stat.Dev), nil
}

// canonicalize resolves path to its canonical absolute form, following
// symlinks. Paths that cannot be resolved fail with an error.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return resolved, nil
}

// findFSRoot finds the mount point of the filesystem containing path by
// walking ancestors while their device id matches.
func findFSRoot(path string) (string, error) {
	resolved, err := canonicalize(path)
	if err != nil {
		return "", err
	}

	dev, err := deviceID(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", resolved, err)
	}

	root := resolved
	for {
		parent := filepath.Dir(root)
		if parent == root {
			break
		}
		parentDev, err := deviceID(parent)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", parent, err)
		}
		if parentDev != dev {
			break
		}
		root = parent
	}

	slog.Debug("found filesystem root", "path", resolved, "root", root)
	return root, nil
}

// isSystemPath reports whether path points into a well-known sensitive
// top-level directory. Paths that cannot be canonicalized are checked
// lexically instead.
func isSystemPath(path string) bool {
	resolved, err := canonicalize(path)
	if err != nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		resolved = filepath.Clean(abs)
	}

	if resolved == "/" {
		return true
	}

	first, _, _ := strings.Cut(strings.TrimPrefix(resolved, "/"), "/")
	return systemDirs[first]
}
