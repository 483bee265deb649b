package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/babarot/gotrash/internal/trash"
)

const shortIDLen = 10

// shortID derives a stable short identifier from an original path, so
// files can be addressed without typing the full path.
func shortID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:shortIDLen]
}

// matchByIDOrPath matches an entry whose short id or original path equals
// the given query. Relative path queries are compared in absolute form.
func matchByIDOrPath(query string) trash.MatchFunc {
	abs, err := filepath.Abs(query)
	if err != nil {
		abs = query
	}
	return func(e *trash.Entry) bool {
		return shortID(e.OriginalPath) == query ||
			e.OriginalPath == query ||
			e.OriginalPath == abs
	}
}
