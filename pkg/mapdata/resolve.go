package mapdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath returns the real path of a file referenced by game data.
// Backslashes are accepted as separators. When the literal path does not
// exist each component is matched case-insensitively against its directory
// listing; a component missing under any casing yields ErrNotFound.
func ResolvePath(path string) (string, error) {
	path = filepath.Clean(filepath.FromSlash(strings.ReplaceAll(path, "\\", "/")))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	current := "."
	rest := path
	if vol := filepath.VolumeName(path); vol != "" || filepath.IsAbs(path) {
		current = vol + string(filepath.Separator)
		rest = strings.TrimPrefix(path[len(vol):], string(filepath.Separator))
	}

	for _, part := range strings.Split(rest, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		next, err := matchEntry(current, part)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		current = next
	}
	return current, nil
}

// matchEntry finds name in dir, first exactly, then ignoring case.
func matchEntry(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if name == ".." {
		return candidate, nil
	}
	if _, err := os.Lstat(candidate); err == nil {
		return candidate, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}
