package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

type cacheFile struct {
	path    string
	modTime time.Time
}

func listEntries(dir string) ([]cacheFile, error) {
	var out []cacheFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, cacheFile{path: path, modTime: info.ModTime().UTC()})
		return nil
	})
	return out, err
}

// PurgeByAge removes cache entries whose modification time is older than
// maxAge. A non-positive maxAge keeps everything.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	entries, err := listEntries(dir)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, e := range entries {
		if now.Sub(e.modTime) <= maxAge {
			continue
		}
		if os.Remove(e.path) == nil {
			removed++
		}
	}
	return removed, nil
}

// EnforceLimits evicts least recently used entries until at most maxCount
// remain. Entries older than maxAge are removed first. Zero disables a limit.
func EnforceLimits(dir string, maxAge time.Duration, maxCount int) (int, error) {
	removed, err := PurgeByAge(dir, maxAge)
	if err != nil || maxCount <= 0 {
		return removed, err
	}
	entries, err := listEntries(dir)
	if err != nil {
		return removed, err
	}
	if len(entries) <= maxCount {
		return removed, nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].modTime.Before(entries[j].modTime) })
	for _, e := range entries[:len(entries)-maxCount] {
		if os.Remove(e.path) == nil {
			removed++
		}
	}
	return removed, nil
}
