// Package document loads and stores the article HTML file that the
// conversion stages rewrite in place.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNotFound is returned when the document path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrNotUTF8 is returned when the document is not valid UTF-8.
	ErrNotUTF8 = errors.New("file is not valid UTF-8")
)

// BackupSuffix is appended to the document path for the transient restore point.
const BackupSuffix = ".backup"

// Load reads path and returns its content as text with any UTF-8 byte order
// mark removed.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s", ErrNotUTF8, path)
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(out), nil
}

// Save overwrites path with content and flushes it to stable storage before
// returning, keeping the existing file mode when there is one.
func Save(path string, content string) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

// Backup copies path to its .backup sibling and returns the sibling path.
func Backup(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	dst := path + BackupSuffix
	if err := Save(dst, string(b)); err != nil {
		return "", err
	}
	return dst, nil
}

// Restore copies the .backup sibling over path.
func Restore(path string) error {
	b, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return Save(path, string(b))
}

// FileInfo is the file metadata recorded in every stage report.
type FileInfo struct {
	Exists       bool    `json:"exists"`
	SizeBytes    int64   `json:"size_bytes,omitempty"`
	SizeKB       float64 `json:"size_kb,omitempty"`
	Readable     bool    `json:"readable,omitempty"`
	Writable     bool    `json:"writable,omitempty"`
	ModifiedTime string  `json:"modified_time,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Stat collects FileInfo for path. It never fails; problems are recorded in
// the Error field.
func Stat(path string) FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileInfo{Exists: false}
		}
		return FileInfo{Exists: false, Error: err.Error()}
	}
	fi := FileInfo{
		Exists:       true,
		SizeBytes:    info.Size(),
		SizeKB:       math.Round(float64(info.Size())/1024*100) / 100,
		ModifiedTime: info.ModTime().Format(time.RFC3339),
	}
	if f, err := os.Open(path); err == nil {
		fi.Readable = true
		_ = f.Close()
	}
	if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
		fi.Writable = true
		_ = f.Close()
	}
	return fi
}
