package query

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileInfo is one matched filesystem entry.
type FileInfo struct {
	// Path is the absolute path of the entry.
	Path string

	// Name is the base name of the entry.
	Name string

	// Size is the entry size in bytes as reported by stat.
	Size int64

	// Modified is the entry's modification time.
	Modified time.Time

	// IsDir reports whether the entry is a directory.
	IsDir bool

	// Excerpt is a short fragment of file content around the first
	// match, populated only when a content filter was applied.
	Excerpt string
}

// NewFileInfo builds a FileInfo from a stat result. The path is made
// absolute so records stay meaningful outside the search root.
func NewFileInfo(path string, fi fs.FileInfo) FileInfo {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return FileInfo{
		Path:     abs,
		Name:     filepath.Base(abs),
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		IsDir:    fi.IsDir(),
	}
}

// Stat builds a FileInfo by stat-ing path.
func Stat(path string) (FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return NewFileInfo(path, fi), nil
}

// SearchResult is the envelope returned for every completed search.
type SearchResult struct {
	// Records are the matched entries after filtering, sorting, and
	// limit truncation.
	Records []FileInfo

	// TotalCount is the number of matches before limit truncation.
	TotalCount int

	// Elapsed is the wall-clock duration of the search.
	Elapsed time.Duration

	// Backend names the backend that produced the records.
	Backend string

	// Truncated reports whether the limit cut off further matches.
	Truncated bool
}
