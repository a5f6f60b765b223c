// Package query defines the structured search request shared by the
// natural-language parser, the filesystem backends, and the executor.
// A zero-value SearchQuery (after Normalize) matches every entry under
// the root.
package query

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidQuery is returned when a search query fails validation.
// Callers can match it with errors.Is.
var ErrInvalidQuery = errors.New("invalid query")

// EntryType selects which kinds of directory entries a query matches.
type EntryType int

const (
	// EntryAny matches both files and directories.
	EntryAny EntryType = iota
	// EntryFile matches regular files only.
	EntryFile
	// EntryDir matches directories only.
	EntryDir
)

// String returns the canonical name of the entry type.
func (t EntryType) String() string {
	switch t {
	case EntryAny:
		return "any"
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	default:
		return fmt.Sprintf("entrytype(%d)", int(t))
	}
}

// ParseEntryType converts a user-facing name into an EntryType.
// The empty string means "any".
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return EntryAny, nil
	case "file", "f":
		return EntryFile, nil
	case "directory", "dir", "d":
		return EntryDir, nil
	default:
		return EntryAny, fmt.Errorf("unknown entry type: %q (use file, directory, or any)", s)
	}
}

// SortKey selects the ordering applied to search results.
type SortKey int

const (
	// SortByName orders results by base name. This is the default.
	SortByName SortKey = iota
	// SortBySize orders results by size in bytes.
	SortBySize
	// SortByModified orders results by modification time.
	SortByModified
	// SortNone preserves the order in which the backend emitted results.
	SortNone
)

// String returns the canonical name of the sort key.
func (k SortKey) String() string {
	switch k {
	case SortByName:
		return "name"
	case SortBySize:
		return "size"
	case SortByModified:
		return "modified"
	case SortNone:
		return "none"
	default:
		return fmt.Sprintf("sortkey(%d)", int(k))
	}
}

// ParseSortKey converts a user-facing name into a SortKey.
// The empty string means "name".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortByName, nil
	case "size":
		return SortBySize, nil
	case "modified", "mtime", "date":
		return SortByModified, nil
	case "none":
		return SortNone, nil
	default:
		return SortByName, fmt.Errorf("unknown sort key: %q (use name, size, modified, or none)", s)
	}
}

// SearchQuery is a structured description of a filesystem search.
// Unset fields impose no constraint: the zero value (with RootPath
// defaulted to the current directory) matches everything.
type SearchQuery struct {
	// RootPath is the directory the search starts from.
	// Empty means the current working directory.
	RootPath string

	// Pattern is a glob-style filename pattern ("*.log", "report*").
	// Empty matches any name.
	Pattern string

	// Extensions restricts matches to the given file extensions.
	// Entries are dot-prefixed and matched case-insensitively.
	Extensions []string

	// MinSize and MaxSize bound the entry size in bytes (inclusive).
	// Nil means unbounded.
	MinSize *int64
	MaxSize *int64

	// ModifiedAfter and ModifiedBefore bound the modification time
	// (inclusive). Nil means unbounded.
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time

	// ContentContains restricts matches to text files whose content
	// contains the given substring.
	ContentContains string

	// EntryType restricts matches to files, directories, or both.
	EntryType EntryType

	// CaseSensitive makes Pattern and ContentContains matching
	// case-sensitive.
	CaseSensitive bool

	// MaxDepth bounds directory recursion. The root's direct children
	// are depth 1. Zero means unlimited.
	MaxDepth int

	// Limit caps the number of returned records. Zero means unlimited.
	Limit int

	// SortKey and Descending control result ordering.
	SortKey    SortKey
	Descending bool

	// ExcludeHidden skips dotfiles and anything beneath dot-directories.
	ExcludeHidden bool
}

// Normalize canonicalizes the query in place: the root path is
// tilde-expanded and made absolute, extensions are lowercased and
// dot-prefixed, and blank entries are dropped. It must be called
// before Validate.
func (q *SearchQuery) Normalize() error {
	root := strings.TrimSpace(q.RootPath)
	if root == "" {
		root = "."
	}
	if root == "~" || strings.HasPrefix(root, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot expand ~ in root path: %w", err)
		}
		root = filepath.Join(home, root[1:])
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve root path %q: %w", root, err)
	}
	q.RootPath = abs

	q.Pattern = strings.TrimSpace(q.Pattern)

	if len(q.Extensions) > 0 {
		cleaned := make([]string, 0, len(q.Extensions))
		for _, ext := range q.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" || ext == "." {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			cleaned = append(cleaned, ext)
		}
		if len(cleaned) == 0 {
			cleaned = nil
		}
		q.Extensions = cleaned
	}

	q.ContentContains = strings.TrimSpace(q.ContentContains)

	return nil
}

// Validate checks the query for contradictions and a usable root.
// All failures wrap ErrInvalidQuery.
func (q *SearchQuery) Validate() error {
	info, err := os.Stat(q.RootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: root path does not exist: %s", ErrInvalidQuery, q.RootPath)
		}
		return fmt.Errorf("%w: cannot access root path %s: %v", ErrInvalidQuery, q.RootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path is not a directory: %s", ErrInvalidQuery, q.RootPath)
	}

	if q.MinSize != nil && *q.MinSize < 0 {
		return fmt.Errorf("%w: min size must not be negative (got %d)", ErrInvalidQuery, *q.MinSize)
	}
	if q.MaxSize != nil && *q.MaxSize < 0 {
		return fmt.Errorf("%w: max size must not be negative (got %d)", ErrInvalidQuery, *q.MaxSize)
	}
	if q.MinSize != nil && q.MaxSize != nil && *q.MinSize > *q.MaxSize {
		return fmt.Errorf("%w: min size %d exceeds max size %d", ErrInvalidQuery, *q.MinSize, *q.MaxSize)
	}

	if q.ModifiedAfter != nil && q.ModifiedBefore != nil && q.ModifiedAfter.After(*q.ModifiedBefore) {
		return fmt.Errorf("%w: modified-after bound is later than modified-before bound", ErrInvalidQuery)
	}

	if q.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must not be negative (got %d)", ErrInvalidQuery, q.MaxDepth)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative (got %d)", ErrInvalidQuery, q.Limit)
	}

	if q.EntryType < EntryAny || q.EntryType > EntryDir {
		return fmt.Errorf("%w: unknown entry type %d", ErrInvalidQuery, int(q.EntryType))
	}
	if q.SortKey < SortByName || q.SortKey > SortNone {
		return fmt.Errorf("%w: unknown sort key %d", ErrInvalidQuery, int(q.SortKey))
	}

	if q.ContentContains != "" && q.EntryType == EntryDir {
		return fmt.Errorf("%w: content filter cannot apply to directories", ErrInvalidQuery)
	}

	return nil
}

// MatchesExtension reports whether name carries one of the query's
// extensions. A query without extensions matches every name.
func (q *SearchQuery) MatchesExtension(name string) bool {
	if len(q.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, want := range q.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// MatchesPattern reports whether name matches the query's glob pattern.
// An empty pattern matches every name. A pattern without glob
// metacharacters is treated as a substring match, the way interactive
// search tools do.
func (q *SearchQuery) MatchesPattern(name string) bool {
	pattern := q.Pattern
	if pattern == "" {
		return true
	}
	if !q.CaseSensitive {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	if strings.ContainsAny(pattern, "*?[") {
		ok, err := filepath.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}

// MatchesSize reports whether size satisfies the query's bounds.
// Bounds are inclusive.
func (q *SearchQuery) MatchesSize(size int64) bool {
	if q.MinSize != nil && size < *q.MinSize {
		return false
	}
	if q.MaxSize != nil && size > *q.MaxSize {
		return false
	}
	return true
}

// MatchesModified reports whether t satisfies the query's time
// bounds. Bounds are inclusive.
func (q *SearchQuery) MatchesModified(t time.Time) bool {
	if q.ModifiedAfter != nil && t.Before(*q.ModifiedAfter) {
		return false
	}
	if q.ModifiedBefore != nil && t.After(*q.ModifiedBefore) {
		return false
	}
	return true
}

// MatchesEntryType reports whether an entry of the given kind
// satisfies the query's type filter.
func (q *SearchQuery) MatchesEntryType(isDir bool) bool {
	switch q.EntryType {
	case EntryFile:
		return !isDir
	case EntryDir:
		return isDir
	default:
		return true
	}
}

// Int64 returns a pointer to v. It keeps call sites with optional
// size bounds readable.
func Int64(v int64) *int64 { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
