package backend

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/runger/nlfind/internal/query"
)

// walkCapabilities: every criterion except content is applied during
// the traversal itself. Content search always goes through the
// executor's bounded reader.
var walkCapabilities = CapabilityTable{
	CritPattern:    Native,
	CritExtensions: Native,
	CritSize:       Native,
	CritModified:   Native,
	CritContent:    Emulated,
	CritEntryType:  Native,
	CritDepth:      Native,
	CritHidden:     Native,
}

// WalkBackend enumerates entries with an in-process recursive
// traversal. It needs no external tool, which makes it the terminal
// link of every fallback chain.
type WalkBackend struct{}

// NewWalkBackend returns the walk backend.
func NewWalkBackend() *WalkBackend { return &WalkBackend{} }

// Name implements Backend.
func (w *WalkBackend) Name() string { return NameWalk }

// Available always reports true; the walk needs nothing beyond the
// filesystem itself.
func (w *WalkBackend) Available() bool { return true }

// Capabilities implements Backend.
func (w *WalkBackend) Capabilities() CapabilityTable { return walkCapabilities }

// Search walks the tree under q.RootPath applying every filter except
// content inline. Unreadable subtrees are skipped silently; an
// unreadable root fails the search.
func (w *WalkBackend) Search(ctx context.Context, q *query.SearchQuery) ([]Candidate, error) {
	var out []Candidate
	root := q.RootPath

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: walk: %v", ErrExecutionFailed, err)
			}
			// Unreadable entry, not fatal.
			return nil
		}
		if path == root {
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1

		if q.ExcludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		include := q.MatchesEntryType(d.IsDir()) &&
			q.MatchesPattern(d.Name()) &&
			q.MatchesExtension(d.Name())

		var info *query.FileInfo
		needStat := q.MinSize != nil || q.MaxSize != nil ||
			q.ModifiedAfter != nil || q.ModifiedBefore != nil
		if include && needStat {
			fi, ierr := d.Info()
			if ierr != nil {
				// Entry vanished mid-walk.
				include = false
			} else if !q.MatchesSize(fi.Size()) || !q.MatchesModified(fi.ModTime()) {
				include = false
			} else {
				v := query.NewFileInfo(path, fi)
				info = &v
			}
		}

		if include {
			out = append(out, Candidate{Path: path, Info: info})
		}

		// Children of a directory at the depth bound would exceed it.
		if d.IsDir() && q.MaxDepth > 0 && depth >= q.MaxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
