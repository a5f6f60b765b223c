package executor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/runger/nlfind/internal/backend"
	"github.com/runger/nlfind/internal/query"
)

// refine turns raw candidates into verified records. A stat pass
// fills in metadata the backend did not supply, every criterion the
// backend's table marks emulated is re-checked, and the content
// filter runs last against only the surviving entries. Per-entry
// stat failures drop the entry, never the search.
func (e *Executor) refine(ctx context.Context, used backend.Backend, q *query.SearchQuery, cands []backend.Candidate) ([]query.FileInfo, error) {
	table := used.Capabilities()
	emulated := func(c backend.Criterion) bool {
		return table.Of(c) == backend.Emulated
	}

	checkPattern := q.Pattern != "" && emulated(backend.CritPattern)
	checkExt := len(q.Extensions) > 0 && emulated(backend.CritExtensions)
	checkSize := (q.MinSize != nil || q.MaxSize != nil) && emulated(backend.CritSize)
	checkTime := (q.ModifiedAfter != nil || q.ModifiedBefore != nil) && emulated(backend.CritModified)
	checkType := q.EntryType != query.EntryAny && emulated(backend.CritEntryType)
	checkDepth := q.MaxDepth > 0 && emulated(backend.CritDepth)
	checkHidden := q.ExcludeHidden && emulated(backend.CritHidden)

	records := make([]query.FileInfo, 0, len(cands))
	for _, cand := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info := cand.Info
		if info == nil {
			fi, err := query.Stat(cand.Path)
			if err != nil {
				// Vanished or unreadable since enumeration.
				continue
			}
			info = &fi
		}

		if checkPattern && !q.MatchesPattern(info.Name) {
			continue
		}
		if checkExt && !q.MatchesExtension(info.Name) {
			continue
		}
		if checkType && !q.MatchesEntryType(info.IsDir) {
			continue
		}
		if checkSize && !q.MatchesSize(info.Size) {
			continue
		}
		if checkTime && !q.MatchesModified(info.Modified) {
			continue
		}
		if checkDepth && !withinDepth(q.RootPath, info.Path, q.MaxDepth) {
			continue
		}
		if checkHidden && hiddenUnder(q.RootPath, info.Path) {
			continue
		}

		records = append(records, *info)
	}

	// Content is emulated on every backend: no external tool reads
	// file bodies for us.
	if q.ContentContains != "" {
		return e.filterContent(ctx, q, records)
	}
	return records, nil
}

// withinDepth reports whether path sits no deeper than maxDepth
// levels below root.
func withinDepth(root, path string, maxDepth int) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	depth := strings.Count(rel, string(filepath.Separator)) + 1
	return depth <= maxDepth
}

// hiddenUnder reports whether any path component below root starts
// with a dot.
func hiddenUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
