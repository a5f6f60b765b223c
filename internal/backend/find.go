package backend

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/runger/nlfind/internal/query"
)

// findTimeLayout is the timestamp form -newermt accepts.
const findTimeLayout = "2006-01-02 15:04:05"

// find expresses pattern, size, type, and depth natively. Time bounds
// are pre-narrowed with -newermt but re-checked exactly because the
// predicate is exclusive at the boundary; extensions, hidden
// filtering, and content are left to the executor.
var findCapabilities = CapabilityTable{
	CritPattern:    Native,
	CritExtensions: Emulated,
	CritSize:       Native,
	CritModified:   Emulated,
	CritContent:    Emulated,
	CritEntryType:  Native,
	CritDepth:      Native,
	CritHidden:     Emulated,
}

// FindBackend shells out to the POSIX find tool.
type FindBackend struct {
	// ExtraArgs are user-configured predicates appended before
	// -print0.
	ExtraArgs []string
}

// NewFindBackend returns the find backend.
func NewFindBackend() *FindBackend { return &FindBackend{} }

// Name implements Backend.
func (f *FindBackend) Name() string { return NameFind }

// Available reports whether find is usable. Windows ships an
// unrelated find.exe, so the backend is Unix-only.
func (f *FindBackend) Available() bool {
	return runtime.GOOS != "windows" && toolOnPath("find")
}

// ToolPath returns the resolved find binary.
func (f *FindBackend) ToolPath() (string, bool) {
	if runtime.GOOS == "windows" {
		return "", false
	}
	return LookupTool("find")
}

// Capabilities implements Backend.
func (f *FindBackend) Capabilities() CapabilityTable { return findCapabilities }

// Search runs find and parses its NUL-delimited paths. Paths are
// absolute because the search root is.
func (f *FindBackend) Search(ctx context.Context, q *query.SearchQuery) ([]Candidate, error) {
	tool, ok := f.ToolPath()
	if !ok {
		return nil, fmt.Errorf("%w: find is not installed", ErrBackendUnavailable)
	}

	out, err := runTool(ctx, tool, f.args(q)...)
	if err != nil {
		return nil, err
	}

	paths := splitNull(out)
	cands := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		cands = append(cands, Candidate{Path: p})
	}
	return cands, nil
}

// args translates q into find's predicate syntax.
func (f *FindBackend) args(q *query.SearchQuery) []string {
	args := []string{q.RootPath, "-mindepth", "1"}

	if q.MaxDepth > 0 {
		args = append(args, "-maxdepth", strconv.Itoa(q.MaxDepth))
	}

	switch q.EntryType {
	case query.EntryFile:
		args = append(args, "-type", "f")
	case query.EntryDir:
		args = append(args, "-type", "d")
	}

	if q.Pattern != "" {
		flag := "-iname"
		if q.CaseSensitive {
			flag = "-name"
		}
		args = append(args, flag, findNamePattern(q.Pattern))
	}

	// -size +Nc is exclusive, so shift the bounds to make them
	// inclusive byte comparisons.
	if q.MinSize != nil && *q.MinSize > 0 {
		args = append(args, "-size", fmt.Sprintf("+%dc", *q.MinSize-1))
	}
	if q.MaxSize != nil {
		args = append(args, "-size", fmt.Sprintf("-%dc", *q.MaxSize+1))
	}

	// -newermt is exclusive and second-granular; widen the lower
	// bound and let post-filtering enforce the exact inclusive one.
	if q.ModifiedAfter != nil {
		args = append(args, "-newermt", q.ModifiedAfter.Add(-time.Second).Format(findTimeLayout))
	}
	if q.ModifiedBefore != nil {
		args = append(args, "!", "-newermt", q.ModifiedBefore.Format(findTimeLayout))
	}

	args = append(args, f.ExtraArgs...)

	return append(args, "-print0")
}

// findNamePattern converts the query pattern into a -name glob.
// Literal patterns become substring globs.
func findNamePattern(pattern string) string {
	if strings.ContainsAny(pattern, "*?[") {
		return pattern
	}
	return "*" + pattern + "*"
}
