package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/runger/nlfind/internal/query"
)

// Index query tool flavors. locate variants share an invocation
// shape; Everything's es.exe has its own.
const (
	flavorLocate     = "locate"
	flavorEverything = "everything"
)

// locateToolNames, fastest variant first.
var locateToolNames = []string{"plocate", "mlocate", "locate"}

// everythingPaths are conventional install locations of the
// Everything CLI, probed when es.exe is not on PATH.
var everythingPaths = []string{
	`C:\Program Files\Everything\es.exe`,
	`C:\Program Files (x86)\Everything\es.exe`,
}

// indexedCapabilities is deliberately empty: index databases go stale
// and the query languages differ per flavor, so every criterion is
// re-checked by the executor. The index only narrows the candidate
// set.
var indexedCapabilities = CapabilityTable{}

// IndexedBackend queries a pre-built system file index: the locate
// family on Unix, Everything's es.exe on Windows. It answers from the
// index in near-constant time but may miss files created since the
// last index update.
type IndexedBackend struct {
	// ExtraArgs are user-configured flags appended before the
	// search terms.
	ExtraArgs []string
}

// NewIndexedBackend returns the indexed backend.
func NewIndexedBackend() *IndexedBackend { return &IndexedBackend{} }

// Name implements Backend.
func (b *IndexedBackend) Name() string { return NameIndexed }

// Available reports whether an index query tool exists on this host.
func (b *IndexedBackend) Available() bool {
	_, ok := b.resolve()
	return ok
}

// ToolPath returns the resolved index query tool.
func (b *IndexedBackend) ToolPath() (string, bool) {
	tool, ok := b.resolve()
	if !ok {
		return "", false
	}
	return tool.path, true
}

// Capabilities implements Backend.
func (b *IndexedBackend) Capabilities() CapabilityTable { return indexedCapabilities }

type indexedTool struct {
	path   string
	flavor string
}

func (b *IndexedBackend) resolve() (indexedTool, bool) {
	if runtime.GOOS == "windows" {
		if path, ok := LookupTool("es"); ok {
			return indexedTool{path: path, flavor: flavorEverything}, true
		}
		for _, p := range everythingPaths {
			if _, err := os.Stat(p); err == nil {
				return indexedTool{path: p, flavor: flavorEverything}, true
			}
		}
		return indexedTool{}, false
	}

	if path, ok := LookupTool(locateToolNames...); ok {
		return indexedTool{path: path, flavor: flavorLocate}, true
	}
	return indexedTool{}, false
}

// Search queries the index and keeps only entries under the search
// root. Stat data is deferred to the executor's stat pass.
func (b *IndexedBackend) Search(ctx context.Context, q *query.SearchQuery) ([]Candidate, error) {
	tool, ok := b.resolve()
	if !ok {
		return nil, fmt.Errorf("%w: no index query tool installed", ErrBackendUnavailable)
	}

	var paths []string
	switch tool.flavor {
	case flavorEverything:
		out, err := runTool(ctx, tool.path, b.everythingArgs(q)...)
		if err != nil {
			return nil, err
		}
		paths = splitLines(out)
	default:
		out, err := runTool(ctx, tool.path, b.locateArgs(q)...)
		if err != nil {
			return nil, err
		}
		paths = splitNull(out)
	}

	return underRoot(paths, q.RootPath), nil
}

// underRoot filters index hits down to entries below root.
func underRoot(paths []string, root string) []Candidate {
	prefix := root + string(filepath.Separator)
	cands := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		cands = append(cands, Candidate{Path: p})
	}
	return cands
}

// locateArgs builds a locate invocation: one narrowing term against
// the whole index. Precise matching happens in post-filtering.
func (b *IndexedBackend) locateArgs(q *query.SearchQuery) []string {
	args := []string{"-0"}
	if !q.CaseSensitive {
		args = append(args, "-i")
	}
	args = append(args, b.ExtraArgs...)

	term := narrowTerm(q.Pattern)
	if term == "" {
		// No usable pattern fragment; list everything under the
		// root by matching its path prefix.
		term = q.RootPath
	}
	return append(args, "--", term)
}

// everythingArgs builds an es.exe invocation. Terms narrow by root
// path, extension, and size; exact filtering happens in
// post-filtering.
func (b *IndexedBackend) everythingArgs(q *query.SearchQuery) []string {
	var args []string
	if q.CaseSensitive {
		args = append(args, "-case")
	}
	if q.MinSize != nil {
		args = append(args, "-size-min", strconv.FormatInt(*q.MinSize, 10))
	}
	if q.MaxSize != nil {
		args = append(args, "-size-max", strconv.FormatInt(*q.MaxSize, 10))
	}
	args = append(args, b.ExtraArgs...)

	args = append(args, fmt.Sprintf("path:%q", q.RootPath))
	if len(q.Extensions) > 0 {
		exts := make([]string, 0, len(q.Extensions))
		for _, e := range q.Extensions {
			exts = append(exts, strings.TrimPrefix(e, "."))
		}
		args = append(args, "ext:"+strings.Join(exts, ";"))
	}
	if term := narrowTerm(q.Pattern); term != "" {
		args = append(args, term)
	}
	return args
}

// narrowTerm extracts the longest literal run from a glob so the
// index can narrow candidates even for patterns its query language
// cannot express.
func narrowTerm(pattern string) string {
	if pattern == "" {
		return ""
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern
	}

	var longest string
	var current strings.Builder
	for _, r := range pattern {
		if strings.ContainsRune("*?[]", r) {
			if current.Len() > len(longest) {
				longest = current.String()
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > len(longest) {
		longest = current.String()
	}
	return longest
}
