package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/runger/nlfind/internal/query"
)

// fdToolNames are the binary names fd ships under. Debian installs
// it as fdfind.
var fdToolNames = []string{"fd", "fdfind"}

// fdTimeLayout is the timestamp form fd's --changed-* flags accept.
const fdTimeLayout = "2006-01-02 15:04:05"

// fd has native flags for nearly every criterion; only content
// search is left to the executor.
var fdCapabilities = CapabilityTable{
	CritPattern:    Native,
	CritExtensions: Native,
	CritSize:       Native,
	CritModified:   Native,
	CritContent:    Emulated,
	CritEntryType:  Native,
	CritDepth:      Native,
	CritHidden:     Native,
}

// FdBackend shells out to fd, a fast recursive finder.
type FdBackend struct {
	// ExtraArgs are user-configured flags appended before the
	// pattern.
	ExtraArgs []string
}

// NewFdBackend returns the fd backend.
func NewFdBackend() *FdBackend { return &FdBackend{} }

// Name implements Backend.
func (f *FdBackend) Name() string { return NameFd }

// Available reports whether an fd binary resolves on PATH.
func (f *FdBackend) Available() bool { return toolOnPath(fdToolNames...) }

// ToolPath returns the resolved fd binary.
func (f *FdBackend) ToolPath() (string, bool) { return LookupTool(fdToolNames...) }

// Capabilities implements Backend.
func (f *FdBackend) Capabilities() CapabilityTable { return fdCapabilities }

// Search runs fd and parses its NUL-delimited absolute paths.
func (f *FdBackend) Search(ctx context.Context, q *query.SearchQuery) ([]Candidate, error) {
	tool, ok := f.ToolPath()
	if !ok {
		return nil, fmt.Errorf("%w: fd is not installed", ErrBackendUnavailable)
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

// args translates q into fd's flag syntax.
func (f *FdBackend) args(q *query.SearchQuery) []string {
	args := []string{"--absolute-path", "--print0", "--no-ignore"}

	// fd hides dotfiles by default, the inverse of our default.
	if !q.ExcludeHidden {
		args = append(args, "--hidden")
	}

	// Explicit flags; fd's smart-case default would otherwise make
	// matching depend on the pattern's spelling.
	if q.CaseSensitive {
		args = append(args, "--case-sensitive")
	} else {
		args = append(args, "--ignore-case")
	}

	switch q.EntryType {
	case query.EntryFile:
		args = append(args, "--type", "f")
	case query.EntryDir:
		args = append(args, "--type", "d")
	}

	for _, ext := range q.Extensions {
		args = append(args, "--extension", strings.TrimPrefix(ext, "."))
	}

	if q.MinSize != nil {
		args = append(args, "--size", fmt.Sprintf("+%db", *q.MinSize))
	}
	if q.MaxSize != nil {
		args = append(args, "--size", fmt.Sprintf("-%db", *q.MaxSize))
	}

	if q.ModifiedAfter != nil {
		args = append(args, "--changed-within", q.ModifiedAfter.Format(fdTimeLayout))
	}
	if q.ModifiedBefore != nil {
		args = append(args, "--changed-before", q.ModifiedBefore.Format(fdTimeLayout))
	}

	if q.MaxDepth > 0 {
		args = append(args, "--max-depth", strconv.Itoa(q.MaxDepth))
	}

	args = append(args, f.ExtraArgs...)

	switch {
	case q.Pattern == "":
		// fd's positional form is PATTERN PATH, so an unconstrained
		// search still needs a match-anything pattern.
		args = append(args, "--", ".")
	case strings.ContainsAny(q.Pattern, "*?["):
		args = append(args, "--glob", "--", q.Pattern)
	default:
		args = append(args, "--fixed-strings", "--", q.Pattern)
	}

	return append(args, q.RootPath)
}
