// Package backend implements the filesystem search strategies behind
// the executor: an in-process directory walk plus adapters for
// external tools (fd, find, and the system file index). Backends are
// selected by availability and declared capability; any criterion a
// backend cannot apply natively is re-checked by the executor.
package backend

import (
	"context"
	"errors"

	"github.com/runger/nlfind/internal/query"
)

var (
	// ErrBackendUnavailable reports that an explicitly requested
	// backend is not usable on this host. Explicit requests are
	// respected: there is no silent fallback.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrExecutionFailed reports that a backend tool crashed or
	// produced no usable output. Under automatic selection the
	// executor recovers by retrying the next-ranked backend.
	ErrExecutionFailed = errors.New("backend execution failed")
)

// Criterion identifies one filterable field of a search query.
type Criterion int

const (
	CritPattern Criterion = iota
	CritExtensions
	CritSize
	CritModified
	CritContent
	CritEntryType
	CritDepth
	CritHidden
)

// String returns the criterion's name as used in diagnostics.
func (c Criterion) String() string {
	switch c {
	case CritPattern:
		return "pattern"
	case CritExtensions:
		return "extensions"
	case CritSize:
		return "size"
	case CritModified:
		return "modified"
	case CritContent:
		return "content"
	case CritEntryType:
		return "entry-type"
	case CritDepth:
		return "depth"
	case CritHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// AllCriteria lists every criterion in declaration order.
var AllCriteria = []Criterion{
	CritPattern,
	CritExtensions,
	CritSize,
	CritModified,
	CritContent,
	CritEntryType,
	CritDepth,
	CritHidden,
}

// Capability states how a backend handles one criterion.
type Capability int

const (
	// Emulated means the backend may over-approximate and the
	// executor must re-check the criterion on every candidate.
	// This is the default for criteria absent from a table.
	Emulated Capability = iota

	// Native means the tool applies the criterion itself and no
	// re-check is needed.
	Native

	// Unsupported means the backend cannot produce a candidate set
	// honoring the criterion even with post-filtering. Selection
	// skips such backends for queries that use the criterion.
	Unsupported
)

// String returns the capability's name as used in diagnostics.
func (c Capability) String() string {
	switch c {
	case Native:
		return "native"
	case Emulated:
		return "emulated"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// CapabilityTable maps criteria to how a backend handles them.
// Tables are static per backend. Missing entries mean Emulated, the
// conservative choice: the executor re-checks what the table does
// not promise.
type CapabilityTable map[Criterion]Capability

// Of returns the capability for c, defaulting to Emulated.
func (t CapabilityTable) Of(c Criterion) Capability {
	if v, ok := t[c]; ok {
		return v
	}
	return Emulated
}

// Candidate is one path produced by a backend. Info is attached when
// the backend already paid for the stat; otherwise the executor
// performs the stat pass.
type Candidate struct {
	Path string
	Info *query.FileInfo
}

// Backend is one strategy for enumerating filesystem entries that
// may match a query. Implementations over-approximate freely for
// criteria their table marks Emulated; they must never drop a true
// match for a criterion they claim as Native.
type Backend interface {
	// Name returns the stable identifier used in results and logs.
	Name() string

	// Available reports whether the backend can run on this host.
	// Probes are cached for the life of the process.
	Available() bool

	// Capabilities returns the backend's static capability table.
	Capabilities() CapabilityTable

	// Search enumerates candidates for the query. Per-entry
	// failures (unreadable files, permission-denied directories)
	// are skipped, not fatal. Search honors ctx and returns its
	// error when cancelled.
	Search(ctx context.Context, q *query.SearchQuery) ([]Candidate, error)
}

// CriteriaOf lists the criteria a query actually constrains. The
// executor post-filters exactly those the chosen backend's table
// marks Emulated.
func CriteriaOf(q *query.SearchQuery) []Criterion {
	var crits []Criterion
	if q.Pattern != "" {
		crits = append(crits, CritPattern)
	}
	if len(q.Extensions) > 0 {
		crits = append(crits, CritExtensions)
	}
	if q.MinSize != nil || q.MaxSize != nil {
		crits = append(crits, CritSize)
	}
	if q.ModifiedAfter != nil || q.ModifiedBefore != nil {
		crits = append(crits, CritModified)
	}
	if q.ContentContains != "" {
		crits = append(crits, CritContent)
	}
	if q.EntryType != query.EntryAny {
		crits = append(crits, CritEntryType)
	}
	if q.MaxDepth > 0 {
		crits = append(crits, CritDepth)
	}
	if q.ExcludeHidden {
		crits = append(crits, CritHidden)
	}
	return crits
}
