package backend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/runger/nlfind/internal/query"
)

// Backend names. These are the identifiers reported in results and
// accepted (with aliases) as preferences.
const (
	NameIndexed = "indexed"
	NameFd      = "fd"
	NameFind    = "find"
	NameWalk    = "walk"
)

// PreferenceAuto selects the fastest available backend.
const PreferenceAuto = "auto"

// BackendPriority is the fixed auto-selection order, fastest first.
// The walk backend is always available, so auto selection never
// comes up empty.
var BackendPriority = []string{NameIndexed, NameFd, NameFind, NameWalk}

// ParsePreference canonicalizes a backend preference name. The
// descriptive aliases match the configuration vocabulary.
func ParsePreference(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", PreferenceAuto:
		return PreferenceAuto, nil
	case NameIndexed, "locate", "plocate", "everything", "es":
		return NameIndexed, nil
	case NameFd, "fdfind", "modern-finder":
		return NameFd, nil
	case NameFind, "posix-finder":
		return NameFind, nil
	case NameWalk, "builtin":
		return NameWalk, nil
	default:
		return "", fmt.Errorf("unknown backend %q (use auto, indexed, fd, find, or walk)", s)
	}
}

// Registry holds the known backends and resolves which one serves a
// given query.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns a registry with the four standard backends
// registered.
func NewRegistry() *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	r.Register(NewIndexedBackend())
	r.Register(NewFdBackend())
	r.Register(NewFindBackend())
	r.Register(NewWalkBackend())
	return r
}

// Register adds or replaces a backend by name.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

// Get returns a registered backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Select resolves the backend that should serve q.
//
// An explicit preference is respected: if that backend is missing or
// unusable, selection fails with ErrBackendUnavailable rather than
// silently substituting another tool. Under "auto" the highest
// priority available backend that can serve the query wins.
func (r *Registry) Select(q *query.SearchQuery, preferred string) (Backend, error) {
	name, err := ParsePreference(preferred)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if name != PreferenceAuto {
		b, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not registered", ErrBackendUnavailable, name)
		}
		if !b.Available() {
			return nil, fmt.Errorf("%w: %s is not installed on this host", ErrBackendUnavailable, name)
		}
		if !CanServe(b, q) {
			return nil, fmt.Errorf("%w: %s cannot serve this query", ErrBackendUnavailable, name)
		}
		return b, nil
	}

	ranked := r.Ranked(q)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no backend can serve this query", ErrBackendUnavailable)
	}
	return ranked[0], nil
}

// Ranked lists the available backends that can serve q, in priority
// order. The executor walks this list when an auto-selected backend
// fails mid-run.
func (r *Registry) Ranked(q *query.SearchQuery) []Backend {
	var ranked []Backend
	for _, name := range BackendPriority {
		b, ok := r.Get(name)
		if !ok || !b.Available() || !CanServe(b, q) {
			continue
		}
		ranked = append(ranked, b)
	}
	return ranked
}

// CanServe reports whether b's capability table marks no criterion
// of q as Unsupported.
func CanServe(b Backend, q *query.SearchQuery) bool {
	table := b.Capabilities()
	for _, c := range CriteriaOf(q) {
		if table.Of(c) == Unsupported {
			return false
		}
	}
	return true
}

// Status describes one registered backend for diagnostics.
type Status struct {
	Name      string
	Available bool
	Tool      string
}

// toolResolver is implemented by backends that shell out to an
// external tool.
type toolResolver interface {
	ToolPath() (string, bool)
}

// ListAll reports every registered backend in priority order with its
// availability and, for subprocess backends, the resolved tool path.
func (r *Registry) ListAll() []Status {
	statuses := make([]Status, 0, len(BackendPriority))
	for _, name := range BackendPriority {
		b, ok := r.Get(name)
		if !ok {
			continue
		}
		s := Status{Name: name, Available: b.Available()}
		if tr, ok := b.(toolResolver); ok {
			if path, found := tr.ToolPath(); found {
				s.Tool = path
			}
		}
		statuses = append(statuses, s)
	}
	return statuses
}

// DefaultRegistry is the process-wide registry used by the executor
// and the CLI.
var DefaultRegistry = NewRegistry()
