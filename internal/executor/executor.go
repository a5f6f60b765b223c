// Package executor runs structured search queries end to end: it
// validates the query, picks a backend, re-checks every criterion the
// backend could not apply natively, and assembles the sorted, limited
// result envelope. It is the single entry point the CLI and TUI call.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/runger/nlfind/internal/backend"
	"github.com/runger/nlfind/internal/query"
)

// ErrSearchFailed reports that every applicable backend failed. The
// root cause is filesystem-level (an unreadable root, for instance),
// not tool availability.
var ErrSearchFailed = errors.New("search failed")

// DefaultContentMaxBytes bounds how much of each file the content
// filter reads.
const DefaultContentMaxBytes = 1 << 20

// DefaultPoolSize is the number of concurrent content-scan workers.
const DefaultPoolSize = 8

// Executor coordinates backends, post-filtering, and result assembly.
// Every Execute call is independent; the zero cost of sharing one
// Executor across goroutines is the probe cache behind the registry.
type Executor struct {
	registry   *backend.Registry
	logger     *slog.Logger
	contentMax int64
	poolSize   int
}

// Option configures an Executor.
type Option func(*Executor) error

// WithRegistry replaces the backend registry. Tests use this to
// inject failing backends.
func WithRegistry(r *backend.Registry) Option {
	return func(e *Executor) error {
		if r == nil {
			return errors.New("nil registry")
		}
		e.registry = r
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) error {
		if l == nil {
			return errors.New("nil logger")
		}
		e.logger = l
		return nil
	}
}

// WithContentMaxBytes bounds the per-file content read.
func WithContentMaxBytes(n int64) Option {
	return func(e *Executor) error {
		if n <= 0 {
			return fmt.Errorf("content max bytes must be positive, got %d", n)
		}
		e.contentMax = n
		return nil
	}
}

// WithPoolSize sets the content-scan worker count.
func WithPoolSize(n int) Option {
	return func(e *Executor) error {
		if n <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", n)
		}
		e.poolSize = n
		return nil
	}
}

// New builds an Executor with the default registry and settings,
// then applies opts.
func New(opts ...Option) (*Executor, error) {
	e := &Executor{
		registry:   backend.DefaultRegistry,
		logger:     slog.Default().With("component", "executor"),
		contentMax: DefaultContentMaxBytes,
		poolSize:   DefaultPoolSize,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Execute runs q and returns the result envelope.
//
// The query is normalized and validated first; malformed queries are
// rejected with query.ErrInvalidQuery before any backend runs. The
// preference names a backend explicitly or "auto". Cancellation
// surfaces as the context's error, never as a SearchResult.
func (e *Executor) Execute(ctx context.Context, req *query.SearchQuery, preference string) (*query.SearchResult, error) {
	start := time.Now()

	// Work on a copy; the caller's query stays untouched.
	qq := *req
	q := &qq
	if err := q.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", query.ErrInvalidQuery, err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	selected, err := e.registry.Select(q, preference)
	if err != nil {
		return nil, err
	}

	used, cands, err := e.searchWithFallback(ctx, selected, q, preference)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("backend produced candidates",
		"backend", used.Name(),
		"candidates", len(cands),
	)

	records, err := e.refine(ctx, used, q, cands)
	if err != nil {
		return nil, err
	}

	sortRecords(records, q)

	total := len(records)
	truncated := false
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
		truncated = true
	}

	return &query.SearchResult{
		Records:    records,
		TotalCount: total,
		Elapsed:    time.Since(start),
		Backend:    used.Name(),
		Truncated:  truncated,
	}, nil
}

// searchWithFallback invokes the selected backend. Under auto
// selection a mid-run tool failure retries the next-ranked backend
// down to the walk; an explicitly requested backend is never
// substituted, so its failure surfaces directly.
func (e *Executor) searchWithFallback(ctx context.Context, selected backend.Backend, q *query.SearchQuery, preference string) (backend.Backend, []backend.Candidate, error) {
	pref, err := backend.ParsePreference(preference)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", backend.ErrBackendUnavailable, err)
	}

	if pref != backend.PreferenceAuto {
		cands, err := selected.Search(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		return selected, cands, nil
	}

	var lastErr error
	for _, b := range e.registry.Ranked(q) {
		cands, err := b.Search(ctx, q)
		if err == nil {
			if lastErr != nil {
				e.logger.Info("recovered via fallback backend", "backend", b.Name())
			}
			return b, cands, nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		e.logger.Warn("backend failed, trying next",
			"backend", b.Name(),
			"error", err,
		)
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no backend accepted the query", backend.ErrBackendUnavailable)
	}
	return nil, nil, fmt.Errorf("%w: %v", ErrSearchFailed, lastErr)
}
