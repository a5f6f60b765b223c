// Package tui implements the interactive search view. The user types
// a pattern, results refresh as they type, and the selected path is
// printed on exit so the output can feed a shell pipeline.
package tui

import (
	"context"

	"github.com/runger/nlfind/internal/query"
)

// Searcher runs one search on behalf of the interactive view.
// Implementations decide how the typed text becomes a query; the view
// only debounces, cancels, and renders.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) (*query.SearchResult, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, text string, limit int) (*query.SearchResult, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, text string, limit int) (*query.SearchResult, error) {
	return f(ctx, text, limit)
}
