package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"

	"github.com/runger/nlfind/internal/query"
)

// binarySniffLen is how many leading bytes are checked for NUL to
// classify a file as binary.
const binarySniffLen = 8192

// excerptContext is how many bytes of context are kept on each side
// of the match in the stored excerpt.
const excerptContext = 60

// filterContent keeps records whose file content contains the query's
// substring, scanning files concurrently on a worker pool. Read and
// decode failures drop the record rather than failing the search;
// directories never match.
func (e *Executor) filterContent(ctx context.Context, q *query.SearchQuery, records []query.FileInfo) ([]query.FileInfo, error) {
	if len(records) == 0 {
		return records, nil
	}

	needle := q.ContentContains
	if !q.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		return nil, fmt.Errorf("content scan pool: %w", err)
	}
	defer pool.Release()

	keep := make([]bool, len(records))
	excerpts := make([]string, len(records))
	var wg sync.WaitGroup

	for i := range records {
		if ctx.Err() != nil {
			break
		}
		if records[i].IsDir {
			continue
		}

		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			ok, excerpt := fileContains(records[i].Path, needle, e.contentMax, q.CaseSensitive)
			keep[i] = ok
			excerpts[i] = excerpt
		}
		if err := pool.Submit(task); err != nil {
			// Pool unusable; degrade to scanning inline.
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]query.FileInfo, 0, len(records))
	for i, r := range records {
		if keep[i] {
			r.Excerpt = excerpts[i]
			out = append(out, r)
		}
	}
	return out, nil
}

// fileContains reports whether the file at path contains needle,
// reading at most maxBytes. Unless caseSensitive is set the match
// folds case and the needle must arrive pre-lowered. Binary files
// never match.
func fileContains(path, needle string, maxBytes int64, caseSensitive bool) (bool, string) {
	f, err := os.Open(path)
	if err != nil {
		return false, ""
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return false, ""
	}
	if isBinary(data) {
		return false, ""
	}

	text := string(data)
	haystack := text
	if !caseSensitive {
		haystack = strings.ToLower(haystack)
	}
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return false, ""
	}
	return true, excerptAround(text, idx, len(needle))
}

// isBinary sniffs the leading bytes for NUL, the same heuristic git
// uses to separate text from binary.
func isBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// excerptAround returns a short single-line window of text around the
// match, without splitting multi-byte runes at the edges.
func excerptAround(text string, idx, matchLen int) string {
	start := idx - excerptContext
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + excerptContext
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}
