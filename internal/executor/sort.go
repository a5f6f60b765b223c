package executor

import (
	"sort"
	"strings"

	"github.com/runger/nlfind/internal/query"
)

// sortRecords stable-sorts records by the query's sort key. Name keys
// fold case. Ties are broken by path ascending regardless of direction
// so output order is total and deterministic. SortNone preserves
// backend emission order.
func sortRecords(records []query.FileInfo, q *query.SearchQuery) {
	if q.SortKey == query.SortNone {
		return
	}

	cmp := func(a, b query.FileInfo) int {
		switch q.SortKey {
		case query.SortBySize:
			switch {
			case a.Size < b.Size:
				return -1
			case a.Size > b.Size:
				return 1
			}
			return 0
		case query.SortByModified:
			if a.Modified.Before(b.Modified) {
				return -1
			}
			if a.Modified.After(b.Modified) {
				return 1
			}
			return 0
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		c := cmp(records[i], records[j])
		if c == 0 {
			return records[i].Path < records[j].Path
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})
}
