package nlparse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/runger/nlfind/internal/query"
)

// queryDTO is the JSON shape providers are asked to return. Sizes
// arrive as raw messages because models sometimes answer "10MB"
// instead of 10485760 despite the prompt.
type queryDTO struct {
	Pattern         string          `json:"pattern"`
	Extensions      []string        `json:"extensions"`
	MinSize         json.RawMessage `json:"min_size"`
	MaxSize         json.RawMessage `json:"max_size"`
	ModifiedAfter   string          `json:"modified_after"`
	ModifiedBefore  string          `json:"modified_before"`
	ContentContains string          `json:"content_contains"`
	EntryType       string          `json:"entry_type"`
	ExcludeHidden   bool            `json:"exclude_hidden"`
	MaxDepth        int             `json:"max_depth"`
	Limit           int             `json:"limit"`
	SortKey         string          `json:"sort_key"`
	Descending      bool            `json:"descending"`
	CaseSensitive   bool            `json:"case_sensitive"`
}

// DecodeResponse converts a raw model completion into a SearchQuery.
// Markdown code fences are stripped, sizes are accepted as integers
// or human strings, and dates in ISO or RFC3339 layouts. The returned
// query carries no root path.
func DecodeResponse(content string, now time.Time) (*query.SearchQuery, error) {
	content = stripFences(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrLLMResponse)
	}

	var dto queryDTO
	if err := json.Unmarshal([]byte(content), &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMParse, err)
	}

	q := &query.SearchQuery{
		Pattern:         dto.Pattern,
		Extensions:      dto.Extensions,
		ContentContains: dto.ContentContains,
		ExcludeHidden:   dto.ExcludeHidden,
		MaxDepth:        dto.MaxDepth,
		Limit:           dto.Limit,
		Descending:      dto.Descending,
		CaseSensitive:   dto.CaseSensitive,
	}

	minSize, err := decodeSize(dto.MinSize)
	if err != nil {
		return nil, fmt.Errorf("%w: min_size: %v", ErrLLMParse, err)
	}
	q.MinSize = minSize

	maxSize, err := decodeSize(dto.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("%w: max_size: %v", ErrLLMParse, err)
	}
	q.MaxSize = maxSize

	after, err := decodeDate(dto.ModifiedAfter, now)
	if err != nil {
		return nil, fmt.Errorf("%w: modified_after: %v", ErrLLMParse, err)
	}
	q.ModifiedAfter = after

	before, err := decodeDate(dto.ModifiedBefore, now)
	if err != nil {
		return nil, fmt.Errorf("%w: modified_before: %v", ErrLLMParse, err)
	}
	q.ModifiedBefore = before

	if dto.EntryType != "" {
		et, err := query.ParseEntryType(dto.EntryType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLLMParse, err)
		}
		q.EntryType = et
	}

	if dto.SortKey != "" {
		sk, err := query.ParseSortKey(dto.SortKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLLMParse, err)
		}
		q.SortKey = sk
	}

	return q, nil
}

// stripFences removes a wrapping markdown code block, with or
// without a language tag.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[idx+1:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// decodeSize accepts a JSON number of bytes or a human-readable
// string like "10MB".
func decodeSize(raw json.RawMessage) (*int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("negative size %d", n)
		}
		return &n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("size must be a number or string, got %s", raw)
	}
	n, err := query.ParseSize(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// decodeDate accepts the layouts ParseTime knows, including plain
// ISO dates and relative ages.
func decodeDate(s string, now time.Time) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := query.ParseTime(s, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
