package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runger/nlfind/internal/config"
	"github.com/runger/nlfind/internal/logging"
	"github.com/runger/nlfind/internal/query"
)

func TestApplyFlags_ConfigDefaults(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	cfg := config.DefaultConfig()
	cfg.Search.DefaultRoot = "/srv/data"
	cfg.Search.DefaultLimit = 250

	q := &query.SearchQuery{}
	if err := applyFlags(q, cfg, false); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}
	if q.RootPath != "/srv/data" {
		t.Errorf("RootPath = %q, want config default /srv/data", q.RootPath)
	}
	if q.Limit != 250 {
		t.Errorf("Limit = %d, want config default 250", q.Limit)
	}
	if q.ExcludeHidden {
		t.Error("ExcludeHidden should stay false without flag or config")
	}
}

func TestApplyFlags_FlagsWinOverParsed(t *testing.T) {
	withSearchGlobals(t, searchGlobals{
		path:     "/tmp/projects",
		limit:    50,
		sort:     "size",
		desc:     true,
		exts:     []string{"go", "md"},
		typ:      "file",
		content:  "TODO",
		minSize:  "1KB",
		maxSize:  "2MB",
		newer:    "2024-01-01",
		older:    "2024-06-01",
		depth:    3,
		caseSens: true,
		noHidden: true,
	})
	cfg := config.DefaultConfig()

	// Pretend the LLM extracted different values; flags must win.
	q := &query.SearchQuery{
		RootPath:   "/elsewhere",
		Pattern:    "report",
		Extensions: []string{".pdf"},
		Limit:      10,
	}
	if err := applyFlags(q, cfg, true); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}

	if q.RootPath != "/tmp/projects" {
		t.Errorf("RootPath = %q, want flag value", q.RootPath)
	}
	if len(q.Extensions) != 2 || q.Extensions[0] != "go" {
		t.Errorf("Extensions = %v, want flag values", q.Extensions)
	}
	if q.EntryType != query.EntryFile {
		t.Errorf("EntryType = %v, want EntryFile", q.EntryType)
	}
	if q.ContentContains != "TODO" {
		t.Errorf("ContentContains = %q, want TODO", q.ContentContains)
	}
	if q.MinSize == nil || *q.MinSize != 1024 {
		t.Errorf("MinSize = %v, want 1024", q.MinSize)
	}
	if q.MaxSize == nil || *q.MaxSize != 2*1024*1024 {
		t.Errorf("MaxSize = %v, want 2MB", q.MaxSize)
	}
	if q.ModifiedAfter == nil || q.ModifiedAfter.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("ModifiedAfter = %v, want 2024-01-01", q.ModifiedAfter)
	}
	if q.ModifiedBefore == nil || q.ModifiedBefore.Format("2006-01-02") != "2024-06-01" {
		t.Errorf("ModifiedBefore = %v, want 2024-06-01", q.ModifiedBefore)
	}
	if q.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", q.MaxDepth)
	}
	if !q.CaseSensitive {
		t.Error("CaseSensitive should be set")
	}
	if !q.ExcludeHidden {
		t.Error("ExcludeHidden should be set")
	}
	if q.SortKey != query.SortBySize {
		t.Errorf("SortKey = %v, want SortBySize", q.SortKey)
	}
	if !q.Descending {
		t.Error("Descending should be set")
	}
	if q.Limit != 50 {
		t.Errorf("Limit = %d, want 50", q.Limit)
	}
	// Pattern has no flag; the parsed value survives.
	if q.Pattern != "report" {
		t.Errorf("Pattern = %q, want report", q.Pattern)
	}
}

func TestApplyFlags_BadMinSize(t *testing.T) {
	withSearchGlobals(t, searchGlobals{minSize: "a few megs"})
	err := applyFlags(&query.SearchQuery{}, config.DefaultConfig(), false)
	if err == nil {
		t.Fatal("expected error for unparseable --min-size")
	}
	if !strings.Contains(err.Error(), "--min-size") {
		t.Errorf("error %q should name the flag", err)
	}
}

func TestApplyFlags_BadNewerThan(t *testing.T) {
	withSearchGlobals(t, searchGlobals{newer: "sometime last spring"})
	err := applyFlags(&query.SearchQuery{}, config.DefaultConfig(), false)
	if err == nil {
		t.Fatal("expected error for unparseable --newer-than")
	}
	if !strings.Contains(err.Error(), "--newer-than") {
		t.Errorf("error %q should name the flag", err)
	}
}

func TestApplyFlags_UnknownSortFallsBackToName(t *testing.T) {
	withSearchGlobals(t, searchGlobals{sort: "coolness"})
	q := &query.SearchQuery{SortKey: query.SortBySize}
	if err := applyFlags(q, config.DefaultConfig(), false); err != nil {
		t.Fatalf("unknown sort key should warn, not fail: %v", err)
	}
	if q.SortKey != query.SortByName {
		t.Errorf("SortKey = %v, want SortByName fallback", q.SortKey)
	}
}

func TestApplyFlags_ExplicitZeroLimit(t *testing.T) {
	// --limit 0 means unlimited and must not be replaced by the
	// config default.
	withSearchGlobals(t, searchGlobals{limit: 0})
	cfg := config.DefaultConfig()
	cfg.Search.DefaultLimit = 1000

	q := &query.SearchQuery{}
	if err := applyFlags(q, cfg, true); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}
	if q.Limit != 0 {
		t.Errorf("Limit = %d, want 0 (explicit unlimited)", q.Limit)
	}
}

func TestApplyFlags_HiddenFromConfig(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	cfg := config.DefaultConfig()
	cfg.Search.ExcludeHidden = true

	q := &query.SearchQuery{}
	if err := applyFlags(q, cfg, false); err != nil {
		t.Fatalf("applyFlags() error: %v", err)
	}
	if !q.ExcludeHidden {
		t.Error("ExcludeHidden should come from config when the flag is absent")
	}
}

func TestDescribeQuery(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    *query.SearchQuery
		want string
	}{
		{
			name: "empty",
			q:    &query.SearchQuery{},
			want: "no constraints (matching everything)",
		},
		{
			name: "pattern only",
			q:    &query.SearchQuery{Pattern: "report"},
			want: `pattern="report"`,
		},
		{
			name: "combined",
			q: &query.SearchQuery{
				Pattern:         "invoice",
				Extensions:      []string{".pdf", ".docx"},
				MinSize:         query.Int64(512),
				ModifiedAfter:   query.Time(after),
				ContentContains: "total",
				EntryType:       query.EntryFile,
			},
			want: `pattern="invoice", extensions=.pdf,.docx, min_size=512 B, after=2024-03-01, content="total", type=file`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeQuery(tt.q); got != tt.want {
				t.Errorf("describeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnyFilterFlags(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	if anyFilterFlags() {
		t.Error("anyFilterFlags() should be false with no flags set")
	}

	withSearchGlobals(t, searchGlobals{exts: []string{"go"}})
	if !anyFilterFlags() {
		t.Error("anyFilterFlags() should see --ext")
	}

	withSearchGlobals(t, searchGlobals{newer: "7d"})
	if !anyFilterFlags() {
		t.Error("anyFilterFlags() should see --newer-than")
	}

	withSearchGlobals(t, searchGlobals{depth: 2})
	if !anyFilterFlags() {
		t.Error("anyFilterFlags() should see --depth")
	}
}

func TestBuildQuery_NoLLM(t *testing.T) {
	withSearchGlobals(t, searchGlobals{noLLM: true})
	cfg := config.DefaultConfig()
	logger := logging.NewFromEnv()

	q, err := buildQuery(context.Background(), cfg, logger, `"*.pdf"`)
	if err != nil {
		t.Fatalf("buildQuery() error: %v", err)
	}
	if q.Pattern != "*.pdf" {
		t.Errorf("Pattern = %q, want quotes stripped", q.Pattern)
	}
}

func TestBuildQuery_EmptyText(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	q, err := buildQuery(context.Background(), config.DefaultConfig(), logging.NewFromEnv(), "")
	if err != nil {
		t.Fatalf("buildQuery() error: %v", err)
	}
	if q.Pattern != "" {
		t.Errorf("Pattern = %q, want empty", q.Pattern)
	}
}

func TestBuildQuery_NoProviderFallsBack(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	withTempHome(t)
	// No API key and an empty PATH means no provider is usable.
	t.Setenv("PATH", "")

	cfg := config.DefaultConfig()
	logger := logging.NewFromEnv()

	q, err := buildQuery(context.Background(), cfg, logger, "big pdfs from last week")
	if err != nil {
		t.Fatalf("buildQuery() should fall back, not fail: %v", err)
	}
	if q.Pattern != "big pdfs from last week" {
		t.Errorf("Pattern = %q, want the raw text as pattern", q.Pattern)
	}
}

func TestRunSearch_NoArgsShowsHelp(t *testing.T) {
	withSearchGlobals(t, searchGlobals{})
	withTempHome(t)

	out := captureStdout(t, func() {
		if err := runSearch(rootCmd, nil); err != nil {
			t.Errorf("runSearch() error: %v", err)
		}
	})
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected help output, got %q", out)
	}
}

func TestRunSearch_EndToEndJSON(t *testing.T) {
	withTempHome(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "report.txt"), "quarterly numbers")
	writeFile(t, filepath.Join(dir, "notes.log"), "scratch")
	writeFile(t, filepath.Join(dir, "summary.txt"), "totals")

	withSearchGlobals(t, searchGlobals{
		path:    dir,
		noLLM:   true,
		backend: "walk",
		json:    true,
		sort:    "name",
	})

	out := captureStdout(t, func() {
		if err := runSearch(rootCmd, []string{"*.txt"}); err != nil {
			t.Errorf("runSearch() error: %v", err)
		}
	})

	var resp searchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if resp.Backend != "walk" {
		t.Errorf("Backend = %q, want walk", resp.Backend)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(resp.Results), resp.Results)
	}
	if resp.Results[0].Name != "report.txt" || resp.Results[1].Name != "summary.txt" {
		t.Errorf("results out of order: %+v", resp.Results)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
	if resp.Truncated {
		t.Error("Truncated should be false")
	}
}

func TestRunSearch_RecordsHistory(t *testing.T) {
	home := withTempHome(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	withSearchGlobals(t, searchGlobals{
		path:    dir,
		noLLM:   true,
		backend: "walk",
		json:    true,
	})

	captureStdout(t, func() {
		if err := runSearch(rootCmd, []string{"a.txt"}); err != nil {
			t.Errorf("runSearch() error: %v", err)
		}
	})

	dbPath := filepath.Join(home, ".local", "share", "nlfind", "history.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("history database not created at %s: %v", dbPath, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile(%s) failed: %v", path, err)
	}
}
