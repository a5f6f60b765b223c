package cmd

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/runger/nlfind/internal/query"
)

// withPlainColors forces colors off so output assertions see bare
// text, restoring the previous codes afterwards.
func withPlainColors(t *testing.T) {
	t.Helper()
	origRed, origGreen, origYellow := colorRed, colorGreen, colorYellow
	origCyan, origDim, origBold, origReset := colorCyan, colorDim, colorBold, colorReset
	disableColors()
	t.Cleanup(func() {
		colorRed, colorGreen, colorYellow = origRed, origGreen, origYellow
		colorCyan, colorDim, colorBold, colorReset = origCyan, origDim, origBold, origReset
	})
}

func sampleResult() *query.SearchResult {
	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	return &query.SearchResult{
		Records: []query.FileInfo{
			{
				Path:     "/home/user/docs/report.txt",
				Name:     "report.txt",
				Size:     2048,
				Modified: modified,
			},
			{
				Path:     "/home/user/docs/notes.md",
				Name:     "notes.md",
				Size:     512,
				Modified: modified,
			},
		},
		TotalCount: 2,
		Elapsed:    50 * time.Millisecond,
		Backend:    "walk",
	}
}

func TestWriteResultJSON(t *testing.T) {
	result := sampleResult()
	result.Records[0].Name = "a&b.txt"
	result.Records[0].Path = "/home/user/docs/a&b.txt"

	out := captureStdout(t, func() {
		if err := writeResultJSON(result); err != nil {
			t.Errorf("writeResultJSON() error: %v", err)
		}
	})

	// SetEscapeHTML(false) keeps & readable in paths.
	if !strings.Contains(out, "a&b.txt") {
		t.Errorf("output should contain unescaped name, got %q", out)
	}

	var resp searchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Path != "/home/user/docs/a&b.txt" {
		t.Errorf("Path = %q", resp.Results[0].Path)
	}
	if resp.Results[0].Size != 2048 {
		t.Errorf("Size = %d, want 2048", resp.Results[0].Size)
	}
	if resp.Results[0].Modified == "" {
		t.Error("Modified should be an RFC3339 timestamp")
	}
	if resp.Backend != "walk" {
		t.Errorf("Backend = %q, want walk", resp.Backend)
	}
	if resp.ElapsedMs != 50 {
		t.Errorf("ElapsedMs = %d, want 50", resp.ElapsedMs)
	}
}

func TestPrintResult_Empty(t *testing.T) {
	out := captureStdout(t, func() {
		printResult(&query.SearchResult{Backend: "walk"})
	})
	if !strings.Contains(out, "No files found.") {
		t.Errorf("got %q, want the no-results message", out)
	}
}

func TestPrintResult_Table(t *testing.T) {
	withPlainColors(t)
	t.Setenv("COLUMNS", "")

	out := captureStdout(t, func() {
		printResult(sampleResult())
	})

	for _, want := range []string{
		"report.txt",
		"notes.md",
		"2.0 KB",
		"512 B",
		"2024-03-01 10:00",
		"/home/user/docs",
		"Found 2 files in 0.05s (walk)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "showing first") {
		t.Error("summary should not mention truncation")
	}
}

func TestPrintResult_TruncatedSummary(t *testing.T) {
	withPlainColors(t)
	result := sampleResult()
	result.TotalCount = 500
	result.Truncated = true

	out := captureStdout(t, func() {
		printResult(result)
	})

	if !strings.Contains(out, "Found 500 files in 0.05s (walk), showing first 2") {
		t.Errorf("summary missing truncation note:\n%s", out)
	}
}

func TestPrintResult_Excerpt(t *testing.T) {
	withPlainColors(t)
	result := sampleResult()
	result.Records[0].Excerpt = "grand total: 42"

	out := captureStdout(t, func() {
		printResult(result)
	})

	if !strings.Contains(out, "grand total: 42") {
		t.Errorf("output missing excerpt line:\n%s", out)
	}
}

func TestPrintResult_LongNameTruncated(t *testing.T) {
	withPlainColors(t)
	t.Setenv("COLUMNS", "")

	long := strings.Repeat("x", 60) + ".txt"
	result := &query.SearchResult{
		Records: []query.FileInfo{{
			Path:     "/tmp/" + long,
			Name:     long,
			Size:     10,
			Modified: time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local),
		}},
		TotalCount: 1,
		Elapsed:    time.Millisecond,
		Backend:    "walk",
	}

	out := captureStdout(t, func() {
		printResult(result)
	})

	if strings.Contains(out, long) {
		t.Error("name longer than the column cap should be truncated")
	}
	if !strings.Contains(out, "…") {
		t.Errorf("truncated name should carry an ellipsis:\n%s", out)
	}
}
