package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/runger/nlfind/internal/query"
	"github.com/runger/nlfind/internal/tui"
)

// maxNameWidth caps the name column so one long file name does not
// push the rest of the row off screen.
const maxNameWidth = 40

type searchOutput struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	IsDir    bool   `json:"is_dir,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
}

type searchResponse struct {
	Results   []searchOutput `json:"results"`
	Total     int            `json:"total"`
	Truncated bool           `json:"truncated"`
	Backend   string         `json:"backend"`
	ElapsedMs int64          `json:"elapsed_ms"`
}

func writeResultJSON(result *query.SearchResult) error {
	output := make([]searchOutput, len(result.Records))
	for i, rec := range result.Records {
		output[i] = searchOutput{
			Path:     rec.Path,
			Name:     rec.Name,
			Size:     rec.Size,
			Modified: rec.Modified.Format(time.RFC3339),
			IsDir:    rec.IsDir,
			Excerpt:  rec.Excerpt,
		}
	}

	resp := searchResponse{
		Results:   output,
		Total:     result.TotalCount,
		Truncated: result.Truncated,
		Backend:   result.Backend,
		ElapsedMs: result.Elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// printResult renders the aligned result table and a summary line.
// Columns are name, size, modified, parent directory; the directory
// gets whatever width is left on the row.
func printResult(result *query.SearchResult) {
	if len(result.Records) == 0 {
		fmt.Println("No files found.")
		return
	}

	nameW := 0
	for _, rec := range result.Records {
		if w := runewidth.StringWidth(rec.Name); w > nameW {
			nameW = w
		}
	}
	if nameW > maxNameWidth {
		nameW = maxNameWidth
	}

	// 9 for the size column, 16 for the timestamp, 6 for gaps.
	dirW := terminalWidth() - nameW - 9 - 16 - 6

	for _, rec := range result.Records {
		name := runewidth.Truncate(rec.Name, nameW, "…")
		dir := filepath.Dir(rec.Path)
		if dirW > 10 {
			dir = tui.MiddleTruncate(dir, dirW)
		}
		fmt.Printf("%s%s%s  %s%9s%s  %s%s%s  %s%s%s\n",
			colorCyan, runewidth.FillRight(name, nameW), colorReset,
			colorGreen, query.FormatSize(rec.Size), colorReset,
			colorYellow, rec.Modified.Format("2006-01-02 15:04"), colorReset,
			colorDim, dir, colorReset)
		if rec.Excerpt != "" {
			fmt.Printf("  %s%s%s\n", colorDim, rec.Excerpt, colorReset)
		}
	}

	fmt.Println()
	summary := fmt.Sprintf("Found %d files in %.2fs (%s)",
		result.TotalCount, result.Elapsed.Seconds(), result.Backend)
	if result.Truncated {
		summary += fmt.Sprintf(", showing first %d", len(result.Records))
	}
	fmt.Printf("%s%s%s\n", colorDim, summary, colorReset)
}
