package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/nlfind/internal/config"
	"github.com/runger/nlfind/internal/history"
)

var (
	historyLimit int
	historyClear bool
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show past searches",
	GroupID: groupCore,
	Long: `Show past searches from the local history database.

Each executed search is recorded with its original text, the parsed
criteria, the backend used, and timing. Set history.enabled=false in
the config to stop recording.

Examples:
  nlfind history              # Show last 20 searches
  nlfind history --limit=50   # Show last 50 searches
  nlfind history --json       # Output as JSON
  nlfind history --clear      # Delete all recorded searches`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of searches to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded searches")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

type historyOutput struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Input       string `json:"input"`
	Backend     string `json:"backend,omitempty"`
	ResultCount int    `json:"result_count"`
	TotalCount  int    `json:"total_count"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	applyColorMode()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbFile := config.DefaultPaths().HistoryDBFile()
	store, err := history.NewStore(dbFile, cfg.History.MaxEntries)
	if err != nil {
		fmt.Printf("No history available. Database not usable at: %s\n", dbFile)
		return nil
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if historyClear {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("Search history cleared.")
		return nil
	}

	entries, err := store.List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		return writeHistoryJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No searches recorded yet.")
		return nil
	}

	// Most recent last for typical terminal usage.
	for i := len(entries) - 1; i >= 0; i-- {
		printSearch(entries[i])
	}

	fmt.Println()
	fmt.Printf("%sShowing %d search(es)%s\n", colorDim, len(entries), colorReset)

	return nil
}

func writeHistoryJSON(entries []history.Entry) error {
	output := make([]historyOutput, len(entries))
	for i, e := range entries {
		output[i] = historyOutput{
			ID:          e.ID,
			Timestamp:   e.Timestamp.Format(time.RFC3339),
			Input:       e.RawInput,
			Backend:     e.Backend,
			ResultCount: e.ResultCount,
			TotalCount:  e.TotalCount,
			ElapsedMs:   e.ElapsedMs,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(output)
}

func printSearch(e history.Entry) {
	timestamp := e.Timestamp.Format("2006-01-02 15:04:05")

	fmt.Printf("%s%s%s  %s", colorDim, timestamp, colorReset, e.RawInput)
	fmt.Printf("  %s(%d results - %s - %s)%s\n",
		colorDim, e.ResultCount, e.Backend, formatDurationMs(e.ElapsedMs), colorReset)
}

func formatDurationMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
