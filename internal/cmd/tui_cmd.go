package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/nlfind/internal/config"
	"github.com/runger/nlfind/internal/logging"
	"github.com/runger/nlfind/internal/nlparse"
	"github.com/runger/nlfind/internal/query"
	"github.com/runger/nlfind/internal/tui"
)

var tuiPath string

var tuiCmd = &cobra.Command{
	Use:     "tui [query]",
	Short:   "Interactive file search",
	GroupID: groupCore,
	Long: `Open the interactive search view.

Results refresh as you type; the text is matched as a filename
pattern (no LLM round-trip per keystroke). Enter prints the selected
path to stdout, so the command composes with shell pipelines:

  vim "$(nlfind tui)"
  cd "$(dirname "$(nlfind tui)")"`,
	Args: cobra.ArbitraryArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiPath, "path", "p", "", "directory to search in")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.ValidateAndFix()

	logger := logging.NewFromEnv()
	exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}

	root := tuiPath
	if root == "" {
		root = cfg.Search.DefaultRoot
	}
	pref := cfg.Search.Backend

	searcher := tui.SearcherFunc(func(ctx context.Context, text string, limit int) (*query.SearchResult, error) {
		q := nlparse.Heuristic(text)
		q.RootPath = root
		q.Limit = limit
		q.ExcludeHidden = cfg.Search.ExcludeHidden
		return exec.Execute(ctx, q, pref)
	})

	model := tui.NewModel(searcher, strings.Join(args, " "))

	// Open /dev/tty for the view so stdout stays free for the result.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty (the tui needs a terminal): %w", err)
	}
	defer tty.Close()

	// Detect the color profile from the tty. When invoked via
	// $(nlfind tui), stdout is a pipe, so lipgloss would otherwise
	// default to Ascii and render without color.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}

	m, ok := finalModel.(tui.Model)
	if !ok {
		return fmt.Errorf("unexpected model type %T", finalModel)
	}

	if result := m.Result(); result != "" {
		fmt.Fprintln(os.Stdout, result)
	}

	return nil
}
