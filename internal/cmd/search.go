package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/nlfind/internal/backend"
	"github.com/runger/nlfind/internal/config"
	"github.com/runger/nlfind/internal/executor"
	"github.com/runger/nlfind/internal/history"
	"github.com/runger/nlfind/internal/logging"
	"github.com/runger/nlfind/internal/nlparse"
	"github.com/runger/nlfind/internal/query"
)

var (
	searchPath    string
	searchLimit   int
	searchSort    string
	searchDesc    bool
	searchBackend string
	searchNoLLM   bool
	searchJSON    bool

	searchExts     []string
	searchType     string
	searchContent  string
	searchMinSize  string
	searchMaxSize  string
	searchNewer    string
	searchOlder    string
	searchDepth    int
	searchCaseSens bool
	searchNoHidden bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&searchPath, "path", "p", "", "directory to search in (default: current directory)")
	f.IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default: from config)")
	f.StringVarP(&searchSort, "sort", "s", "", "sort by: name, size, modified, or none")
	f.BoolVarP(&searchDesc, "desc", "d", false, "sort in descending order")
	f.StringVarP(&searchBackend, "backend", "b", "", "backend: auto, indexed, fd, find, or walk")
	f.BoolVar(&searchNoLLM, "no-llm", false, "skip LLM parsing (treat the query as a pattern)")
	f.BoolVar(&searchJSON, "json", false, "output results as JSON")
	f.StringSliceVar(&searchExts, "ext", nil, "restrict to file extensions (repeatable)")
	f.StringVar(&searchType, "type", "", "entry type: file, directory, or any")
	f.StringVar(&searchContent, "content", "", "restrict to files containing this text")
	f.StringVar(&searchMinSize, "min-size", "", "minimum size (e.g. 500KB, 10MB)")
	f.StringVar(&searchMaxSize, "max-size", "", "maximum size")
	f.StringVar(&searchNewer, "newer-than", "", "modified after (2006-01-02, or an age like 7d)")
	f.StringVar(&searchOlder, "older-than", "", "modified before (2006-01-02, or an age like 7d)")
	f.IntVar(&searchDepth, "depth", 0, "maximum directory depth (0 = unlimited)")
	f.BoolVar(&searchCaseSens, "case-sensitive", false, "case-sensitive pattern matching")
	f.BoolVar(&searchNoHidden, "no-hidden", false, "skip hidden files and directories")
	f.StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")
}

func runSearch(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" && !anyFilterFlags() {
		return cmd.Help()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.ValidateAndFix()

	if colorMode == "auto" && cfg.UI.Color != "" {
		colorMode = cfg.UI.Color
	}
	applyColorMode()

	logger := logging.NewFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	q, err := buildQuery(ctx, cfg, logger, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "\n%sCancelled%s\n", colorDim, colorReset)
			return nil
		}
		return err
	}
	if err := applyFlags(q, cfg, cmd.Flags().Changed("limit")); err != nil {
		return err
	}

	exec, err := newExecutor(cfg, logger)
	if err != nil {
		return err
	}

	pref := searchBackend
	if pref == "" {
		pref = cfg.Search.Backend
	}

	result, err := exec.Execute(ctx, q, pref)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "\n%sCancelled%s\n", colorDim, colorReset)
			return nil
		}
		return err
	}

	logging.LogSearch(logger, result.Backend, len(result.Records), result.TotalCount,
		result.Elapsed.Milliseconds(), result.Truncated)
	recordSearch(ctx, cfg, logger, text, q, result)

	if searchJSON {
		return writeResultJSON(result)
	}
	printResult(result)
	return nil
}

// anyFilterFlags reports whether a structured filter flag was given,
// which makes a bare "nlfind --ext pdf" a valid invocation.
func anyFilterFlags() bool {
	return len(searchExts) > 0 || searchType != "" || searchContent != "" ||
		searchMinSize != "" || searchMaxSize != "" || searchNewer != "" ||
		searchOlder != "" || searchDepth > 0
}

// buildQuery turns the positional text into a structured query. With
// --no-llm the text is a pattern; otherwise the best available LLM
// provider parses it, falling back to a pattern search when no
// provider is usable or parsing fails. Progress goes to stderr so
// stdout stays clean for results.
func buildQuery(ctx context.Context, cfg *config.Config, logger *slog.Logger, text string) (*query.SearchQuery, error) {
	if text == "" {
		return &query.SearchQuery{}, nil
	}
	if searchNoLLM {
		fmt.Fprintf(os.Stderr, "%sDirect pattern search: %s%s\n", colorDim, text, colorReset)
		return nlparse.Heuristic(text), nil
	}

	reg := nlparse.NewRegistry(nlparse.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	provider, err := reg.GetBest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sNo LLM provider available; searching for the text as a pattern. Set OPENAI_API_KEY or pass --no-llm to silence this.%s\n", colorYellow, colorReset)
		logging.LogParseFallback(logger, cfg.LLM.Provider, err)
		return nlparse.Heuristic(text), nil
	}

	q, err := provider.Parse(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "%sLLM parse failed (%v); searching for the text as a pattern.%s\n", colorYellow, err, colorReset)
		logging.LogParseFallback(logger, provider.Name(), err)
		return nlparse.Heuristic(text), nil
	}

	fmt.Fprintf(os.Stderr, "%sParsed: %s%s\n", colorDim, describeQuery(q), colorReset)
	return q, nil
}

// describeQuery renders the parsed constraints for the progress line.
func describeQuery(q *query.SearchQuery) string {
	var parts []string
	if q.Pattern != "" {
		parts = append(parts, fmt.Sprintf("pattern=%q", q.Pattern))
	}
	if len(q.Extensions) > 0 {
		parts = append(parts, "extensions="+strings.Join(q.Extensions, ","))
	}
	if q.MinSize != nil {
		parts = append(parts, "min_size="+query.FormatSize(*q.MinSize))
	}
	if q.MaxSize != nil {
		parts = append(parts, "max_size="+query.FormatSize(*q.MaxSize))
	}
	if q.ModifiedAfter != nil {
		parts = append(parts, "after="+q.ModifiedAfter.Format("2006-01-02"))
	}
	if q.ModifiedBefore != nil {
		parts = append(parts, "before="+q.ModifiedBefore.Format("2006-01-02"))
	}
	if q.ContentContains != "" {
		parts = append(parts, fmt.Sprintf("content=%q", q.ContentContains))
	}
	if q.EntryType != query.EntryAny {
		parts = append(parts, "type="+q.EntryType.String())
	}
	if len(parts) == 0 {
		return "no constraints (matching everything)"
	}
	return strings.Join(parts, ", ")
}

// applyFlags layers the structured flags over the parsed query. Flags
// win over whatever the LLM extracted. limitSet distinguishes an
// explicit --limit 0 (unlimited) from the flag's absence.
func applyFlags(q *query.SearchQuery, cfg *config.Config, limitSet bool) error {
	if searchPath != "" {
		q.RootPath = searchPath
	} else if q.RootPath == "" {
		q.RootPath = cfg.Search.DefaultRoot
	}

	if len(searchExts) > 0 {
		q.Extensions = searchExts
	}
	if searchType != "" {
		t, err := query.ParseEntryType(searchType)
		if err != nil {
			return err
		}
		q.EntryType = t
	}
	if searchContent != "" {
		q.ContentContains = searchContent
	}
	if searchMinSize != "" {
		n, err := query.ParseSize(searchMinSize)
		if err != nil {
			return fmt.Errorf("--min-size: %w", err)
		}
		q.MinSize = &n
	}
	if searchMaxSize != "" {
		n, err := query.ParseSize(searchMaxSize)
		if err != nil {
			return fmt.Errorf("--max-size: %w", err)
		}
		q.MaxSize = &n
	}

	now := time.Now()
	if searchNewer != "" {
		ts, err := query.ParseTime(searchNewer, now)
		if err != nil {
			return fmt.Errorf("--newer-than: %w", err)
		}
		q.ModifiedAfter = &ts
	}
	if searchOlder != "" {
		ts, err := query.ParseTime(searchOlder, now)
		if err != nil {
			return fmt.Errorf("--older-than: %w", err)
		}
		q.ModifiedBefore = &ts
	}

	if searchDepth > 0 {
		q.MaxDepth = searchDepth
	}
	if searchCaseSens {
		q.CaseSensitive = true
	}
	if searchNoHidden || cfg.Search.ExcludeHidden {
		q.ExcludeHidden = true
	}

	if searchSort != "" {
		k, err := query.ParseSortKey(searchSort)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%sUnknown sort key %q, using name%s\n", colorYellow, searchSort, colorReset)
			k = query.SortByName
		}
		q.SortKey = k
	}
	if searchDesc {
		q.Descending = true
	}

	if limitSet {
		q.Limit = searchLimit
	} else if q.Limit == 0 {
		q.Limit = cfg.Search.DefaultLimit
	}

	return nil
}

// newExecutor builds the search executor with per-backend extra args
// from the configuration.
func newExecutor(cfg *config.Config, logger *slog.Logger) (*executor.Executor, error) {
	reg := backend.NewRegistry()
	for _, name := range []string{backend.NameIndexed, backend.NameFd, backend.NameFind} {
		extra, err := cfg.Search.ExtraArgsFor(name)
		if err != nil {
			return nil, err
		}
		if len(extra) == 0 {
			continue
		}
		b, ok := reg.Get(name)
		if !ok {
			continue
		}
		switch be := b.(type) {
		case *backend.IndexedBackend:
			be.ExtraArgs = extra
		case *backend.FdBackend:
			be.ExtraArgs = extra
		case *backend.FindBackend:
			be.ExtraArgs = extra
		}
	}
	return executor.New(
		executor.WithRegistry(reg),
		executor.WithLogger(logger),
		executor.WithContentMaxBytes(cfg.Search.ContentMaxBytes),
	)
}

// recordSearch appends the search to the local history database.
// History failures never fail the search.
func recordSearch(ctx context.Context, cfg *config.Config, logger *slog.Logger, rawInput string, q *query.SearchQuery, result *query.SearchResult) {
	if !cfg.History.Enabled || rawInput == "" {
		return
	}

	store, err := history.NewStore(config.DefaultPaths().HistoryDBFile(), cfg.History.MaxEntries)
	if err != nil {
		logging.LogSQLiteError(logger, "open", err)
		return
	}
	defer store.Close()

	entry := &history.Entry{
		RawInput:    rawInput,
		Query:       q,
		Backend:     result.Backend,
		ResultCount: len(result.Records),
		TotalCount:  result.TotalCount,
		ElapsedMs:   result.Elapsed.Milliseconds(),
	}
	if err := store.Record(ctx, entry); err != nil {
		logging.LogSQLiteError(logger, "record", err)
	}
}
