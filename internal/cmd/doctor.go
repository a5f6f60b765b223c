package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/nlfind/internal/backend"
	"github.com/runger/nlfind/internal/config"
	"github.com/runger/nlfind/internal/query"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Check nlfind dependencies and configuration",
	GroupID: groupSetup,
	Long: `Run diagnostic checks on your nlfind setup.

This command checks:
- Configuration validity
- Data directory
- Search backend availability and tool paths
- LLM provider availability
- Search history database

Examples:
  nlfind doctor`,
	RunE: runDoctor,
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	applyColorMode()

	fmt.Printf("%snlfind Doctor%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println()

	results := make([]checkResult, 0, 16)

	results = append(results, checkConfiguration())
	results = append(results, checkDataDir())
	results = append(results, checkBackends()...)
	results = append(results, checkLLMProviders()...)
	results = append(results, checkHistoryDB())

	// Print results
	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		var statusIcon string
		switch r.status {
		case "ok":
			statusIcon = colorGreen + "[OK]" + colorReset
		case "warn":
			statusIcon = colorYellow + "[WARN]" + colorReset
			hasWarnings = true
		case "error":
			statusIcon = colorRed + "[ERROR]" + colorReset
			hasErrors = true
		}

		fmt.Printf("  %s %s\n", statusIcon, r.name)
		if r.message != "" {
			fmt.Printf("       %s%s%s\n", colorDim, r.message, colorReset)
		}
	}

	fmt.Println()

	if hasErrors {
		fmt.Printf("%sSome checks failed. Please fix the errors above.%s\n", colorRed, colorReset)
		return fmt.Errorf("doctor found errors")
	}

	if hasWarnings {
		fmt.Printf("%sAll critical checks passed, but there are warnings.%s\n", colorYellow, colorReset)
	} else {
		fmt.Printf("%sAll checks passed!%s\n", colorGreen, colorReset)
	}

	return nil
}

func checkConfiguration() checkResult {
	paths := config.DefaultPaths()
	configFile := paths.ConfigFile()

	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return checkResult{
			name:    "Configuration",
			status:  "error",
			message: fmt.Sprintf("Failed to load: %v", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return checkResult{
			name:    "Configuration",
			status:  "error",
			message: fmt.Sprintf("Invalid: %v", err),
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return checkResult{
			name:    "Configuration",
			status:  "ok",
			message: "Using defaults (no config file)",
		}
	}

	return checkResult{
		name:    "Configuration",
		status:  "ok",
		message: configFile,
	}
}

func checkDataDir() checkResult {
	paths := config.DefaultPaths()

	if _, err := os.Stat(paths.DataDir); os.IsNotExist(err) {
		return checkResult{
			name:    "Data directory",
			status:  "warn",
			message: fmt.Sprintf("Missing: %s (will be created when needed)", paths.DataDir),
		}
	} else if err != nil {
		return checkResult{
			name:    "Data directory",
			status:  "error",
			message: fmt.Sprintf("Error accessing: %s", paths.DataDir),
		}
	}

	return checkResult{
		name:    "Data directory",
		status:  "ok",
		message: paths.DataDir,
	}
}

func checkBackends() []checkResult {
	var results []checkResult

	for _, s := range backend.NewRegistry().ListAll() {
		name := fmt.Sprintf("Backend %q", s.Name)
		switch {
		case s.Available && s.Tool != "":
			results = append(results, checkResult{name: name, status: "ok", message: s.Tool})
		case s.Available:
			results = append(results, checkResult{name: name, status: "ok", message: "built-in"})
		default:
			results = append(results, checkResult{name: name, status: "warn", message: "tool not found on PATH"})
		}
	}

	return results
}

func checkLLMProviders() []checkResult {
	var results []checkResult

	// OpenAI-compatible API: usable with a key or a base URL override.
	if os.Getenv("OPENAI_API_KEY") != "" {
		results = append(results, checkResult{
			name:    "OpenAI provider",
			status:  "ok",
			message: "OPENAI_API_KEY set",
		})
	} else if cfg, err := config.Load(); err == nil && cfg.LLM.BaseURL != "" {
		results = append(results, checkResult{
			name:    "OpenAI provider",
			status:  "ok",
			message: fmt.Sprintf("base_url %s", cfg.LLM.BaseURL),
		})
	} else {
		results = append(results, checkResult{
			name:    "OpenAI provider",
			status:  "warn",
			message: "OPENAI_API_KEY not set",
		})
	}

	// Claude CLI subprocess provider.
	claudePath, err := exec.LookPath("claude")
	if err != nil {
		results = append(results, checkResult{
			name:    "Claude CLI provider",
			status:  "warn",
			message: "claude not found on PATH",
		})
	} else {
		results = append(results, checkResult{
			name:    "Claude CLI provider",
			status:  "ok",
			message: claudePath,
		})
	}

	// Natural language queries degrade to pattern search without a
	// provider, so a missing LLM is a warning, not an error.
	available := false
	for _, r := range results {
		if r.status == "ok" {
			available = true
		}
	}
	if !available {
		results = append(results, checkResult{
			name:    "Query parsing",
			status:  "warn",
			message: "No LLM provider; natural language queries fall back to pattern search",
		})
	}

	return results
}

func checkHistoryDB() checkResult {
	dbFile := config.DefaultPaths().HistoryDBFile()

	info, err := os.Stat(dbFile)
	if os.IsNotExist(err) {
		return checkResult{
			name:    "Search history",
			status:  "ok",
			message: "Not created yet (first search will create it)",
		}
	}
	if err != nil {
		return checkResult{
			name:    "Search history",
			status:  "warn",
			message: fmt.Sprintf("Error accessing: %v", err),
		}
	}

	return checkResult{
		name:    "Search history",
		status:  "ok",
		message: fmt.Sprintf("%s (%s)", dbFile, query.FormatSize(info.Size())),
	}
}
