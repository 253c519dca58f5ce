package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/checkpoint"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/config"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/llm"
	"github.com/randalmurphal/thoughttree/pkg/thoughttree/observability"
)

var rootCmd = &cobra.Command{
	Use:   "thoughttree",
	Short: "Durable Tree-of-Thoughts beam search over a problem statement",
	Long: `thoughttree explores a problem with LLM-generated reasoning branches,
keeping the most promising ones at each depth (beam search). Progress is
checkpointed to SQLite after every step, so an interrupted search can be
resumed without repeating completed LLM calls.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "thoughttree.db", "SQLite file holding checkpoints and the call ledger")
	rootCmd.PersistentFlags().String("config", "", "Optional YAML/JSON config file")
	rootCmd.PersistentFlags().String("model", llm.DefaultModel, "OpenAI model to use")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// setup wires the store and submitter from persistent flags. The
// caller owns closing the returned store.
func setup(cmd *cobra.Command) (*thoughttree.Submitter, *checkpoint.SQLiteStore, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	dbPath, _ := cmd.Flags().GetString("db")
	model, _ := cmd.Flags().GetString("model")

	store, err := checkpoint.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	client := llm.NewOpenAI(apiKey, llm.WithModel(model))
	sub, err := thoughttree.NewSubmitter(store, client, client,
		thoughttree.WithLogger(newLogger(cmd)),
		thoughttree.WithMetrics(observability.NewMetricsRecorder()),
		thoughttree.WithSpanManager(observability.NewSpanManager()),
	)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return sub, store, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// fileConfig loads the optional config file; missing flag yields an
// empty config so flag defaults apply.
func fileConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.New(nil), nil
	}
	return config.FromFile(path)
}

func printResult(res *thoughttree.Result) {
	fmt.Println()
	fmt.Println("=== Result ===")
	fmt.Printf("Answer:\n%s\n\n", res.Answer)
	fmt.Printf("Score:            %.2f\n", res.Score)
	fmt.Printf("Terminal:         %v\n", res.Terminal)
	fmt.Printf("Branches explored: %d\n", res.TotalExplored)
	fmt.Printf("Depth reached:    %d\n", res.DepthReached)
	if len(res.Path) > 0 {
		fmt.Println("\nReasoning path:")
		for i, b := range res.Path {
			fmt.Printf("  %d. (%.2f) %s\n", i+1, b.Score, lastLine(b.Content))
		}
	}
}

// lastLine shows only the newest reasoning step of a chained branch.
func lastLine(content string) string {
	if i := strings.LastIndex(content, "→ "); i >= 0 {
		return content[i+len("→ "):]
	}
	return content
}
