package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/thoughttree/pkg/thoughttree"
)

var runCmd = &cobra.Command{
	Use:   "run \"problem statement\"",
	Short: "Start a new search for the given problem",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		problem := args[0]

		sub, store, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer store.Close()

		cfg, err := searchConfig(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("Problem: %s\n", problem)
		fmt.Printf("Config:  depth=%d branches=%d beam=%d threshold=%.2f\n",
			cfg.MaxDepth, cfg.BranchesPerNode, cfg.BeamWidth, cfg.MinScoreThreshold)

		h, err := sub.SubmitAsync(cmd.Context(), problem, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Search:  %s\n", h.SearchID)

		res, err := h.Wait()
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\nresume with: thoughttree resume %s\n", err, h.SearchID)
			os.Exit(1)
		}
		printResult(res)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("max-depth", thoughttree.DefaultMaxDepth, "Maximum search depth")
	runCmd.Flags().Int("branches-per-node", thoughttree.DefaultBranchesPerNode, "Children generated per surviving branch")
	runCmd.Flags().Int("beam-width", thoughttree.DefaultBeamWidth, "Branches kept after each pruning step")
	runCmd.Flags().Float64("min-score", thoughttree.DefaultMinScoreThreshold, "Minimum score a branch needs to survive")
}

// searchConfig merges the config file with flag overrides; an
// explicitly set flag always wins over the file.
func searchConfig(cmd *cobra.Command) (thoughttree.SearchConfig, error) {
	file, err := fileConfig(cmd)
	if err != nil {
		return thoughttree.SearchConfig{}, err
	}

	cfg := thoughttree.SearchConfig{
		MaxDepth:          file.Int("max_depth", thoughttree.DefaultMaxDepth),
		BranchesPerNode:   file.Int("branches_per_node", thoughttree.DefaultBranchesPerNode),
		BeamWidth:         file.Int("beam_width", thoughttree.DefaultBeamWidth),
		MinScoreThreshold: file.Float("min_score_threshold", thoughttree.DefaultMinScoreThreshold),
	}

	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	}
	if cmd.Flags().Changed("branches-per-node") {
		cfg.BranchesPerNode, _ = cmd.Flags().GetInt("branches-per-node")
	}
	if cmd.Flags().Changed("beam-width") {
		cfg.BeamWidth, _ = cmd.Flags().GetInt("beam-width")
	}
	if cmd.Flags().Changed("min-score") {
		cfg.MinScoreThreshold, _ = cmd.Flags().GetFloat64("min-score")
	}
	return cfg, cfg.Validate()
}
