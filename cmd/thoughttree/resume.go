package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <search-id>",
	Short: "Continue an interrupted search from its last checkpoint",
	Long: `Resume picks up a search that was interrupted by a crash or kill.
LLM calls that already completed are replayed from the call ledger,
never reissued; only the remaining work runs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sub, store, err := setup(cmd)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer store.Close()

		fmt.Printf("Resuming search %s\n", args[0])
		res, err := sub.Resume(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "resume failed: %v\n", err)
			os.Exit(1)
		}
		printResult(res)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
