package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "edurag",
		Short: "Semantic search over study materials",
		Long: `edurag indexes study materials (.txt, .md) in memory and answers
semantic queries against them.

Documents are split into overlapping chunks, embedded into vectors and
ranked by cosine similarity. The index lives only as long as the command.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./config.yaml or ~/.config/edurag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newRecommendCommand())
	rootCmd.AddCommand(newExplainCommand())
	rootCmd.AddCommand(newQuizContextCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newTUICommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version == "" {
				version = "development"
			}
			if commit == "" {
				commit = "local-build"
			}
			if date == "" {
				date = "local-build"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "edurag %s (%s) built on %s\n", version, commit, date)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
