package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"edurag/internal/domain"
	"edurag/internal/recommend"
	"edurag/internal/summarizer"
	"edurag/internal/tui"
	"edurag/internal/watch"
)

var (
	materialPaths []string
	searchTop     int
	searchMinSim  float64
	searchFull    bool
	recommendRank bool
)

func addPathsFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&materialPaths, "paths", "p", nil, "files, directories or globs to index (default ingest.paths from config)")
}

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search study materials",
		Long: `Index the given materials and print the chunks most similar to the query.

Examples:
  edurag search -p notes/ how do plants make food
  edurag search -p "notes/*.md" --top 5 --min-similarity 0.2 mitosis`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	addPathsFlag(cmd)
	cmd.Flags().IntVarP(&searchTop, "top", "k", 0, "number of results (default search.top_k from config)")
	cmd.Flags().Float64Var(&searchMinSim, "min-similarity", 0, "similarity floor (default search.min_similarity from config)")
	cmd.Flags().BoolVar(&searchFull, "full", false, "print full chunk content")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, _, err := a.ingest(ctx, materialPaths); err != nil {
		return err
	}
	topK := a.cfg.Search.TopK
	if cmd.Flags().Changed("top") {
		topK = searchTop
	}
	minSim := a.cfg.Search.MinSimilarity
	if cmd.Flags().Changed("min-similarity") {
		minSim = searchMinSim
	}
	query := strings.Join(args, " ")
	results, err := a.engine.Search(ctx, query, topK, minSim)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), query, results, searchFull)
	return nil
}

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Index materials and print index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, report, err := a.ingest(cmd.Context(), materialPaths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verbose {
				printReport(out, report)
				fmt.Fprintln(out)
			}
			printStats(out, a.engine.Stats())
			return nil
		},
	}
	addPathsFlag(cmd)
	return cmd
}

func newRecommendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend topic...",
		Short: "Recommend study materials for weak topics",
		Long: `Find the materials that best cover each weak topic.

Examples:
  edurag recommend -p notes/ "cell division" "photosynthesis"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, _, err := a.ingest(ctx, materialPaths); err != nil {
				return err
			}
			// Per-topic failures are reported but do not hide the other topics.
			materials, err := recommend.StudyMaterials(ctx, a.engine, args)
			if err != nil {
				a.log.Error(err, "study material lookup incomplete")
			}
			topics, err := recommend.TopicMaterials(ctx, a.engine, args)
			if err != nil {
				a.log.Error(err, "topic material lookup incomplete")
			}
			out := cmd.OutOrStdout()
			printRecommendations(out, materials, topics)
			if recommendRank {
				ranked, err := recommend.RankMaterials(ctx, a.engine, args)
				if err != nil {
					a.log.Error(err, "material ranking incomplete")
				}
				printRanking(out, ranked)
			}
			return nil
		},
	}
	addPathsFlag(cmd)
	cmd.Flags().BoolVar(&recommendRank, "rank", false, "also rank every matching material by relevance summed over the topics")
	return cmd
}

func newExplainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain question...",
		Short: "Point to material explaining a missed question",
		Long: `Find the study material closest to a wrongly answered question.

Examples:
  edurag explain -p notes/ "Where does photosynthesis take place?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, _, err := a.ingest(ctx, materialPaths); err != nil {
				return err
			}
			text, err := recommend.Remediation(ctx, a.engine, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), text, "No related material found")
			return nil
		},
	}
	addPathsFlag(cmd)
	return cmd
}

func newQuizContextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz-context file",
		Short: "Print related material to ground quiz generation for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := a.loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			if _, _, err := a.ingest(ctx, materialPaths); err != nil {
				return err
			}
			text, err := recommend.QuizContext(ctx, a.engine, doc.Text)
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), text, "No related material found")
			return nil
		},
	}
	addPathsFlag(cmd)
	return cmd
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep the index in sync with a directory",
		Long: `Index a directory and re-index files as they are created, changed or
deleted. Press Ctrl+C to stop watching.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			dir := args[0]
			if _, _, err := a.ingest(ctx, []string{dir}); err != nil {
				// An empty directory is fine to start watching from.
				a.log.Info("initial ingest", "dir", dir, "result", err.Error())
			}
			printStats(cmd.OutOrStdout(), a.engine.Stats())
			w := watch.New(a.engine, a.loader, a.log.WithName("watch"),
				watch.WithMinTextLength(a.cfg.Ingest.MinTextLength))
			return w.Run(ctx, dir)
		},
	}
}

func newTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			docs, _, err := a.ingest(cmd.Context(), materialPaths)
			if err != nil {
				return err
			}
			summary, err := corpusSummary(docs, a.cfg.Summarizer.MaxSentences)
			if err != nil {
				return err
			}
			m := tui.New(a.engine, tui.Options{
				TopK:          a.cfg.Search.TopK,
				MinSimilarity: a.cfg.Search.MinSimilarity,
				Summary:       summary,
			})
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	addPathsFlag(cmd)
	return cmd
}

func corpusSummary(docs []domain.Document, maxSentences int) (string, error) {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Text)
		b.WriteString("\n")
	}
	return summarizer.NewFrequencySummarizer().Summarize(b.String(), maxSentences)
}
