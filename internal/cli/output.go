package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"edurag/internal/domain"
	"edurag/internal/recommend"
	"edurag/internal/textutil"
)

const previewChars = 200

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func printResults(w io.Writer, query string, results []domain.SearchResult, full bool) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No results for %q\n", query)
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d results for %q", len(results), query)))
	for i, r := range results {
		fmt.Fprintf(w, "\n%d. %s %s\n", i+1,
			scoreStyle.Render(fmt.Sprintf("[%.3f]", r.Similarity)),
			titleStyle.Render(fmt.Sprintf("%s (chunk %d/%d)", r.Metadata.DocName, r.Metadata.ChunkIndex+1, r.Metadata.TotalChunks)))
		content := r.Content
		if !full && len([]rune(content)) > previewChars {
			content = textutil.Truncate(content, previewChars) + "..."
		}
		fmt.Fprintln(w, indent(content))
	}
}

func printStats(w io.Writer, s domain.Stats) {
	fmt.Fprintln(w, titleStyle.Render("Index statistics"))
	fmt.Fprintf(w, "  Total chunks:          %d\n", s.TotalChunks)
	fmt.Fprintf(w, "  Unique documents:      %d\n", s.UniqueDocuments)
	fmt.Fprintf(w, "  Average chunk length:  %.1f\n", s.AverageChunkLength)
}

func printReport(w io.Writer, report domain.IngestReport) {
	fmt.Fprintln(w, titleStyle.Render("Ingest report"))
	for _, r := range report.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "  %s %s: %v\n", warningStyle.Render("FAIL"), r.DocName, r.Err)
		case r.Skipped:
			fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("SKIP"), r.DocName)
		default:
			fmt.Fprintf(w, "  %s %s (%d chunks)\n", scoreStyle.Render("OK"), r.DocName, r.Chunks)
		}
	}
	fmt.Fprintf(w, "  Indexed %d chunks from %d documents\n", report.TotalChunks(), report.Succeeded())
}

func printRecommendations(w io.Writer, materials []recommend.Material, topics []recommend.TopicMatches) {
	fmt.Fprintln(w, titleStyle.Render("Study materials"))
	if len(materials) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none found"))
	}
	for _, m := range materials {
		fmt.Fprintf(w, "  - %s\n    %s\n", m.Title, m.Description)
	}
	for _, t := range topics {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Topic: "+t.Topic))
		for _, m := range t.Materials {
			fmt.Fprintf(w, "  %s %s\n%s\n", scoreStyle.Render(fmt.Sprintf("[%.1f%%]", m.Similarity*100)), m.MaterialName, indent(m.Excerpt))
		}
	}
}

func printRanking(w io.Writer, ranked []recommend.RankedMaterial) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Ranking"))
	if len(ranked) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none found"))
	}
	for i, m := range ranked {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, m.Name, scoreStyle.Render(fmt.Sprintf("[%.3f]", m.Relevance)))
	}
}

// printAnswer prints text, or notFound when text is empty.
func printAnswer(w io.Writer, text, notFound string) {
	if text == "" {
		fmt.Fprintln(w, mutedStyle.Render(notFound))
		return
	}
	fmt.Fprintln(w, text)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "   " + l
	}
	return strings.Join(lines, "\n")
}
