package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"edurag/internal/domain"
)

type call struct {
	query  string
	topK   int
	minSim float64
}

// fakeSearcher returns canned results per query and records every call.
type fakeSearcher struct {
	results map[string][]domain.SearchResult
	fail    map[string]error
	calls   []call
}

func (f *fakeSearcher) Search(_ context.Context, query string, topK int, minSimilarity float64) ([]domain.SearchResult, error) {
	f.calls = append(f.calls, call{query, topK, minSimilarity})
	if err := f.fail[query]; err != nil {
		return nil, err
	}
	res := f.results[query]
	return res[:min(len(res), topK)], nil
}

func result(docID, docName, content string, sim float64) domain.SearchResult {
	return domain.SearchResult{
		Content:    content,
		Similarity: sim,
		Metadata:   domain.Metadata{DocID: docID, DocName: docName, TotalChunks: 1},
	}
}

func TestQuizContext(t *testing.T) {
	long := strings.Repeat("x", 600)
	fs := &fakeSearcher{results: map[string][]domain.SearchResult{
		long[:500]: {
			result("a", "a.txt", strings.Repeat("y", 400), 0.9),
			result("b", "b.txt", "short", 0.8),
			result("c", "c.txt", "third", 0.7),
		},
	}}
	got, err := QuizContext(context.Background(), fs, long)
	if err != nil {
		t.Fatalf("QuizContext: %v", err)
	}
	want := "Related content from study materials:\n\n1. " + strings.Repeat("y", 300) + "...\n\n2. short...\n"
	if got != want {
		t.Fatalf("QuizContext() =\n%q\nwant\n%q", got, want)
	}
	if c := fs.calls[0]; c.topK != 3 || c.minSim != 0.3 || len(c.query) != 500 {
		t.Errorf("unexpected search call %+v", c)
	}
}

func TestQuizContext_NoMatches(t *testing.T) {
	got, err := QuizContext(context.Background(), &fakeSearcher{}, "anything")
	if err != nil || got != "" {
		t.Fatalf("QuizContext() = %q, %v; want empty", got, err)
	}
}

func TestRemediation(t *testing.T) {
	fs := &fakeSearcher{results: map[string][]domain.SearchResult{
		"What is osmosis?": {result("bio", "biology.txt", "Osmosis is diffusion of water.", 0.6)},
	}}
	got, err := Remediation(context.Background(), fs, "What is osmosis?")
	if err != nil {
		t.Fatalf("Remediation: %v", err)
	}
	if got != "From 'biology.txt': Osmosis is diffusion of water...." {
		t.Fatalf("Remediation() = %q", got)
	}
	if c := fs.calls[0]; c.topK != 2 || c.minSim != 0.4 {
		t.Errorf("unexpected search call %+v", c)
	}
}

func TestStudyMaterials_DeduplicatesAndCollectsErrors(t *testing.T) {
	boom := errors.New("embedder down")
	fs := &fakeSearcher{
		results: map[string][]domain.SearchResult{
			"cells":    {result("bio", "biology.txt", "Cells are the basic unit of life.", 0.8)},
			"mitosis":  {result("bio", "biology.txt", "Mitosis splits a cell.", 0.7)},
			"algebra":  {result("math", "math.md", "Algebra uses symbols.", 0.5)},
			"unmapped": nil,
		},
		fail: map[string]error{"broken": boom},
	}
	got, err := StudyMaterials(context.Background(), fs, []string{"cells", "broken", "mitosis", "unmapped", "algebra"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 materials, got %+v", got)
	}
	if got[0].ID != "bio" || got[0].Title != "biology.txt" {
		t.Errorf("unexpected first material %+v", got[0])
	}
	if got[0].Description != `Relevant content: "Cells are the basic unit of life...."` {
		t.Errorf("Description = %q", got[0].Description)
	}
	if got[1].ID != "math" {
		t.Errorf("unexpected second material %+v", got[1])
	}
	for _, c := range fs.calls {
		if c.topK != 1 || c.minSim != 0.3 {
			t.Errorf("unexpected search call %+v", c)
		}
	}
}

func TestTopicMaterials(t *testing.T) {
	fs := &fakeSearcher{results: map[string][]domain.SearchResult{
		"energy": {
			result("phys", "physics.txt", "Energy is conserved.", 0.7),
			result("phys", "physics.txt", "Kinetic energy depends on speed.", 0.6),
			result("chem", "chemistry.txt", "Reactions release energy.", 0.4),
		},
	}}
	got, err := TopicMaterials(context.Background(), fs, []string{"energy", " energy ", "", "gravity"})
	if err != nil {
		t.Fatalf("TopicMaterials: %v", err)
	}
	if len(fs.calls) != 2 {
		t.Fatalf("expected 2 distinct topic searches, got %d", len(fs.calls))
	}
	if len(got) != 1 || got[0].Topic != "energy" || len(got[0].Materials) != 2 {
		t.Fatalf("unexpected topic materials %+v", got)
	}
	if m := got[0].Materials[0]; m.MaterialID != "phys" || m.Excerpt != "Energy is conserved...." || m.Similarity != 0.7 {
		t.Errorf("unexpected first match %+v", m)
	}
}

func TestRankMaterials(t *testing.T) {
	fs := &fakeSearcher{results: map[string][]domain.SearchResult{
		"t1": {result("a", "a.txt", "x", 0.3), result("b", "b.txt", "y", 0.5)},
		"t2": {result("a", "a.txt", "z", 0.4)},
		"t6": {result("c", "c.txt", "w", 0.9)},
	}}
	topics := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	got, err := RankMaterials(context.Background(), fs, topics)
	if err != nil {
		t.Fatalf("RankMaterials: %v", err)
	}
	if len(fs.calls) != 5 {
		t.Fatalf("expected 5 searches, got %d", len(fs.calls))
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected ranking %+v", got)
	}
	if got[0].Relevance < 0.69 || got[0].Relevance > 0.71 {
		t.Errorf("relevance of a = %v, want 0.7", got[0].Relevance)
	}
}
