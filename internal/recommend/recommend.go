// Package recommend turns retrieval results into study aids: context for quiz
// generation, explanations for wrong answers and material suggestions for
// weak topics.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"edurag/internal/domain"
	"edurag/internal/textutil"
)

// Searcher is the part of the retrieval engine the recommender needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.SearchResult, error)
}

const (
	quizQueryChars   = 500
	quizTopK         = 3
	quizMinSim       = 0.3
	quizMaxResults   = 2
	quizExcerptChars = 300

	remediationTopK         = 2
	remediationMinSim       = 0.4
	remediationExcerptChars = 200

	studyTopK         = 1
	studyMinSim       = 0.3
	studyExcerptChars = 100

	topicLimit        = 10
	topicTopK         = 3
	topicMinSim       = 0.3
	topicExcerptChars = 200

	rankTopicLimit = 5
	rankTopK       = 3
	rankMinSim     = 0.25
)

// Material is a study material suggested for a weak topic.
type Material struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Match is one material excerpt relevant to a topic.
type Match struct {
	MaterialID   string  `json:"materialId"`
	MaterialName string  `json:"materialName"`
	Excerpt      string  `json:"relevantContent"`
	Similarity   float64 `json:"similarity"`
}

// TopicMatches groups the materials found for one topic.
type TopicMatches struct {
	Topic     string  `json:"topic"`
	Materials []Match `json:"materials"`
}

// RankedMaterial is a document with its relevance summed over weak topics.
type RankedMaterial struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Relevance float64 `json:"relevanceScore"`
}

// QuizContext finds material related to the opening of text and renders it
// as a context block for quiz generation. It returns "" when nothing matches.
func QuizContext(ctx context.Context, s Searcher, text string) (string, error) {
	res, err := s.Search(ctx, textutil.Truncate(text, quizQueryChars), quizTopK, quizMinSim)
	if err != nil {
		return "", fmt.Errorf("quiz context: %w", err)
	}
	if len(res) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Related content from study materials:\n")
	for i, r := range res[:min(len(res), quizMaxResults)] {
		fmt.Fprintf(&b, "\n%d. %s...\n", i+1, textutil.Truncate(r.Content, quizExcerptChars))
	}
	return b.String(), nil
}

// Remediation returns a pointer to study material explaining the subject of
// a wrongly answered question, or "" when nothing is close enough.
func Remediation(ctx context.Context, s Searcher, question string) (string, error) {
	res, err := s.Search(ctx, question, remediationTopK, remediationMinSim)
	if err != nil {
		return "", fmt.Errorf("remediation: %w", err)
	}
	if len(res) == 0 {
		return "", nil
	}
	r := res[0]
	return fmt.Sprintf("From '%s': %s...", r.Metadata.DocName, textutil.Truncate(r.Content, remediationExcerptChars)), nil
}

// StudyMaterials suggests the best matching document for each weak topic,
// at most once per document. A failing topic does not stop the others; the
// returned error joins every per-topic failure.
func StudyMaterials(ctx context.Context, s Searcher, topics []string) ([]Material, error) {
	var (
		out  []Material
		errs []error
		seen = make(map[string]struct{})
	)
	for _, topic := range topics {
		res, err := s.Search(ctx, topic, studyTopK, studyMinSim)
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %q: %w", topic, err))
			continue
		}
		if len(res) == 0 {
			continue
		}
		r := res[0]
		if _, ok := seen[r.Metadata.DocID]; ok {
			continue
		}
		seen[r.Metadata.DocID] = struct{}{}
		out = append(out, Material{
			ID:          r.Metadata.DocID,
			Title:       r.Metadata.DocName,
			Description: fmt.Sprintf("Relevant content: \"%s...\"", textutil.Truncate(r.Content, studyExcerptChars)),
		})
	}
	return out, errors.Join(errs...)
}

// TopicMaterials lists, for each distinct topic, the documents holding
// relevant excerpts. Topics without matches are left out.
func TopicMaterials(ctx context.Context, s Searcher, topics []string) ([]TopicMatches, error) {
	var (
		out  []TopicMatches
		errs []error
	)
	for _, topic := range uniqueTopics(topics, topicLimit) {
		res, err := s.Search(ctx, topic, topicTopK, topicMinSim)
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %q: %w", topic, err))
			continue
		}
		tm := TopicMatches{Topic: topic}
		seen := make(map[string]struct{})
		for _, r := range res {
			if _, ok := seen[r.Metadata.DocID]; ok {
				continue
			}
			seen[r.Metadata.DocID] = struct{}{}
			tm.Materials = append(tm.Materials, Match{
				MaterialID:   r.Metadata.DocID,
				MaterialName: r.Metadata.DocName,
				Excerpt:      textutil.Truncate(r.Content, topicExcerptChars) + "...",
				Similarity:   r.Similarity,
			})
		}
		if len(tm.Materials) > 0 {
			out = append(out, tm)
		}
	}
	return out, errors.Join(errs...)
}

// RankMaterials orders documents by their similarity summed over the first
// weak topics.
func RankMaterials(ctx context.Context, s Searcher, topics []string) ([]RankedMaterial, error) {
	var errs []error
	byID := make(map[string]*RankedMaterial)
	var order []string
	for _, topic := range topics[:min(len(topics), rankTopicLimit)] {
		res, err := s.Search(ctx, topic, rankTopK, rankMinSim)
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %q: %w", topic, err))
			continue
		}
		for _, r := range res {
			m, ok := byID[r.Metadata.DocID]
			if !ok {
				m = &RankedMaterial{ID: r.Metadata.DocID, Name: r.Metadata.DocName}
				byID[m.ID] = m
				order = append(order, m.ID)
			}
			m.Relevance += r.Similarity
		}
	}
	out := make([]RankedMaterial, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Relevance > out[j].Relevance })
	return out, errors.Join(errs...)
}

func uniqueTopics(topics []string, limit int) []string {
	seen := make(map[string]struct{}, len(topics))
	var out []string
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}
