package model

import (
	"sort"
	"time"
)

// Run is the accumulated state of a single scrape-and-analyze execution.
// Pipeline steps receive a *Run and fill in their part of it.
//
// Design decision: We use one struct for the whole run, rather than passing
// separate slices between steps, so that every step has the same signature
// and the finished run can be serialized or stored as one unit.
type Run struct {
	// Request is the search that produced this run.
	Request SearchRequest `json:"-"`

	// Query, Location and PageCount mirror Request for serialization.
	Query     string `json:"query"`
	Location  string `json:"location"`
	PageCount int    `json:"page_count"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step completed.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// PagesFetched is the number of pages that returned content.
	PagesFetched int `json:"pages_fetched"`

	// PagesSkipped is the number of pages abandoned after exhausting retries.
	PagesSkipped int `json:"pages_skipped"`

	// Reviews holds the scraped reviews in page-then-document order.
	Reviews []ReviewRecord `json:"reviews"`

	// Sentiments holds one record per review, same order as Reviews.
	Sentiments []SentimentRecord `json:"sentiments,omitempty"`

	// Emotions holds one record per review, same order as Reviews.
	Emotions []EmotionRecord `json:"emotions,omitempty"`

	// PerformedSteps lists pipeline steps that completed, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// OutputFiles lists files written during the run.
	OutputFiles []string `json:"output_files,omitempty"`
}

// NewRun creates a Run for the given request.
func NewRun(req SearchRequest, startedAt time.Time) *Run {
	return &Run{
		Request:   req,
		Query:     req.Query(),
		Location:  req.Location(),
		PageCount: req.PageCount(),
		StartedAt: startedAt,
		Reviews:   make([]ReviewRecord, 0),
	}
}

// LabelCounts returns the number of sentiment records per label.
// Every label is present in the map, with zero if unused.
func (r *Run) LabelCounts() map[Label]int {
	counts := map[Label]int{
		LabelPositive: 0,
		LabelNeutral:  0,
		LabelNegative: 0,
	}
	for _, s := range r.Sentiments {
		counts[s.Label]++
	}
	return counts
}

// EntitySummary aggregates sentiment results for one entity.
type EntitySummary struct {
	EntityName string
	Reviews    int
	MeanScore  float64
	Positive   int
	Neutral    int
	Negative   int
	TopEmotion string
}

// EntitySummaries groups sentiment and emotion results by entity name.
// The result is sorted by entity name so output is deterministic.
func (r *Run) EntitySummaries() []EntitySummary {
	index := make(map[string]*EntitySummary)
	emotionCounts := make(map[string]map[string]int)
	var names []string

	for _, s := range r.Sentiments {
		sum, ok := index[s.EntityName]
		if !ok {
			sum = &EntitySummary{EntityName: s.EntityName}
			index[s.EntityName] = sum
			emotionCounts[s.EntityName] = make(map[string]int)
			names = append(names, s.EntityName)
		}
		sum.Reviews++
		sum.MeanScore += s.Score
		switch s.Label {
		case LabelPositive:
			sum.Positive++
		case LabelNegative:
			sum.Negative++
		default:
			sum.Neutral++
		}
	}

	for _, e := range r.Emotions {
		counts, ok := emotionCounts[e.EntityName]
		if !ok {
			continue
		}
		for _, tag := range e.TopEmotions {
			counts[tag.Tag]++
		}
	}

	sort.Strings(names)
	out := make([]EntitySummary, 0, len(names))
	for _, name := range names {
		sum := index[name]
		if sum.Reviews > 0 {
			sum.MeanScore /= float64(sum.Reviews)
		}
		sum.TopEmotion = topTag(emotionCounts[name])
		out = append(out, *sum)
	}
	return out
}

// topTag returns the most frequent tag, breaking ties alphabetically.
func topTag(counts map[string]int) string {
	best := ""
	bestCount := 0
	for tag, n := range counts {
		if n > bestCount || (n == bestCount && tag < best) {
			best = tag
			bestCount = n
		}
	}
	return best
}
