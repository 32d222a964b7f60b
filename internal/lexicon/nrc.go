package lexicon

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

//go:embed data/nrc.tsv
var nrcData []byte

// Emotion tags used by the NRC lexicon. Positive and negative are
// sentiment tags that the lexicon reports alongside the eight emotions.
var Emotions = []string{
	"anger", "anticipation", "disgust", "fear", "joy",
	"negative", "positive", "sadness", "surprise", "trust",
}

// NRC tags text with the emotions associated with its words.
type NRC struct {
	words map[string][]string
}

// NewNRC loads the embedded lexicon.
func NewNRC() (*NRC, error) {
	return LoadNRC(bytes.NewReader(nrcData))
}

// LoadNRC reads a lexicon of "<word>\t<tag>,<tag>,..." lines.
// Every tag must be one of Emotions.
func LoadNRC(r io.Reader) (*NRC, error) {
	n := &NRC{words: make(map[string][]string)}
	err := readEntries(r, func(term, value string) error {
		var tags []string
		for _, tag := range strings.Split(value, ",") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if !slices.Contains(Emotions, tag) {
				return fmt.Errorf("unknown emotion %q for %q", tag, term)
			}
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
		n.words[term] = append(n.words[term], tags...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load NRC lexicon: %w", err)
	}
	return n, nil
}

// Len returns the number of words in the lexicon.
func (n *NRC) Len() int {
	return len(n.words)
}

// Frequencies returns each tag's share of all tag hits in text.
// The shares sum to 1. Text without hits yields an empty map.
func (n *NRC) Frequencies(text string) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, tok := range Tokenize(text) {
		for _, tag := range n.words[tok] {
			counts[tag]++
			total++
		}
	}
	freq := make(map[string]float64, len(counts))
	for tag, c := range counts {
		freq[tag] = float64(c) / float64(total)
	}
	return freq
}

// TopEmotions returns every tag sharing the highest frequency, ordered by
// tag name. Text without hits yields an empty slice.
func (n *NRC) TopEmotions(text string) []model.EmotionScore {
	freq := n.Frequencies(text)
	var top float64
	for _, f := range freq {
		top = max(top, f)
	}
	scores := make([]model.EmotionScore, 0)
	for tag, f := range freq {
		if f == top {
			scores = append(scores, model.EmotionScore{Tag: tag, Weight: f})
		}
	}
	slices.SortFunc(scores, func(a, b model.EmotionScore) int {
		return strings.Compare(a.Tag, b.Tag)
	})
	return scores
}
