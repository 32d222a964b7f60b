package analysis

import (
	"errors"

	"github.com/nao1215/reviewscan/internal/lexicon"
	"github.com/nao1215/reviewscan/internal/model"
)

// Construction errors.
var (
	// ErrNilSentimentScorer is returned when no sentiment scorer is given.
	ErrNilSentimentScorer = errors.New("analyzer requires a sentiment scorer")

	// ErrNilEmotionScorer is returned when no emotion scorer is given.
	ErrNilEmotionScorer = errors.New("analyzer requires an emotion scorer")
)

// SentimentScorer returns a signed polarity score for a text.
// It must be total: empty text scores 0.
type SentimentScorer interface {
	Score(text string) float64
}

// SentimentFunc adapts a function to SentimentScorer.
type SentimentFunc func(text string) float64

// Score calls f(text).
func (f SentimentFunc) Score(text string) float64 { return f(text) }

// EmotionScorer returns the dominant emotion tags of a text.
// It must be total: empty text yields no tags.
type EmotionScorer interface {
	TopEmotions(text string) []model.EmotionScore
}

// EmotionFunc adapts a function to EmotionScorer.
type EmotionFunc func(text string) []model.EmotionScore

// TopEmotions calls f(text).
func (f EmotionFunc) TopEmotions(text string) []model.EmotionScore { return f(text) }

// Analyzer scores reviews. It holds no state beyond its scorers.
type Analyzer struct {
	sentiment SentimentScorer
	emotion   EmotionScorer
}

// New creates an Analyzer from two scorers.
func New(sentiment SentimentScorer, emotion EmotionScorer) (*Analyzer, error) {
	if sentiment == nil {
		return nil, ErrNilSentimentScorer
	}
	if emotion == nil {
		return nil, ErrNilEmotionScorer
	}
	return &Analyzer{sentiment: sentiment, emotion: emotion}, nil
}

// NewDefault creates an Analyzer backed by the embedded lexicons.
func NewDefault() (*Analyzer, error) {
	afinn, err := lexicon.NewAFINN()
	if err != nil {
		return nil, err
	}
	nrc, err := lexicon.NewNRC()
	if err != nil {
		return nil, err
	}
	return New(afinn, nrc)
}

// ScoreSentiment returns one SentimentRecord per review, in the same order.
func (a *Analyzer) ScoreSentiment(reviews []model.ReviewRecord) []model.SentimentRecord {
	out := make([]model.SentimentRecord, len(reviews))
	for i, r := range reviews {
		out[i] = model.NewSentimentRecord(r, a.sentiment.Score(r.Text))
	}
	return out
}

// ScoreEmotions returns one EmotionRecord per review, in the same order.
func (a *Analyzer) ScoreEmotions(reviews []model.ReviewRecord) []model.EmotionRecord {
	out := make([]model.EmotionRecord, len(reviews))
	for i, r := range reviews {
		top := a.emotion.TopEmotions(r.Text)
		if top == nil {
			top = []model.EmotionScore{}
		}
		out[i] = model.EmotionRecord{
			Text:        r.Text,
			TopEmotions: top,
			EntityName:  r.EntityName,
		}
	}
	return out
}
