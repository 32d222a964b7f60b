package model

import (
	"fmt"
	"strings"
)

// Label is the three-way polarity class of a review.
//
// Design decision: We use iota-based constants, as with other enums in this
// module, and provide String/MarshalText so that labels appear as words in
// CSV, JSON and the database rather than as integers.
type Label int

const (
	// LabelNeutral is assigned when the polarity score is exactly zero.
	LabelNeutral Label = iota

	// LabelPositive is assigned when the polarity score is greater than zero.
	LabelPositive

	// LabelNegative is assigned when the polarity score is less than zero.
	LabelNegative
)

// LabelFor derives the label from a polarity score.
// Zero is neutral, never positive.
func LabelFor(score float64) Label {
	switch {
	case score > 0:
		return LabelPositive
	case score < 0:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// String returns the lowercase label name used in output files.
func (l Label) String() string {
	switch l {
	case LabelPositive:
		return "positive"
	case LabelNegative:
		return "negative"
	case LabelNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel converts a label name back into a Label. Matching is case-insensitive.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return LabelPositive, nil
	case "negative":
		return LabelNegative, nil
	case "neutral":
		return LabelNeutral, nil
	default:
		return LabelNeutral, fmt.Errorf("unknown sentiment label %q", s)
	}
}

// Labels returns all labels in display order.
func Labels() []Label {
	return []Label{LabelPositive, LabelNeutral, LabelNegative}
}

// SentimentRecord is the polarity analysis of one review.
type SentimentRecord struct {
	// Text is the review text that was scored.
	Text string `json:"review"`

	// Score is the signed polarity score from the sentiment lexicon.
	Score float64 `json:"score"`

	// Label is derived from Score with LabelFor.
	Label Label `json:"sentiment"`

	// EntityName is the business the review belongs to.
	EntityName string `json:"restaurant"`
}

// NewSentimentRecord builds a SentimentRecord for a review, deriving the label
// from the score.
func NewSentimentRecord(review ReviewRecord, score float64) SentimentRecord {
	return SentimentRecord{
		Text:       review.Text,
		Score:      score,
		Label:      LabelFor(score),
		EntityName: review.EntityName,
	}
}

// EmotionScore is one emotion tag and its relative weight within a review.
type EmotionScore struct {
	// Tag is the emotion name (for example "joy" or "anger").
	Tag string `json:"tag"`

	// Weight is the tag's share of all emotion hits in the review, in [0, 1].
	Weight float64 `json:"weight"`
}

// EmotionRecord is the emotion analysis of one review.
type EmotionRecord struct {
	// Text is the review text that was analyzed.
	Text string `json:"review"`

	// TopEmotions lists the dominant emotions in a stable order.
	// Empty when the review contains no emotion-bearing words.
	TopEmotions []EmotionScore `json:"emotions"`

	// EntityName is the business the review belongs to.
	EntityName string `json:"restaurant"`
}
