package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultEmotionFile is the default path of the emotion text file.
const DefaultEmotionFile = "emotions_analysis.txt"

// EmotionTextWriter writes one block per emotion record:
//
//	Restaurant: <name>
//	Review: <text>
//	Emotions: <tag> (<weight>), ...
//
// followed by a blank line.
type EmotionTextWriter struct {
	baseWriter
}

// NewEmotionTextWriter creates an EmotionTextWriter.
func NewEmotionTextWriter(output io.Writer) *EmotionTextWriter {
	return &EmotionTextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs run.Emotions as text blocks.
func (w *EmotionTextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder
	for _, e := range run.Emotions {
		fmt.Fprintf(&sb, "Restaurant: %s\nReview: %s\nEmotions: %s\n\n",
			e.EntityName, e.Text, FormatEmotions(e.TopEmotions))
	}
	return io.WriteString(w.output, sb.String())
}

// FormatEmotions renders tags in order as "joy (0.50), positive (0.50)",
// or "none" when there are no tags.
func FormatEmotions(scores []model.EmotionScore) string {
	if len(scores) == 0 {
		return "none"
	}
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%s (%.2f)", s.Tag, s.Weight)
	}
	return strings.Join(parts, ", ")
}
