package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultSentimentFile is the default path of the sentiment table.
const DefaultSentimentFile = "sentiment_analysis_results.csv"

// sentimentHeader is the header row of the sentiment table.
var sentimentHeader = []string{"Review", "Score", "Sentiment", "Restaurant"}

// SentimentCSVWriter writes one row per sentiment record.
//
// Columns are Review, Score, Sentiment and Restaurant. Fields are quoted
// only when they contain a comma, quote or line break.
type SentimentCSVWriter struct {
	baseWriter
}

// NewSentimentCSVWriter creates a SentimentCSVWriter.
func NewSentimentCSVWriter(output io.Writer) *SentimentCSVWriter {
	return &SentimentCSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs run.Sentiments as CSV.
func (w *SentimentCSVWriter) Write(run *model.Run) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(sentimentHeader); err != nil {
		return 0, err
	}
	for _, s := range run.Sentiments {
		row := []string{s.Text, FormatScore(s.Score), s.Label.String(), s.EntityName}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}

// FormatScore formats a polarity score with at least one decimal place,
// for example "3.0", "-2.0" or "1.5".
func FormatScore(score float64) string {
	if score == 0 {
		score = 0 // normalizes -0
	}
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
