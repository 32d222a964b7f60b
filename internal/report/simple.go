package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/reviewscan/internal/model"
)

// SimpleWriter outputs a short human-readable run summary.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors, so the output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no data are shown.
	showEmpty bool

	// verbose lists every output file written.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSentiment(&sb, run)
	w.writeEntities(&sb, run)
	w.writeFooter(&sb, run)

	return io.WriteString(w.output, sb.String())
}

// writeHeader writes the summary header with request information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        REVIEW SCAN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Query:          %s\n", run.Query)
	fmt.Fprintf(sb, "Location:       %s\n", run.Location)
	fmt.Fprintf(sb, "Pages:          %d fetched, %d skipped of %d\n",
		run.PagesFetched, run.PagesSkipped, run.PageCount)
	fmt.Fprintf(sb, "Reviews:        %d\n", len(run.Reviews))
	sb.WriteString("\n")
}

// writeSentiment writes the label distribution.
func (w *SimpleWriter) writeSentiment(sb *strings.Builder, run *model.Run) {
	if len(run.Sentiments) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SENTIMENT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := run.LabelCounts()
	for _, l := range model.Labels() {
		fmt.Fprintf(sb, "  [%s] %-9s %d\n", labelIndicator(l), strings.ToUpper(l.String())+":", counts[l])
	}
	sb.WriteString("\n")
}

// writeEntities writes one line per entity.
func (w *SimpleWriter) writeEntities(sb *strings.Builder, run *model.Run) {
	summaries := run.EntitySummaries()
	if len(summaries) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESTAURANTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summaries) == 0 {
		sb.WriteString("  No restaurants found\n\n")
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(sb, "  * %s: %d review(s), mean score %.2f", s.EntityName, s.Reviews, s.MeanScore)
		if s.TopEmotion != "" {
			fmt.Fprintf(sb, ", mostly %s", s.TopEmotion)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// labelIndicator returns a visual indicator for a sentiment label.
func labelIndicator(l model.Label) string {
	switch l {
	case model.LabelPositive:
		return "+"
	case model.LabelNegative:
		return "-"
	default:
		return "="
	}
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, run *model.Run) {
	if w.verbose && len(run.OutputFiles) > 0 {
		sb.WriteString("Output files:\n")
		for _, f := range run.OutputFiles {
			fmt.Fprintf(sb, "  %s\n", f)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
