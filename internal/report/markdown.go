package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultMarkdownFile is the default path of the Markdown summary.
const DefaultMarkdownFile = "reviewscan_summary.md"

// maxReviewColumn bounds review text shown in Markdown tables.
const maxReviewColumn = 80

// MarkdownWriter outputs a run summary in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives type-safe tables, alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSentiment(md, run)
	w.writeEntities(md, run)
	w.writeReviews(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with request information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Review Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", run.Query},
			{"Location", run.Location},
			{"Scan Date", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Requested", strconv.Itoa(run.PageCount)},
			{"Pages Fetched", strconv.Itoa(run.PagesFetched)},
			{"Pages Skipped", strconv.Itoa(run.PagesSkipped)},
			{"Reviews", strconv.Itoa(len(run.Reviews))},
		},
	})
	md.PlainText("")
}

// writeSentiment writes the label distribution, a pie chart and an alert.
func (w *MarkdownWriter) writeSentiment(md *markdown.Markdown, run *model.Run) {
	md.H2("Sentiment Summary")
	md.PlainText("")

	counts := run.LabelCounts()
	rows := make([][]string, 0, len(model.Labels())+1)
	for _, l := range model.Labels() {
		rows = append(rows, []string{labelIcon(l) + " " + l.String(), strconv.Itoa(counts[l])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(run.Sentiments)) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Sentiment", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(run.Sentiments) > 0 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, run, counts)
}

// writePieChart writes a mermaid pie chart for the label distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Label]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Sentiment Distribution"),
		piechart.WithShowData(true),
	)
	for _, l := range model.Labels() {
		if counts[l] > 0 {
			chart.LabelAndIntValue(l.String(), uint64(counts[l]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the overall result.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run, counts map[model.Label]int) {
	switch {
	case len(run.Reviews) == 0 && run.PagesSkipped > 0:
		md.Warningf("No reviews collected. %d page(s) could not be fetched.", run.PagesSkipped)
	case len(run.Reviews) == 0:
		md.Note("No reviews found for this search.")
	case counts[model.LabelNegative] > counts[model.LabelPositive]:
		md.Importantf("Negative reviews outnumber positive ones (%d vs %d).",
			counts[model.LabelNegative], counts[model.LabelPositive])
	default:
		md.Tip("Reviews are mostly positive or neutral.")
	}
	md.PlainText("")
}

// writeEntities writes one row per entity.
func (w *MarkdownWriter) writeEntities(md *markdown.Markdown, run *model.Run) {
	md.H2("Restaurants")
	md.PlainText("")

	summaries := run.EntitySummaries()
	if len(summaries) == 0 {
		md.PlainText("No restaurants found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		top := s.TopEmotion
		if top == "" {
			top = "-"
		}
		rows[i] = []string{
			escapeCell(s.EntityName),
			strconv.Itoa(s.Reviews),
			strconv.FormatFloat(s.MeanScore, 'f', 2, 64),
			strconv.Itoa(s.Positive),
			strconv.Itoa(s.Neutral),
			strconv.Itoa(s.Negative),
			top,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Restaurant", "Reviews", "Mean Score", "Positive", "Neutral", "Negative", "Top Emotion"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeReviews writes every scored review, truncated for readability.
func (w *MarkdownWriter) writeReviews(md *markdown.Markdown, run *model.Run) {
	if len(run.Sentiments) == 0 {
		return
	}
	md.H2("Reviews")
	md.PlainText("")

	rows := make([][]string, len(run.Sentiments))
	for i, s := range run.Sentiments {
		emotions := "none"
		if i < len(run.Emotions) {
			emotions = FormatEmotions(run.Emotions[i].TopEmotions)
		}
		rows[i] = []string{
			escapeCell(s.EntityName),
			escapeCell(truncateString(s.Text, maxReviewColumn)),
			FormatScore(s.Score),
			s.Label.String(),
			emotions,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Restaurant", "Review", "Score", "Sentiment", "Emotions"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [reviewscan](https://github.com/nao1215/reviewscan)*")
}

// labelIcon returns a marker for a sentiment label.
func labelIcon(l model.Label) string {
	switch l {
	case model.LabelPositive:
		return "🟢"
	case model.LabelNegative:
		return "🔴"
	default:
		return "⚪"
	}
}

// cellEscaper keeps scraped text inside a single table cell.
var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// escapeCell escapes pipes and flattens line breaks in a table cell.
func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
