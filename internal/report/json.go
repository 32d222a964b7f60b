package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/reviewscan/internal/model"
)

// DefaultJSONFile is the default path of the JSON dump.
const DefaultJSONFile = "reviewscan_results.json"

// JSONWriter outputs runs in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run wrapped in a JSONReport.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport is the run together with derived summaries.
//
// Design decision: We wrap the run rather than adding summary fields to
// model.Run, so the run stays the single source of truth and summaries are
// always derived from it.
type JSONReport struct {
	// Version is the reviewscan version that produced the run.
	Version string `json:"version,omitempty"`

	// Labels counts sentiment records per label.
	Labels map[model.Label]int `json:"labels"`

	// Entities summarizes results per entity, sorted by name.
	Entities []EntityJSON `json:"entities"`

	// Run is the full run.
	Run *model.Run `json:"run"`
}

// EntityJSON is the JSON form of model.EntitySummary.
type EntityJSON struct {
	Name       string  `json:"name"`
	Reviews    int     `json:"reviews"`
	MeanScore  float64 `json:"mean_score"`
	Positive   int     `json:"positive"`
	Neutral    int     `json:"neutral"`
	Negative   int     `json:"negative"`
	TopEmotion string  `json:"top_emotion,omitempty"`
}

// NewJSONReport builds the JSON view of a run.
func NewJSONReport(run *model.Run, version string) *JSONReport {
	summaries := run.EntitySummaries()
	entities := make([]EntityJSON, len(summaries))
	for i, s := range summaries {
		entities[i] = EntityJSON{
			Name:       s.EntityName,
			Reviews:    s.Reviews,
			MeanScore:  s.MeanScore,
			Positive:   s.Positive,
			Neutral:    s.Neutral,
			Negative:   s.Negative,
			TopEmotion: s.TopEmotion,
		}
	}
	return &JSONReport{
		Version:  version,
		Labels:   run.LabelCounts(),
		Entities: entities,
		Run:      run,
	}
}
