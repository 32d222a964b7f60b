package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/reviewscan/internal/model"
)

// createTestRun creates a run with sample data for testing.
func createTestRun(t *testing.T) *model.Run {
	t.Helper()

	req, err := model.NewSearchRequest("pizza", "Austin, TX", 2)
	if err != nil {
		t.Fatalf("NewSearchRequest() error: %v", err)
	}
	run := model.NewRun(req, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	run.PagesFetched = 1
	run.PagesSkipped = 1
	run.Reviews = []model.ReviewRecord{
		{EntityName: "Tony's", Text: "Great crust!"},
		{EntityName: "Tony's", Text: "Too salty."},
		{EntityName: "Tony's", Text: `Bad, "cold" pizza`},
	}
	run.Sentiments = []model.SentimentRecord{
		model.NewSentimentRecord(run.Reviews[0], 3),
		model.NewSentimentRecord(run.Reviews[1], 0),
		model.NewSentimentRecord(run.Reviews[2], -4),
	}
	run.Emotions = []model.EmotionRecord{
		{Text: "Great crust!", EntityName: "Tony's", TopEmotions: []model.EmotionScore{{Tag: "positive", Weight: 2.0 / 3.0}}},
		{Text: "Too salty.", EntityName: "Tony's", TopEmotions: []model.EmotionScore{{Tag: "negative", Weight: 1}}},
		{Text: `Bad, "cold" pizza`, EntityName: "Tony's", TopEmotions: []model.EmotionScore{}},
	}
	return run
}

func TestSentimentCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and one row per record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSentimentCSVWriter(&buf).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "Review,Score,Sentiment,Restaurant\n" +
			"Great crust!,3.0,positive,Tony's\n" +
			"Too salty.,0.0,neutral,Tony's\n" +
			"\"Bad, \"\"cold\"\" pizza\",-4.0,negative,Tony's\n"
		if buf.String() != want {
			t.Errorf("output mismatch:\n%s\nexpected:\n%s", buf.String(), want)
		}
	})

	t.Run("empty run writes only the header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := &model.Run{}
		if _, err := NewSentimentCSVWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "Review,Score,Sentiment,Restaurant\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestFormatScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{-2, "-2.0"},
		{0, "0.0"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.in); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestEmotionTextWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewEmotionTextWriter(&buf).Write(createTestRun(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Restaurant: Tony's\nReview: Great crust!\nEmotions: positive (0.67)\n\n" +
		"Restaurant: Tony's\nReview: Too salty.\nEmotions: negative (1.00)\n\n" +
		"Restaurant: Tony's\nReview: Bad, \"cold\" pizza\nEmotions: none\n\n"
	if buf.String() != want {
		t.Errorf("output mismatch:\n%s\nexpected:\n%s", buf.String(), want)
	}
}

func TestFormatEmotions(t *testing.T) {
	t.Parallel()

	got := FormatEmotions([]model.EmotionScore{{Tag: "joy", Weight: 0.5}, {Tag: "positive", Weight: 0.5}})
	if got != "joy (0.50), positive (0.50)" {
		t.Errorf("FormatEmotions() = %q", got)
	}
	if got := FormatEmotions(nil); got != "none" {
		t.Errorf("FormatEmotions(nil) = %q, expected none", got)
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON with summaries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Version  string         `json:"version"`
			Labels   map[string]int `json:"labels"`
			Entities []EntityJSON   `json:"entities"`
			Run      struct {
				Query      string `json:"query"`
				Sentiments []struct {
					Review    string  `json:"review"`
					Score     float64 `json:"score"`
					Sentiment string  `json:"sentiment"`
				} `json:"sentiments"`
			} `json:"run"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("version = %q", decoded.Version)
		}
		if decoded.Labels["positive"] != 1 || decoded.Labels["neutral"] != 1 || decoded.Labels["negative"] != 1 {
			t.Errorf("labels = %v", decoded.Labels)
		}
		if len(decoded.Entities) != 1 || decoded.Entities[0].Name != "Tony's" || decoded.Entities[0].Reviews != 3 {
			t.Errorf("entities = %+v", decoded.Entities)
		}
		if decoded.Run.Query != "pizza" {
			t.Errorf("run.query = %q", decoded.Run.Query)
		}
		if len(decoded.Run.Sentiments) != 3 || decoded.Run.Sentiments[2].Sentiment != "negative" {
			t.Errorf("run.sentiments = %+v", decoded.Run.Sentiments)
		}
	})

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact JSON followed by one newline")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"labels\"") {
			t.Error("expected two-space indentation")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes all sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Review Scan Report",
			"## Sentiment Summary",
			"## Restaurants",
			"## Reviews",
			"```mermaid",
			"Sentiment Distribution",
			"Austin, TX",
			"Tony's",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty run has no chart", func(t *testing.T) {
		t.Parallel()

		req, _ := model.NewSearchRequest("pizza", "Austin, TX", 1)
		run := model.NewRun(req, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		run.PagesSkipped = 1

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, "```mermaid") {
			t.Error("did not expect a chart for an empty run")
		}
		if !strings.Contains(output, "No restaurants found.") {
			t.Error("expected empty restaurants note")
		}
		if !strings.Contains(output, "could not be fetched") {
			t.Error("expected warning about skipped pages")
		}
	})

	t.Run("pipes in cells are escaped", func(t *testing.T) {
		t.Parallel()

		req, _ := model.NewSearchRequest("pizza", "Austin, TX", 1)
		run := model.NewRun(req, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		review := model.NewReviewRecord("A|B", "good | bad\nreally")
		run.Reviews = []model.ReviewRecord{review}
		run.Sentiments = []model.SentimentRecord{model.NewSentimentRecord(review, 1)}
		run.Emotions = []model.EmotionRecord{{Text: review.Text, EntityName: review.EntityName, TopEmotions: []model.EmotionScore{}}}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var reviewRow string
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, "good") {
				reviewRow = line
			}
		}
		if !strings.Contains(reviewRow, `A\|B`) || !strings.Contains(reviewRow, `good \| bad really`) {
			t.Fatalf("unexpected review row: %q", reviewRow)
		}
		// Five columns need six separators.
		if got := strings.Count(strings.ReplaceAll(reviewRow, `\|`, ""), "|"); got != 6 {
			t.Errorf("review row has %d separators, want 6: %q", got, reviewRow)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"REVIEW SCAN SUMMARY", "1 fetched, 1 skipped of 2", "POSITIVE:", "Tony's: 3 review(s)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("verbose lists output files", func(t *testing.T) {
		t.Parallel()

		run := createTestRun(t)
		run.OutputFiles = []string{"out.csv"}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "  out.csv\n") {
			t.Error("expected output file listing")
		}
	})

	t.Run("empty sections hidden unless requested", func(t *testing.T) {
		t.Parallel()

		run := &model.Run{}
		var hidden, shown bytes.Buffer
		_, _ = NewSimpleWriter(&hidden).Write(run)
		_, _ = NewSimpleWriter(&shown, WithShowEmpty(true)).Write(run)
		if strings.Contains(hidden.String(), "RESTAURANTS") {
			t.Error("expected restaurants section to be hidden")
		}
		if !strings.Contains(shown.String(), "No restaurants found") {
			t.Error("expected restaurants section to be shown")
		}
	})
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write(*model.Run) (int, error) { return 0, errors.New("boom") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewSentimentCSVWriter(&a), NewEmotionTextWriter(&b))
	n, err := m.Write(createTestRun(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("n = %d, expected %d", n, a.Len()+b.Len())
	}

	var c bytes.Buffer
	m = NewMultiWriter(failingWriter{}, NewSentimentCSVWriter(&c))
	if _, err := m.Write(createTestRun(t)); err == nil {
		t.Error("expected error")
	}
	if c.Len() != 0 {
		t.Error("expected writers after a failure to be skipped")
	}
}

func TestSaveFile(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories and overwrites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0600); err != nil {
			t.Fatal(err)
		}

		factory := func(w io.Writer) Writer { return NewSentimentCSVWriter(w) }
		if err := SaveFile(path, factory, createTestRun(t)); err != nil {
			t.Fatalf("SaveFile() error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "stale") {
			t.Error("expected existing content to be replaced")
		}
		if !strings.HasPrefix(string(data), "Review,Score,Sentiment,Restaurant\n") {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("identical runs produce identical files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		factories := map[string]WriterFactory{
			"sentiment.csv": func(w io.Writer) Writer { return NewSentimentCSVWriter(w) },
			"emotions.txt":  func(w io.Writer) Writer { return NewEmotionTextWriter(w) },
			"summary.md":    func(w io.Writer) Writer { return NewMarkdownWriter(w) },
			"run.json":      func(w io.Writer) Writer { return NewJSONWriter(w, WithPrettyPrint()) },
		}
		for name, factory := range factories {
			path := filepath.Join(dir, name)
			if err := SaveFile(path, factory, createTestRun(t)); err != nil {
				t.Fatalf("first SaveFile(%s) error: %v", name, err)
			}
			first, _ := os.ReadFile(path)
			if err := SaveFile(path, factory, createTestRun(t)); err != nil {
				t.Fatalf("second SaveFile(%s) error: %v", name, err)
			}
			second, _ := os.ReadFile(path)
			if !bytes.Equal(first, second) {
				t.Errorf("%s differs between identical runs", name)
			}
		}
	})

	t.Run("unwritable path fails", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatal(err)
		}
		factory := func(w io.Writer) Writer { return NewSentimentCSVWriter(w) }
		if err := SaveFile(filepath.Join(blocker, "out.csv"), factory, createTestRun(t)); err == nil {
			t.Error("expected error when parent is a file")
		}
	})
}
