package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/scraper"
)

// stubScraper returns fixed records.
type stubScraper struct {
	records []model.ReviewRecord
	stats   scraper.Stats
	onCall  func()
}

func (s *stubScraper) Scrape(_ context.Context, _ model.SearchRequest) ([]model.ReviewRecord, scraper.Stats) {
	if s.onCall != nil {
		s.onCall()
	}
	return s.records, s.stats
}

// stubAnalyzer scores "Great" reviews 3 and everything else 0.
type stubAnalyzer struct{}

func (stubAnalyzer) ScoreSentiment(reviews []model.ReviewRecord) []model.SentimentRecord {
	out := make([]model.SentimentRecord, 0, len(reviews))
	for _, r := range reviews {
		score := 0.0
		if strings.Contains(r.Text, "Great") {
			score = 3
		}
		out = append(out, model.NewSentimentRecord(r, score))
	}
	return out
}

func (stubAnalyzer) ScoreEmotions(reviews []model.ReviewRecord) []model.EmotionRecord {
	out := make([]model.EmotionRecord, 0, len(reviews))
	for _, r := range reviews {
		rec := model.EmotionRecord{Text: r.Text, EntityName: r.EntityName, TopEmotions: []model.EmotionScore{}}
		if strings.Contains(r.Text, "Great") {
			rec.TopEmotions = []model.EmotionScore{{Tag: "positive", Weight: 2.0 / 3.0}}
		}
		out = append(out, rec)
	}
	return out
}

// stubStore records saved runs.
type stubStore struct {
	saved []*model.Run
	err   error
}

func (s *stubStore) SaveRun(_ context.Context, run *model.Run) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, run)
	return int64(len(s.saved)), nil
}

func tonysReviews() []model.ReviewRecord {
	return []model.ReviewRecord{
		model.NewReviewRecord("Tony's", "Great crust!"),
		model.NewReviewRecord("Tony's", "Too salty."),
	}
}

func TestScrapeStep(t *testing.T) {
	t.Parallel()

	t.Run("fills reviews and page counts", func(t *testing.T) {
		t.Parallel()

		finished := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
		sc := &stubScraper{records: tonysReviews(), stats: scraper.Stats{PagesFetched: 2, PagesSkipped: 1, Reviews: 2}}
		step := NewScrapeStep(sc, WithClock(func() time.Time { return finished }))
		run := newTestRun(t)

		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if diff := cmp.Diff(tonysReviews(), run.Reviews); diff != "" {
			t.Errorf("Reviews mismatch (-want +got):\n%s", diff)
		}
		if run.PagesFetched != 2 || run.PagesSkipped != 1 {
			t.Errorf("pages = %d/%d, want 2/1", run.PagesFetched, run.PagesSkipped)
		}
		if !run.FinishedAt.Equal(finished) {
			t.Errorf("FinishedAt = %v, want %v", run.FinishedAt, finished)
		}
		if step.Name() != "scrape" {
			t.Errorf("Name() = %q", step.Name())
		}
	})

	t.Run("cancellation keeps partial records and reports the error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		sc := &stubScraper{records: tonysReviews()[:1], onCall: cancel}
		run := newTestRun(t)

		err := NewScrapeStep(sc).Do(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Do() error = %v, want context.Canceled", err)
		}
		if len(run.Reviews) != 1 {
			t.Errorf("expected partial records to be kept, got %d", len(run.Reviews))
		}
	})

	t.Run("nil scraper", func(t *testing.T) {
		t.Parallel()
		if err := NewScrapeStep(nil).Do(context.Background(), newTestRun(t)); !errors.Is(err, ErrNilDependency) {
			t.Errorf("Do() error = %v, want ErrNilDependency", err)
		}
	})
}

func TestAnalysisSteps(t *testing.T) {
	t.Parallel()

	run := newTestRun(t)
	run.Reviews = tonysReviews()

	if err := NewSentimentStep(stubAnalyzer{}).Do(context.Background(), run); err != nil {
		t.Fatalf("sentiment Do() error = %v", err)
	}
	if err := NewEmotionStep(stubAnalyzer{}).Do(context.Background(), run); err != nil {
		t.Fatalf("emotion Do() error = %v", err)
	}

	if len(run.Sentiments) != 2 || run.Sentiments[0].Label != model.LabelPositive || run.Sentiments[1].Label != model.LabelNeutral {
		t.Errorf("unexpected sentiments: %+v", run.Sentiments)
	}
	if len(run.Emotions) != 2 || len(run.Emotions[1].TopEmotions) != 0 {
		t.Errorf("unexpected emotions: %+v", run.Emotions)
	}

	if err := NewSentimentStep(nil).Do(context.Background(), run); !errors.Is(err, ErrNilDependency) {
		t.Errorf("expected ErrNilDependency, got %v", err)
	}
	if err := NewEmotionStep(nil).Do(context.Background(), run); !errors.Is(err, ErrNilDependency) {
		t.Errorf("expected ErrNilDependency, got %v", err)
	}
}

// analyzedRun returns a run that has been through both analysis steps.
func analyzedRun(t *testing.T) *model.Run {
	t.Helper()
	run := newTestRun(t)
	run.Reviews = tonysReviews()
	run.Sentiments = stubAnalyzer{}.ScoreSentiment(run.Reviews)
	run.Emotions = stubAnalyzer{}.ScoreEmotions(run.Reviews)
	return run
}

func TestFileSteps(t *testing.T) {
	t.Parallel()

	t.Run("sentiment CSV", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sentiment.csv")
		var progress bytes.Buffer
		run := analyzedRun(t)

		if err := NewSentimentCSVStep(path, WithProgress(&progress)).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		want := "Review,Score,Sentiment,Restaurant\n" +
			"Great crust!,3.0,positive,Tony's\n" +
			"Too salty.,0.0,neutral,Tony's\n"
		if diff := cmp.Diff(want, string(got)); diff != "" {
			t.Errorf("CSV mismatch (-want +got):\n%s", diff)
		}
		if progress.String() != "Sentiment analysis results saved to "+path+"\n" {
			t.Errorf("unexpected progress: %q", progress.String())
		}
		if diff := cmp.Diff([]string{path}, run.OutputFiles); diff != "" {
			t.Errorf("OutputFiles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("emotion report", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "emotions.txt")
		var progress bytes.Buffer

		if err := NewEmotionTextStep(path, WithProgress(&progress)).Do(context.Background(), analyzedRun(t)); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		want := "Restaurant: Tony's\nReview: Great crust!\nEmotions: positive (0.67)\n\n" +
			"Restaurant: Tony's\nReview: Too salty.\nEmotions: none\n\n"
		if diff := cmp.Diff(want, string(got)); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}
		if progress.String() != "Emotion analysis results saved to "+path+"\n" {
			t.Errorf("unexpected progress: %q", progress.String())
		}
	})

	t.Run("markdown and json", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		run := analyzedRun(t)
		steps := []*FileStep{
			NewMarkdownStep(filepath.Join(dir, "summary.md")),
			NewJSONStep(filepath.Join(dir, "run.json"), "v1.2.3"),
		}
		for _, s := range steps {
			if err := s.Do(context.Background(), run); err != nil {
				t.Fatalf("%s Do() error = %v", s.Name(), err)
			}
			info, err := os.Stat(s.Path())
			if err != nil || info.Size() == 0 {
				t.Errorf("%s: expected non-empty file, err=%v", s.Name(), err)
			}
		}
		data, err := os.ReadFile(filepath.Join(dir, "run.json"))
		if err != nil {
			t.Fatalf("failed to read json: %v", err)
		}
		if !strings.Contains(string(data), "v1.2.3") {
			t.Error("expected version in JSON output")
		}
	})

	t.Run("write failure is wrapped with the sink kind", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		var progress bytes.Buffer
		run := analyzedRun(t)

		err := NewSentimentCSVStep(filepath.Join(blocker, "out.csv"), WithProgress(&progress)).Do(context.Background(), run)
		if err == nil {
			t.Fatal("expected error when parent is a file")
		}
		if !strings.HasPrefix(err.Error(), "write sentiment analysis: ") {
			t.Errorf("unexpected error: %v", err)
		}
		if progress.Len() != 0 {
			t.Errorf("no confirmation expected on failure, got %q", progress.String())
		}
		if len(run.OutputFiles) != 0 {
			t.Error("failed file should not be recorded")
		}
	})
}

func TestStoreStep(t *testing.T) {
	t.Parallel()

	t.Run("saves the run", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{}
		var progress bytes.Buffer
		run := analyzedRun(t)

		if err := NewStoreStep(store, WithStoreProgress(&progress)).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(store.saved) != 1 || store.saved[0] != run {
			t.Error("expected the run to be saved once")
		}
		if progress.String() != "Run saved to history as #1\n" {
			t.Errorf("unexpected progress: %q", progress.String())
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		errLocked := errors.New("database is locked")
		err := NewStoreStep(&stubStore{err: errLocked}).Do(context.Background(), analyzedRun(t))
		if !errors.Is(err, errLocked) {
			t.Errorf("Do() error = %v, want %v", err, errLocked)
		}
	})

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		if err := NewStoreStep(nil).Do(context.Background(), analyzedRun(t)); !errors.Is(err, ErrNilDependency) {
			t.Errorf("Do() error = %v, want ErrNilDependency", err)
		}
	})
}

func TestSummaryStep(t *testing.T) {
	t.Parallel()

	t.Run("prints to the terminal", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := NewSummaryStep(&out).Do(context.Background(), analyzedRun(t)); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if !strings.Contains(out.String(), "REVIEW SCAN SUMMARY") {
			t.Errorf("unexpected summary: %s", out.String())
		}
	})

	t.Run("also saves the summary file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "summary.txt")
		run := analyzedRun(t)

		var out bytes.Buffer
		step := NewSummaryStep(&out, WithSummaryFile(path), WithSummaryVerbose(true))
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read summary file: %v", err)
		}
		if diff := cmp.Diff(out.String(), string(data)); diff != "" {
			t.Errorf("file and terminal summary differ (-terminal +file):\n%s", diff)
		}
		if !strings.Contains(string(data), path) {
			t.Errorf("verbose summary should list %s:\n%s", path, data)
		}
		if diff := cmp.Diff([]string{path}, run.OutputFiles); diff != "" {
			t.Errorf("OutputFiles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("verbose keeps empty sections", func(t *testing.T) {
		t.Parallel()

		req, err := model.NewSearchRequest("pizza", "Austin, TX", 1)
		if err != nil {
			t.Fatal(err)
		}
		run := model.NewRun(req, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

		var quiet, verbose bytes.Buffer
		if err := NewSummaryStep(&quiet).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if err := NewSummaryStep(&verbose, WithSummaryVerbose(true)).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if strings.Contains(quiet.String(), "RESTAURANTS") {
			t.Errorf("quiet summary should skip empty sections:\n%s", quiet.String())
		}
		if !strings.Contains(verbose.String(), "No restaurants found") {
			t.Errorf("verbose summary should show empty sections:\n%s", verbose.String())
		}
	})

	t.Run("unwritable file fails", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0600); err != nil {
			t.Fatal(err)
		}
		run := analyzedRun(t)
		err := NewSummaryStep(io.Discard, WithSummaryFile(filepath.Join(blocker, "summary.txt"))).Do(context.Background(), run)
		if err == nil || !strings.Contains(err.Error(), "write summary") {
			t.Errorf("Do() error = %v, want write summary error", err)
		}
		if len(run.OutputFiles) != 0 {
			t.Errorf("failed file should not be listed: %v", run.OutputFiles)
		}
	})
}

func TestDefault(t *testing.T) {
	t.Parallel()

	deps := Deps{Scraper: &stubScraper{}, Analyzer: stubAnalyzer{}, Store: &stubStore{}}

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   []string
	}{
		{
			name:   "standard outputs",
			modify: func(*config.Config) {},
			want:   []string{"scrape", "sentiment", "emotion", "sentiment_csv", "emotion_text"},
		},
		{
			name: "all optional outputs",
			modify: func(c *config.Config) {
				c.Output.Markdown = true
				c.Output.JSON = true
				c.SaveToDB = true
				c.Output.Summary = true
			},
			want: []string{"scrape", "sentiment", "emotion", "sentiment_csv", "emotion_text", "markdown", "json", "store", "summary"},
		},
		{
			name: "summary file implies summary",
			modify: func(c *config.Config) {
				c.Output.SummaryFile = "summary.txt"
			},
			want: []string{"scrape", "sentiment", "emotion", "sentiment_csv", "emotion_text", "summary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.NewConfig()
			tt.modify(cfg)

			p, err := Default(cfg, deps)
			if err != nil {
				t.Fatalf("Default() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, p.StepNames()); diff != "" {
				t.Errorf("StepNames() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing dependencies", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		if _, err := Default(cfg, Deps{Analyzer: stubAnalyzer{}}); !errors.Is(err, ErrNilDependency) {
			t.Errorf("expected ErrNilDependency without scraper, got %v", err)
		}
		if _, err := Default(cfg, Deps{Scraper: &stubScraper{}}); !errors.Is(err, ErrNilDependency) {
			t.Errorf("expected ErrNilDependency without analyzer, got %v", err)
		}
		cfg.SaveToDB = true
		if _, err := Default(cfg, Deps{Scraper: &stubScraper{}, Analyzer: stubAnalyzer{}}); !errors.Is(err, ErrNilDependency) {
			t.Errorf("expected ErrNilDependency without store, got %v", err)
		}
	})

	t.Run("end to end writes both files under the output dir", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Output.Dir = t.TempDir()
		var progress bytes.Buffer

		p, err := Default(cfg, Deps{
			Scraper:  &stubScraper{records: tonysReviews(), stats: scraper.Stats{PagesFetched: 1, Reviews: 2}},
			Analyzer: stubAnalyzer{},
			Progress: &progress,
		})
		if err != nil {
			t.Fatalf("Default() error = %v", err)
		}
		run := newTestRun(t)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		csvPath := filepath.Join(cfg.Output.Dir, cfg.Output.SentimentFile)
		txtPath := filepath.Join(cfg.Output.Dir, cfg.Output.EmotionFile)
		want := "Sentiment analysis results saved to " + csvPath + "\n" +
			"Emotion analysis results saved to " + txtPath + "\n"
		if diff := cmp.Diff(want, progress.String()); diff != "" {
			t.Errorf("progress mismatch (-want +got):\n%s", diff)
		}
	})
}
