package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/database"
	"github.com/nao1215/reviewscan/internal/model"
	"github.com/nao1215/reviewscan/internal/report"
)

// maxReviewWidth bounds the review column of the run table.
const maxReviewWidth = 60

// NewHistoryCmd creates the history command.
// It reads runs stored by 'reviewscan scrape --save'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show runs saved to the local history",
		Long: `History lists runs saved with 'reviewscan scrape --save'.

Without arguments it lists the stored runs, newest first. With a run ID it
shows every review of that run with its score and emotions.

Examples:
  # List all stored runs
  reviewscan history

  # List runs for one query
  reviewscan history --query pizza

  # List the distinct searches in the history
  reviewscan history --queries

  # Show the reviews of run 3
  reviewscan history 3

  # Compare restaurants between run 3 and run 5
  reviewscan history 5 --compare 3

  # Delete run 3
  reviewscan history --delete 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("query", "q", "",
		"Only list runs for this search query")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().Bool("queries", false,
		"List the distinct searches instead of runs")
	cmd.Flags().Int64("compare", 0,
		"Compare the given run with this earlier run")
	cmd.Flags().Int64("delete", 0,
		"Delete the run with this ID")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data dir)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	// Parse arguments before opening the database so a typo does not
	// create an empty database.
	var runID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid run ID: %q", args[0])
		}
		runID = id
	}

	compareID, err := flags.GetInt64("compare")
	if err != nil {
		return err
	}
	if compareID != 0 && runID == 0 {
		return errors.New("--compare requires a run ID argument")
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	deleteID, err := flags.GetInt64("delete")
	if err != nil {
		return err
	}
	if deleteID != 0 {
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run #%d\n", deleteID)
		return nil
	}

	if listQueries, _ := flags.GetBool("queries"); listQueries {
		return listQueryHistory(ctx, out, db)
	}

	if runID != 0 {
		if compareID != 0 {
			return compareRuns(ctx, out, db, compareID, runID)
		}
		return showRun(ctx, out, db, runID)
	}

	query, err := flags.GetString("query")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	return listRunHistory(ctx, out, db, query, limit)
}

// newTable creates a table writer rendering to out.
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Keep headers as written; the rounded style upper-cases them.
	t.Style().Format.Header = text.FormatDefault
	t.SetOutputMirror(out)
	return t
}

// listRunHistory prints the stored runs.
func listRunHistory(ctx context.Context, out io.Writer, db *database.ResultDB, query string, limit int) error {
	runs, err := db.ListRuns(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		fmt.Fprintln(out, "\nUse 'reviewscan scrape --save' to store a run.")
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Date", "Query", "Location", "Pages", "Skipped", "Reviews", "Positive", "Neutral", "Negative"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Query,
			r.Location,
			r.PageCount,
			r.PagesSkipped,
			r.Reviews,
			r.Positive,
			r.Neutral,
			r.Negative,
		})
	}
	t.Render()

	fmt.Fprintln(out, "\nUse 'reviewscan history <id>' to show the reviews of a run.")
	return nil
}

// listQueryHistory prints the distinct searches.
func listQueryHistory(ctx context.Context, out io.Writer, db *database.ResultDB) error {
	queries, err := db.ListQueries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if len(queries) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Query", "Location", "Runs", "Reviews", "Last Run"})
	for _, q := range queries {
		t.AppendRow(table.Row{q.Query, q.Location, q.Runs, q.Reviews, q.LastRun.Local().Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}

// showRun prints every review of a run.
func showRun(ctx context.Context, out io.Writer, db *database.ResultDB, id int64) error {
	sentiments, err := db.GetSentiments(ctx, id)
	if err != nil {
		return err
	}
	emotions, err := db.GetEmotions(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run #%d (%d reviews)\n\n", id, len(sentiments))
	if len(sentiments) == 0 {
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Restaurant", "Score", "Sentiment", "Emotions", "Review"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 6, WidthMax: maxReviewWidth},
	})
	for i, s := range sentiments {
		tags := report.FormatEmotions(nil)
		if i < len(emotions) {
			tags = report.FormatEmotions(emotions[i].TopEmotions)
		}
		t.AppendRow(table.Row{i + 1, s.EntityName, report.FormatScore(s.Score), s.Label.String(), tags, s.Text})
	}
	t.Render()
	return nil
}

// compareRuns prints per-restaurant changes between an earlier and a later run.
func compareRuns(ctx context.Context, out io.Writer, db *database.ResultDB, earlierID, laterID int64) error {
	earlier, err := db.GetRun(ctx, earlierID)
	if err != nil {
		return err
	}
	later, err := db.GetRun(ctx, laterID)
	if err != nil {
		return err
	}

	rows := compareEntities(earlier.EntitySummaries(), later.EntitySummaries())

	fmt.Fprintf(out, "Comparing run #%d (%s) with run #%d (%s)\n\n",
		earlierID, earlier.Query, laterID, later.Query)
	if len(rows) == 0 {
		fmt.Fprintln(out, "Neither run has reviews.")
		return nil
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Restaurant", "Reviews", "Mean Score", "Reviews", "Mean Score", "Change"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.name,
			r.before.Reviews, formatMean(r.before),
			r.after.Reviews, formatMean(r.after),
			r.change(),
		})
	}
	t.Render()
	return nil
}

// entityChange pairs the summaries of one restaurant in two runs.
type entityChange struct {
	name   string
	before model.EntitySummary
	after  model.EntitySummary
}

// change describes the movement of the mean score.
func (c entityChange) change() string {
	switch {
	case c.before.Reviews == 0:
		return "new"
	case c.after.Reviews == 0:
		return "gone"
	}
	diff := c.after.MeanScore - c.before.MeanScore
	switch {
	case diff > 0:
		return "+" + strconv.FormatFloat(diff, 'f', 2, 64)
	case diff < 0:
		return strconv.FormatFloat(diff, 'f', 2, 64)
	default:
		return "unchanged"
	}
}

// compareEntities joins two summary lists by restaurant name, sorted by name.
func compareEntities(before, after []model.EntitySummary) []entityChange {
	index := make(map[string]*entityChange)
	for _, s := range before {
		index[s.EntityName] = &entityChange{name: s.EntityName, before: s}
	}
	for _, s := range after {
		c, ok := index[s.EntityName]
		if !ok {
			c = &entityChange{name: s.EntityName}
			index[s.EntityName] = c
		}
		c.after = s
	}

	rows := make([]entityChange, 0, len(index))
	for _, c := range index {
		rows = append(rows, *c)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	return rows
}

// formatMean renders a mean score, or "-" when there are no reviews.
func formatMean(s model.EntitySummary) string {
	if s.Reviews == 0 {
		return "-"
	}
	return strconv.FormatFloat(s.MeanScore, 'f', 2, 64)
}
