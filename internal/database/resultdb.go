package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/reviewscan/internal/model"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "reviewscan.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// ResultDB provides SQLite-based storage for finished runs.
//
// Design decision: We store each run both as normalized rows (for listing
// and per-review queries) and as a JSON document (for restoring the run
// exactly as it was written). The rows are what history commands query;
// the JSON is what GetRun returns.
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a scrape with --save first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *ResultDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *ResultDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ResultDB) createTables() error {
	schema := `
	-- One row per finished run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		location TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages_fetched INTEGER NOT NULL,
		pages_skipped INTEGER NOT NULL,
		review_count INTEGER NOT NULL,
		positive INTEGER NOT NULL,
		neutral INTEGER NOT NULL,
		negative INTEGER NOT NULL,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Sentiment analysis per review
	CREATE TABLE IF NOT EXISTS sentiments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		restaurant TEXT NOT NULL,
		review TEXT NOT NULL,
		score REAL NOT NULL,
		label TEXT NOT NULL,
		UNIQUE(run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_sentiments_restaurant ON sentiments(restaurant);

	-- Emotion analysis per review; emotions is a JSON array
	CREATE TABLE IF NOT EXISTS emotions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		restaurant TEXT NOT NULL,
		review TEXT NOT NULL,
		emotions TEXT NOT NULL,
		UNIQUE(run_id, position)
	);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID           int64
	Query        string
	Location     string
	PageCount    int
	StartedAt    time.Time
	FinishedAt   time.Time
	PagesFetched int
	PagesSkipped int
	Reviews      int
	Positive     int
	Neutral      int
	Negative     int
}

// QueryStats aggregates runs that share a query and location.
type QueryStats struct {
	Query    string
	Location string
	Runs     int
	Reviews  int
	LastRun  time.Time
}

// SaveRun stores a run and its per-review records in one transaction.
// It returns the new run ID.
func (rdb *ResultDB) SaveRun(ctx context.Context, run *model.Run) (id int64, err error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	counts := run.LabelCounts()
	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (query, location, page_count, started_at, finished_at,
		pages_fetched, pages_skipped, review_count, positive, neutral, negative, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Query,
		run.Location,
		run.PageCount,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.PagesFetched,
		run.PagesSkipped,
		len(run.Reviews),
		counts[model.LabelPositive],
		counts[model.LabelNeutral],
		counts[model.LabelNegative],
		string(runJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for i, s := range run.Sentiments {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO sentiments (run_id, position, restaurant, review, score, label)
		VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, s.EntityName, s.Text, s.Score, s.Label.String(),
		); err != nil {
			return 0, fmt.Errorf("failed to insert sentiment %d: %w", i, err)
		}
	}

	for i, e := range run.Emotions {
		emotionsJSON, merr := json.Marshal(e.TopEmotions)
		if merr != nil {
			err = fmt.Errorf("failed to serialize emotions %d: %w", i, merr)
			return 0, err
		}
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO emotions (run_id, position, restaurant, review, emotions)
		VALUES (?, ?, ?, ?, ?)`,
			id, i, e.EntityName, e.Text, string(emotionsJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert emotions %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs, newest first. An empty query lists all
// runs; otherwise only runs with that exact query are returned.
// A limit of zero or less means no limit.
func (rdb *ResultDB) ListRuns(ctx context.Context, query string, limit int) ([]RunSummary, error) {
	stmt := `
	SELECT id, query, location, page_count, started_at, COALESCE(finished_at, ''),
		pages_fetched, pages_skipped, review_count, positive, neutral, negative
	FROM runs
	WHERE (? = '' OR query = ?)
	ORDER BY started_at DESC, id DESC`
	args := []any{query, query}
	if limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Query, &r.Location, &r.PageCount, &started, &finished,
			&r.PagesFetched, &r.PagesSkipped, &r.Reviews, &r.Positive, &r.Neutral, &r.Negative); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetRun restores a stored run.
func (rdb *ResultDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var runJSON string
	err := rdb.db.QueryRowContext(ctx, "SELECT run_json FROM runs WHERE id = ?", id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// GetSentiments returns the sentiment records of a run in original order.
func (rdb *ResultDB) GetSentiments(ctx context.Context, runID int64) ([]model.SentimentRecord, error) {
	if err := rdb.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT restaurant, review, score, label
	FROM sentiments
	WHERE run_id = ?
	ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sentiments: %w", err)
	}
	defer rows.Close()

	results := make([]model.SentimentRecord, 0)
	for rows.Next() {
		var s model.SentimentRecord
		var label string
		if err := rows.Scan(&s.EntityName, &s.Text, &s.Score, &label); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment: %w", err)
		}
		if s.Label, err = model.ParseLabel(label); err != nil {
			return nil, err
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// GetEmotions returns the emotion records of a run in original order.
func (rdb *ResultDB) GetEmotions(ctx context.Context, runID int64) ([]model.EmotionRecord, error) {
	if err := rdb.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT restaurant, review, emotions
	FROM emotions
	WHERE run_id = ?
	ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get emotions: %w", err)
	}
	defer rows.Close()

	results := make([]model.EmotionRecord, 0)
	for rows.Next() {
		var e model.EmotionRecord
		var emotionsJSON string
		if err := rows.Scan(&e.EntityName, &e.Text, &emotionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan emotions: %w", err)
		}
		if err := json.Unmarshal([]byte(emotionsJSON), &e.TopEmotions); err != nil {
			return nil, fmt.Errorf("failed to parse emotions: %w", err)
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// ListQueries returns one entry per distinct query and location,
// most recently run first.
func (rdb *ResultDB) ListQueries(ctx context.Context) ([]QueryStats, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT query, location, COUNT(*), SUM(review_count), MAX(started_at)
	FROM runs
	GROUP BY query, location
	ORDER BY MAX(started_at) DESC, query, location`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var results []QueryStats
	for rows.Next() {
		var q QueryStats
		var last string
		if err := rows.Scan(&q.Query, &q.Location, &q.Runs, &q.Reviews, &last); err != nil {
			return nil, fmt.Errorf("failed to scan query stats: %w", err)
		}
		q.LastRun = parseTimestamp(last)
		results = append(results, q)
	}

	return results, rows.Err()
}

// DeleteRun removes a run and its records.
func (rdb *ResultDB) DeleteRun(ctx context.Context, id int64) error {
	result, err := rdb.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// ensureRun returns ErrRunNotFound when no run has the given ID.
func (rdb *ResultDB) ensureRun(ctx context.Context, id int64) error {
	var exists int
	err := rdb.db.QueryRowContext(ctx, "SELECT 1 FROM runs WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	return nil
}

// storedTimestampFormat has a fixed-width fraction so that text order
// matches time order in ORDER BY.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,     // Format written by formatTimestamp
	time.RFC3339Nano,          // RFC3339 with trimmed fraction
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// formatTimestamp stores times as sortable UTC text. Zero times are empty.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedTimestampFormat)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
