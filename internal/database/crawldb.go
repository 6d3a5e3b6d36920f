package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/simhash"
	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// FileName is the name of the database file inside the database directory.
const FileName = "ucicrawl.db"

// Frontier states as stored in the frontier table.
const (
	stateQueued    = "queued"
	stateCompleted = "completed"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CrawlDB provides SQLite-based storage for frontier and corpus state.
// It is safe for concurrent use; writes are serialized by the single
// connection.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	// The report command opens without it so a typo in --db-dir is an error
	// rather than an empty report.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Every URL ever added to the frontier, in discovery order
	CREATE TABLE IF NOT EXISTS frontier (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL DEFAULT 'queued',
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_frontier_state ON frontier(state);

	-- Pages accepted into the corpus
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		subdomain TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		unique_tokens INTEGER NOT NULL,
		fingerprint TEXT,
		crawl_id TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_subdomain ON pages(subdomain);

	-- Cumulative non-stop-word frequencies over all accepted pages
	CREATE TABLE IF NOT EXISTS word_counts (
		word TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	);

	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME,
		workers INTEGER NOT NULL,
		seeds TEXT NOT NULL,
		pages_accepted INTEGER DEFAULT 0
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// LoadFrontier implements frontier.Store.
func (cdb *CrawlDB) LoadFrontier(ctx context.Context) (pending, completed []string, err error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT url, state FROM frontier ORDER BY seq`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load frontier: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u, state string
		if err := rows.Scan(&u, &state); err != nil {
			return nil, nil, fmt.Errorf("failed to scan frontier row: %w", err)
		}
		if state == stateCompleted {
			completed = append(completed, u)
		} else {
			pending = append(pending, u)
		}
	}
	return pending, completed, rows.Err()
}

// SaveQueued implements frontier.Store. Re-adding a known URL is a no-op.
func (cdb *CrawlDB) SaveQueued(ctx context.Context, u string) error {
	_, err := cdb.db.ExecContext(ctx,
		`INSERT INTO frontier (url, state) VALUES (?, ?) ON CONFLICT(url) DO NOTHING`,
		u, stateQueued)
	if err != nil {
		return fmt.Errorf("failed to save queued url: %w", err)
	}
	return nil
}

// SaveCompleted implements frontier.Store.
func (cdb *CrawlDB) SaveCompleted(ctx context.Context, u string) error {
	query := `
	INSERT INTO frontier (url, state, completed_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(url) DO UPDATE SET
		state = excluded.state,
		completed_at = CURRENT_TIMESTAMP
	`
	if _, err := cdb.db.ExecContext(ctx, query, u, stateCompleted); err != nil {
		return fmt.Errorf("failed to save completed url: %w", err)
	}
	return nil
}

// SavePage records an accepted page and merges its non-stop-word
// frequencies into the word table, in one transaction.
func (cdb *CrawlDB) SavePage(ctx context.Context, runID string, page model.PageRecord, words map[string]int) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO pages (url, subdomain, token_count, unique_tokens, fingerprint, crawl_id, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`,
		page.URL,
		urlnorm.Subdomain(page.URL),
		page.Words,
		page.UniqueWords,
		nullString(page.Fingerprint),
		nullString(runID),
		fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO word_counts (word, count) VALUES (?, ?)
	ON CONFLICT(word) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare word upsert: %w", err)
	}
	defer stmt.Close()

	for word, n := range words {
		if _, err := stmt.ExecContext(ctx, word, n); err != nil {
			return fmt.Errorf("failed to merge word %q: %w", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page: %w", err)
	}
	return nil
}

// GetPage retrieves one accepted page. It returns ErrNotFound when the page
// was never accepted.
func (cdb *CrawlDB) GetPage(ctx context.Context, u string) (*model.PageRecord, error) {
	var (
		page      model.PageRecord
		fp        sql.NullString
		fetchedAt string
	)
	err := cdb.db.QueryRowContext(ctx,
		`SELECT url, token_count, unique_tokens, fingerprint, fetched_at FROM pages WHERE url = ?`, u,
	).Scan(&page.URL, &page.Words, &page.UniqueWords, &fp, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", u, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	page.Fingerprint = fp.String
	page.FetchedAt = parseTimestamp(fetchedAt)
	return &page, nil
}

// LoadSnapshot reads the page and word tables, plus the fingerprint of every
// page that has one, so a resumed crawl keeps deduplicating against pages
// accepted by earlier runs.
func (cdb *CrawlDB) LoadSnapshot(ctx context.Context) (model.Snapshot, map[string]simhash.Fingerprint, error) {
	snap := model.NewSnapshot()
	prints := make(map[string]simhash.Fingerprint)

	rows, err := cdb.db.QueryContext(ctx, `SELECT url, token_count, fingerprint FROM pages`)
	if err != nil {
		return snap, nil, fmt.Errorf("failed to load pages: %w", err)
	}
	for rows.Next() {
		var (
			u  string
			n  int
			fp sql.NullString
		)
		if err := rows.Scan(&u, &n, &fp); err != nil {
			rows.Close()
			return snap, nil, fmt.Errorf("failed to scan page: %w", err)
		}
		snap.Pages[u] = n
		if fp.Valid && fp.String != "" {
			if parsed, err := simhash.Parse(fp.String); err == nil {
				prints[u] = parsed
			}
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, nil, fmt.Errorf("failed to read pages: %w", err)
	}
	rows.Close()

	rows, err = cdb.db.QueryContext(ctx, `SELECT word, count FROM word_counts`)
	if err != nil {
		return snap, nil, fmt.Errorf("failed to load word counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			w string
			n int
		)
		if err := rows.Scan(&w, &n); err != nil {
			return snap, nil, fmt.Errorf("failed to scan word count: %w", err)
		}
		snap.Words[w] = n
	}
	return snap, prints, rows.Err()
}

// Reset removes all frontier, page and word state. Crawl run history is kept.
func (cdb *CrawlDB) Reset(ctx context.Context) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"frontier", "pages", "word_counts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Run is one crawl invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Workers       int
	Seeds         []string
	PagesAccepted int
}

// StartRun records the start of a crawl and returns its ID.
func (cdb *CrawlDB) StartRun(ctx context.Context, workers int, seeds []string) (string, error) {
	id := uuid.NewString()
	_, err := cdb.db.ExecContext(ctx,
		`INSERT INTO crawl_runs (id, started_at, workers, seeds) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), workers, strings.Join(seeds, "\n"))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun records the end of a crawl.
func (cdb *CrawlDB) FinishRun(ctx context.Context, id string, pagesAccepted int) error {
	res, err := cdb.db.ExecContext(ctx,
		`UPDATE crawl_runs SET finished_at = ?, pages_accepted = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), pagesAccepted, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListRuns returns all crawl runs, most recent first.
func (cdb *CrawlDB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, started_at, finished_at, workers, seeds, pages_accepted
	FROM crawl_runs
	ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished sql.NullString
			seeds    string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Workers, &seeds, &run.PagesAccepted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		if finished.Valid {
			run.FinishedAt = parseTimestamp(finished.String)
		}
		if seeds != "" {
			run.Seeds = strings.Split(seeds, "\n")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // What this package writes
	"2006-01-02 15:04:05",     // SQLite CURRENT_TIMESTAMP
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
