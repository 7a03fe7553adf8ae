package memorial

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses recorded in the history.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded render of a dataset.
type Run struct {
	ID         string
	Dataset    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Pages      int
	Comments   int
	Output     string
	Status     string
	Error      string
}

// HistoryStore wraps a SQLite database recording render runs.
type HistoryStore struct {
	db *sql.DB
}

// DefaultHistoryPath is the history database used for a dataset in baseDir.
func DefaultHistoryPath(baseDir string) string {
	return filepath.Join(baseDir, ".memorial", "history.db")
}

// OpenHistory opens (or creates) the SQLite database at path, ensuring its
// directory exists, and runs schema migrations.
func OpenHistory(path string) (*HistoryStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &HistoryStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    dataset TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    pages INTEGER NOT NULL DEFAULT 0,
    comments INTEGER NOT NULL DEFAULT 0,
    output TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`)
	return err
}

// StartRun records a new running render of dataset and returns it.
func (s *HistoryStore) StartRun(dataset string) (Run, error) {
	r := Run{
		ID:        uuid.NewString(),
		Dataset:   dataset,
		StartedAt: time.Now().UTC(),
		Status:    RunRunning,
	}
	_, err := s.db.Exec(`INSERT INTO runs (id, dataset, started_at, status) VALUES (?, ?, ?, ?)`,
		r.ID, r.Dataset, r.StartedAt.Format(timeLayout), r.Status)
	return r, err
}

// FinishRun stores the outcome of r. A non-nil runErr marks it failed.
func (s *HistoryStore) FinishRun(r Run, runErr error) (Run, error) {
	r.FinishedAt = time.Now().UTC()
	r.Status = RunOK
	r.Error = ""
	if runErr != nil {
		r.Status = RunFailed
		r.Error = runErr.Error()
	}
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ?, pages = ?, comments = ?, output = ?, status = ?, error = ? WHERE id = ?`,
		r.FinishedAt.Format(timeLayout), r.Pages, r.Comments, r.Output, r.Status, r.Error, r.ID)
	return r, err
}

// GetRun returns a run by ID.
func (s *HistoryStore) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(`SELECT id, dataset, started_at, finished_at, pages, comments, output, status, error FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *HistoryStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, dataset, started_at, finished_at, pages, comments, output, status, error FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var started, finished string
	if err := row.Scan(&r.ID, &r.Dataset, &started, &finished, &r.Pages, &r.Comments, &r.Output, &r.Status, &r.Error); err != nil {
		return Run{}, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return r, nil
}
