package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	// registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultFile is the name of the run database within the storage root.
const DefaultFile = "runs.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT     NOT NULL,
	target     TEXT     NOT NULL,
	task       TEXT     NOT NULL,
	model      TEXT     NOT NULL,
	metric     TEXT     NOT NULL,
	score      REAL     NOT NULL,
	n_rows     INTEGER  NOT NULL,
	duration   REAL     NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_session_idx ON runs (session, created_at);
`

// Run is one training run. "db" tags are for sqlx.
type Run struct {
	ID       int64     `json:"id" db:"id"`
	Session  string    `json:"session" db:"session"`
	Target   string    `json:"target" db:"target"`
	Task     string    `json:"task" db:"task"`
	Model    string    `json:"model" db:"model"`
	Metric   string    `json:"metric" db:"metric"`
	Score    float64   `json:"score" db:"score"`
	Rows     int       `json:"rows" db:"n_rows"`
	Duration float64   `json:"duration" db:"duration"`
	Created  time.Time `json:"created_at" db:"created_at"`
}

// Registry keeps the history of training runs.
type Registry struct {
	db *sqlx.DB
}

// Open opens or creates the run database at the given path.
// An empty path creates an in-memory database.
func Open(path string) (*Registry, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("could not make dir for '%s': %w", path, err)
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open run registry: %w", err)
	}
	// sqlite allows one writer, an in-memory database lives in one connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate run registry: %w", err)
	}
	log.Info().Str("path", dsn).Msg("opened run registry")
	return &Registry{db: db}, nil
}

// Add stores the run and assigns its id.
func (r *Registry) Add(run *Run) error {
	if run.Created.IsZero() {
		run.Created = time.Now().UTC()
	}
	query := `INSERT INTO runs (session, target, task, model, metric, score, n_rows, duration, created_at)
		VALUES (:session, :target, :task, :model, :metric, :score, :n_rows, :duration, :created_at)`
	res, err := r.db.NamedExec(query, run)
	if err != nil {
		return fmt.Errorf("could not add run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("could not get run id: %w", err)
	}
	run.ID = id
	return nil
}

// List returns the runs of the session, most recent first.
func (r *Registry) List(session string) ([]Run, error) {
	runs := make([]Run, 0)
	query := "SELECT * FROM runs WHERE session=? ORDER BY created_at DESC, id DESC"
	if err := r.db.Select(&runs, query, session); err != nil {
		return nil, fmt.Errorf("could not list runs for '%s': %w", session, err)
	}
	return runs, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}
