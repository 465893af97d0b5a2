package crawl

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Visit outcomes recorded in the journal.
const (
	OutcomeStored          = "stored"
	OutcomeDuplicate       = "duplicate"
	OutcomeQuotaReached    = "quota_reached"
	OutcomeUnreachable     = "unreachable"
	OutcomeNavigationError = "navigation_error"
	OutcomeExtractError    = "extract_error"
	OutcomeWriteError      = "write_error"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS visits (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	url     TEXT NOT NULL,
	label   INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	detail  TEXT NOT NULL DEFAULT '',
	at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS visits_outcome ON visits(outcome);

CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	ended_at   TEXT NOT NULL,
	benign     INTEGER NOT NULL,
	phishing   INTEGER NOT NULL,
	skipped    INTEGER NOT NULL
);
`

// Journal persists the fate of every queued URL in SQLite so a crawl can be
// audited after the fact. All methods are safe on a nil receiver, which is
// how journaling is disabled.
type Journal struct {
	db      *sql.DB
	started time.Time
}

// OpenJournal opens (or creates) the journal database with the usual
// single-writer pragmas.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("crawl: open journal: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("crawl: journal pragma: %w", err)
		}
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("crawl: journal schema: %w", err)
	}
	return &Journal{db: db, started: time.Now().UTC()}, nil
}

// Visit records the outcome for one URL. Journal failures are reported but
// must never abort the crawl; callers log and move on.
func (j *Journal) Visit(url string, label int, outcome, detail string) error {
	if j == nil {
		return nil
	}
	_, err := j.db.Exec(
		`INSERT INTO visits (url, label, outcome, detail, at) VALUES (?, ?, ?, ?, ?)`,
		url, label, outcome, detail, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("crawl: journal visit: %w", err)
	}
	return nil
}

// Summary writes the run totals and returns the run id.
func (j *Journal) Summary(benign, phishing, skipped int) (int64, error) {
	if j == nil {
		return 0, nil
	}
	res, err := j.db.Exec(
		`INSERT INTO runs (started_at, ended_at, benign, phishing, skipped) VALUES (?, ?, ?, ?, ?)`,
		j.started.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
		benign, phishing, skipped,
	)
	if err != nil {
		return 0, fmt.Errorf("crawl: journal summary: %w", err)
	}
	return res.LastInsertId()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}
