// Package report records what a repackaging run did in a SQLite database:
// every rename, the dependency edges seen by the keep analysis, the classes
// it excluded and the digest of the archive it wrote.
package report

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS renames (
	original TEXT PRIMARY KEY,
	final    TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS deps (
	class TEXT NOT NULL,
	dep   TEXT NOT NULL,
	PRIMARY KEY (class, dep)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS excludes (
	class TEXT PRIMARY KEY
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS outputs (
	path   TEXT PRIMARY KEY,
	blake3 TEXT NOT NULL
) WITHOUT ROWID;
`

// Writer batches every insert into one transaction committed by Close.
type Writer struct {
	db          *sql.DB
	tx          *sql.Tx
	stmtRename  *sql.Stmt
	stmtDep     *sql.Stmt
	stmtExclude *sql.Stmt
	stmtOutput  *sql.Stmt
}

// Open creates (or reuses) the report database at path, clearing rows left
// by an earlier run.
func Open(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db}
	if err := w.begin(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, table := range []string{"renames", "deps", "excludes", "outputs"} {
		if _, err := w.tx.Exec("DELETE FROM " + table); err != nil {
			_ = w.tx.Rollback()
			_ = db.Close()
			return nil, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return w, nil
}

func (w *Writer) begin() error {
	var err error
	if w.tx, err = w.db.Begin(); err != nil {
		return err
	}
	if w.stmtRename, err = w.tx.Prepare(`INSERT OR REPLACE INTO renames (original, final) VALUES (?, ?)`); err != nil {
		return err
	}
	if w.stmtDep, err = w.tx.Prepare(`INSERT OR IGNORE INTO deps (class, dep) VALUES (?, ?)`); err != nil {
		return err
	}
	if w.stmtExclude, err = w.tx.Prepare(`INSERT OR IGNORE INTO excludes (class) VALUES (?)`); err != nil {
		return err
	}
	w.stmtOutput, err = w.tx.Prepare(`INSERT OR REPLACE INTO outputs (path, blake3) VALUES (?, ?)`)
	return err
}

// AddRename records that the entry original was written as final.
func (w *Writer) AddRename(original, final string) error {
	_, err := w.stmtRename.Exec(original, final)
	return err
}

// AddDep records that class references dep.
func (w *Writer) AddDep(class, dep string) error {
	_, err := w.stmtDep.Exec(class, dep)
	return err
}

// AddExclude records a class removed as unreachable.
func (w *Writer) AddExclude(class string) error {
	_, err := w.stmtExclude.Exec(class)
	return err
}

// AddOutput records the BLAKE3 digest of a published archive.
func (w *Writer) AddOutput(path, digest string) error {
	_, err := w.stmtOutput.Exec(path, digest)
	return err
}

// Close commits everything written and closes the database.
func (w *Writer) Close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{w.stmtRename, w.stmtDep, w.stmtExclude, w.stmtOutput} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	if err := w.tx.Commit(); err != nil {
		errs = append(errs, fmt.Errorf("commit report: %w", err))
	}
	errs = append(errs, w.db.Close())
	return errors.Join(errs...)
}
