package manifest

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema initializes the manifest tables in the provided database. It is
// idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaBuilds = `
CREATE TABLE IF NOT EXISTS manifest_builds (
    build_id INTEGER PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL DEFAULT 0,
    pages INTEGER NOT NULL DEFAULT 0,
    posts INTEGER NOT NULL DEFAULT 0,
    written INTEGER NOT NULL DEFAULT 0,
    unchanged INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
);
`
		schemaOutputs = `
CREATE TABLE IF NOT EXISTS manifest_outputs (
    output_path TEXT PRIMARY KEY,
    source_path TEXT NOT NULL,
    kind TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    build_id INTEGER NOT NULL,
    rendered_at INTEGER NOT NULL
);
`
		indexOutputsBuild = `CREATE INDEX IF NOT EXISTS manifest_outputs_build ON manifest_outputs (build_id);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaBuilds); err != nil {
		return fmt.Errorf("could not create builds schema: %w", err)
	}
	if _, err = tx.Exec(schemaOutputs); err != nil {
		return fmt.Errorf("could not create outputs schema: %w", err)
	}
	if _, err = tx.Exec(indexOutputsBuild); err != nil {
		return fmt.Errorf("could not create outputs index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store records build runs and the outputs they produced. It holds prepared
// statements over a database initialized with SetupSchema. A Store is safe
// for concurrent use to the extent the underlying *sql.DB is.
type Store struct {
	db               *sql.DB
	stmtBeginBuild   *sql.Stmt
	stmtFinishBuild  *sql.Stmt
	stmtLastBuild    *sql.Stmt
	stmtCountBuilds  *sql.Stmt
	stmtRecordOutput *sql.Stmt
	stmtLookup       *sql.Stmt
	stmtOutputs      *sql.Stmt
	stmtKindTotals   *sql.Stmt
	logger           *slog.Logger
}

// NewStore prepares all statements, returning an error if any preparation
// fails.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtBeginBuild, `INSERT INTO manifest_builds (started_at) VALUES (?) RETURNING build_id;`},
		{&s.stmtFinishBuild, `UPDATE manifest_builds SET finished_at = ?, pages = ?, posts = ?, written = ?, unchanged = ?, failed = ? WHERE build_id = ?;`},
		{&s.stmtLastBuild, `SELECT build_id, started_at, finished_at, pages, posts, written, unchanged, failed FROM manifest_builds ORDER BY build_id DESC LIMIT 1;`},
		{&s.stmtCountBuilds, `SELECT COUNT(*) FROM manifest_builds;`},
		{&s.stmtRecordOutput, `INSERT INTO manifest_outputs (output_path, source_path, kind, content_hash, size, build_id, rendered_at) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(output_path) DO UPDATE SET source_path = excluded.source_path, kind = excluded.kind, content_hash = excluded.content_hash,
size = excluded.size, build_id = excluded.build_id, rendered_at = excluded.rendered_at;`},
		{&s.stmtLookup, `SELECT output_path, source_path, kind, content_hash, size, build_id, rendered_at FROM manifest_outputs WHERE output_path = ?;`},
		{&s.stmtOutputs, `SELECT output_path, source_path, kind, content_hash, size, build_id, rendered_at FROM manifest_outputs ORDER BY output_path;`},
		{&s.stmtKindTotals, `SELECT kind, COUNT(*), coalesce(SUM(size), 0) FROM manifest_outputs GROUP BY kind ORDER BY kind;`},
	}
	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}
	return s, nil
}

// Close releases all prepared statements. It does not close the database.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtBeginBuild, s.stmtFinishBuild, s.stmtLastBuild, s.stmtCountBuilds,
		s.stmtRecordOutput, s.stmtLookup, s.stmtOutputs, s.stmtKindTotals,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}
