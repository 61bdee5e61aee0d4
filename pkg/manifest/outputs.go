package manifest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Kinds of output.
const (
	KindPage  = "page"
	KindPost  = "post"
	KindAsset = "asset"
)

// Output is the record of one file written by a build.
type Output struct {
	OutputPath  string    `json:"output_path"`
	SourcePath  string    `json:"source_path"`
	Kind        string    `json:"kind"`
	ContentHash string    `json:"content_hash"`
	Size        int64     `json:"size"`
	BuildID     int64     `json:"build_id"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// HashContent returns the hex SHA-256 of content, the form stored in
// ContentHash.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RecordOutput inserts or replaces the record for o.OutputPath.
func (s *Store) RecordOutput(ctx context.Context, o Output) error {
	_, err := s.stmtRecordOutput.ExecContext(ctx, o.OutputPath, o.SourcePath, o.Kind, o.ContentHash, o.Size, o.BuildID, o.RenderedAt.UnixMilli())
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutput(row scanner) (Output, error) {
	var o Output
	var rendered int64
	if err := row.Scan(&o.OutputPath, &o.SourcePath, &o.Kind, &o.ContentHash, &o.Size, &o.BuildID, &rendered); err != nil {
		return Output{}, err
	}
	o.RenderedAt = time.UnixMilli(rendered)
	return o, nil
}

// Lookup returns the record for outputPath. ok is false when there is none.
func (s *Store) Lookup(ctx context.Context, outputPath string) (o Output, ok bool, err error) {
	o, err = scanOutput(s.stmtLookup.QueryRowContext(ctx, outputPath))
	if errors.Is(err, sql.ErrNoRows) {
		return Output{}, false, nil
	}
	if err != nil {
		return Output{}, false, err
	}
	return o, true, nil
}

// Outputs returns every record ordered by output path.
func (s *Store) Outputs(ctx context.Context) ([]Output, error) {
	rows, err := s.stmtOutputs.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	outputs := make([]Output, 0)
	for rows.Next() {
		o, err := scanOutput(rows)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// PruneStale deletes the records of outputs that build buildID did not
// produce and returns their paths. The operation is performed within a
// transaction.
func (s *Store) PruneStale(ctx context.Context, buildID int64) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	rows, err := tx.QueryContext(ctx, `SELECT output_path FROM manifest_outputs WHERE build_id <> ? ORDER BY output_path;`, buildID)
	if err != nil {
		return nil, err
	}
	stale := make([]string, 0)
	for rows.Next() {
		var path string
		if err = rows.Scan(&path); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stale = append(stale, path)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM manifest_outputs WHERE build_id <> ?;`, buildID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	if len(stale) > 0 {
		s.logger.Info("Pruned stale outputs", "count", len(stale), "build_id", buildID)
	}
	return stale, nil
}
