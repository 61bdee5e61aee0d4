package manifest

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Build is one recorded build run. Timestamps are stored as Unix
// milliseconds so both SQLite drivers scan them the same way.
type Build struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"`
	Posts      int       `json:"posts"`
	Written    int       `json:"written"`
	Unchanged  int       `json:"unchanged"`
	Failed     int       `json:"failed"`
}

// BeginBuild records the start of a build and returns its id.
func (s *Store) BeginBuild(ctx context.Context, startedAt time.Time) (int64, error) {
	var id int64
	if err := s.stmtBeginBuild.QueryRowContext(ctx, startedAt.UnixMilli()).Scan(&id); err != nil {
		return 0, err
	}
	s.logger.Debug("Build started", "build_id", id)
	return id, nil
}

// FinishBuild stores the final counters of build b.
func (s *Store) FinishBuild(ctx context.Context, b Build) error {
	res, err := s.stmtFinishBuild.ExecContext(ctx, b.FinishedAt.UnixMilli(), b.Pages, b.Posts, b.Written, b.Unchanged, b.Failed, b.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LastBuild returns the most recent build. ok is false when none exists.
func (s *Store) LastBuild(ctx context.Context) (b Build, ok bool, err error) {
	var started, finished int64
	err = s.stmtLastBuild.QueryRowContext(ctx).Scan(&b.ID, &started, &finished, &b.Pages, &b.Posts, &b.Written, &b.Unchanged, &b.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, err
	}
	b.StartedAt = time.UnixMilli(started)
	if finished > 0 {
		b.FinishedAt = time.UnixMilli(finished)
	}
	return b, true, nil
}
