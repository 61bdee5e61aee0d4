package manifest

import (
	"context"
)

// Summary holds aggregated statistics for the whole manifest.
type Summary struct {
	Builds     int                 `json:"builds"`
	Outputs    int                 `json:"outputs"`
	TotalBytes int64               `json:"total_bytes"`
	Kinds      map[string]KindStat `json:"kinds"`
	LastBuild  *Build              `json:"last_build,omitempty"`
}

// KindStat holds the totals for one output kind.
type KindStat struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Summary returns a snapshot of statistics for the manifest.
func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{Kinds: make(map[string]KindStat)}

	if err := s.stmtCountBuilds.QueryRowContext(ctx).Scan(&sum.Builds); err != nil {
		return nil, err
	}

	rows, err := s.stmtKindTotals.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var stat KindStat
		if err = rows.Scan(&kind, &stat.Count, &stat.Bytes); err != nil {
			_ = rows.Close()
			return nil, err
		}
		sum.Kinds[kind] = stat
		sum.Outputs += stat.Count
		sum.TotalBytes += stat.Bytes
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	last, ok, err := s.LastBuild(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		sum.LastBuild = &last
	}
	return sum, nil
}
