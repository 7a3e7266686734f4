package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CombatLogRow is one journaled event.
type CombatLogRow struct {
	Run       string
	Seq       int64
	Stage     string
	At        time.Duration // combat time
	Event     string
	SourceID  uint32
	TargetID  uint32
	SubjectID uint32
	Amount    int64
	Critical  bool
	Evaded    bool
}

var combatLogColumns = []string{
	"run", "seq", "stage", "at_ms", "event",
	"source_id", "target_id", "subject_id", "amount", "critical", "evaded",
}

// CombatLogRepository appends to and reads the combat_log table.
type CombatLogRepository struct {
	db *pgxpool.Pool
}

// NewCombatLogRepository creates a new CombatLogRepository.
func NewCombatLogRepository(db *pgxpool.Pool) *CombatLogRepository {
	return &CombatLogRepository{db: db}
}

// Append bulk-inserts rows with COPY. Returns the number of rows written.
func (r *CombatLogRepository) Append(ctx context.Context, rows []CombatLogRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	src := make([][]any, 0, len(rows))
	for _, e := range rows {
		src = append(src, []any{
			e.Run, e.Seq, e.Stage, e.At.Milliseconds(), e.Event,
			int64(e.SourceID), int64(e.TargetID), int64(e.SubjectID), e.Amount, e.Critical, e.Evaded,
		})
	}

	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"combat_log"},
		combatLogColumns,
		pgx.CopyFromRows(src),
	)
	if err != nil {
		return 0, fmt.Errorf("copying %d combat log rows: %w", len(rows), err)
	}

	slog.Debug("combat log appended", "rows", n)
	return n, nil
}

// LoadRun returns every row of a run ordered by sequence.
func (r *CombatLogRepository) LoadRun(ctx context.Context, run string) ([]CombatLogRow, error) {
	query := `
		SELECT run, seq, stage, at_ms, event, source_id, target_id, subject_id, amount, critical, evaded
		FROM combat_log
		WHERE run = $1
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query, run)
	if err != nil {
		return nil, fmt.Errorf("querying combat log for run %q: %w", run, err)
	}
	defer rows.Close()

	result := make([]CombatLogRow, 0, 64)
	for rows.Next() {
		var (
			row                  CombatLogRow
			atMs                 int64
			source, target, subj int64
		)
		if err := rows.Scan(&row.Run, &row.Seq, &row.Stage, &atMs, &row.Event,
			&source, &target, &subj, &row.Amount, &row.Critical, &row.Evaded); err != nil {
			return nil, fmt.Errorf("scanning combat log row: %w", err)
		}
		row.At = time.Duration(atMs) * time.Millisecond
		row.SourceID = uint32(source)
		row.TargetID = uint32(target)
		row.SubjectID = uint32(subj)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat log rows: %w", err)
	}

	return result, nil
}

// CountByEvent returns per-event row counts for a run.
func (r *CombatLogRepository) CountByEvent(ctx context.Context, run string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event, COUNT(*) FROM combat_log WHERE run = $1 GROUP BY event`, run)
	if err != nil {
		return nil, fmt.Errorf("counting combat log for run %q: %w", run, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			event string
			n     int64
		)
		if err := rows.Scan(&event, &n); err != nil {
			return nil, fmt.Errorf("scanning combat log count: %w", err)
		}
		counts[event] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat log counts: %w", err)
	}
	return counts, nil
}

// DeleteRun removes every row of a run.
func (r *CombatLogRepository) DeleteRun(ctx context.Context, run string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM combat_log WHERE run = $1`, run)
	if err != nil {
		return 0, fmt.Errorf("deleting combat log for run %q: %w", run, err)
	}
	return tag.RowsAffected(), nil
}
