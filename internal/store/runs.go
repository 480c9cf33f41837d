package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/sanops/asbuilt/internal/models"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
)

// RunStore persists collection runs and serves the run history.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Save inserts one run. Run IDs are caller-generated and never reused.
func (s *RunStore) Save(ctx context.Context, run *models.Run) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun,
		run.ID, run.Cluster, int(run.Revision), run.Firmware,
		run.Completeness, run.Inventory, run.CreatedAt)
	return err
}

// Get retrieves one run including its inventory blob.
func (s *RunStore) Get(ctx context.Context, id string) (*models.Run, error) {
	return s.scanRun(s.db.QueryRowContext(ctx, queryGetRun, id), id)
}

// Latest retrieves the most recent run, if any.
func (s *RunStore) Latest(ctx context.Context) (*models.Run, error) {
	return s.scanRun(s.db.QueryRowContext(ctx, queryLatestRun), "latest")
}

func (s *RunStore) scanRun(row *sql.Row, id string) (*models.Run, error) {
	var run models.Run
	var revision int
	err := row.Scan(&run.ID, &run.Cluster, &revision, &run.Firmware,
		&run.Completeness, &run.Inventory, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewRunNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	run.Revision = models.Revision(revision)
	return &run, nil
}

// List returns run summaries, newest first by default. The inventory blob is
// omitted; fetch a single run for the full document.
func (s *RunStore) List(ctx context.Context, opts ...ListOption) ([]models.Run, error) {
	builder := sq.Select("id", "cluster", "revision", "firmware", "completeness", "created_at").
		From("runs")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var revision int
		if err := rows.Scan(&run.ID, &run.Cluster, &revision, &run.Firmware,
			&run.Completeness, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Revision = models.Revision(revision)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *RunStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From("runs")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Prune keeps only the newest keep runs.
func (s *RunStore) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.ExecContext(ctx, queryPruneRuns, keep)
	return err
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByCluster(clusters ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(clusters) == 0 {
			return b
		}
		return b.Where(sq.Eq{"cluster": clusters})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("created_at DESC", "id")
	}
}
