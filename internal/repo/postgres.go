package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/rs/zerolog"
)

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
	return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS tracking_record(
			id         smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			issue_id   text NOT NULL,
			entry_id   bigint NOT NULL,
			started_at timestamptz NOT NULL
		);
		CREATE TABLE IF NOT EXISTS recent_categories(
			position       smallint PRIMARY KEY,
			team_id        bigint NOT NULL,
			team_name      text NOT NULL,
			category_id    bigint NOT NULL,
			category_title text NOT NULL,
			used_at        timestamptz NOT NULL
		);`
	_, err := r.db.Pool.Exec(ctx, q)
	return err
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
	return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	if !ok && err == nil { return errors.New("advisory unlock returned false") }
	return err
}

// SaveTrackingRecord writes the singleton record created when a timer starts.
func (r *Repository) SaveTrackingRecord(ctx context.Context, rec domain.TrackingRecord) error {
	const q = `
		INSERT INTO tracking_record(id, issue_id, entry_id, started_at)
		VALUES(1, $1, $2, $3)
		ON CONFLICT(id) DO UPDATE SET
			issue_id=EXCLUDED.issue_id,
			entry_id=EXCLUDED.entry_id,
			started_at=EXCLUDED.started_at`
	_, err := r.db.Pool.Exec(ctx, q, rec.IssueID, rec.EntryID, rec.StartedAt)
	return err
}

// TrackingRecord returns the persisted record, or nil when no timer is
// believed to be running.
func (r *Repository) TrackingRecord(ctx context.Context) (*domain.TrackingRecord, error) {
	var rec domain.TrackingRecord
	err := r.db.Pool.QueryRow(ctx,
		`SELECT issue_id, entry_id, started_at FROM tracking_record WHERE id = 1`).
		Scan(&rec.IssueID, &rec.EntryID, &rec.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
	if err != nil { return nil, err }
	return &rec, nil
}

func (r *Repository) DeleteTrackingRecord(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM tracking_record WHERE id = 1`)
	return err
}

// ReplaceRecentCategories overwrites the whole bounded list. Ordering and
// dedup are decided by the caller; position 0 is most recent.
func (r *Repository) ReplaceRecentCategories(ctx context.Context, list []domain.RecentCategory) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM recent_categories`)
	const q = `INSERT INTO recent_categories(position, team_id, team_name, category_id, category_title, used_at)
		VALUES($1,$2,$3,$4,$5,$6)`
	for i, rc := range list {
		batch.Queue(q, i, rc.TeamID, rc.TeamName, rc.CategoryID, rc.CategoryTitle, rc.UsedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(list)+1; i++ {
		if _, err := br.Exec(); err != nil { return err }
	}
	return nil
}

func (r *Repository) RecentCategories(ctx context.Context) ([]domain.RecentCategory, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT team_id, team_name, category_id, category_title, used_at
		 FROM recent_categories ORDER BY position`)
	if err != nil { return nil, err }
	defer rows.Close()
	var out []domain.RecentCategory
	for rows.Next() {
		var rc domain.RecentCategory
		if err := rows.Scan(&rc.TeamID, &rc.TeamName, &rc.CategoryID, &rc.CategoryTitle, &rc.UsedAt); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
