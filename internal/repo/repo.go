package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sprintboard/internal/domain"
)

// Repo persists board entities. Env rebuilds loaded rows into domain values.
type Repo struct {
	DB  *sql.DB
	Env *domain.Env
}

var ErrNotFound = errors.New("not found")

// queryer is implemented by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const timeLayout = time.RFC3339Nano

func (r Repo) InsertLogTx(ctx context.Context, tx *sql.Tx, l *domain.Log, createdAt string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO logs(id,title,kind,created_at) VALUES (?,?,?,?)`,
		l.ID, l.Title, string(l.Kind()), createdAt); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	if a := l.Activity(); a != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO activities(log_id,open,start_at,end_at,updated_at) VALUES (?,?,?,?,?)`,
			l.ID, a.IsActive(), nullableTime(a.Start()), nullableTime(a.End()), createdAt); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
	}
	return nil
}

// UpdateActivityTx stores the current window of an active log.
func (r Repo) UpdateActivityTx(ctx context.Context, tx *sql.Tx, logID string, a *domain.Activity, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE activities SET open=?,start_at=?,end_at=?,updated_at=? WHERE log_id=?`,
		a.IsActive(), nullableTime(a.Start()), nullableTime(a.End()), updatedAt, logID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetLog(ctx context.Context, id string) (*domain.Log, error) {
	return r.getLog(ctx, r.DB, id)
}

func (r Repo) GetLogTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Log, error) {
	return r.getLog(ctx, tx, id)
}

// FindLogByTitle returns the oldest log with the given title.
func (r Repo) FindLogByTitle(ctx context.Context, title string) (*domain.Log, error) {
	row := r.DB.QueryRowContext(ctx, logSelect+` WHERE l.title=? ORDER BY l.created_at, l.id LIMIT 1`, title)
	return r.scanLog(row)
}

func (r Repo) ListLogs(ctx context.Context) ([]*domain.Log, error) {
	return r.listLogs(ctx, r.DB, "")
}

func (r Repo) ListLogsTx(ctx context.Context, tx *sql.Tx, kind domain.LogKind) ([]*domain.Log, error) {
	return r.listLogs(ctx, tx, kind)
}

const logSelect = `SELECT l.id,l.title,l.kind,a.open,a.start_at,a.end_at FROM logs l LEFT JOIN activities a ON a.log_id=l.id`

func (r Repo) getLog(ctx context.Context, q queryer, id string) (*domain.Log, error) {
	return r.scanLog(q.QueryRowContext(ctx, logSelect+` WHERE l.id=?`, id))
}

func (r Repo) listLogs(ctx context.Context, q queryer, kind domain.LogKind) ([]*domain.Log, error) {
	query := logSelect
	var args []any
	if kind != "" {
		query += ` WHERE l.kind=?`
		args = append(args, string(kind))
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY l.created_at, l.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []*domain.Log
	for rows.Next() {
		l, err := r.scanLog(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r Repo) scanLog(row scanner) (*domain.Log, error) {
	var (
		id, title, kind string
		open            sql.NullBool
		start, end      sql.NullString
	)
	err := row.Scan(&id, &title, &kind, &open, &start, &end)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	lk, ok := domain.ParseLogKind(kind)
	if !ok {
		return nil, fmt.Errorf("log %s has unknown kind %q", id, kind)
	}
	var act *domain.Activity
	if lk == domain.KindActive {
		startAt, err := parseNullTime(start)
		if err != nil {
			return nil, err
		}
		endAt, err := parseNullTime(end)
		if err != nil {
			return nil, err
		}
		act = r.Env.RestoreActivity(open.Valid && open.Bool, startAt, endAt)
	}
	return r.Env.RestoreLog(id, title, lk, act)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored time %q: %w", v.String, err)
	}
	return &t, nil
}
