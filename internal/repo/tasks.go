package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sprintboard/internal/domain"
)

// StoredTask is a task together with its bookkeeping columns.
type StoredTask struct {
	Task *domain.Task
	Meta domain.TaskMeta
}

type TaskFilter struct {
	LogID  string
	Status string
}

func (r Repo) InsertTaskTx(ctx context.Context, tx *sql.Tx, t *domain.Task, meta domain.TaskMeta) error {
	s := t.State()
	if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(id,log_id,title,description,story_point,priority,status,tags,modifier,created_by,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Location.ID, s.Title, nullable(s.Description), nullableFloat(s.StoryPoint), int(s.Priority), s.Status.Key(), s.Tags.BitVector(), nullable(s.Modifier),
		meta.CreatedBy, meta.CreatedAt, meta.UpdatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return r.AppendHistoryTx(ctx, tx, s.ID, 0, s.History)
}

// UpdateTaskTx writes the task row and appends history entries from index
// known onwards.
func (r Repo) UpdateTaskTx(ctx context.Context, tx *sql.Tx, t *domain.Task, known int, updatedAt string) error {
	s := t.State()
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET log_id=?,title=?,description=?,story_point=?,priority=?,status=?,tags=?,modifier=?,updated_at=? WHERE id=?`,
		s.Location.ID, s.Title, nullable(s.Description), nullableFloat(s.StoryPoint), int(s.Priority), s.Status.Key(), s.Tags.BitVector(), nullable(s.Modifier), updatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	if known > len(s.History) {
		return fmt.Errorf("task %s history shrank from %d to %d entries", s.ID, known, len(s.History))
	}
	return r.AppendHistoryTx(ctx, tx, s.ID, known, s.History[known:])
}

// AppendHistoryTx stores entries with sequence numbers starting at from.
func (r Repo) AppendHistoryTx(ctx context.Context, tx *sql.Tx, taskID string, from int, entries []string) error {
	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_history(task_id,seq,entry) VALUES (?,?,?)`, taskID, from+i, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

func (r Repo) DeleteTaskTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetTask(ctx context.Context, id string) (StoredTask, error) {
	return r.getTask(ctx, r.DB, id)
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (StoredTask, error) {
	return r.getTask(ctx, tx, id)
}

func (r Repo) ListHistory(ctx context.Context, taskID string) ([]string, error) {
	return listHistory(ctx, r.DB, taskID)
}

// ListTasks loads matching tasks. Tasks sharing a log share its *domain.Log.
func (r Repo) ListTasks(ctx context.Context, f TaskFilter) ([]StoredTask, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.LogID != "" {
		clauses = append(clauses, "log_id=?")
		args = append(args, f.LogID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY created_at, id`, taskColumns, strings.Join(clauses, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var rowsData []taskRow
	for rows.Next() {
		tr, err := scanTaskRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		rowsData = append(rowsData, tr)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	logs := map[string]*domain.Log{}
	res := make([]StoredTask, 0, len(rowsData))
	for _, tr := range rowsData {
		l, ok := logs[tr.logID]
		if !ok {
			l, err = r.getLog(ctx, r.DB, tr.logID)
			if err != nil {
				return nil, fmt.Errorf("load log %s: %w", tr.logID, err)
			}
			logs[tr.logID] = l
		}
		st, err := r.buildTask(ctx, r.DB, tr, l)
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, nil
}

const taskColumns = `id,log_id,title,COALESCE(description,''),story_point,priority,status,tags,COALESCE(modifier,''),created_by,created_at,updated_at`

type taskRow struct {
	id, logID, title, description string
	storyPoint                    sql.NullFloat64
	priority                      int
	status, tags, modifier        string
	meta                          domain.TaskMeta
}

func scanTaskRow(row scanner) (taskRow, error) {
	var tr taskRow
	err := row.Scan(&tr.id, &tr.logID, &tr.title, &tr.description, &tr.storyPoint, &tr.priority, &tr.status, &tr.tags, &tr.modifier,
		&tr.meta.CreatedBy, &tr.meta.CreatedAt, &tr.meta.UpdatedAt)
	if err == sql.ErrNoRows {
		return tr, ErrNotFound
	}
	return tr, err
}

func (r Repo) getTask(ctx context.Context, q queryer, id string) (StoredTask, error) {
	tr, err := scanTaskRow(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
	if err != nil {
		return StoredTask{}, err
	}
	l, err := r.getLog(ctx, q, tr.logID)
	if err != nil {
		return StoredTask{}, fmt.Errorf("load log %s: %w", tr.logID, err)
	}
	return r.buildTask(ctx, q, tr, l)
}

func (r Repo) buildTask(ctx context.Context, q queryer, tr taskRow, l *domain.Log) (StoredTask, error) {
	history, err := listHistory(ctx, q, tr.id)
	if err != nil {
		return StoredTask{}, err
	}
	status, err := domain.ParseStatus(tr.status)
	if err != nil {
		return StoredTask{}, fmt.Errorf("task %s: %w", tr.id, err)
	}
	tags, err := domain.ParseBitVector(tr.tags)
	if err != nil {
		return StoredTask{}, fmt.Errorf("task %s: %w", tr.id, err)
	}
	var sp *float64
	if tr.storyPoint.Valid {
		v := tr.storyPoint.Float64
		sp = &v
	}
	t, err := r.Env.RestoreTask(domain.TaskState{
		ID:          tr.id,
		Title:       tr.title,
		Location:    l,
		Description: tr.description,
		StoryPoint:  sp,
		Priority:    domain.Priority(tr.priority),
		Status:      status,
		Tags:        tags,
		History:     history,
		Modifier:    tr.modifier,
	})
	if err != nil {
		return StoredTask{}, err
	}
	return StoredTask{Task: t, Meta: tr.meta}, nil
}

func listHistory(ctx context.Context, q queryer, taskID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT entry FROM task_history WHERE task_id=? ORDER BY seq`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, rows.Err()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
