package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"clientx/internal/models"
)

// TaskRepository owns task rows and their assignment associations.
type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error
	Delete(ctx context.Context, id int64) error

	SetAssignees(ctx context.Context, taskID int64, userIDs []int64) error
	ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error)

	// sweep queries: only open work is considered
	ListDueOn(ctx context.Context, day time.Time) ([]models.Task, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.Task, error)

	WithTx(tx *sql.Tx) TaskRepository
}

type taskRepository struct {
	db DBTX
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepository{db: tx}
}

const taskColumns = `id, title, COALESCE(description, ''), status, group_id, due_date, created_by, created_at, updated_at`

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	const q = `
		INSERT INTO tasks (title, description, status, group_id, due_date, created_by, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		task.Title, task.Description, task.Status, task.GroupID, task.DueDate, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id).Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.GroupID,
		&task.DueDate, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	assignees, err := r.ListAssigneeIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	task.AssignedTo = assignees
	task.Progress = task.Status.Progress()
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.GroupID != nil {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", argID))
		args = append(args, *filter.GroupID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}
	if filter.CreatorID != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argID))
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions,
			fmt.Sprintf("id IN (SELECT task_id FROM task_assignees WHERE user_id = $%d)", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.CreatedOrAssignedID != nil {
		conditions = append(conditions,
			fmt.Sprintf("(created_by = $%d OR id IN (SELECT task_id FROM task_assignees WHERE user_id = $%d))", argID, argID))
		args = append(args, *filter.CreatedOrAssignedID)
		argID++
	}
	if filter.Keyword != "" {
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR COALESCE(description,'') ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Keyword+"%")
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		baseQuery += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectTasks(ctx, rows)
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET
			title=$1, description=NULLIF($2,''), status=$3, group_id=$4, due_date=$5, updated_at=NOW()
		WHERE id=$6`,
		task.Title, task.Description, task.Status, task.GroupID, task.DueDate, task.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2`, to, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	// task_assignees rows go via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) SetAssignees(ctx context.Context, taskID int64, userIDs []int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO task_assignees (task_id, user_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		taskID, pq.Array(userIDs))
	return err
}

func (r *taskRepository) ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM task_assignees WHERE task_id = $1 ORDER BY user_id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *taskRepository) ListDueOn(ctx context.Context, day time.Time) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE due_date = $1::date AND status IN ('todo','in_progress')
		 ORDER BY id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectTasks(ctx, rows)
}

func (r *taskRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE due_date IS NOT NULL AND due_date < $1::date AND status IN ('todo','in_progress')
		 ORDER BY id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectTasks(ctx, rows)
}

// collectTasks scans the selected rows and loads assignee sets with a single
// follow-up query.
func (r *taskRepository) collectTasks(ctx context.Context, rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	var ids []int64
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.GroupID,
			&t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.AssignedTo = []int64{}
		t.Progress = t.Status.Progress()
		tasks = append(tasks, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	arows, err := r.db.QueryContext(ctx,
		`SELECT task_id, user_id FROM task_assignees WHERE task_id = ANY($1) ORDER BY user_id`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer arows.Close()

	byID := make(map[int64]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}
	for arows.Next() {
		var tid, uid int64
		if err := arows.Scan(&tid, &uid); err != nil {
			return nil, err
		}
		if t, ok := byID[tid]; ok {
			t.AssignedTo = append(t.AssignedTo, uid)
		}
	}
	return tasks, arows.Err()
}
