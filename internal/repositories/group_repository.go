package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"clientx/internal/models"
)

// GroupRepository owns task groups and their member sets.
type GroupRepository interface {
	Store(ctx context.Context, group *models.TaskGroup) error
	FindByID(ctx context.Context, id int64) (*models.TaskGroup, error)
	FindAll(ctx context.Context) ([]models.TaskGroup, error)
	Update(ctx context.Context, group *models.TaskGroup) error
	Delete(ctx context.Context, id int64) error
	SetMembers(ctx context.Context, groupID int64, userIDs []int64) error
	ListMemberIDs(ctx context.Context, groupID int64) ([]int64, error)

	WithTx(tx *sql.Tx) GroupRepository
}

type groupRepository struct {
	db DBTX
}

func NewGroupRepository(db *sql.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) WithTx(tx *sql.Tx) GroupRepository {
	return &groupRepository{db: tx}
}

// progress = completed tasks / all tasks of the group, 0 when the group has
// no tasks.
const groupColumns = `g.id, g.name, COALESCE(g.description, ''), g.created_by, g.created_at,
       COALESCE((SELECT AVG(CASE WHEN t.status = 'completed' THEN 1.0 ELSE 0.0 END)
                 FROM tasks t WHERE t.group_id = g.id), 0)`

func (r *groupRepository) Store(ctx context.Context, group *models.TaskGroup) error {
	const q = `
		INSERT INTO task_groups (name, description, created_by)
		VALUES ($1, NULLIF($2,''), $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q, group.Name, group.Description, group.CreatedBy).
		Scan(&group.ID, &group.CreatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *groupRepository) FindByID(ctx context.Context, id int64) (*models.TaskGroup, error) {
	g := &models.TaskGroup{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM task_groups g WHERE g.id = $1`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.Progress)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	members, err := r.ListMemberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Members = members
	return g, nil
}

func (r *groupRepository) FindAll(ctx context.Context) ([]models.TaskGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM task_groups g ORDER BY g.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.TaskGroup
	var ids []int64
	for rows.Next() {
		var g models.TaskGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.Progress); err != nil {
			return nil, err
		}
		g.Members = []int64{}
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return groups, nil
	}

	mrows, err := r.db.QueryContext(ctx,
		`SELECT group_id, user_id FROM group_members WHERE group_id = ANY($1) ORDER BY user_id`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	byID := make(map[int64]*models.TaskGroup, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}
	for mrows.Next() {
		var gid, uid int64
		if err := mrows.Scan(&gid, &uid); err != nil {
			return nil, err
		}
		if g, ok := byID[gid]; ok {
			g.Members = append(g.Members, uid)
		}
	}
	return groups, mrows.Err()
}

func (r *groupRepository) Update(ctx context.Context, group *models.TaskGroup) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE task_groups SET name=$1, description=NULLIF($2,'') WHERE id=$3`,
		group.Name, group.Description, group.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *groupRepository) SetMembers(ctx context.Context, groupID int64, userIDs []int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		groupID, pq.Array(userIDs))
	return err
}

func (r *groupRepository) ListMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY user_id`, groupID)
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
