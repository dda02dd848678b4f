package repositories

import (
	"context"
	"database/sql"

	"clientx/internal/models"
)

// NotificationRepository is the append-only notification stream. Records are
// created only by the fan-out engine; the only mutation is marking read.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// CreateUnique inserts with the (user, task, notif_type) idempotency key:
	// a duplicate is silently skipped and reported as created=false.
	CreateUnique(ctx context.Context, n *models.Notification) (created bool, err error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int, error)

	WithTx(tx *sql.Tx) NotificationRepository
}

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *sql.Tx) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, task_id, title, message, notif_type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		n.UserID, n.TaskID, n.Title, n.Message, n.NotifType,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) CreateUnique(ctx context.Context, n *models.Notification) (bool, error) {
	const q = `
		INSERT INTO notifications (user_id, task_id, title, message, notif_type)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, task_id, notif_type) WHERE notif_type IN ('task_due','manager_task_overdue','admin_task_overdue')
		DO NOTHING
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		n.UserID, n.TaskID, n.Title, n.Message, n.NotifType,
	).Scan(&n.ID, &n.CreatedAt)
	if err == sql.ErrNoRows {
		// idempotency key hit: already notified
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error) {
	const q = `
		SELECT id, user_id, task_id, title, message, notif_type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.TaskID, &n.Title, &n.Message, &n.NotifType, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}
