package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"clientx/internal/models"
)

// UserRepository is the user directory: identity, role and group-independent
// account state. The fan-out engine resolves its audiences through ListByRole.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	Search(ctx context.Context, keyword string, role models.Role, limit int) ([]*models.User, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error

	// telegram delivery settings
	GetTelegramSettings(ctx context.Context, userID int64) (chatID int64, notify bool, err error)

	WithTx(tx *sql.Tx) UserRepository
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *sql.Tx) UserRepository {
	return &userRepository{db: tx}
}

const userColumns = `id, username, email, COALESCE(phone, ''), password_hash, role, is_superuser,
       COALESCE(department, ''), COALESCE(company, ''),
       refresh_token, refresh_expires_at, refresh_revoked,
       COALESCE(telegram_chat_id, 0), notify_telegram, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Superuser,
		&u.Department, &u.Company,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
		&u.TelegramChatID, &u.NotifyTelegram, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (username, email, phone, password_hash, role, is_superuser, department, company)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, q,
		user.Username, user.Email, user.Phone, user.PasswordHash,
		user.Role, user.Superuser, user.Department, user.Company,
	).Scan(&user.ID, &user.CreatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users SET
			username=$1, email=$2, phone=NULLIF($3,''), role=$4, is_superuser=$5,
			department=$6, company=$7, telegram_chat_id=NULLIF($8,0), notify_telegram=$9
		WHERE id=$10`
	res, err := r.db.ExecContext(ctx, q,
		user.Username, user.Email, user.Phone, user.Role, user.Superuser,
		user.Department, user.Company, user.TelegramChatID, user.NotifyTelegram, user.ID,
	)
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

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

func (r *userRepository) Search(ctx context.Context, keyword string, role models.Role, limit int) ([]*models.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1
		  AND (username ILIKE $2 OR email ILIKE $2 OR COALESCE(department,'') ILIKE $2)
		ORDER BY id
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, role, "%"+keyword+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE WHERE id=$3`,
		token, expiresAt, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE refresh_token = $1 AND NOT refresh_revoked AND refresh_expires_at > NOW()`, token))
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE WHERE id=$1`,
		userID)
	return err
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	var chatID int64
	var notify bool
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(telegram_chat_id, 0), notify_telegram FROM users WHERE id = $1`,
		userID).Scan(&chatID, &notify)
	if err == sql.ErrNoRows {
		return 0, false, ErrNotFound
	}
	return chatID, notify, err
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
