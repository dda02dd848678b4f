package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"clientx/internal/authz"
	"clientx/internal/models"
	"clientx/internal/repositories"
)

// UserService is the user directory surface: account CRUD plus the role
// queries the fan-out engine depends on.
type UserService interface {
	Register(ctx context.Context, creator models.Actor, user *models.User, plainPassword string) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)

	// auth plumbing
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
}

type userService struct {
	repo   repositories.UserRepository
	emails EmailService
	auth   AuthService
}

func NewUserService(repo repositories.UserRepository, emails EmailService, auth AuthService) UserService {
	return &userService{repo: repo, emails: emails, auth: auth}
}

// Register creates an account on behalf of an admin or manager. A manager's
// requested role is force-overridden to employee unless the manager is a
// superuser.
func (s *userService) Register(ctx context.Context, creator models.Actor, user *models.User, plainPassword string) error {
	if !authz.IsAdminOrManager(creator.Role, creator.Superuser) {
		return ErrPermissionDenied
	}
	if strings.TrimSpace(user.Username) == "" {
		return validationErr("username", "username is required")
	}
	if strings.TrimSpace(plainPassword) == "" {
		return validationErr("password", "password is required")
	}
	if user.Role != "" && !models.IsValidRole(user.Role) {
		return validationErr("role", "unknown role")
	}
	user.Role = authz.RegistrationRole(creator.Role, creator.Superuser, user.Role)

	hash, err := s.auth.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return validationErr("username", "username, email or phone already taken")
		}
		return err
	}

	if s.emails != nil && user.Email != "" {
		if err := s.emails.SendWelcomeEmail(user.Email, user.Username); err != nil {
			// warn but do not fail creation
			log.Printf("[user][register] warning: welcome email to %s failed: %v", user.Email, err)
		}
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *userService) Update(ctx context.Context, user *models.User) error {
	err := s.repo.Update(ctx, user)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, repositories.ErrDuplicate) {
		return validationErr("username", "username, email or phone already taken")
	}
	return err
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *userService) CountByRole(ctx context.Context, role models.Role) (int, error) {
	return s.repo.CountByRole(ctx, role)
}

func (s *userService) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(ctx, userID, token, expiresAt)
}

func (s *userService) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	u, err := s.repo.GetByRefreshToken(ctx, token)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *userService) ClearRefresh(ctx context.Context, userID int64) error {
	return s.repo.ClearRefresh(ctx, userID)
}
