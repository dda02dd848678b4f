package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientx/internal/models"
)

type fakeEmailService struct {
	sent []string
	err  error
}

func (f *fakeEmailService) SendWelcomeEmail(email, username string) error {
	f.sent = append(f.sent, email)
	return f.err
}

type noopAuthService struct{}

func (noopAuthService) HashPassword(plain string) (string, error)        { return "hashed:" + plain, nil }
func (noopAuthService) CheckPassword(hash, plain string) error           { return nil }
func (noopAuthService) NewAccessToken(user *models.User) (string, error) { return "access", nil }
func (noopAuthService) NewRefreshToken() (string, error)                 { return "refresh", nil }
func (noopAuthService) RefreshTTL() time.Duration                        { return time.Hour }

func TestRegisterForcesEmployeeForManager(t *testing.T) {
	repo := newFakeUserRepo()
	emails := &fakeEmailService{}
	svc := NewUserService(repo, emails, noopAuthService{})

	manager := models.Actor{ID: 10, Role: models.RoleManager}
	user := &models.User{Username: "eve", Email: "eve@example.com", Role: models.RoleManager}
	require.NoError(t, svc.Register(context.Background(), manager, user, "secret"))

	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.Equal(t, "hashed:secret", user.PasswordHash)
	assert.Equal(t, []string{"eve@example.com"}, emails.sent)
}

func TestRegisterAdminKeepsRequestedRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &fakeEmailService{}, noopAuthService{})

	admin := models.Actor{ID: 99, Role: models.RoleAdmin}
	user := &models.User{Username: "eve", Email: "eve@example.com", Role: models.RoleManager}
	require.NoError(t, svc.Register(context.Background(), admin, user, "secret"))
	assert.Equal(t, models.RoleManager, user.Role)
}

func TestRegisterDefaultsToEmployee(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &fakeEmailService{}, noopAuthService{})

	admin := models.Actor{ID: 99, Role: models.RoleAdmin}
	user := &models.User{Username: "eve", Email: "eve@example.com"}
	require.NoError(t, svc.Register(context.Background(), admin, user, "secret"))
	assert.Equal(t, models.RoleEmployee, user.Role)
}

func TestRegisterDeniedForNonManagers(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), &fakeEmailService{}, noopAuthService{})
	for _, role := range []models.Role{models.RoleEmployee, models.RoleClient} {
		err := svc.Register(context.Background(), models.Actor{ID: 1, Role: role}, &models.User{Username: "x"}, "p")
		assert.ErrorIs(t, err, ErrPermissionDenied, "role %s", role)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), &fakeEmailService{}, noopAuthService{})
	admin := models.Actor{ID: 99, Role: models.RoleAdmin}

	err := svc.Register(context.Background(), admin, &models.User{Username: " "}, "p")
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "username", ve.Field)

	err = svc.Register(context.Background(), admin, &models.User{Username: "x"}, "")
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "password", ve.Field)

	err = svc.Register(context.Background(), admin, &models.User{Username: "x", Role: "tsar"}, "p")
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "role", ve.Field)
}

func TestRegisterSurvivesEmailFailure(t *testing.T) {
	repo := newFakeUserRepo()
	emails := &fakeEmailService{err: errors.New("smtp down")}
	svc := NewUserService(repo, emails, noopAuthService{})

	admin := models.Actor{ID: 99, Role: models.RoleAdmin}
	user := &models.User{Username: "eve", Email: "eve@example.com"}
	require.NoError(t, svc.Register(context.Background(), admin, user, "secret"))

	_, err := repo.GetByUsername(context.Background(), "eve")
	assert.NoError(t, err)
}

func TestUserGetByIDMapsNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), &fakeEmailService{}, noopAuthService{})
	_, err := svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
