package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clientx/internal/models"
)

func TestCanManageTasks(t *testing.T) {
	tests := []struct {
		role      models.Role
		superuser bool
		want      bool
	}{
		{models.RoleAdmin, false, true},
		{models.RoleManager, false, true},
		{models.RoleEmployee, false, false},
		{models.RoleClient, false, false},
		{models.RoleEmployee, true, true}, // superuser overrides role
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanManageTasks(tt.role, tt.superuser), "role=%s superuser=%v", tt.role, tt.superuser)
	}
}

func TestCanViewTask(t *testing.T) {
	assignees := []int64{1, 2}
	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"admin sees everything", models.Actor{ID: 50, Role: models.RoleAdmin}, true},
		{"manager sees everything", models.Actor{ID: 50, Role: models.RoleManager}, true},
		{"assigned employee", models.Actor{ID: 1, Role: models.RoleEmployee}, true},
		{"unassigned employee", models.Actor{ID: 3, Role: models.RoleEmployee}, false},
		{"assigned client", models.Actor{ID: 2, Role: models.RoleClient}, true},
		{"unassigned client", models.Actor{ID: 3, Role: models.RoleClient}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewTask(tt.actor, assignees))
		})
	}
}

func TestCanUpdateStatus(t *testing.T) {
	assignees := []int64{1}
	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"admin", models.Actor{ID: 50, Role: models.RoleAdmin}, true},
		{"manager", models.Actor{ID: 50, Role: models.RoleManager}, true},
		{"assigned employee", models.Actor{ID: 1, Role: models.RoleEmployee}, true},
		{"unassigned employee", models.Actor{ID: 2, Role: models.RoleEmployee}, false},
		{"assigned client stays read-only", models.Actor{ID: 1, Role: models.RoleClient}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUpdateStatus(tt.actor, assignees))
		})
	}
}

func TestRegistrationRole(t *testing.T) {
	tests := []struct {
		name             string
		creatorRole      models.Role
		creatorSuperuser bool
		requested        models.Role
		want             models.Role
	}{
		{"admin grants requested role", models.RoleAdmin, false, models.RoleManager, models.RoleManager},
		{"admin grants client role", models.RoleAdmin, false, models.RoleClient, models.RoleClient},
		{"manager forced to employee", models.RoleManager, false, models.RoleManager, models.RoleEmployee},
		{"manager forced even for client", models.RoleManager, false, models.RoleClient, models.RoleEmployee},
		{"superuser manager keeps requested", models.RoleManager, true, models.RoleManager, models.RoleManager},
		{"empty request defaults to employee", models.RoleAdmin, false, "", models.RoleEmployee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrationRole(tt.creatorRole, tt.creatorSuperuser, tt.requested))
		})
	}
}
