package authz

import "clientx/internal/models"

// Pure role predicates, no side effects. Checked before every store mutation
// and before read-filtering.

func IsAdmin(role models.Role, superuser bool) bool {
	return role == models.RoleAdmin || superuser
}

func IsAdminOrManager(role models.Role, superuser bool) bool {
	return superuser || role == models.RoleAdmin || role == models.RoleManager
}

// CanManageTasks gates task/group create, full update and delete.
func CanManageTasks(role models.Role, superuser bool) bool {
	return IsAdminOrManager(role, superuser)
}

// CanViewTask reports whether a caller may read a task. Employees and
// clients see only tasks they are assigned to.
func CanViewTask(actor models.Actor, assignees []int64) bool {
	if IsAdminOrManager(actor.Role, actor.Superuser) {
		return true
	}
	return contains(assignees, actor.ID)
}

// CanUpdateStatus reports whether a caller may change a task's status:
// admin/manager always, an employee only on tasks assigned to them. Clients
// are read-only.
func CanUpdateStatus(actor models.Actor, assignees []int64) bool {
	if IsAdminOrManager(actor.Role, actor.Superuser) {
		return true
	}
	return actor.Role == models.RoleEmployee && contains(assignees, actor.ID)
}

func CanDeleteTask(role models.Role, superuser bool) bool {
	return IsAdminOrManager(role, superuser)
}

// RegistrationRole resolves the role stored for a new account. A manager may
// only create employee accounts: the requested role is force-overridden
// unless the manager is also a superuser.
func RegistrationRole(creatorRole models.Role, creatorSuperuser bool, requested models.Role) models.Role {
	if requested == "" {
		requested = models.RoleEmployee
	}
	if creatorRole == models.RoleManager && !creatorSuperuser {
		return models.RoleEmployee
	}
	return requested
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
