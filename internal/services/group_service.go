package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"clientx/internal/authz"
	"clientx/internal/models"
	"clientx/internal/repositories"
)

// GroupService is the group registry: named member sets that tasks can
// target as a unit.
type GroupService interface {
	Create(ctx context.Context, actor models.Actor, group *models.TaskGroup) (*models.TaskGroup, error)
	GetByID(ctx context.Context, id int64) (*models.TaskGroup, error)
	List(ctx context.Context) ([]models.TaskGroup, error)
	Update(ctx context.Context, actor models.Actor, group *models.TaskGroup) (*models.TaskGroup, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
	SetMembers(ctx context.Context, actor models.Actor, groupID int64, memberIDs []int64) (*models.TaskGroup, error)
}

type groupService struct {
	tx     repositories.Transactor
	groups repositories.GroupRepository
	users  repositories.UserRepository
}

func NewGroupService(tx repositories.Transactor, groups repositories.GroupRepository, users repositories.UserRepository) GroupService {
	return &groupService{tx: tx, groups: groups, users: users}
}

func (s *groupService) Create(ctx context.Context, actor models.Actor, group *models.TaskGroup) (*models.TaskGroup, error) {
	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(group.Name) == "" {
		return nil, validationErr("name", "name is required")
	}
	if err := s.checkUsersExist(ctx, group.Members); err != nil {
		return nil, err
	}
	group.CreatedBy = &actor.ID
	members := group.Members

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		groups := s.groups.WithTx(tx)
		if err := groups.Store(ctx, group); err != nil {
			return err
		}
		return groups.SetMembers(ctx, group.ID, members)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationErr("name", "group name already taken")
		}
		return nil, err
	}
	if group.Members == nil {
		group.Members = []int64{}
	}
	return group, nil
}

func (s *groupService) GetByID(ctx context.Context, id int64) (*models.TaskGroup, error) {
	group, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return group, err
}

func (s *groupService) List(ctx context.Context) ([]models.TaskGroup, error) {
	return s.groups.FindAll(ctx)
}

func (s *groupService) Update(ctx context.Context, actor models.Actor, group *models.TaskGroup) (*models.TaskGroup, error) {
	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(group.Name) == "" {
		return nil, validationErr("name", "name is required")
	}
	if err := s.groups.Update(ctx, group); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationErr("name", "group name already taken")
		}
		return nil, err
	}
	return s.GetByID(ctx, group.ID)
}

func (s *groupService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		return ErrPermissionDenied
	}
	err := s.groups.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// SetMembers replaces the member set. Membership changes do not touch the
// assignee sets of tasks already resolved against this group.
func (s *groupService) SetMembers(ctx context.Context, actor models.Actor, groupID int64, memberIDs []int64) (*models.TaskGroup, error) {
	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		return nil, ErrPermissionDenied
	}
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	if err := s.checkUsersExist(ctx, memberIDs); err != nil {
		return nil, err
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.groups.WithTx(tx).SetMembers(ctx, groupID, memberIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, groupID)
}

func (s *groupService) checkUsersExist(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return validationErr("members", "user does not exist")
			}
			return err
		}
	}
	return nil
}
