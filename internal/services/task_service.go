package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"clientx/internal/authz"
	"clientx/internal/models"
	"clientx/internal/repositories"
)

// TaskService owns task lifecycle and the assignment-resolution algorithm.
// Each mutation runs as one transaction covering the row change, the
// assignment set and the notification fan-out for that event.
type TaskService interface {
	Create(ctx context.Context, actor models.Actor, in *models.TaskInput) (*models.Task, error)
	GetByID(ctx context.Context, actor models.Actor, id int64) (*models.Task, error)
	List(ctx context.Context, actor models.Actor, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, actor models.Actor, id int64, upd *models.TaskUpdate) (*models.Task, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id int64, to models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

type taskService struct {
	tx     repositories.Transactor
	tasks  repositories.TaskRepository
	groups repositories.GroupRepository
	users  repositories.UserRepository
	fanout *NotificationService
}

func NewTaskService(
	tx repositories.Transactor,
	tasks repositories.TaskRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	fanout *NotificationService,
) TaskService {
	return &taskService{tx: tx, tasks: tasks, groups: groups, users: users, fanout: fanout}
}

// resolveAssignees derives the final assignee set: explicit users unioned
// with the group's current members, falling back to the acting user when the
// union is empty (including a supplied group with zero members). The result
// is deduplicated and sorted; it is never empty.
func resolveAssignees(explicit, groupMembers []int64, fallback int64) []int64 {
	set := make(map[int64]struct{}, len(explicit)+len(groupMembers))
	for _, id := range explicit {
		set[id] = struct{}{}
	}
	for _, id := range groupMembers {
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		set[fallback] = struct{}{}
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *taskService) Create(ctx context.Context, actor models.Actor, in *models.TaskInput) (*models.Task, error) {
	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErr("title", "title is required")
	}
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if !models.IsValidTaskStatus(in.Status) {
		return nil, validationErr("status", "unknown status")
	}
	if err := s.checkUsersExist(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	var groupMembers []int64
	if in.GroupID != nil {
		var err error
		groupMembers, err = s.groupMembers(ctx, *in.GroupID)
		if err != nil {
			return nil, err
		}
	}

	creator, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		GroupID:     in.GroupID,
		DueDate:     in.DueDate,
		CreatedBy:   &actor.ID,
	}
	final := resolveAssignees(in.AssignedTo, groupMembers, actor.ID)

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)
		notifs := s.fanout.notifs.WithTx(tx)

		if err := tasks.Store(ctx, task); err != nil {
			return err
		}
		if err := tasks.SetAssignees(ctx, task.ID, final); err != nil {
			return err
		}
		task.AssignedTo = final
		task.Progress = task.Status.Progress()

		s.fanout.TaskCreated(ctx, notifs, task, creator)
		s.fanout.AssignmentAdded(ctx, notifs, task, final, len(final))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, actor models.Actor, id int64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authz.CanViewTask(actor, task.AssignedTo) {
		return nil, ErrPermissionDenied
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, actor models.Actor, filter models.TaskFilter) ([]models.Task, error) {
	if !authz.IsAdminOrManager(actor.Role, actor.Superuser) {
		// employees and clients see only their own assignments
		filter.AssigneeID = &actor.ID
	}
	return s.tasks.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, actor models.Actor, id int64, upd *models.TaskUpdate) (*models.Task, error) {
	current, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !authz.CanManageTasks(actor.Role, actor.Superuser) {
		// an assigned employee may flip status, nothing else
		if upd.Status == nil || upd.Title != nil || upd.Description != nil || upd.DueDate != nil || upd.TouchesAssignment() {
			return nil, ErrPermissionDenied
		}
		return s.UpdateStatus(ctx, actor, id, *upd.Status)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, validationErr("title", "title is required")
		}
		current.Title = *upd.Title
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.Status != nil {
		if !models.IsValidTaskStatus(*upd.Status) {
			return nil, validationErr("status", "unknown status")
		}
		current.Status = *upd.Status
	}
	if upd.DueDate != nil {
		current.DueDate = *upd.DueDate
	}
	if upd.GroupID != nil {
		current.GroupID = *upd.GroupID
	}

	// re-resolve only when assignment fields are supplied; otherwise the
	// existing assignee set stays untouched
	var final []int64
	if upd.TouchesAssignment() {
		explicit := []int64{}
		if upd.AssignedTo != nil {
			explicit = *upd.AssignedTo
		}
		if err := s.checkUsersExist(ctx, explicit); err != nil {
			return nil, err
		}
		var groupMembers []int64
		if upd.GroupID != nil && *upd.GroupID != nil {
			groupMembers, err = s.groupMembers(ctx, **upd.GroupID)
			if err != nil {
				return nil, err
			}
		}
		final = resolveAssignees(explicit, groupMembers, actor.ID)
	}

	updater, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	creator := s.loadCreator(ctx, current)

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)
		notifs := s.fanout.notifs.WithTx(tx)

		if err := tasks.Update(ctx, current); err != nil {
			return err
		}
		var added []int64
		if final != nil {
			if err := tasks.SetAssignees(ctx, current.ID, final); err != nil {
				return err
			}
			added = diffIDs(final, current.AssignedTo)
			current.AssignedTo = final
		}
		current.Progress = current.Status.Progress()

		s.fanout.TaskUpdated(ctx, notifs, current, updater, creator)
		s.fanout.AssignmentAdded(ctx, notifs, current, added, len(current.AssignedTo))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (s *taskService) UpdateStatus(ctx context.Context, actor models.Actor, id int64, to models.TaskStatus) (*models.Task, error) {
	if !models.IsValidTaskStatus(to) {
		return nil, validationErr("status", "unknown status")
	}
	current, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authz.CanUpdateStatus(actor, current.AssignedTo) {
		return nil, ErrPermissionDenied
	}

	updater, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	creator := s.loadCreator(ctx, current)

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)
		notifs := s.fanout.notifs.WithTx(tx)

		if err := tasks.UpdateStatus(ctx, id, to); err != nil {
			return err
		}
		current.Status = to
		current.Progress = to.Progress()

		s.fanout.TaskUpdated(ctx, notifs, current, updater, creator)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (s *taskService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if !authz.CanDeleteTask(actor.Role, actor.Superuser) {
		return ErrPermissionDenied
	}
	err := s.tasks.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- helpers ----

func (s *taskService) groupMembers(ctx context.Context, groupID int64) ([]int64, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, validationErr("group", "group does not exist")
		}
		return nil, err
	}
	return group.Members, nil
}

func (s *taskService) checkUsersExist(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return validationErr("assigned_to", "user does not exist")
			}
			return err
		}
	}
	return nil
}

func (s *taskService) loadCreator(ctx context.Context, task *models.Task) *models.User {
	if task.CreatedBy == nil {
		return nil
	}
	creator, err := s.users.GetByID(ctx, *task.CreatedBy)
	if err != nil {
		return nil
	}
	return creator
}

// diffIDs returns the ids present in next but not in prev.
func diffIDs(next, prev []int64) []int64 {
	seen := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}
	var added []int64
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			added = append(added, id)
		}
	}
	return added
}
