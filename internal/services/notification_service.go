package services

import (
	"context"
	"fmt"
	"log"

	"clientx/internal/models"
	"clientx/internal/repositories"
)

// NotificationService is the fan-out engine plus the per-user feed. Lifecycle
// events are emitted explicitly by the task service inside the mutation's
// transaction; audiences are resolved live through the user directory.
//
// Every recipient's write is independent: a failed write is logged and does
// not abort the triggering mutation or sibling writes. One-shot classes
// (assigned/created/updated) always produce a fresh record; the due/overdue
// classes are idempotent per (recipient, task, notif_type).
type NotificationService struct {
	notifs repositories.NotificationRepository
	users  repositories.UserRepository
}

func NewNotificationService(notifs repositories.NotificationRepository, users repositories.UserRepository) *NotificationService {
	return &NotificationService{notifs: notifs, users: users}
}

// TaskCreated fans out the creation event: every admin hears about the new
// task; a manager creating a task also gets a self-confirmation.
func (s *NotificationService) TaskCreated(ctx context.Context, notifs repositories.NotificationRepository, task *models.Task, creator *models.User) {
	if creator != nil && creator.Role == models.RoleManager {
		s.create(ctx, notifs, &models.Notification{
			UserID:    creator.ID,
			TaskID:    &task.ID,
			Title:     "Task Created",
			Message:   fmt.Sprintf("New task '%s' created by you", task.Title),
			NotifType: models.NotifTaskAssigned,
		})
	}
	creatorName := "unknown"
	if creator != nil {
		creatorName = creator.Username
	}
	for _, admin := range s.listByRole(ctx, models.RoleAdmin) {
		s.create(ctx, notifs, &models.Notification{
			UserID:    admin.ID,
			TaskID:    &task.ID,
			Title:     "New Task Created",
			Message:   fmt.Sprintf("New task '%s' created by %s", task.Title, creatorName),
			NotifType: models.NotifAdminTaskCreated,
		})
	}
}

// AssignmentAdded fans out a post-resolution assignment change: each newly
// added assignee is told about the task, and every admin sees the new
// assignee count.
func (s *NotificationService) AssignmentAdded(ctx context.Context, notifs repositories.NotificationRepository, task *models.Task, added []int64, total int) {
	if len(added) == 0 {
		return
	}
	for _, userID := range added {
		s.create(ctx, notifs, &models.Notification{
			UserID:    userID,
			TaskID:    &task.ID,
			Title:     "Task Assigned",
			Message:   fmt.Sprintf("You have been assigned to task '%s'", task.Title),
			NotifType: models.NotifTaskAssigned,
		})
	}
	for _, admin := range s.listByRole(ctx, models.RoleAdmin) {
		s.create(ctx, notifs, &models.Notification{
			UserID:    admin.ID,
			TaskID:    &task.ID,
			Title:     "Task Assignment Update",
			Message:   fmt.Sprintf("Task '%s' assigned to %d users", task.Title, total),
			NotifType: models.NotifAdminTaskCreated,
		})
	}
}

// TaskUpdated fans out a non-creation update: employee assignees (except the
// actor), the manager who created the task, and every admin. Not
// deduplicated: each update event produces fresh records even when nothing
// visible changed.
func (s *NotificationService) TaskUpdated(ctx context.Context, notifs repositories.NotificationRepository, task *models.Task, updater *models.User, creator *models.User) {
	for _, userID := range task.AssignedTo {
		if updater != nil && userID == updater.ID {
			continue
		}
		assignee, err := s.users.GetByID(ctx, userID)
		if err != nil {
			log.Printf("[notify][task_updated] lookup assignee=%d failed: %v", userID, err)
			continue
		}
		if assignee.Role != models.RoleEmployee {
			continue
		}
		s.create(ctx, notifs, &models.Notification{
			UserID:    userID,
			TaskID:    &task.ID,
			Title:     "Task Updated",
			Message:   fmt.Sprintf("Task '%s' has been updated", task.Title),
			NotifType: models.NotifTaskUpdated,
		})
	}

	if creator != nil && creator.Role == models.RoleManager {
		s.create(ctx, notifs, &models.Notification{
			UserID:    creator.ID,
			TaskID:    &task.ID,
			Title:     "Task Activity",
			Message:   fmt.Sprintf("Task '%s' updated", task.Title),
			NotifType: models.NotifTaskUpdated,
		})
	}

	updaterName := "unknown"
	if updater != nil {
		updaterName = updater.Username
	}
	for _, admin := range s.listByRole(ctx, models.RoleAdmin) {
		s.create(ctx, notifs, &models.Notification{
			UserID:    admin.ID,
			TaskID:    &task.ID,
			Title:     "Task Update",
			Message:   fmt.Sprintf("Task '%s' updated by %s", task.Title, updaterName),
			NotifType: models.NotifAdminTaskUpdated,
		})
	}
}

// NotifyDueSoon alerts each employee assignee that the task is due tomorrow.
// Idempotent per (user, task): re-running the sweep never duplicates.
func (s *NotificationService) NotifyDueSoon(ctx context.Context, notifs repositories.NotificationRepository, task *models.Task) {
	for _, userID := range task.AssignedTo {
		assignee, err := s.users.GetByID(ctx, userID)
		if err != nil {
			log.Printf("[notify][task_due] lookup assignee=%d failed: %v", userID, err)
			continue
		}
		if assignee.Role != models.RoleEmployee {
			continue
		}
		s.createUnique(ctx, notifs, &models.Notification{
			UserID:    userID,
			TaskID:    &task.ID,
			Title:     "Task Due Soon",
			Message:   fmt.Sprintf("Task '%s' is due tomorrow!", task.Title),
			NotifType: models.NotifTaskDue,
		})
	}
}

// NotifyOverdue alerts every manager and every admin that the task is past
// its due date. Idempotent per (user, task, type).
func (s *NotificationService) NotifyOverdue(ctx context.Context, notifs repositories.NotificationRepository, task *models.Task) {
	for _, manager := range s.listByRole(ctx, models.RoleManager) {
		s.createUnique(ctx, notifs, &models.Notification{
			UserID:    manager.ID,
			TaskID:    &task.ID,
			Title:     "Task Overdue",
			Message:   fmt.Sprintf("Task '%s' is overdue", task.Title),
			NotifType: models.NotifManagerTaskOverdue,
		})
	}
	for _, admin := range s.listByRole(ctx, models.RoleAdmin) {
		s.createUnique(ctx, notifs, &models.Notification{
			UserID:    admin.ID,
			TaskID:    &task.ID,
			Title:     "Task Overdue",
			Message:   fmt.Sprintf("Task '%s' is overdue", task.Title),
			NotifType: models.NotifAdminTaskOverdue,
		})
	}
}

// ---- feed ----

func (s *NotificationService) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.notifs.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifs.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifs.CountUnread(ctx, userID)
}

// ---- helpers ----

func (s *NotificationService) listByRole(ctx context.Context, role models.Role) []*models.User {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		log.Printf("[notify] list %s users failed: %v", role, err)
		return nil
	}
	return users
}

func (s *NotificationService) create(ctx context.Context, notifs repositories.NotificationRepository, n *models.Notification) {
	if err := notifs.Create(ctx, n); err != nil {
		log.Printf("[notify][%s] create for user=%d failed: %v", n.NotifType, n.UserID, err)
	}
}

func (s *NotificationService) createUnique(ctx context.Context, notifs repositories.NotificationRepository, n *models.Notification) {
	created, err := notifs.CreateUnique(ctx, n)
	if err != nil {
		log.Printf("[notify][%s] create for user=%d failed: %v", n.NotifType, n.UserID, err)
		return
	}
	if !created {
		log.Printf("[notify][%s] skip duplicate user=%d task=%v", n.NotifType, n.UserID, n.TaskID)
	}
}
