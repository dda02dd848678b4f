package models

import "time"

// NotifType classifies a notification for its audience.
type NotifType string

const (
	NotifTaskAssigned       NotifType = "task_assigned"
	NotifTaskUpdated        NotifType = "task_updated"
	NotifTaskDue            NotifType = "task_due"
	NotifTaskCompleted      NotifType = "task_completed"
	NotifAdminTaskCreated   NotifType = "admin_task_created"
	NotifAdminTaskUpdated   NotifType = "admin_task_updated"
	NotifManagerTaskOverdue NotifType = "manager_task_overdue"
	NotifAdminTaskOverdue   NotifType = "admin_task_overdue"
)

// IsIdempotentNotifType reports whether at most one stored record may exist
// per (user, task, type) for this type. These are the sweep-produced classes;
// one-shot event classes are never deduplicated.
func IsIdempotentNotifType(t NotifType) bool {
	switch t {
	case NotifTaskDue, NotifManagerTaskOverdue, NotifAdminTaskOverdue:
		return true
	}
	return false
}

// Notification is an append-only record owned by its recipient. Created only
// by the fan-out engine; mutated only to flip IsRead.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TaskID    *int64    `json:"task_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	NotifType NotifType `json:"notif_type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
