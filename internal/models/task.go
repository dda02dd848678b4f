package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusCompleted  TaskStatus = "completed"
)

// IsValidTaskStatus reports whether s is a member of the status enum.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusCompleted:
		return true
	}
	return false
}

// Progress maps a status to its display percentage. Display only; no
// transition ordering is enforced anywhere.
func (s TaskStatus) Progress() int {
	switch s {
	case StatusInProgress:
		return 50
	case StatusReview:
		return 80
	case StatusCompleted:
		return 100
	}
	return 0
}

// Task represents the structure of a task in the system. AssignedTo is the
// resolved assignee set; it is never empty after create or after an update
// that touches assignment.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	AssignedTo  []int64    `json:"assigned_to"`
	GroupID     *int64     `json:"group,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   *int64     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskInput carries the caller-supplied fields on create.
type TaskInput struct {
	Title       string
	Description string
	Status      TaskStatus
	AssignedTo  []int64
	GroupID     *int64
	DueDate     *time.Time
}

// TaskUpdate is a partial update: nil fields are left untouched. AssignedTo
// and GroupID distinguish "absent" (nil outer pointer) from "explicitly set";
// assignment is re-resolved only when at least one of them is present.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	AssignedTo  *[]int64
	GroupID     **int64
	DueDate     **time.Time
}

// TouchesAssignment reports whether the update supplies a new assignee list
// and/or group, which triggers assignment re-resolution.
func (u *TaskUpdate) TouchesAssignment() bool {
	return u.AssignedTo != nil || u.GroupID != nil
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	GroupID    *int64
	Status     *TaskStatus
	CreatorID  *int64
	AssigneeID *int64 // visibility restriction for employee/client callers
	// CreatedOrAssignedID scopes to tasks the user created or is assigned to
	// (manager search visibility).
	CreatedOrAssignedID *int64
	Keyword             string
	Limit               int
}
