package models

import "time"

// TaskGroup is a named collection of users that a task can target as a unit.
// Membership is mutated independently of tasks.
type TaskGroup struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Members     []int64   `json:"members"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Progress    float64   `json:"progress"` // completed / total of the group's tasks
}
