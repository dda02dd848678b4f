package services

import (
	"context"
	"strings"

	"clientx/internal/authz"
	"clientx/internal/models"
	"clientx/internal/repositories"
)

const searchLimit = 10

// SearchResult buckets the global search output.
type SearchResult struct {
	Employees []*models.User `json:"employees"`
	Tasks     []models.Task  `json:"tasks"`
}

// SearchService matches employees on username/email/department and tasks on
// title/description, scoped by the caller's task visibility.
type SearchService interface {
	Global(ctx context.Context, actor models.Actor, keyword string) (*SearchResult, error)
}

type searchService struct {
	users repositories.UserRepository
	tasks repositories.TaskRepository
}

func NewSearchService(users repositories.UserRepository, tasks repositories.TaskRepository) SearchService {
	return &searchService{users: users, tasks: tasks}
}

func (s *searchService) Global(ctx context.Context, actor models.Actor, keyword string) (*SearchResult, error) {
	result := &SearchResult{Employees: []*models.User{}, Tasks: []models.Task{}}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return result, nil
	}

	employees, err := s.users.Search(ctx, keyword, models.RoleEmployee, searchLimit)
	if err != nil {
		return nil, err
	}
	if employees != nil {
		result.Employees = employees
	}

	filter := models.TaskFilter{Keyword: keyword, Limit: searchLimit}
	switch {
	case authz.IsAdmin(actor.Role, actor.Superuser):
		// unrestricted
	case actor.Role == models.RoleManager:
		filter.CreatedOrAssignedID = &actor.ID
	default:
		// employees and clients see only their own assignments
		filter.AssigneeID = &actor.ID
	}
	tasks, err := s.tasks.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks != nil {
		result.Tasks = tasks
	}
	return result, nil
}
