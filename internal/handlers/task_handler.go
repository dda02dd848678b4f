package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"clientx/internal/models"
	"clientx/internal/repositories"
	"clientx/internal/services"
)

type TaskHandler struct {
	service  services.TaskService
	users    repositories.UserRepository
	telegram *services.TelegramService
}

func NewTaskHandler(service services.TaskService, users repositories.UserRepository, telegram *services.TelegramService) *TaskHandler {
	return &TaskHandler{service: service, users: users, telegram: telegram}
}

const dueDateLayout = "2006-01-02"

type taskCreateRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	AssignedTo  []int64           `json:"assigned_to"`
	Group       *int64            `json:"group"`
	DueDate     *string           `json:"due_date"`
}

// taskUpdateRequest keeps raw JSON presence so that "field omitted" and
// "field set to null" stay distinguishable for assignment and due date.
type taskUpdateRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
	AssignedTo  *[]int64           `json:"assigned_to"`
	Group       rawOptional[int64] `json:"group"`
	DueDate     *string            `json:"due_date"`
}

// rawOptional tracks whether a nullable JSON field was present at all.
type rawOptional[T any] struct {
	Present bool
	Value   *T
}

func (o *rawOptional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dueDateLayout, raw)
	if err != nil {
		// accept full timestamps too
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("due_date must be YYYY-MM-DD")
		}
	}
	t = t.UTC().Truncate(24 * time.Hour)
	return &t, nil
}

// @Summary      Create a task
// @Description  Creates a task and resolves its assignee set from the explicit users and the group members. Admin or manager only.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor := getActor(c)
	log.Printf("[task][create] call by userID=%d role=%s", actor.ID, actor.Role)

	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := &models.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		GroupID:     req.Group,
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "due_date"})
			return
		}
		in.DueDate = due
	}

	task, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		respondServiceError(c, err)
		return
	}

	log.Printf("[task][create][ok] id=%d assignees=%d", task.ID, len(task.AssignedTo))
	c.JSON(http.StatusCreated, task)

	go h.notifyAssignees(task, task.AssignedTo)
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	actor := getActor(c)

	filter := models.TaskFilter{}
	if v := c.Query("status"); v != "" {
		st := models.TaskStatus(v)
		if !models.IsValidTaskStatus(st) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Status = &st
	}
	if v := c.Query("group"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
			return
		}
		filter.GroupID = &id
	}
	if v := c.Query("created_by"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		filter.CreatorID = &id
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	tasks, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Update a task
// @Description  Partial update. Assignees are re-resolved only when assigned_to or group is present in the body. Assigned employees may change status only.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[task][update] call by userID=%d role=%s task=%d", actor.ID, actor.Role, id)

	var req taskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := &models.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if req.Group.Present {
		upd.GroupID = &req.Group.Value
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "due_date"})
			return
		}
		upd.DueDate = &due
	}

	before, _ := h.service.GetByID(c.Request.Context(), actor, id)

	task, err := h.service.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		log.Printf("[task][update][err] task=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}

	log.Printf("[task][update][ok] task=%d", id)
	c.JSON(http.StatusOK, task)

	if before != nil {
		go h.notifyAssignees(task, addedIDs(task.AssignedTo, before.AssignedTo))
	}
}

// PATCH /tasks/:id/status
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][status] call by userID=%d task=%d to=%s", actor.ID, id, req.Status)

	task, err := h.service.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		log.Printf("[task][status][err] task=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[task][status][ok] task=%d status=%s", id, task.Status)
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[task][delete] call by userID=%d task=%d", actor.ID, id)

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		log.Printf("[task][delete][err] task=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[task][delete][ok] task=%d", id)
	c.Status(http.StatusNoContent)
}

// notifyAssignees pushes a telegram alert to each assignee who linked a chat.
// Runs after the response; failures are logged and dropped.
func (h *TaskHandler) notifyAssignees(task *models.Task, userIDs []int64) {
	if h.telegram == nil || len(userIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text := fmt.Sprintf("<b>New assignment</b>\nTask: %s\nStatus: %s", task.Title, task.Status)
	if task.DueDate != nil {
		text += "\nDue: " + task.DueDate.Format(dueDateLayout)
	}
	for _, uid := range userIDs {
		chatID, notify, err := h.users.GetTelegramSettings(ctx, uid)
		if err != nil {
			log.Printf("[task][tg][err] user=%d: %v", uid, err)
			continue
		}
		if !notify {
			continue
		}
		_ = h.telegram.SendMessage(chatID, text)
	}
}

// addedIDs returns the ids present in next but not in prev.
func addedIDs(next, prev []int64) []int64 {
	seen := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}
	var out []int64
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
