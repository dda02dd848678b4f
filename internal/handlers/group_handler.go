package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"clientx/internal/models"
	"clientx/internal/services"
)

type GroupHandler struct {
	service services.GroupService
}

func NewGroupHandler(service services.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// @Summary      Create a task group
// @Description  Creates a named group with an optional initial member set. Admin or manager only.
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.TaskGroup
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	actor := getActor(c)
	log.Printf("[group][create] call by userID=%d role=%s", actor.ID, actor.Role)

	var req struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Members     []int64 `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := &models.TaskGroup{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	}
	created, err := h.service.Create(c.Request.Context(), actor, group)
	if err != nil {
		log.Printf("[group][create][err] %v", err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[group][create][ok] id=%d members=%d", created.ID, len(created.Members))
	c.JSON(http.StatusCreated, created)
}

// GET /groups
func (h *GroupHandler) GetAll(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		log.Printf("[group][list][err] %v", err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GET /groups/:id
func (h *GroupHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	group, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// PUT /groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[group][update] call by userID=%d group=%d", actor.ID, id)

	current, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}

	updated, err := h.service.Update(c.Request.Context(), actor, current)
	if err != nil {
		log.Printf("[group][update][err] group=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[group][update][ok] group=%d", id)
	c.JSON(http.StatusOK, updated)
}

// PUT /groups/:id/members replaces the full membership set.
func (h *GroupHandler) SetMembers(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Members []int64 `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[group][members] call by userID=%d group=%d n=%d", actor.ID, id, len(req.Members))

	group, err := h.service.SetMembers(c.Request.Context(), actor, id, req.Members)
	if err != nil {
		log.Printf("[group][members][err] group=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// DELETE /groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[group][delete] call by userID=%d group=%d", actor.ID, id)

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		log.Printf("[group][delete][err] group=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
