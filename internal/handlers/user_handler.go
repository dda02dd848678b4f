package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clientx/internal/models"
	"clientx/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Register a user
// @Description  Creates an account. Managers can only create employee accounts: the requested role is force-overridden.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.User
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	actor := getActor(c)
	log.Printf("[user][register] call by userID=%d role=%s", actor.ID, actor.Role)

	var req struct {
		Username   string      `json:"username" binding:"required"`
		Email      string      `json:"email" binding:"required,email"`
		Phone      string      `json:"phone"`
		Password   string      `json:"password" binding:"required"`
		Role       models.Role `json:"role"`
		Department string      `json:"department"`
		Company    string      `json:"company"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[user][register][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       req.Role,
		Department: req.Department,
		Company:    req.Company,
	}
	if err := h.service.Register(c.Request.Context(), actor, user, req.Password); err != nil {
		log.Printf("[user][register][err] %v", err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[user][register][ok] id=%d role=%s", user.ID, user.Role)
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
}

// GET /profile
func (h *UserHandler) Profile(c *gin.Context) {
	actor := getActor(c)
	user, err := h.service.GetByID(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Printf("[user][list][err] %v", err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /users/count/role/:role
func (h *UserHandler) GetUserCountByRole(c *gin.Context) {
	role := models.Role(c.Param("role"))
	if !models.IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	n, err := h.service.CountByRole(c.Request.Context(), role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role, "count": n})
}

// PUT /users/:id is admin only and is the only path that may change roles.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[user][update] call by userID=%d role=%s target=%d", actor.ID, actor.Role, id)

	current, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var req struct {
		Username   *string      `json:"username"`
		Email      *string      `json:"email"`
		Phone      *string      `json:"phone"`
		Role       *models.Role `json:"role"`
		Department *string      `json:"department"`
		Company    *string      `json:"company"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Username != nil {
		current.Username = *req.Username
	}
	if req.Email != nil {
		current.Email = *req.Email
	}
	if req.Phone != nil {
		current.Phone = *req.Phone
	}
	if req.Role != nil {
		if !models.IsValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
		current.Role = *req.Role
	}
	if req.Department != nil {
		current.Department = *req.Department
	}
	if req.Company != nil {
		current.Company = *req.Company
	}

	if err := h.service.Update(c.Request.Context(), current); err != nil {
		log.Printf("[user][update][err] id=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[user][update][ok] id=%d", id)
	c.JSON(http.StatusOK, current)
}

// DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor := getActor(c)
	id, ok := paramID(c)
	if !ok {
		return
	}
	log.Printf("[user][delete] call by userID=%d target=%d", actor.ID, id)

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		log.Printf("[user][delete][err] id=%d: %v", id, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[user][delete][ok] id=%d", id)
	c.Status(http.StatusNoContent)
}
