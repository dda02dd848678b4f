package routes

import (
	"github.com/gin-gonic/gin"

	"clientx/internal/handlers"
	"clientx/internal/middleware"
	"clientx/internal/models"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	groupHandler *handlers.GroupHandler,
	notificationHandler *handlers.NotificationHandler,
	searchHandler *handlers.SearchHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	r.POST("/logout", authHandler.Logout)
	r.GET("/profile", userHandler.Profile)

	// account creation stays behind auth: admins make anyone, managers make employees
	r.POST("/register", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.Register)

	// USERS (admin)
	users := r.Group("/users", middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("/", userHandler.ListUsers)
		users.GET("/count/role/:role", userHandler.GetUserCountByRole)
		users.GET("/:id", userHandler.GetUserByID)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// TASKS: reads for every role, writes gated in the service layer
	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.PATCH("/:id/status", taskHandler.ChangeStatus)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	// GROUPS
	groups := r.Group("/groups")
	{
		groups.POST("/", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), groupHandler.Create)
		groups.GET("/", groupHandler.GetAll)
		groups.GET("/:id", groupHandler.GetByID)
		groups.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), groupHandler.Update)
		groups.PUT("/:id/members", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), groupHandler.SetMembers)
		groups.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), groupHandler.Delete)
	}

	// NOTIFICATIONS
	notifications := r.Group("/notifications")
	{
		notifications.GET("/", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	// SEARCH
	r.GET("/search", searchHandler.Global)

	return r
}
