package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "clientx/docs"
	"clientx/internal/config"
	"clientx/internal/handlers"
	"clientx/internal/middleware"
	"clientx/internal/repositories"
	"clientx/internal/routes"
	"clientx/internal/services"
)

func Run() {
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret != "" {
		middleware.JWTKey = []byte(cfg.Auth.JWTSecret)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()
	if err := repositories.MigrateUp(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// === Repos ===
	transactor := repositories.NewTransactor(db)
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// === Services ===
	authService := services.NewAuthService(cfg.Auth)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	var telegramService *services.TelegramService
	if cfg.Telegram.Enabled {
		telegramService, err = services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Printf("[tg][init][err] %v, continuing without telegram", err)
		}
	}

	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	userService := services.NewUserService(userRepo, emailService, authService)
	taskService := services.NewTaskService(transactor, taskRepo, groupRepo, userRepo, notificationService)
	groupService := services.NewGroupService(transactor, groupRepo, userRepo)
	searchService := services.NewSearchService(userRepo, taskRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService, userRepo, telegramService)
	groupHandler := handlers.NewGroupHandler(groupService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	searchHandler := handlers.NewSearchHandler(searchService)

	// === Due scanner ===
	scanner := services.NewDueScanner(taskRepo, notificationRepo, notificationService, cfg.Scanner.Interval.Std())
	ctx, cancel := context.WithCancel(context.Background())
	scanner.Start(ctx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Printf("shutting down")
		cancel()
		scanner.Stop()
		os.Exit(0)
	}()

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		taskHandler,
		groupHandler,
		notificationHandler,
		searchHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
