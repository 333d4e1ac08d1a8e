package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recipe-hub/recipe-hub/internal/config"
	"github.com/recipe-hub/recipe-hub/internal/handlers"
	"github.com/recipe-hub/recipe-hub/internal/middleware"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/cache"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
	"github.com/recipe-hub/recipe-hub/pkg/queue"
	"github.com/recipe-hub/recipe-hub/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting Recipe Hub API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	photoStore, err := storage.NewS3Storage(ctx, &cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize photo storage")
	}

	commentJobsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CommentJobs)
	defer commentJobsProducer.Close()

	commentEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CommentEvents)
	defer commentEventsProducer.Close()

	userRepo := repository.NewUserRepository(db.DB)
	recipeRepo := repository.NewRecipeRepository(db.DB)
	categoryRepo := repository.NewCategoryRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	validate := services.NewValidator()

	userService := services.NewUserService(userRepo, photoStore, validate, logger)
	authService := services.NewAuthService(userRepo, redisClient, logger)
	recipeService := services.NewRecipeService(recipeRepo, categoryRepo, likeRepo, commentRepo, redisClient, photoStore, validate, &cfg.Cache, logger)
	likeService := services.NewLikeService(likeRepo, recipeRepo, redisClient, logger)
	commentService := services.NewCommentService(commentRepo, recipeRepo, commentJobsProducer, commentEventsProducer, redisClient, validate, logger)
	categoryService := services.NewCategoryService(categoryRepo, redisClient, validate, &cfg.Cache, logger)

	userHandler := handlers.NewUserHandler(userService, authService, logger)
	authHandler := handlers.NewAuthHandler(authService, &cfg.JWT, logger)
	recipeHandler := handlers.NewRecipeHandler(recipeService, logger)
	likeHandler := handlers.NewLikeHandler(likeService, logger)
	commentHandler := handlers.NewCommentHandler(commentService, logger)
	categoryHandler := handlers.NewCategoryHandler(categoryService, logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	jwtAuth := middleware.NewJWTAuth(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
		IsRevoked: func(c *gin.Context, jti string) (bool, error) {
			return authService.IsRevoked(c.Request.Context(), jti)
		},
	})
	activeUser := middleware.RequireActiveUser(userRepo)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/users", userHandler.Register)

		// Reads are public
		api.GET("/recipes", recipeHandler.List)
		api.GET("/recipes/popular", recipeHandler.Popular)
		api.GET("/recipes/:id", recipeHandler.Get)
		api.GET("/recipes/:id/comments", commentHandler.ListByRecipe)
		api.GET("/comments/:id", commentHandler.Get)
		api.GET("/categories", categoryHandler.List)
		api.GET("/categories/:id", categoryHandler.Get)

		protected := api.Group("")
		protected.Use(jwtAuth, activeUser)
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/refresh", authHandler.Refresh)

			protected.GET("/users/me", userHandler.Me)
			protected.PUT("/users/me", userHandler.UpdateMe)
			protected.DELETE("/users/me", userHandler.DeactivateMe)
			protected.PUT("/users/me/password", userHandler.ChangePassword)
			protected.PUT("/users/me/photo", userHandler.UpdatePhoto)
			protected.DELETE("/users/me/photo", userHandler.DeletePhoto)
			protected.GET("/users/:id", userHandler.Get)

			protected.POST("/recipes", recipeHandler.Create)
			protected.PUT("/recipes/:id", recipeHandler.Update)
			protected.POST("/recipes/:id/clone", recipeHandler.Clone)
			protected.DELETE("/recipes/:id", recipeHandler.Destroy)
			protected.PUT("/recipes/:id/photo", recipeHandler.UpdatePhoto)
			protected.DELETE("/recipes/:id/photo", recipeHandler.DeletePhoto)
			protected.POST("/recipes/:id/like", likeHandler.Toggle)

			protected.POST("/comments", commentHandler.Create)
			protected.DELETE("/comments/:id", commentHandler.Delete)

			protected.POST("/categories", categoryHandler.Create)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", userHandler.List)
				admin.PATCH("/users/:id/status", userHandler.UpdateStatus)
				admin.DELETE("/categories/:id", categoryHandler.Delete)
			}
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
