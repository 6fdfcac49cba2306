package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/sodfa-app/sodfa-server/internal/config"
	"github.com/sodfa-app/sodfa-server/internal/handler"
	"github.com/sodfa-app/sodfa-server/internal/middleware"
	"github.com/sodfa-app/sodfa-server/internal/realtime"
	"github.com/sodfa-app/sodfa-server/internal/repository"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/storage"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)

	// Search index is optional; the story service falls back to the
	// database when it is absent.
	var searchIndex service.SearchIndex
	if cfg.MeiliSearchHost != "" && cfg.MeiliMasterKey != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchIndex = service.NewMeiliSearchService(meiliClient)
	}

	// Avatar storage is optional in the same way.
	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("[warn] cloudinary storage unavailable, avatar uploads disabled: %v", err)
		imageStorage = nil
	}

	hub := realtime.NewHub(nil)

	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenLifetime)
	authHandler := handler.NewAuthHandler(authSvc)

	storySvc := service.NewStoryService(storyRepo, searchIndex)
	storyHandler := handler.NewStoryHandler(storySvc, redisClient, cfg.RateLimitStory)

	reactionSvc := service.NewReactionService(reactionRepo, storyRepo, redisClient, hub)
	reactionHandler := handler.NewReactionHandler(reactionSvc, redisClient, cfg.RateLimitReact)

	commentSvc := service.NewCommentService(commentRepo, storyRepo)
	commentHandler := handler.NewCommentHandler(commentSvc, redisClient, cfg.RateLimitComment)

	adminHandler := handler.NewAdminHandler(storySvc)

	profileSvc := service.NewProfileService(userRepo, imageStorage)
	profileHandler := handler.NewProfileHandler(profileSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)
	router.Use(authMiddleware.Identity())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/login", authHandler.Login)
			auth.POST("/guest", authHandler.Guest)
		}

		// Public reads
		api.GET("/stories", storyHandler.List)
		api.GET("/stories/search", storyHandler.Search)
		api.GET("/stories/mine", storyHandler.Mine)
		api.GET("/stories/:id", storyHandler.GetByID)
		api.GET("/stories/:id/comments", commentHandler.List)
		api.GET("/stories/:id/reactions", reactionHandler.Counts)
		api.GET("/stories/:id/reactions/me", reactionHandler.Check)

		// Mutations: any resolved identity (account, guest session, or
		// client id) may write; the handlers reject unresolved actors.
		api.POST("/stories", storyHandler.Create)
		api.PUT("/stories/:id", storyHandler.Update)
		api.DELETE("/stories/:id", storyHandler.Delete)
		api.POST("/stories/:id/comments", commentHandler.Add)
		api.POST("/stories/:id/reactions", reactionHandler.React)

		// Account-only routes
		account := api.Group("")
		account.Use(authMiddleware.RequireAccount())
		{
			account.GET("/profile/me", profileHandler.Me)
			account.PUT("/profile", profileHandler.Update)

			adminGroup := account.Group("/admin")
			adminGroup.Use(authMiddleware.RequireAdmin())
			{
				adminGroup.GET("/stories", adminHandler.ListStories)
				adminGroup.PATCH("/stories/:id/status", adminHandler.ModerateStory)
			}
		}
	}

	router.GET("/ws/stories/:id", hub.ServeWS)

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.ClientIDHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
