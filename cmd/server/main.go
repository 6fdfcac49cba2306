package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/sodfa-app/sodfa-server/internal/config"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/server"
	"github.com/sodfa-app/sodfa-server/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Story{},
		&model.Comment{},
		&model.Reaction{},
	); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Redis is optional: without it, rate limiting and the live counts
	// mirror are skipped.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	srv := server.NewServer(cfg, db, redisClient)

	log.Printf("starting server on :%s (env=%s)", cfg.Port, cfg.AppEnv)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
