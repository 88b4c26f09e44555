package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"gamification-service/internal/config"
	"gamification-service/internal/db"
	"gamification-service/internal/event"
	"gamification-service/internal/handlers"
	"gamification-service/internal/repository"
	"gamification-service/internal/service"
	"gamification-service/pkg/discovery"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	db.InitMongo(cfg.MongoDB.URI)
	database := db.Client.Database(cfg.MongoDB.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitMQ.URI != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	// Repositories
	statsRepo := repository.NewGamificationRepository(database)
	badgeRepo := repository.NewBadgeRepository(database, rdb)
	questionRepo := repository.NewQuestionRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)
	certRepo := repository.NewCertificateRepository(database)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := attemptRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create attempt indexes: %v", err)
	}
	cancel()

	// Services
	leaderboardService := service.NewLeaderboardService(rdb)
	var sink service.EventSink
	if publisher != nil {
		sink = publisher
	}
	gamificationService := service.NewGamificationService(
		statsRepo,
		attemptRepo,
		badgeRepo,
		certRepo,
		leaderboardService,
		sink,
	)
	adaptiveService := service.NewAdaptiveQuizService(questionRepo)

	// Handlers
	gamificationHandler := handlers.NewGamificationHandler(gamificationService)
	adaptiveHandler := handlers.NewAdaptiveHandler(adaptiveService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)

	// Platform event consumer (user/social/course events feed stats)
	consumer, err := event.NewEventConsumer(cfg.RabbitMQ.URI, gamificationService)
	if err != nil {
		log.Fatalf("Failed to create event consumer: %v", err)
	}
	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start event consumer: %v", err)
	}
	defer consumer.Close()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	publicGamify := r.Group("/public/gamify")
	{
		publicGamify.GET("/stats/:userId", gamificationHandler.GetStats)
		publicGamify.GET("/badges/:userId", gamificationHandler.GetBadges)
		publicGamify.GET("/certificates/:userId", gamificationHandler.GetCertificates)
		publicGamify.GET("/attempts/:userId", gamificationHandler.GetAttempts)
		publicGamify.GET("/catalog", gamificationHandler.GetCatalog)
		publicGamify.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	}

	// Protected routes require the gateway-injected user id
	protectedGamify := r.Group("/protected/gamify")
	protectedGamify.Use(requireUserID())
	{
		protectedGamify.POST("/attempt", gamificationHandler.SubmitAttempt)
		protectedGamify.POST("/badges/check", gamificationHandler.CheckBadges)
	}

	protectedQuiz := r.Group("/protected/quizz/adaptive")
	protectedQuiz.Use(requireUserID())
	{
		protectedQuiz.POST("/next", adaptiveHandler.NextQuestion)
	}

	// Consul registration
	registry, err := discovery.NewServiceRegistry(cfg)
	if err != nil {
		log.Printf("Service discovery unavailable: %v", err)
	} else if err := registry.Register(); err != nil {
		log.Printf("Consul registration failed: %v", err)
	} else {
		defer registry.Deregister()
	}

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func requireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
