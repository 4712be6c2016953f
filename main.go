package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"fitRivalAPI/handlers"
	"fitRivalAPI/internal/cache"
	"fitRivalAPI/internal/notification"
	"fitRivalAPI/middleware"
	"fitRivalAPI/services"
)

var (
	dbPool              *pgxpool.Pool
	redisClient         *redis.Client
	leaderboardCache    *cache.LeaderboardCache
	userService         *services.UserService
	statsService        *services.StatsService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	activityService     *services.ActivityService
	streakService       *services.StreakService
	challengeService    *services.ChallengeService
	badgeService        *services.BadgeService
	rankingService      *services.RankingService
	leaderboardService  *services.LeaderboardService
	scheduler           *services.Scheduler
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	log.Println("Successfully connected to Postgres")

	// Redis is optional: without it leaderboard reads fall through to the
	// database.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("Failed to parse REDIS_URL:", err)
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable, leaderboard cache disabled: %v", err)
			redisClient = nil
		} else {
			leaderboardCache = cache.NewLeaderboardCache(redisClient)
			log.Println("Redis leaderboard cache initialized")
		}
	} else {
		log.Println("REDIS_URL not set, leaderboard cache disabled")
	}

	userService = services.NewUserService(dbPool)
	statsService = services.NewStatsService(dbPool)
	notificationService = services.NewNotificationService(dbPool)
	streakService = services.NewStreakService(dbPool, notificationService)
	badgeService = services.NewBadgeService(dbPool, notificationService)
	challengeService = services.NewChallengeService(dbPool, badgeService, notificationService)
	activityService = services.NewActivityService(dbPool, streakService, challengeService, badgeService)
	rankingService = services.NewRankingService(dbPool, leaderboardCache)
	leaderboardService = services.NewLeaderboardService(dbPool, leaderboardCache)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	scheduler, err = services.NewScheduler(rankingService)
	if err != nil {
		log.Fatal("Failed to create scheduler:", err)
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	userHandler := handlers.NewUserHandler(userService)
	statsHandler := handlers.NewStatsHandler(statsService)
	webhookHandler := handlers.NewWebhookHandler(userService)
	activityHandler := handlers.NewActivityHandler(activityService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	streakHandler := handlers.NewStreakHandler(streakService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	badgeHandler := handlers.NewBadgeHandler(badgeService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "fitRival-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// Operational trigger, shared-secret gated rather than Clerk gated.
	r.Handle("/recalculate-rankings",
		middleware.SharedSecretMiddleware(http.HandlerFunc(rankingHandler.RecalculateRankings))).
		Methods("GET", "POST")
	r.Handle("/recalculate-rankings/status",
		middleware.SharedSecretMiddleware(http.HandlerFunc(rankingHandler.RecalculationStatus))).
		Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/stats", statsHandler.GetUserStats).Methods("GET")

	protected.HandleFunc("/activities", activityHandler.LogActivity).Methods("POST")
	protected.HandleFunc("/activities/recent", activityHandler.GetRecentActivities).Methods("GET")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/sport/{sportId}", leaderboardHandler.GetSportLeaderboard).Methods("GET")

	protected.HandleFunc("/streak", streakHandler.GetStreak).Methods("GET")

	protected.HandleFunc("/challenges", challengeHandler.GetUserChallenges).Methods("GET")
	protected.HandleFunc("/challenges/{challengeId}/join", challengeHandler.JoinChallenge).Methods("POST")

	protected.HandleFunc("/badges", badgeHandler.GetBadges).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Recalc-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	scheduler.Stop()
	notificationService.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
