package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elephant-quiz/internal/auth"
	"elephant-quiz/internal/bank"
	"elephant-quiz/internal/config"
	"elephant-quiz/internal/models"
	"elephant-quiz/internal/quiz"
	"elephant-quiz/pkg/cache"
	"elephant-quiz/pkg/database"
	"elephant-quiz/pkg/logging"
	"elephant-quiz/pkg/websocket"

	"github.com/common-nighthawk/go-figure"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	figure.NewFigure("ELEPHANT QUIZ", "", true).Print()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Question{}, &models.PlayRecord{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	questions, err := bank.Load(cfg.QuestionBank)
	if err != nil {
		log.Fatalf("Failed to load question bank: %v", err)
	}
	quizRepo := quiz.NewRepository(db)
	if _, err := quizRepo.SeedQuestions(questions); err != nil {
		log.Fatalf("Failed to seed questions: %v", err)
	}

	// Redis is optional: without it the bank is read from postgres and the
	// leaderboard is computed from play records.
	var quizCache quiz.Cache
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		log.Printf("Warning: redis unavailable at %s: %v", cfg.RedisAddr, err)
	} else {
		quizCache = redisCache
	}
	defer redisCache.Close()

	wsHub := websocket.NewHub(auth.UserID, allowOrigins(cfg.CORSOrigins))
	go wsHub.Run(ctx)

	authService := auth.NewService(auth.NewRepository(db), cfg.JWTSecret)
	quizService := quiz.NewService(quizRepo, quizCache, wsHub, cfg.Quiz)
	defer quizService.Shutdown()
	wsHub.SetSessionService(quizService)

	authHandler := auth.NewHandler(authService)
	quizHandler := quiz.NewHandler(quizService)
	jwtMiddleware := auth.JWTMiddleware(authService)

	router := mux.NewRouter()

	// Auth routes - rate limited, no JWT required
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.Use(auth.NewRateLimiter(cfg.AuthRatePerMinute, 5).Middleware)
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	publicRouter := router.PathPrefix("/api").Subrouter()
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(jwtMiddleware)
	quizHandler.RegisterRoutes(apiRouter, publicRouter)

	wsRouter := router.PathPrefix("/ws").Subrouter()
	wsRouter.Use(jwtMiddleware)
	wsRouter.HandleFunc("/{sessionID}", wsHub.HandleWebSocket)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server shutdown gracefully")
}

// allowOrigins accepts websocket upgrades from the configured CORS origins.
func allowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
