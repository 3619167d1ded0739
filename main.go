package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"goalmateAPI/handlers"
	"goalmateAPI/internal/blob"
	"goalmateAPI/internal/feed"
	"goalmateAPI/internal/mail"
	"goalmateAPI/internal/notification"
	"goalmateAPI/internal/outbox"
	"goalmateAPI/internal/realtime"
	"goalmateAPI/internal/store/pgstore"
	"goalmateAPI/middleware"
	"goalmateAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	dispatcher          *outbox.Dispatcher
	reminderWorker      *services.ReminderWorker
	userService         *services.UserService
	goalService         *services.GoalService
	cheerService        *services.CheerService
	commentService      *services.CommentService
	supportService      *services.SupportService
	notificationService *services.NotificationService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

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

	st := pgstore.New(dbPool)

	var publisher realtime.Publisher
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:        redisAddr,
			Password:    os.Getenv("REDIS_PASSWORD"),
			DialTimeout: 5 * time.Second,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Could not connect to Redis: %v", err)
		} else {
			publisher = realtime.NewRedisPublisher(rdb)
			log.Println("Redis realtime publisher initialized")
		}
	} else {
		log.Println("REDIS_ADDR not set, realtime push disabled")
	}

	var blobStorage blob.Storage
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		blobStorage, err = blob.NewS3Storage(blob.Config{
			Region:    os.Getenv("S3_REGION"),
			Bucket:    bucket,
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
		})
		if err != nil {
			log.Printf("Warning: Could not initialize S3 storage: %v", err)
			blobStorage = nil
		} else {
			log.Println("S3 blob storage initialized")
		}
	} else {
		log.Println("S3_BUCKET not set, blob cleanup disabled")
	}

	var push services.PushProvider
	fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		push = fcmService
		log.Println("FCM Push Provider initialized successfully")
	}

	mailSender := mail.NewResendSender(os.Getenv("RESEND_API_KEY"), os.Getenv("MAIL_FROM"))

	dispatcher = outbox.NewDispatcher(5)
	composer := feed.NewComposer(st)

	notificationService = services.NewNotificationService(st, publisher, push)
	userService = services.NewUserService(st)
	goalService = services.NewGoalService(st, composer, dispatcher, blobStorage)
	cheerService = services.NewCheerService(st, dispatcher, notificationService)
	commentService = services.NewCommentService(st, dispatcher, notificationService)
	supportService = services.NewSupportService(st, dispatcher, notificationService)
	reminderWorker = services.NewReminderWorker(st, notificationService, dispatcher, mailSender)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	goalHandler := handlers.NewGoalHandler(goalService)
	cheerHandler := handlers.NewCheerHandler(cheerService)
	commentHandler := handlers.NewCommentHandler(commentService)
	supportHandler := handlers.NewSupportHandler(supportService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	userHandler := handlers.NewUserHandler(userService)

	reminderWorker.Start()

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

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
		w.Write([]byte(`{"status": "healthy", "service": "goalmate-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()

	// feed reads work with or without a viewer
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)

	public.HandleFunc("/goals", goalHandler.GetGoals).Methods("GET")
	public.HandleFunc("/goals/progress", goalHandler.GetProgressFeed).Methods("GET")
	public.HandleFunc("/goals/{id}", goalHandler.GetGoal).Methods("GET")
	public.HandleFunc("/cheers", cheerHandler.GetCheers).Methods("GET")
	public.HandleFunc("/comments", commentHandler.GetComments).Methods("GET")
	public.HandleFunc("/supports", supportHandler.GetSupports).Methods("GET")
	public.HandleFunc("/supports/{id}", supportHandler.GetSupport).Methods("GET")
	public.HandleFunc("/users/{id}", userHandler.GetUser).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{id}", goalHandler.DeleteGoal).Methods("DELETE")
	protected.HandleFunc("/goals/{id}/status", goalHandler.UpdateGoalStatus).Methods("PATCH")
	protected.HandleFunc("/goals/{id}/progress", goalHandler.AddProgress).Methods("POST")

	protected.HandleFunc("/cheers", cheerHandler.CreateCheer).Methods("POST")
	protected.HandleFunc("/cheers/{id}", cheerHandler.DeleteCheer).Methods("DELETE")

	protected.HandleFunc("/comments", commentHandler.CreateComment).Methods("POST")
	protected.HandleFunc("/comments/{id}", commentHandler.UpdateComment).Methods("PATCH")
	protected.HandleFunc("/comments/{id}", commentHandler.DeleteComment).Methods("DELETE")

	protected.HandleFunc("/supports", supportHandler.CreateSupport).Methods("POST")
	protected.HandleFunc("/supports/{id}", supportHandler.DeleteSupport).Methods("DELETE")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("PATCH")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	reminderWorker.Stop()
	dispatcher.Stop()

	log.Println("Server shutdown complete")
}
