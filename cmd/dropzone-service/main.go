package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/princekumarofficial/dropzone-service/docs"
	"github.com/princekumarofficial/dropzone-service/internal/auth"
	"github.com/princekumarofficial/dropzone-service/internal/cache"
	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/events"
	mediaHandlers "github.com/princekumarofficial/dropzone-service/internal/http/handlers/media"
	uploadHandlers "github.com/princekumarofficial/dropzone-service/internal/http/handlers/upload"
	"github.com/princekumarofficial/dropzone-service/internal/http/handlers/users"
	wsHandlers "github.com/princekumarofficial/dropzone-service/internal/http/handlers/websocket"
	widgetHandlers "github.com/princekumarofficial/dropzone-service/internal/http/handlers/widget"
	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/policy"
	"github.com/princekumarofficial/dropzone-service/internal/reaper"
	mediaService "github.com/princekumarofficial/dropzone-service/internal/services/media"
	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/storage/memory"
	"github.com/princekumarofficial/dropzone-service/internal/storage/postgres"
	userTypes "github.com/princekumarofficial/dropzone-service/internal/types/users"
	"github.com/princekumarofficial/dropzone-service/internal/upload"
	"github.com/princekumarofficial/dropzone-service/internal/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Dropzone Upload Service
// @version 1.0
// @description Chunked file uploads into a media library, with an embeddable drop zone widget.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()
	setupLogger(cfg.Env)

	// database setup
	var records storage.Storage
	switch cfg.Storage {
	case "memory":
		records = memory.New()
		slog.Warn("Using in-memory storage; accounts and attachments are lost on restart")
	default:
		pg, err := postgres.NewPostgres(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer pg.Close()
		records = pg
	}

	// redis is optional: without it locks are process-local, reads are
	// uncached and requests are not rate limited
	var redisClient *redis.Client
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Warn("Redis unavailable, continuing without it", slog.String("error", err.Error()))
		client.Close()
	} else {
		redisClient = client
		defer redisClient.Close()
		slog.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))
	}

	store := records
	var locker chunkstore.Locker = chunkstore.NewLocalLocker(cfg.Upload.LockWait)
	if redisClient != nil {
		store = cache.NewCacheService(records, redisClient)
		locker = chunkstore.NewRedisLocker(redisClient, cfg.Upload.LockWait)
	}

	// upload pipeline
	pol := policy.New(cfg.Upload.AllowedExtensions)
	chunks, err := chunkstore.New(cfg.Upload.TempDir, cfg.Upload.MaxFileSize, locker, cfg.Upload.LockTTL)
	if err != nil {
		log.Fatal("Failed to initialize temp storage:", err)
	}
	library, err := mediaService.NewService(cfg.Upload, pol, store)
	if err != nil {
		log.Fatal("Failed to initialize media library:", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	publisher := events.NewEventPublisher(hub)

	nonces := auth.NewNonces(cfg.JWTSecret, cfg.Auth.NonceTTL)
	finalizer := upload.NewFinalizer(library, chunks, publisher)
	orchestrator := upload.NewOrchestrator(auth.NewGate(nonces), pol, chunks, finalizer, publisher)

	if cfg.Reaper.InProcess {
		r := reaper.New(chunks, cfg.Reaper.MaxAge, slog.Default())
		if err := r.Start(cfg.Reaper.Schedule); err != nil {
			log.Fatal("Failed to schedule temp reaper:", err)
		}
		defer r.Stop()
	}

	// setup router
	router := http.NewServeMux()

	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)

	limit := func(action string, h http.Handler) http.Handler { return h }
	if redisClient != nil {
		rlc := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit)
		limit = func(action string, h http.Handler) http.Handler {
			return rlc.RateLimitMiddleware(action)(h)
		}
	}

	router.Handle("POST /upload", optionalAuth(limit(middleware.ActionUploads,
		uploadHandlers.Upload(orchestrator, cfg.HTTPServer.MaxRequestSize))))
	router.Handle("GET /nonce", optionalAuth(uploadHandlers.Nonce(nonces)))
	router.Handle("GET /widget", optionalAuth(widgetHandlers.Render(nonces, cfg.Upload, cfg.Widget)))
	router.HandleFunc("GET /assets/dropzone-init.js", widgetHandlers.InitScript())

	router.HandleFunc("POST /signup", users.SignUp(store, cfg.Auth))
	router.Handle("POST /login", limit(middleware.ActionLogin, users.Login(store, cfg.JWTSecret, cfg.Auth)))

	media := mediaHandlers.NewMediaHandlers(store)
	router.Handle("GET /media", requireAuth(media.ListUserMedia()))
	router.Handle("GET /media/{id}", requireAuth(media.GetMedia()))
	router.Handle("GET /uploads/", mediaHandlers.ServeUploads("/uploads/", library.UploadsDir()))

	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, cfg.JWTSecret))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	if redisClient != nil {
		adminOnly := func(h http.Handler) http.Handler {
			return requireAuth(middleware.RequireRole(userTypes.RoleAdministrator)(h))
		}
		router.Handle("GET /admin/cache", adminOnly(cache.GetCacheStats(redisClient)))
		router.Handle("DELETE /admin/cache", adminOnly(cache.ClearCache(redisClient)))
	}

	server := http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	stop()
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

func setupLogger(env string) {
	var handler slog.Handler
	if env == "local" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
