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
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/zcreens-service/docs"
	"github.com/princekumarofficial/zcreens-service/internal/cache"
	"github.com/princekumarofficial/zcreens-service/internal/config"
	"github.com/princekumarofficial/zcreens-service/internal/events"
	mediaHandlers "github.com/princekumarofficial/zcreens-service/internal/http/handlers/media"
	presentationHandlers "github.com/princekumarofficial/zcreens-service/internal/http/handlers/presentations"
	uploadHandlers "github.com/princekumarofficial/zcreens-service/internal/http/handlers/upload"
	userHandlers "github.com/princekumarofficial/zcreens-service/internal/http/handlers/users"
	wsHandlers "github.com/princekumarofficial/zcreens-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/zcreens-service/internal/http/middleware"
	"github.com/princekumarofficial/zcreens-service/internal/services/accounts"
	"github.com/princekumarofficial/zcreens-service/internal/services/media"
	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/services/quota"
	"github.com/princekumarofficial/zcreens-service/internal/services/slides"
	"github.com/princekumarofficial/zcreens-service/internal/services/upload"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/storage/postgres"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/websocket"
	"github.com/princekumarofficial/zcreens-service/internal/worker"
)

// @title zcreens API
// @version 1.0
// @description Upload a PDF or image and play it on any screen with a six character code.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func newLogger(env string) *slog.Logger {
	if env == "local" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	case "postgres", "":
		return postgres.NewPostgres(cfg)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Storage.Driver)
	}
}

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	// load config
	cfg := config.MustLoad()
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// database setup
	store, err := openStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage: ", err)
	}

	reporter, _ := store.(storage.UsageReporter)

	if cfg.Admin.Email != "" {
		if _, _, err := accounts.EnsureAdmin(ctx, store, accounts.AdminSpec{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			log.Fatal("Failed to bootstrap admin account: ", err)
		}
	}

	var (
		redisClient *redis.Client
		rateLimits  *middleware.RateLimitConfig
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis: ", err)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))

		store = cache.NewCacheService(store, redisClient)
		rateLimits = middleware.NewRateLimitConfig(redisClient, cfg.RateLimit.UploadsPerMinute, cfg.RateLimit.ResolvesPerMinute)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	quotaService := quota.NewService(store, logger)

	presentationOpts := []presentations.Option{
		presentations.WithLogger(logger),
		presentations.WithNotifier(events.NewEventPublisher(hub)),
		presentations.WithRetention(cfg.Presentations.Retention),
		presentations.WithMaxCodeAttempts(cfg.Presentations.MaxCodeAttempts),
		presentations.WithSlideInterval(cfg.Presentations.DefaultSlideInterval),
		presentations.WithSweepBatch(cfg.Worker.BatchSize),
	}
	if !cfg.Presentations.DisableDemoSeed {
		presentationOpts = append(presentationOpts, presentations.WithSeeds(presentations.DemoCatalog()))
	}

	var (
		mediaService *media.Service
		archiver     upload.Archiver
	)
	if cfg.MinIO.Enabled {
		mediaService, err = media.NewService(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize MinIO: ", err)
		}
		slog.Info("Connected to MinIO", slog.String("bucket", cfg.MinIO.BucketName))
		archiver = mediaService
		presentationOpts = append(presentationOpts, presentations.WithArchive(mediaService))
	}

	presentationService := presentations.NewService(store, quotaService, presentationOpts...)
	extractor := slides.NewExtractor(
		slides.WithMaxSlides(cfg.Presentations.MaxSlides),
		slides.WithLogger(logger),
	)
	uploadService := upload.NewService(extractor, presentationService, quotaService, archiver, logger)

	// An in-memory store is invisible to a separate worker process.
	if cfg.Worker.InProcess || cfg.Storage.Driver == "memory" {
		go worker.NewExpiryWorker(presentationService, cfg.Worker.Interval, logger).Start(ctx)
	}

	identity := middleware.NewJWTIdentityProvider(cfg.JWTSecret, store)
	authed := middleware.Authenticate(identity)
	admin := middleware.RequireRole(users.RoleAdmin)

	// setup router
	router := http.NewServeMux()

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	router.HandleFunc("POST /signup", userHandlers.SignUp(store, cfg.JWTSecret))
	router.HandleFunc("POST /login", userHandlers.Login(store, cfg.JWTSecret))
	router.Handle("GET /me", authed(userHandlers.Me()))

	router.HandleFunc("GET /upload", uploadHandlers.Status(cfg.Media.MaxFileSize))
	router.Handle("POST /upload", chain(uploadHandlers.Upload(uploadService, cfg.Media.MaxFileSize),
		authed, rateLimits.RateLimitMiddleware(middleware.ActionUploads, middleware.ByAccount)))

	router.Handle("GET /presentation/{code}", chain(presentationHandlers.Resolve(presentationService),
		rateLimits.RateLimitMiddleware(middleware.ActionResolve, middleware.ByClientIP)))
	router.HandleFunc("GET /ws/slideshow/{code}", wsHandlers.SlideshowHandler(hub, presentationService))

	router.Handle("GET /presentations", authed(presentationHandlers.List(presentationService)))
	router.Handle("DELETE /presentations/{code}", authed(presentationHandlers.Delete(presentationService)))
	if mediaService != nil {
		originals := mediaHandlers.NewMediaHandlers(mediaService, presentationService)
		router.Handle("GET /presentations/{code}/original", authed(originals.DownloadOriginal()))
		router.Handle("GET /presentations/{code}/original/info", authed(originals.OriginalInfo()))
	}

	router.Handle("GET /admin/users", chain(userHandlers.ListUsers(store), authed, admin))
	router.Handle("PUT /admin/users/{id}", chain(userHandlers.UpdateUser(store), authed, admin))
	router.Handle("DELETE /admin/users/{id}", chain(userHandlers.DeleteUser(presentationService), authed, admin))
	if reporter != nil {
		router.Handle("GET /admin/usage", chain(userHandlers.UsageReport(reporter), authed, admin))
	}
	router.Handle("DELETE /admin/presentations/{code}", chain(presentationHandlers.Delete(presentationService), authed, admin))
	if redisClient != nil {
		router.Handle("GET /admin/cache/stats", chain(cache.GetCacheStats(redisClient), authed, admin))
		router.Handle("DELETE /admin/cache", chain(cache.ClearCache(redisClient), authed, admin))
	}

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		slog.Info("Server started", slog.String("address", cfg.HTTPServer.Address), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
