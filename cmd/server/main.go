package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/imagehub/backend/internal/auth"
	"github.com/imagehub/backend/internal/config"
	"github.com/imagehub/backend/internal/images"
	"github.com/imagehub/backend/internal/logging"
	"github.com/imagehub/backend/internal/middleware"
	"github.com/imagehub/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDB)

	catalog := store.NewMongoImageStore(mongoDB)
	if err := catalog.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}

	// ── User directory ───────────────────────────────────────
	var users auth.UserStore
	switch cfg.UserBackend {
	case "postgres":
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres connect: %v", err)
		}
		defer pgPool.Close()
		pgUsers := store.NewPostgresUserStore(pgPool)
		if err := pgUsers.Migrate(ctx); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		users = pgUsers
	default:
		mongoUsers := store.NewMongoUserStore(mongoDB)
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			log.Fatalf("mongo indexes: %v", err)
		}
		users = mongoUsers
	}

	// ── Media store ──────────────────────────────────────────
	var media images.MediaStore
	switch cfg.MediaBackend {
	case "s3":
		media, err = store.NewS3MediaStore(ctx, cfg.S3Region, cfg.S3Endpoint,
			cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MediaPublicURL)
	default:
		media, err = store.NewMinioMediaStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MediaPublicURL)
	}
	if err != nil {
		log.Fatalf("media store: %v", err)
	}

	// ── Redis orphan ledger ──────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	ledger := store.NewRedisLedger(rdb)

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	authHandler := auth.NewHandler(users, auth.NewBcryptHasher(cfg.BcryptCost), tokens,
		logging.WithComponent(log, "auth"))
	imageHandler := images.NewHandler(catalog, media, ledger, cfg.MaxUploadBytes,
		logging.WithComponent(log, "images"))

	// ── Reconciler ───────────────────────────────────────────
	reconciler := images.NewReconciler(ledger, catalog, media, logging.WithComponent(log, "reconcile"))
	scheduler := cron.New()
	if cfg.ReconcileSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if _, err := reconciler.Sweep(sweepCtx); err != nil {
				log.WithError(err).Error("reconcile sweep failed")
			}
		}); err != nil {
			log.Fatalf("reconcile schedule %q: %v", cfg.ReconcileSchedule, err)
		}
	}
	scheduler.Start()

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(logging.WithComponent(log, "http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := middleware.RequireAuth(tokens)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/change-password", authHandler.ChangePassword)
	})

	// listing is public; upload and delete need a token
	r.Route("/api/images", func(r chi.Router) {
		r.Get("/", imageHandler.List)
		r.With(requireAuth).Post("/", imageHandler.Upload)
		r.With(requireAuth).Delete("/{id}", imageHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Infof("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	<-scheduler.Stop().Done()
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
