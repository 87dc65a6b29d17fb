package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/solace-backend/internal/config"
	"github.com/AnshRaj112/solace-backend/internal/database"
	"github.com/AnshRaj112/solace-backend/internal/email"
	"github.com/AnshRaj112/solace-backend/internal/handlers"
	"github.com/AnshRaj112/solace-backend/internal/middleware"
	"github.com/AnshRaj112/solace-backend/internal/routes"
	"github.com/AnshRaj112/solace-backend/internal/search"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/AnshRaj112/solace-backend/internal/store"
	"github.com/AnshRaj112/solace-backend/internal/worker"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
	"github.com/AnshRaj112/solace-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	zl, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET not set; using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	log.Infow("connecting to postgres", "uri", database.MaskURI(cfg.PostgresURI))
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		version, err := database.Migrate(db.DB)
		if err != nil {
			return err
		}
		log.Infow("migrations applied", "version", version)
	}

	// Connect to Redis
	log.Infow("connecting to redis", "uri", database.MaskURI(cfg.RedisURI))
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Connect to MongoDB
	log.Infow("connecting to mongodb", "uri", database.MaskURI(cfg.MongoURI))
	mongoClient, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	audit := services.NewAuditLog(mdb)
	if err := audit.EnsureIndexes(ctx); err != nil {
		log.Warnw("failed to ensure audit indexes", "error", err)
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return err
	}
	history := services.NewRoomHistory(mdb, rdb, node, log)
	if err := history.EnsureIndexes(ctx); err != nil {
		log.Warnw("failed to ensure room history indexes", "error", err)
	}
	hub := services.NewRoomHub(rdb, log)
	go hub.Run(ctx)

	var cipher *utils.Cipher
	if cfg.EncryptionKey == "" {
		log.Warn("ENCRYPTION_KEY not set; check-in notes are stored unencrypted. Generate one with: openssl rand -base64 32")
	} else if cipher, err = utils.NewCipher(cfg.EncryptionKey); err != nil {
		return err
	}

	// Background jobs
	taskClient := asynq.NewClient(mustRedisOpt(cfg.RedisURI, log))
	defer taskClient.Close()
	notifier := worker.NewEnqueuer(taskClient)

	st := store.New(db)
	cache := services.NewCacheService(rdb)
	rooms := &services.Rooms{Sessions: st, Hub: hub, History: history}

	authSvc := services.NewAuthService(st, st, services.NewRedisSessionStore(rdb, cfg.SessionTTL), services.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), log)
	profileSvc := services.NewProfileService(st, cache, audit, log)
	applicationSvc := services.NewApplicationService(st, cache, audit, notifier, log)
	counselingSvc := services.NewCounselingService(st, st, rooms, audit, notifier, log)
	forumSvc := services.NewForumService(st, services.NewContentScreen(nil, nil), audit, notifier, cfg.ForumAutoApprove, log)
	checkInSvc := services.NewCheckInService(st, cache, cipher, log)

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey, log)
		defer meili.Close()
	} else {
		log.Info("MEILI_URL not set; forum search uses postgres full-text search")
	}
	searchSvc := search.NewService(meili, search.NewPgFTS(db), st, log)

	var uploader services.Uploader
	if cfg.CloudinaryConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warnw("cloudinary unavailable; file uploads disabled", "error", err)
		} else {
			uploader = cld
		}
	} else {
		log.Warn("Cloudinary credentials not found; file uploads disabled")
	}

	if cfg.WorkerEnabled {
		mailer := email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			AppURL:   cfg.FrontendURL,
		})
		if !mailer.IsConfigured() {
			log.Warn("SMTP not configured; notification emails are skipped")
		}
		stopWorker, err := worker.Start(worker.Options{RedisURI: cfg.RedisURI, Concurrency: cfg.WorkerConcurrency}, worker.Deps{
			Records:        st,
			Mailer:         mailer,
			Search:         searchSvc,
			Reminders:      counselingSvc,
			Audit:          audit,
			ReminderLead:   cfg.ReminderLead,
			AuditRetention: cfg.AuditRetention,
			Log:            log,
		})
		if err != nil {
			return err
		}
		defer stopWorker()

		stopScheduler, err := worker.StartScheduler(worker.ScheduleOptions{RedisURI: cfg.RedisURI, ReminderSchedule: cfg.ReminderSchedule}, log)
		if err != nil {
			return err
		}
		defer stopScheduler()
	}

	authz := middleware.NewAuthorizer(authSvc, st, cfg.SessionCookie, cfg.TrustProxy, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit
	// Non-production: Redis window limiter with IP blocking
	var limiter *middleware.RedisLimiter
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, cfg.TrustProxy) {
			r.Use(mw)
		}
		log.Infow("production security enabled", "allowed_host", cfg.AllowedHost)
	} else {
		limiter = middleware.NewRedisLimiter(rdb, cfg.TrustProxy, log)
		r.Use(limiter.Middleware)
	}

	var blocker handlers.IPBlocker
	if limiter != nil {
		blocker = limiter
	}

	routes.SetupRoutes(r, routes.Handlers{
		Auth:         handlers.NewAuthHandler(authSvc, authz.Token, handlers.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.IsProduction()}, log),
		Profiles:     handlers.NewProfileHandler(profileSvc, log),
		Applications: handlers.NewApplicationHandler(applicationSvc, log),
		Uploads:      handlers.NewUploadHandler(uploader, log),
		Counseling:   handlers.NewCounselingHandler(counselingSvc, log),
		Rooms:        handlers.NewRoomHandler(counselingSvc, rooms, cfg.AllowedOrigins, log),
		Forum:        handlers.NewForumHandler(forumSvc, searchSvc, log),
		CheckIns:     handlers.NewCheckInHandler(checkInSvc, log),
		Admin:        handlers.NewAdminHandler(st, cache, audit, blocker, log),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"mongodb":  func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		}, log),
	}, routes.Options{Authorizer: authz, TrustProxy: cfg.TrustProxy})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("solace backend running", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func mustRedisOpt(uri string, log *zap.SugaredLogger) asynq.RedisConnOpt {
	opt, err := asynq.ParseRedisURI(uri)
	if err != nil {
		log.Fatalw("invalid REDIS_URI for task queue", "error", err)
	}
	return opt
}
