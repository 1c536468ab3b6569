package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/notes-service/internal/api/http"
	"github.com/spec-kit/notes-service/internal/api/http/handlers"
	"github.com/spec-kit/notes-service/internal/auth"
	"github.com/spec-kit/notes-service/internal/config"
	"github.com/spec-kit/notes-service/internal/events"
	"github.com/spec-kit/notes-service/internal/mail"
	"github.com/spec-kit/notes-service/internal/oauth"
	"github.com/spec-kit/notes-service/internal/observability"
	"github.com/spec-kit/notes-service/internal/persistence"
	"github.com/spec-kit/notes-service/internal/repository"
	"github.com/spec-kit/notes-service/internal/service"
	"github.com/spec-kit/notes-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)

	mailer, err := mail.NewSMTPMailer(cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to init mailer", zap.Error(err))
	}

	googleProvider := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.OAuth.GoogleClientID,
		ClientSecret: cfg.OAuth.GoogleClientSecret,
		RedirectURL:  cfg.OAuth.GoogleRedirectURL,
	})
	stateStore := oauth.NewRedisStateStore(redis.Client, cfg.OAuth.StateTTL())

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, "")
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Mailer:     mailer,
		Provider:   googleProvider,
		States:     stateStore,
		Dispatcher: dispatcher,
	})
	noteService := service.NewNoteService(noteRepo, dispatcher)
	authMiddleware := auth.NewMiddleware(authService.TokenManager())

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(authService, cfg.OAuth.SuccessRedirectURL)
	notesHandler := handlers.NewNotesHandler(noteService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Notes:          notesHandler,
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
