package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"clique/config"
	_ "clique/docs"
	"clique/internal/adapters/auth"
	"clique/internal/adapters/email"
	"clique/internal/adapters/push"
	delivery "clique/internal/delivery/http"
	"clique/internal/delivery/http/controllers"
	"clique/internal/realtime"
	"clique/internal/repository/postgres"
	"clique/internal/services"
)

const (
	serviceTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
	bcryptCost      = 12
)

// @title Clique API
// @version 1.0
// @description Backend for shared event planning: events with invites and RSVPs, friends, per-event chat, and realtime sync.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(db); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	friendshipRepo := postgres.NewFriendshipRepository(db)
	requestRepo := postgres.NewFriendRequestRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	mailer, err := email.NewMailer(cfg.Mail)
	if err != nil {
		logger.Error("init mailer", "error", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	notifier := push.NewNotifier(cfg.Push, logger)

	hub := realtime.NewHub(logger)
	go hub.Run()

	hasher := auth.NewBcryptHasher(bcryptCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)

	authService := services.NewAuthService(userRepo, eventRepo, hasher, tokenIssuer, cfg.JWTExpiry, emailService, logger)
	userService := services.NewUserService(userRepo, eventRepo, hub, logger, serviceTimeout)
	eventService := services.NewEventService(eventRepo, userRepo, notifier, emailService, hub, logger, serviceTimeout)
	friendService := services.NewFriendService(friendshipRepo, requestRepo, userRepo, notifier, hub, logger, serviceTimeout)
	chatService := services.NewChatService(chatRepo, eventRepo, userRepo, notifier, hub, logger, serviceTimeout)

	router := delivery.NewRouter(delivery.Controllers{
		Auth:   controllers.NewAuthController(logger, authService),
		User:   controllers.NewUserController(logger, userService),
		Event:  controllers.NewEventController(logger, eventService),
		Friend: controllers.NewFriendController(logger, friendService),
		Chat:   controllers.NewChatController(logger, chatService),
		WS: controllers.NewWSController(
			logger, hub, chatService,
			eventRepo, friendshipRepo, requestRepo, chatRepo,
			cfg.AllowedOrigins,
		),
	}, tokenVerifier, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("received signal", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	hub.Shutdown()

	logger.Info("shutdown complete")
}
