package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"myflix-api/internal/config"
	"myflix-api/internal/handler"
	"myflix-api/internal/repository"
	"myflix-api/internal/service"
	"myflix-api/internal/websocket"
	"myflix-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.Server.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logr.Sync()

	if err := run(cfg, logr); err != nil {
		logr.Fatalw("server exited", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.SugaredLogger) error {
	if cfg.JWT.DevSecret {
		logr.Warn("JWT_SECRET is not set, using the development signing key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, repository.Options{
		Driver: cfg.Database.Driver,
		Name:   cfg.Database.Name,
		Couch: repository.CouchOptions{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		},
		MongoURI: cfg.Database.MongoURI,
		Timeout:  cfg.Database.Timeout,
	}, logr)
	if err != nil {
		return err
	}

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnPerUser: cfg.WebSocket.MaxConnPerUser,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	}, logr.Named("ws"))
	wsManager.SetMessageHandler(handler.NewWebSocketMessageHandler())

	wsCtx, stopWS := context.WithCancel(context.Background())
	defer stopWS()
	go wsManager.Run(wsCtx)

	authService := service.NewAuthService(store.Users, cfg.JWT.Secret, cfg.JWT.Expiration)
	userService := service.NewUserService(store.Users, store.Movies, wsManager)
	movieService := service.NewMovieService(store.Movies)

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: handler.NewRouter(handler.RouterDeps{
			AuthService:  authService,
			UserService:  userService,
			MovieService: movieService,
			WSManager:    wsManager,
			Config:       cfg,
			Log:          logr,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Infow("starting myFlix API", "addr", srv.Addr, "env", cfg.Server.Env, "db", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			store.Close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Errorw("server forced to shutdown", "error", err)
	}

	stopWS()

	if err := store.Close(shutdownCtx); err != nil {
		logr.Errorw("failed to close store", "error", err)
	}

	logr.Info("server stopped gracefully")
	return nil
}
