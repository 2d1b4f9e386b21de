package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"myflix-api/internal/config"
	"myflix-api/internal/domain"
	"myflix-api/internal/repository"
	"myflix-api/internal/service"
	"myflix-api/pkg/logger"
)

func main() {
	file := flag.String("file", "movies.json", "JSON array of movies to import")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.Server.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(context.Background(), cfg, logr, *file); err != nil {
		logr.Errorw("seed failed", "file", *file, "error", err)
		_ = logr.Sync()
		os.Exit(1)
	}
	_ = logr.Sync()
}

func run(ctx context.Context, cfg *config.Config, logr *zap.SugaredLogger, file string) error {
	movies, err := loadCatalog(file)
	if err != nil {
		return err
	}

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
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			logr.Warnw("failed to close store", "error", err)
		}
	}()

	written, err := service.NewMovieService(store.Movies).Import(ctx, movies)
	if err != nil {
		return fmt.Errorf("import stopped after %d movies: %w", written, err)
	}

	logr.Infow("catalog imported", "file", file, "movies", written)
	return nil
}

func loadCatalog(file string) ([]*domain.Movie, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var movies []*domain.Movie
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return movies, nil
}
