package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myflix-api/internal/domain"
	"myflix-api/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type MovieService struct {
	movieRepo repository.MovieRepository
	validate  *validator.Validate
}

func NewMovieService(movieRepo repository.MovieRepository) *MovieService {
	return &MovieService{
		movieRepo: movieRepo,
		validate:  validator.New(),
	}
}

func (s *MovieService) List(ctx context.Context) ([]*domain.Movie, error) {
	movies, err := s.movieRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

func (s *MovieService) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	movie, err := s.movieRepo.FindByTitle(ctx, title)
	if err != nil {
		return nil, catalogErr(err, domain.ErrMovieNotFound)
	}
	return movie, nil
}

func (s *MovieService) GetGenre(ctx context.Context, name string) (*domain.Genre, error) {
	movie, err := s.movieRepo.FindByGenre(ctx, name)
	if err != nil {
		return nil, catalogErr(err, domain.ErrGenreNotFound)
	}
	return &movie.Genre, nil
}

func (s *MovieService) GetDirector(ctx context.Context, name string) (*domain.Director, error) {
	movie, err := s.movieRepo.FindByDirector(ctx, name)
	if err != nil {
		return nil, catalogErr(err, domain.ErrDirectorNotFound)
	}
	return &movie.Director, nil
}

// Import validates and upserts a batch of catalog entries, assigning ids where missing.
// It stops at the first failure and reports how many movies were written.
func (s *MovieService) Import(ctx context.Context, movies []*domain.Movie) (int, error) {
	for i, m := range movies {
		if err := s.validate.Struct(m); err != nil {
			return 0, fmt.Errorf("movie %d: %w", i, err)
		}
	}

	written := 0
	for _, m := range movies {
		if strings.TrimSpace(m.ID) == "" {
			m.ID = uuid.New().String()
		}
		if err := s.movieRepo.Upsert(ctx, m); err != nil {
			return written, fmt.Errorf("failed to import %q: %w", m.Title, err)
		}
		written++
	}

	return written, nil
}

func catalogErr(err, notFound error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("movie store: %w", err)
}
