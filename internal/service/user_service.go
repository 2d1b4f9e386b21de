package service

import (
	"context"
	"errors"
	"fmt"

	"myflix-api/internal/domain"
	"myflix-api/internal/repository"
	"myflix-api/pkg/hash"

	"github.com/google/uuid"
)

// Event names pushed to a user's live connections.
const (
	EventFavoritesUpdated = "favorites_updated"
	EventProfileUpdated   = "profile_updated"
	EventAccountDeleted   = "account_deleted"
)

// UserNotifier delivers account events to the user's open connections.
type UserNotifier interface {
	NotifyUser(username, event string, payload interface{})
	RenameUser(oldUsername, newUsername string)
	DisconnectUser(username string)
}

type UserService struct {
	userRepo  repository.UserRepository
	movieRepo repository.MovieRepository
	notifier  UserNotifier
}

func NewUserService(userRepo repository.UserRepository, movieRepo repository.MovieRepository, notifier UserNotifier) *UserService {
	return &UserService{
		userRepo:  userRepo,
		movieRepo: movieRepo,
		notifier:  notifier,
	}
}

func (s *UserService) notify(username, event string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.NotifyUser(username, event, payload)
	}
}

// Register creates the account. The store rejects a taken username atomically.
func (s *UserService) Register(ctx context.Context, req *domain.UserRequest) (*domain.User, error) {
	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:             uuid.New().String(),
		Username:       req.Username,
		Password:       hashedPassword,
		Email:          req.Email,
		Birthday:       req.Birthday,
		FavoriteMovies: []string{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user.Sanitized(), nil
}

// List returns every user with favorites expanded into movie records.
func (s *UserService) List(ctx context.Context) ([]*domain.UserProfile, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	catalog, err := s.favoriteMovies(ctx, users...)
	if err != nil {
		return nil, err
	}

	profiles := make([]*domain.UserProfile, len(users))
	for i, u := range users {
		profiles[i] = u.Profile(catalog)
	}
	return profiles, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.UserProfile, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, userLookupErr(err)
	}

	catalog, err := s.favoriteMovies(ctx, user)
	if err != nil {
		return nil, err
	}
	return user.Profile(catalog), nil
}

// favoriteMovies loads the catalog entries referenced by the users' favorites, keyed by id.
func (s *UserService) favoriteMovies(ctx context.Context, users ...*domain.User) (map[string]*domain.Movie, error) {
	seen := make(map[string]struct{})
	ids := []string{}
	for _, u := range users {
		for _, id := range u.FavoriteMovies {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	catalog := make(map[string]*domain.Movie, len(ids))
	if len(ids) == 0 {
		return catalog, nil
	}

	movies, err := s.movieRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve favorite movies: %w", err)
	}
	for _, m := range movies {
		catalog[m.ID] = m
	}
	return catalog, nil
}

// Update replaces the profile of username with the request fields, re-hashing the password.
func (s *UserService) Update(ctx context.Context, username string, req *domain.UserRequest) (*domain.User, error) {
	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Replace(ctx, username, &domain.User{
		Username: req.Username,
		Password: hashedPassword,
		Email:    req.Email,
		Birthday: req.Birthday,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrUserExists
		}
		return nil, userLookupErr(err)
	}

	sanitized := user.Sanitized()
	s.notify(username, EventProfileUpdated, sanitized)
	if s.notifier != nil && sanitized.Username != username {
		s.notifier.RenameUser(username, sanitized.Username)
	}
	return sanitized, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		return userLookupErr(err)
	}

	s.notify(username, EventAccountDeleted, map[string]string{"Username": username})
	if s.notifier != nil {
		s.notifier.DisconnectUser(username)
	}
	return nil
}

// AddFavorite appends movieID to the user's favorites. The movie id is not checked against
// the catalog; adding an id that is already listed leaves the list unchanged.
func (s *UserService) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	user, err := s.userRepo.AddFavorite(ctx, username, movieID)
	if err != nil {
		return nil, userLookupErr(err)
	}
	return s.favoritesChanged(user), nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	user, err := s.userRepo.RemoveFavorite(ctx, username, movieID)
	if err != nil {
		return nil, userLookupErr(err)
	}
	return s.favoritesChanged(user), nil
}

func (s *UserService) favoritesChanged(user *domain.User) *domain.User {
	sanitized := user.Sanitized()
	s.notify(user.Username, EventFavoritesUpdated, &domain.FavoritesPayload{
		Username:       sanitized.Username,
		FavoriteMovies: sanitized.FavoriteMovies,
	})
	return sanitized
}

func userLookupErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, domain.ErrConflict):
		return err
	default:
		return fmt.Errorf("user store: %w", err)
	}
}
