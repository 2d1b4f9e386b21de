package repository

import (
	"context"
	"sort"
	"sync"

	"myflix-api/internal/domain"
)

// MemoryStore keeps users and movies in process. Every operation holds the lock for its whole
// read-modify-write, so the username check and insert are atomic here too.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	movies map[string]*domain.Movie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]*domain.User),
		movies: make(map[string]*domain.Movie),
	}
}

func (s *MemoryStore) Users() UserRepository {
	return &memoryUserRepository{store: s}
}

func (s *MemoryStore) Movies() MovieRepository {
	return &memoryMovieRepository{store: s}
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[user.Username]; exists {
		return domain.ErrDuplicate
	}

	stored := user.Clone()
	r.store.users[user.Username] = stored
	return nil
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user.Clone(), nil
}

func (r *memoryUserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	return users, nil
}

func (r *memoryUserRepository) Replace(_ context.Context, username string, user *domain.User) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if user.Username != username {
		if _, taken := r.store.users[user.Username]; taken {
			return nil, domain.ErrDuplicate
		}
	}

	updated := existing.Clone()
	updated.Username = user.Username
	updated.Password = user.Password
	updated.Email = user.Email
	updated.Birthday = user.Birthday

	delete(r.store.users, username)
	r.store.users[updated.Username] = updated

	return updated.Clone(), nil
}

func (r *memoryUserRepository) AddFavorite(_ context.Context, username, movieID string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if !user.HasFavorite(movieID) {
		user.FavoriteMovies = append(user.FavoriteMovies, movieID)
	}

	return user.Clone(), nil
}

func (r *memoryUserRepository) RemoveFavorite(_ context.Context, username, movieID string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}

	kept := make([]string, 0, len(user.FavoriteMovies))
	for _, id := range user.FavoriteMovies {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	user.FavoriteMovies = kept

	return user.Clone(), nil
}

func (r *memoryUserRepository) Delete(_ context.Context, username string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[username]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.users, username)
	return nil
}

type memoryMovieRepository struct {
	store *MemoryStore
}

func (r *memoryMovieRepository) List(_ context.Context) ([]*domain.Movie, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.sortedLocked(), nil
}

func (r *memoryMovieRepository) FindByIDs(_ context.Context, ids []string) ([]*domain.Movie, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	movies := make([]*domain.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.store.movies[id]; ok {
			c := *m
			movies = append(movies, &c)
		}
	}
	return movies, nil
}

func (r *memoryMovieRepository) sortedLocked() []*domain.Movie {
	movies := make([]*domain.Movie, 0, len(r.store.movies))
	for _, m := range r.store.movies {
		c := *m
		movies = append(movies, &c)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].Title < movies[j].Title })
	return movies
}

func (r *memoryMovieRepository) findFirst(match func(*domain.Movie) bool) (*domain.Movie, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.sortedLocked() {
		if match(m) {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryMovieRepository) FindByTitle(_ context.Context, title string) (*domain.Movie, error) {
	return r.findFirst(func(m *domain.Movie) bool { return m.Title == title })
}

func (r *memoryMovieRepository) FindByGenre(_ context.Context, name string) (*domain.Movie, error) {
	return r.findFirst(func(m *domain.Movie) bool { return m.Genre.Name == name })
}

func (r *memoryMovieRepository) FindByDirector(_ context.Context, name string) (*domain.Movie, error) {
	return r.findFirst(func(m *domain.Movie) bool { return m.Director.Name == name })
}

func (r *memoryMovieRepository) Upsert(_ context.Context, movie *domain.Movie) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *movie
	r.store.movies[movie.ID] = &c
	return nil
}
