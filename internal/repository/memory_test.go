package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myflix-api/internal/domain"
)

func newUser(username string) *domain.User {
	return &domain.User{
		ID:             username + "-id",
		Username:       username,
		Password:       "hash",
		Email:          username + "@example.com",
		FavoriteMovies: []string{},
	}
}

func TestMemoryUsers_CreateIsAtomic(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, newUser("alice01")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrDuplicate)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryUsers_ReturnsCopies(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()

	original := newUser("alice01")
	require.NoError(t, repo.Create(ctx, original))
	original.Email = "mutated@example.com"

	found, err := repo.FindByUsername(ctx, "alice01")
	require.NoError(t, err)
	assert.Equal(t, "alice01@example.com", found.Email)

	found.FavoriteMovies = append(found.FavoriteMovies, "m1")
	again, _ := repo.FindByUsername(ctx, "alice01")
	assert.Empty(t, again.FavoriteMovies)
}

func TestMemoryUsers_Replace(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("alice01")))
	require.NoError(t, repo.Create(ctx, newUser("bobby01")))
	_, err := repo.AddFavorite(ctx, "alice01", "m1")
	require.NoError(t, err)

	_, err = repo.Replace(ctx, "alice01", newUser("bobby01"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = repo.Replace(ctx, "nobody", newUser("nobody"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	renamed := newUser("alice02")
	renamed.ID = "ignored"
	updated, err := repo.Replace(ctx, "alice01", renamed)
	require.NoError(t, err)
	assert.Equal(t, "alice01-id", updated.ID)
	assert.Equal(t, []string{"m1"}, updated.FavoriteMovies)

	_, err = repo.FindByUsername(ctx, "alice01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryUsers_Favorites(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("alice01")))

	for _, id := range []string{"m1", "m2", "m1"} {
		_, err := repo.AddFavorite(ctx, "alice01", id)
		require.NoError(t, err)
	}

	user, _ := repo.FindByUsername(ctx, "alice01")
	assert.Equal(t, []string{"m1", "m2"}, user.FavoriteMovies)

	user, err := repo.RemoveFavorite(ctx, "alice01", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, user.FavoriteMovies)

	_, err = repo.AddFavorite(ctx, "nobody", "m1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryUsers_ListAndDelete(t *testing.T) {
	repo := NewMemoryStore().Users()
	ctx := context.Background()

	for _, name := range []string{"charlie1", "alice01", "bobby01"} {
		require.NoError(t, repo.Create(ctx, newUser(name)))
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	assert.Equal(t, []string{"alice01", "bobby01", "charlie1"}, names)

	require.NoError(t, repo.Delete(ctx, "bobby01"))
	assert.ErrorIs(t, repo.Delete(ctx, "bobby01"), domain.ErrNotFound)
}

func TestMemoryMovies(t *testing.T) {
	repo := NewMemoryStore().Movies()
	ctx := context.Background()

	for i, title := range []string{"Zodiac", "Alien", "Memento"} {
		require.NoError(t, repo.Upsert(ctx, &domain.Movie{
			ID:       fmt.Sprintf("m%d", i),
			Title:    title,
			Genre:    domain.Genre{Name: "Thriller"},
			Director: domain.Director{Name: "Director " + title},
		}))
	}

	movies, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 3)
	assert.Equal(t, "Alien", movies[0].Title)

	first, err := repo.FindByGenre(ctx, "Thriller")
	require.NoError(t, err)
	assert.Equal(t, "Alien", first.Title)

	_, err = repo.FindByTitle(ctx, "alien")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.Movie{ID: "m1", Title: "Aliens"}))
	movies, _ = repo.List(ctx)
	assert.Len(t, movies, 3)

	_, err = repo.FindByDirector(ctx, "Director Alien")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryMovieRepository_FindByIDs(t *testing.T) {
	repo := NewMemoryStore().Movies()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Movie{ID: "m1", Title: "Alien"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Movie{ID: "m2", Title: "Zodiac"}))

	movies, err := repo.FindByIDs(ctx, []string{"m2", "missing", "m1"})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Zodiac", movies[0].Title)

	movies[0].Title = "changed"
	again, _ := repo.FindByIDs(ctx, []string{"m2"})
	assert.Equal(t, "Zodiac", again[0].Title)

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
