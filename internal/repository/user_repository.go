package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"myflix-api/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type UserRepository interface {
	// Create inserts a new user. It fails with domain.ErrDuplicate when the username is taken,
	// without a separate existence check.
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Replace overwrites the profile fields of the user stored under username; user.Username
	// may differ, which renames the account.
	Replace(ctx context.Context, username string, user *domain.User) (*domain.User, error)
	AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error)
	Delete(ctx context.Context, username string) error
}

const userDocType = "user"

// userDoc is the CouchDB representation. The document id is derived from the username so
// the store itself rejects a second user with the same name.
type userDoc struct {
	DocID          string   `json:"_id"`
	Rev            string   `json:"_rev,omitempty"`
	Type           string   `json:"type"`
	UserID         string   `json:"user_id"`
	Username       string   `json:"Username"`
	Password       string   `json:"Password"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}

func userDocID(username string) string {
	return fmt.Sprintf("user:%s", username)
}

func newUserDoc(user *domain.User) *userDoc {
	favorites := user.FavoriteMovies
	if favorites == nil {
		favorites = []string{}
	}
	return &userDoc{
		DocID:          userDocID(user.Username),
		Type:           userDocType,
		UserID:         user.ID,
		Username:       user.Username,
		Password:       user.Password,
		Email:          user.Email,
		Birthday:       user.Birthday,
		FavoriteMovies: favorites,
	}
}

func (d *userDoc) toDomain() *domain.User {
	favorites := d.FavoriteMovies
	if favorites == nil {
		favorites = []string{}
	}
	return &domain.User{
		ID:             d.UserID,
		Username:       d.Username,
		Password:       d.Password,
		Email:          d.Email,
		Birthday:       d.Birthday,
		FavoriteMovies: favorites,
	}
}

type userRepository struct {
	client   *kivik.Client
	dbName   string
	timeout  time.Duration
	pageSize int
}

func NewUserRepository(client *kivik.Client, dbName string, timeout time.Duration) UserRepository {
	return &userRepository{
		client:   client,
		dbName:   dbName,
		timeout:  timeout,
		pageSize: couchPageSize,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	db := r.client.DB(r.dbName)

	doc := newUserDoc(user)
	if _, err := db.Put(ctx, doc.DocID, doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) get(ctx context.Context, username string) (*userDoc, error) {
	db := r.client.DB(r.dbName)

	var doc userDoc
	if err := db.Get(ctx, userDocID(username)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return &doc, nil
}

func (r *userRepository) put(ctx context.Context, doc *userDoc) error {
	db := r.client.DB(r.dbName)

	if _, err := db.Put(ctx, doc.DocID, doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return domain.ErrConflict
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.get(ctx, username)
	if err != nil {
		return nil, err
	}

	return doc.toDomain(), nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	db := r.client.DB(r.dbName)

	users := []*domain.User{}
	selector := map[string]interface{}{"type": userDocType}
	err := findAll(ctx, db, selector, r.pageSize, func(rows *kivik.ResultSet) error {
		var doc userDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, doc.toDomain())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Replace(ctx context.Context, username string, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	existing, err := r.get(ctx, username)
	if err != nil {
		return nil, err
	}

	updated := newUserDoc(user)
	updated.UserID = existing.UserID
	updated.FavoriteMovies = existing.FavoriteMovies

	if user.Username == username {
		updated.Rev = existing.Rev
		if err := r.put(ctx, updated); err != nil {
			return nil, err
		}
		return updated.toDomain(), nil
	}

	// Rename: claim the new id first so a taken username fails before anything is removed.
	db := r.client.DB(r.dbName)
	newRev, err := db.Put(ctx, updated.DocID, updated)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to rename user: %w", err)
	}

	if _, err := db.Delete(ctx, existing.DocID, existing.Rev); err != nil {
		// Roll back the new document so the account is not left under both names.
		_, _ = db.Delete(ctx, updated.DocID, newRev)
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("failed to remove previous user document: %w", err)
	}

	return updated.toDomain(), nil
}

func (r *userRepository) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.get(ctx, username)
	if err != nil {
		return nil, err
	}

	user := doc.toDomain()
	if user.HasFavorite(movieID) {
		return user, nil
	}

	doc.FavoriteMovies = append(doc.FavoriteMovies, movieID)
	if err := r.put(ctx, doc); err != nil {
		return nil, err
	}

	return doc.toDomain(), nil
}

func (r *userRepository) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.get(ctx, username)
	if err != nil {
		return nil, err
	}

	if !doc.toDomain().HasFavorite(movieID) {
		return doc.toDomain(), nil
	}

	kept := make([]string, 0, len(doc.FavoriteMovies))
	for _, id := range doc.FavoriteMovies {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	doc.FavoriteMovies = kept

	if err := r.put(ctx, doc); err != nil {
		return nil, err
	}

	return doc.toDomain(), nil
}

func (r *userRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc, err := r.get(ctx, username)
	if err != nil {
		return err
	}

	db := r.client.DB(r.dbName)
	if _, err := db.Delete(ctx, doc.DocID, doc.Rev); err != nil {
		switch kivik.HTTPStatus(err) {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusConflict:
			return domain.ErrConflict
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
