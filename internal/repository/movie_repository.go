package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"myflix-api/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type MovieRepository interface {
	List(ctx context.Context) ([]*domain.Movie, error)
	// FindByIDs returns the movies whose ids are listed. Unknown ids are skipped and the result
	// order is unspecified.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error)
	FindByTitle(ctx context.Context, title string) (*domain.Movie, error)
	// FindByGenre returns the first movie whose genre has the given name.
	FindByGenre(ctx context.Context, name string) (*domain.Movie, error)
	// FindByDirector returns the first movie whose director has the given name.
	FindByDirector(ctx context.Context, name string) (*domain.Movie, error)
	Upsert(ctx context.Context, movie *domain.Movie) error
}

const movieDocType = "movie"

type movieDoc struct {
	DocID   string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	Type    string `json:"type"`
	MovieID string `json:"movie_id"`

	Title       string          `json:"Title"`
	Description string          `json:"Description"`
	Genre       domain.Genre    `json:"Genre"`
	Director    domain.Director `json:"Director"`
	ImagePath   string          `json:"ImagePath,omitempty"`
	Featured    bool            `json:"Featured"`
}

func movieDocID(id string) string {
	return fmt.Sprintf("movie:%s", id)
}

func (d *movieDoc) toDomain() *domain.Movie {
	return &domain.Movie{
		ID:          d.MovieID,
		Title:       d.Title,
		Description: d.Description,
		Genre:       d.Genre,
		Director:    d.Director,
		ImagePath:   d.ImagePath,
		Featured:    d.Featured,
	}
}

type movieRepository struct {
	client   *kivik.Client
	dbName   string
	timeout  time.Duration
	pageSize int
}

func NewMovieRepository(client *kivik.Client, dbName string, timeout time.Duration) MovieRepository {
	return &movieRepository{
		client:   client,
		dbName:   dbName,
		timeout:  timeout,
		pageSize: couchPageSize,
	}
}

func scanMovie(movies *[]*domain.Movie) func(*kivik.ResultSet) error {
	return func(rows *kivik.ResultSet) error {
		var doc movieDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return fmt.Errorf("failed to scan movie: %w", err)
		}
		*movies = append(*movies, doc.toDomain())
		return nil
	}
}

func (r *movieRepository) findMany(ctx context.Context, selector map[string]interface{}) ([]*domain.Movie, error) {
	selector["type"] = movieDocType

	movies := []*domain.Movie{}
	if err := findAll(ctx, r.client.DB(r.dbName), selector, r.pageSize, scanMovie(&movies)); err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	return movies, nil
}

func (r *movieRepository) findOne(ctx context.Context, selector map[string]interface{}) (*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	selector["type"] = movieDocType
	query := map[string]interface{}{
		"selector": selector,
		"limit":    1,
	}

	rows := r.client.DB(r.dbName).Find(ctx, query)
	defer rows.Close()

	movies := []*domain.Movie{}
	scan := scanMovie(&movies)
	for rows.Next() {
		if err := scan(rows); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	if len(movies) == 0 {
		return nil, domain.ErrNotFound
	}

	return movies[0], nil
}

func (r *movieRepository) List(ctx context.Context) ([]*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.findMany(ctx, map[string]interface{}{})
}

func (r *movieRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error) {
	if len(ids) == 0 {
		return []*domain.Movie{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.findMany(ctx, map[string]interface{}{
		"movie_id": map[string]interface{}{"$in": ids},
	})
}

func (r *movieRepository) FindByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	return r.findOne(ctx, map[string]interface{}{"Title": title})
}

func (r *movieRepository) FindByGenre(ctx context.Context, name string) (*domain.Movie, error) {
	return r.findOne(ctx, map[string]interface{}{"Genre.Name": name})
}

func (r *movieRepository) FindByDirector(ctx context.Context, name string) (*domain.Movie, error) {
	return r.findOne(ctx, map[string]interface{}{"Director.Name": name})
}

func (r *movieRepository) Upsert(ctx context.Context, movie *domain.Movie) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	db := r.client.DB(r.dbName)
	docID := movieDocID(movie.ID)

	doc := &movieDoc{
		DocID:       docID,
		Type:        movieDocType,
		MovieID:     movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Genre:       movie.Genre,
		Director:    movie.Director,
		ImagePath:   movie.ImagePath,
		Featured:    movie.Featured,
	}

	var existing movieDoc
	if err := db.Get(ctx, docID).ScanDoc(&existing); err == nil {
		doc.Rev = existing.Rev
	} else if kivik.HTTPStatus(err) != http.StatusNotFound {
		return fmt.Errorf("failed to read movie %s: %w", movie.ID, err)
	}

	if _, err := db.Put(ctx, docID, doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return domain.ErrConflict
		}
		return fmt.Errorf("failed to upsert movie: %w", err)
	}

	return nil
}
