package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myflix-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	moviesCollection = "movies"
)

// ConnectMongo connects, pings and creates the unique username index that backs
// create-or-conflict registration.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)

	_, err = db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "Username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create username index: %w", err)
	}

	_, err = db.Collection(moviesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "Title", Value: 1}}},
		{Keys: bson.D{{Key: "Genre.Name", Value: 1}}},
		{Keys: bson.D{{Key: "Director.Name", Value: 1}}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create movie indexes: %w", err)
	}

	return client, db, nil
}

type mongoUserRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoUserRepository(db *mongo.Database, timeout time.Duration) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(usersCollection),
		timeout:    timeout,
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := user.Clone()
	if doc.FavoriteMovies == nil {
		doc.FavoriteMovies = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user domain.User
	if err := r.collection.FindOne(ctx, bson.M{"Username": username}).Decode(&user); err != nil {
		return nil, translateMongoErr(err, "find user")
	}

	return &user, nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := []*domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	return users, nil
}

func (r *mongoUserRepository) findOneAndUpdate(ctx context.Context, username string, update bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"Username": username}, update, opts).Decode(&user)
	if err != nil {
		return nil, translateMongoErr(err, "update user")
	}

	return &user, nil
}

func (r *mongoUserRepository) Replace(ctx context.Context, username string, user *domain.User) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, username, bson.M{
		"$set": bson.M{
			"Username": user.Username,
			"Password": user.Password,
			"Email":    user.Email,
			"Birthday": user.Birthday,
		},
	})
}

func (r *mongoUserRepository) AddFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, username, bson.M{
		"$addToSet": bson.M{"FavoriteMovies": movieID},
	})
}

func (r *mongoUserRepository) RemoveFavorite(ctx context.Context, username, movieID string) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, username, bson.M{
		"$pull": bson.M{"FavoriteMovies": movieID},
	})
}

func (r *mongoUserRepository) Delete(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"Username": username})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

type mongoMovieRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoMovieRepository(db *mongo.Database, timeout time.Duration) MovieRepository {
	return &mongoMovieRepository{
		collection: db.Collection(moviesCollection),
		timeout:    timeout,
	}
}

func (r *mongoMovieRepository) List(ctx context.Context) ([]*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies := []*domain.Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}

	return movies, nil
}

func (r *mongoMovieRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error) {
	movies := []*domain.Movie{}
	if len(ids) == 0 {
		return movies, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find movies by id: %w", err)
	}

	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}

	return movies, nil
}

func (r *mongoMovieRepository) findOne(ctx context.Context, filter bson.M) (*domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var movie domain.Movie
	if err := r.collection.FindOne(ctx, filter).Decode(&movie); err != nil {
		return nil, translateMongoErr(err, "find movie")
	}

	return &movie, nil
}

func (r *mongoMovieRepository) FindByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	return r.findOne(ctx, bson.M{"Title": title})
}

func (r *mongoMovieRepository) FindByGenre(ctx context.Context, name string) (*domain.Movie, error) {
	return r.findOne(ctx, bson.M{"Genre.Name": name})
}

func (r *mongoMovieRepository) FindByDirector(ctx context.Context, name string) (*domain.Movie, error) {
	return r.findOne(ctx, bson.M{"Director.Name": name})
}

func (r *mongoMovieRepository) Upsert(ctx context.Context, movie *domain.Movie) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": movie.ID}, movie, opts); err != nil {
		return fmt.Errorf("failed to upsert movie: %w", err)
	}

	return nil
}

func translateMongoErr(err error, op string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrDuplicate
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
