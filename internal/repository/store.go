package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DriverCouch  = "couch"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Options struct {
	Driver   string
	Name     string
	Couch    CouchOptions
	MongoURI string
	Timeout  time.Duration
}

// Store bundles the repositories of one backend with its shutdown hook.
type Store struct {
	Users  UserRepository
	Movies MovieRepository
	close  func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func Open(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Store, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	switch opts.Driver {
	case DriverCouch:
		client, err := ConnectCouch(ctx, opts.Couch, opts.Name, log)
		if err != nil {
			return nil, err
		}
		log.Infow("connected to CouchDB", "host", opts.Couch.Host, "port", opts.Couch.Port, "db", opts.Name)
		return &Store{
			Users:  NewUserRepository(client, opts.Name, timeout),
			Movies: NewMovieRepository(client, opts.Name, timeout),
			close: func(context.Context) error {
				return client.Close()
			},
		}, nil

	case DriverMongo:
		client, db, err := ConnectMongo(ctx, opts.MongoURI, opts.Name)
		if err != nil {
			return nil, err
		}
		log.Infow("connected to MongoDB", "db", opts.Name)
		return &Store{
			Users:  NewMongoUserRepository(db, timeout),
			Movies: NewMongoMovieRepository(db, timeout),
			close:  client.Disconnect,
		}, nil

	case DriverMemory:
		log.Warnw("using in-memory store, data is lost on restart")
		mem := NewMemoryStore()
		return &Store{
			Users:  mem.Users(),
			Movies: mem.Movies(),
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
}
