package repository

import (
	"context"
	"fmt"
	"net/url"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"go.uber.org/zap"
)

// couchPageSize bounds each Mango _find request. CouchDB caps an unlimited _find at 25 rows, so
// full listings follow the bookmark page by page.
const couchPageSize = 100

type CouchOptions struct {
	Host     string
	Port     string
	User     string
	Password string
}

func (o CouchOptions) URL() string {
	u := url.URL{
		Scheme: "http",
		User:   url.UserPassword(o.User, o.Password),
		Host:   fmt.Sprintf("%s:%s", o.Host, o.Port),
	}
	return u.String()
}

// ConnectCouch opens the CouchDB client, creates the database if needed and makes sure the
// Mango indexes used by the catalog lookups exist.
func ConnectCouch(ctx context.Context, opts CouchOptions, dbName string, log *zap.SugaredLogger) (*kivik.Client, error) {
	client, err := kivik.New("couch", opts.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		log.Infow("created database", "name", dbName)
	}

	db := client.DB(dbName)
	indexes := map[string][]string{
		"by-type":           {"type"},
		"movie-by-id":       {"type", "movie_id"},
		"movie-by-title":    {"type", "Title"},
		"movie-by-genre":    {"type", "Genre.Name"},
		"movie-by-director": {"type", "Director.Name"},
	}
	for name, fields := range indexes {
		index := map[string]interface{}{"fields": fields}
		if err := db.CreateIndex(ctx, "myflix", name, index); err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}

	return client, nil
}

// findAll runs a Mango query page by page, calling scan for every row, until a page comes back
// short or the bookmark stops moving.
func findAll(ctx context.Context, db *kivik.DB, selector map[string]interface{}, pageSize int, scan func(*kivik.ResultSet) error) error {
	if pageSize <= 0 {
		pageSize = couchPageSize
	}

	bookmark := ""
	for {
		query := map[string]interface{}{
			"selector": selector,
			"limit":    pageSize,
		}
		if bookmark != "" {
			query["bookmark"] = bookmark
		}

		rows := db.Find(ctx, query)
		count := 0
		for rows.Next() {
			if err := scan(rows); err != nil {
				_ = rows.Close()
				return err
			}
			count++
		}
		if err := rows.Err(); err != nil {
			return err
		}

		meta, err := rows.Metadata()
		if err != nil {
			return err
		}
		if count < pageSize || meta == nil || meta.Bookmark == "" || meta.Bookmark == bookmark {
			return nil
		}
		bookmark = meta.Bookmark
	}
}
