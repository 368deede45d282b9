// Package mongo implements the entity store on MongoDB. Users embed their
// sell/buy book id arrays and books embed their images, matching the
// document shape the marketplace was first built around.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/book-exchange/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	booksCollection = "books"
)

// DB wraps a connected client and the selected database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ domain.Database = (*DB)(nil)

// New connects to uri and verifies the connection with a ping.
func New(ctx context.Context, uri, database string) (*DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DB{client: client, db: client.Database(database)}, nil
}

// Migrate creates the indexes the repositories rely on. Safe to re-run.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = d.db.Collection(booksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller", Value: 1}}, Options: options.Index().SetName("seller")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created_desc")},
		{Keys: bson.D{{Key: "price", Value: 1}}, Options: options.Index().SetName("price")},
	})
	if err != nil {
		return fmt.Errorf("create books indexes: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func (d *DB) Users() domain.UserRepository {
	return &userRepo{users: d.db.Collection(usersCollection)}
}

func (d *DB) Books() domain.BookRepository {
	return &bookRepo{
		books: d.db.Collection(booksCollection),
		users: d.db.Collection(usersCollection),
	}
}

// Drop removes the whole database. Used by tests.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

type imageDoc struct {
	Key string `bson:"filename"`
	URL string `bson:"path"`
}

func toImageDocs(refs []domain.ImageRef) []imageDoc {
	docs := make([]imageDoc, len(refs))
	for i, r := range refs {
		docs[i] = imageDoc(r)
	}
	return docs
}

func fromImageDocs(docs []imageDoc) []domain.ImageRef {
	refs := make([]domain.ImageRef, len(docs))
	for i, d := range docs {
		refs[i] = domain.ImageRef(d)
	}
	return refs
}
