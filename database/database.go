package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	TrustedContactsCollection = "trusted_contacts"
	NotificationsCollection   = "notifications"
	VideosCollection          = "videos"
)

var (
	// ErrNoDocuments is returned by FindOne when no document matches the filter.
	ErrNoDocuments = errors.New("no documents in result")

	// ErrDuplicateKey is returned by InsertOne when a unique index rejects the document.
	ErrDuplicateKey = errors.New("duplicate key")
)

type Config struct {
	URI  string
	Name string
}

// DB holds the process-wide mongo connection. It is constructed once at
// startup with Connect, handed to the repositories, and released with
// Disconnect during shutdown.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

func Connect(ctx context.Context, config Config) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, errors.Wrap(err, "database.Connect")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "database.Connect: ping")
	}

	return &DB{client: client, database: client.Database(config.Name)}, nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) Collection(name string) Collection {
	return &mongoCollection{col: db.database.Collection(name)}
}

// EnsureIndexes declares the store-side constraints the repositories rely on.
// The compound unique index on (user_id, phone) closes the duplicate-phone
// check-then-insert race: a concurrent create that slips past the application
// check is rejected by the index and surfaces as ErrDuplicateKey.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	contacts := db.database.Collection(TrustedContactsCollection)

	_, err := contacts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_id_phone_unique"),
	})
	if err != nil {
		return errors.Wrap(err, "database.EnsureIndexes")
	}

	return nil
}

// ---------------------------------------------------------------------------------//
// Collection
// --------------------------------------------------------------------------------//

// FindOptions carries the subset of query options the repositories use.
type FindOptions struct {
	Skip  int64
	Limit int64
}

// UpdateResult reports what an update matched and modified.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// Collection is the generic document-collection interface the repositories
// depend on. Each operation is atomic at single-document granularity; nothing
// here spans documents transactionally.
type Collection interface {
	FindOne(ctx context.Context, filter bson.M, out interface{}) error
	Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	err := c.col.FindOne(ctx, filter).Decode(out)
	if err == mongo.ErrNoDocuments {
		return ErrNoDocuments
	}

	return err
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error {
	findOpts := options.Find()
	if opts != nil {
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	}

	cursor, err := c.col.Find(ctx, filter, findOpts)
	if err != nil {
		return err
	}

	return cursor.All(ctx, out)
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	return c.col.CountDocuments(ctx, filter)
}

func (c *mongoCollection) InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error) {
	result, err := c.col.InsertOne(ctx, document)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicateKey
	}
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, _ := result.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*UpdateResult, error) {
	result, err := c.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}

	return &UpdateResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	result, err := c.col.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
