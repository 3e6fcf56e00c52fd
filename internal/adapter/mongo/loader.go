package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/austin-311-etl/internal/config"
	"github.com/couchcryptid/austin-311-etl/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Loader upserts normalized documents into a MongoDB collection, keyed by
// service request number. It implements pipeline.BatchLoader.
type Loader struct {
	client     *mongodrv.Client
	collection *mongodrv.Collection
	logger     *slog.Logger
}

// ClientOptions builds driver options from the config, adding credentials
// when a credentials directory is configured.
func ClientOptions(cfg *config.Config) (*options.ClientOptions, error) {
	opts := options.Client().ApplyURI(cfg.MongoURI)
	if cfg.CredentialsDir == "" {
		return opts, nil
	}

	creds, err := config.LoadCredentials(cfg.CredentialsDir)
	if err != nil {
		return nil, err
	}
	return opts.SetAuth(options.Credential{
		Username: creds.Username,
		Password: creds.Password,
	}), nil
}

// NewLoader connects to MongoDB and verifies the connection with a ping.
func NewLoader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Loader, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := mongodrv.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("mongo connected", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	return &Loader{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
		logger:     logger,
	}, nil
}

// LoadBatch replaces or inserts every document in a single unordered bulk write.
func (l *Loader) LoadBatch(ctx context.Context, docs []domain.OutputDocument) error {
	if len(docs) == 0 {
		return nil
	}

	models := make([]mongodrv.WriteModel, len(docs))
	for i := range docs {
		models[i] = upsertModel(docs[i])
	}

	res, err := l.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	l.logger.Debug("batch upserted",
		"batch_size", len(docs),
		"upserted", res.UpsertedCount,
		"modified", res.ModifiedCount,
	)
	return nil
}

// CheckReadiness pings the server.
func (l *Loader) CheckReadiness(ctx context.Context) error {
	return l.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (l *Loader) Close(ctx context.Context) error {
	return l.client.Disconnect(ctx)
}

// upsertModel replaces the document stored under the service request number.
func upsertModel(doc domain.OutputDocument) *mongodrv.ReplaceOneModel {
	return mongodrv.NewReplaceOneModel().
		SetFilter(bson.D{{Key: "_id", Value: doc.Key}}).
		SetReplacement(toBSON(doc)).
		SetUpsert(true)
}

// toBSON copies a document's fields and adds the storage key and processing time.
func toBSON(doc domain.OutputDocument) bson.M {
	m := make(bson.M, len(doc.Document)+2)
	for k, v := range doc.Document {
		m[k] = v
	}
	m["_id"] = doc.Key
	m["processed_at"] = doc.ProcessedAt
	return m
}
