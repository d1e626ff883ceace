package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/helixdata-ai/query-engine/internal/config"
	"github.com/helixdata-ai/query-engine/internal/domain"
	"github.com/helixdata-ai/query-engine/internal/observability"
)

// MongoAdapter implements domain.Adapter on the official MongoDB driver.
type MongoAdapter struct {
	uri            string
	database       string
	connectTimeout time.Duration
	queryTimeout   time.Duration
	logger         *observability.Logger

	client *mongo.Client
	db     *mongo.Database
}

// NewMongoAdapter creates an unconnected adapter from store configuration.
func NewMongoAdapter(cfg config.StoreConfig, logger *observability.Logger) *MongoAdapter {
	return &MongoAdapter{
		uri:            cfg.URI,
		database:       cfg.Database,
		connectTimeout: cfg.ConnectTimeout,
		queryTimeout:   cfg.QueryTimeout,
		logger:         logger,
	}
}

// Initialize connects to the server and verifies reachability with a ping.
func (a *MongoAdapter) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	a.client = client
	a.db = client.Database(a.database)
	a.logger.Info().
		Str("database", a.database).
		Msg("Connected to MongoDB")
	return nil
}

// ExecuteNativeQuery dispatches a find or aggregate against the named
// collection and drains the cursor into generic documents.
func (a *MongoAdapter) ExecuteNativeQuery(ctx context.Context, op domain.Operation, collection string, params domain.NativeParams) ([]map[string]any, error) {
	if a.db == nil {
		return nil, fmt.Errorf("mongodb adapter not initialized")
	}
	if a.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.queryTimeout)
		defer cancel()
	}

	coll := a.db.Collection(collection)

	var (
		cursor *mongo.Cursor
		err    error
	)
	switch op {
	case domain.OpAggregate:
		pipeline := make([]any, len(params.Pipeline))
		for i, stage := range params.Pipeline {
			pipeline[i] = stage
		}
		cursor, err = coll.Aggregate(ctx, pipeline)
	case domain.OpFind:
		opts := options.Find()
		if params.Limit > 0 {
			opts.SetLimit(params.Limit)
		}
		if len(params.Projection) > 0 {
			opts.SetProjection(params.Projection)
		}
		// A nil sort is omitted entirely; the server must never see an
		// empty sort document.
		if len(params.Sort) > 0 {
			opts.SetSort(sortDocument(params.Sort))
		}
		filter := params.Filter
		if filter == nil {
			filter = map[string]any{}
		}
		cursor, err = coll.Find(ctx, filter, opts)
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []map[string]any
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// ListCollections returns the names of all collections in the database.
func (a *MongoAdapter) ListCollections(ctx context.Context) ([]string, error) {
	if a.db == nil {
		return nil, fmt.Errorf("mongodb adapter not initialized")
	}
	return a.db.ListCollectionNames(ctx, bson.M{})
}

// InsertDocuments bulk-inserts documents into the named collection. Used by
// seeding tooling, not by the query pipeline.
func (a *MongoAdapter) InsertDocuments(ctx context.Context, collection string, docs []map[string]any) (int, error) {
	if a.db == nil {
		return 0, fmt.Errorf("mongodb adapter not initialized")
	}
	payload := make([]any, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	res, err := a.db.Collection(collection).InsertMany(ctx, payload)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// Ping verifies the connection is still alive.
func (a *MongoAdapter) Ping(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("mongodb adapter not initialized")
	}
	return a.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the server.
func (a *MongoAdapter) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

// sortDocument builds an order-preserving sort document.
func sortDocument(fields domain.SortFields) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f.Key, Value: f.Value})
	}
	return doc
}
