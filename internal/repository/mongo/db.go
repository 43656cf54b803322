package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// pings the primary before returning.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connection may succeed while the server is unresponsive.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are logged
// and do not stop startup, except the unique unit index on assignments which
// callers rely on to reject double allocation.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	ensure := func(name string, indexes []mongo.IndexModel) error {
		_, err := db.Collection(name).Indexes().CreateMany(ctx, indexes)
		if err != nil {
			logger.Warn("failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
		return err
	}

	_ = ensure(userCollectionName, userIndexes)
	_ = ensure(districtCollectionName, districtIndexes)
	_ = ensure(villageCollectionName, villageIndexes)
	_ = ensure(nksCollectionName, unitIndexes)
	_ = ensure(segmenCollectionName, unitIndexes)
	_ = ensure(sampleCollectionName, sampleIndexes)
	_ = ensure(uploadCollectionName, uploadIndexes)
	return ensure(assignmentCollectionName, assignmentIndexes)
}

// decodeAll drains a cursor into out, which must be a pointer to a slice.
func decodeAll(ctx context.Context, cursor *mongo.Cursor, out interface{}) error {
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return err
	}
	return cursor.Err()
}
