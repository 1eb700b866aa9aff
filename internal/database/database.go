package database

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "mindjournal"

var Client *mongo.Client
var DB *mongo.Database

// Connect opens the process-wide MongoDB connection and selects the
// database named in the URI path, falling back to "mindjournal".
func Connect(ctx context.Context, mongoURI string, log *slog.Logger) error {
	// Atlas clusters can take a while to answer the first handshake.
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	log.Info("connecting to MongoDB")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(databaseName(mongoURI))

	log.Info("✅ Connected to MongoDB", "database", DB.Name())
	return nil
}

// databaseName extracts the path segment of mongodb://host/name?opts.
func databaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return defaultMongoDatabase
	}
	name, _, _ := strings.Cut(rest[slash+1:], "?")
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}
