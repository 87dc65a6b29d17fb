package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "solace"

// ConnectMongo connects, pings and returns the database named in the URI path
// (mongodb://host/dbname?opts), falling back to "solace".
func ConnectMongo(ctx context.Context, mongoURI string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(MongoDatabaseName(mongoURI)), nil
}

// MongoDatabaseName extracts the database name from a connection string.
func MongoDatabaseName(mongoURI string) string {
	rest := mongoURI
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return defaultMongoDatabase
	}
	name := strings.Split(rest[slash+1:], "?")[0]
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

// MaskURI hides the password part of a connection string for logging.
func MaskURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if schemeEnd == -1 || at == -1 || at < schemeEnd {
		return uri
	}
	creds := uri[schemeEnd+3 : at]
	if colon := strings.Index(creds, ":"); colon != -1 {
		return uri[:schemeEnd+3] + creds[:colon] + ":***" + uri[at:]
	}
	return uri
}
