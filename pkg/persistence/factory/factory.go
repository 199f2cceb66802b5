// Package factory builds the persistence Repository selected by the
// DATABASE environment variable. Each backend reads its own connection
// settings from the environment and fails fast when a required one is
// missing.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/united-manufacturing-hub/umh-utils/env"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/cosmos"
	"github.com/dexstatus/reportstore/pkg/persistence/couchbase"
	"github.com/dexstatus/reportstore/pkg/persistence/dynamo"
	"github.com/dexstatus/reportstore/pkg/persistence/mongo"
	"github.com/dexstatus/reportstore/pkg/persistence/scylla"
)

// Supported values for the DATABASE selector.
const (
	SelectorCosmos    = "cosmos"
	SelectorCouchbase = "couchbase"
	SelectorDynamo    = "dynamo"
	SelectorMongo     = "mongo"
	SelectorScylla    = "scylla"
)

// NewRepositoryFromEnv reads DATABASE and constructs the matching backend.
// An unknown selector yields an UnsupportedRepository instead of an error so
// the service still comes up and reports UNSUPPORTED from its health check.
func NewRepositoryFromEnv(ctx context.Context) (persistence.Repository, error) {
	selector, err := requiredEnv("DATABASE")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(selector) {
	case SelectorCosmos:
		return cosmosFromEnv(ctx)
	case SelectorCouchbase:
		return couchbaseFromEnv()
	case SelectorDynamo:
		return dynamoFromEnv(ctx)
	case SelectorMongo:
		return mongoFromEnv(ctx)
	case SelectorScylla:
		return scyllaFromEnv()
	default:
		zap.S().Warnf("Unsupported database selector %s, persistence calls will fail", selector)
		return persistence.NewUnsupportedRepository(selector), nil
	}
}

func cosmosFromEnv(ctx context.Context) (persistence.Repository, error) {
	endpoint, err := requiredEnv("COSMOS_DB_CLIENT_ENDPOINT")
	if err != nil {
		return nil, err
	}
	key, err := requiredEnv("COSMOS_DB_CLIENT_KEY")
	if err != nil {
		return nil, err
	}
	partitionKey, err := env.GetAsString("COSMOS_DB_PARTITION_KEY", false, "")
	if err != nil {
		return nil, err
	}
	database, err := env.GetAsString("COSMOS_DB_DATABASE_NAME", false, "")
	if err != nil {
		return nil, err
	}
	repo, err := cosmos.NewRepository(ctx, cosmos.Config{
		Endpoint:         endpoint,
		Key:              key,
		PartitionKeyPath: partitionKey,
		Database:         database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos repository: %w", err)
	}
	return repo, nil
}

func couchbaseFromEnv() (persistence.Repository, error) {
	connectionString, err := requiredEnv("COUCHBASE_CONNECTION_STRING")
	if err != nil {
		return nil, err
	}
	username, err := requiredEnv("COUCHBASE_USERNAME")
	if err != nil {
		return nil, err
	}
	password, err := requiredEnv("COUCHBASE_PASSWORD")
	if err != nil {
		return nil, err
	}
	bucket, err := env.GetAsString("COUCHBASE_BUCKET", false, "")
	if err != nil {
		return nil, err
	}
	repo, err := couchbase.NewRepository(couchbase.Config{
		ConnectionString: connectionString,
		Username:         username,
		Password:         password,
		Bucket:           bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create couchbase repository: %w", err)
	}
	return repo, nil
}

func dynamoFromEnv(ctx context.Context) (persistence.Repository, error) {
	tablePrefix, err := requiredEnv("DYNAMO_TABLE_PREFIX")
	if err != nil {
		return nil, err
	}
	roleARN, err := env.GetAsString("AWS_ROLE_ARN", false, "")
	if err != nil {
		return nil, err
	}
	tokenFile, err := env.GetAsString("AWS_WEB_IDENTITY_TOKEN_FILE", false, "")
	if err != nil {
		return nil, err
	}
	region, err := env.GetAsString("AWS_REGION", false, "")
	if err != nil {
		return nil, err
	}
	repo, err := dynamo.NewRepository(ctx, dynamo.Config{
		TablePrefix:          tablePrefix,
		RoleARN:              roleARN,
		WebIdentityTokenFile: tokenFile,
		Region:               region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamo repository: %w", err)
	}
	return repo, nil
}

func mongoFromEnv(ctx context.Context) (persistence.Repository, error) {
	uri, err := requiredEnv("MONGO_CONNECTION_STRING")
	if err != nil {
		return nil, err
	}
	database, err := requiredEnv("MONGO_DATABASE_NAME")
	if err != nil {
		return nil, err
	}
	repo, err := mongo.NewRepository(ctx, mongo.Config{
		URI:      uri,
		Database: database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo repository: %w", err)
	}
	return repo, nil
}

func scyllaFromEnv() (persistence.Repository, error) {
	contactPoints, err := requiredEnv("SCYLLA_CONTACT_POINTS")
	if err != nil {
		return nil, err
	}
	keyspace, err := env.GetAsString("SCYLLA_KEYSPACE", false, "")
	if err != nil {
		return nil, err
	}
	username, err := env.GetAsString("SCYLLA_USERNAME", false, "")
	if err != nil {
		return nil, err
	}
	password, err := env.GetAsString("SCYLLA_PASSWORD", false, "")
	if err != nil {
		return nil, err
	}
	repo, err := scylla.NewRepository(scylla.Config{
		Hosts:    strings.Split(contactPoints, ","),
		Keyspace: keyspace,
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla repository: %w", err)
	}
	return repo, nil
}

// requiredEnv rejects set-but-empty values, which GetAsString lets through.
func requiredEnv(key string) (string, error) {
	value, err := env.GetAsString(key, true, "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("environment variable %s is required but not set", key)
	}
	return value, nil
}
