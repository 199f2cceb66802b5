package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// Config carries the connection parameters for MongoDB.
type Config struct {
	URI      string
	Database string

	// ReportsCollection and DeadLetterCollection default to "Reports" and
	// "Reports-DeadLetter".
	ReportsCollection    string
	DeadLetterCollection string
}

func (c *Config) applyDefaults() {
	if c.ReportsCollection == "" {
		c.ReportsCollection = "Reports"
	}
	if c.DeadLetterCollection == "" {
		c.DeadLetterCollection = "Reports-DeadLetter"
	}
}

// Repository owns the MongoDB client and the report collections built on it.
type Repository struct {
	client     *mongo.Client
	database   *mongo.Database
	reports    *Collection[datamodel.Report]
	deadLetter *Collection[datamodel.ReportDeadLetter]
}

// NewRepository connects to MongoDB with the stable server API and pings the
// deployment, surfacing an unreachable database as a construction-time
// error.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	cfg.applyDefaults()
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongo repository requires a connection URI and database name")
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	database := client.Database(cfg.Database)
	if err := database.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	zap.S().Infof("Pinged your deployment, successfully connected to mongodb database %s", cfg.Database)

	return &Repository{
		client:     client,
		database:   database,
		reports:    newCollection[datamodel.Report](database.Collection(cfg.ReportsCollection)),
		deadLetter: newCollection[datamodel.ReportDeadLetter](database.Collection(cfg.DeadLetterCollection)),
	}, nil
}

func (r *Repository) ReportsCollection() persistence.Collection[datamodel.Report] {
	return r.reports
}

func (r *Repository) ReportsDeadLetterCollection() persistence.Collection[datamodel.ReportDeadLetter] {
	return r.deadLetter
}

func (r *Repository) HealthCheck() health.Checker {
	return &healthChecker{database: r.database}
}

func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

type healthChecker struct {
	database *mongo.Database
}

// DoHealthCheck sends a ping command on the existing connection.
func (h *healthChecker) DoHealthCheck(ctx context.Context) health.Result {
	if err := h.database.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return health.Down("Mongo DB", err)
	}
	return health.Up("Mongo DB")
}
