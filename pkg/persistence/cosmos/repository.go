package cosmos

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// Config carries the connection parameters for a Cosmos DB deployment.
// Zero-valued optional fields fall back to the platform defaults.
type Config struct {
	Endpoint string
	Key      string

	// PartitionKeyPath defaults to "/uploadId".
	PartitionKeyPath string

	// Database defaults to "ProcessingStatus".
	Database string

	// ReportsContainer and DeadLetterContainer default to "Reports" and
	// "Reports-DeadLetter".
	ReportsContainer    string
	DeadLetterContainer string
}

func (c *Config) applyDefaults() {
	if c.PartitionKeyPath == "" {
		c.PartitionKeyPath = "/uploadId"
	}
	if c.Database == "" {
		c.Database = "ProcessingStatus"
	}
	if c.ReportsContainer == "" {
		c.ReportsContainer = "Reports"
	}
	if c.DeadLetterContainer == "" {
		c.DeadLetterContainer = "Reports-DeadLetter"
	}
}

// autoscaleMaxThroughput is the RU/s ceiling provisioned for containers this
// layer creates.
const autoscaleMaxThroughput = 1000

// Repository owns the Cosmos DB client and the report containers built on it.
type Repository struct {
	client     *azcosmos.Client
	database   *azcosmos.DatabaseClient
	reports    *Collection[datamodel.Report]
	deadLetter *Collection[datamodel.ReportDeadLetter]
}

// NewRepository connects to Cosmos DB, creates the database and report
// containers if they do not exist yet, and binds the collections to them.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	cfg.applyDefaults()
	if cfg.Endpoint == "" || cfg.Key == "" {
		return nil, errors.New("cosmos repository requires an endpoint and key")
	}

	credential, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid cosmos key: %w", err)
	}
	client, err := azcosmos.NewClientWithKey(cfg.Endpoint, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos client: %w", err)
	}

	database, err := ensureDatabase(ctx, client, cfg.Database)
	if err != nil {
		return nil, err
	}
	reportsContainer, err := ensureContainer(ctx, client, database, cfg, cfg.ReportsContainer)
	if err != nil {
		return nil, err
	}
	deadLetterContainer, err := ensureContainer(ctx, client, database, cfg, cfg.DeadLetterContainer)
	if err != nil {
		return nil, err
	}

	reports, err := newCollection[datamodel.Report](reportsContainer)
	if err != nil {
		return nil, err
	}
	deadLetter, err := newCollection[datamodel.ReportDeadLetter](deadLetterContainer)
	if err != nil {
		return nil, err
	}

	return &Repository{
		client:     client,
		database:   database,
		reports:    reports,
		deadLetter: deadLetter,
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

// Close is a no-op; the cosmos client holds no long-lived connection of its
// own.
func (r *Repository) Close(context.Context) error {
	return nil
}

func ensureDatabase(ctx context.Context, client *azcosmos.Client, name string) (*azcosmos.DatabaseClient, error) {
	zap.S().Infof("Create database %s if not exists...", name)
	_, err := client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: name}, nil)
	if err != nil && !isConflict(err) {
		return nil, fmt.Errorf("failed to create cosmos database %s: %w", name, err)
	}
	return client.NewDatabase(name)
}

func ensureContainer(
	ctx context.Context,
	client *azcosmos.Client,
	database *azcosmos.DatabaseClient,
	cfg Config,
	name string,
) (*azcosmos.ContainerClient, error) {
	zap.S().Infof("Create container %s if not exists...", name)
	throughput := azcosmos.NewAutoscaleThroughputProperties(autoscaleMaxThroughput)
	_, err := database.CreateContainer(ctx, azcosmos.ContainerProperties{
		ID: name,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{cfg.PartitionKeyPath},
		},
	}, &azcosmos.CreateContainerOptions{ThroughputProperties: &throughput})
	if err != nil && !isConflict(err) {
		return nil, fmt.Errorf("failed to create cosmos container %s: %w", name, err)
	}
	return client.NewContainer(cfg.Database, name)
}

func isConflict(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusConflict
}

type healthChecker struct {
	database *azcosmos.DatabaseClient
}

// DoHealthCheck reads the database metadata, which is cheap and idempotent.
func (h *healthChecker) DoHealthCheck(ctx context.Context) health.Result {
	if _, err := h.database.Read(ctx, nil); err != nil {
		return health.Down("Cosmos DB", err)
	}
	return health.Up("Cosmos DB")
}
