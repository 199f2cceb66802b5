package couchbase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// connectReadyTimeout bounds the wait for the bucket to come up at
// construction time.
const connectReadyTimeout = 10 * time.Second

// Config carries the connection parameters for a Couchbase cluster.
type Config struct {
	ConnectionString string
	Username         string
	Password         string

	// Bucket defaults to "ProcessingStatus", Scope to "data".
	Bucket string
	Scope  string

	// ReportsCollection and DeadLetterCollection default to "Reports" and
	// "Reports-DeadLetter".
	ReportsCollection    string
	DeadLetterCollection string
}

func (c *Config) applyDefaults() {
	if c.Bucket == "" {
		c.Bucket = "ProcessingStatus"
	}
	if c.Scope == "" {
		c.Scope = "data"
	}
	if c.ReportsCollection == "" {
		c.ReportsCollection = "Reports"
	}
	if c.DeadLetterCollection == "" {
		c.DeadLetterCollection = "Reports-DeadLetter"
	}
}

// Repository owns the cluster connection and the scoped report collections
// built on it.
type Repository struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	scopeName  string
	reports    *Collection[datamodel.Report]
	deadLetter *Collection[datamodel.ReportDeadLetter]
}

// NewRepository connects to the cluster and blocks until the bucket is
// ready, surfacing failure as a construction-time error rather than
// deferring it to first use.
func NewRepository(cfg Config) (*Repository, error) {
	cfg.applyDefaults()
	if cfg.ConnectionString == "" {
		return nil, errors.New("couchbase repository requires a connection string")
	}

	cluster, err := gocb.Connect(cfg.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to couchbase: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)
	if err := bucket.WaitUntilReady(connectReadyTimeout, nil); err != nil {
		return nil, fmt.Errorf("failed to establish an initial connection to couchbase: %w", err)
	}

	scope := bucket.Scope(cfg.Scope)
	repo := &Repository{
		cluster:   cluster,
		bucket:    bucket,
		scopeName: cfg.Scope,
		reports: newCollection[datamodel.Report](
			cfg.ReportsCollection, scope, scope.Collection(cfg.ReportsCollection)),
		deadLetter: newCollection[datamodel.ReportDeadLetter](
			cfg.DeadLetterCollection, scope, scope.Collection(cfg.DeadLetterCollection)),
	}
	return repo, nil
}

func (r *Repository) ReportsCollection() persistence.Collection[datamodel.Report] {
	return r.reports
}

func (r *Repository) ReportsDeadLetterCollection() persistence.Collection[datamodel.ReportDeadLetter] {
	return r.deadLetter
}

func (r *Repository) HealthCheck() health.Checker {
	return &healthChecker{cluster: r.cluster}
}

func (r *Repository) Close(context.Context) error {
	return r.cluster.Close(nil)
}

// CreateCollection creates a collection in the repository's scope, tolerating
// one that already exists.
func (r *Repository) CreateCollection(name string) error {
	err := r.bucket.CollectionsV2().CreateCollection(r.scopeName, name, nil, nil)
	if errors.Is(err, gocb.ErrCollectionExists) {
		zap.S().Warnf("Collection %s already exists", name)
		return nil
	}
	return err
}

// DeleteCollection drops a collection from the repository's scope.
func (r *Repository) DeleteCollection(name string) error {
	return r.bucket.CollectionsV2().DropCollection(r.scopeName, name, nil)
}

type healthChecker struct {
	cluster *gocb.Cluster
}

// DoHealthCheck pings the cluster and requires every reported endpoint to be
// OK.
func (h *healthChecker) DoHealthCheck(_ context.Context) health.Result {
	result, err := h.cluster.Ping(&gocb.PingOptions{Timeout: 2 * time.Second})
	if err != nil {
		return health.Down("Couchbase DB", err)
	}
	if len(result.Services) == 0 {
		return health.Down("Couchbase DB", errors.New("ping returned no service endpoints"))
	}
	for service, endpoints := range result.Services {
		for _, endpoint := range endpoints {
			if endpoint.State != gocb.PingStateOk {
				return health.Down("Couchbase DB",
					fmt.Errorf("service %d endpoint %s is not healthy", service, endpoint.Remote))
			}
		}
	}
	return health.Up("Couchbase DB")
}
