package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// Config carries the connection parameters for a Scylla cluster.
type Config struct {
	// Hosts are the contact points.
	Hosts []string

	Username string
	Password string

	// Keyspace defaults to "processingstatus".
	Keyspace string

	// ReportsTable and DeadLetterTable default to "reports" and
	// "reports_deadletter".
	ReportsTable    string
	DeadLetterTable string

	// ReplicationFactor for keyspace bootstrap, defaults to 1.
	ReplicationFactor int
}

func (c *Config) applyDefaults() {
	if c.Keyspace == "" {
		c.Keyspace = "processingstatus"
	}
	if c.ReportsTable == "" {
		c.ReportsTable = "reports"
	}
	if c.DeadLetterTable == "" {
		c.DeadLetterTable = "reports_deadletter"
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = 1
	}
}

// Repository owns the Scylla session and the report tables built on it.
type Repository struct {
	session    *gocql.Session
	reports    *Collection[datamodel.Report]
	deadLetter *Collection[datamodel.ReportDeadLetter]
}

// NewRepository connects to the cluster, bootstraps the keyspace and report
// tables, and binds the collections to them. Session creation blocks until
// the contact points answer or the connect timeout expires.
func NewRepository(cfg Config) (*Repository, error) {
	cfg.applyDefaults()
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("scylla repository requires at least one contact point")
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to scylla: %w", err)
	}

	if err := session.Query(createKeyspaceCQL(cfg.Keyspace, cfg.ReplicationFactor)).Exec(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to create keyspace %s: %w", cfg.Keyspace, err)
	}
	for table, columns := range map[string][]Column{
		cfg.ReportsTable:    reportColumns,
		cfg.DeadLetterTable: deadLetterColumns,
	} {
		if err := session.Query(createTableCQL(cfg.Keyspace, table, columns)).Exec(); err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to create table %s.%s: %w", cfg.Keyspace, table, err)
		}
	}
	zap.S().Infof("Connected to scylla, keyspace %s ready", cfg.Keyspace)

	return &Repository{
		session:    session,
		reports:    newCollection[datamodel.Report](session, cfg.Keyspace, cfg.ReportsTable, reportColumns),
		deadLetter: newCollection[datamodel.ReportDeadLetter](session, cfg.Keyspace, cfg.DeadLetterTable, deadLetterColumns),
	}, nil
}

func (r *Repository) ReportsCollection() persistence.Collection[datamodel.Report] {
	return r.reports
}

func (r *Repository) ReportsDeadLetterCollection() persistence.Collection[datamodel.ReportDeadLetter] {
	return r.deadLetter
}

func (r *Repository) HealthCheck() health.Checker {
	return &healthChecker{session: r.session}
}

func (r *Repository) Close(context.Context) error {
	r.session.Close()
	return nil
}

type healthChecker struct {
	session *gocql.Session
}

// DoHealthCheck runs the cheapest possible liveness query against the
// session.
func (h *healthChecker) DoHealthCheck(ctx context.Context) health.Result {
	var version string
	err := h.session.Query("SELECT release_version FROM system.local").
		WithContext(ctx).Scan(&version)
	if err != nil {
		return health.Down("Scylla DB", err)
	}
	return health.Up("Scylla DB")
}
