package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// Config carries the connection parameters for DynamoDB.
type Config struct {
	// TablePrefix is prepended to the reports and dead-letter table names.
	TablePrefix string

	// RoleARN and WebIdentityTokenFile select web-identity credentials.
	// When either is empty the default credential chain is used.
	RoleARN              string
	WebIdentityTokenFile string

	// Region overrides the environment's region when set.
	Region string
}

// Repository owns the DynamoDB client and the report tables addressed
// through it.
type Repository struct {
	client     *dynamodb.Client
	reports    *Collection[datamodel.Report]
	deadLetter *Collection[datamodel.ReportDeadLetter]
}

// NewRepository builds the DynamoDB client from the ambient AWS
// configuration and binds the report collections to their tables.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.TablePrefix == "" {
		return nil, errors.New("dynamo repository requires a table prefix")
	}

	var loadOptions []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws configuration: %w", err)
	}

	if cfg.RoleARN != "" && cfg.WebIdentityTokenFile != "" {
		provider := stscreds.NewWebIdentityRoleProvider(
			sts.NewFromConfig(awsConfig),
			cfg.RoleARN,
			stscreds.IdentityTokenFile(cfg.WebIdentityTokenFile),
		)
		awsConfig.Credentials = aws.NewCredentialsCache(provider)
	}

	client := dynamodb.NewFromConfig(awsConfig)

	reports, err := newCollection[datamodel.Report](client, tableName(cfg.TablePrefix, "reports"))
	if err != nil {
		return nil, err
	}
	deadLetter, err := newCollection[datamodel.ReportDeadLetter](client, tableName(cfg.TablePrefix, "reports-deadletter"))
	if err != nil {
		return nil, err
	}

	return &Repository{client: client, reports: reports, deadLetter: deadLetter}, nil
}

func tableName(prefix, suffix string) string {
	return strings.ToLower(prefix + "-" + suffix)
}

func (r *Repository) ReportsCollection() persistence.Collection[datamodel.Report] {
	return r.reports
}

func (r *Repository) ReportsDeadLetterCollection() persistence.Collection[datamodel.ReportDeadLetter] {
	return r.deadLetter
}

func (r *Repository) HealthCheck() health.Checker {
	return &healthChecker{client: r.client}
}

// Close is a no-op; the dynamo client holds no long-lived connection.
func (r *Repository) Close(context.Context) error {
	return nil
}

type healthChecker struct {
	client interface {
		ListTables(ctx context.Context, in *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	}
}

// DoHealthCheck lists at most one table, which proves reachability and
// credentials without touching data.
func (h *healthChecker) DoHealthCheck(ctx context.Context) health.Result {
	_, err := h.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	if err != nil {
		return health.Down("Dynamo DB", err)
	}
	return health.Up("Dynamo DB")
}
