package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/umh-utils/env"
	"github.com/united-manufacturing-hub/umh-utils/logger"
	"go.uber.org/zap"

	"github.com/dexstatus/reportstore/pkg/persistence"
	"github.com/dexstatus/reportstore/pkg/persistence/factory"
)

// reportcleaner removes dead-letter reports whose ingest timestamp is older
// than RETENTION_DAYS. It runs once and exits, suited to a cron job.
func main() {
	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "PRODUCTION") //nolint:errcheck
	log := logger.New(logLevel)
	defer func(logger *zap.SugaredLogger) {
		err := logger.Sync()
		if err != nil {
			panic(err)
		}
	}(log)

	retentionDays, err := env.GetAsInt("RETENTION_DAYS", false, 30)
	if err != nil {
		zap.S().Fatal(err)
	}
	if retentionDays < 1 {
		zap.S().Fatalf("RETENTION_DAYS must be at least 1, got %d", retentionDays)
	}
	dryRun, _ := env.GetAsBool("DRY_RUN", false, false)

	selector, err := env.GetAsString("DATABASE", true, "")
	if err != nil {
		zap.S().Fatal(err)
	}
	selector = strings.ToLower(selector)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := factory.NewRepositoryFromEnv(ctx)
	cancel()
	if err != nil {
		zap.S().Fatalf("Failed to create repository: %s", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := repo.Close(closeCtx); err != nil {
			zap.S().Errorf("Failed to close repository: %s", err)
		}
	}()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	collection := repo.ReportsDeadLetterCollection()
	query := purgeQuery(selector, collection.Dialect(), cutoff.Unix())
	zap.S().Infof("Purging dead-letter reports older than %s: %s", cutoff.Format(persistence.DateFormat), query)

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	expired, err := collection.QueryItems(ctx, query)
	if err != nil {
		zap.S().Fatalf("Failed to query expired dead-letter reports: %s", err)
	}
	zap.S().Infof("Found %d expired dead-letter reports", len(expired))

	var deleted, failed int
	for _, report := range expired {
		if dryRun {
			zap.S().Infof("Dry run, would delete report %s (uploadId %s)", report.ID, report.UploadID)
			continue
		}
		if collection.DeleteItem(ctx, report.ID, report.UploadID) {
			deleted++
		} else {
			failed++
			zap.S().Warnf("Failed to delete report %s (uploadId %s)", report.ID, report.UploadID)
		}
	}
	zap.S().Infof("Purge complete, deleted %d of %d reports (%d failed)", deleted, len(expired), failed)
}

// purgeQuery renders the expiry filter in the query shape the selected
// backend consumes. Mongo takes an extended JSON filter document, the
// others a SQL-style statement built from the collection's dialect.
func purgeQuery(selector string, dialect persistence.Dialect, cutoffEpoch int64) string {
	if selector == factory.SelectorMongo {
		return fmt.Sprintf(`{"dexIngestDateTime": {"$lt": %d}}`, cutoffEpoch)
	}

	target := dialect.CollectionNameForQuery
	if target == "" {
		target = dialect.CollectionVariable
	} else if dialect.CollectionVariable != "" {
		target = fmt.Sprintf("%s as %s", target, dialect.CollectionVariable)
	}
	predicate := fmt.Sprintf("%s%s < %s",
		dialect.CollectionVariablePrefix,
		dialect.Element("dexIngestDateTime"),
		dialect.TimeLiteral(cutoffEpoch))
	query := fmt.Sprintf("select * from %s where %s", target, predicate)
	if selector == factory.SelectorScylla {
		query += " allow filtering"
	}
	return query
}
