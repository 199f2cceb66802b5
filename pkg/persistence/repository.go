package persistence

import (
	"context"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

// Repository composes the report collections of one backend technology
// behind a single injectable handle. A repository exclusively owns its
// backend connection; it is constructed once at process start and torn down
// only at shutdown.
type Repository interface {
	ReportsCollection() Collection[datamodel.Report]
	ReportsDeadLetterCollection() Collection[datamodel.ReportDeadLetter]

	// HealthCheck returns a cheap liveness probe reusing the repository's
	// connection.
	HealthCheck() health.Checker

	// Close releases the backend session. Only call at process shutdown.
	Close(ctx context.Context) error
}
