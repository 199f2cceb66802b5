package persistence

import (
	"context"
	"fmt"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
	"go.uber.org/zap"
)

// ErrUnsupportedBackend is returned by every query against the
// unsupported-backend repository.
var ErrUnsupportedBackend = fmt.Errorf("%w: unsupported database backend", ErrBadRequest)

// UnsupportedRepository stands in when the configured backend selector is
// not recognized. Every operation fails deterministically and the health
// check reports UNSUPPORTED, so a misconfigured deployment fails health
// checks loudly instead of crashing at startup.
type UnsupportedRepository struct {
	selector   string
	reports    UnsupportedCollection[datamodel.Report]
	deadLetter UnsupportedCollection[datamodel.ReportDeadLetter]
}

// NewUnsupportedRepository records the unrecognized selector for diagnostics.
func NewUnsupportedRepository(selector string) *UnsupportedRepository {
	return &UnsupportedRepository{selector: selector}
}

func (r *UnsupportedRepository) ReportsCollection() Collection[datamodel.Report] {
	return &r.reports
}

func (r *UnsupportedRepository) ReportsDeadLetterCollection() Collection[datamodel.ReportDeadLetter] {
	return &r.deadLetter
}

func (r *UnsupportedRepository) HealthCheck() health.Checker {
	return unsupportedChecker{selector: r.selector}
}

func (r *UnsupportedRepository) Close(context.Context) error {
	return nil
}

type unsupportedChecker struct {
	selector string
}

func (c unsupportedChecker) DoHealthCheck(context.Context) health.Result {
	result := health.Unsupported("Database")
	if c.selector != "" {
		result.Issue = fmt.Sprintf("database backend %q is not supported", c.selector)
	}
	return result
}

// UnsupportedCollection fails every operation without touching a backend.
type UnsupportedCollection[T any] struct{}

func (UnsupportedCollection[T]) GetItem(context.Context, string) (*T, error) {
	return nil, ErrUnsupportedBackend
}

func (UnsupportedCollection[T]) QueryItems(context.Context, string) ([]T, error) {
	return nil, ErrUnsupportedBackend
}

func (UnsupportedCollection[T]) CreateItem(_ context.Context, id string, _ T, _ string) bool {
	zap.S().Errorf("Dropping write of item %s: unsupported database backend", id)
	return false
}

func (UnsupportedCollection[T]) DeleteItem(_ context.Context, itemID string, _ string) bool {
	zap.S().Errorf("Dropping delete of item %s: unsupported database backend", itemID)
	return false
}

func (UnsupportedCollection[T]) Dialect() Dialect {
	return Dialect{}
}
