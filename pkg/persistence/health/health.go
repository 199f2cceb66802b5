// Package health defines the liveness probe contract shared by all
// persistence backends and the adapter that plugs it into an HTTP
// healthcheck handler.
package health

import (
	"context"
	"errors"
	"time"

	"github.com/heptiolabs/healthcheck"
)

// Status of one backend probe.
type Status string

const (
	StatusUp          Status = "UP"
	StatusDown        Status = "DOWN"
	StatusUnsupported Status = "UNSUPPORTED"
)

// Result of a single health check.
type Result struct {
	Service string `json:"service"`
	Status  Status `json:"status"`
	Issue   string `json:"issue,omitempty"`
}

// Checker performs one cheap, idempotent probe proving the backend is
// reachable. Probes never mutate data and never retry; a single failed
// probe is reported as-is.
type Checker interface {
	DoHealthCheck(ctx context.Context) Result
}

// Up builds the healthy result for a service.
func Up(service string) Result {
	return Result{Service: service, Status: StatusUp}
}

// Down maps a probe failure to a DOWN result carrying the diagnostic.
func Down(service string, err error) Result {
	issue := ""
	if err != nil {
		issue = err.Error()
	}
	return Result{Service: service, Status: StatusDown, Issue: issue}
}

// Unsupported is the result reported by the misconfigured-backend variant.
func Unsupported(service string) Result {
	return Result{Service: service, Status: StatusUnsupported, Issue: "database backend is not supported"}
}

// Check adapts a Checker to a healthcheck.Check so the probe can be served
// by the process health endpoint.
func Check(c Checker) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		result := c.DoHealthCheck(ctx)
		if result.Status != StatusUp {
			if result.Issue != "" {
				return errors.New(result.Issue)
			}
			return errors.New(string(result.Status))
		}
		return nil
	}
}
