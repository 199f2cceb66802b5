package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticChecker struct {
	result Result
}

func (c staticChecker) DoHealthCheck(context.Context) Result {
	return c.result
}

func TestResultConstructors(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		result := Up("Cosmos DB")
		assert.Equal(t, StatusUp, result.Status)
		assert.Equal(t, "Cosmos DB", result.Service)
		assert.Empty(t, result.Issue)
	})
	t.Run("down-carries-diagnostic", func(t *testing.T) {
		result := Down("Couchbase DB", errors.New("no route to host"))
		assert.Equal(t, StatusDown, result.Status)
		assert.Equal(t, "no route to host", result.Issue)
	})
	t.Run("down-with-nil-error", func(t *testing.T) {
		result := Down("Couchbase DB", nil)
		assert.Equal(t, StatusDown, result.Status)
		assert.Empty(t, result.Issue)
	})
	t.Run("unsupported", func(t *testing.T) {
		result := Unsupported("Database")
		assert.Equal(t, StatusUnsupported, result.Status)
		assert.NotEmpty(t, result.Issue)
	})
}

func TestCheckAdapter(t *testing.T) {
	t.Run("up-passes", func(t *testing.T) {
		check := Check(staticChecker{result: Up("Scylla DB")})
		assert.NoError(t, check())
	})
	t.Run("down-fails-with-issue", func(t *testing.T) {
		check := Check(staticChecker{result: Down("Scylla DB", errors.New("timed out"))})
		err := check()
		assert.Error(t, err)
		assert.Equal(t, "timed out", err.Error())
	})
	t.Run("down-without-issue-reports-status", func(t *testing.T) {
		check := Check(staticChecker{result: Result{Service: "Scylla DB", Status: StatusDown}})
		err := check()
		assert.Error(t, err)
		assert.Equal(t, "DOWN", err.Error())
	})
	t.Run("unsupported-fails", func(t *testing.T) {
		check := Check(staticChecker{result: Unsupported("Database")})
		assert.Error(t, check())
	})
}
