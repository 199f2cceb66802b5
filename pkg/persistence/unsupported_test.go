package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dexstatus/reportstore/pkg/datamodel"
	"github.com/dexstatus/reportstore/pkg/persistence/health"
)

func TestUnsupportedRepository(t *testing.T) {
	repo := NewUnsupportedRepository("oracle")

	t.Run("queries-fail-deterministically", func(t *testing.T) {
		_, err := repo.ReportsCollection().GetItem(context.Background(), "any")
		assert.ErrorIs(t, err, ErrUnsupportedBackend)
		assert.ErrorIs(t, err, ErrBadRequest)

		_, err = repo.ReportsDeadLetterCollection().QueryItems(context.Background(), "select *")
		assert.ErrorIs(t, err, ErrUnsupportedBackend)
	})
	t.Run("writes-are-dropped", func(t *testing.T) {
		assert.False(t, repo.ReportsCollection().CreateItem(context.Background(), "id-1", datamodel.NewReport(), "pk"))
		assert.False(t, repo.ReportsCollection().DeleteItem(context.Background(), "id-1", "pk"))
	})
	t.Run("health-reports-unsupported", func(t *testing.T) {
		result := repo.HealthCheck().DoHealthCheck(context.Background())
		assert.Equal(t, health.StatusUnsupported, result.Status)
		assert.Contains(t, result.Issue, "oracle")
	})
	t.Run("close-is-a-no-op", func(t *testing.T) {
		assert.NoError(t, repo.Close(context.Background()))
	})
}
