package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseFilter(t *testing.T) {
	t.Run("empty-matches-all", func(t *testing.T) {
		filter, err := parseFilter("")
		assert.NoError(t, err)
		assert.Equal(t, bson.D{}, filter)
	})
	t.Run("whitespace-matches-all", func(t *testing.T) {
		filter, err := parseFilter("   \n\t")
		assert.NoError(t, err)
		assert.Equal(t, bson.D{}, filter)
	})
	t.Run("extended-json-filter", func(t *testing.T) {
		filter, err := parseFilter(`{"uploadId": "u-1"}`)
		assert.NoError(t, err)
		assert.Equal(t, bson.D{{Key: "uploadId", Value: "u-1"}}, filter)
	})
	t.Run("operator-filter", func(t *testing.T) {
		filter, err := parseFilter(`{"dexIngestDateTime": {"$lt": 1700000000}}`)
		assert.NoError(t, err)
		assert.Len(t, filter, 1)
		assert.Equal(t, "dexIngestDateTime", filter[0].Key)
		inner, ok := filter[0].Value.(bson.D)
		assert.True(t, ok)
		assert.Equal(t, "$lt", inner[0].Key)
	})
	t.Run("malformed-filter-is-an-error", func(t *testing.T) {
		_, err := parseFilter("select * from reports")
		assert.Error(t, err)
	})
}
