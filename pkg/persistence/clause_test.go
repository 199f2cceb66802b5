package persistence

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func plainSeconds(epochSeconds int64) string {
	return strconv.FormatInt(epochSeconds, 10)
}

func TestBuildDateRangeClause(t *testing.T) {
	t.Run("empty-filter", func(t *testing.T) {
		clause, err := BuildDateRangeClause(nil, "", "", "r.", plainSeconds)
		assert.NoError(t, err)
		assert.Empty(t, clause)
	})
	t.Run("date-start-only", func(t *testing.T) {
		clause, err := BuildDateRangeClause(nil, "20240115T000000Z", "", "r.", plainSeconds)
		assert.NoError(t, err)
		start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "r.dexIngestDateTime >= "+plainSeconds(start), clause)
	})
	t.Run("date-end-only", func(t *testing.T) {
		clause, err := BuildDateRangeClause(nil, "", "20240116T120000Z", "r.", plainSeconds)
		assert.NoError(t, err)
		end := time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "r.dexIngestDateTime < "+plainSeconds(end), clause)
	})
	t.Run("date-start-and-end", func(t *testing.T) {
		clause, err := BuildDateRangeClause(nil, "20240115T000000Z", "20240116T120000Z", "r.", plainSeconds)
		assert.NoError(t, err)
		start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
		end := time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t,
			"r.dexIngestDateTime >= "+plainSeconds(start)+" and r.dexIngestDateTime < "+plainSeconds(end),
			clause)
	})
	t.Run("days-interval-takes-precedence", func(t *testing.T) {
		defer func() { timeNow = time.Now }()
		timeNow = func() time.Time {
			return time.Date(2024, 3, 10, 15, 30, 45, 0, time.UTC)
		}
		days := 3
		clause, err := BuildDateRangeClause(&days, "20200101T000000Z", "20200102T000000Z", "r.", plainSeconds)
		assert.NoError(t, err)
		midnight := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "r.dexIngestDateTime >= "+plainSeconds(midnight), clause)
	})
	t.Run("days-interval-zero-is-today-midnight", func(t *testing.T) {
		defer func() { timeNow = time.Now }()
		timeNow = func() time.Time {
			return time.Date(2024, 3, 10, 15, 30, 45, 0, time.UTC)
		}
		days := 0
		clause, err := BuildDateRangeClause(&days, "", "", "", plainSeconds)
		assert.NoError(t, err)
		midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "dexIngestDateTime >= "+plainSeconds(midnight), clause)
	})
	t.Run("malformed-date-start", func(t *testing.T) {
		_, err := BuildDateRangeClause(nil, "2024-01-15", "", "r.", plainSeconds)
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Contains(t, err.Error(), "dateStart")
		assert.Contains(t, err.Error(), DateFormat)
	})
	t.Run("malformed-date-end", func(t *testing.T) {
		_, err := BuildDateRangeClause(nil, "20240115T000000Z", "not-a-date", "r.", plainSeconds)
		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrBadRequest)
		assert.Contains(t, err.Error(), "dateEnd")
	})
	t.Run("days-interval-wrapper", func(t *testing.T) {
		defer func() { timeNow = time.Now }()
		timeNow = func() time.Time {
			return time.Date(2024, 3, 10, 15, 30, 45, 0, time.UTC)
		}
		clause := BuildDaysIntervalClause(1, "r.", plainSeconds)
		midnight := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "r.dexIngestDateTime >= "+plainSeconds(midnight), clause)
	})
	t.Run("custom-time-literal", func(t *testing.T) {
		clause, err := BuildDateRangeClause(nil, "20240115T000000Z", "", "", func(epochSeconds int64) string {
			return "toTimestamp(" + plainSeconds(epochSeconds) + ")"
		})
		assert.NoError(t, err)
		start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).Unix()
		assert.Equal(t, "dexIngestDateTime >= toTimestamp("+plainSeconds(start)+")", clause)
	})
}

func TestDialectDefaults(t *testing.T) {
	t.Run("zero-value-brackets", func(t *testing.T) {
		var d Dialect
		assert.Equal(t, byte('('), d.OpenBracket())
		assert.Equal(t, byte(')'), d.CloseBracket())
	})
	t.Run("explicit-brackets", func(t *testing.T) {
		d := Dialect{OpenBracketChar: '[', CloseBracketChar: ']'}
		assert.Equal(t, byte('['), d.OpenBracket())
		assert.Equal(t, byte(']'), d.CloseBracket())
	})
	t.Run("element-passthrough", func(t *testing.T) {
		var d Dialect
		assert.Equal(t, "dexIngestDateTime", d.Element("dexIngestDateTime"))
	})
	t.Run("time-literal-plain", func(t *testing.T) {
		var d Dialect
		assert.Equal(t, "1700000000", d.TimeLiteral(1700000000))
	})
}
