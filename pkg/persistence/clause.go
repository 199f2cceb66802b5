package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the strict layout accepted for date range boundaries,
// the Go rendering of yyyyMMdd'T'HHmmss'Z'.
const DateFormat = "20060102T150405Z"

// ErrBadRequest marks caller-fault errors such as malformed date strings.
// Callers translate these into request-level failures; they are never
// retried.
var ErrBadRequest = errors.New("bad request")

// timeNow is swapped out by tests that pin the relative date window.
var timeNow = time.Now

// BuildDateRangeClause turns a date range filter into dialect-portable
// predicate text over the dexIngestDateTime field. A non-nil daysInterval
// takes precedence and selects everything since UTC midnight daysInterval
// days ago; otherwise dateStart/dateEnd bound the range. All three absent
// yields an empty string. The literal formatting function comes from the
// target collection's dialect so the builder stays backend agnostic.
func BuildDateRangeClause(
	daysInterval *int,
	dateStart string,
	dateEnd string,
	fieldPrefix string,
	timeFunc func(epochSeconds int64) string,
) (string, error) {
	var clause strings.Builder
	if daysInterval != nil {
		now := timeNow().UTC().AddDate(0, 0, -*daysInterval)
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&clause, "%sdexIngestDateTime >= %s", fieldPrefix, timeFunc(start.Unix()))
		return clause.String(), nil
	}
	if dateStart != "" {
		epoch, err := epochFromDateString(dateStart, "dateStart")
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&clause, "%sdexIngestDateTime >= %s", fieldPrefix, timeFunc(epoch))
	}
	if dateEnd != "" {
		epoch, err := epochFromDateString(dateEnd, "dateEnd")
		if err != nil {
			return "", err
		}
		if clause.Len() > 0 {
			clause.WriteString(" and ")
		}
		fmt.Fprintf(&clause, "%sdexIngestDateTime < %s", fieldPrefix, timeFunc(epoch))
	}
	return clause.String(), nil
}

// BuildDaysIntervalClause is a convenience wrapper for the relative window
// form of BuildDateRangeClause.
func BuildDaysIntervalClause(daysInterval int, fieldPrefix string, timeFunc func(int64) string) string {
	clause, _ := BuildDateRangeClause(&daysInterval, "", "", fieldPrefix, timeFunc)
	return clause
}

func epochFromDateString(value string, field string) (int64, error) {
	t, err := time.ParseInLocation(DateFormat, value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse %s %q, expected format %s",
			ErrBadRequest, field, value, DateFormat)
	}
	return t.Unix(), nil
}
