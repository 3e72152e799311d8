// Package stats is the aggregation engine: it turns the append-only
// page-view store into the multi-dimensional statistics payload. Every
// ranking and breakdown counts distinct visitor keys, not raw requests,
// so one noisy client cannot dominate the results.
package stats

import (
	"time"

	"ctarchive/internal/events"
)

// Period is a named relative time window used to filter aggregation input.
type Period string

// The closed set of supported periods. Anything else parses as PeriodAll.
const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a request parameter onto the closed period set.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return Period(s)
	default:
		return PeriodAll
	}
}

// dayFilter returns the SQL predicate on the indexed day column for this
// period, with now anchoring the window. ok is false for PeriodAll, which
// has no filter. All windows are inclusive and end today (UTC).
func (p Period) dayFilter(now time.Time) (cond string, args []any, ok bool) {
	today := now.UTC()
	switch p {
	case PeriodToday:
		return "day = ?", []any{today.Format(events.DayFormat)}, true
	case PeriodWeek:
		return "day >= ?", []any{today.AddDate(0, 0, -6).Format(events.DayFormat)}, true
	case PeriodMonth:
		return "day >= ?", []any{today.AddDate(0, 0, -29).Format(events.DayFormat)}, true
	default:
		return "", nil, false
	}
}

// whereClause renders the period filter as a standalone WHERE clause,
// or an empty string for PeriodAll.
func (p Period) whereClause(now time.Time) (string, []any) {
	cond, args, ok := p.dayFilter(now)
	if !ok {
		return "", nil
	}
	return "WHERE " + cond, args
}

// andClause renders the period filter as an AND continuation of an
// existing WHERE clause, or an empty string for PeriodAll.
func (p Period) andClause(now time.Time) (string, []any) {
	cond, args, ok := p.dayFilter(now)
	if !ok {
		return "", nil
	}
	return "AND " + cond, args
}
