package stats

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"ctarchive/internal/events"
)

// DefaultTimelineDays bounds the per-day series when the period itself is
// unbounded (PeriodAll): the trailing 30 days from now.
const DefaultTimelineDays = 30

// DayCount is one point of the per-day distinct-visitor series.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// HourCount is a UTC hour of day ("00".."23") with its distinct-visitor count.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

// WeekdayCount is a weekday (0=Sunday .. 6=Saturday) with its
// distinct-visitor count.
type WeekdayCount struct {
	Weekday string `json:"dow"`
	Count   int64  `json:"count"`
}

// RequestsPerDay returns the distinct-visitor count per day, ascending.
// PeriodAll falls back to the trailing DefaultTimelineDays window instead of
// the whole store.
func RequestsPerDay(db *gorm.DB, p Period, now time.Time) ([]DayCount, error) {
	where, args := p.whereClause(now)
	if where == "" {
		where = "WHERE day >= ?"
		args = []any{now.UTC().AddDate(0, 0, -DefaultTimelineDays).Format(events.DayFormat)}
	}

	query := fmt.Sprintf(`
    SELECT day AS date, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    %s
    GROUP BY day
    ORDER BY day ASC
    `, where)

	var results []DayCount
	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("error fetching requests per day: %w", err)
	}
	return results, nil
}

// HourOfDay returns the distinct-visitor count per UTC hour, ascending.
func HourOfDay(db *gorm.DB, p Period, now time.Time) ([]HourCount, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`
    SELECT strftime('%%H', occurred_at) AS hour, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    %s
    GROUP BY hour
    ORDER BY hour ASC
    `, where)

	var results []HourCount
	if err := db.Raw(query, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("error fetching hour-of-day breakdown: %w", err)
	}
	return results, nil
}

// DayOfWeek returns the distinct-visitor count per weekday, ascending
// (0=Sunday per SQLite's %w).
func DayOfWeek(db *gorm.DB, p Period, now time.Time) ([]WeekdayCount, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`
    SELECT strftime('%%w', occurred_at) AS dow, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    %s
    GROUP BY dow
    ORDER BY dow ASC
    `, where)

	var rows []struct {
		Dow   string
		Count int64
	}
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching day-of-week breakdown: %w", err)
	}

	results := make([]WeekdayCount, len(rows))
	for i, r := range rows {
		results[i] = WeekdayCount{Weekday: r.Dow, Count: r.Count}
	}
	return results, nil
}
