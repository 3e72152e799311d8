package stats

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UnknownCategory is the explicit bucket that replaces an absent backend
// or mode value in category breakdowns.
const UnknownCategory = "unknown"

// BackendCount is a backend tag with its distinct-visitor count.
type BackendCount struct {
	Backend string `json:"backend"`
	Count   int64  `json:"count"`
}

// ModeCount is a mode tag with its distinct-visitor count.
type ModeCount struct {
	Mode  string `json:"mode"`
	Count int64  `json:"count"`
}

// categoryCounts breaks the filtered set down by one categorical column,
// folding absent (empty) values into the "unknown" bucket. Every category
// is returned; no top-N cap.
func categoryCounts(db *gorm.DB, column string, p Period, now time.Time) ([]struct {
	Name  string
	Count int64
}, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`
    SELECT CASE WHEN %s = '' THEN '%s' ELSE %s END AS name,
           COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    %s
    GROUP BY name
    ORDER BY count DESC
    `, column, UnknownCategory, column, where)

	var rows []struct {
		Name  string
		Count int64
	}
	err := db.Raw(query, args...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching %s counts: %w", column, err)
	}
	return rows, nil
}

// BackendCounts breaks the period down by backend tag.
func BackendCounts(db *gorm.DB, p Period, now time.Time) ([]BackendCount, error) {
	rows, err := categoryCounts(db, "backend", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]BackendCount, len(rows))
	for i, r := range rows {
		results[i] = BackendCount{Backend: r.Name, Count: r.Count}
	}
	return results, nil
}

// ModeCounts breaks the period down by mode tag.
func ModeCounts(db *gorm.DB, p Period, now time.Time) ([]ModeCount, error) {
	rows, err := categoryCounts(db, "mode", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]ModeCount, len(rows))
	for i, r := range rows {
		results[i] = ModeCount{Mode: r.Name, Count: r.Count}
	}
	return results, nil
}
