package stats

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// A session here is a (visitor_key, day) pair; its size is the raw event
// count of that pair. Sizes are bucketed into a fixed ordered set.
var sessionBuckets = []string{"1", "2–3", "4–5", "6–10", "10+"}

// SessionBucket is one slot of the session-size distribution. Every bucket
// is always emitted, in fixed ascending order, even when empty.
type SessionBucket struct {
	Bucket   string `json:"bucket"`
	Sessions int64  `json:"sessions"`
}

// SessionDistribution buckets visits-per-(visitor, day) pairs by raw event
// count and reports how many pairs fall in each bucket.
func SessionDistribution(db *gorm.DB, p Period, now time.Time) ([]SessionBucket, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`
    SELECT
      CASE
        WHEN s = 1   THEN 0
        WHEN s <= 3  THEN 1
        WHEN s <= 5  THEN 2
        WHEN s <= 10 THEN 3
        ELSE 4
      END AS ord,
      COUNT(*) AS sessions
    FROM (
      SELECT visitor_key, day, COUNT(*) AS s
      FROM page_views
      %s
      GROUP BY visitor_key, day
    )
    GROUP BY ord
    `, where)

	var rows []struct {
		Ord      int
		Sessions int64
	}
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching session distribution: %w", err)
	}

	results := make([]SessionBucket, len(sessionBuckets))
	for i, label := range sessionBuckets {
		results[i] = SessionBucket{Bucket: label}
	}
	for _, r := range rows {
		if r.Ord >= 0 && r.Ord < len(results) {
			results[r.Ord].Sessions = r.Sessions
		}
	}
	return results, nil
}

// AvgSearches returns the mean raw event count per (visitor, day) pair,
// rounded to one decimal place. An empty filtered set yields 0.
func AvgSearches(db *gorm.DB, p Period, now time.Time) (float64, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`
    SELECT AVG(s) AS avg_searches
    FROM (
      SELECT visitor_key, day, COUNT(*) AS s
      FROM page_views
      %s
      GROUP BY visitor_key, day
    )
    `, where)

	var row struct {
		AvgSearches *float64
	}
	if err := db.Raw(query, args...).Scan(&row).Error; err != nil {
		return 0, fmt.Errorf("error fetching average searches: %w", err)
	}
	if row.AvgSearches == nil {
		return 0, nil
	}
	return math.Round(*row.AvgSearches*10) / 10, nil
}
