package stats

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"ctarchive/internal/events"
)

// TrendingSubreddit compares a subreddit's distinct-visitor counts across
// the trailing 7-day window and the 7 days before it.
type TrendingSubreddit struct {
	Subreddit string `json:"subreddit"`
	ThisWeek  int64  `json:"this_week"`
	LastWeek  int64  `json:"last_week"`
}

// TrendingSubreddits reports week-over-week movement per subreddit. The two
// windows are fixed relative to now and deliberately ignore the period the
// surrounding stats call was made with: trends only make sense over the same
// pair of windows. A subreddit present in either window appears, with 0 for
// the window it is absent from.
func TrendingSubreddits(db *gorm.DB, now time.Time) ([]TrendingSubreddit, error) {
	today := now.UTC()
	weekStart := today.AddDate(0, 0, -6).Format(events.DayFormat)
	prevStart := today.AddDate(0, 0, -13).Format(events.DayFormat)

	thisWeek, err := subredditCountsBetween(db, weekStart, "")
	if err != nil {
		return nil, fmt.Errorf("error fetching current trending window: %w", err)
	}
	lastWeek, err := subredditCountsBetween(db, prevStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("error fetching previous trending window: %w", err)
	}

	merged := make(map[string]*TrendingSubreddit, len(thisWeek)+len(lastWeek))
	for name, count := range thisWeek {
		merged[name] = &TrendingSubreddit{Subreddit: name, ThisWeek: count}
	}
	for name, count := range lastWeek {
		if entry, exists := merged[name]; exists {
			entry.LastWeek = count
		} else {
			merged[name] = &TrendingSubreddit{Subreddit: name, LastWeek: count}
		}
	}

	results := make([]TrendingSubreddit, 0, len(merged))
	for _, entry := range merged {
		results = append(results, *entry)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].ThisWeek != results[j].ThisWeek {
			return results[i].ThisWeek > results[j].ThisWeek
		}
		if results[i].LastWeek != results[j].LastWeek {
			return results[i].LastWeek > results[j].LastWeek
		}
		return results[i].Subreddit < results[j].Subreddit
	})

	if len(results) > TopLimit {
		results = results[:TopLimit]
	}
	return results, nil
}

// subredditCountsBetween counts distinct visitors per non-absent subreddit
// for fromDay <= day, and day < beforeDay when beforeDay is set.
func subredditCountsBetween(db *gorm.DB, fromDay, beforeDay string) (map[string]int64, error) {
	query := `
    SELECT subreddit AS name, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    WHERE subreddit != '' AND day >= ?
    `
	args := []any{fromDay}
	if beforeDay != "" {
		query += ` AND day < ?`
		args = append(args, beforeDay)
	}
	query += ` GROUP BY subreddit`

	var rows []struct {
		Name  string
		Count int64
	}
	if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Name] = r.Count
	}
	return counts, nil
}
