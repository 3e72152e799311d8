package stats

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TopLimit caps every ranking; ties break on insertion order.
const TopLimit = 20

// SubredditCount is a subreddit with its distinct-visitor count.
type SubredditCount struct {
	Subreddit string `json:"subreddit"`
	Count     int64  `json:"count"`
}

// AuthorCount is an author with its distinct-visitor count.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int64  `json:"count"`
}

// QueryCount is a free-text search with its distinct-visitor count.
type QueryCount struct {
	SearchText string `json:"search_text"`
	Count      int64  `json:"count"`
}

// RefererCount is a referring page with its distinct-visitor count.
type RefererCount struct {
	Referer string `json:"referer"`
	Count   int64  `json:"count"`
}

// SubredditAuthorCount is a (subreddit, author) pair with its
// distinct-visitor count.
type SubredditAuthorCount struct {
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
	Count     int64  `json:"count"`
}

// topFieldCounts ranks the non-absent values of one categorical column by
// distinct visitors within the period. column is always one of the fixed
// names below, never caller input.
func topFieldCounts(db *gorm.DB, column string, p Period, now time.Time) ([]struct {
	Name  string
	Count int64
}, error) {
	and, args := p.andClause(now)
	query := fmt.Sprintf(`
    SELECT %s AS name, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    WHERE %s != ''
    %s
    GROUP BY %s
    ORDER BY count DESC
    LIMIT ?
    `, column, column, and, column)

	var rows []struct {
		Name  string
		Count int64
	}
	err := db.Raw(query, append(args, TopLimit)...).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching top %s: %w", column, err)
	}
	return rows, nil
}

// TopSubreddits ranks subreddits by distinct visitors within the period.
func TopSubreddits(db *gorm.DB, p Period, now time.Time) ([]SubredditCount, error) {
	rows, err := topFieldCounts(db, "subreddit", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]SubredditCount, len(rows))
	for i, r := range rows {
		results[i] = SubredditCount{Subreddit: r.Name, Count: r.Count}
	}
	return results, nil
}

// TopAuthors ranks authors by distinct visitors within the period.
func TopAuthors(db *gorm.DB, p Period, now time.Time) ([]AuthorCount, error) {
	rows, err := topFieldCounts(db, "author", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]AuthorCount, len(rows))
	for i, r := range rows {
		results[i] = AuthorCount{Author: r.Name, Count: r.Count}
	}
	return results, nil
}

// TopQueries ranks free-text searches by distinct visitors within the period.
func TopQueries(db *gorm.DB, p Period, now time.Time) ([]QueryCount, error) {
	rows, err := topFieldCounts(db, "search_text", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]QueryCount, len(rows))
	for i, r := range rows {
		results[i] = QueryCount{SearchText: r.Name, Count: r.Count}
	}
	return results, nil
}

// TopReferers ranks referring pages by distinct visitors within the period.
func TopReferers(db *gorm.DB, p Period, now time.Time) ([]RefererCount, error) {
	rows, err := topFieldCounts(db, "referer", p, now)
	if err != nil {
		return nil, err
	}
	results := make([]RefererCount, len(rows))
	for i, r := range rows {
		results[i] = RefererCount{Referer: r.Name, Count: r.Count}
	}
	return results, nil
}

// SubredditAuthorPairs ranks (subreddit, author) pairs, both required
// non-absent, by distinct visitors within the period.
func SubredditAuthorPairs(db *gorm.DB, p Period, now time.Time) ([]SubredditAuthorCount, error) {
	and, args := p.andClause(now)
	query := fmt.Sprintf(`
    SELECT subreddit, author, COUNT(DISTINCT visitor_key) AS count
    FROM page_views
    WHERE subreddit != '' AND author != ''
    %s
    GROUP BY subreddit, author
    ORDER BY count DESC
    LIMIT ?
    `, and)

	var results []SubredditAuthorCount
	err := db.Raw(query, append(args, TopLimit)...).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching subreddit/author pairs: %w", err)
	}
	return results, nil
}
