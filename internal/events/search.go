package events

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// SearchResultLimit caps lookup responses; newest matches win.
const SearchResultLimit = 200

// SearchResult is one raw matching event. Lookups deliberately skip
// distinct-visitor deduplication: they are for inspecting traffic, not
// for statistics.
type SearchResult struct {
	VisitorKey string `json:"visitor_key"`
	RawURL     string `json:"raw_url"`
	Referer    string `json:"referer"`
	Day        string `json:"day"`
	OccurredAt int64  `json:"occurred_at"`
}

// SearchPageViews returns the most recent page views whose raw URL contains
// every whitespace-separated term of the query as a substring. An empty or
// all-whitespace query yields an empty result, not an error.
func SearchPageViews(db *gorm.DB, query string) ([]SearchResult, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []SearchResult{}, nil
	}

	q := db.Model(&PageView{})
	for _, term := range terms {
		q = q.Where("raw_url LIKE ?", "%"+term+"%")
	}

	var rows []struct {
		VisitorKey string
		RawURL     string
		Referer    string
		Day        string
		OccurredAt int64
	}
	err := q.Select("visitor_key, raw_url, referer, day, CAST(strftime('%s', occurred_at) AS INTEGER) AS occurred_at").
		Order("occurred_at DESC").
		Limit(SearchResultLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error searching page views: %w", err)
	}

	results := make([]SearchResult, len(rows))
	for i, r := range rows {
		results[i] = SearchResult{
			VisitorKey: r.VisitorKey,
			RawURL:     r.RawURL,
			Referer:    r.Referer,
			Day:        r.Day,
			OccurredAt: r.OccurredAt,
		}
	}
	return results, nil
}
