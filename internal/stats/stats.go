package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ctarchive/internal/pkg/async"
)

// Payload is the complete statistics response for one period. Every
// sub-aggregation is computed independently over the same filter, except
// DateRange (always global) and TrendingSubreddits (always the fixed
// week-over-week windows).
type Payload struct {
	TopSubreddits        []SubredditCount       `json:"top_subreddits"`
	TopAuthors           []AuthorCount          `json:"top_authors"`
	TopQueries           []QueryCount           `json:"top_queries"`
	BackendCounts        []BackendCount         `json:"backend_counts"`
	ModeCounts           []ModeCount            `json:"mode_counts"`
	RequestsPerDay       []DayCount             `json:"requests_per_day"`
	TotalUnique          int64                  `json:"total_unique"`
	TotalRequests        int64                  `json:"total_requests"`
	DateRange            DateRange              `json:"date_range"`
	TopReferers          []RefererCount         `json:"top_referers"`
	HourOfDay            []HourCount            `json:"hour_of_day"`
	DayOfWeek            []WeekdayCount         `json:"day_of_week"`
	SessionDistribution  []SessionBucket        `json:"session_distribution"`
	AvgSearches          float64                `json:"avg_searches"`
	TrendingSubreddits   []TrendingSubreddit    `json:"trending_subreddits"`
	SubredditAuthorPairs []SubredditAuthorCount `json:"subreddit_author_pairs"`
	Period               Period                 `json:"period"`
}

// poolSize bounds how many aggregation queries run at once. The store
// allows concurrent readers, so this is purely a fan-out cap.
const poolSize = 8

// Fetch computes the full payload for one period, anchored at now (UTC).
// The sub-aggregations run concurrently; the first failure fails the call.
func Fetch(ctx context.Context, db *gorm.DB, logger *slog.Logger, p Period, now time.Time) (*Payload, error) {
	tasks := []async.Task{
		{
			Name: "topSubreddits",
			Execute: func() (interface{}, error) {
				return TopSubreddits(db, p, now)
			},
		},
		{
			Name: "topAuthors",
			Execute: func() (interface{}, error) {
				return TopAuthors(db, p, now)
			},
		},
		{
			Name: "topQueries",
			Execute: func() (interface{}, error) {
				return TopQueries(db, p, now)
			},
		},
		{
			Name: "backendCounts",
			Execute: func() (interface{}, error) {
				return BackendCounts(db, p, now)
			},
		},
		{
			Name: "modeCounts",
			Execute: func() (interface{}, error) {
				return ModeCounts(db, p, now)
			},
		},
		{
			Name: "requestsPerDay",
			Execute: func() (interface{}, error) {
				return RequestsPerDay(db, p, now)
			},
		},
		{
			Name: "totalUnique",
			Execute: func() (interface{}, error) {
				return TotalUnique(db, p, now)
			},
		},
		{
			Name: "totalRequests",
			Execute: func() (interface{}, error) {
				return TotalRequests(db, p, now)
			},
		},
		{
			Name: "dateRange",
			Execute: func() (interface{}, error) {
				return GlobalDateRange(db)
			},
		},
		{
			Name: "topReferers",
			Execute: func() (interface{}, error) {
				return TopReferers(db, p, now)
			},
		},
		{
			Name: "hourOfDay",
			Execute: func() (interface{}, error) {
				return HourOfDay(db, p, now)
			},
		},
		{
			Name: "dayOfWeek",
			Execute: func() (interface{}, error) {
				return DayOfWeek(db, p, now)
			},
		},
		{
			Name: "sessionDistribution",
			Execute: func() (interface{}, error) {
				return SessionDistribution(db, p, now)
			},
		},
		{
			Name: "avgSearches",
			Execute: func() (interface{}, error) {
				return AvgSearches(db, p, now)
			},
		},
		{
			Name: "trendingSubreddits",
			Execute: func() (interface{}, error) {
				return TrendingSubreddits(db, now)
			},
		},
		{
			Name: "subredditAuthorPairs",
			Execute: func() (interface{}, error) {
				return SubredditAuthorPairs(db, p, now)
			},
		},
	}

	pool := async.NewPool(poolSize)
	results := pool.Execute(ctx, tasks)

	for _, task := range tasks {
		result, ok := results[task.Name]
		if !ok {
			return nil, fmt.Errorf("stats task %s did not complete: %w", task.Name, ctx.Err())
		}
		if result.Err != nil {
			logger.Error("Stats task failed",
				slog.String("task", task.Name),
				slog.Any("error", result.Err))
			return nil, result.Err
		}
	}

	payload := &Payload{Period: p}
	payload.TopSubreddits = results["topSubreddits"].Data.([]SubredditCount)
	payload.TopAuthors = results["topAuthors"].Data.([]AuthorCount)
	payload.TopQueries = results["topQueries"].Data.([]QueryCount)
	payload.BackendCounts = results["backendCounts"].Data.([]BackendCount)
	payload.ModeCounts = results["modeCounts"].Data.([]ModeCount)
	payload.RequestsPerDay = results["requestsPerDay"].Data.([]DayCount)
	payload.TotalUnique = results["totalUnique"].Data.(int64)
	payload.TotalRequests = results["totalRequests"].Data.(int64)
	payload.DateRange = results["dateRange"].Data.(DateRange)
	payload.TopReferers = results["topReferers"].Data.([]RefererCount)
	payload.HourOfDay = results["hourOfDay"].Data.([]HourCount)
	payload.DayOfWeek = results["dayOfWeek"].Data.([]WeekdayCount)
	payload.SessionDistribution = results["sessionDistribution"].Data.([]SessionBucket)
	payload.AvgSearches = results["avgSearches"].Data.(float64)
	payload.TrendingSubreddits = results["trendingSubreddits"].Data.([]TrendingSubreddit)
	payload.SubredditAuthorPairs = results["subredditAuthorPairs"].Data.([]SubredditAuthorCount)

	return payload, nil
}
