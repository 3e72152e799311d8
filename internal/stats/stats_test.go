package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ctarchive/internal/events"
	"ctarchive/internal/stats"
	"ctarchive/internal/testsupport"
)

// statsNow anchors every window in these tests: Wednesday 2025-09-17, noon UTC.
var statsNow = time.Date(2025, 9, 17, 12, 0, 0, 0, time.UTC)

// seedStatsFixture inserts a small known traffic sample:
//
//	aaa111: two golang hits today (08:05 and 14:30), one rust hit on 2025-09-10
//	bbb222: one golang hit today (14:10)
//	ccc333: one askreddit hit on 2025-08-01, outside every bounded period
func seedStatsFixture(t *testing.T, db *gorm.DB) {
	t.Helper()

	rows := []events.PageView{
		{
			OccurredAt: time.Date(2025, 9, 17, 8, 5, 0, 0, time.UTC),
			Day:        "2025-09-17",
			RawURL:     "https://ihsoy.com/?subreddit=golang&author=foo&q=generics",
			Backend:    "pushshift",
			Mode:       "comments",
			Subreddit:  "golang",
			Author:     "foo",
			SearchText: "generics",
			Referer:    "https://ihsoyct.github.io/",
			VisitorKey: "aaa111",
		},
		{
			OccurredAt: time.Date(2025, 9, 17, 14, 30, 0, 0, time.UTC),
			Day:        "2025-09-17",
			RawURL:     "https://ihsoy.com/?subreddit=golang&author=foo",
			Backend:    "pushshift",
			Mode:       "comments",
			Subreddit:  "golang",
			Author:     "foo",
			Referer:    "https://ihsoyct.github.io/",
			VisitorKey: "aaa111",
		},
		{
			OccurredAt: time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC),
			Day:        "2025-09-10",
			RawURL:     "https://ihsoy.com/?subreddit=rust",
			Subreddit:  "rust",
			VisitorKey: "aaa111",
		},
		{
			OccurredAt: time.Date(2025, 9, 17, 14, 10, 0, 0, time.UTC),
			Day:        "2025-09-17",
			RawURL:     "https://ihsoy.com/?subreddit=golang&q=cats",
			Backend:    "pushshift",
			Subreddit:  "golang",
			SearchText: "cats",
			VisitorKey: "bbb222",
		},
		{
			OccurredAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
			Day:        "2025-08-01",
			RawURL:     "https://ihsoy.com/?subreddit=AskReddit",
			Backend:    "elastic",
			Subreddit:  "askreddit",
			VisitorKey: "ccc333",
		},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input    string
		expected stats.Period
	}{
		{"all", stats.PeriodAll},
		{"today", stats.PeriodToday},
		{"week", stats.PeriodWeek},
		{"month", stats.PeriodMonth},
		{"", stats.PeriodAll},
		{"yesterday", stats.PeriodAll},
		{"TODAY", stats.PeriodAll},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, stats.ParsePeriod(tt.input), "input %q", tt.input)
	}
}

func TestTotals(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	tests := []struct {
		period   stats.Period
		requests int64
		unique   int64
	}{
		{stats.PeriodAll, 5, 3},
		{stats.PeriodToday, 3, 2},
		{stats.PeriodWeek, 3, 2},
		{stats.PeriodMonth, 4, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			requests, err := stats.TotalRequests(db, tt.period, statsNow)
			require.NoError(t, err)
			assert.Equal(t, tt.requests, requests)

			unique, err := stats.TotalUnique(db, tt.period, statsNow)
			require.NoError(t, err)
			assert.Equal(t, tt.unique, unique)

			assert.GreaterOrEqual(t, requests, unique)
		})
	}
}

func TestTopSubredditsCountsDistinctVisitors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.TopSubreddits(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// aaa111 hit golang twice but counts once.
	assert.Equal(t, "golang", results[0].Subreddit)
	assert.Equal(t, int64(2), results[0].Count)

	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.Subreddit] = r.Count
	}
	assert.Equal(t, int64(1), counts["rust"])
	assert.Equal(t, int64(1), counts["askreddit"])
}

func TestTopSubredditsHonorsPeriod(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.TopSubreddits(db, stats.PeriodToday, statsNow)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "golang", results[0].Subreddit)
	assert.Equal(t, int64(2), results[0].Count)
}

func TestTopQueriesAndAuthors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	queries, err := stats.TopQueries(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	queryCounts := make(map[string]int64)
	for _, q := range queries {
		queryCounts[q.SearchText] = q.Count
	}
	assert.Equal(t, map[string]int64{"generics": 1, "cats": 1}, queryCounts)

	authors, err := stats.TopAuthors(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "foo", authors[0].Author)
	assert.Equal(t, int64(1), authors[0].Count)
}

func TestBackendCountsFoldAbsentIntoUnknown(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.BackendCounts(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)

	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.Backend] = r.Count
	}
	assert.Equal(t, int64(2), counts["pushshift"])
	assert.Equal(t, int64(1), counts["elastic"])
	assert.Equal(t, int64(1), counts[stats.UnknownCategory], "the blank-backend rust hit")
}

func TestSubredditAuthorPairsRequireBoth(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.SubredditAuthorPairs(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	require.Len(t, results, 1, "only the golang/foo rows carry both fields")
	assert.Equal(t, "golang", results[0].Subreddit)
	assert.Equal(t, "foo", results[0].Author)
	assert.Equal(t, int64(1), results[0].Count)
}

func TestRequestsPerDay(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	t.Run("all period trails thirty days", func(t *testing.T) {
		results, err := stats.RequestsPerDay(db, stats.PeriodAll, statsNow)
		require.NoError(t, err)
		require.Len(t, results, 2, "the 2025-08-01 hit is outside the trailing window")
		assert.Equal(t, stats.DayCount{Date: "2025-09-10", Count: 1}, results[0])
		assert.Equal(t, stats.DayCount{Date: "2025-09-17", Count: 2}, results[1])
	})

	t.Run("today period", func(t *testing.T) {
		results, err := stats.RequestsPerDay(db, stats.PeriodToday, statsNow)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, stats.DayCount{Date: "2025-09-17", Count: 2}, results[0])
	})
}

func TestHourOfDayAndDayOfWeek(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	hours, err := stats.HourOfDay(db, stats.PeriodToday, statsNow)
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.Equal(t, stats.HourCount{Hour: "08", Count: 1}, hours[0])
	assert.Equal(t, stats.HourCount{Hour: "14", Count: 2}, hours[1])

	weekdays, err := stats.DayOfWeek(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	require.Len(t, weekdays, 2)
	// Both September days are Wednesdays; 2025-08-01 is a Friday.
	assert.Equal(t, stats.WeekdayCount{Weekday: "3", Count: 2}, weekdays[0])
	assert.Equal(t, stats.WeekdayCount{Weekday: "5", Count: 1}, weekdays[1])
}

func TestSessionDistribution(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.SessionDistribution(db, stats.PeriodToday, statsNow)
	require.NoError(t, err)

	expected := []stats.SessionBucket{
		{Bucket: "1", Sessions: 1},
		{Bucket: "2–3", Sessions: 1},
		{Bucket: "4–5", Sessions: 0},
		{Bucket: "6–10", Sessions: 0},
		{Bucket: "10+", Sessions: 0},
	}
	assert.Equal(t, expected, results, "every bucket is present, in fixed order")
}

func TestSessionDistributionEmptyStore(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	results, err := stats.SessionDistribution(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, bucket := range results {
		assert.Zero(t, bucket.Sessions)
	}
}

func TestAvgSearches(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	// Today: aaa111 has a 2-event session, bbb222 a 1-event one.
	avg, err := stats.AvgSearches(db, stats.PeriodToday, statsNow)
	require.NoError(t, err)
	assert.Equal(t, 1.5, avg)
}

func TestAvgSearchesEmptyStore(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	avg, err := stats.AvgSearches(db, stats.PeriodAll, statsNow)
	require.NoError(t, err)
	assert.Zero(t, avg)
}

func TestGlobalDateRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	dr, err := stats.GlobalDateRange(db)
	require.NoError(t, err)
	assert.Equal(t, stats.DateRange{FirstDate: "2025-08-01", LastDate: "2025-09-17"}, dr)
}

func TestGlobalDateRangeEmptyStore(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	dr, err := stats.GlobalDateRange(db)
	require.NoError(t, err)
	assert.Equal(t, stats.DateRange{}, dr)
}

func TestTrendingSubreddits(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	results, err := stats.TrendingSubreddits(db, statsNow)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, stats.TrendingSubreddit{Subreddit: "golang", ThisWeek: 2, LastWeek: 0}, results[0])
	assert.Equal(t, stats.TrendingSubreddit{Subreddit: "rust", ThisWeek: 0, LastWeek: 1}, results[1],
		"a subreddit seen only last week still appears")
}

func TestFetchAssemblesFullPayload(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedStatsFixture(t, db)

	logger := testsupport.GetLogger()
	payload, err := stats.Fetch(context.Background(), db, logger, stats.PeriodToday, statsNow)
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, stats.PeriodToday, payload.Period)
	assert.Equal(t, int64(3), payload.TotalRequests)
	assert.Equal(t, int64(2), payload.TotalUnique)
	require.Len(t, payload.TopSubreddits, 1)
	assert.Equal(t, "golang", payload.TopSubreddits[0].Subreddit)
	assert.Len(t, payload.SessionDistribution, 5)
	assert.Equal(t, 1.5, payload.AvgSearches)

	// DateRange and trending ignore the period filter.
	assert.Equal(t, "2025-08-01", payload.DateRange.FirstDate)
	require.Len(t, payload.TrendingSubreddits, 2)
}
