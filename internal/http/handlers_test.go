package http_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctarchive/internal/events"
	"ctarchive/internal/testsupport"
)

// trackURL builds the pixel URL for a raw target URL, query-escaping the
// base64 payload so '+' and '=' survive the query string.
func trackURL(rawURL string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(rawURL))
	return "/track?d=" + url.QueryEscape(encoded)
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&result))
	return result
}

func TestTrackEndpointStoresPageView(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", trackURL("https://ihsoy.com/?subreddit=AskReddit&q=cats"), nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("Referer", "https://ihsoyCT.github.io/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (test)")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["ok"])

	var stored []events.PageView
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "1.2.3.4", stored[0].VisitorKey, "first X-Forwarded-For entry wins")
	assert.Equal(t, "askreddit", stored[0].Subreddit)
	assert.Equal(t, "cats", stored[0].SearchText)
	assert.Equal(t, "https://ihsoyCT.github.io/", stored[0].Referer)
	assert.Equal(t, "Mozilla/5.0 (test)", stored[0].UserAgent)
	assert.Equal(t, time.Now().UTC().Format(events.DayFormat), stored[0].Day)
}

func TestTrackEndpointPrefersXRealIP(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	req := httptest.NewRequest("GET", trackURL("https://ihsoy.com/?subreddit=golang"), nil)
	req.Header.Set("X-Real-IP", "9.9.9.9")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var stored []events.PageView
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "9.9.9.9", stored[0].VisitorKey)
}

func TestTrackEndpointAlwaysRespondsOK(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	tests := []struct {
		name   string
		target string
	}{
		{"missing payload", "/track"},
		{"empty payload", "/track?d="},
		{"not base64", "/track?d=" + url.QueryEscape("!!!not base64!!!")},
		{"decodes to non-URL", "/track?d=" + url.QueryEscape(base64.StdEncoding.EncodeToString([]byte("hello world")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.target, nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode, "bad input never surfaces as an error status")

			body := decodeBody(t, resp.Body)
			assert.Equal(t, false, body["ok"])
		})
	}

	var count int64
	require.NoError(t, db.Model(&events.PageView{}).Count(&count).Error)
	assert.Zero(t, count, "rejected payloads leave no rows behind")
}

func TestStatsEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	now := time.Now().UTC()
	for _, visitorKey := range []string{"aaa111", "bbb222"} {
		pv := events.PageView{
			OccurredAt: now,
			Day:        now.Format(events.DayFormat),
			RawURL:     "https://ihsoy.com/?subreddit=golang",
			Subreddit:  "golang",
			VisitorKey: visitorKey,
		}
		require.NoError(t, db.Create(&pv).Error)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	payload := decodeBody(t, resp.Body)
	assert.Equal(t, "all", payload["period"], "missing period falls back to all")
	assert.Equal(t, float64(2), payload["total_requests"])
	assert.Equal(t, float64(2), payload["total_unique"])

	buckets, ok := payload["session_distribution"].([]any)
	require.True(t, ok)
	assert.Len(t, buckets, 5)

	subreddits, ok := payload["top_subreddits"].([]any)
	require.True(t, ok)
	require.Len(t, subreddits, 1)
	first := subreddits[0].(map[string]any)
	assert.Equal(t, "golang", first["subreddit"])
	assert.Equal(t, float64(2), first["count"])
}

func TestStatsEndpointPeriodParam(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/stats?period=today", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	assert.Equal(t, "today", payload["period"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/stats?period=bogus", nil), -1)
	require.NoError(t, err)
	payload = decodeBody(t, resp.Body)
	assert.Equal(t, "all", payload["period"])
}

func TestSearchEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	now := time.Now().UTC()
	pv := events.PageView{
		OccurredAt: now,
		Day:        now.Format(events.DayFormat),
		RawURL:     "https://ihsoy.com/?subreddit=golang&q=generics",
		Subreddit:  "golang",
		VisitorKey: "aaa111",
	}
	require.NoError(t, db.Create(&pv).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=golang", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	results, ok := payload["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "aaa111", first["visitor_key"])
	assert.Equal(t, "https://ihsoy.com/?subreddit=golang&q=generics", first["raw_url"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/search", nil))
	require.NoError(t, err)
	payload = decodeBody(t, resp.Body)
	results, ok = payload["results"].([]any)
	require.True(t, ok)
	assert.Empty(t, results)
}

func TestReadEndpointsDegradeOnStoreFailure(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	// Break every read query without touching the connection itself.
	require.NoError(t, db.Exec("DROP TABLE page_views").Error)

	for _, target := range []string{"/api/stats", "/api/search?q=anything"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode, target)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"internal error"}`, string(body),
			"failures stay generic, no internal detail leaks")
	}
}

func TestHealthEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	resp, err := app.Test(httptest.NewRequest("GET", "/_health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db_status"])
}

func TestMetricsEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ctarchive_page_views_collected_total")
}

func TestAPIKeyGate(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.OverrideAPIKey(t, "sekret")
	app := testsupport.CreateMinimalTestApp(t, db)

	t.Run("read API without key is forbidden", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=anything", nil))
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("read API with wrong key is forbidden", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=anything&key=wrong", nil))
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("read API with the right key passes", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=anything&key=sekret", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("tracking pixel is never gated", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", trackURL("https://ihsoy.com/?subreddit=golang"), nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		body := decodeBody(t, resp.Body)
		assert.Equal(t, true, body["ok"])
	})
}
