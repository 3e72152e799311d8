package events

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Normalization failure modes. All of them are expected, non-fatal input
// problems; callers decide whether to nack (live path) or skip (import path).
var (
	ErrBadEncoding = errors.New("payload is not valid base64")
	ErrNotAURL     = errors.New("decoded payload is not an http(s) URL")
	ErrBadURL      = errors.New("decoded payload failed URL parsing")
)

// searchTextParams lists the query-parameter aliases for the free-text search
// field, in extraction precedence order.
var searchTextParams = []string{"q", "query", "body", "title", "selftext"}

// Normalize decodes a base64-encoded URL and extracts the canonical PageView
// for it. The same transform serves the tracking endpoint and the log
// importer; the two differ only in how they obtain observedAt, visitorKey,
// referer and userAgent. Normalize never touches the store.
func Normalize(encodedURL string, observedAt time.Time, visitorKey, referer, userAgent string) (*PageView, error) {
	rawBytes, err := base64.StdEncoding.DecodeString(encodedURL)
	if err != nil {
		// Tolerate URL-safe alphabets too; pixel callers are sloppy.
		rawBytes, err = base64.URLEncoding.DecodeString(encodedURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
		}
	}

	return NormalizeRawURL(string(rawBytes), observedAt, visitorKey, referer, userAgent)
}

// NormalizeRawURL is the decode-free half of Normalize, used by the log
// importer whose input lines carry the URL in clear text.
func NormalizeRawURL(rawURL string, observedAt time.Time, visitorKey, referer, userAgent string) (*PageView, error) {
	if !strings.HasPrefix(rawURL, "http") {
		return nil, ErrNotAURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	params := parsed.Query()

	utc := observedAt.UTC()
	return &PageView{
		OccurredAt: utc.Truncate(time.Second),
		Day:        utc.Format(DayFormat),
		RawURL:     rawURL,
		Backend:    params.Get("backend"),
		Mode:       params.Get("mode"),
		Subreddit:  normalizeTag(params.Get("subreddit")),
		Author:     normalizeTag(params.Get("author")),
		SearchText: firstPresent(params, searchTextParams),
		Referer:    truncate(referer, MaxRefererLength),
		UserAgent:  truncate(userAgent, MaxUserAgentLength),
		VisitorKey: visitorKey,
	}, nil
}

// normalizeTag lowercases a categorical identifier. Whitespace-only values
// fold to empty, which the store treats as absent everywhere.
func normalizeTag(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// firstPresent returns the first non-empty value among the named parameters,
// honoring the fixed precedence order.
func firstPresent(params url.Values, names []string) string {
	for _, name := range names {
		if v := params.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
