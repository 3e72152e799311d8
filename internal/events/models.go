// Package events owns the page-view record: how a tracked URL is normalized
// into one, how it is written to the store, and how raw records are looked up.
package events

import "time"

// DayFormat is the canonical layout for the redundant calendar-date column.
const DayFormat = "2006-01-02"

// Truncation bounds for the request metadata columns.
const (
	MaxRefererLength   = 512
	MaxUserAgentLength = 256
)

// PageView represents one observed page view of the archive UI.
// Rows are append-only: there is no update or delete path, and every
// aggregation reads them as immutable input.
type PageView struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	OccurredAt time.Time `gorm:"index;not null"`
	// Day is the UTC calendar date of OccurredAt, stored redundantly so
	// period filters can hit an index instead of computing dates per row.
	Day        string `gorm:"index;size:10;not null"`
	RawURL     string `gorm:"not null"`
	Backend    string
	Mode       string
	Subreddit  string `gorm:"index"`
	Author     string
	SearchText string
	Referer    string
	UserAgent  string
	// VisitorKey identifies the originating visitor: a client IP on the
	// live path, an opaque per-visitor hash on the import path. It is the
	// unit of distinct-visitor counting, not a verified identity.
	VisitorKey string `gorm:"not null"`
	CreatedAt  time.Time
}
