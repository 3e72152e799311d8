package stats

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DateRange is the minimum and maximum day across the entire store. It is
// always global: the period filter does not apply to it.
type DateRange struct {
	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`
}

// TotalUnique returns the distinct-visitor count over the filtered set.
func TotalUnique(db *gorm.DB, p Period, now time.Time) (int64, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT visitor_key) FROM page_views %s`, where)

	var total int64
	if err := db.Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("error fetching total unique visitors: %w", err)
	}
	return total, nil
}

// TotalRequests returns the raw, undeduplicated event count over the
// filtered set. It always dominates TotalUnique for the same period.
func TotalRequests(db *gorm.DB, p Period, now time.Time) (int64, error) {
	where, args := p.whereClause(now)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM page_views %s`, where)

	var total int64
	if err := db.Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("error fetching total requests: %w", err)
	}
	return total, nil
}

// GlobalDateRange returns the first and last day present in the store,
// ignoring any period. Empty strings when the store is empty.
func GlobalDateRange(db *gorm.DB) (DateRange, error) {
	var row struct {
		FirstDate *string
		LastDate  *string
	}
	err := db.Raw(`SELECT MIN(day) AS first_date, MAX(day) AS last_date FROM page_views`).
		Scan(&row).Error
	if err != nil {
		return DateRange{}, fmt.Errorf("error fetching date range: %w", err)
	}

	var dr DateRange
	if row.FirstDate != nil {
		dr.FirstDate = *row.FirstDate
	}
	if row.LastDate != nil {
		dr.LastDate = *row.LastDate
	}
	return dr, nil
}
