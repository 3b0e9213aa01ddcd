package domain

import "time"

// NewsItem is a single feed entry with a parsed publish time.
type NewsItem struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
}

// Age reports how long ago the item was published relative to now.
func (n NewsItem) Age(now time.Time) time.Duration {
	return now.Sub(n.Published)
}

// Recent keeps items whose age relative to now is at most window.
// The boundary is inclusive and items dated in the future are kept.
func Recent(items []NewsItem, now time.Time, window time.Duration) []NewsItem {
	recent := make([]NewsItem, 0, len(items))
	for _, item := range items {
		if item.Age(now) <= window {
			recent = append(recent, item)
		}
	}
	return recent
}

// Limit caps the slice at n items; n <= 0 means no cap.
func Limit(items []NewsItem, n int) []NewsItem {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
