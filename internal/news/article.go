package news

import "time"

// Article is a single news item fetched from one provider.
// Identity is the canonical URL (exact match); articles without a URL
// cannot be deduplicated but are still usable for ranking. Articles are
// immutable once fetched and live only for one aggregation call.
type Article struct {
	Title       string
	Source      string
	URL         string
	PublishedAt *time.Time
	Description string
}
