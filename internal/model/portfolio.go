package model

// PortfolioEntry is a showcase row pointing at a gallery's lead image.
type PortfolioEntry struct {
	ID       int    `json:"id" db:"id"`
	Gallery  string `json:"gallery" db:"gallery"`
	URL      string `json:"url" db:"url"`
	Category string `json:"category" db:"category"`
	Year     string `json:"year" db:"year"`
}

type VisitorStats struct {
	TotalVisits    int64 `json:"totalVisits"`
	ActiveVisitors int64 `json:"activeVisitors"`
}
