// internal/models/blocks.go
package models

// Structured blocks are typed payloads embedded in the model's narrative
// between bracketed markers. They are derived per request and never stored.

// CarouselBlock renders a horizontal strip of listing cards.
type CarouselBlock struct {
	Title    string           `json:"title,omitempty"`
	Listings []ListingSummary `json:"listings"`
}

// MapViewBlock renders listings as pins with an initial frame.
type MapViewBlock struct {
	Listings []ListingSummary `json:"listings"`
	Center   *Coordinates     `json:"center,omitempty"`
	Zoom     float64          `json:"zoom,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ArticleSummary is one ranked article result.
type ArticleSummary struct {
	Title   string  `json:"title"`
	Slug    string  `json:"slug,omitempty"`
	URL     string  `json:"url,omitempty"`
	Excerpt string  `json:"excerpt,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// ArticleResultsBlock renders ranked article cards.
type ArticleResultsBlock struct {
	Results []ArticleSummary `json:"results"`
}

// MarketStatsBlock renders aggregate market figures for a location.
type MarketStatsBlock struct {
	Location string                 `json:"location"`
	Stats    map[string]interface{} `json:"stats"`
}

// NeighborhoodLinkBlock renders a link card to a neighborhood page.
type NeighborhoodLinkBlock struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	URL  string `json:"url"`
}
