// internal/models/response.go
package models

// ChatResponse is the client response contract.
type ChatResponse struct {
	Text             string                 `json:"text"`
	Listings         *CarouselBlock         `json:"listings,omitempty"`
	MapView          *MapViewBlock          `json:"mapView,omitempty"`
	Articles         *ArticleResultsBlock   `json:"articles,omitempty"`
	MarketStats      *MarketStatsBlock      `json:"marketStats,omitempty"`
	NeighborhoodLink *NeighborhoodLinkBlock `json:"neighborhoodLink,omitempty"`
	Metadata         ResponseMetadata       `json:"metadata"`
}

// ResponseMetadata carries the observability log for one request. It is
// returned to the caller and never persisted.
type ResponseMetadata struct {
	RequestID  string           `json:"requestId"`
	ToolCalls  []ToolCallRecord `json:"toolCalls"`
	Iterations int              `json:"iterations"`
	ElapsedMs  int64            `json:"elapsedMs"`
	State      string           `json:"state"` // done or aborted
}
