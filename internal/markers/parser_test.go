// internal/markers/parser_test.go
package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-search/internal/common/logger"
)

func newTestParser(t *testing.T) *Parser {
	return NewParser(logger.NewTestLogger(t))
}

func TestParsePlainNarrative(t *testing.T) {
	p := newTestParser(t)

	parsed := p.Parse("Palm Desert has a busy spring market.")
	assert.Equal(t, "Palm Desert has a busy spring market.", parsed.Text)
	assert.Nil(t, parsed.Carousel)
	assert.Nil(t, parsed.MapView)
}

func TestParseCarouselBlock(t *testing.T) {
	p := newTestParser(t)

	text := `Here are some homes in Palm Desert.

[LISTING_CAROUSEL]{"title": "Palm Desert Homes", "listings": [{"listingId": "219100001", "listPrice": 750000}]}[/LISTING_CAROUSEL]

Let me know if you want to narrow these down.`

	parsed := p.Parse(text)

	require.NotNil(t, parsed.Carousel)
	assert.Equal(t, "Palm Desert Homes", parsed.Carousel.Title)
	require.Len(t, parsed.Carousel.Listings, 1)
	assert.Equal(t, "219100001", parsed.Carousel.Listings[0].ListingID)

	assert.NotContains(t, parsed.Text, "LISTING_CAROUSEL")
	assert.NotContains(t, parsed.Text, "219100001")
	assert.Contains(t, parsed.Text, "Here are some homes in Palm Desert.")
	assert.Contains(t, parsed.Text, "narrow these down")
}

func TestParseAllBlockTypes(t *testing.T) {
	p := newTestParser(t)

	text := `Overview below.
[LISTING_CAROUSEL]{"listings": []}[/LISTING_CAROUSEL]
[MAP_VIEW]{"listings": [], "zoom": 12}[/MAP_VIEW]
[ARTICLE_RESULTS]{"results": [{"title": "Guide"}]}[/ARTICLE_RESULTS]
[MARKET_STATS]{"location": "La Quinta", "stats": {"avgPrice": 650000}}[/MARKET_STATS]
[NEIGHBORHOOD_LINK]{"name": "PGA West", "url": "/neighborhoods/pga-west"}[/NEIGHBORHOOD_LINK]`

	parsed := p.Parse(text)

	assert.NotNil(t, parsed.Carousel)
	require.NotNil(t, parsed.MapView)
	assert.Equal(t, 12.0, parsed.MapView.Zoom)
	require.NotNil(t, parsed.Articles)
	assert.Equal(t, "Guide", parsed.Articles.Results[0].Title)
	require.NotNil(t, parsed.MarketStats)
	assert.Equal(t, "La Quinta", parsed.MarketStats.Location)
	require.NotNil(t, parsed.NeighborhoodLink)
	assert.Equal(t, "PGA West", parsed.NeighborhoodLink.Name)

	assert.Equal(t, "Overview below.", parsed.Text)
}

// A malformed block is dropped without disturbing its siblings.
func TestParseMalformedBlockIsIsolated(t *testing.T) {
	p := newTestParser(t)

	text := `Results:
[LISTING_CAROUSEL]{"listings": [{}]}[/LISTING_CAROUSEL]
[MARKET_STATS]{"location": "La Quinta", "stats": {broken}[/MARKET_STATS]
Done.`

	parsed := p.Parse(text)

	assert.NotNil(t, parsed.Carousel, "well-formed sibling must survive")
	assert.Nil(t, parsed.MarketStats)
	assert.Contains(t, parsed.Text, "Results:")
	assert.Contains(t, parsed.Text, "Done.")
	assert.NotContains(t, parsed.Text, "LISTING_CAROUSEL")
}

func TestParseMissingClosingTag(t *testing.T) {
	p := newTestParser(t)

	text := `Homes below.
[LISTING_CAROUSEL]{"title": "Homes", "listings": []}`

	parsed := p.Parse(text)

	require.NotNil(t, parsed.Carousel)
	assert.Equal(t, "Homes", parsed.Carousel.Title)
	assert.NotContains(t, parsed.Text, "LISTING_CAROUSEL")
}

func TestParseNestedBracesInPayload(t *testing.T) {
	p := newTestParser(t)

	text := `[MARKET_STATS]{"location": "Indio", "stats": {"price": {"avg": 500000, "note": "incl. {escrow}"}}}`

	parsed := p.Parse(text)
	require.NotNil(t, parsed.MarketStats)
	assert.Equal(t, "Indio", parsed.MarketStats.Location)
}

func TestParseDuplicateTagFirstDecodableWins(t *testing.T) {
	p := newTestParser(t)

	text := `[NEIGHBORHOOD_LINK]{"name": "First", "url": "/a"}[/NEIGHBORHOOD_LINK]
[NEIGHBORHOOD_LINK]{"name": "Second", "url": "/b"}[/NEIGHBORHOOD_LINK]`

	parsed := p.Parse(text)
	require.NotNil(t, parsed.NeighborhoodLink)
	assert.Equal(t, "First", parsed.NeighborhoodLink.Name)
	assert.NotContains(t, parsed.Text, "Second")
}

func TestParseDanglingTagWithoutPayload(t *testing.T) {
	p := newTestParser(t)

	parsed := p.Parse("I would show a map here [MAP_VIEW] but found nothing.")
	assert.Nil(t, parsed.MapView)
	assert.Equal(t, "I would show a map here  but found nothing.", parsed.Text)
}

func TestParseCollapsesWhitespaceHoles(t *testing.T) {
	p := newTestParser(t)

	text := "Before.\n\n\n[LISTING_CAROUSEL]{\"listings\": []}[/LISTING_CAROUSEL]\n\n\n\nAfter."
	parsed := p.Parse(text)

	assert.Equal(t, "Before.\n\nAfter.", parsed.Text)
	assert.NotNil(t, parsed.Carousel)
}
