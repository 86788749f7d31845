// internal/markers/parser.go

// Package markers extracts structured blocks from model narrative text.
// The model embeds JSON payloads between bracketed tags, one tag per block
// type. Parsing is defensive throughout: a malformed block is dropped and
// logged, never allowed to fail the response or poison a sibling block.
package markers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"listing-search/internal/common/logger"
	"listing-search/internal/models"
)

// Marker tags the model is instructed to emit.
const (
	TagListingCarousel  = "LISTING_CAROUSEL"
	TagMapView          = "MAP_VIEW"
	TagArticleResults   = "ARTICLE_RESULTS"
	TagMarketStats      = "MARKET_STATS"
	TagNeighborhoodLink = "NEIGHBORHOOD_LINK"
)

var knownTags = []string{
	TagListingCarousel,
	TagMapView,
	TagArticleResults,
	TagMarketStats,
	TagNeighborhoodLink,
}

// strictPatterns match well-formed [TAG]{...}[/TAG] blocks. Models usually
// emit these; the balanced-brace fallback handles missing closing tags.
var strictPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(knownTags))
	for _, tag := range knownTags {
		patterns[tag] = regexp.MustCompile(`(?s)\[` + tag + `\]\s*(\{.*?\})\s*\[/` + tag + `\]`)
	}
	return patterns
}()

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Parsed is one narrative split into clean text and typed blocks.
type Parsed struct {
	Text             string
	Carousel         *models.CarouselBlock
	MapView          *models.MapViewBlock
	Articles         *models.ArticleResultsBlock
	MarketStats      *models.MarketStatsBlock
	NeighborhoodLink *models.NeighborhoodLinkBlock
}

// Parser extracts blocks from narrative text.
type Parser struct {
	logger logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	return &Parser{logger: log.With(map[string]interface{}{"component": "marker-parser"})}
}

// Parse extracts every known block from the text and returns the narrative
// with all markers stripped. When a tag appears more than once, the first
// decodable payload wins.
func (p *Parser) Parse(text string) *Parsed {
	parsed := &Parsed{}
	remaining := text

	for _, tag := range knownTags {
		var payloads []string
		payloads, remaining = extract(tag, remaining)

		for _, payload := range payloads {
			if p.decode(tag, payload, parsed) {
				break
			}
		}
	}

	parsed.Text = cleanText(remaining)
	return parsed
}

// decode unmarshals one payload into its block slot. Returns false on
// malformed JSON so the caller can try a later duplicate.
func (p *Parser) decode(tag, payload string, parsed *Parsed) bool {
	var err error

	switch tag {
	case TagListingCarousel:
		block := &models.CarouselBlock{}
		if err = json.Unmarshal([]byte(payload), block); err == nil && parsed.Carousel == nil {
			parsed.Carousel = block
		}
	case TagMapView:
		block := &models.MapViewBlock{}
		if err = json.Unmarshal([]byte(payload), block); err == nil && parsed.MapView == nil {
			parsed.MapView = block
		}
	case TagArticleResults:
		block := &models.ArticleResultsBlock{}
		if err = json.Unmarshal([]byte(payload), block); err == nil && parsed.Articles == nil {
			parsed.Articles = block
		}
	case TagMarketStats:
		block := &models.MarketStatsBlock{}
		if err = json.Unmarshal([]byte(payload), block); err == nil && parsed.MarketStats == nil {
			parsed.MarketStats = block
		}
	case TagNeighborhoodLink:
		block := &models.NeighborhoodLinkBlock{}
		if err = json.Unmarshal([]byte(payload), block); err == nil && parsed.NeighborhoodLink == nil {
			parsed.NeighborhoodLink = block
		}
	}

	if err != nil {
		p.logger.Warn("dropping malformed block", map[string]interface{}{
			"tag":   tag,
			"error": err.Error(),
		})
		return false
	}
	return true
}

// extract pulls every payload for one tag out of the text, strict matches
// first, then a balanced-brace scan for blocks missing their closing tag.
// It returns the payloads and the text with those blocks removed.
func extract(tag, text string) ([]string, string) {
	payloads := []string{}

	pattern := strictPatterns[tag]
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		payloads = append(payloads, match[1])
	}
	text = pattern.ReplaceAllString(text, "")

	// Fallback: an opening tag with no closing tag. Scan braces.
	open := fmt.Sprintf("[%s]", tag)
	for {
		idx := strings.Index(text, open)
		if idx < 0 {
			break
		}

		payload, end, ok := scanBraces(text, idx+len(open))
		if !ok {
			// No JSON object follows. Strip the dangling tag.
			text = text[:idx] + text[idx+len(open):]
			continue
		}

		payloads = append(payloads, payload)
		rest := text[end:]
		// Consume a trailing closing tag if one exists after all.
		rest = strings.TrimPrefix(strings.TrimLeft(rest, " \t\n"), fmt.Sprintf("[/%s]", tag))
		text = text[:idx] + rest
	}

	return payloads, text
}

// scanBraces finds the JSON object starting at or after pos and returns it
// with the index just past its final brace. Braces inside JSON strings are
// ignored.
func scanBraces(text string, pos int) (string, int, bool) {
	start := -1
	for i := pos; i < len(text); i++ {
		c := text[i]
		if c == '{' {
			start = i
			break
		}
		if c != ' ' && c != '\t' && c != '\n' {
			return "", 0, false
		}
	}
	if start < 0 {
		return "", 0, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], i + 1, true
			}
		}
	}

	return "", 0, false
}

// cleanText collapses the whitespace holes left behind by stripped markers.
func cleanText(text string) string {
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
