// internal/tools/executors.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"listing-search/internal/common/logger"
	"listing-search/internal/common/validation"
	"listing-search/internal/filter"
	"listing-search/internal/geo"
	"listing-search/internal/index"
	"listing-search/internal/models"
)

// Deps carries the shared services every executor draws on.
type Deps struct {
	Resolver *geo.Resolver
	Store    *index.Store
	SiteURL  string // base for neighborhood page links
	Logger   logger.Logger
}

// NewDefaultRegistry builds a registry with the full operation set wired in.
func NewDefaultRegistry(deps Deps) (*Registry, error) {
	registry := NewRegistry(deps.Logger)
	handlers := []Handler{
		&searchHomesTool{deps},
		&lookupSubdivisionTool{deps},
		&marketStatsTool{deps},
		&appreciationTool{deps},
		&searchArticlesTool{deps},
		&neighborhoodLinkTool{deps},
	}
	for _, h := range handlers {
		if err := registry.Register(h); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// resolveLocation folds a free-text location into the intent's canonical
// fields. An ambiguous match is returned to the model as candidate data so
// it can ask the user; an unresolved one drops the location constraint.
func resolveLocation(deps Deps, intent *models.Intent) (ambiguous interface{}, note string) {
	if intent.Location == "" {
		return nil, ""
	}

	resolution := deps.Resolver.Resolve(intent.Location)
	switch {
	case resolution.Ambiguous():
		return map[string]interface{}{
			"ambiguousLocation": intent.Location,
			"candidates":        resolution.Candidates,
			"hint":              "ask the user which place they mean",
		}, ""
	case resolution.Unresolved:
		note = fmt.Sprintf("location %q not recognized, searching without a location filter", intent.Location)
		intent.Location = ""
		return nil, note
	}

	match := resolution.Match
	switch match.Kind {
	case models.GeoKindSubdivision:
		intent.Subdivision = match.Name
	case models.GeoKindCity:
		intent.City = match.Name
	case models.GeoKindCounty:
		intent.County = match.Name
	}
	intent.Location = ""
	return nil, ""
}

func decodeIntent(args map[string]interface{}) (models.Intent, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return models.Intent{}, err
	}
	var intent models.Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return models.Intent{}, err
	}
	return intent, nil
}

// ==========================
// searchHomes
// ==========================

type searchHomesTool struct{ deps Deps }

func (t *searchHomesTool) Name() string { return "searchHomes" }

func (t *searchHomesTool) Description() string {
	return "Search property listings with structured filters: location, price, beds, baths, size, amenities, listing date, and sort order. Rentals are excluded unless propertyType is 'rental'."
}

func (t *searchHomesTool) Schema() validation.JSONSchema { return searchHomesSchema }

func (t *searchHomesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	intent, err := decodeIntent(args)
	if err != nil {
		return nil, "", err
	}

	ambiguous, note := resolveLocation(t.deps, &intent)
	if ambiguous != nil {
		return ambiguous, "ambiguous location", nil
	}

	query := filter.Compile(intent)
	result, err := t.deps.Store.SearchListings(ctx, query)
	if err != nil {
		return nil, "", err
	}

	data := map[string]interface{}{
		"listings":  result.Listings,
		"totalHits": result.TotalHits,
		"stats":     result.Stats,
	}
	if note != "" {
		data["note"] = note
	}

	return data, fmt.Sprintf("%d listings (%d returned)", result.TotalHits, len(result.Listings)), nil
}

// ==========================
// lookupSubdivision
// ==========================

type lookupSubdivisionTool struct{ deps Deps }

func (t *lookupSubdivisionTool) Name() string { return "lookupSubdivision" }

func (t *lookupSubdivisionTool) Description() string {
	return "Verify a subdivision or community name against the known catalog and return its canonical name, slug, and active listing count."
}

func (t *lookupSubdivisionTool) Schema() validation.JSONSchema { return lookupSubdivisionSchema }

func (t *lookupSubdivisionTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	name, _ := args["name"].(string)

	resolution := t.deps.Resolver.Resolve(name)
	switch {
	case resolution.Ambiguous():
		return map[string]interface{}{
			"found":      false,
			"candidates": resolution.Candidates,
		}, "ambiguous", nil
	case resolution.Unresolved || resolution.Match == nil:
		return map[string]interface{}{"found": false}, "not found", nil
	}

	match := resolution.Match
	return map[string]interface{}{
		"found":      true,
		"entity":     match,
		"confidence": resolution.Confidence,
	}, fmt.Sprintf("%s (%s)", match.Name, match.Kind), nil
}

// ==========================
// getMarketStats
// ==========================

type marketStatsTool struct{ deps Deps }

func (t *marketStatsTool) Name() string { return "getMarketStats" }

func (t *marketStatsTool) Description() string {
	return "Aggregate market statistics for a location: listing counts, price range, days on market, and HOA fees."
}

func (t *marketStatsTool) Schema() validation.JSONSchema { return marketStatsSchema }

func (t *marketStatsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	intent, err := decodeIntent(args)
	if err != nil {
		return nil, "", err
	}

	ambiguous, _ := resolveLocation(t.deps, &intent)
	if ambiguous != nil {
		return ambiguous, "ambiguous location", nil
	}

	stats, err := t.deps.Store.MarketStats(ctx, filter.Compile(intent))
	if err != nil {
		return nil, "", err
	}

	location := firstNonEmpty(intent.Subdivision, intent.City, intent.County, intent.Zip)
	return map[string]interface{}{
		"location": location,
		"stats":    stats,
	}, fmt.Sprintf("market stats for %s", location), nil
}

// ==========================
// getAppreciation
// ==========================

type appreciationTool struct{ deps Deps }

func (t *appreciationTool) Name() string { return "getAppreciation" }

func (t *appreciationTool) Description() string {
	return "Compute historical price appreciation for a location from closed sales, yearly and cumulative, over the requested number of years."
}

func (t *appreciationTool) Schema() validation.JSONSchema { return appreciationSchema }

func (t *appreciationTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	intent, err := decodeIntent(args)
	if err != nil {
		return nil, "", err
	}

	ambiguous, _ := resolveLocation(t.deps, &intent)
	if ambiguous != nil {
		return ambiguous, "ambiguous location", nil
	}

	years := 5
	if y, ok := args["years"].(float64); ok && y > 0 {
		years = int(y)
	}

	data, err := t.deps.Store.Appreciation(ctx, filter.Compile(intent), years)
	if err != nil {
		return nil, "", err
	}

	location := firstNonEmpty(intent.Subdivision, intent.City, intent.County)
	data["location"] = location
	return data, fmt.Sprintf("%d-year appreciation for %s", years, location), nil
}

// ==========================
// searchArticles
// ==========================

type searchArticlesTool struct{ deps Deps }

func (t *searchArticlesTool) Name() string { return "searchArticles" }

func (t *searchArticlesTool) Description() string {
	return "Search published editorial articles by topic and return titles, links, and excerpts."
}

func (t *searchArticlesTool) Schema() validation.JSONSchema { return searchArticlesSchema }

func (t *searchArticlesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	query, _ := args["query"].(string)
	limit := 5
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	articles, err := t.deps.Store.SearchArticles(ctx, query, limit)
	if err != nil {
		return nil, "", err
	}

	return map[string]interface{}{
		"results": articles,
	}, fmt.Sprintf("%d articles", len(articles)), nil
}

// ==========================
// getNeighborhoodPageLink
// ==========================

type neighborhoodLinkTool struct{ deps Deps }

func (t *neighborhoodLinkTool) Name() string { return "getNeighborhoodPageLink" }

func (t *neighborhoodLinkTool) Description() string {
	return "Return the canonical site URL for a neighborhood or community page."
}

func (t *neighborhoodLinkTool) Schema() validation.JSONSchema { return neighborhoodLinkSchema }

func (t *neighborhoodLinkTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, string, error) {
	name, _ := args["name"].(string)

	resolution := t.deps.Resolver.Resolve(name)
	if resolution.Unresolved || resolution.Match == nil {
		return map[string]interface{}{"found": false}, "not found", nil
	}

	match := resolution.Match
	link := models.NeighborhoodLinkBlock{
		Name: match.Name,
		Slug: match.Slug,
		URL:  strings.TrimRight(t.deps.SiteURL, "/") + "/neighborhoods/" + match.Slug,
	}
	return map[string]interface{}{
		"found": true,
		"link":  link,
	}, match.Name, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "all areas"
}
