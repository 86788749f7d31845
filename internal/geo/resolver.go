// internal/geo/resolver.go
package geo

import (
	"sort"
	"strings"

	"listing-search/internal/common/logger"
	"listing-search/internal/models"
)

const (
	// SimilarityFloor is the minimum score a fuzzy match must reach to be
	// considered at all.
	SimilarityFloor = 0.4

	// AutoAcceptThreshold is the confidence above which callers may commit
	// to a single match without surfacing candidates.
	AutoAcceptThreshold = 0.7

	// tieBand: entities scoring within 10% of the top score are returned
	// as candidates instead of silently picking one.
	tieBand = 0.9
)

// noiseWords are stripped before comparison so "Indian Wells Country Club"
// and "Indian Wells" land near each other.
var noiseWords = []string{"country club", "golf club", "estates", "community"}

// Resolver maps free-text location strings to canonical GeoEntities.
type Resolver struct {
	catalog *Catalog
	logger  logger.Logger
}

func NewResolver(catalog *Catalog, log logger.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"component": "geo-resolver"}),
	}
}

type scored struct {
	entity *models.GeoEntity
	score  float64
}

// Resolve matches text against the catalog. City and subdivision entities
// compete in one pool; counties are only consulted when neither reaches
// the similarity floor. No match at all yields an unresolved result, never
// an error: the caller searches without a location filter.
func (r *Resolver) Resolve(text string) *models.Resolution {
	query := strings.TrimSpace(text)
	if query == "" {
		return &models.Resolution{Unresolved: true}
	}

	pool := make([]*models.GeoEntity, 0, len(r.catalog.Subdivisions)+len(r.catalog.Cities))
	pool = append(pool, r.catalog.Subdivisions...)
	pool = append(pool, r.catalog.Cities...)

	matches := rank(query, pool)
	if len(matches) == 0 {
		matches = rank(query, r.catalog.Counties)
	}
	if len(matches) == 0 {
		r.logger.Debug("location unresolved", map[string]interface{}{"query": query})
		return &models.Resolution{Unresolved: true}
	}

	top := matches[0]
	tied := []*models.GeoEntity{top.entity}
	for _, m := range matches[1:] {
		if m.score >= top.score*tieBand {
			tied = append(tied, m.entity)
		}
	}

	if len(tied) > 1 {
		r.logger.Info("ambiguous location", map[string]interface{}{
			"query":      query,
			"candidates": len(tied),
			"topScore":   top.score,
		})
		return &models.Resolution{Candidates: tied}
	}

	return &models.Resolution{Match: top.entity, Confidence: top.score}
}

// rank scores every entity against the query and returns those above the
// floor, best first. Ordering is stable for equal scores: subdivisions
// before cities, then name order, so candidate lists are deterministic.
func rank(query string, entities []*models.GeoEntity) []scored {
	matches := []scored{}
	for _, entity := range entities {
		if s := score(query, entity.Name); s >= SimilarityFloor {
			matches = append(matches, scored{entity: entity, score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].entity.Kind != matches[j].entity.Kind {
			return matches[i].entity.Kind == models.GeoKindSubdivision
		}
		return matches[i].entity.Name < matches[j].entity.Name
	})

	return matches
}

// score rates how well a query matches a canonical name. Exact matches on
// the cleaned form rate highest, then raw exact, prefix, substring, and
// finally word overlap.
func score(query, name string) float64 {
	cleanQuery := Clean(query)
	cleanName := Clean(name)
	if cleanQuery == "" || cleanName == "" {
		return 0
	}

	switch {
	case cleanQuery == cleanName:
		return 1.0
	case strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(name)):
		return 0.95
	case strings.HasPrefix(cleanName, cleanQuery):
		return 0.9
	case strings.Contains(cleanName, cleanQuery):
		return 0.7
	}

	queryWords := strings.Fields(cleanQuery)
	nameWords := strings.Fields(cleanName)
	if len(queryWords) == 0 {
		return 0
	}

	matched := 0
	for _, qw := range queryWords {
		for _, nw := range nameWords {
			if qw == nw {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}

	ratio := float64(matched) / float64(len(queryWords))
	return 0.3 + 0.5*ratio
}

// Clean lowercases, strips punctuation and noise words, and collapses
// whitespace so fuzzy comparison sees only the distinctive words.
func Clean(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))

	out = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		}
		return ' '
	}, out)

	for _, noise := range noiseWords {
		out = strings.ReplaceAll(out, noise, " ")
	}

	out = strings.Join(strings.Fields(out), " ")
	out = strings.TrimPrefix(out, "the ")
	return strings.TrimSpace(out)
}
