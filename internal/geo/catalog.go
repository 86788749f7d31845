// internal/geo/catalog.go
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"

	"listing-search/internal/common/logger"
	"listing-search/internal/models"
)

const catalogCacheKey = "geo:catalog:v1"

var ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")

// Catalog holds the canonical GeoEntity reference data, built from the
// distinct location values present in the property index. It is loaded out
// of band and read-only inside the request path.
type Catalog struct {
	Cities       []*models.GeoEntity `json:"cities"`
	Subdivisions []*models.GeoEntity `json:"subdivisions"`
	Counties     []*models.GeoEntity `json:"counties"`
	LoadedAt     time.Time           `json:"loadedAt"`
}

// CatalogLoader builds the catalog from Elasticsearch terms aggregations
// with a Redis cache in front.
type CatalogLoader struct {
	es       *elasticsearch.Client
	redis    *redis.Client
	index    string
	cacheTTL time.Duration
	maxTerms int
	logger   logger.Logger
}

func NewCatalogLoader(es *elasticsearch.Client, rdb *redis.Client, index string, cacheTTL time.Duration, maxTerms int, log logger.Logger) *CatalogLoader {
	return &CatalogLoader{
		es:       es,
		redis:    rdb,
		index:    index,
		cacheTTL: cacheTTL,
		maxTerms: maxTerms,
		logger:   log.With(map[string]interface{}{"component": "geo-catalog"}),
	}
}

// Load returns the cached catalog when fresh, otherwise rebuilds it from
// the index and refills the cache.
func (l *CatalogLoader) Load(ctx context.Context) (*Catalog, error) {
	if cached, err := l.fromCache(ctx); err == nil && cached != nil {
		return cached, nil
	}

	catalog, err := l.fromIndex(ctx)
	if err != nil {
		return nil, err
	}

	l.toCache(ctx, catalog)
	return catalog, nil
}

// Refresh rebuilds the catalog unconditionally and refills the cache.
func (l *CatalogLoader) Refresh(ctx context.Context) (*Catalog, error) {
	catalog, err := l.fromIndex(ctx)
	if err != nil {
		return nil, err
	}
	l.toCache(ctx, catalog)
	return catalog, nil
}

func (l *CatalogLoader) fromCache(ctx context.Context) (*Catalog, error) {
	if l.redis == nil {
		return nil, redis.Nil
	}

	raw, err := l.redis.Get(ctx, catalogCacheKey).Result()
	if err != nil {
		return nil, err
	}

	var catalog Catalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		l.logger.Warn("dropping unreadable cached catalog", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return &catalog, nil
}

func (l *CatalogLoader) toCache(ctx context.Context, catalog *Catalog) {
	if l.redis == nil {
		return
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := l.redis.Set(ctx, catalogCacheKey, data, l.cacheTTL).Err(); err != nil {
		l.logger.Warn("failed to cache catalog", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (l *CatalogLoader) fromIndex(ctx context.Context) (*Catalog, error) {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"cities": map[string]interface{}{
				"terms": map[string]interface{}{"field": "city.keyword", "size": l.maxTerms},
			},
			"subdivisions": map[string]interface{}{
				"terms": map[string]interface{}{"field": "subdivisionName.keyword", "size": l.maxTerms},
			},
			"counties": map[string]interface{}{
				"terms": map[string]interface{}{"field": "countyOrParish.keyword", "size": l.maxTerms},
			},
		},
	}

	raw, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{l.index},
		Body:  strings.NewReader(string(raw)),
	}

	res, err := req.Do(ctx, l.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrCatalogUnavailable, res.Status())
	}

	var parsed struct {
		Aggregations map[string]struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrCatalogUnavailable, err)
	}

	catalog := &Catalog{LoadedAt: time.Now().UTC()}
	catalog.Cities = bucketEntities(parsed.Aggregations["cities"].Buckets, models.GeoKindCity)
	catalog.Subdivisions = bucketEntities(parsed.Aggregations["subdivisions"].Buckets, models.GeoKindSubdivision)
	catalog.Counties = bucketEntities(parsed.Aggregations["counties"].Buckets, models.GeoKindCounty)

	l.logger.Info("catalog loaded from index", map[string]interface{}{
		"cities":       len(catalog.Cities),
		"subdivisions": len(catalog.Subdivisions),
		"counties":     len(catalog.Counties),
	})

	return catalog, nil
}

func bucketEntities(buckets []struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}, kind models.GeoKind) []*models.GeoEntity {
	entities := make([]*models.GeoEntity, 0, len(buckets))
	for _, b := range buckets {
		if strings.TrimSpace(b.Key) == "" {
			continue
		}
		entities = append(entities, &models.GeoEntity{
			Kind:     kind,
			Name:     b.Key,
			Slug:     Slugify(b.Key),
			Listings: b.DocCount,
		})
	}
	return entities
}

// Slugify produces the URL slug for an entity name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		}
		return -1
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
