// internal/index/store.go
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"listing-search/internal/common/logger"
	"listing-search/internal/common/metrics"
	"listing-search/internal/filter"
	"listing-search/internal/models"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
)

// Config holds index names and the per-query timeout, distinct from the
// dispatch loop's overall budget.
type Config struct {
	ListingsIndex string
	ArticlesIndex string
	Timeout       time.Duration
	DefaultLimit  int
	MaxLimit      int
}

// Store executes compiled queries and aggregations against Elasticsearch.
type Store struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewStore(config *Config, client *elasticsearch.Client, log logger.Logger) *Store {
	return &Store{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{"component": "index-store"}),
	}
}

// SearchListings executes a compiled query against the unified listings
// index. Listings and whole-result price stats come back from one request.
func (s *Store) SearchListings(ctx context.Context, query filter.CompiledQuery) (*SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	size := query.Limit
	if size <= 0 {
		size = s.config.DefaultLimit
	}
	if size > s.config.MaxLimit {
		size = s.config.MaxLimit
	}

	body := query.Build()
	body["_source"] = selectedFields
	body["track_total_hits"] = true
	body["aggs"] = map[string]interface{}{
		"price_stats": map[string]interface{}{
			"stats": map[string]interface{}{"field": "listPrice"},
		},
		"price_median": map[string]interface{}{
			"percentiles": map[string]interface{}{"field": "listPrice", "percents": []float64{50}},
		},
	}

	raw, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{s.config.ListingsIndex},
		Body:  strings.NewReader(string(raw)),
		Size:  &size,
	}

	start := time.Now()
	res, err := req.Do(ctx, s.client)
	metrics.IndexQueryDuration.WithLabelValues(s.config.ListingsIndex).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source listingSource `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
		Aggregations struct {
			PriceStats struct {
				Count int     `json:"count"`
				Avg   float64 `json:"avg"`
				Min   float64 `json:"min"`
				Max   float64 `json:"max"`
			} `json:"price_stats"`
			PriceMedian struct {
				Values map[string]float64 `json:"values"`
			} `json:"price_median"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchQueryFailed, err)
	}

	listings := make([]models.ListingSummary, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		listings = append(listings, hit.Source.reconcile())
	}

	result := &SearchResult{
		Listings:  listings,
		TotalHits: parsed.Hits.Total.Value,
		Took:      parsed.Took,
		Stats: models.PriceStats{
			TotalListings: parsed.Aggregations.PriceStats.Count,
			AvgPrice:      parsed.Aggregations.PriceStats.Avg,
			MinPrice:      parsed.Aggregations.PriceStats.Min,
			MaxPrice:      parsed.Aggregations.PriceStats.Max,
			MedianPrice:   parsed.Aggregations.PriceMedian.Values["50.0"],
		},
	}

	s.logger.Debug("listings search completed", map[string]interface{}{
		"totalHits": result.TotalHits,
		"returned":  len(result.Listings),
		"took":      result.Took,
	})

	return result, nil
}

// SearchArticles ranks published articles against free text.
func (s *Store) SearchArticles(ctx context.Context, text string, limit int) ([]models.ArticleSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if limit <= 0 {
		limit = 5
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  text,
							"fields": []string{"title^3", "excerpt^2", "body"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"published": true},
					},
				},
			},
		},
		"_source": []string{"title", "slug", "url", "excerpt"},
	}

	raw, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{s.config.ArticlesIndex},
		Body:  strings.NewReader(string(raw)),
		Size:  &limit,
	}

	start := time.Now()
	res, err := req.Do(ctx, s.client)
	metrics.IndexQueryDuration.WithLabelValues(s.config.ArticlesIndex).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Title   string `json:"title"`
					Slug    string `json:"slug"`
					URL     string `json:"url"`
					Excerpt string `json:"excerpt"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchQueryFailed, err)
	}

	articles := make([]models.ArticleSummary, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		articles = append(articles, models.ArticleSummary{
			Title:   hit.Source.Title,
			Slug:    hit.Source.Slug,
			URL:     hit.Source.URL,
			Excerpt: hit.Source.Excerpt,
			Score:   hit.Score,
		})
	}

	return articles, nil
}

// MarketStats aggregates days-on-market, price, and fee figures for every
// listing the query matches.
func (s *Store) MarketStats(ctx context.Context, query filter.CompiledQuery) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	body := query.Build()
	body["size"] = 0
	body["track_total_hits"] = true
	body["aggs"] = map[string]interface{}{
		"dom":        map[string]interface{}{"stats": map[string]interface{}{"field": "daysOnMarket"}},
		"dom_median": map[string]interface{}{"percentiles": map[string]interface{}{"field": "daysOnMarket", "percents": []float64{50}}},
		"price":      map[string]interface{}{"stats": map[string]interface{}{"field": "listPrice"}},
		"sqft":       map[string]interface{}{"avg": map[string]interface{}{"field": "livingArea"}},
		"hoa":        map[string]interface{}{"stats": map[string]interface{}{"field": "associationFee"}},
	}

	raw, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{s.config.ListingsIndex},
		Body:  strings.NewReader(string(raw)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			DOM struct {
				Avg float64 `json:"avg"`
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"dom"`
			DOMMedian struct {
				Values map[string]float64 `json:"values"`
			} `json:"dom_median"`
			Price struct {
				Avg float64 `json:"avg"`
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"price"`
			Sqft struct {
				Value float64 `json:"value"`
			} `json:"sqft"`
			HOA struct {
				Avg   float64 `json:"avg"`
				Count int     `json:"count"`
			} `json:"hoa"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchQueryFailed, err)
	}

	stats := map[string]interface{}{
		"totalListings":   parsed.Hits.Total.Value,
		"avgDaysOnMarket": parsed.Aggregations.DOM.Avg,
		"medianDaysOnMarket": parsed.Aggregations.DOMMedian.Values["50.0"],
		"avgPrice":        parsed.Aggregations.Price.Avg,
		"minPrice":        parsed.Aggregations.Price.Min,
		"maxPrice":        parsed.Aggregations.Price.Max,
		"avgHOAFee":       parsed.Aggregations.HOA.Avg,
	}
	if sqft := parsed.Aggregations.Sqft.Value; sqft > 0 {
		stats["avgPricePerSqft"] = parsed.Aggregations.Price.Avg / sqft
	}

	return stats, nil
}

// Appreciation computes yearly average close prices for sold listings and
// derives annual and cumulative appreciation over the period.
func (s *Store) Appreciation(ctx context.Context, query filter.CompiledQuery, years int) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if years <= 0 {
		years = 5
	}

	body := query.Build()
	body["size"] = 0
	// Closed sales only, inside the window.
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	extra := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"standardStatus": "Closed"}},
		map[string]interface{}{"range": map[string]interface{}{
			"closeDate": map[string]interface{}{
				"gte": fmt.Sprintf("now-%dy/y", years),
			},
		}},
	}
	if existing, ok := boolQuery["filter"].([]interface{}); ok {
		boolQuery["filter"] = append(existing, extra...)
	} else {
		boolQuery["filter"] = extra
	}

	body["aggs"] = map[string]interface{}{
		"by_year": map[string]interface{}{
			"date_histogram": map[string]interface{}{
				"field":             "closeDate",
				"calendar_interval": "year",
			},
			"aggs": map[string]interface{}{
				"avg_close": map[string]interface{}{"avg": map[string]interface{}{"field": "closePrice"}},
			},
		},
	}

	raw, _ := json.Marshal(body)
	req := esapi.SearchRequest{
		Index: []string{s.config.ListingsIndex},
		Body:  strings.NewReader(string(raw)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed struct {
		Aggregations struct {
			ByYear struct {
				Buckets []struct {
					KeyAsString string `json:"key_as_string"`
					DocCount    int    `json:"doc_count"`
					AvgClose    struct {
						Value float64 `json:"value"`
					} `json:"avg_close"`
				} `json:"buckets"`
			} `json:"by_year"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchQueryFailed, err)
	}

	yearly := []map[string]interface{}{}
	var first, last float64
	for _, bucket := range parsed.Aggregations.ByYear.Buckets {
		if bucket.AvgClose.Value <= 0 {
			continue
		}
		if first == 0 {
			first = bucket.AvgClose.Value
		}
		last = bucket.AvgClose.Value
		yearly = append(yearly, map[string]interface{}{
			"year":     bucket.KeyAsString,
			"avgPrice": bucket.AvgClose.Value,
			"sales":    bucket.DocCount,
		})
	}

	out := map[string]interface{}{
		"periodYears": years,
		"yearly":      yearly,
	}
	if first > 0 && len(yearly) > 1 {
		cumulative := (last - first) / first
		out["cumulativeAppreciation"] = cumulative
		out["annualAppreciation"] = cumulative / float64(len(yearly)-1)
	}

	return out, nil
}
