// internal/tools/executors_test.go
package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-search/internal/common/logger"
	"listing-search/internal/geo"
	"listing-search/internal/index"
	"listing-search/internal/models"
)

const searchResponse = `{
	"took": 3,
	"hits": {
		"total": {"value": 7},
		"hits": [{"_source": {"listingId": "219100001", "listPrice": 750000, "bedsTotal": 4}}]
	},
	"aggregations": {
		"price_stats": {"count": 7, "avg": 700000, "min": 500000, "max": 900000},
		"price_median": {"values": {"50.0": 680000}}
	}
}`

func testDeps(t *testing.T, esHandler http.HandlerFunc) Deps {
	t.Helper()

	srv := httptest.NewServer(esHandler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	store := index.NewStore(&index.Config{
		ListingsIndex: "unified_listings",
		ArticlesIndex: "articles",
		Timeout:       5 * time.Second,
		DefaultLimit:  100,
		MaxLimit:      200,
	}, client, logger.NewTestLogger(t))

	catalog := &geo.Catalog{
		Cities: []*models.GeoEntity{
			{Kind: models.GeoKindCity, Name: "Palm Desert", Slug: "palm-desert"},
			{Kind: models.GeoKindCity, Name: "Palm Springs", Slug: "palm-springs"},
		},
		Subdivisions: []*models.GeoEntity{
			{Kind: models.GeoKindSubdivision, Name: "PGA West", Slug: "pga-west"},
		},
	}

	return Deps{
		Resolver: geo.NewResolver(catalog, logger.NewTestLogger(t)),
		Store:    store,
		SiteURL:  "https://www.example-homes.com",
		Logger:   logger.NewTestLogger(t),
	}
}

func esOK(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Write([]byte(body))
	}
}

func TestSearchHomesResolvesLocation(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "searchHomes", Arguments: `{"location": "pga west", "minBeds": 3}`,
	})

	require.True(t, result.Success, "error: %+v", result.Error)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, 7, data["totalHits"])
	assert.Equal(t, "7 listings (1 returned)", result.Summary)
}

func TestSearchHomesAmbiguousLocation(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "searchHomes", Arguments: `{"location": "Palm"}`,
	})

	// Ambiguity is a successful result carrying candidates, not an error.
	require.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, "Palm", data["ambiguousLocation"])
	assert.Len(t, data["candidates"], 2)
	assert.Equal(t, "ambiguous location", result.Summary)
}

func TestSearchHomesUnresolvedLocationStillSearches(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "searchHomes", Arguments: `{"location": "Atlantis"}`,
	})

	require.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Contains(t, data["note"], "not recognized")
	assert.Equal(t, 7, data["totalHits"])
}

func TestSearchHomesRejectsBadSort(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "searchHomes", Arguments: `{"sort": "random"}`,
	})

	assert.False(t, result.Success)
	assert.Equal(t, "TOOL_ARGS_INVALID", result.Error.Code)
}

func TestLookupSubdivision(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "lookupSubdivision", Arguments: `{"name": "pga west"}`,
	})

	require.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, true, data["found"])

	entity := data["entity"].(*models.GeoEntity)
	assert.Equal(t, "PGA West", entity.Name)
}

func TestLookupSubdivisionNotFound(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "lookupSubdivision", Arguments: `{"name": "Shangri-La"}`,
	})

	require.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, false, data["found"])
}

func TestNeighborhoodLink(t *testing.T) {
	deps := testDeps(t, esOK(searchResponse))
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "getNeighborhoodPageLink", Arguments: `{"name": "Palm Desert"}`,
	})

	require.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	link := data["link"].(models.NeighborhoodLinkBlock)
	assert.Equal(t, "https://www.example-homes.com/neighborhoods/palm-desert", link.URL)
}

func TestExecutorFailureBecomesToolError(t *testing.T) {
	deps := testDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
	})
	registry, err := NewDefaultRegistry(deps)
	require.NoError(t, err)

	result := registry.Execute(context.Background(), models.ToolCall{
		ID: "c1", Name: "searchHomes", Arguments: `{"minBeds": 2}`,
	})

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "TOOL_EXEC_FAILED", result.Error.Code)
}
