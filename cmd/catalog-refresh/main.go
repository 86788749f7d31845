// cmd/catalog-refresh/main.go

// Rebuilds the geo catalog from the listings index and refills the Redis
// cache. Run after large index loads so resolution picks up new places
// without waiting for the cache TTL.
package main

import (
	"context"
	"os"
	"time"

	"listing-search/internal/common/config"
	"listing-search/internal/common/database"
	"listing-search/internal/common/logger"
	"listing-search/internal/geo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Error("elasticsearch client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("redis client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	loader := geo.NewCatalogLoader(
		es.Client,
		rdb.GetClient(),
		cfg.Database.Elasticsearch.ListingsIndex,
		config.GetDuration(cfg.Catalog.CacheTTL),
		cfg.Catalog.MaxEntities,
		log,
	)

	catalog, err := loader.Refresh(ctx)
	if err != nil {
		log.Error("catalog refresh failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.Info("catalog refreshed", map[string]interface{}{
		"cities":       len(catalog.Cities),
		"subdivisions": len(catalog.Subdivisions),
		"counties":     len(catalog.Counties),
	})
}
