// cmd/search-engine/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"listing-search/internal/assemble"
	"listing-search/internal/common/config"
	"listing-search/internal/common/database"
	stderrors "listing-search/internal/common/errors"
	"listing-search/internal/common/logger"
	"listing-search/internal/common/observability"
	"listing-search/internal/dispatch"
	"listing-search/internal/geo"
	"listing-search/internal/index"
	"listing-search/internal/llm"
	"listing-search/internal/markers"
	"listing-search/internal/server"
	"listing-search/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting search engine", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Error("elasticsearch client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := es.Ping(); err != nil {
		log.Warn("elasticsearch not reachable at startup", map[string]interface{}{"error": err.Error()})
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("redis client init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogLoader := geo.NewCatalogLoader(
		es.Client,
		rdb.GetClient(),
		cfg.Database.Elasticsearch.ListingsIndex,
		config.GetDuration(cfg.Catalog.CacheTTL),
		cfg.Catalog.MaxEntities,
		log,
	)
	catalog, err := catalogLoader.Load(ctx)
	if err != nil {
		log.Error("geo catalog load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	resolver := geo.NewResolver(catalog, log)

	store := index.NewStore(&index.Config{
		ListingsIndex: cfg.Database.Elasticsearch.ListingsIndex,
		ArticlesIndex: cfg.Database.Elasticsearch.ArticlesIndex,
		Timeout:       config.GetDuration(cfg.Engine.SearchTimeout),
		DefaultLimit:  cfg.Engine.DefaultLimit,
		MaxLimit:      cfg.Engine.MaxLimit,
	}, es.Client, log)

	registry, err := tools.NewDefaultRegistry(tools.Deps{
		Resolver: resolver,
		Store:    store,
		SiteURL:  cfg.App.SiteBaseURL,
		Logger:   log,
	})
	if err != nil {
		log.Error("tool registry init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	completion := llm.NewClient(&llm.Config{
		BaseURL:     cfg.APIs.Completion.BaseURL,
		APIKey:      cfg.APIs.Completion.APIKey,
		Model:       cfg.APIs.Completion.Model,
		Timeout:     config.GetDuration(cfg.APIs.Completion.Timeout),
		MaxRetries:  cfg.APIs.Completion.MaxRetries,
		Temperature: cfg.APIs.Completion.Temperature,
	}, log)

	loop := dispatch.NewLoop(completion, registry, dispatch.Config{
		MaxToolRounds: cfg.Engine.MaxToolRounds,
		Budget:        config.GetDuration(cfg.Engine.LoopBudget),
	}, log)

	assembler := assemble.New(markers.NewParser(log), cfg.Engine.CarouselLimit, log)
	errHandler := stderrors.NewErrorHandler(log)

	chat := server.NewChatHandler(loop, assembler, errHandler, obs, log)
	health := server.NewHealthHandler(map[string]func() error{
		"elasticsearch": es.Ping,
		"redis": func() error {
			return rdb.Ping(context.Background())
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.NewRouter(chat, health, log),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", map[string]interface{}{"error": err.Error()})
	}
}
