// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	SiteBaseURL string `mapstructure:"site_base_url"` // public site, for neighborhood page links
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	ListingsIndex string   `mapstructure:"listings_index"`
	ArticlesIndex string   `mapstructure:"articles_index"`
	URL           string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig holds the dispatch loop and query execution budgets.
type EngineConfig struct {
	MaxToolRounds  int `mapstructure:"max_tool_rounds"`
	LoopBudget     int `mapstructure:"loop_budget"`     // milliseconds, whole-conversation wall clock
	SearchTimeout  int `mapstructure:"search_timeout"`  // milliseconds, per index query
	ToolTimeout    int `mapstructure:"tool_timeout"`    // milliseconds, per tool call
	DefaultLimit   int `mapstructure:"default_limit"`   // listings returned per search
	MaxLimit       int `mapstructure:"max_limit"`
	CarouselLimit  int `mapstructure:"carousel_limit"`  // listings surfaced in carousel blocks
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Completion struct {
		BaseURL     string  `mapstructure:"base_url"`
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
		MaxRetries  int     `mapstructure:"max_retries"`
		Temperature float64 `mapstructure:"temperature"`
	} `mapstructure:"completion"`
}

// CatalogConfig controls the geo reference data cache.
type CatalogConfig struct {
	CacheTTL    int `mapstructure:"cache_ttl"`    // milliseconds
	MaxEntities int `mapstructure:"max_entities"` // per kind, from terms aggregations
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
