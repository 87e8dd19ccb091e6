// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Datastore     DatastoreConfig         `mapstructure:"datastore"`
	Stripe        StripeConfig            `mapstructure:"stripe"`
	Allocation    AllocationConfig        `mapstructure:"allocation"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	BaseURL      string   `mapstructure:"base_url"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"`
	ShopIndex  string   `mapstructure:"shop_index"`
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
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

// DatastoreConfig selects where shop and purchase records live.
type DatastoreConfig struct {
	Backend    string         `mapstructure:"backend"` // airtable | postgres
	MaxRecords int            `mapstructure:"max_records"`
	Timeout    int            `mapstructure:"timeout"` // milliseconds
	Airtable   AirtableConfig `mapstructure:"airtable"`
}

type AirtableConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	BaseID         string `mapstructure:"base_id"`
	ShopsTable     string `mapstructure:"shops_table"`
	PurchasesTable string `mapstructure:"purchases_table"`
}

type StripeConfig struct {
	SecretKey        string `mapstructure:"secret_key"`
	WebhookSecret    string `mapstructure:"webhook_secret"`
	PriceExplorer    string `mapstructure:"price_explorer"`
	PriceConnoisseur string `mapstructure:"price_connoisseur"`
	APIURL           string `mapstructure:"api_url"` // overrides the Stripe endpoint, for stripe-mock
	Timeout          int    `mapstructure:"timeout"` // milliseconds
}

// AllocationConfig holds the sizing rules for results.
type AllocationConfig struct {
	ShopsPerArea      int    `mapstructure:"shops_per_area"`
	FairnessCap       int    `mapstructure:"fairness_cap"`
	ConnoisseurTarget string `mapstructure:"connoisseur_target"` // per_area | total
	StrictPerArea     bool   `mapstructure:"strict_per_area"`
	QueryTimeoutMs    int    `mapstructure:"query_timeout_ms"`
	RequireCompanion  *bool  `mapstructure:"require_companion"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for AWS and analytics.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	GA4 struct {
		MeasurementID string `mapstructure:"measurement_id"`
		APISecret     string `mapstructure:"api_secret"`
		Endpoint      string `mapstructure:"endpoint"`
		Timeout       int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"ga4"`
}

// NotificationConfig selects how purchase and shortage events fan out.
type NotificationConfig struct {
	Mode            string `mapstructure:"mode"` // process | inline | none
	PurchaseProcess string `mapstructure:"purchase_process"`
	ShortageProcess string `mapstructure:"shortage_process"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig holds OpenTelemetry tracer settings.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // otlp | jaeger | stdout
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
