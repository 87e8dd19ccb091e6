// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// STRIPE_SECRET_KEY overrides stripe.secret_key, and so on.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory, so tests in nested packages pick up the root file too.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the environment names the
// storefront has always deployed with.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty := func(dst *string, envKeys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range envKeys {
			if val := os.Getenv(k); val != "" {
				*dst = val
				return
			}
		}
	}

	setIfEmpty(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setIfEmpty(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setIfEmpty(&cfg.Stripe.PriceExplorer, "STRIPE_PRICE_EXPLORER")
	setIfEmpty(&cfg.Stripe.PriceConnoisseur, "STRIPE_PRICE_CONNOISSEUR")
	setIfEmpty(&cfg.Server.BaseURL, "BASE_URL")
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	setIfEmpty(&cfg.Datastore.Airtable.APIKey, "AIRTABLE_API_KEY", "AIRTABLE_TOKEN")
	setIfEmpty(&cfg.Datastore.Airtable.BaseID, "AIRTABLE_BASE_ID")
	setIfEmpty(&cfg.Datastore.Airtable.ShopsTable, "AIRTABLE_SHOPS_TABLE")
	setIfEmpty(&cfg.Datastore.Airtable.PurchasesTable, "AIRTABLE_PURCHASES_TABLE")

	setIfEmpty(&cfg.Integrations.GA4.MeasurementID, "GA4_MEASUREMENT_ID", "GA4_MEASUREMENT")
	setIfEmpty(&cfg.Integrations.GA4.APISecret, "GA4_API_SECRET")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shop-concierge"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.ShopIndex == "" {
		cfg.Database.Elasticsearch.ShopIndex = "shops"
	}
	if cfg.Database.Redis.CacheTTL == 0 {
		cfg.Database.Redis.CacheTTL = 300
	}

	if cfg.Datastore.Backend == "" {
		cfg.Datastore.Backend = "airtable"
	}
	if cfg.Datastore.MaxRecords == 0 {
		cfg.Datastore.MaxRecords = 200
	}
	if cfg.Datastore.Timeout == 0 {
		cfg.Datastore.Timeout = 8000
	}
	if cfg.Datastore.Airtable.BaseURL == "" {
		cfg.Datastore.Airtable.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.Datastore.Airtable.ShopsTable == "" {
		cfg.Datastore.Airtable.ShopsTable = "shops"
	}
	if cfg.Datastore.Airtable.PurchasesTable == "" {
		cfg.Datastore.Airtable.PurchasesTable = "purchases"
	}

	if cfg.Stripe.Timeout == 0 {
		cfg.Stripe.Timeout = 10000
	}

	if cfg.Allocation.ShopsPerArea == 0 {
		cfg.Allocation.ShopsPerArea = 7
	}
	if cfg.Allocation.FairnessCap == 0 {
		cfg.Allocation.FairnessCap = 3
	}
	if cfg.Allocation.ConnoisseurTarget == "" {
		cfg.Allocation.ConnoisseurTarget = "per_area"
	}
	if cfg.Allocation.QueryTimeoutMs == 0 {
		cfg.Allocation.QueryTimeoutMs = 8000
	}

	if cfg.Integrations.GA4.Endpoint == "" {
		cfg.Integrations.GA4.Endpoint = "https://www.google-analytics.com/mp/collect"
	}
	if cfg.Integrations.GA4.Timeout == 0 {
		cfg.Integrations.GA4.Timeout = 5000
	}

	if cfg.Notifications.Mode == "" {
		cfg.Notifications.Mode = "inline"
	}
	if cfg.Notifications.PurchaseProcess == "" {
		cfg.Notifications.PurchaseProcess = "purchase-fulfilment"
	}
	if cfg.Notifications.ShortageProcess == "" {
		cfg.Notifications.ShortageProcess = "inventory-shortage"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "otlp"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Datastore.Backend {
	case "airtable":
		if cfg.Datastore.Airtable.APIKey == "" || cfg.Datastore.Airtable.BaseID == "" {
			return fmt.Errorf("datastore.airtable.api_key and base_id are required for the airtable backend")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("datastore.backend must be airtable or postgres, got %q", cfg.Datastore.Backend)
	}

	switch cfg.Allocation.ConnoisseurTarget {
	case "per_area", "total":
	default:
		return fmt.Errorf("allocation.connoisseur_target must be per_area or total, got %q", cfg.Allocation.ConnoisseurTarget)
	}
	if cfg.Allocation.FairnessCap < 1 || cfg.Allocation.ShopsPerArea < 1 {
		return fmt.Errorf("allocation.shops_per_area and fairness_cap must be positive")
	}

	switch cfg.Notifications.Mode {
	case "process":
		if cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when notifications.mode is process")
		}
	case "inline", "none":
	default:
		return fmt.Errorf("notifications.mode must be process, inline or none, got %q", cfg.Notifications.Mode)
	}

	if cfg.Database.Elasticsearch.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// CompanionRequired reports whether a missing "who" fails validation.
// Defaults to true.
func (a AllocationConfig) CompanionRequired() bool {
	return a.RequireCompanion == nil || *a.RequireCompanion
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
