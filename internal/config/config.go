package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	LogLevel                         string `mapstructure:"LOG_LEVEL"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	// Map server
	GeoServerBase        string `mapstructure:"GEOSERVER_BASE"`
	GeoServerWorkspace   string `mapstructure:"GEOSERVER_WORKSPACE"`
	GeoServerLayerPrefix string `mapstructure:"GEOSERVER_LAYER_PREFIX"`

	// Geocoder and Street View
	MapboxToken      string `mapstructure:"MAPBOX_TOKEN"`
	GeocoderLanguage string `mapstructure:"GEOCODER_LANGUAGE"`
	GoogleMapsAPIKey string `mapstructure:"GOOGLE_MAPS_API_KEY"`

	// Case files
	ExpedienteBase    string `mapstructure:"EXPEDIENTE_BASE"`
	ProxyAllowedHosts string `mapstructure:"PROXY_ALLOWED_HOSTS"` // comma separated

	// Cache (disabled when RedisAddr is empty)
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// Audit fan-out (disabled when AMQPURL is empty)
	AMQPURL    string `mapstructure:"AMQP_URL"`
	AuditQueue string `mapstructure:"AUDIT_QUEUE"`

	// Provisioning mail (disabled when SMTPHost is empty)
	SMTPHost   string `mapstructure:"SMTP_HOST"`
	SMTPPort   string `mapstructure:"SMTP_PORT"`
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	MailSender string `mapstructure:"MAIL_SENDER"`

	// Optional YAML override for the popup field catalog.
	FieldCatalogPath string `mapstructure:"FIELD_CATALOG_PATH"`
}

var appConfig *Config

var envKeys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"GEOSERVER_BASE", "GEOSERVER_WORKSPACE", "GEOSERVER_LAYER_PREFIX",
	"MAPBOX_TOKEN", "GEOCODER_LANGUAGE", "GOOGLE_MAPS_API_KEY",
	"EXPEDIENTE_BASE", "PROXY_ALLOWED_HOSTS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CATALOG_CACHE_TTL",
	"AMQP_URL", "AUDIT_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_SENDER",
	"FIELD_CATALOG_PATH",
}

// LoadConfig loads configuration from environment variables using Viper.
// Outside release mode a .env file in the working directory is read first.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		// Missing .env is normal in containers.
		_ = godotenv.Load()
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GEOSERVER_BASE", "https://geo.sic-di.com/geoserver")
	viper.SetDefault("GEOSERVER_WORKSPACE", "SICDI")
	viper.SetDefault("GEOSERVER_LAYER_PREFIX", "SECTOR_")
	viper.SetDefault("GEOCODER_LANGUAGE", "es")
	viper.SetDefault("EXPEDIENTE_BASE", "https://exp.sic-di.com")
	viper.SetDefault("PROXY_ALLOWED_HOSTS", "exp.sic-di.com")
	viper.SetDefault("CATALOG_CACHE_TTL", "10m")
	viper.SetDefault("AUDIT_QUEUE", "cadastre.audit")
	viper.SetDefault("SMTP_PORT", "587")

	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.GeoServerWorkspace == "" {
		return nil, errors.New("GEOSERVER_WORKSPACE cannot be empty")
	}
	if cfg.CatalogCacheTTL <= 0 {
		return nil, errors.New("CATALOG_CACHE_TTL must be a positive duration")
	}
	cfg.GeoServerBase = strings.TrimRight(cfg.GeoServerBase, "/")
	cfg.ExpedienteBase = strings.TrimRight(cfg.ExpedienteBase, "/")

	appConfig = &cfg
	return appConfig, nil
}

// AllowedProxyHosts returns the document proxy host allow-list.
func (c *Config) AllowedProxyHosts() []string {
	var hosts []string
	for _, h := range strings.Split(c.ProxyAllowedHosts, ",") {
		if h = strings.TrimSpace(strings.ToLower(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// IsRelease reports whether gin should run in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
