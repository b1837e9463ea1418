package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig points the gateway at the remote document store. The
// values are environment-first (RESQMED_BACKEND_*): deployments configure
// them per environment, and an absent or placeholder project id puts the
// gateway into fallback mode.
type BackendConfig struct {
	Endpoint               string        `envconfig:"ENDPOINT"`
	ProjectID              string        `envconfig:"PROJECT_ID"`
	DatabaseID             string        `envconfig:"DATABASE_ID"`
	AppointmentsCollection string        `envconfig:"APPOINTMENTS_COLLECTION"`
	PatientsCollection     string        `envconfig:"PATIENTS_COLLECTION"`
	ReportsCollection      string        `envconfig:"REPORTS_COLLECTION"`
	ReportsBucket          string        `envconfig:"REPORTS_BUCKET"`
	RequestTimeout         time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LocatorConfig struct {
	GeocoderURL  string        `mapstructure:"geocoder_url"`
	RadiusKm     float64       `mapstructure:"radius_km"`
	MaxResults   int           `mapstructure:"max_results"`
	ViewboxDelta float64       `mapstructure:"viewbox_delta"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type SOSConfig struct {
	AcceptDelay    time.Duration `mapstructure:"accept_delay"`
	RotateInterval time.Duration `mapstructure:"rotate_interval"`
	CountdownFrom  int           `mapstructure:"countdown_from"`
}

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Backend   BackendConfig  `mapstructure:"-"`
	Database  DatabaseConfig `mapstructure:"database"`
	JWT       JWTConfig      `mapstructure:"jwt"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Locator   LocatorConfig  `mapstructure:"locator"`
	SOS       SOSConfig      `mapstructure:"sos"`
	LocalData struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"local_data"`
	RateLimit struct {
		Enabled           bool    `mapstructure:"enabled"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
	Security struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"security"`
	Monitoring struct {
		PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
		MetricsPath       string `mapstructure:"metrics_path"`
	} `mapstructure:"monitoring"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("RESQMED_BACKEND", &config.Backend); err != nil {
		return nil, fmt.Errorf("failed to process backend config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("local_data.dir", "./data")
	viper.SetDefault("locator.geocoder_url", "https://nominatim.openstreetmap.org/search")
	viper.SetDefault("locator.radius_km", 5.0)
	viper.SetDefault("locator.max_results", 6)
	viper.SetDefault("locator.viewbox_delta", 0.04)
	viper.SetDefault("locator.cache_ttl", 5*time.Minute)
	viper.SetDefault("sos.accept_delay", 10*time.Second)
	viper.SetDefault("sos.rotate_interval", 2500*time.Millisecond)
	viper.SetDefault("sos.countdown_from", 10)
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 50.0)
	viper.SetDefault("rate_limit.burst", 100)
	viper.SetDefault("monitoring.prometheus_enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
