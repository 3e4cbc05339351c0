package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/referrals/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Rates     sharedConfig.RatesConfig     `mapstructure:"rates"`
	Currency  sharedConfig.CurrencyConfig  `mapstructure:"currency"`
	Referrals sharedConfig.ReferralsConfig `mapstructure:"referrals"`
	Metrics   sharedConfig.MetricsConfig   `mapstructure:"metrics"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// configPath, when set, points at an explicit config file instead of the search paths.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("REFERRALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are a valid configuration on their own.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := config.Referrals.Cutoff(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.rate_limit", 600)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "referrals_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Rates defaults
	v.SetDefault("rates.url", "http://localhost:8090")
	v.SetDefault("rates.access_token", "")
	v.SetDefault("rates.base", "USD")
	v.SetDefault("rates.fresh_for", "5m")
	v.SetDefault("rates.failure_cooldown", "30s")
	v.SetDefault("rates.request_timeout", "10s")
	v.SetDefault("rates.warm_interval", "4m")
	v.SetDefault("rates.known_keys", []string{"BAT", "BTC", "ETH", "LTC", "USD", "EUR", "GBP", "JPY", "CAD"})

	// Referral payout defaults
	v.SetDefault("referrals.altcurrency", "BAT")
	v.SetDefault("referrals.max_referral_time", "")
	v.SetDefault("referrals.default_amount", "5")
	v.SetDefault("referrals.default_currency", "USD")

	v.SetDefault("metrics.namespace", "referrals")
}
