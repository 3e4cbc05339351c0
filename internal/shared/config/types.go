package config

import (
	"fmt"
	"strings"
	"time"
)

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	Timezone  string `mapstructure:"timezone"`
	RateLimit int    `mapstructure:"rate_limit"` // per-IP requests per minute on /v1, 0 disables
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds the static bearer tokens accepted by the API.
type AuthConfig struct {
	Tokens []string `mapstructure:"tokens"`
}

// RatesConfig configures the exchange rate provider and the in-process rate cache.
type RatesConfig struct {
	URL             string        `mapstructure:"url"`
	AccessToken     string        `mapstructure:"access_token"`
	Base            string        `mapstructure:"base"`
	FreshFor        time.Duration `mapstructure:"fresh_for"`
	FailureCooldown time.Duration `mapstructure:"failure_cooldown"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	WarmInterval    time.Duration `mapstructure:"warm_interval"`
	KnownKeys       []string      `mapstructure:"known_keys"`
}

// CurrencyConfig overrides or extends the built-in token scale table.
// Keys are token symbols, values are power-of-ten scale strings such as "1e18".
type CurrencyConfig struct {
	Scales map[string]string `mapstructure:"scales"`
}

type ReferralsConfig struct {
	AltCurrency     string `mapstructure:"altcurrency"`
	MaxReferralTime string `mapstructure:"max_referral_time"`
	DefaultAmount   string `mapstructure:"default_amount"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

// Cutoff parses MaxReferralTime, the moment rate cards were turned on globally.
// An empty value yields the zero time, which makes every explicit group eligible.
func (r *ReferralsConfig) Cutoff() (time.Time, error) {
	if strings.TrimSpace(r.MaxReferralTime) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, r.MaxReferralTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid referrals.max_referral_time %q: %w", r.MaxReferralTime, err)
	}
	return t.UTC(), nil
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}
