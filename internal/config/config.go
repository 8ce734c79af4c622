package config

import (
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// PaystackConfig holds payment gateway settings
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

// LedgerConfig holds coin ledger policy
type LedgerConfig struct {
	AuthorPayoutRate float64
	ReferencePrefix  string
	PackageCacheTTL  time.Duration
}

// AuthConfig holds session token settings
type AuthConfig struct {
	SecretKey string
}

// Load reads the .env file and binds every environment variable the service uses.
func Load() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.rate_limit_rps", "RATE_LIMIT_RPS")
	viper.BindEnv("server.rate_limit_burst", "RATE_LIMIT_BURST")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("swagger.host", "SWAGGER_HOST")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("paystack.secret_key", "PAYSTACK_SECRET_KEY")
	viper.BindEnv("paystack.base_url", "PAYSTACK_BASE_URL")
	viper.BindEnv("paystack.callback_url", "PAYSTACK_CALLBACK_URL")
	viper.BindEnv("paystack.timeout", "PAYSTACK_TIMEOUT")

	viper.BindEnv("ledger.author_payout_rate", "AUTHOR_PAYOUT_RATE")
	viper.BindEnv("ledger.reference_prefix", "PURCHASE_REFERENCE_PREFIX")
	viper.BindEnv("ledger.package_cache_ttl", "COIN_PACKAGE_CACHE_TTL")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
}

// ReadFile loads the .env file if there is one. A missing file is not an error.
func ReadFile() error {
	return viper.ReadInConfig()
}

func LoadServerConfig() *ServerConfig {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.rate_limit_rps", 5)
	viper.SetDefault("server.rate_limit_burst", 10)

	return &ServerConfig{
		Port:           viper.GetString("server.port"),
		RateLimitRPS:   viper.GetFloat64("server.rate_limit_rps"),
		RateLimitBurst: viper.GetInt("server.rate_limit_burst"),
	}
}

func LoadPaystackConfig() *PaystackConfig {
	viper.SetDefault("paystack.base_url", "https://api.paystack.co")
	viper.SetDefault("paystack.timeout", 15*time.Second)

	return &PaystackConfig{
		SecretKey:   viper.GetString("paystack.secret_key"),
		BaseURL:     viper.GetString("paystack.base_url"),
		CallbackURL: viper.GetString("paystack.callback_url"),
		Timeout:     viper.GetDuration("paystack.timeout"),
	}
}

func LoadLedgerConfig() *LedgerConfig {
	viper.SetDefault("ledger.author_payout_rate", 0.7)
	viper.SetDefault("ledger.reference_prefix", "NN_")
	viper.SetDefault("ledger.package_cache_ttl", 5*time.Minute)

	rate := viper.GetFloat64("ledger.author_payout_rate")
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}

	return &LedgerConfig{
		AuthorPayoutRate: rate,
		ReferencePrefix:  viper.GetString("ledger.reference_prefix"),
		PackageCacheTTL:  viper.GetDuration("ledger.package_cache_ttl"),
	}
}

func LoadAuthConfig() *AuthConfig {
	return &AuthConfig{
		SecretKey: viper.GetString("jwt.secret_key"),
	}
}
